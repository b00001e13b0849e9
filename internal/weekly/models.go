// Package weekly implements calendar-week aligned stock price statistics:
// Friday-anchored weekly aggregation, concurrent collection across the company
// registry, and the deduplicated weekly fact store with its batch job ledger.
package weekly

import (
	"errors"
	"time"
)

// CategoryStockPrice is the fact family written by this service. The store is
// keyed by (symbol, category, week) so other weekly fact families can share it.
const CategoryStockPrice = "stockprice"

// DataSourceNaver tags facts scraped from the Naver finance portal.
const DataSourceNaver = "naver_finance"

// Sentinel errors for the failure taxonomy. Entity-level conditions
// (ErrProviderUnavailable, ErrInsufficientData) are absorbed into error facts
// at the orchestration boundary; ErrNotFound surfaces as a client-visible miss.
var (
	ErrNotFound            = errors.New("weekly: not found")
	ErrInsufficientData    = errors.New("weekly: insufficient trading data")
	ErrProviderUnavailable = errors.New("weekly: provider unavailable")
)

// DailyBar is one trading day as returned by the daily series provider.
// Prices are integer units in the source market's currency. Bars are consumed
// within a single computation and never persisted.
type DailyBar struct {
	Date   time.Time
	Close  int64
	High   int64
	Low    int64
	Volume int64
}

// WeeklyStats is the output of the statistics engine for one company.
type WeeklyStats struct {
	ThisWeekClose  int64
	PriorWeekClose int64
	ChangeRate     float64 // percent, rounded to 2 decimals
	WeekHigh       int64
	WeekLow        int64
}

// WeeklyFact is the persisted weekly aggregate for one company, one category,
// one ISO week. Numeric fields are pointers: a populated Error marks a
// failed/partial fact whose numerics are null.
type WeeklyFact struct {
	ID              int64    `json:"id,omitempty"`
	Symbol          string   `json:"symbol"`
	CompanyName     string   `json:"companyName"`
	Category        string   `json:"category"`
	Week            string   `json:"week"` // ISO-week Monday, YYYY-MM-DD
	WeekYear        int      `json:"weekYear"`
	WeekNumber      int      `json:"weekNumber"`
	MarketCap       *int64   `json:"marketCap"`
	ThisWeekClose   *int64   `json:"thisWeekClose"`
	PriorWeekClose  *int64   `json:"priorWeekClose"`
	ChangeRate      *float64 `json:"changeRate"`
	WeekHigh        *int64   `json:"weekHigh"`
	WeekLow         *int64   `json:"weekLow"`
	Error           string   `json:"error,omitempty"`
	ThisFridayDate  string   `json:"thisFridayDate"`
	PriorFridayDate string   `json:"priorFridayDate"`
	DataSource      string   `json:"dataSource,omitempty"`
	CreatedAt       string   `json:"createdAt,omitempty"`
	UpdatedAt       string   `json:"updatedAt,omitempty"`
}

// Failed reports whether this fact records an entity-level failure.
func (f *WeeklyFact) Failed() bool {
	return f.Error != ""
}

// BatchJob is the ledger record for one orchestration run. It is created with
// StatusRunning before any per-company work and finalized exactly once.
type BatchJob struct {
	ID              int64  `json:"id"`
	RunID           string `json:"runId"`
	JobType         string `json:"jobType"`
	Week            string `json:"week"`
	Status          string `json:"status"`
	TotalCompanies  *int   `json:"totalCompanies"`
	UpdatedCount    *int   `json:"updatedCount"`
	SkippedCount    *int   `json:"skippedCount"`
	ErrorCount      *int   `json:"errorCount"`
	StartedAt       string `json:"startedAt"`
	FinishedAt      string `json:"finishedAt,omitempty"`
	DurationSeconds *int64 `json:"durationSeconds"`
	ErrorMessage    string `json:"errorMessage,omitempty"`
}

// Batch job statuses.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// BatchResult summarizes one batch run for callers.
type BatchResult struct {
	Status  string `json:"status"`
	Week    string `json:"week"`
	Total   int    `json:"total"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
	Errors  int    `json:"errors"`
}

// MarketStats aggregates the latest fact per company across the whole registry.
// Companies whose change rate is null are counted in TotalCompanies but
// excluded from the rate statistics.
type MarketStats struct {
	TotalCompanies    int     `json:"totalCompanies"`
	PositiveChange    int     `json:"positiveChange"`
	NegativeChange    int     `json:"negativeChange"`
	Unchanged         int     `json:"unchanged"`
	AverageChangeRate float64 `json:"averageChangeRate"`
	MaxChangeRate     float64 `json:"maxChangeRate"`
	MinChangeRate     float64 `json:"minChangeRate"`
	TotalMarketCap    int64   `json:"totalMarketCap"`
}
