package weekly

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gamestock/internal/registry"
)

// DailySeriesProvider returns a reverse-chronological daily series for a stock
// code, bounded to the most recent days rows. An empty series or an error both
// mean the provider could not supply usable data.
type DailySeriesProvider interface {
	DailySeries(ctx context.Context, code string, days int) ([]DailyBar, error)
}

// MarketCapProvider returns the current market capitalization for a stock
// code, or nil when the value cannot be determined. A missing market cap is
// not a failure; the weekly fact simply carries a null.
type MarketCapProvider interface {
	MarketCap(ctx context.Context, code string) (*int64, error)
}

// Collector computes weekly facts for companies in the registry. Each company
// computation is independent: it fetches the daily series and market cap,
// resolves the Friday anchors and runs the statistics engine. Failures are
// converted into error facts and never cross the task boundary.
type Collector struct {
	series   DailySeriesProvider
	caps     MarketCapProvider
	registry *registry.Registry
	log      zerolog.Logger

	lookbackDays int
	now          func() time.Time
}

// CollectorConfig holds collector construction parameters.
type CollectorConfig struct {
	Series       DailySeriesProvider
	MarketCaps   MarketCapProvider
	Registry     *registry.Registry
	LookbackDays int
	Now          func() time.Time // defaults to time.Now, injectable for tests
}

// NewCollector creates a collector over the given providers and registry.
func NewCollector(cfg CollectorConfig, log zerolog.Logger) *Collector {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	lookback := cfg.LookbackDays
	if lookback <= 0 {
		lookback = 21
	}
	return &Collector{
		series:       cfg.Series,
		caps:         cfg.MarketCaps,
		registry:     cfg.Registry,
		log:          log.With().Str("component", "collector").Logger(),
		lookbackDays: lookback,
		now:          now,
	}
}

// CollectOne computes the weekly fact for a single identifier (stock code or
// company name). Returns ErrNotFound when the identifier resolves to no
// registered company. Provider failures yield an error fact, not an error.
func (c *Collector) CollectOne(ctx context.Context, identifier string) (*WeeklyFact, error) {
	company, ok := c.registry.Resolve(identifier)
	if !ok {
		return nil, fmt.Errorf("company %q: %w", identifier, ErrNotFound)
	}
	return c.collectCompany(ctx, company), nil
}

// CollectAll computes weekly facts for every registered company concurrently.
// Company tasks share no mutable state; each writes only its own result slot.
// The returned slice preserves registry order and always has one fact per
// company - failed companies carry error facts.
func (c *Collector) CollectAll(ctx context.Context) []*WeeklyFact {
	companies := c.registry.Companies()
	facts := make([]*WeeklyFact, len(companies))

	var wg sync.WaitGroup
	for i, company := range companies {
		wg.Add(1)
		go func(i int, company registry.Company) {
			defer wg.Done()
			facts[i] = c.collectCompany(ctx, company)
		}(i, company)
	}
	wg.Wait()

	errored := 0
	for _, f := range facts {
		if f.Failed() {
			errored++
		}
	}
	c.log.Info().
		Int("companies", len(companies)).
		Int("errors", errored).
		Msg("Collected weekly data for all companies")

	return facts
}

// collectCompany never fails: every provider or data problem is folded into
// the returned fact's Error field so one bad company cannot abort a batch.
func (c *Collector) collectCompany(ctx context.Context, company registry.Company) *WeeklyFact {
	now := c.now()
	thisFriday, priorFriday := FridayAnchors(now)
	week := CurrentWeekMonday(now)
	weekYear, weekNumber, _ := WeekInfo(week)

	fact := &WeeklyFact{
		Symbol:          company.Code,
		CompanyName:     company.Name,
		Category:        CategoryStockPrice,
		Week:            week,
		WeekYear:        weekYear,
		WeekNumber:      weekNumber,
		ThisFridayDate:  thisFriday.Format(AnchorDateFormat),
		PriorFridayDate: priorFriday.Format(AnchorDateFormat),
		DataSource:      DataSourceNaver,
	}

	// Market cap is best-effort: a miss leaves the field null.
	if marketCap, err := c.caps.MarketCap(ctx, company.Code); err != nil {
		c.log.Warn().Err(err).Str("symbol", company.Code).Msg("Market cap fetch failed")
	} else {
		fact.MarketCap = marketCap
	}

	bars, err := c.series.DailySeries(ctx, company.Code, c.lookbackDays)
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", company.Code).Msg("Daily series fetch failed")
		fact.Error = fmt.Sprintf("daily series unavailable: %v", err)
		return fact
	}
	if len(bars) == 0 {
		fact.Error = "daily series unavailable: provider returned no bars"
		return fact
	}

	stats, ok := ComputeStats(bars, thisFriday, priorFriday)
	if !ok {
		fact.Error = fmt.Sprintf("insufficient trading data for anchors %s / %s",
			fact.ThisFridayDate, fact.PriorFridayDate)
		return fact
	}

	fact.ThisWeekClose = &stats.ThisWeekClose
	fact.PriorWeekClose = &stats.PriorWeekClose
	fact.ChangeRate = &stats.ChangeRate
	fact.WeekHigh = &stats.WeekHigh
	fact.WeekLow = &stats.WeekLow

	c.log.Debug().
		Str("symbol", company.Code).
		Str("company", company.Name).
		Float64("changeRate", stats.ChangeRate).
		Msg("Computed weekly stats")

	return fact
}
