package weekly

import (
	"database/sql"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
CREATE TABLE weekly_stock_prices (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol            TEXT NOT NULL,
	company_name      TEXT NOT NULL,
	category          TEXT NOT NULL DEFAULT 'stockprice',
	week              TEXT NOT NULL,
	week_year         INTEGER NOT NULL,
	week_number       INTEGER NOT NULL,
	market_cap        INTEGER,
	this_week_close   INTEGER,
	prior_week_close  INTEGER,
	change_rate       REAL,
	week_high         INTEGER,
	week_low          INTEGER,
	error             TEXT,
	this_friday_date  TEXT,
	prior_friday_date TEXT,
	data_source       TEXT,
	created_at        TEXT NOT NULL,
	updated_at        TEXT NOT NULL,
	UNIQUE (symbol, category, week)
);

CREATE TABLE weekly_batch_jobs (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id           TEXT NOT NULL,
	job_type         TEXT NOT NULL,
	week             TEXT NOT NULL,
	status           TEXT NOT NULL,
	total_companies  INTEGER,
	updated_count    INTEGER,
	skipped_count    INTEGER,
	error_count      INTEGER,
	started_at       TEXT NOT NULL,
	finished_at      TEXT,
	duration_seconds INTEGER,
	error_message    TEXT
);`

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	// An in-memory database lives on a single connection.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}

func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }

func makeFact(symbol, week string, changeRate float64) *WeeklyFact {
	return &WeeklyFact{
		Symbol:          symbol,
		CompanyName:     "Test Company " + symbol,
		Category:        CategoryStockPrice,
		Week:            week,
		WeekYear:        2025,
		WeekNumber:      3,
		MarketCap:       int64Ptr(100000),
		ThisWeekClose:   int64Ptr(1500),
		PriorWeekClose:  int64Ptr(1400),
		ChangeRate:      float64Ptr(changeRate),
		WeekHigh:        int64Ptr(1520),
		WeekLow:         int64Ptr(1420),
		ThisFridayDate:  "2025.01.10",
		PriorFridayDate: "2025.01.03",
		DataSource:      DataSourceNaver,
	}
}

func makeErrorFact(symbol, week string) *WeeklyFact {
	return &WeeklyFact{
		Symbol:          symbol,
		CompanyName:     "Test Company " + symbol,
		Category:        CategoryStockPrice,
		Week:            week,
		WeekYear:        2025,
		WeekNumber:      3,
		Error:           "daily series unavailable: mock outage",
		ThisFridayDate:  "2025.01.10",
		PriorFridayDate: "2025.01.03",
		DataSource:      DataSourceNaver,
	}
}

func TestUpsertBySymbol(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewRepository(db, zerolog.Nop())

	stored, err := repo.UpsertBySymbol(makeFact("036570", "2025-01-13", 7.14))
	require.NoError(t, err)
	assert.NotZero(t, stored.ID)
	require.NotNil(t, stored.ChangeRate)
	assert.Equal(t, 7.14, *stored.ChangeRate)
	assert.NotEmpty(t, stored.CreatedAt)

	// Re-upserting the same key overwrites values in place.
	updated := makeFact("036570", "2025-01-13", -2.5)
	stored2, err := repo.UpsertBySymbol(updated)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, stored2.ID)
	require.NotNil(t, stored2.ChangeRate)
	assert.Equal(t, -2.5, *stored2.ChangeRate)

	count, err := repo.CountTotal()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsertClearsErrorOnRecovery(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewRepository(db, zerolog.Nop())

	_, err := repo.UpsertBySymbol(makeErrorFact("036570", "2025-01-13"))
	require.NoError(t, err)

	stored, err := repo.UpsertBySymbol(makeFact("036570", "2025-01-13", 1.0))
	require.NoError(t, err)
	assert.False(t, stored.Failed())
	require.NotNil(t, stored.ThisWeekClose)
}

func TestBulkInsertDedup(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewRepository(db, zerolog.Nop())

	facts := []*WeeklyFact{
		makeFact("036570", "2025-01-13", 7.14),
		makeFact("7974", "2025-01-13", -1.2),
		makeErrorFact("0700", "2025-01-13"),
	}

	updated, skipped, errored, err := repo.BulkInsertDedup(facts)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, 1, errored)

	// Error facts are persisted as the durable failure record.
	fact, err := repo.LatestBySymbol("0700")
	require.NoError(t, err)
	assert.True(t, fact.Failed())

	// A repeated run is an idempotent no-op for the clean facts. The error
	// fact's row also exists already, but it stays counted under errors.
	updated, skipped, errored, err = repo.BulkInsertDedup(facts)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, 1, errored)

	count, err := repo.CountTotal()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestBulkInsertDedupDoesNotOverwrite(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewRepository(db, zerolog.Nop())

	first := makeFact("036570", "2025-01-13", 7.14)
	_, _, _, err := repo.BulkInsertDedup([]*WeeklyFact{first})
	require.NoError(t, err)

	// Same key with different values: the original row must survive.
	second := makeFact("036570", "2025-01-13", -9.99)
	_, skipped, _, err := repo.BulkInsertDedup([]*WeeklyFact{second})
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)

	fact, err := repo.LatestBySymbol("036570")
	require.NoError(t, err)
	require.NotNil(t, fact.ChangeRate)
	assert.Equal(t, 7.14, *fact.ChangeRate)
}

func TestBulkInsertDedupConcurrentRuns(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewRepository(db, zerolog.Nop())

	// Two runs race to insert the same key; the uniqueness constraint must
	// let exactly one insert win and leave exactly one row behind.
	type counts struct{ updated, skipped, errored int }
	results := make([]counts, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			updated, skipped, errored, err := repo.BulkInsertDedup([]*WeeklyFact{
				makeFact("036570", "2025-01-13", 7.14),
			})
			assert.NoError(t, err)
			results[i] = counts{updated, skipped, errored}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, results[0].updated+results[1].updated)
	assert.Equal(t, 1, results[0].skipped+results[1].skipped)
	assert.Equal(t, 0, results[0].errored+results[1].errored)

	total, err := repo.CountTotal()
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestBulkInsertDedupStoreUnreachable(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())
	require.NoError(t, db.Close())

	_, _, _, err := repo.BulkInsertDedup([]*WeeklyFact{makeFact("036570", "2025-01-13", 7.14)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fact store unreachable")
}

func TestLatestBySymbol(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewRepository(db, zerolog.Nop())

	_, err := repo.LatestBySymbol("036570")
	assert.ErrorIs(t, err, ErrNotFound)

	// Two weeks for the same symbol; created_at ordering picks the newer row.
	_, err = repo.UpsertBySymbol(makeFact("036570", "2025-01-06", 1.0))
	require.NoError(t, err)
	older := makeFact("036570", "2025-01-13", 7.14)
	_, err = repo.UpsertBySymbol(older)
	require.NoError(t, err)

	fact, err := repo.LatestBySymbol("036570")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-13", fact.Week)
}

func TestAllLatest(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewRepository(db, zerolog.Nop())

	_, err := repo.UpsertBySymbol(makeFact("7974", "2025-01-06", 2.0))
	require.NoError(t, err)
	_, err = repo.UpsertBySymbol(makeFact("7974", "2025-01-13", 3.0))
	require.NoError(t, err)
	_, err = repo.UpsertBySymbol(makeFact("036570", "2025-01-13", 7.14))
	require.NoError(t, err)

	facts, err := repo.AllLatest()
	require.NoError(t, err)
	require.Len(t, facts, 2)

	// Ordered by symbol, one row per symbol, latest week wins.
	assert.Equal(t, "036570", facts[0].Symbol)
	assert.Equal(t, "7974", facts[1].Symbol)
	assert.Equal(t, "2025-01-13", facts[1].Week)
}

func TestTopByChangeRate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewRepository(db, zerolog.Nop())

	for symbol, rate := range map[string]float64{
		"A": 5.5, "B": -3.2, "C": 12.1, "D": -0.5, "E": 0.0,
	} {
		_, err := repo.UpsertBySymbol(makeFact(symbol, "2025-01-13", rate))
		require.NoError(t, err)
	}
	// A null change rate never appears in rankings.
	_, err := repo.UpsertBySymbol(makeErrorFact("F", "2025-01-13"))
	require.NoError(t, err)

	gainers, err := repo.TopByChangeRate(DirectionGainers, 10)
	require.NoError(t, err)
	require.Len(t, gainers, 2)
	assert.Equal(t, "C", gainers[0].Symbol)
	assert.Equal(t, "A", gainers[1].Symbol)

	losers, err := repo.TopByChangeRate(DirectionLosers, 1)
	require.NoError(t, err)
	require.Len(t, losers, 1)
	assert.Equal(t, "B", losers[0].Symbol)

	_, err = repo.TopByChangeRate("sideways", 10)
	assert.Error(t, err)
}

func TestMarketStatistics(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewRepository(db, zerolog.Nop())

	t.Run("empty store", func(t *testing.T) {
		stats, err := repo.MarketStatistics()
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalCompanies)
	})

	for symbol, rate := range map[string]float64{"A": 4.0, "B": -2.0, "C": 0.0} {
		_, err := repo.UpsertBySymbol(makeFact(symbol, "2025-01-13", rate))
		require.NoError(t, err)
	}
	// Null rate counts toward the total but not the rate statistics.
	_, err := repo.UpsertBySymbol(makeErrorFact("D", "2025-01-13"))
	require.NoError(t, err)

	stats, err := repo.MarketStatistics()
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalCompanies)
	assert.Equal(t, 1, stats.PositiveChange)
	assert.Equal(t, 1, stats.NegativeChange)
	assert.Equal(t, 1, stats.Unchanged)
	assert.Equal(t, 0.67, stats.AverageChangeRate)
	assert.Equal(t, 4.0, stats.MaxChangeRate)
	assert.Equal(t, -2.0, stats.MinChangeRate)
	assert.Equal(t, int64(300000), stats.TotalMarketCap)
}
