package weekly

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(t *testing.T, series DailySeriesProvider) (*Orchestrator, *Repository, *JobRepository) {
	db := setupTestDB(t)
	t.Cleanup(func() { db.Close() })

	collector := newTestCollector(series, &mockCapProvider{})
	facts := NewRepository(db, zerolog.Nop())
	jobs := NewJobRepository(db, zerolog.Nop())
	return NewOrchestrator(collector, facts, jobs, zerolog.Nop()), facts, jobs
}

func TestRunBatch(t *testing.T) {
	series := &mockSeriesProvider{
		series: map[string][]DailyBar{"036570": fullWeek()},
		err: map[string]error{
			"7974": fmt.Errorf("%w: connection refused", ErrProviderUnavailable),
		},
	}
	orchestrator, facts, jobs := newTestOrchestrator(t, series)

	result, err := orchestrator.RunBatch(context.Background(), CategoryStockPrice, "")
	require.NoError(t, err)

	// Week defaults to the collector clock's current one.
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "2025-01-13", result.Week)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 1, result.Errors)

	// The failed company has a durable error fact.
	fact, err := facts.LatestBySymbol("7974")
	require.NoError(t, err)
	assert.True(t, fact.Failed())
	assert.Equal(t, "2025-01-13", fact.Week)

	// Exactly one finalized ledger row.
	recent, err := jobs.Recent(CategoryStockPrice, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, StatusSuccess, recent[0].Status)
	assert.Equal(t, 1, *recent[0].UpdatedCount)
	assert.Equal(t, 1, *recent[0].ErrorCount)
}

func TestRunBatchIsIdempotent(t *testing.T) {
	series := &mockSeriesProvider{series: map[string][]DailyBar{
		"036570": fullWeek(),
		"7974":   fullWeek(),
	}}
	orchestrator, facts, _ := newTestOrchestrator(t, series)

	first, err := orchestrator.RunBatch(context.Background(), CategoryStockPrice, "")
	require.NoError(t, err)
	assert.Equal(t, 2, first.Updated)

	second, err := orchestrator.RunBatch(context.Background(), CategoryStockPrice, "")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 2, second.Skipped)

	count, err := facts.CountTotal()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRunBatchBackfillWeek(t *testing.T) {
	series := &mockSeriesProvider{series: map[string][]DailyBar{
		"036570": fullWeek(),
		"7974":   fullWeek(),
	}}
	orchestrator, facts, _ := newTestOrchestrator(t, series)

	result, err := orchestrator.RunBatch(context.Background(), CategoryStockPrice, "2024-12-30")
	require.NoError(t, err)
	assert.Equal(t, "2024-12-30", result.Week)

	// The stored facts carry the requested week and its ISO calendar info.
	fact, err := facts.LatestBySymbol("036570")
	require.NoError(t, err)
	assert.Equal(t, "2024-12-30", fact.Week)
	assert.Equal(t, 2025, fact.WeekYear)
	assert.Equal(t, 1, fact.WeekNumber)
}

func TestRunBatchInvalidWeek(t *testing.T) {
	series := &mockSeriesProvider{}
	orchestrator, _, jobs := newTestOrchestrator(t, series)

	_, err := orchestrator.RunBatch(context.Background(), CategoryStockPrice, "garbage")
	require.Error(t, err)

	// No ledger row for a run that never started.
	recent, err := jobs.Recent("", 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
