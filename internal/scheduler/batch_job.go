package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"gamestock/internal/weekly"
)

// BatchCollectJob triggers the weekly stock price batch on schedule. It is
// the automation equivalent of the manual batch endpoint: the orchestrator's
// dedup write path makes overlapping triggers within the same week no-ops.
type BatchCollectJob struct {
	orchestrator *weekly.Orchestrator
	timeout      time.Duration
	log          zerolog.Logger
}

// NewBatchCollectJob creates the scheduled batch job.
func NewBatchCollectJob(orchestrator *weekly.Orchestrator, log zerolog.Logger) *BatchCollectJob {
	return &BatchCollectJob{
		orchestrator: orchestrator,
		timeout:      30 * time.Minute,
		log:          log.With().Str("job", "batch_collect").Logger(),
	}
}

// Name implements Job.
func (j *BatchCollectJob) Name() string {
	return "weekly-stockprice-batch"
}

// Run implements Job. The week defaults to the current one; entity-level
// errors are inside the result counts, so a returned error means the run
// itself did not complete.
func (j *BatchCollectJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	result, err := j.orchestrator.RunBatch(ctx, weekly.CategoryStockPrice, "")
	if err != nil {
		return err
	}

	j.log.Info().
		Str("week", result.Week).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("errors", result.Errors).
		Msg("Scheduled batch completed")

	return nil
}
