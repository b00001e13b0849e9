package weekly

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Orchestrator runs the scheduled batch pipeline: ledger start, concurrent
// collection across the registry, dedup bulk insert, ledger finish. It owns
// the single ledger row for each run; nothing else writes to it.
type Orchestrator struct {
	collector *Collector
	facts     *Repository
	jobs      *JobRepository
	log       zerolog.Logger
}

// NewOrchestrator creates a batch orchestrator.
func NewOrchestrator(collector *Collector, facts *Repository, jobs *JobRepository, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		collector: collector,
		facts:     facts,
		jobs:      jobs,
		log:       log.With().Str("component", "orchestrator").Logger(),
	}
}

// RunBatch executes one batch run for a fact category. An empty week defaults
// to the current ISO-week Monday. Entity-level failures are absorbed into the
// counts; a non-nil error means the run itself could not complete (ledger
// start failed or the fact store was unreachable), and the ledger records the
// failure when it is still reachable.
func (o *Orchestrator) RunBatch(ctx context.Context, category, week string) (*BatchResult, error) {
	if week == "" {
		week = CurrentWeekMonday(o.collector.now())
	}
	weekYear, weekNumber, err := WeekInfo(week)
	if err != nil {
		return nil, err
	}

	total := o.collector.registry.Len()

	// The ledger row must exist before any per-company work so every run is
	// observable, even one that crashes mid-flight. Fail fast if it cannot
	// be written.
	job, err := o.jobs.Start(category, week, total)
	if err != nil {
		return nil, fmt.Errorf("batch aborted, ledger unavailable: %w", err)
	}

	o.log.Info().
		Str("category", category).
		Str("week", week).
		Int("companies", total).
		Msg("Batch collection started")

	facts := o.collector.CollectAll(ctx)

	// The batch may target a different week than the one the facts were
	// computed in (a backfill trigger); the store key follows the requested
	// week.
	for _, fact := range facts {
		fact.Category = category
		fact.Week = week
		fact.WeekYear = weekYear
		fact.WeekNumber = weekNumber
	}

	updated, skipped, errored, err := o.facts.BulkInsertDedup(facts)
	if err != nil {
		result := BatchResult{Status: StatusFailed, Week: week, Total: total}
		// Best effort: the fact store being down does not imply the ledger
		// is, and a failed row beats a stuck running one.
		if finishErr := o.jobs.Finish(job.ID, result, err.Error()); finishErr != nil {
			o.log.Error().Err(finishErr).Int64("jobId", job.ID).Msg("Failed to record batch failure")
		}
		return nil, fmt.Errorf("batch failed: %w", err)
	}

	result := BatchResult{
		Status:  StatusSuccess,
		Week:    week,
		Total:   total,
		Updated: updated,
		Skipped: skipped,
		Errors:  errored,
	}

	// Facts are already persisted at this point; a finish-write failure is
	// logged, not propagated.
	if err := o.jobs.Finish(job.ID, result, ""); err != nil {
		o.log.Error().Err(err).Int64("jobId", job.ID).Msg("Failed to finalize batch job")
	}

	o.log.Info().
		Str("week", week).
		Int("updated", updated).
		Int("skipped", skipped).
		Int("errors", errored).
		Msg("Batch collection finished")

	return &result, nil
}
