package weekly

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// JobRepository is the batch job ledger. Rows are append-mostly: inserted as
// running, finalized exactly once, never touched again. A stuck "running" row
// is how operators spot a run that died mid-flight.
type JobRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewJobRepository creates a batch job ledger repository.
func NewJobRepository(db *sql.DB, log zerolog.Logger) *JobRepository {
	return &JobRepository{
		db:  db,
		log: log.With().Str("component", "job_ledger").Logger(),
	}
}

// Start records the beginning of a batch run and returns the ledger row.
// The caller must abort the run if this write fails: an unobservable batch
// must not proceed.
func (j *JobRepository) Start(jobType, week string, totalCompanies int) (*BatchJob, error) {
	runID := uuid.New().String()
	startedAt := time.Now().UTC().Format(timestampFormat)

	res, err := j.db.Exec(`
		INSERT INTO weekly_batch_jobs (run_id, job_type, week, status, total_companies, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, jobType, week, StatusRunning, totalCompanies, startedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record batch job start: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read batch job id: %w", err)
	}

	j.log.Info().
		Int64("jobId", id).
		Str("runId", runID).
		Str("jobType", jobType).
		Str("week", week).
		Msg("Batch job started")

	total := totalCompanies
	return &BatchJob{
		ID:             id,
		RunID:          runID,
		JobType:        jobType,
		Week:           week,
		Status:         StatusRunning,
		TotalCompanies: &total,
		StartedAt:      startedAt,
	}, nil
}

// Finish finalizes a running ledger row with the run's counts. An empty
// errorMessage finalizes as success; otherwise as failed. Duration is
// wall-clock whole seconds from the recorded start.
func (j *JobRepository) Finish(jobID int64, result BatchResult, errorMessage string) error {
	var startedAt string
	err := j.db.QueryRow(`SELECT started_at FROM weekly_batch_jobs WHERE id = ?`, jobID).Scan(&startedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("batch job %d: %w", jobID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load batch job %d: %w", jobID, err)
	}

	started, err := time.Parse(timestampFormat, startedAt)
	if err != nil {
		return fmt.Errorf("corrupt started_at for batch job %d: %w", jobID, err)
	}

	finished := time.Now().UTC()
	duration := int64(finished.Sub(started).Seconds())

	status := StatusSuccess
	if errorMessage != "" {
		status = StatusFailed
	}

	_, err = j.db.Exec(`
		UPDATE weekly_batch_jobs
		SET status = ?, updated_count = ?, skipped_count = ?, error_count = ?,
		    finished_at = ?, duration_seconds = ?, error_message = ?
		WHERE id = ?`,
		status, result.Updated, result.Skipped, result.Errors,
		finished.Format(timestampFormat), duration, nullableString(errorMessage), jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize batch job %d: %w", jobID, err)
	}

	j.log.Info().
		Int64("jobId", jobID).
		Str("status", status).
		Int64("durationSeconds", duration).
		Msg("Batch job finished")

	return nil
}

// Recent returns the most recent ledger rows, newest first, optionally
// filtered by job type.
func (j *JobRepository) Recent(jobType string, limit int) ([]*BatchJob, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, run_id, job_type, week, status, total_companies, updated_count,
		       skipped_count, error_count, started_at, finished_at, duration_seconds,
		       error_message
		FROM weekly_batch_jobs`
	args := []interface{}{}
	if jobType != "" {
		query += ` WHERE job_type = ?`
		args = append(args, jobType)
	}
	query += ` ORDER BY started_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*BatchJob
	for rows.Next() {
		var job BatchJob
		var finishedAt, errorMessage sql.NullString
		err := rows.Scan(
			&job.ID, &job.RunID, &job.JobType, &job.Week, &job.Status,
			&job.TotalCompanies, &job.UpdatedCount, &job.SkippedCount,
			&job.ErrorCount, &job.StartedAt, &finishedAt, &job.DurationSeconds,
			&errorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan batch job row: %w", err)
		}
		job.FinishedAt = finishedAt.String
		job.ErrorMessage = errorMessage.String
		jobs = append(jobs, &job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate batch job rows: %w", err)
	}

	return jobs, nil
}
