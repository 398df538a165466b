package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/foundersignal/pipeline/internal/models"
)

const jobRunColumns = `id, job_name, status, started_at, completed_at, records_processed, metadata, error_message`

// JobRunRepository is the operational ledger for orchestrated stage runs.
type JobRunRepository struct {
	db *sqlx.DB
}

// NewJobRunRepository creates a new job run repository.
func NewJobRunRepository(db *sqlx.DB) *JobRunRepository {
	return &JobRunRepository{db: db}
}

// Start records a new running job and returns it.
func (r *JobRunRepository) Start(ctx context.Context, jobName string) (*models.JobRun, error) {
	run := &models.JobRun{
		ID:        uuid.New().String(),
		JobName:   jobName,
		Status:    models.JobRunning,
		StartedAt: time.Now(),
	}

	query := `
		INSERT INTO job_runs (id, job_name, status, started_at, records_processed)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING ` + jobRunColumns

	result := &models.JobRun{}
	err := r.db.QueryRowxContext(ctx, query, run.ID, run.JobName, run.Status, run.StartedAt).StructScan(result)
	if err != nil {
		return nil, fmt.Errorf("failed to start job run: %w", err)
	}
	return result, nil
}

// Complete marks a run completed with its processed count and metadata.
func (r *JobRunRepository) Complete(ctx context.Context, id string, recordsProcessed int, metadata json.RawMessage) error {
	query := `
		UPDATE job_runs
		SET status = $2, completed_at = $3, records_processed = $4, metadata = $5
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, models.JobCompleted, time.Now(), recordsProcessed, []byte(metadata))
	if err != nil {
		return fmt.Errorf("failed to complete job run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Fail marks a run failed with the given error message.
func (r *JobRunRepository) Fail(ctx context.Context, id, errorMessage string) error {
	query := `
		UPDATE job_runs
		SET status = $2, completed_at = $3, error_message = $4
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, models.JobFailed, time.Now(), errorMessage)
	if err != nil {
		return fmt.Errorf("failed to fail job run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetByID retrieves one job run.
func (r *JobRunRepository) GetByID(ctx context.Context, id string) (*models.JobRun, error) {
	run := &models.JobRun{}
	query := `SELECT ` + jobRunColumns + ` FROM job_runs WHERE id = $1`

	err := r.db.GetContext(ctx, run, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job run: %w", err)
	}
	return run, nil
}

// ListRecent returns the newest job runs up to limit.
func (r *JobRunRepository) ListRecent(ctx context.Context, limit int) ([]models.JobRun, error) {
	runs := []models.JobRun{}
	query := `
		SELECT ` + jobRunColumns + `
		FROM job_runs
		ORDER BY started_at DESC
		LIMIT $1`

	err := r.db.SelectContext(ctx, &runs, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list job runs: %w", err)
	}
	return runs, nil
}

// PurgeOlderThan deletes terminal job runs started before the cutoff.
func (r *JobRunRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM job_runs WHERE started_at < $1 AND status <> $2`
	res, err := r.db.ExecContext(ctx, query, cutoff, models.JobRunning)
	if err != nil {
		return 0, fmt.Errorf("failed to purge job runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read purge row count: %w", err)
	}
	return n, nil
}
