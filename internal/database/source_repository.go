package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/foundersignal/pipeline/internal/models"
)

const sourceColumns = `id, startup_id, source_type, source_url, raw_data, extracted_at`

// SourceRepository provides append-only storage for evidence records.
type SourceRepository struct {
	db *sqlx.DB
}

// NewSourceRepository creates a new source repository.
func NewSourceRepository(db *sqlx.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// Insert appends one evidence record. Records are never updated afterwards;
// the raw payload is stored byte-for-byte as passed in.
func (r *SourceRepository) Insert(ctx context.Context, rec *models.DataSourceRecord) (*models.DataSourceRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.ExtractedAt.IsZero() {
		rec.ExtractedAt = time.Now()
	}

	query := `
		INSERT INTO data_source_records (` + sourceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + sourceColumns

	result := &models.DataSourceRecord{}
	err := r.db.QueryRowxContext(ctx, query,
		rec.ID, rec.StartupID, rec.SourceType, rec.SourceURL, []byte(rec.RawData), rec.ExtractedAt,
	).StructScan(result)
	if err != nil {
		return nil, fmt.Errorf("failed to insert data source record: %w", err)
	}
	return result, nil
}

// ListByStartup returns all evidence for a startup, newest first.
func (r *SourceRepository) ListByStartup(ctx context.Context, startupID string) ([]models.DataSourceRecord, error) {
	records := []models.DataSourceRecord{}
	query := `
		SELECT ` + sourceColumns + `
		FROM data_source_records
		WHERE startup_id = $1
		ORDER BY extracted_at DESC`

	err := r.db.SelectContext(ctx, &records, query, startupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list data source records: %w", err)
	}
	return records, nil
}

// ListByStartupAndType returns evidence for a startup filtered by source type.
func (r *SourceRepository) ListByStartupAndType(ctx context.Context, startupID string, sourceType models.SourceType) ([]models.DataSourceRecord, error) {
	records := []models.DataSourceRecord{}
	query := `
		SELECT ` + sourceColumns + `
		FROM data_source_records
		WHERE startup_id = $1 AND source_type = $2
		ORDER BY extracted_at DESC`

	err := r.db.SelectContext(ctx, &records, query, startupID, sourceType)
	if err != nil {
		return nil, fmt.Errorf("failed to list data source records by type: %w", err)
	}
	return records, nil
}

// ListRecentByTypes returns evidence extracted after the cutoff, restricted
// to the given source types. The funding-detection sweep passes the collector
// types only, so it never rescans records it wrote itself.
func (r *SourceRepository) ListRecentByTypes(ctx context.Context, since time.Time, types []models.SourceType, limit int) ([]models.DataSourceRecord, error) {
	records := []models.DataSourceRecord{}
	query := `
		SELECT ` + sourceColumns + `
		FROM data_source_records
		WHERE extracted_at > $1 AND source_type = ANY($2)
		ORDER BY extracted_at DESC
		LIMIT $3`

	typeNames := make([]string, len(types))
	for i, t := range types {
		typeNames[i] = string(t)
	}
	err := r.db.SelectContext(ctx, &records, query, since, pq.Array(typeNames), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent data source records: %w", err)
	}
	return records, nil
}

// CountByStartup returns how many evidence records a startup has.
func (r *SourceRepository) CountByStartup(ctx context.Context, startupID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM data_source_records WHERE startup_id = $1`
	if err := r.db.GetContext(ctx, &count, query, startupID); err != nil {
		return 0, fmt.Errorf("failed to count data source records: %w", err)
	}
	return count, nil
}

// Count returns the total number of evidence records.
func (r *SourceRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM data_source_records`); err != nil {
		return 0, fmt.Errorf("failed to count data source records: %w", err)
	}
	return count, nil
}

// PurgeOlderThan deletes evidence extracted before the cutoff and returns
// how many rows were removed.
func (r *SourceRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM data_source_records WHERE extracted_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge data source records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read purge row count: %w", err)
	}
	return n, nil
}
