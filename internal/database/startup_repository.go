package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/foundersignal/pipeline/internal/models"
)

const startupColumns = `id, name, name_normalized, description, website_url, founded_date,
	funding_amount, funding_stage, current_valuation, valuation_date, employee_count,
	location, industry, tags, github_url, product_hunt_url, created_at, updated_at`

// StartupRepository provides database operations for canonical startup records.
type StartupRepository struct {
	db *sqlx.DB
}

// NewStartupRepository creates a new startup repository.
func NewStartupRepository(db *sqlx.DB) *StartupRepository {
	return &StartupRepository{db: db}
}

// GetByID retrieves a startup by ID.
func (r *StartupRepository) GetByID(ctx context.Context, id string) (*models.Startup, error) {
	startup := &models.Startup{}
	query := `SELECT ` + startupColumns + ` FROM startups WHERE id = $1`

	err := r.db.GetContext(ctx, startup, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get startup: %w", err)
	}
	return startup, nil
}

// FindByNormalizedName retrieves a startup by its case-folded name key.
func (r *StartupRepository) FindByNormalizedName(ctx context.Context, nameNormalized string) (*models.Startup, error) {
	startup := &models.Startup{}
	query := `SELECT ` + startupColumns + ` FROM startups WHERE name_normalized = $1`

	err := r.db.GetContext(ctx, startup, query, nameNormalized)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find startup by name: %w", err)
	}
	return startup, nil
}

// Upsert inserts a startup or merges it into the existing row sharing the
// same normalized name. The merge is non-destructive: existing non-null
// fields win, blanks are filled from the new data. When fundingAuthoritative
// is set the incoming funding and valuation fields overwrite existing ones
// instead. The unique constraint on name_normalized is the concurrency guard
// against two collectors discovering the same company at once.
func (r *StartupRepository) Upsert(ctx context.Context, s *models.Startup, fundingAuthoritative bool) (*models.Startup, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	fundingMerge := `
			funding_amount = COALESCE(startups.funding_amount, EXCLUDED.funding_amount),
			funding_stage = COALESCE(startups.funding_stage, EXCLUDED.funding_stage),
			current_valuation = COALESCE(startups.current_valuation, EXCLUDED.current_valuation),
			valuation_date = COALESCE(startups.valuation_date, EXCLUDED.valuation_date),`
	if fundingAuthoritative {
		fundingMerge = `
			funding_amount = COALESCE(EXCLUDED.funding_amount, startups.funding_amount),
			funding_stage = COALESCE(EXCLUDED.funding_stage, startups.funding_stage),
			current_valuation = COALESCE(EXCLUDED.current_valuation, startups.current_valuation),
			valuation_date = COALESCE(EXCLUDED.valuation_date, startups.valuation_date),`
	}

	query := `
		INSERT INTO startups (` + startupColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (name_normalized) DO UPDATE SET
			description = COALESCE(startups.description, EXCLUDED.description),
			website_url = COALESCE(startups.website_url, EXCLUDED.website_url),
			founded_date = COALESCE(startups.founded_date, EXCLUDED.founded_date),` +
		fundingMerge + `
			employee_count = COALESCE(startups.employee_count, EXCLUDED.employee_count),
			location = COALESCE(startups.location, EXCLUDED.location),
			industry = COALESCE(startups.industry, EXCLUDED.industry),
			tags = COALESCE(NULLIF(startups.tags, '{}'), EXCLUDED.tags),
			github_url = COALESCE(startups.github_url, EXCLUDED.github_url),
			product_hunt_url = COALESCE(startups.product_hunt_url, EXCLUDED.product_hunt_url),
			updated_at = EXCLUDED.updated_at
		RETURNING ` + startupColumns

	tags := s.Tags
	if tags == nil {
		tags = pq.StringArray{}
	}

	result := &models.Startup{}
	err := r.db.QueryRowxContext(ctx, query,
		s.ID, s.Name, s.NameNormalized, s.Description, s.WebsiteURL, s.FoundedDate,
		s.FundingAmount, s.FundingStage, s.CurrentValuation, s.ValuationDate, s.EmployeeCount,
		s.Location, s.Industry, tags, s.GithubURL, s.ProductHuntURL, s.CreatedAt, s.UpdatedAt,
	).StructScan(result)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert startup: %w", err)
	}
	return result, nil
}

// UpdateValuation overwrites the current valuation fields only.
func (r *StartupRepository) UpdateValuation(ctx context.Context, id string, valuation int64, asOf time.Time) error {
	query := `
		UPDATE startups
		SET current_valuation = $2, valuation_date = $3, updated_at = $4
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, valuation, asOf, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update valuation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListNeedingStories returns startups eligible for story generation: enough
// accumulated evidence, no existing story, recently seen.
func (r *StartupRepository) ListNeedingStories(ctx context.Context, minEvidence, lookbackDays, limit int) ([]models.Startup, error) {
	startups := []models.Startup{}
	query := `
		SELECT ` + prefixColumns("s") + `
		FROM startups s
		WHERE s.created_at > NOW() - ($2 * INTERVAL '1 day')
		  AND (SELECT COUNT(*) FROM data_source_records d WHERE d.startup_id = s.id) >= $1
		  AND NOT EXISTS (SELECT 1 FROM success_stories st WHERE st.startup_id = s.id)
		ORDER BY s.created_at DESC
		LIMIT $3`

	err := r.db.SelectContext(ctx, &startups, query, minEvidence, lookbackDays, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list startups needing stories: %w", err)
	}
	return startups, nil
}

// ListFundedWithoutStories returns startups with funding at or above the
// floor and no story yet.
func (r *StartupRepository) ListFundedWithoutStories(ctx context.Context, minAmount int64, limit int) ([]models.Startup, error) {
	startups := []models.Startup{}
	query := `
		SELECT ` + prefixColumns("s") + `
		FROM startups s
		WHERE s.funding_amount >= $1
		  AND NOT EXISTS (SELECT 1 FROM success_stories st WHERE st.startup_id = s.id)
		ORDER BY s.funding_amount DESC
		LIMIT $2`

	err := r.db.SelectContext(ctx, &startups, query, minAmount, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list funded startups: %w", err)
	}
	return startups, nil
}

// ListWithStories returns startups that currently have at least one story,
// for the revalidation sweep.
func (r *StartupRepository) ListWithStories(ctx context.Context, limit int) ([]models.Startup, error) {
	startups := []models.Startup{}
	query := `
		SELECT ` + prefixColumns("s") + `
		FROM startups s
		WHERE EXISTS (SELECT 1 FROM success_stories st WHERE st.startup_id = s.id)
		ORDER BY s.updated_at DESC
		LIMIT $1`

	err := r.db.SelectContext(ctx, &startups, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list startups with stories: %w", err)
	}
	return startups, nil
}

// FindSimilar returns startups with a similar name or identical website,
// excluding the given ID. Used by the validator's duplicate check.
func (r *StartupRepository) FindSimilar(ctx context.Context, excludeID, nameNormalized string, websiteURL *string) ([]models.Startup, error) {
	startups := []models.Startup{}
	query := `
		SELECT ` + startupColumns + `
		FROM startups
		WHERE id <> $1
		  AND (name_normalized LIKE '%' || $2 || '%'
		       OR $2 LIKE '%' || name_normalized || '%'
		       OR ($3::text IS NOT NULL AND website_url = $3))`

	err := r.db.SelectContext(ctx, &startups, query, excludeID, nameNormalized, websiteURL)
	if err != nil {
		return nil, fmt.Errorf("failed to find similar startups: %w", err)
	}
	return startups, nil
}

// Delete removes a startup; evidence and stories cascade via foreign keys.
func (r *StartupRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM startups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete startup: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Count returns the total number of startups.
func (r *StartupRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM startups`); err != nil {
		return 0, fmt.Errorf("failed to count startups: %w", err)
	}
	return count, nil
}

func prefixColumns(alias string) string {
	return alias + `.id, ` + alias + `.name, ` + alias + `.name_normalized, ` + alias + `.description, ` +
		alias + `.website_url, ` + alias + `.founded_date, ` + alias + `.funding_amount, ` +
		alias + `.funding_stage, ` + alias + `.current_valuation, ` + alias + `.valuation_date, ` +
		alias + `.employee_count, ` + alias + `.location, ` + alias + `.industry, ` + alias + `.tags, ` +
		alias + `.github_url, ` + alias + `.product_hunt_url, ` + alias + `.created_at, ` + alias + `.updated_at`
}
