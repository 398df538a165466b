package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/foundersignal/pipeline/internal/models"
)

const storyColumns = `id, startup_id, title, summary, content, story_type, confidence,
	tags, sources, ai_generated, featured, view_count, published_at, created_at, updated_at`

// StoryRepository provides database operations for published success stories.
type StoryRepository struct {
	db *sqlx.DB
}

// NewStoryRepository creates a new story repository.
func NewStoryRepository(db *sqlx.DB) *StoryRepository {
	return &StoryRepository{db: db}
}

// Insert persists a new story. Callers must only pass stories whose
// validation verdict was approved or needs_review.
func (r *StoryRepository) Insert(ctx context.Context, story *models.SuccessStory) (*models.SuccessStory, error) {
	if story.ID == "" {
		story.ID = uuid.New().String()
	}
	now := time.Now()
	if story.PublishedAt.IsZero() {
		story.PublishedAt = now
	}
	story.CreatedAt = now
	story.UpdatedAt = now

	tags := story.Tags
	if tags == nil {
		tags = pq.StringArray{}
	}
	sources := story.Sources
	if sources == nil {
		sources = pq.StringArray{}
	}

	query := `
		INSERT INTO success_stories (` + storyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ` + storyColumns

	result := &models.SuccessStory{}
	err := r.db.QueryRowxContext(ctx, query,
		story.ID, story.StartupID, story.Title, story.Summary, story.Content,
		story.StoryType, story.Confidence, tags, sources, story.AIGenerated,
		story.Featured, story.ViewCount, story.PublishedAt, story.CreatedAt, story.UpdatedAt,
	).StructScan(result)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return nil, models.ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to insert story: %w", err)
	}
	return result, nil
}

// ExistsForStartup reports whether a startup already has a story.
func (r *StoryRepository) ExistsForStartup(ctx context.Context, startupID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM success_stories WHERE startup_id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, startupID); err != nil {
		return false, fmt.Errorf("failed to check story existence: %w", err)
	}
	return exists, nil
}

// ListRecent returns the newest stories up to limit.
func (r *StoryRepository) ListRecent(ctx context.Context, limit int) ([]models.SuccessStory, error) {
	stories := []models.SuccessStory{}
	query := `
		SELECT ` + storyColumns + `
		FROM success_stories
		ORDER BY published_at DESC
		LIMIT $1`

	err := r.db.SelectContext(ctx, &stories, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, nil
}

// IncrementViewCount bumps a story's view counter.
func (r *StoryRepository) IncrementViewCount(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE success_stories SET view_count = view_count + 1, updated_at = $2 WHERE id = $1`,
		id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteByStartup removes all stories for a startup. Used by the
// revalidation sweep when the startup no longer validates.
func (r *StoryRepository) DeleteByStartup(ctx context.Context, startupID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM success_stories WHERE startup_id = $1`, startupID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stories for startup: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete row count: %w", err)
	}
	return n, nil
}

// DeleteForStartupsFoundedBefore removes stories whose startup was founded
// before the cutoff. Part of the maintenance sweep.
func (r *StoryRepository) DeleteForStartupsFoundedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM success_stories
		WHERE startup_id IN (
			SELECT id FROM startups WHERE founded_date IS NOT NULL AND founded_date < $1
		)`

	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stories for old startups: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete row count: %w", err)
	}
	return n, nil
}

// Count returns the total number of stories.
func (r *StoryRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM success_stories`); err != nil {
		return 0, fmt.Errorf("failed to count stories: %w", err)
	}
	return count, nil
}
