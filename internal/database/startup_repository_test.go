package database_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundersignal/pipeline/internal/database"
	"github.com/foundersignal/pipeline/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "sqlmock"), mock
}

func startupRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "name_normalized", "description", "website_url", "founded_date",
		"funding_amount", "funding_stage", "current_valuation", "valuation_date",
		"employee_count", "location", "industry", "tags", "github_url", "product_hunt_url",
		"created_at", "updated_at",
	})
}

func TestStartupRepository_FindByNormalizedName(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewStartupRepository(db)
	ctx := context.Background()

	t.Run("returns the matching startup", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("SELECT (.+) FROM startups WHERE name_normalized").
			WithArgs("acme").
			WillReturnRows(startupRows().AddRow(
				"id-1", "Acme", "acme", nil, nil, nil,
				nil, nil, nil, nil,
				nil, nil, nil, pq.StringArray{}, nil, nil,
				now, now,
			))

		got, err := repo.FindByNormalizedName(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, "Acme", got.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row maps to ErrNotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM startups WHERE name_normalized").
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByNormalizedName(ctx, "ghost")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestStartupRepository_Upsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewStartupRepository(db)
	ctx := context.Background()

	desc := "Developer tooling"
	now := time.Now()

	mock.ExpectQuery("INSERT INTO startups").
		WillReturnRows(startupRows().AddRow(
			"id-1", "Acme", "acme", desc, nil, nil,
			nil, nil, nil, nil,
			nil, nil, nil, pq.StringArray{"devtools"}, nil, nil,
			now, now,
		))

	got, err := repo.Upsert(ctx, &models.Startup{
		Name:           "Acme",
		NameNormalized: "acme",
		Description:    &desc,
		Tags:           pq.StringArray{"devtools"},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, "acme", got.NameNormalized)
	assert.NotEmpty(t, got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartupRepository_ListNeedingStories(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewStartupRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM startups s").
		WithArgs(2, 30, 5).
		WillReturnRows(startupRows().
			AddRow("id-1", "Acme", "acme", nil, nil, nil, nil, nil, nil, nil,
				nil, nil, nil, pq.StringArray{}, nil, nil, now, now).
			AddRow("id-2", "Beta", "beta", nil, nil, nil, nil, nil, nil, nil,
				nil, nil, nil, pq.StringArray{}, nil, nil, now, now))

	got, err := repo.ListNeedingStories(context.Background(), 2, 30, 5)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartupRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewStartupRepository(db)
	ctx := context.Background()

	t.Run("deletes existing row", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM startups").
			WithArgs("id-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, "id-1"))
	})

	t.Run("missing row maps to ErrNotFound", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM startups").
			WithArgs("id-missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(ctx, "id-missing"), models.ErrNotFound)
	})
}
