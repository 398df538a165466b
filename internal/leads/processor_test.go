package leads

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundersignal/pipeline/internal/logger"
	"github.com/foundersignal/pipeline/internal/models"
)

// fakeStartupStore upserts into a map keyed by normalized name, mimicking
// the unique-constraint merge behavior.
type fakeStartupStore struct {
	byKey map[string]*models.Startup
}

func newFakeStartupStore() *fakeStartupStore {
	return &fakeStartupStore{byKey: make(map[string]*models.Startup)}
}

func (f *fakeStartupStore) Upsert(_ context.Context, s *models.Startup, fundingAuthoritative bool) (*models.Startup, error) {
	if existing, ok := f.byKey[s.NameNormalized]; ok {
		if existing.Description == nil {
			existing.Description = s.Description
		}
		if fundingAuthoritative && s.FundingAmount != nil {
			existing.FundingAmount = s.FundingAmount
			existing.FundingStage = s.FundingStage
		}
		return existing, nil
	}
	s.ID = uuid.New().String()
	f.byKey[s.NameNormalized] = s
	return s, nil
}

type fakeEvidenceStore struct {
	records []*models.DataSourceRecord
}

func (f *fakeEvidenceStore) Insert(_ context.Context, rec *models.DataSourceRecord) (*models.DataSourceRecord, error) {
	f.records = append(f.records, rec)
	return rec, nil
}

func TestProcessLead_CreatesStartupAndEvidence(t *testing.T) {
	startups := newFakeStartupStore()
	evidence := &fakeEvidenceStore{}
	p := NewProcessor(startups, evidence, logger.NewNop())

	raw := json.RawMessage(`{"title":"Show HN: Acme"}`)
	got, err := p.ProcessLead(context.Background(), Lead{
		Name:       "Acme Inc.",
		SourceType: models.SourceHackerNews,
		RawData:    raw,
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, "acme", got.NameNormalized)

	require.Len(t, evidence.records, 1)
	assert.Equal(t, got.ID, evidence.records[0].StartupID)
	assert.Equal(t, []byte(raw), []byte(evidence.records[0].RawData))
}

func TestProcessLead_IsIdempotentAcrossCaseVariants(t *testing.T) {
	startups := newFakeStartupStore()
	evidence := &fakeEvidenceStore{}
	p := NewProcessor(startups, evidence, logger.NewNop())
	ctx := context.Background()

	first, err := p.ProcessLead(ctx, Lead{Name: "Acme", SourceType: models.SourceHackerNews})
	require.NoError(t, err)

	second, err := p.ProcessLead(ctx, Lead{Name: "ACME", SourceType: models.SourceGitHub})
	require.NoError(t, err)

	// One startup row, one evidence record per processing call.
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, startups.byKey, 1)
	assert.Len(t, evidence.records, 2)
}

func TestProcessLead_InvalidNameIsASkip(t *testing.T) {
	startups := newFakeStartupStore()
	evidence := &fakeEvidenceStore{}
	p := NewProcessor(startups, evidence, logger.NewNop())

	_, err := p.ProcessLead(context.Background(), Lead{Name: "x", SourceType: models.SourceRSS})
	assert.ErrorIs(t, err, models.ErrInvalidName)
	assert.Empty(t, startups.byKey)
	assert.Empty(t, evidence.records)
}

func TestProcessLead_FundingAuthoritativeOverwrites(t *testing.T) {
	startups := newFakeStartupStore()
	evidence := &fakeEvidenceStore{}
	p := NewProcessor(startups, evidence, logger.NewNop())
	ctx := context.Background()

	_, err := p.ProcessLead(ctx, Lead{Name: "Acme", SourceType: models.SourceHackerNews})
	require.NoError(t, err)

	amount := int64(2_000_000)
	stage := "seed"
	got, err := p.ProcessLead(ctx, Lead{
		Name:                 "Acme",
		FundingAmount:        &amount,
		FundingStage:         &stage,
		SourceType:           models.SourceFunding,
		FundingAuthoritative: true,
	})
	require.NoError(t, err)
	require.NotNil(t, got.FundingAmount)
	assert.Equal(t, amount, *got.FundingAmount)
}
