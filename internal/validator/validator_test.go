package validator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundersignal/pipeline/internal/config"
	"github.com/foundersignal/pipeline/internal/logger"
	"github.com/foundersignal/pipeline/internal/models"
	"github.com/foundersignal/pipeline/internal/sources"
)

type fakeReach struct {
	reachable bool
	calls     int
}

func (f *fakeReach) CheckReachability(_ context.Context, _ string) bool {
	f.calls++
	return f.reachable
}

type fakeNews struct {
	pages []sources.ScrapedPage
	errs  []error
	calls int
}

func (f *fakeNews) SearchNews(_ context.Context, _ string, _ int) ([]sources.ScrapedPage, error) {
	f.calls++
	if len(f.errs) >= f.calls && f.errs[f.calls-1] != nil {
		return nil, f.errs[f.calls-1]
	}
	return f.pages, nil
}

type fakeDupes struct {
	similar   []models.Startup
	err       error
	panicking bool
}

func (f *fakeDupes) FindSimilar(_ context.Context, _, _ string, _ *string) ([]models.Startup, error) {
	if f.panicking {
		panic("boom")
	}
	return f.similar, f.err
}

type denyGate struct{ denied map[string]bool }

func (g *denyGate) Acquire(resource, _ string) error {
	if g.denied[resource] {
		return errors.New("throttled")
	}
	return nil
}

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }

func intPtr(n int) *int { return &n }

func defaultConfig() config.ValidatorConfig {
	return config.ValidatorConfig{
		Weights: config.ValidatorWeights{
			MissingName:         0.3,
			MissingDescription:  0.2,
			NoOnlinePresence:    0.4,
			UnreachableWebsite:  0.2,
			NoCrossReference:    0.3,
			ImplausibleFunding:  0.2,
			UncorroboratedLarge: 0.3,
			MetricOutOfBounds:   0.1,
			BadFoundedDate:      0.2,
			Duplicate:           0.5,
		},
		StageBands:  config.DefaultStageBands(),
		RejectBelow: 0.3,
		ReviewBelow: 0.7,
		MaxIssues:   2,
	}
}

// solidStartup passes every check when paired with reachable websites,
// cross-reference hits and funding evidence.
func solidStartup() *models.Startup {
	return &models.Startup{
		ID:             "id-1",
		Name:           "Acme",
		NameNormalized: "acme",
		Description:    strPtr("Acme builds infrastructure for modern founders."),
		WebsiteURL:     strPtr("https://acme.example"),
		FundingAmount:  int64Ptr(2_000_000),
		FundingStage:   strPtr("seed"),
	}
}

func fundingEvidence() []models.DataSourceRecord {
	return []models.DataSourceRecord{{
		SourceType: models.SourceRSS,
		RawData:    json.RawMessage(`{"title":"Acme raised $2M in seed funding"}`),
	}}
}

func acmeHits() []sources.ScrapedPage {
	return []sources.ScrapedPage{{URL: "https://news.example/acme", Title: "Acme launches"}}
}

func TestValidate_CleanStartupIsApproved(t *testing.T) {
	v := New(&fakeReach{reachable: true}, &fakeNews{pages: acmeHits()}, &fakeDupes{}, nil, defaultConfig(), logger.NewNop())

	result := v.Validate(context.Background(), solidStartup(), fundingEvidence())

	assert.True(t, result.IsValid)
	assert.Equal(t, models.VerdictApproved, result.Verdict)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Empty(t, result.Issues)
	assert.NotEmpty(t, result.CrossRefHits)
}

func TestValidate_DeadWebsiteAndNoCorroboration(t *testing.T) {
	startup := solidStartup()
	startup.WebsiteURL = strPtr("https://dead-link.example")

	v := New(&fakeReach{reachable: false}, &fakeNews{}, &fakeDupes{}, nil, defaultConfig(), logger.NewNop())
	result := v.Validate(context.Background(), startup, fundingEvidence())

	// 1.0 - 0.2 (unreachable) - 0.3 (no cross-references) = 0.5.
	assert.InDelta(t, 0.5, result.Confidence, 1e-9)
	assert.Equal(t, models.VerdictNeedsReview, result.Verdict)
	assert.True(t, result.IsValid)
	assert.Len(t, result.Issues, 2)
}

func TestValidate_GrosslyImplausibleStageAmount(t *testing.T) {
	startup := solidStartup()
	startup.FundingAmount = int64Ptr(50_000_000)
	startup.FundingStage = strPtr("seed")

	evidence := []models.DataSourceRecord{{
		SourceType: models.SourceFunding,
		RawData:    json.RawMessage(`{"company_name":"Acme"}`),
	}}

	v := New(&fakeReach{reachable: true}, &fakeNews{pages: acmeHits()}, &fakeDupes{}, nil, defaultConfig(), logger.NewNop())
	result := v.Validate(context.Background(), startup, evidence)

	// Only the plausibility deduction fires: additive, not multiplicative.
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
	assert.Equal(t, models.VerdictApproved, result.Verdict)
	assert.Len(t, result.Issues, 1)
}

func TestValidate_StageBandSlackIsForgiving(t *testing.T) {
	// 5x the seed ceiling is the flagging boundary: $15M passes, more fails.
	startup := solidStartup()
	startup.FundingAmount = int64Ptr(15_000_000)

	v := New(&fakeReach{reachable: true}, &fakeNews{pages: acmeHits()}, &fakeDupes{}, nil, defaultConfig(), logger.NewNop())
	result := v.Validate(context.Background(), startup, fundingEvidence())
	assert.Empty(t, result.Issues)

	startup.FundingAmount = int64Ptr(15_000_001)
	result = v.Validate(context.Background(), startup, fundingEvidence())
	require.Len(t, result.Issues, 1)
	assert.Contains(t, result.Issues[0], "implausible")
}

func TestValidate_ConfidenceNeverGoesNegative(t *testing.T) {
	startup := &models.Startup{
		ID:            "id-2",
		Name:          "x",
		FundingAmount: int64Ptr(200_000_000_000),
		FundingStage:  strPtr("seed"),
		EmployeeCount: intPtr(-5),
	}
	future := time.Now().AddDate(1, 0, 0)
	startup.FoundedDate = &future

	v := New(&fakeReach{}, &fakeNews{}, &fakeDupes{similar: []models.Startup{{Name: "X Corp"}}}, nil, defaultConfig(), logger.NewNop())
	result := v.Validate(context.Background(), startup, nil)

	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, models.VerdictRejected, result.Verdict)
	assert.False(t, result.IsValid)
}

func TestValidate_ManyMinorIssuesForceReview(t *testing.T) {
	// With small weights the score stays high, but more than two issues still
	// demand a human look.
	cfg := defaultConfig()
	cfg.Weights.MetricOutOfBounds = 0.02
	cfg.Weights.BadFoundedDate = 0.02
	cfg.Weights.MissingDescription = 0.02

	startup := solidStartup()
	startup.Description = strPtr("too short")
	startup.EmployeeCount = intPtr(-1)
	old := time.Now().AddDate(-60, 0, 0)
	startup.FoundedDate = &old

	v := New(&fakeReach{reachable: true}, &fakeNews{pages: acmeHits()}, &fakeDupes{}, nil, cfg, logger.NewNop())
	result := v.Validate(context.Background(), startup, fundingEvidence())

	assert.GreaterOrEqual(t, result.Confidence, 0.9)
	assert.Len(t, result.Issues, 3)
	assert.Equal(t, models.VerdictNeedsReview, result.Verdict)
}

func TestValidate_FailedSearchIsSkippedNotFatal(t *testing.T) {
	news := &fakeNews{
		pages: acmeHits(),
		errs:  []error{errors.New("network down"), nil},
	}
	v := New(&fakeReach{reachable: true}, news, &fakeDupes{}, nil, defaultConfig(), logger.NewNop())

	result := v.Validate(context.Background(), solidStartup(), fundingEvidence())

	assert.Equal(t, 2, news.calls)
	assert.NotEmpty(t, result.CrossRefHits)
	assert.Empty(t, result.Issues)
}

func TestValidate_ThrottledChecksAreSkipped(t *testing.T) {
	reach := &fakeReach{reachable: false}
	news := &fakeNews{pages: acmeHits()}
	gate := &denyGate{denied: map[string]bool{"web_scraping": true, "api": true}}

	v := New(reach, news, &fakeDupes{}, gate, defaultConfig(), logger.NewNop())
	result := v.Validate(context.Background(), solidStartup(), fundingEvidence())

	// Reachability never probed, searches never run; only the zero-hit
	// deduction applies.
	assert.Zero(t, reach.calls)
	assert.Zero(t, news.calls)
	assert.InDelta(t, 0.7, result.Confidence, 1e-9)
}

func TestValidate_DuplicateDeductsHalf(t *testing.T) {
	dupes := &fakeDupes{similar: []models.Startup{{Name: "Acme Labs"}}}
	v := New(&fakeReach{reachable: true}, &fakeNews{pages: acmeHits()}, dupes, nil, defaultConfig(), logger.NewNop())

	result := v.Validate(context.Background(), solidStartup(), fundingEvidence())

	assert.InDelta(t, 0.5, result.Confidence, 1e-9)
	assert.Equal(t, models.VerdictNeedsReview, result.Verdict)
	require.Len(t, result.Issues, 1)
	assert.Contains(t, result.Issues[0], "Acme Labs")
}

func TestValidate_PanicYieldsZeroConfidenceReview(t *testing.T) {
	v := New(&fakeReach{reachable: true}, &fakeNews{pages: acmeHits()}, &fakeDupes{panicking: true}, nil, defaultConfig(), logger.NewNop())

	result := v.Validate(context.Background(), solidStartup(), fundingEvidence())

	assert.Zero(t, result.Confidence)
	assert.Equal(t, models.VerdictNeedsReview, result.Verdict)
	assert.False(t, result.IsValid)
	require.Len(t, result.Issues, 1)
	assert.Contains(t, result.Issues[0], "validation error")
}

func TestVerdictThresholds(t *testing.T) {
	v := New(nil, nil, nil, nil, defaultConfig(), logger.NewNop())
	tests := []struct {
		confidence float64
		issues     int
		want       models.Verdict
	}{
		{0.0, 0, models.VerdictRejected},
		{0.29, 0, models.VerdictRejected},
		{0.3, 0, models.VerdictNeedsReview},
		{0.69, 0, models.VerdictNeedsReview},
		{0.7, 0, models.VerdictApproved},
		{1.0, 0, models.VerdictApproved},
		{1.0, 3, models.VerdictNeedsReview},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, v.verdict(tt.confidence, tt.issues), "confidence=%v issues=%d", tt.confidence, tt.issues)
	}
}

func TestFundingCorroborated(t *testing.T) {
	assert.False(t, fundingCorroborated(nil))
	assert.True(t, fundingCorroborated([]models.DataSourceRecord{{SourceType: models.SourceFundingDetection}}))
	assert.True(t, fundingCorroborated([]models.DataSourceRecord{{
		SourceType: models.SourceScrape,
		RawData:    json.RawMessage(`{"content":"the company raised a new round"}`),
	}}))
	assert.False(t, fundingCorroborated([]models.DataSourceRecord{{
		SourceType: models.SourceGitHub,
		RawData:    json.RawMessage(`{"description":"a cli tool"}`),
	}}))
}
