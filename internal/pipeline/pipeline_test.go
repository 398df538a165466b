package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundersignal/pipeline/internal/config"
	"github.com/foundersignal/pipeline/internal/generator"
	"github.com/foundersignal/pipeline/internal/leads"
	"github.com/foundersignal/pipeline/internal/logger"
	"github.com/foundersignal/pipeline/internal/models"
	"github.com/foundersignal/pipeline/internal/ratelimit"
	"github.com/foundersignal/pipeline/internal/sources"
)

type fakeCollector struct {
	name  string
	items []sources.CandidateItem
	err   error
}

func (f *fakeCollector) Name() string { return f.name }

func (f *fakeCollector) FetchRecent(_ context.Context, _ int) ([]sources.CandidateItem, error) {
	return f.items, f.err
}

func (f *fakeCollector) IsSuccessCandidate(item sources.CandidateItem) bool {
	return item.EngagementScore > 0
}

func (f *fakeCollector) ExtractCompanyName(item sources.CandidateItem) (string, bool) {
	return item.Title, item.Title != ""
}

type fakeLeadProcessor struct {
	processed []leads.Lead
	errFor    map[string]error
	onProcess func(leads.Lead)
}

func (f *fakeLeadProcessor) ProcessLead(_ context.Context, lead leads.Lead) (*models.Startup, error) {
	if err := f.errFor[lead.Name]; err != nil {
		return nil, err
	}
	f.processed = append(f.processed, lead)
	if f.onProcess != nil {
		f.onProcess(lead)
	}
	return &models.Startup{ID: "id-" + lead.Name, Name: lead.Name}, nil
}

type fakeJobStore struct {
	started   []string
	completed map[string]int
	failed    map[string]string
	purged    int64
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{completed: map[string]int{}, failed: map[string]string{}}
}

func (f *fakeJobStore) Start(_ context.Context, jobName string) (*models.JobRun, error) {
	f.started = append(f.started, jobName)
	return &models.JobRun{ID: jobName, JobName: jobName, Status: models.JobRunning}, nil
}

func (f *fakeJobStore) Complete(_ context.Context, id string, n int, _ json.RawMessage) error {
	f.completed[id] = n
	return nil
}

func (f *fakeJobStore) Fail(_ context.Context, id, msg string) error {
	f.failed[id] = msg
	return nil
}

func (f *fakeJobStore) PurgeOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return f.purged, nil
}

type fakeStartupStore struct {
	byKey      map[string]*models.Startup
	needing    []models.Startup
	funded     []models.Startup
	published  []models.Startup
	valuations map[string]int64
	listErr    error
}

func newFakeStartupStore() *fakeStartupStore {
	return &fakeStartupStore{byKey: map[string]*models.Startup{}, valuations: map[string]int64{}}
}

func (f *fakeStartupStore) FindByNormalizedName(_ context.Context, key string) (*models.Startup, error) {
	if s, ok := f.byKey[key]; ok {
		return s, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeStartupStore) UpdateValuation(_ context.Context, id string, valuation int64, _ time.Time) error {
	f.valuations[id] = valuation
	return nil
}

func (f *fakeStartupStore) ListNeedingStories(_ context.Context, _, _, _ int) ([]models.Startup, error) {
	return f.needing, f.listErr
}

func (f *fakeStartupStore) ListFundedWithoutStories(_ context.Context, _ int64, _ int) ([]models.Startup, error) {
	return f.funded, nil
}

func (f *fakeStartupStore) ListWithStories(_ context.Context, _ int) ([]models.Startup, error) {
	return f.published, nil
}

type fakeEvidenceStore struct {
	byStartup map[string][]models.DataSourceRecord
	recent    []models.DataSourceRecord
	inserted  []*models.DataSourceRecord
	purged    int64
}

func newFakeEvidenceStore() *fakeEvidenceStore {
	return &fakeEvidenceStore{byStartup: map[string][]models.DataSourceRecord{}}
}

func (f *fakeEvidenceStore) Insert(_ context.Context, rec *models.DataSourceRecord) (*models.DataSourceRecord, error) {
	f.inserted = append(f.inserted, rec)
	return rec, nil
}

func (f *fakeEvidenceStore) ListByStartup(_ context.Context, startupID string) ([]models.DataSourceRecord, error) {
	return f.byStartup[startupID], nil
}

func (f *fakeEvidenceStore) ListRecentByTypes(_ context.Context, _ time.Time, types []models.SourceType, limit int) ([]models.DataSourceRecord, error) {
	wanted := make(map[models.SourceType]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	var out []models.DataSourceRecord
	for _, rec := range f.recent {
		if wanted[rec.SourceType] {
			out = append(out, rec)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeEvidenceStore) PurgeOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return f.purged, nil
}

type fakeStoryStore struct {
	inserted      []*models.SuccessStory
	insertErr     error
	deletedFor    []string
	purgedStories int64
}

func (f *fakeStoryStore) Insert(_ context.Context, story *models.SuccessStory) (*models.SuccessStory, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = append(f.inserted, story)
	return story, nil
}

func (f *fakeStoryStore) DeleteByStartup(_ context.Context, startupID string) (int64, error) {
	f.deletedFor = append(f.deletedFor, startupID)
	return 1, nil
}

func (f *fakeStoryStore) DeleteForStartupsFoundedBefore(_ context.Context, _ time.Time) (int64, error) {
	return f.purgedStories, nil
}

type fakeGenerator struct {
	results        map[string]*generator.AnalysisResult
	fundingResults map[string]*generator.AnalysisResult
}

func (f *fakeGenerator) AnalyzeStartup(_ context.Context, req generator.AnalysisRequest) *generator.AnalysisResult {
	if r, ok := f.results[req.CompanyName]; ok {
		return r
	}
	return &generator.AnalysisResult{Fallback: true, StoryType: models.StorySuccess}
}

func (f *fakeGenerator) GenerateFundingStory(_ context.Context, companyName string, _ int64, _, _ string) *generator.AnalysisResult {
	if r, ok := f.fundingResults[companyName]; ok {
		return r
	}
	return &generator.AnalysisResult{StoryType: models.StoryFunding}
}

type fakeValidator struct {
	verdicts map[string]models.Verdict
}

func (f *fakeValidator) Validate(_ context.Context, startup *models.Startup, _ []models.DataSourceRecord) *models.ValidationResult {
	verdict, ok := f.verdicts[startup.Name]
	if !ok {
		verdict = models.VerdictApproved
	}
	return &models.ValidationResult{
		IsValid:      verdict != models.VerdictRejected,
		Confidence:   0.9,
		Verdict:      verdict,
		Issues:       []string{},
		CrossRefHits: []string{"https://news.example/hit"},
	}
}

type fakeFundingSource struct {
	announcements []sources.FundingAnnouncement
	err           error
}

func (f *fakeFundingSource) FetchAnnouncements(_ context.Context) ([]sources.FundingAnnouncement, error) {
	return f.announcements, f.err
}

type fakeValuationSource struct {
	updates []sources.ValuationUpdate
}

func (f *fakeValuationSource) FetchValuations(_ context.Context) ([]sources.ValuationUpdate, error) {
	return f.updates, nil
}

type fakeScraper struct {
	pages map[string]*sources.ScrapedPage
}

func (f *fakeScraper) ScrapeWithRetry(_ context.Context, pageURL string) (*sources.ScrapedPage, error) {
	if page, ok := f.pages[pageURL]; ok {
		return page, nil
	}
	return nil, errors.New("unreachable")
}

type denyLimiter struct{ denied map[string]bool }

func (l *denyLimiter) Acquire(resource, _ string) error {
	if l.denied[resource] {
		return &ratelimit.ThrottledError{Resource: resource, RetryAfter: time.Minute}
	}
	return nil
}

type testEnv struct {
	pipeline  *Pipeline
	leads     *fakeLeadProcessor
	jobs      *fakeJobStore
	startups  *fakeStartupStore
	evidence  *fakeEvidenceStore
	stories   *fakeStoryStore
	generator *fakeGenerator
	validator *fakeValidator
}

func testConfig() *config.Config {
	return &config.Config{
		Generator: config.GeneratorConfig{
			MinConfidence:    0.6,
			MinFundingAmount: 500_000,
		},
		Sources: config.SourcesConfig{
			WindowDays:      7,
			ScrapeBatchSize: 10,
		},
		Pipeline: config.PipelineConfig{
			MinEvidenceRecords:   2,
			GenerationLimit:      5,
			LookbackDays:         30,
			EvidenceRetention:    30 * 24 * time.Hour,
			JobRunRetention:      90 * 24 * time.Hour,
			FeaturedFundingFloor: 10_000_000,
			FeaturedConfidence:   0.8,
			MaxStartupAgeYears:   5,
		},
	}
}

func newTestEnv(collectors ...sources.Collector) *testEnv {
	env := &testEnv{
		leads:     &fakeLeadProcessor{errFor: map[string]error{}},
		jobs:      newFakeJobStore(),
		startups:  newFakeStartupStore(),
		evidence:  newFakeEvidenceStore(),
		stories:   &fakeStoryStore{},
		generator: &fakeGenerator{results: map[string]*generator.AnalysisResult{}, fundingResults: map[string]*generator.AnalysisResult{}},
		validator: &fakeValidator{verdicts: map[string]models.Verdict{}},
	}
	env.pipeline = New(Deps{
		Collectors: collectors,
		Funding:    &fakeFundingSource{},
		Valuations: &fakeValuationSource{},
		Scraper:    &fakeScraper{},
		Leads:      env.leads,
		Generator:  env.generator,
		Validator:  env.validator,
		Startups:   env.startups,
		Evidence:   env.evidence,
		Stories:    env.stories,
		Jobs:       env.jobs,
		Logger:     logger.NewNop(),
		Config:     testConfig(),
	})
	return env
}

func TestCollect_ProcessesCandidates(t *testing.T) {
	collector := &fakeCollector{
		name: "rss",
		items: []sources.CandidateItem{
			{ID: "1", Title: "Acme", EngagementScore: 10, SourceType: models.SourceRSS, URL: "https://a.example"},
			{ID: "2", Title: "Quiet", EngagementScore: 0, SourceType: models.SourceRSS},
			{ID: "3", Title: "", EngagementScore: 10, SourceType: models.SourceRSS},
		},
	}
	env := newTestEnv(collector)

	require.NoError(t, env.pipeline.Collect(context.Background(), "rss"))

	// Only the candidate with an extractable name is processed.
	require.Len(t, env.leads.processed, 1)
	assert.Equal(t, "Acme", env.leads.processed[0].Name)
	assert.Equal(t, "https://a.example", env.leads.processed[0].WebsiteURL)
	assert.Equal(t, 1, env.jobs.completed["collect:rss"])
}

func TestCollect_UnknownSource(t *testing.T) {
	env := newTestEnv()
	err := env.pipeline.Collect(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestCollect_ItemFailuresDoNotAbortStage(t *testing.T) {
	collector := &fakeCollector{
		name: "rss",
		items: []sources.CandidateItem{
			{ID: "1", Title: "Good", EngagementScore: 10, SourceType: models.SourceRSS},
			{ID: "2", Title: "Bad", EngagementScore: 10, SourceType: models.SourceRSS},
			{ID: "3", Title: "Skipped", EngagementScore: 10, SourceType: models.SourceRSS},
		},
	}
	env := newTestEnv(collector)
	env.leads.errFor["Bad"] = errors.New("database down")
	env.leads.errFor["Skipped"] = models.ErrInvalidName

	require.NoError(t, env.pipeline.Collect(context.Background(), "rss"))
	assert.Equal(t, 1, env.jobs.completed["collect:rss"])
	assert.Empty(t, env.jobs.failed)
}

func TestCollect_FetchFailureFailsJobRun(t *testing.T) {
	collector := &fakeCollector{name: "rss", err: errors.New("feed down")}
	env := newTestEnv(collector)

	err := env.pipeline.Collect(context.Background(), "rss")
	require.Error(t, err)
	assert.Contains(t, env.jobs.failed["collect:rss"], "feed down")
}

func TestCollect_ThrottledRunIsSkippedNotFailed(t *testing.T) {
	collector := &fakeCollector{
		name:  "github",
		items: []sources.CandidateItem{{ID: "1", Title: "Acme", EngagementScore: 10}},
	}
	env := newTestEnv(collector)
	env.pipeline.limiter = &denyLimiter{denied: map[string]bool{"github": true}}

	require.NoError(t, env.pipeline.Collect(context.Background(), "github"))
	assert.Empty(t, env.leads.processed)
	assert.Equal(t, 0, env.jobs.completed["collect:github"])
	assert.Empty(t, env.jobs.failed)
}

func TestCollectFunding_FeedAndDetectionSweep(t *testing.T) {
	env := newTestEnv()
	env.pipeline.funding = &fakeFundingSource{announcements: []sources.FundingAnnouncement{{
		CompanyName:   "Acme",
		FundingAmount: 2_000_000,
		FundingStage:  "seed",
		Date:          time.Now().Format("2006-01-02"),
		Source:        "https://feed.example/acme",
	}}}
	env.evidence.recent = []models.DataSourceRecord{{
		StartupID:  "id-x",
		SourceType: models.SourceRSS,
		RawData:    json.RawMessage(`{"title":"Flowbase raised $5 million in Series A funding led by Example Ventures today"}`),
	}}

	require.NoError(t, env.pipeline.CollectFunding(context.Background()))

	require.Len(t, env.leads.processed, 2)
	feed := env.leads.processed[0]
	assert.Equal(t, "Acme", feed.Name)
	assert.True(t, feed.FundingAuthoritative)
	require.NotNil(t, feed.FundingAmount)
	assert.Equal(t, int64(2_000_000), *feed.FundingAmount)

	detected := env.leads.processed[1]
	assert.Equal(t, models.SourceFundingDetection, detected.SourceType)
	assert.True(t, detected.FundingAuthoritative)
	assert.Equal(t, 2, env.jobs.completed["collect:funding"])
}

func TestCollectFunding_SweepIgnoresItsOwnDetections(t *testing.T) {
	env := newTestEnv()
	env.evidence.recent = []models.DataSourceRecord{{
		StartupID:  "id-x",
		SourceType: models.SourceRSS,
		RawData:    json.RawMessage(`{"title":"Acme raised $5 million in seed funding today"}`),
	}}
	// Mirror the real processor: every lead lands back in the evidence table
	// with its raw payload, detections included.
	env.leads.onProcess = func(lead leads.Lead) {
		env.evidence.recent = append(env.evidence.recent, models.DataSourceRecord{
			StartupID:  "id-acme",
			SourceType: lead.SourceType,
			RawData:    lead.RawData,
		})
	}

	// The one RSS announcement must yield exactly one detection per run, no
	// matter how many detection records earlier runs appended.
	for i := 0; i < 3; i++ {
		require.NoError(t, env.pipeline.CollectFunding(context.Background()))
		assert.Equal(t, 1, env.jobs.completed["collect:funding"])
	}

	detections := 0
	for _, rec := range env.evidence.recent {
		if rec.SourceType == models.SourceFundingDetection {
			detections++
		}
	}
	assert.Equal(t, 3, detections)
	assert.Len(t, env.leads.processed, 3)
}

func TestUpdateValuations_SkipsUnknownCompanies(t *testing.T) {
	env := newTestEnv()
	env.startups.byKey["acme"] = &models.Startup{ID: "id-acme", Name: "Acme", NameNormalized: "acme"}
	env.pipeline.valuations = &fakeValuationSource{updates: []sources.ValuationUpdate{
		{CompanyName: "Acme", CurrentValuation: 100_000_000, ValuationDate: "2026-06-01"},
		{CompanyName: "Nobody", CurrentValuation: 5_000_000, ValuationDate: "2026-06-01"},
	}}

	require.NoError(t, env.pipeline.UpdateValuations(context.Background()))

	assert.Equal(t, int64(100_000_000), env.startups.valuations["id-acme"])
	assert.Len(t, env.startups.valuations, 1)
	assert.Equal(t, 1, env.jobs.completed["valuations"])
}

func TestScrape_AttachesEvidence(t *testing.T) {
	env := newTestEnv()
	site := "https://acme.example"
	env.startups.needing = []models.Startup{
		{ID: "id-1", Name: "Acme", WebsiteURL: &site},
		{ID: "id-2", Name: "NoSite"},
	}
	env.pipeline.scraper = &fakeScraper{pages: map[string]*sources.ScrapedPage{
		site: {URL: site, Title: "Acme", Content: "We build things."},
	}}

	require.NoError(t, env.pipeline.Scrape(context.Background()))

	require.Len(t, env.evidence.inserted, 1)
	assert.Equal(t, "id-1", env.evidence.inserted[0].StartupID)
	assert.Equal(t, models.SourceScrape, env.evidence.inserted[0].SourceType)
	assert.Equal(t, 1, env.jobs.completed["scrape"])
}

func TestGenerate_PersistsApprovedStory(t *testing.T) {
	env := newTestEnv()
	env.startups.needing = []models.Startup{{ID: "id-1", Name: "Acme"}}
	env.evidence.byStartup["id-1"] = []models.DataSourceRecord{
		{SourceType: models.SourceHackerNews, RawData: json.RawMessage(`{"title":"Show HN: Acme"}`)},
	}
	env.generator.results["Acme"] = &generator.AnalysisResult{
		IsSuccessStory: true,
		Confidence:     0.9,
		Title:          "Acme's Rise",
		Summary:        "Summary",
		Content:        "Content",
		StoryType:      models.StorySuccess,
		Tags:           []string{"saas"},
	}

	require.NoError(t, env.pipeline.Generate(context.Background()))

	require.Len(t, env.stories.inserted, 1)
	story := env.stories.inserted[0]
	assert.Equal(t, "id-1", story.StartupID)
	assert.True(t, story.AIGenerated)
	// Approved and above the featured confidence bar.
	assert.True(t, story.Featured)
	assert.Equal(t, 1, env.jobs.completed["generate"])
}

func TestGenerate_LowConfidenceAnalysisIsSkipped(t *testing.T) {
	env := newTestEnv()
	env.startups.needing = []models.Startup{{ID: "id-1", Name: "Acme"}}
	env.generator.results["Acme"] = &generator.AnalysisResult{
		IsSuccessStory: true,
		Confidence:     0.5,
		StoryType:      models.StorySuccess,
	}

	require.NoError(t, env.pipeline.Generate(context.Background()))
	assert.Empty(t, env.stories.inserted)
	assert.Equal(t, 0, env.jobs.completed["generate"])
}

func TestGenerate_RejectedValidationIsSkipped(t *testing.T) {
	env := newTestEnv()
	env.startups.needing = []models.Startup{{ID: "id-1", Name: "Acme"}}
	env.generator.results["Acme"] = &generator.AnalysisResult{
		IsSuccessStory: true,
		Confidence:     0.9,
		StoryType:      models.StorySuccess,
	}
	env.validator.verdicts["Acme"] = models.VerdictRejected

	require.NoError(t, env.pipeline.Generate(context.Background()))
	assert.Empty(t, env.stories.inserted)
}

func TestGenerate_NeedsReviewStillPersistsUnfeatured(t *testing.T) {
	env := newTestEnv()
	env.startups.needing = []models.Startup{{ID: "id-1", Name: "Acme"}}
	env.generator.results["Acme"] = &generator.AnalysisResult{
		IsSuccessStory: true,
		Confidence:     0.95,
		StoryType:      models.StorySuccess,
	}
	env.validator.verdicts["Acme"] = models.VerdictNeedsReview

	require.NoError(t, env.pipeline.Generate(context.Background()))
	require.Len(t, env.stories.inserted, 1)
	assert.False(t, env.stories.inserted[0].Featured)
}

func TestGenerateFundingStories_FeaturedByFundingFloor(t *testing.T) {
	env := newTestEnv()
	amount := int64(12_000_000)
	stage := "series_a"
	env.startups.funded = []models.Startup{{
		ID: "id-1", Name: "Acme", FundingAmount: &amount, FundingStage: &stage,
	}}
	env.generator.fundingResults["Acme"] = &generator.AnalysisResult{
		IsSuccessStory: true,
		Confidence:     0.9,
		Title:          "Acme Raises $12M in Series A Funding",
		Content:        "Prose.",
		StoryType:      models.StoryFunding,
	}

	require.NoError(t, env.pipeline.GenerateFundingStories(context.Background()))

	require.Len(t, env.stories.inserted, 1)
	assert.True(t, env.stories.inserted[0].Featured)
	assert.Equal(t, models.StoryFunding, env.stories.inserted[0].StoryType)
}

func TestGenerateFundingStories_NotAStoryIsSkipped(t *testing.T) {
	env := newTestEnv()
	amount := int64(600_000)
	env.startups.funded = []models.Startup{{ID: "id-1", Name: "Tiny", FundingAmount: &amount}}
	env.generator.fundingResults["Tiny"] = &generator.AnalysisResult{IsSuccessStory: false}

	require.NoError(t, env.pipeline.GenerateFundingStories(context.Background()))
	assert.Empty(t, env.stories.inserted)
}

func TestRevalidate_DeletesRejectedStartupStories(t *testing.T) {
	env := newTestEnv()
	env.startups.published = []models.Startup{
		{ID: "id-good", Name: "Good"},
		{ID: "id-bad", Name: "Bad"},
	}
	env.validator.verdicts["Bad"] = models.VerdictRejected

	require.NoError(t, env.pipeline.Revalidate(context.Background()))

	assert.Equal(t, []string{"id-bad"}, env.stories.deletedFor)
	assert.Equal(t, 1, env.jobs.completed["revalidate"])
}

func TestMaintain_SumsPurgeCounts(t *testing.T) {
	env := newTestEnv()
	env.evidence.purged = 12
	env.jobs.purged = 4
	env.stories.purgedStories = 2

	require.NoError(t, env.pipeline.Maintain(context.Background()))
	assert.Equal(t, 18, env.jobs.completed["maintenance"])
}

func TestRunManualCollection_ReportsPerSource(t *testing.T) {
	good := &fakeCollector{
		name:  "rss",
		items: []sources.CandidateItem{{ID: "1", Title: "Acme", EngagementScore: 5, SourceType: models.SourceRSS}},
	}
	broken := &fakeCollector{name: "hacker_news", err: errors.New("api down")}
	env := newTestEnv(good, broken)

	outcomes := env.pipeline.RunManualCollection(context.Background(), []string{"rss", "hacker_news", "mystery"})

	byName := map[string]SourceOutcome{}
	for _, o := range outcomes {
		byName[o.Source] = o
	}
	assert.Equal(t, "completed", byName["rss"].Status)
	assert.Equal(t, "failed", byName["hacker_news"].Status)
	assert.Contains(t, byName["hacker_news"].Error, "api down")
	assert.Equal(t, "unknown", byName["mystery"].Status)
}

func TestRunManualCollection_EmptySelectionRunsAll(t *testing.T) {
	env := newTestEnv(
		&fakeCollector{name: "rss"},
		&fakeCollector{name: "github"},
	)

	outcomes := env.pipeline.RunManualCollection(context.Background(), nil)

	names := map[string]bool{}
	for _, o := range outcomes {
		names[o.Source] = true
	}
	assert.True(t, names["rss"])
	assert.True(t, names["github"])
	assert.True(t, names["funding"])
}

func TestNewScheduler_RegistersEveryStage(t *testing.T) {
	env := newTestEnv(
		&fakeCollector{name: "product_hunt"},
		&fakeCollector{name: "hacker_news"},
		&fakeCollector{name: "rss"},
		&fakeCollector{name: "github"},
	)
	schedules := map[string]string{
		"collect:product_hunt": "0 */6 * * *",
		"collect:hacker_news":  "0 */6 * * *",
		"collect:rss":          "0 8 * * *",
		"collect:github":       "0 12 * * *",
		"collect:funding":      "0 */16 * * *",
		"scrape":               "0 2 * * *",
		"generate":             "0 4 * * *",
		"funding_stories":      "30 4 * * *",
		"valuations":           "0 6 * * 1",
		"revalidate":           "0 5 * * 0",
		"maintenance":          "0 0 * * 0",
	}

	s, err := NewScheduler(env.pipeline, schedules, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, len(schedules), s.Entries())
}

func TestNewScheduler_RejectsUnknownStage(t *testing.T) {
	env := newTestEnv()
	_, err := NewScheduler(env.pipeline, map[string]string{"mystery": "* * * * *"}, logger.NewNop())
	assert.Error(t, err)
}

func TestNewScheduler_RejectsBadCronSpec(t *testing.T) {
	env := newTestEnv()
	_, err := NewScheduler(env.pipeline, map[string]string{"generate": "not a spec"}, logger.NewNop())
	assert.Error(t, err)
}
