// Package pipeline orchestrates the collection, generation, validation and
// maintenance stages, with JobRun bookkeeping around every run.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/foundersignal/pipeline/internal/config"
	"github.com/foundersignal/pipeline/internal/generator"
	"github.com/foundersignal/pipeline/internal/leads"
	"github.com/foundersignal/pipeline/internal/logger"
	"github.com/foundersignal/pipeline/internal/metrics"
	"github.com/foundersignal/pipeline/internal/models"
	"github.com/foundersignal/pipeline/internal/ratelimit"
	"github.com/foundersignal/pipeline/internal/sources"
)

const (
	fundingDetectionConfidence = 0.6
	fundingDetectionScanLimit  = 500
	revalidationBatch          = 100
)

// StartupStore is the startup repository surface the pipeline needs.
type StartupStore interface {
	FindByNormalizedName(ctx context.Context, nameNormalized string) (*models.Startup, error)
	UpdateValuation(ctx context.Context, id string, valuation int64, asOf time.Time) error
	ListNeedingStories(ctx context.Context, minEvidence, lookbackDays, limit int) ([]models.Startup, error)
	ListFundedWithoutStories(ctx context.Context, minAmount int64, limit int) ([]models.Startup, error)
	ListWithStories(ctx context.Context, limit int) ([]models.Startup, error)
}

// EvidenceStore is the source repository surface the pipeline needs.
type EvidenceStore interface {
	Insert(ctx context.Context, rec *models.DataSourceRecord) (*models.DataSourceRecord, error)
	ListByStartup(ctx context.Context, startupID string) ([]models.DataSourceRecord, error)
	ListRecentByTypes(ctx context.Context, since time.Time, types []models.SourceType, limit int) ([]models.DataSourceRecord, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// StoryStore is the story repository surface the pipeline needs.
type StoryStore interface {
	Insert(ctx context.Context, story *models.SuccessStory) (*models.SuccessStory, error)
	DeleteByStartup(ctx context.Context, startupID string) (int64, error)
	DeleteForStartupsFoundedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// JobStore records stage runs.
type JobStore interface {
	Start(ctx context.Context, jobName string) (*models.JobRun, error)
	Complete(ctx context.Context, id string, recordsProcessed int, metadata json.RawMessage) error
	Fail(ctx context.Context, id, errorMessage string) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// LeadProcessor resolves raw leads into startups plus evidence.
type LeadProcessor interface {
	ProcessLead(ctx context.Context, lead leads.Lead) (*models.Startup, error)
}

// StoryGenerator produces draft stories from evidence.
type StoryGenerator interface {
	AnalyzeStartup(ctx context.Context, req generator.AnalysisRequest) *generator.AnalysisResult
	GenerateFundingStory(ctx context.Context, companyName string, amount int64, stage, details string) *generator.AnalysisResult
}

// Checker validates a startup against its evidence.
type Checker interface {
	Validate(ctx context.Context, startup *models.Startup, evidence []models.DataSourceRecord) *models.ValidationResult
}

// FundingSource lists curated funding announcements.
type FundingSource interface {
	FetchAnnouncements(ctx context.Context) ([]sources.FundingAnnouncement, error)
}

// ValuationSource lists valuation updates.
type ValuationSource interface {
	FetchValuations(ctx context.Context) ([]sources.ValuationUpdate, error)
}

// PageScraper fetches a page for enrichment.
type PageScraper interface {
	ScrapeWithRetry(ctx context.Context, pageURL string) (*sources.ScrapedPage, error)
}

// Limiter throttles per-resource work.
type Limiter interface {
	Acquire(resource, identifier string) error
}

// Deps wires the pipeline's collaborators.
type Deps struct {
	Collectors []sources.Collector
	Funding    FundingSource
	Valuations ValuationSource
	Scraper    PageScraper
	Leads      LeadProcessor
	Generator  StoryGenerator
	Validator  Checker
	Startups   StartupStore
	Evidence   EvidenceStore
	Stories    StoryStore
	Jobs       JobStore
	Limiter    Limiter
	Metrics    *metrics.Metrics
	Logger     logger.Logger
	Config     *config.Config
}

// Pipeline owns every stage. Stages are idempotent: re-running one cannot
// create duplicate startups (upsert guard) or duplicate stories (eligibility
// queries exclude startups that already have one).
type Pipeline struct {
	collectors map[string]sources.Collector
	funding    FundingSource
	valuations ValuationSource
	scraper    PageScraper
	leads      LeadProcessor
	generator  StoryGenerator
	validator  Checker
	startups   StartupStore
	evidence   EvidenceStore
	stories    StoryStore
	jobs       JobStore
	limiter    Limiter
	metrics    *metrics.Metrics
	logger     logger.Logger
	cfg        *config.Config
}

// New creates the pipeline.
func New(deps Deps) *Pipeline {
	collectors := make(map[string]sources.Collector, len(deps.Collectors))
	for _, c := range deps.Collectors {
		collectors[c.Name()] = c
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &Pipeline{
		collectors: collectors,
		funding:    deps.Funding,
		valuations: deps.Valuations,
		scraper:    deps.Scraper,
		leads:      deps.Leads,
		generator:  deps.Generator,
		validator:  deps.Validator,
		startups:   deps.Startups,
		evidence:   deps.Evidence,
		stories:    deps.Stories,
		jobs:       deps.Jobs,
		limiter:    deps.Limiter,
		metrics:    m,
		logger:     deps.Logger,
		cfg:        deps.Config,
	}
}

// runStage wraps a stage in JobRun bookkeeping. Per-item failures inside the
// stage are counted by the stage itself; only a total failure marks the run
// failed.
func (p *Pipeline) runStage(ctx context.Context, name string, fn func(context.Context) (int, error)) error {
	run, err := p.jobs.Start(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to record job start for %s: %w", name, err)
	}
	p.metrics.StageStarted()
	p.logger.Info("stage started", logger.String("stage", name))

	processed, stageErr := fn(ctx)
	if stageErr != nil {
		p.metrics.StageFinished(name, "failed")
		p.logger.Error("stage failed", logger.String("stage", name), logger.Error(stageErr))
		if failErr := p.jobs.Fail(ctx, run.ID, stageErr.Error()); failErr != nil {
			p.logger.Error("failed to record job failure", logger.String("stage", name), logger.Error(failErr))
		}
		return stageErr
	}

	p.metrics.StageFinished(name, "completed")
	p.metrics.ItemsProcessed(name, processed)
	p.logger.Info("stage completed", logger.String("stage", name), logger.Int("processed", processed))
	return p.jobs.Complete(ctx, run.ID, processed, nil)
}

// Collect runs one collector's collection stage.
func (p *Pipeline) Collect(ctx context.Context, sourceName string) error {
	collector, ok := p.collectors[sourceName]
	if !ok {
		return fmt.Errorf("%w: unknown source %q", models.ErrInvalidInput, sourceName)
	}
	return p.runStage(ctx, "collect:"+sourceName, func(ctx context.Context) (int, error) {
		return p.collectFrom(ctx, collector)
	})
}

func (p *Pipeline) collectFrom(ctx context.Context, collector sources.Collector) (int, error) {
	if err := p.acquire(collectorResource(collector.Name()), collector.Name()); err != nil {
		var throttled *ratelimit.ThrottledError
		if errors.As(err, &throttled) {
			p.logger.Warn("collection throttled, skipping run",
				logger.String("source", collector.Name()),
				logger.Duration("retry_after", throttled.RetryAfter))
			return 0, nil
		}
		return 0, err
	}

	items, err := collector.FetchRecent(ctx, p.cfg.Sources.WindowDays)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch from %s: %w", collector.Name(), err)
	}

	processed := 0
	failed := 0
	for _, item := range items {
		if !collector.IsSuccessCandidate(item) {
			continue
		}
		name, ok := collector.ExtractCompanyName(item)
		if !ok {
			continue
		}
		if _, err := p.leads.ProcessLead(ctx, candidateToLead(name, item)); err != nil {
			if errors.Is(err, models.ErrInvalidName) {
				continue
			}
			failed++
			p.logger.Warn("failed to process lead",
				logger.String("source", collector.Name()),
				logger.String("name", name), logger.Error(err))
			continue
		}
		processed++
	}
	if failed > 0 {
		p.logger.Warn("collection finished with item failures",
			logger.String("source", collector.Name()), logger.Int("failed", failed))
	}
	return processed, nil
}

func candidateToLead(name string, item sources.CandidateItem) leads.Lead {
	lead := leads.Lead{
		Name:        name,
		Description: item.Text,
		Tags:        item.Tags,
		SourceType:  item.SourceType,
		SourceURL:   item.URL,
		RawData:     item.Raw,
	}
	switch item.SourceType {
	case models.SourceGitHub:
		lead.GithubURL = item.URL
	case models.SourceProductHunt:
		lead.ProductHuntURL = item.URL
	default:
		lead.WebsiteURL = item.URL
	}
	return lead
}

// CollectFunding ingests the curated funding feed, then sweeps recent
// evidence for funding language the collectors brought in as plain text.
func (p *Pipeline) CollectFunding(ctx context.Context) error {
	return p.runStage(ctx, "collect:funding", func(ctx context.Context) (int, error) {
		processed, err := p.collectFundingFeed(ctx)
		if err != nil {
			return processed, err
		}
		detected, err := p.detectFundingSignals(ctx)
		return processed + detected, err
	})
}

func (p *Pipeline) collectFundingFeed(ctx context.Context) (int, error) {
	if p.funding == nil {
		return 0, nil
	}
	announcements, err := p.funding.FetchAnnouncements(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch funding feed: %w", err)
	}

	processed := 0
	for _, a := range announcements {
		raw, marshalErr := json.Marshal(a)
		if marshalErr != nil {
			continue
		}
		amount := a.FundingAmount
		stage := a.FundingStage
		_, err := p.leads.ProcessLead(ctx, leads.Lead{
			Name:                 a.CompanyName,
			Description:          a.Description,
			WebsiteURL:           a.CompanyWebsite,
			Location:             a.Location,
			Industry:             a.Industry,
			FundingAmount:        &amount,
			FundingStage:         &stage,
			SourceType:           models.SourceFunding,
			SourceURL:            a.Source,
			RawData:              raw,
			FundingAuthoritative: true,
		})
		if err != nil {
			if !errors.Is(err, models.ErrInvalidName) {
				p.logger.Warn("failed to process funding announcement",
					logger.String("company", a.CompanyName), logger.Error(err))
			}
			continue
		}
		processed++
	}
	return processed, nil
}

// fundingScanSources are the evidence types the detection sweep reads.
// Restricting the scan to collector text keeps the sweep idempotent: its own
// funding_detection records carry the matched text and would re-match on
// every run otherwise.
var fundingScanSources = []models.SourceType{
	models.SourceRSS,
	models.SourceHackerNews,
	models.SourceProductHunt,
}

// detectFundingSignals scans recent evidence text for funding facts the
// structured feed missed.
func (p *Pipeline) detectFundingSignals(ctx context.Context) (int, error) {
	since := time.Now().AddDate(0, 0, -p.cfg.Pipeline.LookbackDays)
	records, err := p.evidence.ListRecentByTypes(ctx, since, fundingScanSources, fundingDetectionScanLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to list recent evidence: %w", err)
	}

	detected := 0
	for _, rec := range records {
		facts, ok := sources.DetectFunding(string(rec.RawData))
		if !ok || facts.Confidence < fundingDetectionConfidence || facts.CompanyName == "" {
			continue
		}
		amount := facts.Amount
		stage := facts.Stage
		_, err := p.leads.ProcessLead(ctx, leads.Lead{
			Name:                 facts.CompanyName,
			FundingAmount:        &amount,
			FundingStage:         optionalStr(stage),
			SourceType:           models.SourceFundingDetection,
			RawData:              rec.RawData,
			FundingAuthoritative: true,
		})
		if err != nil {
			continue
		}
		detected++
	}
	return detected, nil
}

// UpdateValuations applies the valuation feed to known startups. Unknown
// companies are skipped, never created.
func (p *Pipeline) UpdateValuations(ctx context.Context) error {
	return p.runStage(ctx, "valuations", func(ctx context.Context) (int, error) {
		if p.valuations == nil {
			return 0, nil
		}
		updates, err := p.valuations.FetchValuations(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to fetch valuations: %w", err)
		}

		updated := 0
		for _, u := range updates {
			_, key := leads.NormalizeName(u.CompanyName)
			startup, err := p.startups.FindByNormalizedName(ctx, key)
			if err != nil {
				if !errors.Is(err, models.ErrNotFound) {
					p.logger.Warn("valuation lookup failed",
						logger.String("company", u.CompanyName), logger.Error(err))
				}
				continue
			}
			asOf, parseErr := time.Parse("2006-01-02", u.ValuationDate)
			if parseErr != nil {
				asOf = time.Now()
			}
			if err := p.startups.UpdateValuation(ctx, startup.ID, u.CurrentValuation, asOf); err != nil {
				p.logger.Warn("failed to update valuation",
					logger.String("company", u.CompanyName), logger.Error(err))
				continue
			}
			updated++
		}
		return updated, nil
	})
}

// Scrape enriches story candidates with their own website content, in a
// bounded batch with an inter-item delay.
func (p *Pipeline) Scrape(ctx context.Context) error {
	return p.runStage(ctx, "scrape", func(ctx context.Context) (int, error) {
		candidates, err := p.startups.ListNeedingStories(ctx, 1, p.cfg.Pipeline.LookbackDays, p.cfg.Sources.ScrapeBatchSize)
		if err != nil {
			return 0, fmt.Errorf("failed to list scrape candidates: %w", err)
		}

		scraped := 0
		for i, s := range candidates {
			if s.WebsiteURL == nil {
				continue
			}
			if i > 0 {
				if err := sleepCtx(ctx, p.cfg.Sources.ScrapeItemDelay); err != nil {
					return scraped, err
				}
			}
			if err := p.acquire("web_scraping", s.Name); err != nil {
				p.logger.Debug("scrape throttled", logger.String("startup", s.Name))
				continue
			}
			page, err := p.scraper.ScrapeWithRetry(ctx, *s.WebsiteURL)
			if err != nil {
				p.logger.Warn("failed to scrape website",
					logger.String("startup", s.Name), logger.Error(err))
				continue
			}
			raw, marshalErr := json.Marshal(page)
			if marshalErr != nil {
				continue
			}
			_, err = p.evidence.Insert(ctx, &models.DataSourceRecord{
				StartupID:  s.ID,
				SourceType: models.SourceScrape,
				SourceURL:  s.WebsiteURL,
				RawData:    raw,
			})
			if err != nil {
				p.logger.Warn("failed to attach scraped evidence",
					logger.String("startup", s.Name), logger.Error(err))
				continue
			}
			scraped++
		}
		return scraped, nil
	})
}

// Generate runs the story generation stage: analyze eligible startups,
// validate the survivors and persist everything not rejected.
func (p *Pipeline) Generate(ctx context.Context) error {
	return p.runStage(ctx, "generate", func(ctx context.Context) (int, error) {
		candidates, err := p.startups.ListNeedingStories(ctx,
			p.cfg.Pipeline.MinEvidenceRecords, p.cfg.Pipeline.LookbackDays, p.cfg.Pipeline.GenerationLimit)
		if err != nil {
			return 0, fmt.Errorf("failed to list story candidates: %w", err)
		}

		generated := 0
		for i := range candidates {
			s := candidates[i]
			evidence, err := p.evidence.ListByStartup(ctx, s.ID)
			if err != nil {
				p.logger.Warn("failed to load evidence", logger.String("startup", s.Name), logger.Error(err))
				continue
			}

			analysis := p.generator.AnalyzeStartup(ctx, analysisRequest(s.Name, evidence))
			if analysis.Fallback {
				p.metrics.GenerationFallback()
			}
			if !analysis.IsSuccessStory || analysis.Confidence <= p.cfg.Generator.MinConfidence {
				continue
			}

			validation := p.validator.Validate(ctx, &s, evidence)
			p.metrics.VerdictRecorded(string(validation.Verdict))
			if validation.Verdict == models.VerdictRejected {
				p.logger.Info("story candidate rejected by validation",
					logger.String("startup", s.Name), logger.Strings("issues", validation.Issues))
				continue
			}

			if err := p.persistStory(ctx, s, analysis, validation); err != nil {
				if !errors.Is(err, models.ErrAlreadyExists) {
					p.logger.Warn("failed to persist story", logger.String("startup", s.Name), logger.Error(err))
				}
				continue
			}
			generated++
		}
		return generated, nil
	})
}

func analysisRequest(name string, evidence []models.DataSourceRecord) generator.AnalysisRequest {
	req := generator.AnalysisRequest{CompanyName: name}
	for _, rec := range evidence {
		req.Sections = append(req.Sections, generator.EvidenceSection{
			Label:   string(rec.SourceType),
			Payload: rec.RawData,
		})
	}
	return req
}

func (p *Pipeline) persistStory(ctx context.Context, s models.Startup, analysis *generator.AnalysisResult, validation *models.ValidationResult) error {
	featured := validation.Verdict == models.VerdictApproved &&
		analysis.Confidence > p.cfg.Pipeline.FeaturedConfidence
	if analysis.StoryType == models.StoryFunding && s.FundingAmount != nil &&
		*s.FundingAmount >= p.cfg.Pipeline.FeaturedFundingFloor {
		featured = true
	}

	_, err := p.stories.Insert(ctx, &models.SuccessStory{
		StartupID:   s.ID,
		Title:       analysis.Title,
		Summary:     analysis.Summary,
		Content:     analysis.Content,
		StoryType:   analysis.StoryType,
		Confidence:  analysis.Confidence,
		Tags:        pq.StringArray(analysis.Tags),
		Sources:     pq.StringArray(evidenceURLs(validation.CrossRefHits)),
		AIGenerated: true,
		Featured:    featured,
	})
	return err
}

func evidenceURLs(hits []string) []string {
	if hits == nil {
		return []string{}
	}
	return hits
}

// GenerateFundingStories writes articles for funded startups that have no
// story yet.
func (p *Pipeline) GenerateFundingStories(ctx context.Context) error {
	return p.runStage(ctx, "funding_stories", func(ctx context.Context) (int, error) {
		candidates, err := p.startups.ListFundedWithoutStories(ctx,
			p.cfg.Generator.MinFundingAmount, p.cfg.Pipeline.GenerationLimit)
		if err != nil {
			return 0, fmt.Errorf("failed to list funded startups: %w", err)
		}

		generated := 0
		for i := range candidates {
			s := candidates[i]
			if s.FundingAmount == nil {
				continue
			}
			stage := ""
			if s.FundingStage != nil {
				stage = *s.FundingStage
			}
			details := ""
			if s.Description != nil {
				details = *s.Description
			}

			result := p.generator.GenerateFundingStory(ctx, s.Name, *s.FundingAmount, stage, details)
			if result.Fallback {
				p.metrics.GenerationFallback()
			}
			if !result.IsSuccessStory {
				continue
			}

			evidence, err := p.evidence.ListByStartup(ctx, s.ID)
			if err != nil {
				evidence = nil
			}
			validation := p.validator.Validate(ctx, &s, evidence)
			p.metrics.VerdictRecorded(string(validation.Verdict))
			if validation.Verdict == models.VerdictRejected {
				continue
			}

			if err := p.persistStory(ctx, s, result, validation); err != nil {
				if !errors.Is(err, models.ErrAlreadyExists) {
					p.logger.Warn("failed to persist funding story", logger.String("startup", s.Name), logger.Error(err))
				}
				continue
			}
			generated++
		}
		return generated, nil
	})
}

// Revalidate re-runs validation for startups with published stories and
// deletes the stories of anything that now comes back rejected.
func (p *Pipeline) Revalidate(ctx context.Context) error {
	return p.runStage(ctx, "revalidate", func(ctx context.Context) (int, error) {
		published, err := p.startups.ListWithStories(ctx, revalidationBatch)
		if err != nil {
			return 0, fmt.Errorf("failed to list published startups: %w", err)
		}

		removed := 0
		for i := range published {
			s := published[i]
			evidence, err := p.evidence.ListByStartup(ctx, s.ID)
			if err != nil {
				continue
			}
			validation := p.validator.Validate(ctx, &s, evidence)
			if validation.Verdict != models.VerdictRejected {
				continue
			}
			n, err := p.stories.DeleteByStartup(ctx, s.ID)
			if err != nil {
				p.logger.Warn("failed to delete invalid stories",
					logger.String("startup", s.Name), logger.Error(err))
				continue
			}
			p.logger.Info("removed stories for invalidated startup",
				logger.String("startup", s.Name), logger.Int64("stories", n),
				logger.Strings("issues", validation.Issues))
			removed += int(n)
		}
		return removed, nil
	})
}

// Maintain purges stale evidence, old job runs and stories for companies too
// old to count as startups.
func (p *Pipeline) Maintain(ctx context.Context) error {
	return p.runStage(ctx, "maintenance", func(ctx context.Context) (int, error) {
		total := 0

		evidencePurged, err := p.evidence.PurgeOlderThan(ctx, time.Now().Add(-p.cfg.Pipeline.EvidenceRetention))
		if err != nil {
			return total, fmt.Errorf("failed to purge evidence: %w", err)
		}
		total += int(evidencePurged)

		jobsPurged, err := p.jobs.PurgeOlderThan(ctx, time.Now().Add(-p.cfg.Pipeline.JobRunRetention))
		if err != nil {
			return total, fmt.Errorf("failed to purge job runs: %w", err)
		}
		total += int(jobsPurged)

		cutoff := time.Now().AddDate(-p.cfg.Pipeline.MaxStartupAgeYears, 0, 0)
		storiesPurged, err := p.stories.DeleteForStartupsFoundedBefore(ctx, cutoff)
		if err != nil {
			return total, fmt.Errorf("failed to purge old stories: %w", err)
		}
		total += int(storiesPurged)

		return total, nil
	})
}

// SourceOutcome is one entry of a manual collection summary.
type SourceOutcome struct {
	Source string `json:"source"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RunManualCollection runs the named collection stages. An empty selection
// runs everything. Unknown names are reported, and one source's failure never
// hides the others' results.
func (p *Pipeline) RunManualCollection(ctx context.Context, sourceNames []string) []SourceOutcome {
	if len(sourceNames) == 0 {
		for name := range p.collectors {
			sourceNames = append(sourceNames, name)
		}
		sourceNames = append(sourceNames, "funding")
	}

	outcomes := make([]SourceOutcome, 0, len(sourceNames))
	for _, name := range sourceNames {
		outcome := SourceOutcome{Source: name, Status: "completed"}
		var err error
		switch {
		case name == "funding":
			err = p.CollectFunding(ctx)
		default:
			if _, known := p.collectors[name]; !known {
				outcome.Status = "unknown"
				outcomes = append(outcomes, outcome)
				continue
			}
			err = p.Collect(ctx, name)
		}
		if err != nil {
			outcome.Status = "failed"
			outcome.Error = err.Error()
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// SourceNames lists the registered collector names plus the funding feed.
func (p *Pipeline) SourceNames() []string {
	names := make([]string, 0, len(p.collectors)+1)
	for name := range p.collectors {
		names = append(names, name)
	}
	names = append(names, "funding")
	return names
}

func (p *Pipeline) acquire(resource, identifier string) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Acquire(resource, identifier)
}

// collectorResource maps a source to its rate-limit bucket. Sources with
// their own quotas get dedicated buckets, the rest share the collection one.
func collectorResource(sourceName string) string {
	switch sourceName {
	case string(models.SourceProductHunt):
		return "product_hunt"
	case string(models.SourceGitHub):
		return "github"
	default:
		return "data_collection"
	}
}

func optionalStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
