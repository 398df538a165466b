// Package validator cross-references startup claims and reduces them to a
// confidence score with a ternary verdict.
package validator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/foundersignal/pipeline/internal/config"
	"github.com/foundersignal/pipeline/internal/logger"
	"github.com/foundersignal/pipeline/internal/models"
	"github.com/foundersignal/pipeline/internal/sources"
)

const (
	minDescriptionLen = 20
	largeFundingFloor = 1_000_000
	maxEmployeeCount  = 500_000
	maxFundingAmount  = 100_000_000_000
	maxCompanyAge     = 50 // years

	// Slack applied to the stage plausibility bands before flagging.
	bandLowerSlack = 0.1
	bandUpperSlack = 5.0

	crossRefWindowDays = 365
)

var fundingEvidenceKeywords = []string{
	"raised", "funding", "investment", "million", "billion", "series", "seed round",
}

// ReachabilityChecker probes whether a URL answers at all.
type ReachabilityChecker interface {
	CheckReachability(ctx context.Context, rawURL string) bool
}

// NewsSearcher finds recent external pages mentioning a query.
type NewsSearcher interface {
	SearchNews(ctx context.Context, query string, days int) ([]sources.ScrapedPage, error)
}

// DuplicateFinder looks up existing startups with a similar name or the same
// website.
type DuplicateFinder interface {
	FindSimilar(ctx context.Context, excludeID, nameNormalized string, websiteURL *string) ([]models.Startup, error)
}

// RateGate throttles outbound checks per resource.
type RateGate interface {
	Acquire(resource, identifier string) error
}

// Validator computes validation verdicts. It persists nothing: every call is
// a fresh evaluation of the startup snapshot, its evidence and live checks.
type Validator struct {
	reach  ReachabilityChecker
	news   NewsSearcher
	dupes  DuplicateFinder
	gate   RateGate
	cfg    config.ValidatorConfig
	logger logger.Logger
}

// New creates a validator. reach, news, dupes and gate may each be nil, which
// disables the corresponding check.
func New(reach ReachabilityChecker, news NewsSearcher, dupes DuplicateFinder, gate RateGate, cfg config.ValidatorConfig, log logger.Logger) *Validator {
	if cfg.StageBands == nil {
		cfg.StageBands = config.DefaultStageBands()
	}
	return &Validator{reach: reach, news: news, dupes: dupes, gate: gate, cfg: cfg, logger: log}
}

// Validate reduces a starting confidence of 1.0 through a fixed sequence of
// independent additive deductions, then maps the clamped score to a verdict.
// A panic anywhere in the checks yields confidence 0 and needs_review rather
// than taking down the calling stage.
func (v *Validator) Validate(ctx context.Context, startup *models.Startup, evidence []models.DataSourceRecord) (result *models.ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("validation panicked",
				logger.String("startup", startup.Name), logger.Any("panic", r))
			result = &models.ValidationResult{
				IsValid:      false,
				Confidence:   0,
				Verdict:      models.VerdictNeedsReview,
				Issues:       []string{fmt.Sprintf("validation error: %v", r)},
				CrossRefHits: []string{},
			}
		}
	}()

	w := v.cfg.Weights
	confidence := 1.0
	issues := []string{}

	// 1. Basic info.
	if len(strings.TrimSpace(startup.Name)) < 2 {
		confidence -= w.MissingName
		issues = append(issues, "company name is missing or too short")
	}
	if startup.Description == nil || len(strings.TrimSpace(*startup.Description)) < minDescriptionLen {
		confidence -= w.MissingDescription
		issues = append(issues, "description is missing or too short")
	}
	if !startup.HasOnlinePresence() {
		confidence -= w.NoOnlinePresence
		issues = append(issues, "no verifiable online presence")
	} else if startup.WebsiteURL != nil && v.reach != nil {
		if v.allowed("web_scraping", startup.Name) && !v.reach.CheckReachability(ctx, *startup.WebsiteURL) {
			confidence -= w.UnreachableWebsite
			issues = append(issues, fmt.Sprintf("website %s is unreachable", *startup.WebsiteURL))
		}
	}

	// 2. External cross-references.
	hits := v.crossReference(ctx, startup.Name)
	if len(hits) == 0 {
		confidence -= w.NoCrossReference
		issues = append(issues, "no external sources corroborate this company")
	}

	// 3. Funding claims.
	if startup.FundingAmount != nil {
		amount := *startup.FundingAmount
		if startup.FundingStage != nil {
			if band, ok := v.cfg.StageBands[*startup.FundingStage]; ok {
				low := int64(float64(band[0]) * bandLowerSlack)
				high := int64(float64(band[1]) * bandUpperSlack)
				if amount < low || amount > high {
					confidence -= w.ImplausibleFunding
					issues = append(issues, fmt.Sprintf("funding amount %d is implausible for stage %s", amount, *startup.FundingStage))
				}
			}
		}
		if amount > largeFundingFloor && !fundingCorroborated(evidence) {
			confidence -= w.UncorroboratedLarge
			issues = append(issues, "large funding claim lacks corroborating announcement text")
		}
	}

	// 4. Metric sanity.
	if startup.EmployeeCount != nil && (*startup.EmployeeCount < 0 || *startup.EmployeeCount > maxEmployeeCount) {
		confidence -= w.MetricOutOfBounds
		issues = append(issues, "employee count is out of bounds")
	}
	if startup.FundingAmount != nil && (*startup.FundingAmount < 0 || *startup.FundingAmount > maxFundingAmount) {
		confidence -= w.MetricOutOfBounds
		issues = append(issues, "funding amount is out of bounds")
	}
	if startup.FoundedDate != nil {
		now := time.Now()
		if startup.FoundedDate.After(now) || startup.FoundedDate.Before(now.AddDate(-maxCompanyAge, 0, 0)) {
			confidence -= w.BadFoundedDate
			issues = append(issues, "founding date is in the future or unreasonably old")
		}
	}

	// 5. Duplicates. Validation only deducts here; deleting duplicates is the
	// maintenance sweep's job.
	if v.dupes != nil {
		similar, err := v.dupes.FindSimilar(ctx, startup.ID, startup.NameNormalized, startup.WebsiteURL)
		if err != nil {
			v.logger.Warn("duplicate lookup failed", logger.String("startup", startup.Name), logger.Error(err))
		} else if len(similar) > 0 {
			confidence -= w.Duplicate
			issues = append(issues, fmt.Sprintf("similar startup already exists: %s", similar[0].Name))
		}
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	verdict := v.verdict(confidence, len(issues))
	return &models.ValidationResult{
		IsValid:      verdict != models.VerdictRejected,
		Confidence:   confidence,
		Verdict:      verdict,
		Issues:       issues,
		CrossRefHits: hits,
	}
}

// crossReference runs the external news searches. Each search is rate-limited
// and failure-tolerant: a throttled or failed query is skipped, never fatal.
func (v *Validator) crossReference(ctx context.Context, name string) []string {
	hits := []string{}
	if v.news == nil {
		return hits
	}

	queries := []string{
		fmt.Sprintf("%q startup", name),
		fmt.Sprintf("%q funding", name),
	}
	nameLower := strings.ToLower(name)

	for _, query := range queries {
		if !v.allowed("api", name) {
			continue
		}
		pages, err := v.news.SearchNews(ctx, query, crossRefWindowDays)
		if err != nil {
			v.logger.Debug("cross-reference search failed",
				logger.String("query", query), logger.Error(err))
			continue
		}
		for _, page := range pages {
			if strings.Contains(strings.ToLower(page.Title), nameLower) ||
				strings.Contains(strings.ToLower(page.Content), nameLower) {
				hits = append(hits, page.URL)
			}
		}
	}
	return hits
}

func (v *Validator) verdict(confidence float64, issueCount int) models.Verdict {
	switch {
	case confidence < v.cfg.RejectBelow:
		return models.VerdictRejected
	case confidence < v.cfg.ReviewBelow || issueCount > v.cfg.MaxIssues:
		return models.VerdictNeedsReview
	default:
		return models.VerdictApproved
	}
}

func (v *Validator) allowed(resource, identifier string) bool {
	if v.gate == nil {
		return true
	}
	if err := v.gate.Acquire(resource, identifier); err != nil {
		v.logger.Debug("validation check throttled",
			logger.String("resource", resource), logger.String("identifier", identifier))
		return false
	}
	return true
}

// fundingCorroborated reports whether any evidence record looks like a
// funding announcement, either by source type or by keywords in its payload.
func fundingCorroborated(evidence []models.DataSourceRecord) bool {
	for _, rec := range evidence {
		switch rec.SourceType {
		case models.SourceFunding, models.SourceFundingDetection:
			return true
		}
		text := strings.ToLower(string(rec.RawData))
		for _, keyword := range fundingEvidenceKeywords {
			if strings.Contains(text, keyword) {
				return true
			}
		}
	}
	return false
}
