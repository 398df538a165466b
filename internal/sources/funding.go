package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/foundersignal/pipeline/internal/logger"
)

// MinFundingAmount is the floor below which a funding event is not treated
// as a signal.
const MinFundingAmount = 500_000

// FundingAnnouncement is one entry from the curated funding feed.
type FundingAnnouncement struct {
	CompanyName    string   `json:"company_name"`
	FundingAmount  int64    `json:"funding_amount"`
	FundingStage   string   `json:"funding_stage"`
	Date           string   `json:"date"`
	Source         string   `json:"source"`
	CompanyWebsite string   `json:"company_website,omitempty"`
	Description    string   `json:"description,omitempty"`
	Investors      []string `json:"investors,omitempty"`
	Location       string   `json:"location,omitempty"`
	Industry       string   `json:"industry,omitempty"`
}

// FundingFeed fetches curated funding announcements from a remote JSON feed.
type FundingFeed struct {
	client  *http.Client
	feedURL string
	logger  logger.Logger
}

// NewFundingFeed creates a funding feed collector.
func NewFundingFeed(client *http.Client, feedURL string, log logger.Logger) *FundingFeed {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &FundingFeed{client: client, feedURL: feedURL, logger: log}
}

// FetchAnnouncements returns feed entries from the last two years with an
// amount at or above the floor.
func (f *FundingFeed) FetchAnnouncements(ctx context.Context) ([]FundingAnnouncement, error) {
	if f.feedURL == "" {
		f.logger.Debug("no funding feed configured")
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.feedURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var announcements []FundingAnnouncement
	if err := json.Unmarshal(body, &announcements); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	cutoff := time.Now().AddDate(-2, 0, 0)
	filtered := announcements[:0]
	for _, a := range announcements {
		date, parseErr := time.Parse("2006-01-02", a.Date)
		if parseErr != nil || date.Before(cutoff) {
			continue
		}
		if a.FundingAmount < MinFundingAmount {
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered, nil
}

// FundingFacts is the result of scanning free text for a funding event.
type FundingFacts struct {
	CompanyName string
	Amount      int64
	Stage       string
	Investors   []string
	Confidence  float64
}

var fundingKeywords = []string{
	"raised", "funding", "investment", "series", "seed", "venture",
	"million", "billion", "capital", "funding round",
}

var fundingStages = []string{
	"pre-seed", "series a", "series b", "series c", "series d",
	"seed", "angel", "venture", "growth",
}

var (
	fundingAmountPattern = regexp.MustCompile(`(?i)\$?(\d+(?:\.\d+)?)\s*(million|billion|[kmb])\b`)
	investorPatterns     = []*regexp.Regexp{
		regexp.MustCompile(`(?i)led\s+by\s+([^,.]+)`),
		regexp.MustCompile(`(?i)investors?\s+include\s+([^.]+)`),
		regexp.MustCompile(`(?i)backed\s+by\s+([^.]+)`),
	}
	fundingNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`"([^"]+)"\s+(?:raised|secured|announced)`),
		regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(?:raised|secured|announced)`),
		regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(?:has|announces|launches)`),
	}
)

// DetectFunding scans free text for a funding event. It is pure; callers
// apply their own confidence gates. Events below the floor return false.
func DetectFunding(text string) (FundingFacts, bool) {
	lower := strings.ToLower(text)
	if !containsAny(lower, fundingKeywords) {
		return FundingFacts{}, false
	}

	match := fundingAmountPattern.FindStringSubmatch(text)
	if len(match) < 3 {
		return FundingFacts{}, false
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return FundingFacts{}, false
	}
	switch strings.ToLower(match[2]) {
	case "million", "m":
		value *= 1_000_000
	case "billion", "b":
		value *= 1_000_000_000
	case "k":
		value *= 1_000
	}
	amount := int64(value)
	if amount < MinFundingAmount {
		return FundingFacts{}, false
	}

	var name string
	for _, pattern := range fundingNamePatterns {
		m := pattern.FindStringSubmatch(text)
		if len(m) > 1 && plausibleName(strings.TrimSpace(m[1])) {
			name = strings.TrimSpace(m[1])
			break
		}
	}
	if name == "" {
		return FundingFacts{}, false
	}

	stage := "funding"
	for _, s := range fundingStages {
		if strings.Contains(lower, s) {
			stage = strings.ReplaceAll(s, " ", "_")
			stage = strings.ReplaceAll(stage, "-", "_")
			break
		}
	}

	var investors []string
	for _, pattern := range investorPatterns {
		m := pattern.FindStringSubmatch(text)
		if len(m) > 1 {
			for _, inv := range strings.Split(m[1], ",") {
				inv = strings.TrimSpace(inv)
				if inv != "" && len(inv) < 100 {
					investors = append(investors, inv)
				}
			}
		}
	}

	return FundingFacts{
		CompanyName: name,
		Amount:      amount,
		Stage:       stage,
		Investors:   investors,
		Confidence:  fundingConfidence(lower, amount),
	}, true
}

// fundingConfidence grades a detection by amount, stage specificity, named
// investors and recency wording. Graduated, capped at 1.0.
func fundingConfidence(lowerText string, amount int64) float64 {
	confidence := 0.5
	switch {
	case amount >= 10_000_000:
		confidence += 0.2
	case amount >= 1_000_000:
		confidence += 0.1
	}
	if strings.Contains(lowerText, "series a") || strings.Contains(lowerText, "series b") {
		confidence += 0.1
	}
	if strings.Contains(lowerText, "led by") || strings.Contains(lowerText, "investors include") {
		confidence += 0.1
	}
	if strings.Contains(lowerText, "today") || strings.Contains(lowerText, "announced") {
		confidence += 0.1
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}
