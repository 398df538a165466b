package sources

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/foundersignal/pipeline/internal/logger"
	"github.com/foundersignal/pipeline/internal/models"
)

const (
	rssDescriptionCap = 500
	rssFeedDelay      = time.Second
)

// RSS collects startup and funding news from a configured set of feeds.
type RSS struct {
	parser *gofeed.Parser
	feeds  []string
	logger logger.Logger
}

// NewRSS creates an RSS collector over the given feed URLs.
func NewRSS(feeds []string, log logger.Logger) *RSS {
	return &RSS{parser: gofeed.NewParser(), feeds: feeds, logger: log}
}

// Name implements Collector.
func (r *RSS) Name() string { return string(models.SourceRSS) }

// FetchRecent parses every configured feed, tolerating per-feed failures,
// and keeps startup-related entries inside the window. Items are deduped by
// title+link.
func (r *RSS) FetchRecent(ctx context.Context, windowDays int) ([]CandidateItem, error) {
	cutoff := time.Now().AddDate(0, 0, -windowDays)

	var items []CandidateItem
	for i, feedURL := range r.feeds {
		feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			r.logger.Warn("failed to parse feed",
				logger.String("url", feedURL), logger.Error(err))
			continue
		}
		for _, entry := range feed.Items {
			if entry.PublishedParsed == nil || entry.PublishedParsed.Before(cutoff) {
				continue
			}
			description := truncate(stripHTML(entry.Description), rssDescriptionCap)
			if !containsAny(entry.Title+" "+description, startupKeywords) {
				continue
			}
			raw, _ := json.Marshal(entry)
			items = append(items, CandidateItem{
				ID:          entry.Title + "-" + entry.Link,
				Title:       entry.Title,
				Text:        description,
				URL:         entry.Link,
				PublishedAt: *entry.PublishedParsed,
				SourceType:  models.SourceRSS,
				Tags:        entry.Categories,
				Raw:         raw,
			})
		}
		if i < len(r.feeds)-1 {
			select {
			case <-ctx.Done():
				return dedupeByID(items), ctx.Err()
			case <-time.After(rssFeedDelay):
			}
		}
	}
	return dedupeByID(items), nil
}

// IsSuccessCandidate checks title and description for success keywords; news
// items carry no engagement signal.
func (r *RSS) IsSuccessCandidate(item CandidateItem) bool {
	return containsAny(item.Title+" "+item.Text, successKeywords)
}

var rssNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(?:raised|raises|announces|launches|acquired)`),
	regexp.MustCompile(`^([^:]+):`),
	regexp.MustCompile(`([A-Z][a-z]+)\s+CEO`),
	regexp.MustCompile(`(?i)startup\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`),
}

// rssCommonWords are capitalized words that headline patterns match but are
// never company names.
var rssCommonWords = map[string]struct{}{
	"The": {}, "This": {}, "That": {}, "With": {}, "From": {}, "Here": {},
	"How": {}, "Why": {}, "What": {}, "When": {}, "Where": {}, "New": {},
	"Best": {}, "Top": {}, "Most": {}, "All": {},
}

// ExtractCompanyName applies headline patterns to the title.
func (r *RSS) ExtractCompanyName(item CandidateItem) (string, bool) {
	for _, pattern := range rssNamePatterns {
		match := pattern.FindStringSubmatch(item.Title)
		if len(match) > 1 {
			name := strings.TrimSpace(match[1])
			if !plausibleName(name) {
				continue
			}
			if _, common := rssCommonWords[name]; common {
				continue
			}
			return name, true
		}
	}
	return "", false
}
