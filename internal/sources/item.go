// Package sources implements the per-source collectors that discover
// candidate startup signals.
package sources

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/foundersignal/pipeline/internal/models"
)

// CandidateItem is the normalized shape every collector emits. Raw payloads
// stay attached verbatim so evidence records preserve the source bytes.
type CandidateItem struct {
	ID              string
	Title           string
	Text            string
	URL             string
	EngagementScore int
	CommentCount    int
	PublishedAt     time.Time
	SourceType      models.SourceType
	Tags            []string
	Raw             json.RawMessage
}

// Collector is the uniform contract each source implements. FetchRecent
// tolerates partial failure and returns what it got; the two predicates are
// pure so heuristics can be tuned and tested without network access.
type Collector interface {
	Name() string
	FetchRecent(ctx context.Context, windowDays int) ([]CandidateItem, error)
	IsSuccessCandidate(item CandidateItem) bool
	ExtractCompanyName(item CandidateItem) (string, bool)
}

// successKeywords flag engagement-independent success signals in titles and
// descriptions.
var successKeywords = []string{
	"raised", "funding", "series", "million", "billion", "acquired",
	"acquisition", "ipo", "unicorn", "growth", "milestone", "success",
	"profitable", "revenue", "users", "customers", "exit",
}

// startupKeywords gate whether an item is about a startup at all.
var startupKeywords = []string{
	"startup", "funded", "raised", "series a", "series b", "series c",
	"venture capital", "seed round", "funding", "investment",
	"unicorn", "ipo", "acquisition", "acquired", "launch", "launching",
	"show hn", "founder", "co-founder", "entrepreneur", "bootstrapped",
	"saas", "mvp", "product hunt",
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// dedupeByID drops items sharing a source-native identifier, keeping the
// first occurrence.
func dedupeByID(items []CandidateItem) []CandidateItem {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out
}

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	htmlEntityPattern = regexp.MustCompile(`&[^;]+;`)
)

// stripHTML removes tags and entities from feed-sourced text.
func stripHTML(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = htmlEntityPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// truncate caps s at n runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// plausibleName rejects extractions that are too short, too long or start
// with a non-letter.
func plausibleName(name string) bool {
	if len(name) <= 2 || len(name) >= 50 {
		return false
	}
	c := name[0]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
