package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/foundersignal/pipeline/internal/logger"
	"github.com/foundersignal/pipeline/internal/models"
)

const (
	ghDefaultBaseURL  = "https://api.github.com"
	ghPerKeywordLimit = 20
	ghKeywordDelay    = time.Second
)

// ghSearchKeywords drive the repository search; only the first few are used
// per run to stay inside search-rate budgets.
var ghSearchKeywords = []string{"saas", "startup", "mvp", "platform", "marketplace"}

type ghRepo struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description string   `json:"description"`
	HTMLURL     string   `json:"html_url"`
	Stars       int      `json:"stargazers_count"`
	Language    string   `json:"language"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	PushedAt    string   `json:"pushed_at"`
	Topics      []string `json:"topics"`
}

// GitHub collects recently created repositories that look like startup
// products.
type GitHub struct {
	client  *http.Client
	baseURL string
	token   string
	logger  logger.Logger
}

// NewGitHub creates a GitHub collector. The token is optional; unauthenticated
// search works with a lower rate budget.
func NewGitHub(client *http.Client, token string, log logger.Logger) *GitHub {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &GitHub{client: client, baseURL: ghDefaultBaseURL, token: token, logger: log}
}

// Name implements Collector.
func (g *GitHub) Name() string { return string(models.SourceGitHub) }

// FetchRecent searches one query per startup keyword, swallowing per-keyword
// failures, and dedupes by repository ID.
func (g *GitHub) FetchRecent(ctx context.Context, windowDays int) ([]CandidateItem, error) {
	threshold := time.Now().AddDate(0, 0, -windowDays).Format("2006-01-02")

	var items []CandidateItem
	for i, keyword := range ghSearchKeywords {
		query := fmt.Sprintf("%s created:>%s stars:>5", keyword, threshold)
		repos, err := g.searchRepositories(ctx, query, ghPerKeywordLimit)
		if err != nil {
			g.logger.Warn("github keyword search failed",
				logger.String("keyword", keyword), logger.Error(err))
			continue
		}
		for _, repo := range repos {
			items = append(items, g.toCandidate(repo))
		}
		if i < len(ghSearchKeywords)-1 {
			select {
			case <-ctx.Done():
				return dedupeByID(items), ctx.Err()
			case <-time.After(ghKeywordDelay):
			}
		}
	}
	return dedupeByID(items), nil
}

func (g *GitHub) toCandidate(repo ghRepo) CandidateItem {
	raw, _ := json.Marshal(repo)
	published, _ := time.Parse(time.RFC3339, repo.CreatedAt)
	return CandidateItem{
		ID:              strconv.FormatInt(repo.ID, 10),
		Title:           repo.FullName,
		Text:            repo.Description,
		URL:             repo.HTMLURL,
		EngagementScore: repo.Stars,
		PublishedAt:     published,
		SourceType:      models.SourceGitHub,
		Tags:            repo.Topics,
		Raw:             raw,
	}
}

func (g *GitHub) searchRepositories(ctx context.Context, query string, limit int) ([]ghRepo, error) {
	endpoint := fmt.Sprintf("%s/search/repositories?q=%s&sort=stars&order=desc&per_page=%d",
		g.baseURL, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "foundersignal-pipeline")
	if g.token != "" {
		req.Header.Set("Authorization", "token "+g.token)
	}

	resp, err := g.client.Do(req)
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

	var decoded struct {
		Items []ghRepo `json:"items"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return decoded.Items, nil
}

// ghTractionKeywords signal production adoption in a repo description.
var ghTractionKeywords = []string{
	"production", "used by", "companies", "enterprise", "scale",
	"millions", "popular", "leading", "industry", "standard",
}

// IsSuccessCandidate requires traction (stars or adoption keywords), a real
// description and a push within the last 30 days. Pushes measure development
// activity; updated_at also moves on stars and metadata edits.
func (g *GitHub) IsSuccessCandidate(item CandidateItem) bool {
	hasTraction := item.EngagementScore > 100 || containsAny(item.Text, ghTractionKeywords)
	hasDescription := len(item.Text) > 20

	var recentlyActive bool
	var repo ghRepo
	if err := json.Unmarshal(item.Raw, &repo); err == nil {
		pushed, parseErr := time.Parse(time.RFC3339, repo.PushedAt)
		recentlyActive = parseErr == nil && time.Since(pushed) < 30*24*time.Hour
	}

	return hasTraction && hasDescription && recentlyActive
}

var ghDescriptionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bby\s+([A-Z][a-zA-Z0-9 &]+?)(?:\s+inc|\.|,|$)`),
	regexp.MustCompile(`(?i)\bfrom\s+([A-Z][a-zA-Z0-9 &]+?)(?:\s+inc|\.|,|$)`),
	regexp.MustCompile(`([A-Z][a-zA-Z0-9 &]+?)'s\s+(?:platform|tool|service|app)`),
	regexp.MustCompile(`([A-Z][a-zA-Z0-9 &]+?)\s*(?:™|®|Inc\.|LLC|Corp\.)`),
}

var ghPersonalAccountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\w+\d+$`),
	regexp.MustCompile(`(?i)^(mr|ms|dr)[-_]?\w+`),
	regexp.MustCompile(`\d{4}$`),
	regexp.MustCompile(`^[a-z]+[-_.][a-z]+$`),
}

// ghStopWords are common words that are never company names.
var ghStopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "this": {}, "that": {},
	"app": {}, "api": {}, "sdk": {}, "tool": {}, "library": {}, "framework": {},
	"platform": {}, "service": {}, "product": {}, "startup": {}, "company": {},
	"inc": {}, "llc": {}, "corp": {},
}

// ExtractCompanyName tries description patterns first, then the repo name,
// then a non-personal owner login.
func (g *GitHub) ExtractCompanyName(item CandidateItem) (string, bool) {
	for _, pattern := range ghDescriptionPatterns {
		match := pattern.FindStringSubmatch(item.Text)
		if len(match) > 1 {
			name := strings.TrimSpace(match[1])
			if isValidCompanyName(name) {
				return name, true
			}
		}
	}

	owner, repoName, found := strings.Cut(item.Title, "/")
	if found && isValidCompanyName(repoName) {
		return repoName, true
	}
	if found && isValidCompanyName(owner) && !isPersonalAccount(owner) {
		return owner, true
	}
	return "", false
}

func isValidCompanyName(name string) bool {
	if !plausibleName(name) {
		return false
	}
	if _, stop := ghStopWords[strings.ToLower(name)]; stop {
		return false
	}
	return !isPersonalAccount(name)
}

func isPersonalAccount(username string) bool {
	for _, pattern := range ghPersonalAccountPatterns {
		if pattern.MatchString(username) {
			return true
		}
	}
	return false
}
