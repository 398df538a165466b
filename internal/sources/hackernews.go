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
	"github.com/foundersignal/pipeline/internal/models"
)

const (
	hnDefaultBaseURL = "https://hacker-news.firebaseio.com/v0"
	hnNewStoryLimit  = 500
	hnTopStoryLimit  = 200
	hnFetchBatchSize = 10
	hnBatchDelay     = 100 * time.Millisecond
)

// hnItem mirrors the Firebase item payload.
type hnItem struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Descendants int    `json:"descendants"`
	Text        string `json:"text"`
	Deleted     bool   `json:"deleted"`
	Dead        bool   `json:"dead"`
}

// HackerNews collects startup-related stories from the Firebase API.
type HackerNews struct {
	client  *http.Client
	baseURL string
	logger  logger.Logger
}

// NewHackerNews creates a Hacker News collector.
func NewHackerNews(client *http.Client, log logger.Logger) *HackerNews {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HackerNews{client: client, baseURL: hnDefaultBaseURL, logger: log}
}

// Name implements Collector.
func (h *HackerNews) Name() string { return string(models.SourceHackerNews) }

// FetchRecent fetches new and top story IDs, loads items in small batches
// with per-item failure tolerance, and keeps startup-related stories inside
// the window.
func (h *HackerNews) FetchRecent(ctx context.Context, windowDays int) ([]CandidateItem, error) {
	newIDs, err := h.fetchStoryIDs(ctx, "newstories", hnNewStoryLimit)
	if err != nil {
		h.logger.Warn("failed to fetch new story ids", logger.Error(err))
	}
	topIDs, err := h.fetchStoryIDs(ctx, "topstories", hnTopStoryLimit)
	if err != nil {
		h.logger.Warn("failed to fetch top story ids", logger.Error(err))
	}

	ids := unionIDs(newIDs, topIDs)
	cutoff := time.Now().AddDate(0, 0, -windowDays)

	var items []CandidateItem
	for i := 0; i < len(ids); i += hnFetchBatchSize {
		end := i + hnFetchBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		for _, id := range ids[i:end] {
			item, fetchErr := h.fetchItem(ctx, id)
			if fetchErr != nil {
				h.logger.Debug("failed to fetch story",
					logger.Int64("id", id), logger.Error(fetchErr))
				continue
			}
			if item == nil {
				continue
			}
			published := time.Unix(item.Time, 0)
			if published.Before(cutoff) {
				continue
			}
			if !containsAny(item.Title+" "+item.Text, startupKeywords) {
				continue
			}
			items = append(items, h.toCandidate(item, published))
		}
		if end < len(ids) {
			select {
			case <-ctx.Done():
				return dedupeByID(items), ctx.Err()
			case <-time.After(hnBatchDelay):
			}
		}
	}

	return dedupeByID(items), nil
}

func (h *HackerNews) toCandidate(item *hnItem, published time.Time) CandidateItem {
	raw, _ := json.Marshal(item)
	return CandidateItem{
		ID:              strconv.FormatInt(item.ID, 10),
		Title:           item.Title,
		Text:            item.Text,
		URL:             item.URL,
		EngagementScore: item.Score,
		CommentCount:    item.Descendants,
		PublishedAt:     published,
		SourceType:      models.SourceHackerNews,
		Raw:             raw,
	}
}

func (h *HackerNews) fetchStoryIDs(ctx context.Context, endpoint string, limit int) ([]int64, error) {
	var ids []int64
	if err := h.getJSON(ctx, fmt.Sprintf("%s/%s.json", h.baseURL, endpoint), &ids); err != nil {
		return nil, err
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (h *HackerNews) fetchItem(ctx context.Context, id int64) (*hnItem, error) {
	var item hnItem
	if err := h.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", h.baseURL, id), &item); err != nil {
		return nil, err
	}
	if item.ID == 0 || item.Deleted || item.Dead {
		return nil, nil
	}
	return &item, nil
}

func (h *HackerNews) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// IsSuccessCandidate requires both engagement (score or discussion) and a
// success keyword.
func (h *HackerNews) IsSuccessCandidate(item CandidateItem) bool {
	hasEngagement := item.EngagementScore > 100 || item.CommentCount > 50
	return hasEngagement && containsAny(item.Title+" "+item.Text, successKeywords)
}

var hnNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)show hn[:\s]+([^(\[\-—–]+)`),
	regexp.MustCompile(`^([^(\[\-—–]+)(?:\s+\(|\s+\[|\s+[-—–])`),
	regexp.MustCompile(`(?i)([A-Za-z]+(?:\.[A-Za-z]+)*)\s+(?:raised|acquired|launches?)`),
}

// ExtractCompanyName pulls a company name out of the title via the Show HN,
// leading-segment and "X raised/launches" patterns.
func (h *HackerNews) ExtractCompanyName(item CandidateItem) (string, bool) {
	for _, pattern := range hnNamePatterns {
		match := pattern.FindStringSubmatch(item.Title)
		if len(match) > 1 {
			name := strings.TrimSpace(match[1])
			if plausibleName(name) {
				return name, true
			}
		}
	}
	return "", false
}

func unionIDs(a, b []int64) []int64 {
	seen := make(map[int64]struct{}, len(a)+len(b))
	out := make([]int64, 0, len(a)+len(b))
	for _, ids := range [][]int64{a, b} {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
