package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/foundersignal/pipeline/internal/logger"
)

// ValuationUpdate is one entry from the valuation feed: a current-valuation
// observation for a company we may already track.
type ValuationUpdate struct {
	CompanyName      string  `json:"company_name"`
	CurrentValuation int64   `json:"current_valuation"`
	ValuationDate    string  `json:"valuation_date"`
	Source           string  `json:"source"`
	Confidence       float64 `json:"confidence"`
}

// ValuationFeed fetches current-valuation updates from a remote JSON feed.
type ValuationFeed struct {
	client  *http.Client
	feedURL string
	logger  logger.Logger
}

// NewValuationFeed creates a valuation feed collector.
func NewValuationFeed(client *http.Client, feedURL string, log logger.Logger) *ValuationFeed {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ValuationFeed{client: client, feedURL: feedURL, logger: log}
}

// FetchValuations returns feed entries with a positive valuation and a
// parseable date.
func (v *ValuationFeed) FetchValuations(ctx context.Context) ([]ValuationUpdate, error) {
	if v.feedURL == "" {
		v.logger.Debug("no valuation feed configured")
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.feedURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := v.client.Do(req)
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

	var updates []ValuationUpdate
	if err := json.Unmarshal(body, &updates); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	filtered := updates[:0]
	for _, u := range updates {
		if u.CompanyName == "" || u.CurrentValuation <= 0 {
			continue
		}
		if _, parseErr := time.Parse("2006-01-02", u.ValuationDate); parseErr != nil {
			continue
		}
		filtered = append(filtered, u)
	}
	return filtered, nil
}
