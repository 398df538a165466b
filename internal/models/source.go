package models

import (
	"encoding/json"
	"time"
)

// SourceType identifies which collector produced an evidence record.
type SourceType string

const (
	SourceProductHunt      SourceType = "product_hunt"
	SourceHackerNews       SourceType = "hacker_news"
	SourceGitHub           SourceType = "github"
	SourceRSS              SourceType = "rss"
	SourceScrape           SourceType = "scrape"
	SourceFunding          SourceType = "funding_announcement"
	SourceFundingDetection SourceType = "funding_detection"
	SourceValuation        SourceType = "valuation"
)

// DataSourceRecord is one immutable observation tying a source item to a
// startup. Append-only; purged by the maintenance sweep after retention.
type DataSourceRecord struct {
	ID          string          `db:"id" json:"id"`
	StartupID   string          `db:"startup_id" json:"startup_id"`
	SourceType  SourceType      `db:"source_type" json:"source_type"`
	SourceURL   *string         `db:"source_url" json:"source_url,omitempty"`
	RawData     json.RawMessage `db:"raw_data" json:"raw_data"`
	ExtractedAt time.Time       `db:"extracted_at" json:"extracted_at"`
}
