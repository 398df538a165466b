// Package models defines the pipeline's persistent entities and sentinel errors.
package models

import (
	"time"

	"github.com/lib/pq"
)

// Startup is the canonical company record keyed by normalized name.
// Collectors merge into it non-destructively; only funding-authoritative
// sources may overwrite funding fields.
type Startup struct {
	ID               string     `db:"id" json:"id"`
	Name             string     `db:"name" json:"name"`
	NameNormalized   string     `db:"name_normalized" json:"name_normalized"`
	Description      *string    `db:"description" json:"description,omitempty"`
	WebsiteURL       *string    `db:"website_url" json:"website_url,omitempty"`
	FoundedDate      *time.Time `db:"founded_date" json:"founded_date,omitempty"`
	FundingAmount    *int64     `db:"funding_amount" json:"funding_amount,omitempty"`
	FundingStage     *string    `db:"funding_stage" json:"funding_stage,omitempty"`
	CurrentValuation *int64     `db:"current_valuation" json:"current_valuation,omitempty"`
	ValuationDate    *time.Time `db:"valuation_date" json:"valuation_date,omitempty"`
	EmployeeCount    *int       `db:"employee_count" json:"employee_count,omitempty"`
	Location         *string    `db:"location" json:"location,omitempty"`
	Industry         *string    `db:"industry" json:"industry,omitempty"`
	Tags             pq.StringArray `db:"tags" json:"tags,omitempty"`
	GithubURL        *string    `db:"github_url" json:"github_url,omitempty"`
	ProductHuntURL   *string    `db:"product_hunt_url" json:"product_hunt_url,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// HasOnlinePresence reports whether any verifiable profile link is present.
func (s *Startup) HasOnlinePresence() bool {
	return notBlank(s.WebsiteURL) || notBlank(s.GithubURL) || notBlank(s.ProductHuntURL)
}

func notBlank(p *string) bool {
	return p != nil && *p != ""
}
