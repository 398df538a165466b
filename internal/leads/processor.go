package leads

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/foundersignal/pipeline/internal/logger"
	"github.com/foundersignal/pipeline/internal/models"
)

// Lead is one raw candidate ready for entity resolution.
type Lead struct {
	Name           string
	Description    string
	WebsiteURL     string
	GithubURL      string
	ProductHuntURL string
	Location       string
	Industry       string
	Tags           []string
	FoundedDate    *time.Time
	FundingAmount  *int64
	FundingStage   *string
	EmployeeCount  *int

	SourceType models.SourceType
	SourceURL  string
	RawData    json.RawMessage

	// FundingAuthoritative marks leads from dedicated funding collectors,
	// whose funding fields overwrite existing values.
	FundingAuthoritative bool
}

// StartupStore is the subset of the startup repository the processor needs.
type StartupStore interface {
	Upsert(ctx context.Context, s *models.Startup, fundingAuthoritative bool) (*models.Startup, error)
}

// EvidenceStore is the subset of the source repository the processor needs.
type EvidenceStore interface {
	Insert(ctx context.Context, rec *models.DataSourceRecord) (*models.DataSourceRecord, error)
}

// Processor converts leads into canonical startups plus evidence records.
type Processor struct {
	startups StartupStore
	evidence EvidenceStore
	logger   logger.Logger
}

// NewProcessor creates a lead processor.
func NewProcessor(startups StartupStore, evidence EvidenceStore, log logger.Logger) *Processor {
	return &Processor{startups: startups, evidence: evidence, logger: log}
}

// ProcessLead normalizes and validates the lead's name, upserts the startup
// and always appends one evidence record carrying the raw payload verbatim.
// Invalid names return ErrInvalidName, which callers count as a skip rather
// than a failure. The database's unique constraint on the normalized name is
// the guard against concurrent duplicate creation.
func (p *Processor) ProcessLead(ctx context.Context, lead Lead) (*models.Startup, error) {
	display, key := NormalizeName(lead.Name)
	if !ValidName(display) {
		p.logger.Debug("skipping lead with invalid name", logger.String("name", lead.Name))
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidName, lead.Name)
	}

	startup := &models.Startup{
		Name:           display,
		NameNormalized: key,
		Description:    optional(lead.Description),
		WebsiteURL:     optional(lead.WebsiteURL),
		GithubURL:      optional(lead.GithubURL),
		ProductHuntURL: optional(lead.ProductHuntURL),
		Location:       optional(lead.Location),
		Industry:       optional(lead.Industry),
		Tags:           pq.StringArray(lead.Tags),
		FoundedDate:    lead.FoundedDate,
		FundingAmount:  lead.FundingAmount,
		FundingStage:   lead.FundingStage,
		EmployeeCount:  lead.EmployeeCount,
	}

	resolved, err := p.startups.Upsert(ctx, startup, lead.FundingAuthoritative)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve startup %q: %w", display, err)
	}

	_, err = p.evidence.Insert(ctx, &models.DataSourceRecord{
		StartupID:  resolved.ID,
		SourceType: lead.SourceType,
		SourceURL:  optional(lead.SourceURL),
		RawData:    lead.RawData,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to attach evidence for %q: %w", display, err)
	}

	return resolved, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
