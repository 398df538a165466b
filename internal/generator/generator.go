package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/foundersignal/pipeline/internal/config"
	"github.com/foundersignal/pipeline/internal/logger"
	"github.com/foundersignal/pipeline/internal/models"
)

const (
	analysisSystemPrompt = `You are an expert startup analyst and content writer. Analyze the provided data about a startup and determine if it represents a success story worth featuring. Be objective and look for concrete evidence of success, growth, funding, or significant milestones.

Your response must be valid JSON with this exact structure:
{
  "isSuccessStory": boolean,
  "confidence": number (0-1),
  "title": "string",
  "summary": "string (100-200 words)",
  "content": "string (500-1500 words)",
  "tags": ["string"],
  "storyType": "success" | "funding" | "milestone" | "pivot",
  "keyMetrics": {
    "funding": number | null,
    "userGrowth": number | null,
    "revenue": number | null
  }
}`

	fundingSystemPrompt = `You are a startup journalist. Write a short, factual article about a funding round. Stick to the facts provided, no speculation.`

	maxTitleLen   = 200
	maxSummaryLen = 500
	maxContentLen = 5000
	maxTags       = 10
)

// Failure reasons attached to GenerationFailure.
const (
	ReasonTextService = "text_service"
	ReasonBadResponse = "bad_response"
)

// GenerationFailure explains why analysis fell back to the deterministic result.
type GenerationFailure struct {
	Reason string
	Err    error
}

func (e *GenerationFailure) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Reason, e.Err)
}

func (e *GenerationFailure) Unwrap() error { return e.Err }

// EvidenceSection is one labeled block of raw source data for the prompt.
type EvidenceSection struct {
	Label   string
	Payload json.RawMessage
}

// AnalysisRequest bundles a company's evidence for analysis.
type AnalysisRequest struct {
	CompanyName string
	Sections    []EvidenceSection
}

// KeyMetrics carries whatever numbers the model extracted, nil when absent.
type KeyMetrics struct {
	Funding    *float64 `json:"funding"`
	UserGrowth *float64 `json:"userGrowth"`
	Revenue    *float64 `json:"revenue"`
}

// AnalysisResult is the sanitized outcome of a story analysis.
type AnalysisResult struct {
	IsSuccessStory bool             `json:"isSuccessStory"`
	Confidence     float64          `json:"confidence"`
	Title          string           `json:"title"`
	Summary        string           `json:"summary"`
	Content        string           `json:"content"`
	Tags           []string         `json:"tags"`
	StoryType      models.StoryType `json:"storyType"`
	KeyMetrics     KeyMetrics       `json:"keyMetrics"`

	// Fallback is set when the text service failed and the deterministic
	// placeholder result was returned instead.
	Fallback bool `json:"-"`
}

// RateGate blocks until the named resource has capacity.
type RateGate interface {
	WaitForAvailability(ctx context.Context, resource, identifier string, maxAttempts int) error
}

// Generator analyzes evidence bundles and writes draft stories.
type Generator struct {
	text       TextService
	gate       RateGate
	minFunding int64
	logger     logger.Logger
}

// NewGenerator creates a generator. gate may be nil to disable throttling.
func NewGenerator(text TextService, gate RateGate, cfg config.GeneratorConfig, log logger.Logger) *Generator {
	minFunding := cfg.MinFundingAmount
	if minFunding <= 0 {
		minFunding = 500_000
	}
	return &Generator{
		text:       text,
		gate:       gate,
		minFunding: minFunding,
		logger:     log,
	}
}

// AnalyzeStartup asks the text service whether the evidence describes a
// success story. Any failure yields the deterministic fallback result with
// Fallback set, never an error, so one bad analysis cannot abort a batch.
func (g *Generator) AnalyzeStartup(ctx context.Context, req AnalysisRequest) *AnalysisResult {
	if err := g.acquire(ctx); err != nil {
		return g.fallback(req.CompanyName, &GenerationFailure{Reason: ReasonTextService, Err: err})
	}

	raw, err := g.text.Generate(ctx, analysisSystemPrompt, buildAnalysisPrompt(req), 0.7, 2000)
	if err != nil {
		return g.fallback(req.CompanyName, &GenerationFailure{Reason: ReasonTextService, Err: err})
	}

	var result AnalysisResult
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &result); err != nil {
		return g.fallback(req.CompanyName, &GenerationFailure{Reason: ReasonBadResponse, Err: err})
	}

	sanitize(&result)
	return &result
}

// GenerateFundingStory writes a funding-round article. Rounds below the
// funding floor are never stories. Above it the story always stands with a
// fixed confidence, only the prose degrades when the text service fails.
func (g *Generator) GenerateFundingStory(ctx context.Context, companyName string, amount int64, stage, details string) *AnalysisResult {
	if amount < g.minFunding {
		return &AnalysisResult{
			IsSuccessStory: false,
			StoryType:      models.StoryFunding,
			Tags:           []string{},
		}
	}

	title := fmt.Sprintf("%s Raises %s in %s Funding", companyName, FormatAmount(amount), stageLabel(stage))
	summary := fmt.Sprintf("%s has raised %s in %s funding.", companyName, FormatAmount(amount), stageLabel(stage))

	result := &AnalysisResult{
		IsSuccessStory: true,
		Confidence:     0.9,
		Title:          title,
		Summary:        summary,
		StoryType:      models.StoryFunding,
		Tags:           []string{"funding", strings.ToLower(stageLabel(stage))},
	}

	prompt := fmt.Sprintf("Company: %s\nAmount raised: %s\nStage: %s\nDetails: %s\n\nWrite a 300-500 word article about this funding round.",
		companyName, FormatAmount(amount), stageLabel(stage), details)

	if err := g.acquire(ctx); err == nil {
		if prose, err := g.text.Generate(ctx, fundingSystemPrompt, prompt, 0.7, 1500); err == nil {
			result.Content = truncateRunes(strings.TrimSpace(prose), maxContentLen)
		} else {
			g.logger.Warn("funding story prose generation failed, using template",
				logger.String("company", companyName), logger.Error(err))
		}
	}
	if result.Content == "" {
		result.Content = fmt.Sprintf("%s announced it has raised %s in %s funding. %s",
			companyName, FormatAmount(amount), stageLabel(stage), details)
		result.Fallback = true
	}

	sanitize(result)
	result.IsSuccessStory = true
	result.Confidence = 0.9
	return result
}

func (g *Generator) acquire(ctx context.Context) error {
	if g.gate == nil {
		return nil
	}
	return g.gate.WaitForAvailability(ctx, "openai", "generator", 0)
}

func (g *Generator) fallback(companyName string, cause *GenerationFailure) *AnalysisResult {
	g.logger.Warn("startup analysis fell back to placeholder",
		logger.String("company", companyName), logger.Error(cause))
	return &AnalysisResult{
		IsSuccessStory: false,
		Confidence:     0,
		Title:          fmt.Sprintf("Analysis of %s", companyName),
		Summary:        "Unable to analyze startup data due to processing error.",
		Content:        "Data analysis failed. Please review manually.",
		Tags:           []string{"error", "manual-review"},
		StoryType:      models.StorySuccess,
		Fallback:       true,
	}
}

func buildAnalysisPrompt(req AnalysisRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this data about %s to determine if it represents a startup success story:\n", req.CompanyName)
	for _, section := range req.Sections {
		fmt.Fprintf(&b, "\n%s:\n%s\n", section.Label, string(section.Payload))
	}
	b.WriteString(`
Look for evidence of:
- Funding rounds or investment
- User growth or market traction
- Product launches or milestones
- Recognition or awards
- Revenue growth
- Team expansion
- Market validation

Determine if this is a genuine success story and create compelling content if it is.`)
	return b.String()
}

// sanitize clamps and truncates a model response in place so downstream
// storage never sees out-of-range values.
func sanitize(r *AnalysisResult) {
	if r.Confidence < 0 {
		r.Confidence = 0
	}
	if r.Confidence > 1 {
		r.Confidence = 1
	}
	if r.Title == "" {
		r.Title = "Untitled Story"
	}
	r.Title = truncateRunes(r.Title, maxTitleLen)
	r.Summary = truncateRunes(r.Summary, maxSummaryLen)
	r.Content = truncateRunes(r.Content, maxContentLen)
	if len(r.Tags) > maxTags {
		r.Tags = r.Tags[:maxTags]
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if !models.ValidStoryType(r.StoryType) {
		r.StoryType = models.StorySuccess
	}
}

// stripCodeFence removes a surrounding markdown code fence some models wrap
// JSON responses in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// FormatAmount renders a dollar amount the way headlines do: $500K, $2M, $1.5B.
func FormatAmount(amount int64) string {
	format := func(v float64, unit string) string {
		if v == float64(int64(v)) {
			return fmt.Sprintf("$%d%s", int64(v), unit)
		}
		return fmt.Sprintf("$%.1f%s", v, unit)
	}
	switch {
	case amount >= 1_000_000_000:
		return format(float64(amount)/1_000_000_000, "B")
	case amount >= 1_000_000:
		return format(float64(amount)/1_000_000, "M")
	case amount >= 1_000:
		return format(float64(amount)/1_000, "K")
	default:
		return fmt.Sprintf("$%d", amount)
	}
}

func stageLabel(stage string) string {
	stage = strings.TrimSpace(stage)
	if stage == "" {
		return "Venture"
	}
	parts := strings.Split(strings.ReplaceAll(stage, "_", " "), " ")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
