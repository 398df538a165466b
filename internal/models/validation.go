package models

// Verdict is the validator's ternary outcome.
type Verdict string

const (
	VerdictApproved    Verdict = "approved"
	VerdictNeedsReview Verdict = "needs_review"
	VerdictRejected    Verdict = "rejected"
)

// ValidationResult is computed fresh on each validation pass and never
// persisted as its own entity.
type ValidationResult struct {
	IsValid    bool     `json:"is_valid"`
	Confidence float64  `json:"confidence"`
	Verdict    Verdict  `json:"verdict"`
	Issues     []string `json:"issues"`
	// CrossRefHits records corroborating headlines found during
	// cross-reference searches, kept for audit.
	CrossRefHits []string `json:"cross_ref_hits,omitempty"`
}
