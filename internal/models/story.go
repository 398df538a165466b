package models

import (
	"time"

	"github.com/lib/pq"
)

// StoryType classifies a success story.
type StoryType string

const (
	StorySuccess   StoryType = "success"
	StoryFunding   StoryType = "funding"
	StoryMilestone StoryType = "milestone"
	StoryPivot     StoryType = "pivot"
)

// ValidStoryType reports whether t is one of the closed story-type enum values.
func ValidStoryType(t StoryType) bool {
	switch t {
	case StorySuccess, StoryFunding, StoryMilestone, StoryPivot:
		return true
	}
	return false
}

// SuccessStory is the validated narrative artifact. Only non-rejected
// verdicts are ever persisted.
type SuccessStory struct {
	ID          string    `db:"id" json:"id"`
	StartupID   string    `db:"startup_id" json:"startup_id"`
	Title       string    `db:"title" json:"title"`
	Summary     string    `db:"summary" json:"summary"`
	Content     string    `db:"content" json:"content"`
	StoryType   StoryType `db:"story_type" json:"story_type"`
	Confidence  float64   `db:"confidence" json:"confidence"`
	Tags        pq.StringArray `db:"tags" json:"tags,omitempty"`
	Sources     pq.StringArray `db:"sources" json:"sources,omitempty"`
	AIGenerated bool      `db:"ai_generated" json:"ai_generated"`
	Featured    bool      `db:"featured" json:"featured"`
	ViewCount   int       `db:"view_count" json:"view_count"`
	PublishedAt time.Time `db:"published_at" json:"published_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
