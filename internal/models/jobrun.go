package models

import (
	"encoding/json"
	"time"
)

// JobStatus is the lifecycle state of one orchestrated stage run.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// JobRun is the operational ledger row for one stage invocation.
type JobRun struct {
	ID               string          `db:"id" json:"id"`
	JobName          string          `db:"job_name" json:"job_name"`
	Status           JobStatus       `db:"status" json:"status"`
	StartedAt        time.Time       `db:"started_at" json:"started_at"`
	CompletedAt      *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
	RecordsProcessed int             `db:"records_processed" json:"records_processed"`
	Metadata         json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	ErrorMessage     *string         `db:"error_message" json:"error_message,omitempty"`
}
