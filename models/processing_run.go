package models

import "time"

// ProcessingRun is a row in the runs table, one per process or auto invocation.
type ProcessingRun struct {
	RunID        string     `json:"run_id"`
	VideoID      string     `json:"video_id"`
	Trigger      string     `json:"trigger"`
	Status       string     `json:"status"` // PROCESSING, COMPLETED, FAILED
	ReelCount    *int       `json:"reel_count,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

const (
	RunStatusProcessing = "PROCESSING"
	RunStatusCompleted  = "COMPLETED"
	RunStatusFailed     = "FAILED"
)
