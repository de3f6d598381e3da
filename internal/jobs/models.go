package jobs

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Job is one submission to the processing service.
type Job struct {
	ID                 string            `json:"id"`
	SessionID          string            `json:"session_id"`
	SyncTimestamp      time.Time         `json:"sync_timestamp"`
	Lang               string            `json:"lang"`
	InterpolationLevel int               `json:"interpolation_level"`
	Overlays           map[string]string `json:"overlays"`
	Status             Status            `json:"status"`
	DownloadURL        string            `json:"download_url,omitempty"`
	Message            string            `json:"message,omitempty"`
	Logs               []string          `json:"logs"`
	CreatedAt          time.Time         `json:"created_at"`
	FinishedAt         *time.Time        `json:"finished_at,omitempty"`
}

// Outcome is the terminal state of a job.
type Outcome struct {
	Status      Status
	DownloadURL string
	Message     string
	Logs        []string
}
