package models

import "time"

// JobStatus represents the processing status of a conversion batch.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusComplete   JobStatus = "complete"
)

// FileState tracks one file inside a batch job.
type FileState string

const (
	FileStateQueued     FileState = "queued"
	FileStateConverting FileState = "converting"
	FileStateSuccess    FileState = "success"
	FileStateError      FileState = "error"
)

// BatchJob represents a conversion batch as seen by the job tracker.
type BatchJob struct {
	ID          string     `json:"id"`
	Status      JobStatus  `json:"status"`
	Progress    float64    `json:"progress"` // 0-100
	Files       []JobFile  `json:"files"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// JobFile is the per-file view of a batch job.
type JobFile struct {
	Name  string    `json:"name"`
	Size  int64     `json:"size"`
	State FileState `json:"state"`
	Error string    `json:"error,omitempty"`
}
