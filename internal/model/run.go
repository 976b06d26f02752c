package model

import "time"

// JobStatus is the local view of a segment's upload job lifecycle. The first
// three states are transitional; the last three are terminal.
type JobStatus string

const (
	JobStatusCreated         JobStatus = "created"
	JobStatusOperationsAdded JobStatus = "operations_added"
	JobStatusRunning         JobStatus = "running"
	JobStatusSuccess         JobStatus = "success"
	JobStatusFailed          JobStatus = "failed"
	JobStatusTimedOut        JobStatus = "timed_out"
)

// Terminal reports whether the status ends a job's lifecycle.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusSuccess, JobStatusFailed, JobStatusTimedOut:
		return true
	}
	return false
}

// SegmentResult is the outcome of one segment's upload attempt.
type SegmentResult struct {
	Key           ListKey       `json:"key"`
	ListID        string        `json:"list_id"`
	JobResource   string        `json:"job_resource,omitempty"`
	Status        JobStatus     `json:"status"`
	RowsAttempted int           `json:"rows_attempted"`
	RowsConfirmed int           `json:"rows_confirmed"`
	Duration      time.Duration `json:"duration"`
	Error         string        `json:"error,omitempty"`
}

// Succeeded reports whether the segment's job reached SUCCESS.
func (r SegmentResult) Succeeded() bool {
	return r.Status == JobStatusSuccess
}

// IdentifierCounts tallies how many of each identifier kind the normalizer
// produced across a run.
type IdentifierCounts struct {
	Emails     int `json:"emails"`
	Phones     int `json:"phones"`
	Addresses  int `json:"addresses"`
	RowsWithID int `json:"rows_with_id"`
}

// RunSummary aggregates a whole pipeline invocation.
type RunSummary struct {
	RunID       string           `json:"run_id"`
	Mode        UploadMode       `json:"mode"`
	BrandFilter BrandCode        `json:"brand_filter,omitempty"`
	SegFilter   SegmentName      `json:"segment_filter,omitempty"`
	DryRun      bool             `json:"dry_run,omitempty"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
	RowsFetched int              `json:"rows_fetched"`
	Counts      IdentifierCounts `json:"counts"`
	Segments    []SegmentResult  `json:"segments"`
}

// Succeeded reports whether every attempted segment succeeded. A run with no
// attempted segments succeeds vacuously.
func (s *RunSummary) Succeeded() bool {
	for _, r := range s.Segments {
		if !r.Succeeded() {
			return false
		}
	}
	return true
}

// RunRecord is one append-only tracking row, written after each segment's
// upload attempt regardless of outcome.
type RunRecord struct {
	ID            string      `json:"id"`
	RunID         string      `json:"run_id"`
	Brand         BrandCode   `json:"brand"`
	Segment       SegmentName `json:"segment"`
	ListID        string      `json:"list_id"`
	Description   string      `json:"description"`
	RowsAttempted int         `json:"rows_attempted"`
	RowsConfirmed int         `json:"rows_confirmed"`
	Success       bool        `json:"success"`
	CreatedAt     time.Time   `json:"created_at"`
}
