package models

import "time"

// Status is the lifecycle state of a conversion record.
// Transitions run forward only: pending -> processing -> completed|failed.
// A terminal state may be re-entered by a duplicate delivery or restarted
// by a genuine re-upload of the same record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ConversionRecord is the per-file status row keyed by (UserID, RecordID).
// Optional fields are pointers so that merges never clobber columns the
// current transition does not own.
type ConversionRecord struct {
	UserID   string `json:"userId"`
	RecordID string `json:"recordId"`

	Status           Status     `json:"status"`
	ConvertedPath    *string    `json:"convertedPath,omitempty"`
	ProcessingTimeMs *int64     `json:"processingTimeMs,omitempty"`
	ErrorMessage     *string    `json:"errorMessage,omitempty"`
	ConvertedAt      *time.Time `json:"convertedAt,omitempty"`
	LastUpdated      time.Time  `json:"lastUpdated"`
}

// StatusUpdate is a partial record write. Only non-nil fields are merged
// into the stored row.
type StatusUpdate struct {
	Status           Status
	ConvertedPath    *string
	ProcessingTimeMs *int64
	ErrorMessage     *string
}

// ConversionOutcome is the transient result of one engine invocation.
// OutputBytes is non-nil iff Success; ProcessingTimeMs is always measured.
type ConversionOutcome struct {
	Success          bool
	OutputBytes      []byte
	ErrorMessage     string
	ProcessingTimeMs int64
}
