package models

import "time"

// ConversionEvent describes one object-storage upload that may trigger a
// conversion. The path/contentType/sizeBytes fields mirror the storage
// trigger payload; ReceivedAt is stamped by the producer when the event is
// enqueued and is used only for stale-event recovery.
type ConversionEvent struct {
	Path        string    `json:"path"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	ReceivedAt  time.Time `json:"receivedAt,omitempty"`
}

// Classification is the result of inspecting an event's storage path.
// It is derived, never persisted.
type Classification struct {
	InScope            bool
	IsPermanentStorage bool
	AlreadyConverted   bool

	// UserID and RecordID are set only for well-formed permanent-storage
	// paths. RecordID is the 36-character UUID prefix of the file name.
	UserID   string
	RecordID string
}

// HasRecord reports whether the classification carries a record key, i.e.
// whether status updates apply to this event.
func (c Classification) HasRecord() bool {
	return c.UserID != "" && c.RecordID != ""
}
