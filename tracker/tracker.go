// Package tracker manages the conversion lifecycle record. Writes are
// best-effort: the status record is a side channel, and a store outage must
// never fail an invocation whose artifact may already be correct.
package tracker

import (
	"context"

	"github.com/rs/zerolog"

	"convertstudio/models"
)

// RecordStore merges partial status updates into the record keyed by
// (userID, recordID). The store is expected to be concurrent-safe;
// last-write-wins on the timestamp is acceptable here.
type RecordStore interface {
	Merge(ctx context.Context, userID, recordID string, update models.StatusUpdate) error
}

// Mirror is an optional fast read path (e.g. a Redis hash) kept in sync
// with the record store on a best-effort basis.
type Mirror interface {
	Set(ctx context.Context, userID, recordID string, update models.StatusUpdate) error
}

// Tracker owns all writes to ConversionRecords.
type Tracker struct {
	store  RecordStore
	mirror Mirror
	log    zerolog.Logger
}

// New builds a Tracker. mirror may be nil.
func New(store RecordStore, mirror Mirror, log zerolog.Logger) *Tracker {
	return &Tracker{store: store, mirror: mirror, log: log}
}

// SetStatus merges a status transition into the record. It is a no-op when
// the classification yielded no record key (ephemeral-storage events), and
// it swallows store and mirror failures after logging them.
func (t *Tracker) SetStatus(ctx context.Context, userID, recordID string, update models.StatusUpdate) {
	if userID == "" || recordID == "" {
		return
	}

	log := t.log.With().
		Str("userId", userID).
		Str("recordId", recordID).
		Str("status", string(update.Status)).
		Logger()

	if err := t.store.Merge(ctx, userID, recordID, update); err != nil {
		log.Warn().Err(err).Msg("status merge failed, continuing")
	} else {
		log.Info().Msg("status updated")
	}

	if t.mirror == nil {
		return
	}
	if err := t.mirror.Set(ctx, userID, recordID, update); err != nil {
		log.Warn().Err(err).Msg("status mirror update failed, continuing")
	}
}
