package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convertstudio/models"
)

type mergeCall struct {
	userID, recordID string
	update           models.StatusUpdate
}

type fakeStore struct {
	calls []mergeCall
	err   error
}

func (f *fakeStore) Merge(ctx context.Context, userID, recordID string, update models.StatusUpdate) error {
	f.calls = append(f.calls, mergeCall{userID, recordID, update})
	return f.err
}

type fakeMirror struct {
	calls int
	err   error
}

func (f *fakeMirror) Set(ctx context.Context, userID, recordID string, update models.StatusUpdate) error {
	f.calls++
	return f.err
}

func TestSetStatusMergesUpdate(t *testing.T) {
	store := &fakeStore{}
	mirror := &fakeMirror{}
	tr := New(store, mirror, zerolog.Nop())

	path := "files/u1/report.docx"
	tr.SetStatus(context.Background(), "u1", "rec1", models.StatusUpdate{
		Status:        models.StatusCompleted,
		ConvertedPath: &path,
	})

	require.Len(t, store.calls, 1)
	assert.Equal(t, "u1", store.calls[0].userID)
	assert.Equal(t, "rec1", store.calls[0].recordID)
	assert.Equal(t, models.StatusCompleted, store.calls[0].update.Status)
	assert.Equal(t, 1, mirror.calls)
}

func TestSetStatusSkipsWithoutRecordKey(t *testing.T) {
	store := &fakeStore{}
	tr := New(store, nil, zerolog.Nop())

	// Ephemeral-storage events classify without a record key.
	tr.SetStatus(context.Background(), "", "", models.StatusUpdate{Status: models.StatusProcessing})
	tr.SetStatus(context.Background(), "u1", "", models.StatusUpdate{Status: models.StatusProcessing})
	tr.SetStatus(context.Background(), "", "rec1", models.StatusUpdate{Status: models.StatusProcessing})

	assert.Empty(t, store.calls)
}

func TestSetStatusSwallowsStoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("store unreachable")}
	mirror := &fakeMirror{err: errors.New("redis down")}
	tr := New(store, mirror, zerolog.Nop())

	// Must not panic or propagate; the artifact may already be correct.
	tr.SetStatus(context.Background(), "u1", "rec1", models.StatusUpdate{Status: models.StatusFailed})

	assert.Len(t, store.calls, 1)
	assert.Equal(t, 1, mirror.calls, "mirror still attempted after store failure")
}

func TestSetStatusWithoutMirror(t *testing.T) {
	store := &fakeStore{}
	tr := New(store, nil, zerolog.Nop())

	tr.SetStatus(context.Background(), "u1", "rec1", models.StatusUpdate{Status: models.StatusProcessing})
	assert.Len(t, store.calls, 1)
}
