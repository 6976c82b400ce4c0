package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agritrace/pkg/requestcontext"
)

type captureSink struct {
	events []Event
	err    error
}

func (s *captureSink) Publish(_ context.Context, event Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func TestRecorderWritesStoreAndSink(t *testing.T) {
	store := NewInMemoryEventStore()
	sink := &captureSink{}
	rec := NewRecorder(store, sink, nil)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	rec.Record(ctx, EventProductValidated, "admin-1", "PROD-001", map[string]string{
		"attestationId": "0xabc",
	})

	stored, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, EventProductValidated, stored[0].Name)
	assert.Equal(t, "admin-1", stored[0].AdminID)
	assert.Equal(t, "PROD-001", stored[0].SubjectID)
	assert.Equal(t, "0xabc", stored[0].Detail["attestationId"])
	assert.Equal(t, now, stored[0].Timestamp)
	assert.NotEmpty(t, stored[0].ID)

	require.Len(t, sink.events, 1)
	assert.Equal(t, stored[0].ID, sink.events[0].ID)
}

func TestRecorderSinkFailureDoesNotPanicOrDropStore(t *testing.T) {
	store := NewInMemoryEventStore()
	sink := &captureSink{err: errors.New("broker down")}
	rec := NewRecorder(store, sink, nil)

	rec.Record(context.Background(), EventActorApproved, "admin-1", "actor-1", nil)

	stored, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRecorderNilIsNoOp(t *testing.T) {
	var rec *Recorder
	rec.Record(context.Background(), EventActorRejected, "admin-1", "actor-1", nil)
}

func TestInMemoryEventStoreListNewestFirstWithLimit(t *testing.T) {
	store := NewInMemoryEventStore()
	ctx := context.Background()

	for _, name := range []string{EventActorApproved, EventProductValidated, EventProductDeleted} {
		require.NoError(t, store.Insert(ctx, Event{ID: name, Name: name}))
	}

	events, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventProductDeleted, events[0].Name)
	assert.Equal(t, EventProductValidated, events[1].Name)
}
