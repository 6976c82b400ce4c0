package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"agritrace/pkg/requestcontext"
)

// Sink receives audit events for delivery outside the process.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Recorder writes audit events to the store and forwards them to an
// optional sink. Recording failures are logged, never returned: an
// audit problem must not fail the action being audited.
type Recorder struct {
	store  EventStore
	sink   Sink
	logger *slog.Logger
}

func NewRecorder(store EventStore, sink Sink, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, sink: sink, logger: logger}
}

// Record captures a single administrative action. Nil recorders are
// no-ops so callers can skip wiring audit in tests.
func (r *Recorder) Record(ctx context.Context, name, adminID, subjectID string, detail map[string]string) {
	if r == nil {
		return
	}

	event := Event{
		ID:        uuid.New().String(),
		Name:      name,
		AdminID:   adminID,
		SubjectID: subjectID,
		Detail:    detail,
		Timestamp: requestcontext.Now(ctx),
	}

	if err := r.store.Insert(ctx, event); err != nil {
		r.log(ctx, "audit store insert failed", event, err)
	}
	if r.sink != nil {
		if err := r.sink.Publish(ctx, event); err != nil {
			r.log(ctx, "audit publish failed", event, err)
		}
	}
}

func (r *Recorder) log(ctx context.Context, msg string, event Event, err error) {
	if r.logger == nil {
		return
	}
	r.logger.WarnContext(ctx, msg,
		slog.String("event", event.Name),
		slog.String("subject_id", event.SubjectID),
		slog.Any("error", err),
	)
}
