package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"catalog/pkg/requestcontext"
)

var emptyDetails = json.RawMessage(`{}`)

// Observer receives the outcome of every append.
type Observer interface {
	ObserveAuditRecord(action string, ok bool)
}

// Recorder appends ledger rows synchronously but never fails the operation
// that triggered them: store and publisher errors are logged and counted.
type Recorder struct {
	store      Store
	publishers []Publisher
	logger     *slog.Logger
	observer   Observer
	tracer     trace.Tracer
	now        func() time.Time
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithPublisher adds a secondary sink that receives every persisted record.
func WithPublisher(p Publisher) Option {
	return func(r *Recorder) {
		if p != nil {
			r.publishers = append(r.publishers, p)
		}
	}
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(r *Recorder) {
		r.observer = o
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRecorder creates a Recorder over store.
func NewRecorder(store Store, logger *slog.Logger, opts ...Option) *Recorder {
	r := &Recorder{
		store:  store,
		logger: logger,
		tracer: otel.Tracer("catalog/audit"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends one ledger row for e and returns its id, or 0 when the write
// failed. The write ignores cancellation of ctx so a client disconnect cannot
// drop the record of an action that already happened.
func (r *Recorder) Record(ctx context.Context, e Entry) int64 {
	ctx = context.WithoutCancel(ctx)
	ctx, span := r.tracer.Start(ctx, "audit.Record", trace.WithAttributes(
		attribute.String("audit.action", e.Action),
		attribute.String("audit.entity_type", e.EntityType),
		attribute.Int64("audit.actor_id", e.ActorID),
	))
	defer span.End()

	rec := &Record{
		ActorID:    e.ActorID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Details:    r.marshalDetails(ctx, e),
		RequestID:  requestcontext.RequestID(ctx),
		CreatedAt:  r.timestamp(),
	}

	id, err := r.store.Append(ctx, rec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "audit append failed")
		r.observe(e.Action, false)
		r.logger.ErrorContext(ctx, "failed to record audit entry",
			"action", e.Action,
			"entity_type", e.EntityType,
			"actor_id", e.ActorID,
			"request_id", rec.RequestID,
			"error", err,
		)
		return 0
	}
	rec.ID = id
	r.observe(e.Action, true)

	for _, p := range r.publishers {
		if err := p.Publish(ctx, rec); err != nil {
			r.logger.WarnContext(ctx, "failed to publish audit record",
				"audit_id", id,
				"action", e.Action,
				"request_id", rec.RequestID,
				"error", err,
			)
		}
	}
	return id
}

func (r *Recorder) marshalDetails(ctx context.Context, e Entry) json.RawMessage {
	switch d := e.Details.(type) {
	case nil:
		return emptyDetails
	case json.RawMessage:
		if len(d) == 0 || !json.Valid(d) {
			return emptyDetails
		}
		return d
	}
	b, err := json.Marshal(e.Details)
	if err != nil {
		r.logger.WarnContext(ctx, "audit details not serializable",
			"action", e.Action,
			"error", err,
		)
		return emptyDetails
	}
	return b
}

// timestamp is truncated to the precision Postgres stores, so records read
// back from either store compare equal.
func (r *Recorder) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

func (r *Recorder) observe(action string, ok bool) {
	if r.observer != nil {
		r.observer.ObserveAuditRecord(action, ok)
	}
}
