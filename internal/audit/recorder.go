package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"medledger/internal/platform/metrics"
	"medledger/pkg/requestcontext"
)

// Sink receives a copy of every recorded event, e.g. a Kafka topic feeding a
// SIEM. Sinks are best-effort; the store is the system of record.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Recorder is the single write path for audit events. An append failure is
// surfaced to operators (error log + counter) but never propagated: blocking
// a business operation on audit-write success would couple availability of
// the whole system to the audit store.
type Recorder struct {
	store   Store
	sinks   []Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewRecorder(store Store, logger *slog.Logger, m *metrics.Metrics, sinks ...Sink) *Recorder {
	return &Recorder{store: store, sinks: sinks, logger: logger, metrics: m}
}

// Record fills in the event ID and timestamp, persists the event, and fans it
// out to sinks. Call only after the business operation it documents has
// succeeded.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}

	if err := r.store.Append(ctx, event); err != nil {
		r.logger.ErrorContext(ctx, "audit append failed",
			"error", err,
			"action", string(event.Action),
			"performed_by", event.PerformedBy.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		if r.metrics != nil {
			r.metrics.AuditAppendFailures.Inc()
		}
	}

	for _, sink := range r.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			r.logger.WarnContext(ctx, "audit sink publish failed",
				"error", err,
				"action", string(event.Action),
			)
		}
	}
}
