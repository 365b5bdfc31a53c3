package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"courtbridge/internal/platform/metrics"
	"courtbridge/pkg/requestcontext"
)

// Publisher accepts audit events from gateway code and hands them to the
// worker through a buffered inbox. Emission never blocks the failing call
// path: when the inbox is full the event is dropped and logged instead.
type Publisher struct {
	inbox   chan<- Event
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewPublisher(inbox chan<- Event, logger *slog.Logger, m *metrics.Metrics) *Publisher {
	return &Publisher{inbox: inbox, logger: logger, metrics: m}
}

// ReportFailure stamps and enqueues one event.
func (p *Publisher) ReportFailure(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		// Request-scoped time when available, so every event from one request
		// carries the same timestamp.
		event.Timestamp = requestcontext.Now(ctx)
	}
	p.metrics.AuditEvents.Inc()

	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action,
			"case_id", event.CaseID,
		)
	}
}
