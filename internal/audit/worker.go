package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from a channel and persists them to every
// configured store. A failing store is logged and skipped; the audit trail
// must never take the gateway down with it.
type Worker struct {
	stores []Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(inbox <-chan Event, logger *slog.Logger, stores ...Store) *Worker {
	return &Worker{stores: stores, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			for _, store := range w.stores {
				if err := store.Append(ctx, event); err != nil {
					w.logger.ErrorContext(ctx, "audit store append failed",
						"action", event.Action,
						"case_id", event.CaseID,
						"error", err,
					)
				}
			}
		}
	}
}
