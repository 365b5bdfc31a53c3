package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"courtbridge/internal/audit"
)

// Store persists audit events to PostgreSQL. The table is append-only;
// nothing in the gateway ever updates or deletes a row.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id          UUID PRIMARY KEY,
	occurred_at TIMESTAMPTZ NOT NULL,
	action      TEXT NOT NULL,
	case_id     TEXT NOT NULL,
	actor_id    TEXT NOT NULL DEFAULT '',
	institution TEXT NOT NULL DEFAULT '',
	file_id     TEXT NOT NULL DEFAULT '',
	file_name   TEXT NOT NULL DEFAULT '',
	reason      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_case_id_idx ON audit_events (case_id);
`

// Migrate creates the audit table when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate audit_events: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_events
			(id, occurred_at, action, case_id, actor_id, institution, file_id, file_name, reason)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID, event.Timestamp, event.Action, event.CaseID,
		event.ActorID, event.Institution, event.FileID, event.FileName, event.Reason,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListByCase returns events recorded for one case, oldest first.
func (s *Store) ListByCase(ctx context.Context, caseID string) ([]audit.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, occurred_at, action, case_id, actor_id, institution, file_id, file_name, reason
		 FROM audit_events WHERE case_id = $1 ORDER BY occurred_at`,
		caseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var e audit.Event
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Action, &e.CaseID,
			&e.ActorID, &e.Institution, &e.FileID, &e.FileName, &e.Reason); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
