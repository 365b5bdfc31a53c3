package audit

import "context"

// Store persists audit events. Implementations are interface-driven so the
// worker can fan out to memory, Postgres, and Kafka without rewiring the
// gateway code.
type Store interface {
	Append(ctx context.Context, event Event) error
}
