package police

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ListingCache keeps validated document listings in Redis for a short TTL so
// the two read views derived from the same upstream endpoint do not hammer
// the registry. The TTL also enforces retention for sensitive registry data.
// A nil *ListingCache is a valid no-op cache.
type ListingCache struct {
	redis  redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewListingCache(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *ListingCache {
	if client == nil {
		return nil
	}
	return &ListingCache{redis: client, ttl: ttl, logger: logger}
}

func listingKey(caseID string) string {
	return "police:listing:" + caseID
}

// Lookup returns a cached listing. Cache failures count as misses; the
// upstream remains the source of truth.
func (c *ListingCache) Lookup(ctx context.Context, caseID string) (*documentListPayload, bool) {
	if c == nil {
		return nil, false
	}

	raw, err := c.redis.Get(ctx, listingKey(caseID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "listing cache read failed", "case_id", caseID, "error", err)
		}
		return nil, false
	}

	var payload documentListPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.logger.WarnContext(ctx, "listing cache held malformed entry", "case_id", caseID, "error", err)
		return nil, false
	}
	return &payload, true
}

// Save stores a listing under the configured TTL. Failures are logged only.
func (c *ListingCache) Save(ctx context.Context, caseID string, payload *documentListPayload) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		c.logger.WarnContext(ctx, "listing cache marshal failed", "case_id", caseID, "error", err)
		return
	}
	if err := c.redis.Set(ctx, listingKey(caseID), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "listing cache write failed", "case_id", caseID, "error", err)
	}
}
