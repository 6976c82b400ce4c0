package recent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"agritrace/internal/domain"
)

const recentKey = "agritrace:recent-lookups"

// Redis keeps the recent-lookup list shared across instances. LPUSH plus
// LTRIM gives the same append-then-trim semantics as the in-memory cache.
type Redis struct {
	client *redis.Client
	bound  int64
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, bound: domain.RecentLookupBound}
}

func (r *Redis) Record(ctx context.Context, entry domain.RecentLookupEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode recent entry: %w", err)
	}
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, recentKey, payload)
	pipe.LTrim(ctx, recentKey, 0, r.bound-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record recent entry: %w", err)
	}
	return nil
}

func (r *Redis) List(ctx context.Context) ([]domain.RecentLookupEntry, error) {
	raw, err := r.client.LRange(ctx, recentKey, 0, r.bound-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list recent entries: %w", err)
	}
	entries := make([]domain.RecentLookupEntry, 0, len(raw))
	for _, item := range raw {
		var entry domain.RecentLookupEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			// Skip undecodable entries instead of failing the whole view.
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
