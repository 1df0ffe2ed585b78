package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Invalidator drops cached proposal-list responses after a write batch. The
// cache itself is owned by the serving layer; this side only signals.
type Invalidator struct {
	client *redis.Client
	log    *slog.Logger
}

func NewInvalidator(addr, password string, db int, log *slog.Logger) *Invalidator {
	return &Invalidator{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		log:    log.With("component", "CacheInvalidator"),
	}
}

// InvalidateProposals deletes every proposal-list key for the chain.
func (i *Invalidator) InvalidateProposals(ctx context.Context, chainID uint64) error {
	pattern := fmt.Sprintf("proposals:%d:*", chainID)
	iter := i.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := i.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cache keys: %w", err)
	}
	i.log.Debug("invalidated proposal cache", "chain", chainID, "keys", len(keys))
	return nil
}

// NopInvalidator is used when no redis address is configured.
type NopInvalidator struct{}

func (NopInvalidator) InvalidateProposals(context.Context, uint64) error { return nil }
