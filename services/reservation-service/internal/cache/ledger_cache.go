// Package cache puts a short-TTL redis read-through in front of the
// per-date ledger reads that back every availability query. Writes
// invalidate the date key, so a viewer sees their own booking on the
// next refresh.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arman-petrosyan/slotbook/services/reservation-service/internal/model"
)

const keyPrefix = "ledger:date:"

const DefaultTTL = 5 * time.Second

type Lister interface {
	ListByDate(ctx context.Context, date string) ([]model.Reservation, error)
}

type LedgerCache struct {
	rdb    *redis.Client
	source Lister
	ttl    time.Duration
	logger *slog.Logger
}

func NewLedgerCache(rdb *redis.Client, source Lister, ttl time.Duration, logger *slog.Logger) *LedgerCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LedgerCache{rdb: rdb, source: source, ttl: ttl, logger: logger}
}

// ListByDate serves from redis when possible and falls back to the
// source on any cache failure. The cache is an optimization only; the
// ledger stays the single source of truth.
func (c *LedgerCache) ListByDate(ctx context.Context, date string) ([]model.Reservation, error) {
	if c.rdb == nil {
		return c.source.ListByDate(ctx, date)
	}

	key := keyPrefix + date
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var recs []model.Reservation
		if err := json.Unmarshal(raw, &recs); err == nil {
			return recs, nil
		}
		c.logger.Warn("dropping undecodable cache entry", "key", key)
		_ = c.rdb.Del(ctx, key).Err()
	} else if err != redis.Nil {
		c.logger.Warn("cache read failed", "key", key, "err", err)
	}

	recs, err := c.source.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(recs); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", "key", key, "err", err)
		}
	}
	return recs, nil
}

func (c *LedgerCache) Invalidate(ctx context.Context, date string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, keyPrefix+date).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", "date", date, "err", err)
	}
}
