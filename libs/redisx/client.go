package redisx

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// New returns a client for addr, or nil when addr is empty. Callers treat
// a nil client as "redis disabled" and fall back to local alternatives.
func New(addr string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr})
}

func ReadyCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if rdb == nil {
			return errors.New("redis not configured")
		}
		return rdb.Ping(ctx).Err()
	}
}
