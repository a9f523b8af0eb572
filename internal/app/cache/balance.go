// Package cache provides a short-lived cache in front of ledger balance
// queries so the unauthenticated balance endpoint does not hammer the RPC
// node. Cache misses and backend failures fall through to the ledger.
package cache

import (
	"context"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
)

// BalanceCache caches per-asset, per-holder balances.
type BalanceCache interface {
	GetBalance(ctx context.Context, asset, holder string) (*big.Int, bool)
	SetBalance(ctx context.Context, asset, holder string, balance *big.Int)
	Invalidate(ctx context.Context, asset, holder string)
}

// Noop disables caching. Used when no Redis address is configured.
type Noop struct{}

func (Noop) GetBalance(context.Context, string, string) (*big.Int, bool) { return nil, false }
func (Noop) SetBalance(context.Context, string, string, *big.Int)       {}
func (Noop) Invalidate(context.Context, string, string)                 {}

// Redis caches balances in Redis with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects a balance cache to the given Redis address.
func NewRedis(addr string, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &Redis{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// Ping verifies connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func balanceKey(asset, holder string) string {
	return "vault:balance:" + asset + ":" + holder
}

func (r *Redis) GetBalance(ctx context.Context, asset, holder string) (*big.Int, bool) {
	raw, err := r.client.Get(ctx, balanceKey(asset, holder)).Result()
	if err != nil {
		return nil, false
	}
	balance, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, false
	}
	return balance, true
}

func (r *Redis) SetBalance(ctx context.Context, asset, holder string, balance *big.Int) {
	if balance == nil {
		return
	}
	r.client.Set(ctx, balanceKey(asset, holder), balance.String(), r.ttl)
}

func (r *Redis) Invalidate(ctx context.Context, asset, holder string) {
	r.client.Del(ctx, balanceKey(asset, holder))
}
