// Package redisstore keeps shared session state in Redis.
package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/session"
)

const revokedPrefix = "shule:revoked:"

// Open connects to the configured Redis server.
func Open(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return rdb, nil
}

// Revoker shares signed-out token IDs between instances. Entries expire with the tokens.
type Revoker struct {
	rdb     *redis.Client
	nowFunc func() time.Time // mockable
}

var _ session.Revoker = (*Revoker)(nil)

func NewRevoker(rdb *redis.Client) *Revoker {
	return &Revoker{rdb: rdb, nowFunc: time.Now}
}

func (r *Revoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(r.nowFunc())
	if ttl <= 0 {
		return nil
	}
	return errors.Wrap(r.rdb.Set(ctx, revokedPrefix+tokenID, 1, ttl).Err(), "redis SET")
}

func (r *Revoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, revokedPrefix+tokenID).Result()
	if err != nil {
		return false, errors.Wrap(err, "redis EXISTS")
	}
	return n > 0, nil
}
