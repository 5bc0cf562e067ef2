package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuleapp/shule/testutil"
)

func newRevoker(t *testing.T) (*Revoker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRevoker(rdb), mr
}

func TestRevoker(t *testing.T) {
	ctx := context.Background()
	r, mr := newRevoker(t)
	now := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)
	r.nowFunc = func() time.Time { return now }

	require.NoError(t, r.Revoke(ctx, "jti-1", now.Add(time.Hour)))
	require.NoError(t, r.Revoke(ctx, "jti-2", now.Add(-time.Second)))

	revoked, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, time.Hour, mr.TTL(revokedPrefix+"jti-1"))

	revoked, err = r.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked, "already expired tokens are not stored")

	mr.FastForward(time.Hour)
	revoked, err = r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevokerUnavailable(t *testing.T) {
	r, mr := newRevoker(t)
	mr.Close()

	_, err := r.IsRevoked(context.Background(), "jti-1")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	conf := testutil.NewConfig()
	conf.Redis.Address = mr.Addr()

	rdb, err := Open(context.Background(), conf)
	require.NoError(t, err)
	_ = rdb.Close()

	mr.Close()
	_, err = Open(context.Background(), conf)
	assert.Error(t, err)
}
