package redisrevocation_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-room-server/token/redisrevocation"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	require.Equal(t, "revoked:session:abc", redisrevocation.Key("abc"))
}

// TestCache_AddAndCheck needs a live Redis; set TEST_REDIS_ADDR to run it.
func TestCache_AddAndCheck(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := redisrevocation.Connect(ctx, redisrevocation.Config{Addr: addr})
	require.NoError(t, err)
	defer client.Close()

	cache := redisrevocation.New(client)
	jti := uuid.New().String()

	revoked, err := cache.IsRevoked(ctx, jti)
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, cache.Add(ctx, jti, time.Now().Add(time.Minute)))
	revoked, err = cache.IsRevoked(ctx, jti)
	require.NoError(t, err)
	require.True(t, revoked)

	ttl, err := client.TTL(ctx, redisrevocation.Key(jti)).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))

	expired := uuid.New().String()
	require.NoError(t, cache.Add(ctx, expired, time.Now().Add(-time.Minute)))
	revoked, err = cache.IsRevoked(ctx, expired)
	require.NoError(t, err)
	require.False(t, revoked)
}
