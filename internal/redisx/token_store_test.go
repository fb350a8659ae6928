package redisx

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against REDIS_TEST_ADDR when set.
func testClient(t *testing.T) *TokenStore {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rdb := New(addr)
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return NewTokenStore(rdb)
}

func TestTokenStoreRoundTrip(t *testing.T) {
	s := testClient(t)
	ctx := context.Background()
	id := uuid.NewString()

	tok, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, s.Save(ctx, id, "tok-1"))
	tok, err = s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	ttl, err := s.rdb.TTL(ctx, fmt.Sprintf(KeyToken, id)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, TTLToken-time.Minute)

	require.NoError(t, s.Delete(ctx, id))
	tok, err = s.Load(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestMarkOnce(t *testing.T) {
	s := testClient(t)
	ctx := context.Background()
	key := fmt.Sprintf(KeyDedup, "test", uuid.NewString())

	first, err := MarkOnce(ctx, s.rdb, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, first)
	again, err := MarkOnce(ctx, s.rdb, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, again)
}
