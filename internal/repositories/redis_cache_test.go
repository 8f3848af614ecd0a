package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/anonto42/snapgram/backend/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRedis connects to REDIS_TEST_ADDR or skips the test
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestRedisUserCache(t *testing.T) {
	ctx := context.Background()
	cache := NewRedisUserCache(newTestRedis(t))
	sessionID := uuid.NewString()

	_, err := cache.Get(ctx, sessionID)
	assert.ErrorIs(t, err, backend.ErrNotFound)

	require.NoError(t, cache.Set(ctx, sessionID, &models.User{ID: "u1", Name: "Ada"}, time.Minute))
	user, err := cache.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)

	require.NoError(t, cache.Delete(ctx, sessionID))
	_, err = cache.Get(ctx, sessionID)
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func TestRedisRevocationsAndGuard(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)
	tokenID := uuid.NewString()

	revocations := NewRedisRevocations(client)
	require.NoError(t, revocations.Revoke(ctx, tokenID, time.Minute))
	revoked, err := revocations.IsRevoked(ctx, tokenID)
	require.NoError(t, err)
	assert.True(t, revoked)

	guard := NewRedisMutationGuard(client)
	userID := uuid.NewString()
	ok, err := guard.Acquire(ctx, userID, "create", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = guard.Acquire(ctx, userID, "update", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, guard.Release(ctx, userID, "update"))
	kind, err := guard.Pending(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "create", kind)

	require.NoError(t, guard.Release(ctx, userID, "create"))
	kind, err = guard.Pending(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, kind)
}
