package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/anonto42/snapgram/backend/internal/models"
	"github.com/go-redis/redis/v8"
)

const (
	userCachePrefix   = "session:user:"
	revocationPrefix  = "session:revoked:"
	mutationKeyPrefix = "mutation:"
)

// RedisUserCache implements backend.UserCache as JSON strings with a TTL
type RedisUserCache struct {
	client *redis.Client
}

// NewRedisUserCache creates a RedisUserCache
func NewRedisUserCache(client *redis.Client) *RedisUserCache {
	return &RedisUserCache{client: client}
}

// Get returns the cached user of a session
func (c *RedisUserCache) Get(ctx context.Context, sessionID string) (*models.User, error) {
	raw, err := c.client.Get(ctx, userCachePrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("cached user %s: %w", sessionID, backend.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cached user %s: %w: %w", sessionID, backend.ErrUnavailable, err)
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode cached user %s: %w", sessionID, err)
	}
	return &user, nil
}

// Set caches user for ttl
func (c *RedisUserCache) Set(ctx context.Context, sessionID string, user *models.User, ttl time.Duration) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode cached user: %w", err)
	}
	if err := c.client.Set(ctx, userCachePrefix+sessionID, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache user %s: %w: %w", sessionID, backend.ErrUnavailable, err)
	}
	return nil
}

// Delete evicts the cached user of a session
func (c *RedisUserCache) Delete(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, userCachePrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("evict cached user %s: %w: %w", sessionID, backend.ErrUnavailable, err)
	}
	return nil
}

// RedisRevocations implements session.RevocationStore with expiring keys
type RedisRevocations struct {
	client *redis.Client
}

// NewRedisRevocations creates a RedisRevocations
func NewRedisRevocations(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{client: client}
}

// Revoke marks tokenID revoked for ttl
func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, revocationPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke session %s: %w: %w", tokenID, backend.ErrUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether tokenID is currently revoked
func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revocationPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation %s: %w: %w", tokenID, backend.ErrUnavailable, err)
	}
	return n > 0, nil
}

// RedisMutationGuard tracks the in-flight post mutation of each user as one
// key holding the kind, taken with SETNX
type RedisMutationGuard struct {
	client *redis.Client
}

// NewRedisMutationGuard creates a RedisMutationGuard
func NewRedisMutationGuard(client *redis.Client) *RedisMutationGuard {
	return &RedisMutationGuard{client: client}
}

// releaseScript deletes KEYS[1] only while it still holds ARGV[1]
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func mutationKey(userID string) string {
	return mutationKeyPrefix + userID
}

// Acquire marks kind pending for userID; false if any mutation already was
func (g *RedisMutationGuard) Acquire(ctx context.Context, userID, kind string, ttl time.Duration) (bool, error) {
	ok, err := g.client.SetNX(ctx, mutationKey(userID), kind, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire %s mutation: %w: %w", kind, backend.ErrUnavailable, err)
	}
	return ok, nil
}

// Release clears the pending mark if it is still held for kind
func (g *RedisMutationGuard) Release(ctx context.Context, userID, kind string) error {
	if err := releaseScript.Run(ctx, g.client, []string{mutationKey(userID)}, kind).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release %s mutation: %w: %w", kind, backend.ErrUnavailable, err)
	}
	return nil
}

// Pending returns the kind in flight for userID, or "" when idle
func (g *RedisMutationGuard) Pending(ctx context.Context, userID string) (string, error) {
	kind, err := g.client.Get(ctx, mutationKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("check pending mutation: %w: %w", backend.ErrUnavailable, err)
	}
	return kind, nil
}
