package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist tracks revoked tokens until their natural expiry
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// RevokeAllForUser invalidates every token issued to the user
	// before now, e.g. after a password change
	RevokeAllForUser(ctx context.Context, userID string, ttl time.Duration) error
	// IsRevokedForUser reports whether tokens issued to the user at
	// the given time have been invalidated
	IsRevokedForUser(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// RedisTokenBlacklist stores revoked token IDs in Redis with a TTL
// matching the remaining token lifetime
type RedisTokenBlacklist struct {
	client *redis.Client
}

// NewRedisTokenBlacklist creates a Redis backed blacklist
func NewRedisTokenBlacklist(client *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client}
}

func blacklistKey(jti string) string {
	return "auth:blacklist:" + jti
}

func userRevocationKey(userID string) string {
	return "auth:user_revoked:" + userID
}

// Revoke marks a token ID as revoked
func (b *RedisTokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, blacklistKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked checks whether a token ID has been revoked
func (b *RedisTokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return n > 0, nil
}

// RevokeAllForUser stores the revocation timestamp so every token
// issued before it is rejected
func (b *RedisTokenBlacklist) RevokeAllForUser(ctx context.Context, userID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	now := time.Now().UnixNano()
	if err := b.client.Set(ctx, userRevocationKey(userID), now, ttl).Err(); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

// IsRevokedForUser checks whether the token predates a user-wide revocation
func (b *RedisTokenBlacklist) IsRevokedForUser(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	revokedAt, err := b.client.Get(ctx, userRevocationKey(userID)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check user revocation: %w", err)
	}
	return issuedAt.UnixNano() < revokedAt, nil
}

// InMemoryTokenBlacklist is a process-local blacklist used in tests
// and single-node development setups
type InMemoryTokenBlacklist struct {
	mu          sync.RWMutex
	revoked     map[string]time.Time
	userRevoked map[string]time.Time
}

// NewInMemoryTokenBlacklist creates an in-memory blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		revoked:     make(map[string]time.Time),
		userRevoked: make(map[string]time.Time),
	}
}

// Revoke marks a token ID as revoked
func (b *InMemoryTokenBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[jti] = time.Now().Add(ttl)
	return nil
}

// IsRevoked checks whether a token ID has been revoked
func (b *InMemoryTokenBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.RLock()
	expiry, ok := b.revoked[jti]
	b.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		b.mu.Lock()
		delete(b.revoked, jti)
		b.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// RevokeAllForUser records a user-wide revocation timestamp
func (b *InMemoryTokenBlacklist) RevokeAllForUser(_ context.Context, userID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.userRevoked[userID] = time.Now()
	return nil
}

// IsRevokedForUser checks whether the token predates a user-wide revocation
func (b *InMemoryTokenBlacklist) IsRevokedForUser(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	b.mu.RLock()
	revokedAt, ok := b.userRevoked[userID]
	b.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return issuedAt.Before(revokedAt), nil
}
