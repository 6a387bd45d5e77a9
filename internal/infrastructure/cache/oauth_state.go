package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// stateTTL bounds how long an authorization attempt may take
const stateTTL = 10 * time.Minute

// ErrStateNotFound is returned for unknown, expired or replayed states
var ErrStateNotFound = errors.New("oauth state not found or expired")

// OAuthState is the per-attempt data stored between the authorization
// redirect and the callback
type OAuthState struct {
	UserID       uuid.UUID `json:"user_id"`
	Site         string    `json:"site"`
	CodeVerifier string    `json:"code_verifier"`
}

// OAuthStateStore persists OAuth states across the redirect round trip
type OAuthStateStore interface {
	Put(ctx context.Context, state string, data OAuthState) error
	// Take retrieves and deletes a state. A state can be consumed once.
	Take(ctx context.Context, state string) (*OAuthState, error)
}

// RedisOAuthStateStore stores states in Redis with a TTL
type RedisOAuthStateStore struct {
	client *redis.Client
}

// NewRedisOAuthStateStore creates a RedisOAuthStateStore
func NewRedisOAuthStateStore(client *redis.Client) *RedisOAuthStateStore {
	return &RedisOAuthStateStore{client: client}
}

var _ OAuthStateStore = (*RedisOAuthStateStore)(nil)

func stateKey(state string) string {
	return "oauth:state:" + state
}

// Put stores a state for a single authorization attempt
func (s *RedisOAuthStateStore) Put(ctx context.Context, state string, data OAuthState) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal oauth state: %w", err)
	}
	return s.client.Set(ctx, stateKey(state), raw, stateTTL).Err()
}

// Take retrieves and atomically deletes a state
func (s *RedisOAuthStateStore) Take(ctx context.Context, state string) (*OAuthState, error) {
	raw, err := s.client.GetDel(ctx, stateKey(state)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("take oauth state: %w", err)
	}
	var data OAuthState
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal oauth state: %w", err)
	}
	return &data, nil
}
