package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisOAuthStateStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisOAuthStateStore(client), mr
}

func TestPutAndTake(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	data := OAuthState{
		UserID:       uuid.New(),
		Site:         "MLA",
		CodeVerifier: "verifier-123",
	}
	require.NoError(t, store.Put(ctx, "state-abc", data))

	got, err := store.Take(ctx, "state-abc")
	require.NoError(t, err)
	assert.Equal(t, data.UserID, got.UserID)
	assert.Equal(t, "MLA", got.Site)
	assert.Equal(t, "verifier-123", got.CodeVerifier)
}

func TestTakeIsSingleUse(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "state-abc", OAuthState{Site: "MLA"}))

	_, err := store.Take(ctx, "state-abc")
	require.NoError(t, err)

	_, err = store.Take(ctx, "state-abc")
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestTakeUnknownState(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Take(context.Background(), "never-stored")
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestStateExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "state-abc", OAuthState{Site: "MLA"}))
	mr.FastForward(11 * time.Minute)

	_, err := store.Take(ctx, "state-abc")
	assert.ErrorIs(t, err, ErrStateNotFound)
}
