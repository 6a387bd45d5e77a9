package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisBlacklistUserWideRevocation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	bl := NewRedisTokenBlacklist(client)
	ctx := context.Background()

	before := time.Now().Add(-time.Minute)

	invalidated, err := bl.IsRevokedForUser(ctx, "user-1", before)
	require.NoError(t, err)
	assert.False(t, invalidated)

	require.NoError(t, bl.RevokeAllForUser(ctx, "user-1", time.Hour))

	invalidated, err = bl.IsRevokedForUser(ctx, "user-1", before)
	require.NoError(t, err)
	assert.True(t, invalidated)

	after := time.Now().Add(time.Minute)
	invalidated, err = bl.IsRevokedForUser(ctx, "user-1", after)
	require.NoError(t, err)
	assert.False(t, invalidated)

	// other users are unaffected
	invalidated, err = bl.IsRevokedForUser(ctx, "user-2", before)
	require.NoError(t, err)
	assert.False(t, invalidated)
}

func TestInMemoryBlacklistUserWideRevocation(t *testing.T) {
	bl := NewInMemoryTokenBlacklist()
	ctx := context.Background()

	before := time.Now().Add(-time.Minute)
	require.NoError(t, bl.RevokeAllForUser(ctx, "user-1", time.Hour))

	invalidated, err := bl.IsRevokedForUser(ctx, "user-1", before)
	require.NoError(t, err)
	assert.True(t, invalidated)

	after := time.Now().Add(time.Minute)
	invalidated, err = bl.IsRevokedForUser(ctx, "user-1", after)
	require.NoError(t, err)
	assert.False(t, invalidated)
}
