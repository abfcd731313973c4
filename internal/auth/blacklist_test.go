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

func TestBlacklistEntriesExpire(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	bl := NewBlacklist(client)
	ctx := context.Background()

	require.NoError(t, bl.Add(ctx, "some-refresh-token", time.Minute))

	revoked, err := bl.Contains(ctx, "some-refresh-token")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = bl.Contains(ctx, "different-token")
	require.NoError(t, err)
	assert.False(t, revoked)

	mr.FastForward(2 * time.Minute)

	revoked, err = bl.Contains(ctx, "some-refresh-token")
	require.NoError(t, err)
	assert.False(t, revoked)
}
