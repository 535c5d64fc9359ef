package alert

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCooldownStore(t *testing.T) {
	s := NewMemoryCooldownStore()
	ctx := context.Background()

	last, err := s.LastSentAt(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	sent := time.Unix(1700000000, 0)
	require.NoError(t, s.MarkSent(ctx, sent))

	last, err = s.LastSentAt(ctx)
	require.NoError(t, err)
	assert.Equal(t, sent, last)
}

func TestRedisCooldownStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisCooldownStore(client, "user-42")
	ctx := context.Background()

	last, err := s.LastSentAt(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero(), "missing key reads as never sent")

	sent := time.Unix(1700000000, 123456789)
	require.NoError(t, s.MarkSent(ctx, sent))

	last, err = s.LastSentAt(ctx)
	require.NoError(t, err)
	assert.True(t, sent.Equal(last))
}

func TestRedisCooldownStoreScopedKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	a := NewRedisCooldownStore(client, "user-a")
	b := NewRedisCooldownStore(client, "user-b")

	require.NoError(t, a.MarkSent(ctx, time.Unix(1000, 0)))

	last, err := b.LastSentAt(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero(), "cooldowns must not leak across sessions")
}

func TestRedisCooldownStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisCooldownStore(client, "user-42")
	mr.Close()

	_, err := s.LastSentAt(context.Background())
	assert.Error(t, err)
}
