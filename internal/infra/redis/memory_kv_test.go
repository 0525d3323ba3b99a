//go:build !integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-search-mas/internal/domain"
	"job-search-mas/internal/domain/ports/repository"
)

func TestMemoryKVCounters(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	kv := NewMemoryKV()
	kv.now = func() time.Time { return now }

	t.Run("should count and expire like redis", func(t *testing.T) {
		n, err := kv.Incr(ctx, "c")
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
		require.NoError(t, kv.Expire(ctx, "c", time.Minute))

		n, _ = kv.Incr(ctx, "c")
		assert.EqualValues(t, 2, n)

		now = now.Add(time.Minute)
		n, _ = kv.Incr(ctx, "c")
		assert.EqualValues(t, 1, n, "expired counter restarts")
	})

	t.Run("should refuse to increment text", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "s", "hello", 0))
		_, err := kv.Incr(ctx, "s")
		assert.Error(t, err)
	})

	t.Run("should ignore expire on a missing key", func(t *testing.T) {
		assert.NoError(t, kv.Expire(ctx, "missing", time.Minute))
		_, err := kv.Get(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRateLimiterOnMemory(t *testing.T) {
	ctx := context.Background()
	rl := NewRateLimiter(NewMemoryKV())
	key := UserCommandKey(42, "/upload")
	assert.Equal(t, "rate_limit:42:/upload", key)

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := rl.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStateRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewStateRepo(NewMemoryKV(), time.Minute)

	_, err := repo.GetState(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.SetState(ctx, 7, &repository.ConversationState{
		Step: repository.StepAwaitingResume,
		Data: map[string]string{"lang": "ru"},
	}))
	st, err := repo.GetState(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, repository.StepAwaitingResume, st.Step)
	assert.Equal(t, "ru", st.Data["lang"])

	require.NoError(t, repo.ClearState(ctx, 7))
	_, err = repo.GetState(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
