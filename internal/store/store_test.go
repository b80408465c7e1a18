package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "shopping_search:4:데스크탑 CPU 게임용", SearchKey("데스크탑 CPU 게임용", 4))
	assert.Equal(t, "recommendation:abc:processed", ProcessedKey("abc"))
	assert.Equal(t, "recommendation:abc", ResultKey("abc"))
}

func TestGetResult(t *testing.T) {
	_, err := getResult("k", "", redis.Nil)
	assert.ErrorIs(t, err, ErrMiss)

	_, err = getResult("k", "", nil)
	assert.ErrorIs(t, err, ErrMiss, "empty value is a miss")

	got, err := getResult("k", "v", nil)
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	boom := errors.New("connection reset")
	_, err = getResult("k", "", boom)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrMiss)
	assert.ErrorContains(t, err, "redis GET k")
}

func TestStore_Unreachable(t *testing.T) {
	s := newStore(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer s.Close()
	ctx := context.Background()

	_, err := s.Get(ctx, "k")
	assert.ErrorContains(t, err, "redis GET k")
	assert.NotErrorIs(t, err, ErrMiss)

	assert.ErrorContains(t, s.Set(ctx, "k", "v", time.Minute), "redis SET k")
	_, err = s.Claim(ctx, "k", time.Minute)
	assert.ErrorContains(t, err, "redis SETNX k")
	assert.ErrorContains(t, s.Release(ctx, "k"), "redis DEL k")
}

// TestStore_Redis runs against a live server when REDIS_ADDR is set.
func TestStore_Redis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	s := New(addr)
	defer s.Close()

	key := "test:" + uuid.NewString()
	defer s.Release(ctx, key)

	_, err := s.Get(ctx, key)
	assert.True(t, errors.Is(err, ErrMiss))

	require.NoError(t, s.Set(ctx, key, "value", time.Minute))
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	claimKey := key + ":claim"
	defer s.Release(ctx, claimKey)
	ok, err := s.Claim(ctx, claimKey, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Claim(ctx, claimKey, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}
