package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/admin-sessions/internal/config"
	"github.com/magabrotheeeer/admin-sessions/internal/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	expected := models.UserSummary{UserUID: "uid-1", Email: "a@example.com", Role: models.RoleAdmin}
	require.NoError(t, cache.Set(ctx, UserKey("uid-1"), expected, time.Minute))

	var actual models.UserSummary
	found, err := cache.Get(ctx, UserKey("uid-1"), &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out models.UserSummary
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", 1, time.Minute))
	require.NoError(t, cache.Invalidate(ctx, "k"))

	var out int
	found, err := cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExpiration(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", "v", time.Second))
	mr.FastForward(2 * time.Second)

	var out string
	found, err := cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGet_CorruptedValue(t *testing.T) {
	cache, mr := setupTestCache(t)
	require.NoError(t, mr.Set("k", "{not json"))

	var out models.UserSummary
	found, err := cache.Get(context.Background(), "k", &out)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestLoginLimiter(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter := NewLoginLimiter(cache.DB, 3, time.Minute, log)

	for i := 1; i <= 3; i++ {
		d := limiter.Allow(ctx, "User@Example.com")
		assert.True(t, d.Allowed, "attempt %d", i)
		assert.Equal(t, i, d.Count)
	}

	d := limiter.Allow(ctx, " user@example.com ")
	assert.False(t, d.Allowed, "normalised email shares the counter")
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, time.Minute)

	assert.True(t, limiter.Allow(ctx, "other@example.com").Allowed)

	mr.FastForward(time.Minute + time.Second)
	assert.True(t, limiter.Allow(ctx, "user@example.com").Allowed, "window has passed")

	require.NoError(t, limiter.Reset(ctx, "user@example.com"))
	assert.Equal(t, 1, limiter.Allow(ctx, "user@example.com").Count)
}

func TestLoginLimiter_KeyWithoutTTLExpires(t *testing.T) {
	cache, mr := setupTestCache(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter := NewLoginLimiter(cache.DB, 3, time.Minute, log)

	// счётчик остался без срока жизни после сбоя
	key := "login:attempts:user@example.com"
	require.NoError(t, mr.Set(key, "10"))
	require.Equal(t, time.Duration(0), mr.TTL(key))

	d := limiter.Allow(context.Background(), "user@example.com")
	assert.False(t, d.Allowed)
	assert.Equal(t, 11, d.Count)
	assert.Equal(t, time.Minute, d.RetryAfter)
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(time.Minute + time.Second)
	assert.True(t, limiter.Allow(context.Background(), "user@example.com").Allowed)
}

func TestLoginLimiter_FailsOpen(t *testing.T) {
	cache, mr := setupTestCache(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter := NewLoginLimiter(cache.DB, 1, time.Minute, log)

	mr.Close()
	d := limiter.Allow(context.Background(), "user@example.com")
	assert.True(t, d.Allowed)
}

func TestLoginLimiter_Disabled(t *testing.T) {
	var limiter *LoginLimiter
	assert.True(t, limiter.Allow(context.Background(), "x").Allowed)

	limiter = NewLoginLimiter(nil, 0, 0, nil)
	assert.True(t, limiter.Allow(context.Background(), "x").Allowed)
	assert.NoError(t, limiter.Reset(context.Background(), "x"))
}
