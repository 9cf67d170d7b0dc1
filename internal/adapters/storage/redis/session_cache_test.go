package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenline/outreach-api/internal/domain"
)

func newTestCache(t *testing.T, ttl time.Duration) (*SessionCache, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewSessionCache(client, ttl), srv
}

func TestSessionCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t, time.Hour)
	ctx := context.Background()

	entry := &domain.SessionEntry{
		SessionID:   "sess-1",
		Context:     "Their name is Alex.",
		ContextSent: true,
	}
	require.NoError(t, cache.Set(ctx, "user-1", entry))

	got, err := cache.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, entry, got)
}

func TestSessionCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t, time.Hour)

	_, err := cache.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionCacheEvict(t *testing.T) {
	cache, _ := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "user-1", &domain.SessionEntry{SessionID: "sess-1"}))
	require.NoError(t, cache.Evict(ctx, "user-1"))

	_, err := cache.Get(ctx, "user-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Evicting again is not an error.
	assert.NoError(t, cache.Evict(ctx, "user-1"))
}

func TestSessionCacheEntriesExpire(t *testing.T) {
	cache, srv := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "user-1", &domain.SessionEntry{SessionID: "sess-1"}))
	srv.FastForward(2 * time.Minute)

	_, err := cache.Get(ctx, "user-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionCacheDefaultTTL(t *testing.T) {
	srv := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := NewSessionCache(client, 0)
	require.NoError(t, cache.Set(context.Background(), "user-1", &domain.SessionEntry{SessionID: "sess-1"}))

	ttl := srv.TTL("chat:session:user-1")
	assert.Equal(t, 24*time.Hour, ttl)
}
