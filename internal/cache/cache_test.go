package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testValkeyClient connects to database 15 of the test Valkey and removes
// every landingkit key afterwards. Skips when Valkey is unreachable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	client, err := ConnectValkey(context.Background(), testValkeyOptions())
	if err != nil {
		t.Skipf("skipping integration test: %v", err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		if keys, _ := client.Keys(ctx, "lk:*").Result(); len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})
	return client
}

func testValkeyOptions() ValkeyOptions {
	return ValkeyOptions{
		Host:     envOr("VALKEY_HOST", "localhost"),
		Port:     envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestValkeyOptionsAddr(t *testing.T) {
	assert.Equal(t, "cache:6380", ValkeyOptions{Host: "cache", Port: "6380"}.Addr())
	assert.Equal(t, "[::1]:6379", ValkeyOptions{Host: "::1", Port: "6379"}.Addr())
}

func TestConnectValkeyUnreachable(t *testing.T) {
	_, err := ConnectValkey(context.Background(), ValkeyOptions{Host: "127.0.0.1", Port: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}

func TestPageCacheSetGet(t *testing.T) {
	pc := NewPageCache(testValkeyClient(t), time.Minute)
	ctx := context.Background()

	_, ok := pc.Get(ctx, "spring-promo")
	assert.False(t, ok)

	html := []byte("<html><body>Spring promo</body></html>")
	pc.Set(ctx, "spring-promo", nil, html)

	got, ok := pc.Get(ctx, "spring-promo")
	require.True(t, ok)
	assert.Equal(t, html, got)
}

func TestPageCacheTTL(t *testing.T) {
	client := testValkeyClient(t)
	pc := NewPageCache(client, 90*time.Second)
	ctx := context.Background()

	agency := uuid.New()
	pc.Set(ctx, "ttl-page", &agency, []byte("x"))

	for _, key := range []string{pageKeyPrefix + "ttl-page", pageIndexKey, agencyIndexKey(agency)} {
		ttl, err := client.TTL(ctx, key).Result()
		require.NoError(t, err, key)
		assert.Greater(t, ttl, time.Duration(0), key)
		assert.LessOrEqual(t, ttl, 90*time.Second, key)
	}
}

func TestPageCacheInvalidate(t *testing.T) {
	client := testValkeyClient(t)
	pc := NewPageCache(client, time.Minute)
	ctx := context.Background()

	pc.Set(ctx, "gone-soon", nil, []byte("cached"))
	pc.Invalidate(ctx, "gone-soon")

	_, ok := pc.Get(ctx, "gone-soon")
	assert.False(t, ok)
	member, err := client.SIsMember(ctx, pageIndexKey, "gone-soon").Result()
	require.NoError(t, err)
	assert.False(t, member, "slug removed from index")
}

func TestPageCacheInvalidateAgency(t *testing.T) {
	client := testValkeyClient(t)
	pc := NewPageCache(client, time.Minute)
	ctx := context.Background()

	acme, other := uuid.New(), uuid.New()
	pc.Set(ctx, "acme-roofing", &acme, []byte("a"))
	pc.Set(ctx, "acme-painting", &acme, []byte("b"))
	pc.Set(ctx, "other-plumbing", &other, []byte("c"))
	pc.Set(ctx, "solo", nil, []byte("d"))

	pc.InvalidateAgency(ctx, acme)

	for _, slug := range []string{"acme-roofing", "acme-painting"} {
		_, ok := pc.Get(ctx, slug)
		assert.False(t, ok, slug)
	}
	for _, slug := range []string{"other-plumbing", "solo"} {
		_, ok := pc.Get(ctx, slug)
		assert.True(t, ok, slug)
	}

	members, err := client.SMembers(ctx, pageIndexKey).Result()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"other-plumbing", "solo"}, members)

	// Nothing left to drop.
	pc.InvalidateAgency(ctx, acme)
}

func TestPageCacheInvalidateAll(t *testing.T) {
	client := testValkeyClient(t)
	pc := NewPageCache(client, time.Minute)
	ctx := context.Background()

	agency := uuid.New()
	pc.Set(ctx, "page-a", &agency, []byte("a"))
	pc.Set(ctx, "page-b", nil, []byte("b"))

	pc.InvalidateAll(ctx)

	for _, slug := range []string{"page-a", "page-b"} {
		_, ok := pc.Get(ctx, slug)
		assert.False(t, ok, slug)
	}
	n, err := client.Exists(ctx, pageIndexKey).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNilPageCache(t *testing.T) {
	var pc *PageCache
	ctx := context.Background()

	pc.Set(ctx, "x", nil, []byte("x"))
	pc.Invalidate(ctx, "x")
	pc.InvalidateAgency(ctx, uuid.New())
	pc.InvalidateAll(ctx)
	_, ok := pc.Get(ctx, "x")
	assert.False(t, ok)
}

func TestNewPageCacheDefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultPageTTL, NewPageCache(nil, 0).ttl)
	assert.Equal(t, time.Second, NewPageCache(nil, time.Second).ttl)
}
