package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landingkit/internal/models"
)

type countingLoader struct {
	calls atomic.Int32
	theme *models.AgencyTheme
	err   error
}

func (l *countingLoader) load(_ context.Context, id uuid.UUID) (*models.AgencyTheme, error) {
	l.calls.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	if l.theme == nil {
		return nil, nil
	}
	t := *l.theme
	t.AgencyID = id
	return &t, nil
}

func TestThemeCacheLocalHit(t *testing.T) {
	loader := &countingLoader{theme: &models.AgencyTheme{BrandName: "Acme"}}
	c := NewThemeCache(nil, loader.load, time.Minute)
	ctx := context.Background()
	id := uuid.New()

	for range 3 {
		got, err := c.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Acme", got.BrandName)
	}
	assert.EqualValues(t, 1, loader.calls.Load())
}

func TestThemeCacheCachesMisses(t *testing.T) {
	loader := &countingLoader{}
	c := NewThemeCache(nil, loader.load, time.Minute)

	for range 2 {
		got, err := c.Get(context.Background(), uuid.Nil)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
	assert.EqualValues(t, 1, loader.calls.Load())
}

func TestThemeCacheExpiry(t *testing.T) {
	loader := &countingLoader{theme: &models.AgencyTheme{}}
	c := NewThemeCache(nil, loader.load, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	id := uuid.New()

	_, _ = c.Get(context.Background(), id)
	now = now.Add(2 * time.Minute)
	_, _ = c.Get(context.Background(), id)
	assert.EqualValues(t, 2, loader.calls.Load())
}

func TestThemeCacheInvalidate(t *testing.T) {
	loader := &countingLoader{theme: &models.AgencyTheme{}}
	c := NewThemeCache(nil, loader.load, time.Minute)
	id := uuid.New()

	_, _ = c.Get(context.Background(), id)
	c.Invalidate(context.Background(), id)
	_, _ = c.Get(context.Background(), id)
	assert.EqualValues(t, 2, loader.calls.Load())
}

func TestThemeCacheLoadErrorNotCached(t *testing.T) {
	loader := &countingLoader{err: errors.New("db down")}
	c := NewThemeCache(nil, loader.load, time.Minute)
	id := uuid.New()

	_, err := c.Get(context.Background(), id)
	require.Error(t, err)

	loader.err = nil
	loader.theme = &models.AgencyTheme{BrandName: "Back"}
	got, err := c.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Back", got.BrandName)
}

func TestThemeCacheHandleMessage(t *testing.T) {
	loader := &countingLoader{theme: &models.AgencyTheme{}}
	c := NewThemeCache(nil, loader.load, time.Minute)
	id := uuid.New()

	_, _ = c.Get(context.Background(), id)
	c.handleMessage("not-a-uuid")
	_, ok := c.local(id)
	assert.True(t, ok)

	c.handleMessage(id.String())
	_, ok = c.local(id)
	assert.False(t, ok)
}

func TestThemeCacheSubscribeWithoutClient(t *testing.T) {
	c := NewThemeCache(nil, (&countingLoader{}).load, 0)
	assert.Equal(t, DefaultThemeTTL, c.ttl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, c.Subscribe(ctx))
}

func TestThemeCacheCrossInstanceInvalidation(t *testing.T) {
	client := testValkeyClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loader := &countingLoader{theme: &models.AgencyTheme{BrandName: "Acme"}}
	a := NewThemeCache(client, loader.load, time.Minute)
	b := NewThemeCache(client, loader.load, time.Minute)

	done := make(chan error, 1)
	go func() { done <- b.Subscribe(ctx) }()

	id := uuid.New()
	_, err := b.Get(ctx, id)
	require.NoError(t, err)
	_, ok := b.local(id)
	require.True(t, ok)

	// Give the subscription time to register before publishing.
	time.Sleep(200 * time.Millisecond)
	a.Invalidate(ctx, id)

	assert.Eventually(t, func() bool {
		_, ok := b.local(id)
		return !ok
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
