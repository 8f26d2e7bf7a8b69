// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"landingkit/internal/models"
)

const (
	themeKeyPrefix = "lk:theme:"

	// ThemeChannel carries agency ids whose theme changed, so every
	// instance drops its in-process copy.
	ThemeChannel = "lk:theme:invalidate"

	// DefaultThemeTTL bounds how long a theme stays in either tier.
	DefaultThemeTTL = 10 * time.Minute
)

// ThemeLoader reads a theme from the source of truth. A nil theme with a
// nil error means the agency has none.
type ThemeLoader func(ctx context.Context, agencyID uuid.UUID) (*models.AgencyTheme, error)

type themeEntry struct {
	theme   *models.AgencyTheme
	expires time.Time
}

// ThemeCache is a two-tier agency theme cache: an in-process TTL map (L1)
// in front of Valkey (L2) in front of the loader. Misses are cached too.
// With a nil client only L1 is used and invalidation stays local.
type ThemeCache struct {
	client *redis.Client
	load   ThemeLoader
	ttl    time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	entries map[uuid.UUID]themeEntry
}

// NewThemeCache creates a ThemeCache.
func NewThemeCache(client *redis.Client, load ThemeLoader, ttl time.Duration) *ThemeCache {
	if ttl <= 0 {
		ttl = DefaultThemeTTL
	}
	return &ThemeCache{
		client:  client,
		load:    load,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[uuid.UUID]themeEntry),
	}
}

// Get returns the agency's theme, or nil when it has none.
func (c *ThemeCache) Get(ctx context.Context, agencyID uuid.UUID) (*models.AgencyTheme, error) {
	if t, ok := c.local(agencyID); ok {
		return t, nil
	}

	if t, ok := c.remote(ctx, agencyID); ok {
		c.put(agencyID, t)
		return t, nil
	}

	t, err := c.load(ctx, agencyID)
	if err != nil {
		return nil, fmt.Errorf("load agency theme: %w", err)
	}
	c.put(agencyID, t)
	c.store(ctx, agencyID, t)
	return t, nil
}

// Invalidate drops the agency's theme from both tiers and notifies other
// instances.
func (c *ThemeCache) Invalidate(ctx context.Context, agencyID uuid.UUID) {
	c.drop(agencyID)
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, themeKeyPrefix+agencyID.String()).Err(); err != nil {
		slog.Warn("theme cache delete error", "agency_id", agencyID, "error", err)
	}
	if err := c.client.Publish(ctx, ThemeChannel, agencyID.String()).Err(); err != nil {
		slog.Warn("theme invalidate publish error", "agency_id", agencyID, "error", err)
	}
}

// Subscribe listens for invalidations from other instances until ctx is
// done. It returns nil on cancellation.
func (c *ThemeCache) Subscribe(ctx context.Context) error {
	if c.client == nil {
		<-ctx.Done()
		return nil
	}
	sub := c.client.Subscribe(ctx, ThemeChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", ThemeChannel, err)
	}
	slog.Info("theme invalidation subscribed", "channel", ThemeChannel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			c.handleMessage(msg.Payload)
		}
	}
}

func (c *ThemeCache) handleMessage(payload string) {
	id, err := uuid.Parse(payload)
	if err != nil {
		slog.Warn("bad theme invalidation message", "payload", payload)
		return
	}
	c.drop(id)
}

func (c *ThemeCache) local(id uuid.UUID) (*models.AgencyTheme, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok || c.now().After(e.expires) {
		return nil, false
	}
	return e.theme, true
}

func (c *ThemeCache) put(id uuid.UUID, t *models.AgencyTheme) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = themeEntry{theme: t, expires: c.now().Add(c.ttl)}
	slog.Debug("theme cached", "agency_id", id, "size", len(c.entries))
}

func (c *ThemeCache) drop(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	slog.Debug("theme cache invalidated", "agency_id", id)
}

func (c *ThemeCache) remote(ctx context.Context, id uuid.UUID) (*models.AgencyTheme, bool) {
	if c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, themeKeyPrefix+id.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("theme cache get error", "agency_id", id, "error", err)
		return nil, false
	}
	var t *models.AgencyTheme
	if err := json.Unmarshal(raw, &t); err != nil {
		slog.Warn("theme cache decode error", "agency_id", id, "error", err)
		return nil, false
	}
	return t, true
}

func (c *ThemeCache) store(ctx context.Context, id uuid.UUID, t *models.AgencyTheme) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, themeKeyPrefix+id.String(), raw, c.ttl).Err(); err != nil {
		slog.Warn("theme cache set error", "agency_id", id, "error", err)
	}
}
