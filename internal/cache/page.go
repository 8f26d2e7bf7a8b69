// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	pageKeyPrefix = "lk:page:"

	// pageIndexKey holds every cached slug.
	pageIndexKey = "lk:pages"

	// agencyIndexPrefix holds the cached slugs of one agency's pages.
	agencyIndexPrefix = "lk:pages:agency:"

	// DefaultPageTTL is how long a rendered page stays cached.
	DefaultPageTTL = 5 * time.Minute
)

// PageCache stores the rendered HTML of published landing pages, keyed by
// slug. Slugs are also indexed per agency so a theme change only drops
// the pages that fall back to it. A nil *PageCache always misses.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a page cache backed by the given Valkey client.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

func agencyIndexKey(id uuid.UUID) string { return agencyIndexPrefix + id.String() }

// Get returns the cached HTML for slug.
func (pc *PageCache) Get(ctx context.Context, slug string) ([]byte, bool) {
	if pc == nil {
		return nil, false
	}
	val, err := pc.client.Get(ctx, pageKeyPrefix+slug).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("page cache get failed", "slug", slug, "error", err)
		return nil, false
	}
	return val, true
}

// Set caches html for slug. agencyID is the page's agency, or nil for pages
// without one. Index sets expire with the newest entry they hold.
func (pc *PageCache) Set(ctx context.Context, slug string, agencyID *uuid.UUID, html []byte) {
	if pc == nil {
		return
	}
	_, err := pc.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, pageKeyPrefix+slug, html, pc.ttl)
		pipe.SAdd(ctx, pageIndexKey, slug)
		pipe.Expire(ctx, pageIndexKey, pc.ttl)
		if agencyID != nil {
			key := agencyIndexKey(*agencyID)
			pipe.SAdd(ctx, key, slug)
			pipe.Expire(ctx, key, pc.ttl)
		}
		return nil
	})
	if err != nil {
		slog.Warn("page cache set failed", "slug", slug, "error", err)
	}
}

// Invalidate drops one page. Called on save, publish, unpublish and
// delete.
func (pc *PageCache) Invalidate(ctx context.Context, slug string) {
	if pc == nil || slug == "" {
		return
	}
	_, err := pc.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, pageKeyPrefix+slug)
		pipe.SRem(ctx, pageIndexKey, slug)
		return nil
	})
	if err != nil {
		slog.Warn("page cache invalidate failed", "slug", slug, "error", err)
	}
}

// InvalidateAgency drops every cached page of one agency.
func (pc *PageCache) InvalidateAgency(ctx context.Context, agencyID uuid.UUID) {
	if pc == nil {
		return
	}
	n, err := pc.dropIndexed(ctx, agencyIndexKey(agencyID))
	if err != nil {
		slog.Warn("page cache agency invalidate failed", "agency_id", agencyID, "error", err)
		return
	}
	if n > 0 {
		slog.Info("page cache cleared for agency", "agency_id", agencyID, "deleted", n)
	}
}

// InvalidateAll drops every cached page.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	if pc == nil {
		return
	}
	n, err := pc.dropIndexed(ctx, pageIndexKey)
	if err != nil {
		slog.Warn("page cache clear failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("page cache cleared", "deleted", n)
	}
}

// dropIndexed deletes the pages listed in an index set and the set itself.
func (pc *PageCache) dropIndexed(ctx context.Context, index string) (int, error) {
	slugs, err := pc.client.SMembers(ctx, index).Result()
	if err != nil {
		return 0, err
	}
	keys := make([]string, 0, len(slugs)+1)
	for _, s := range slugs {
		keys = append(keys, pageKeyPrefix+s)
	}
	keys = append(keys, index)

	_, err = pc.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		if index != pageIndexKey && len(slugs) > 0 {
			members := make([]any, len(slugs))
			for i, s := range slugs {
				members[i] = s
			}
			pipe.SRem(ctx, pageIndexKey, members...)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(slugs), nil
}
