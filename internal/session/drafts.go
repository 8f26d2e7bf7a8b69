// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"landingkit/internal/builder"
)

const (
	// DefaultDraftTTL is how long an unsaved document survives in Valkey.
	DefaultDraftTTL = 24 * time.Hour

	// draftPrefix namespaces draft keys in Valkey.
	draftPrefix = "lk:draft:"
)

// Draft is the unsaved document of an editing session.
type Draft struct {
	PageID    *uuid.UUID    `json:"page_id,omitempty"`
	State     builder.State `json:"state"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// DraftStore keeps session drafts in Valkey so an editing session survives
// a restart or an idle eviction. A nil *DraftStore stores nothing.
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftStore creates a draft store backed by the given Valkey client.
func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &DraftStore{client: client, ttl: ttl}
}

// Save writes the draft and resets its TTL.
func (d *DraftStore) Save(ctx context.Context, sessionID string, draft Draft) error {
	if d == nil {
		return nil
	}
	if draft.UpdatedAt.IsZero() {
		draft.UpdatedAt = time.Now()
	}
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("draft marshal: %w", err)
	}
	if err := d.client.Set(ctx, draftPrefix+sessionID, payload, d.ttl).Err(); err != nil {
		return fmt.Errorf("draft store: %w", err)
	}
	return nil
}

// Load returns the session's draft, or nil if none exists.
func (d *DraftStore) Load(ctx context.Context, sessionID string) (*Draft, error) {
	if d == nil {
		return nil, nil
	}
	payload, err := d.client.Get(ctx, draftPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("draft get: %w", err)
	}
	var draft Draft
	if err := json.Unmarshal(payload, &draft); err != nil {
		return nil, fmt.Errorf("draft unmarshal: %w", err)
	}
	return &draft, nil
}

// Delete removes the session's draft.
func (d *DraftStore) Delete(ctx context.Context, sessionID string) error {
	if d == nil {
		return nil
	}
	if err := d.client.Del(ctx, draftPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("draft delete: %w", err)
	}
	return nil
}
