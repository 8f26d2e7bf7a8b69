// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package session hosts live editing sessions. Each session owns one
// builder; unsaved changes are mirrored to Valkey as drafts so a session
// evicted for idleness, or lost to a restart, can be restored by id.
package session

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"landingkit/internal/builder"
	"landingkit/internal/models"
)

const (
	// DefaultIdleTTL is how long an untouched session stays in memory.
	DefaultIdleTTL = 30 * time.Minute

	// idLength is the byte length of the random session ID (16 bytes = 32 hex chars).
	idLength = 16

	// draftTimeout bounds a single draft write.
	draftTimeout = 3 * time.Second
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrPageNotFound = errors.New("page not found")
)

// PageLoader reads persisted pages. Satisfied by store.LandingPageStore.
type PageLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.LandingPage, error)
}

// Config wires a Registry to its collaborators. Only Persister is needed to
// save; the rest are optional.
type Config struct {
	Persister builder.Persister
	Uploader  builder.Uploader
	Pages     PageLoader
	Drafts    *DraftStore
	IdleTTL   time.Duration

	// OnSaved runs after a session saves its page.
	OnSaved func(*models.LandingPage)
	// OnClosed runs when a session leaves memory, by Remove, eviction or Close.
	OnClosed func(id string)
}

// OpenOptions selects what a new session starts from. With neither field
// set the session starts empty.
type OpenOptions struct {
	PageID   *uuid.UUID `json:"pageId,omitempty"`
	PresetID string     `json:"presetId,omitempty"`
}

// Session is one editing session.
type Session struct {
	ID        string
	Builder   *builder.Builder
	CreatedAt time.Time

	lastUsed atomic.Int64
	cancel   func()

	draftMu   sync.Mutex
	persisted []byte
	lastDraft []byte
}

// LastUsed returns when the session was last looked up.
func (s *Session) LastUsed() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

// Registry is the concurrency-safe set of live sessions.
type Registry struct {
	cfg Config
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewRegistry creates a Registry and starts its idle janitor. Call Close
// to stop it.
func NewRegistry(cfg Config) *Registry {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	r := &Registry{
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go r.janitor()
	return r
}

// Open starts a new session, from a saved page or a preset.
func (r *Registry) Open(ctx context.Context, opts OpenOptions) (*Session, error) {
	id, err := generateID()
	if err != nil {
		return nil, fmt.Errorf("session open: %w", err)
	}

	var page *models.LandingPage
	if opts.PageID != nil {
		if r.cfg.Pages == nil {
			return nil, fmt.Errorf("session open: %w", ErrPageNotFound)
		}
		page, err = r.cfg.Pages.FindByID(ctx, *opts.PageID)
		if err != nil {
			return nil, fmt.Errorf("session open: %w", err)
		}
		if page == nil {
			return nil, fmt.Errorf("session open: %w", ErrPageNotFound)
		}
	}

	s := r.newSession(id, builder.WithPage(page))
	if page != nil {
		s.persisted = stateJSON(s.Builder.State())
	}
	if opts.PresetID != "" {
		if _, err := s.Builder.ApplyInitialPreset(opts.PresetID); err != nil {
			return nil, fmt.Errorf("session open: %w", err)
		}
	}

	r.add(s)
	slog.Info("editing session opened", "session_id", id, "page_id", opts.PageID, "preset", opts.PresetID)
	return s, nil
}

// Get returns a live session, restoring it from its draft when it is no
// longer in memory.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.lastUsed.Store(r.now().UnixNano())
		return s, nil
	}

	draft, err := r.cfg.Drafts.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("session restore: %w", err)
	}
	if draft == nil {
		return nil, ErrNotFound
	}

	opts := []builder.Option{builder.WithState(draft.State)}
	if draft.PageID != nil {
		opts = append(opts, builder.WithPageID(*draft.PageID))
	}
	restored := r.newSession(id, opts...)
	restored.lastDraft = stateJSON(restored.Builder.State())

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[id]; ok {
		restored.cancel()
		return existing, nil
	}
	r.sessions[id] = restored
	slog.Info("editing session restored from draft", "session_id", id)
	return restored, nil
}

// Remove ends a session and discards its draft.
func (r *Registry) Remove(ctx context.Context, id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if err := r.cfg.Drafts.Delete(ctx, id); err != nil {
		slog.Warn("draft delete failed", "session_id", id, "error", err)
	}
	if !ok {
		return false
	}
	r.release(s)
	return true
}

// Len returns the number of sessions in memory.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close stops the janitor and releases every session. Drafts stay in
// Valkey.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		close(r.stop)
		<-r.done

		r.mu.Lock()
		all := r.sessions
		r.sessions = make(map[string]*Session)
		r.mu.Unlock()
		for _, s := range all {
			r.release(s)
		}
	})
}

func (r *Registry) newSession(id string, opts ...builder.Option) *Session {
	s := &Session{ID: id, CreatedAt: r.now()}
	s.lastUsed.Store(s.CreatedAt.UnixNano())

	opts = append(opts,
		builder.WithPersister(r.cfg.Persister),
		builder.WithUploader(r.cfg.Uploader),
		builder.WithLogger(slog.Default().With("session_id", id)),
		builder.OnSave(func(st builder.State, page *models.LandingPage) { r.saved(s, st, page) }),
	)
	s.Builder = builder.New(opts...)
	s.cancel = s.Builder.Subscribe(func(v builder.View) { r.mirror(s, v) })
	return s
}

func (r *Registry) add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// mirror writes the draft when the document differs from both the last
// saved and the last mirrored version.
func (r *Registry) mirror(s *Session, v builder.View) {
	if r.cfg.Drafts == nil || v.Saving {
		return
	}
	st := builder.State{Sections: v.Sections, Settings: v.Settings}
	raw := stateJSON(st)

	s.draftMu.Lock()
	defer s.draftMu.Unlock()
	if bytes.Equal(raw, s.persisted) || bytes.Equal(raw, s.lastDraft) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), draftTimeout)
	defer cancel()
	if err := r.cfg.Drafts.Save(ctx, s.ID, Draft{PageID: v.PageID, State: st, UpdatedAt: r.now()}); err != nil {
		slog.Warn("draft save failed", "session_id", s.ID, "error", err)
		return
	}
	s.lastDraft = raw
}

func (r *Registry) saved(s *Session, st builder.State, page *models.LandingPage) {
	s.draftMu.Lock()
	s.persisted = stateJSON(st)
	s.lastDraft = nil
	s.draftMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), draftTimeout)
	defer cancel()
	if err := r.cfg.Drafts.Delete(ctx, s.ID); err != nil {
		slog.Warn("draft delete failed", "session_id", s.ID, "error", err)
	}
	if r.cfg.OnSaved != nil {
		r.cfg.OnSaved(page)
	}
}

func (r *Registry) release(s *Session) {
	s.cancel()
	if r.cfg.OnClosed != nil {
		r.cfg.OnClosed(s.ID)
	}
}

func (r *Registry) janitor() {
	defer close(r.done)
	interval := max(r.cfg.IdleTTL/4, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.evictIdle(r.now())
		}
	}
}

// evictIdle drops sessions unused for longer than the idle TTL. Their
// drafts remain, so Get can restore them.
func (r *Registry) evictIdle(now time.Time) int {
	cutoff := now.Add(-r.cfg.IdleTTL).UnixNano()

	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.lastUsed.Load() < cutoff {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		r.release(s)
		slog.Debug("editing session evicted", "session_id", s.ID)
	}
	return len(idle)
}

func stateJSON(st builder.State) []byte {
	raw, err := json.Marshal(st)
	if err != nil {
		return nil
	}
	return raw
}

// generateID creates a cryptographically random session identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
