// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package builder owns the editable state of one landing page: the ordered
// section list, page settings, selection, drag and preview state, and the
// undo/redo history. Every structural change is one history step.
//
// A Builder is safe for concurrent use. Persistence and uploads run outside
// the internal lock. While an undo or redo is being applied, other edits
// wait for it to settle; only listener writes made through the Tx of that
// step are folded into it.
package builder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"landingkit/internal/history"
	"landingkit/internal/models"
	"landingkit/internal/sections"
)

var (
	ErrUnknownPreset  = errors.New("unknown preset")
	ErrPresetDeclined = errors.New("preset replacement declined")
	ErrNoPersister    = errors.New("no persister configured")
	ErrNoUploader     = errors.New("no uploader configured")

	ErrUnknownList     = sections.ErrUnknownList
	ErrUnknownField    = sections.ErrUnknownField
	ErrIndexOutOfRange = sections.ErrIndexOutOfRange
)

// Persister stores builder pages.
type Persister interface {
	CreatePage(ctx context.Context, p models.PagePayload) (*models.LandingPage, error)
	UpdatePage(ctx context.Context, id uuid.UUID, p models.PagePayload) (*models.LandingPage, error)
}

// Uploader stores an image and returns where it can be fetched.
type Uploader interface {
	UploadImage(ctx context.Context, f models.Upload) (models.UploadResult, error)
}

// State is the part of the builder tracked by history.
type State struct {
	Sections []models.Section   `json:"sections"`
	Settings models.PageSettings `json:"settings"`
}

func (s State) clone() State {
	out := State{Settings: s.Settings, Sections: make([]models.Section, len(s.Sections))}
	for i, sec := range s.Sections {
		out.Sections[i] = sec.Clone()
	}
	return out
}

func (s State) index(id string) int {
	for i, sec := range s.Sections {
		if sec.ID == id {
			return i
		}
	}
	return -1
}

// sameState compares serialized forms, so equality is structural and order
// sensitive.
func sameState(a, b State) bool {
	ja, err := json.Marshal(a)
	if err != nil {
		return false
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

// View is a point-in-time copy of everything a client needs to draw the
// builder.
type View struct {
	Sections   []models.Section    `json:"sections"`
	Settings   models.PageSettings `json:"settings"`
	SelectedID string              `json:"selectedId,omitempty"`
	ActiveID   string              `json:"activeId,omitempty"`
	Preview    bool                `json:"preview"`
	PageID     *uuid.UUID          `json:"pageId,omitempty"`
	CanUndo    bool                `json:"canUndo"`
	CanRedo    bool                `json:"canRedo"`
	Saving     bool                `json:"saving"`
}

// Option configures a Builder.
type Option func(*Builder)

// WithPersister sets the page store used by Save.
func WithPersister(p Persister) Option {
	return func(b *Builder) { b.persister = p }
}

// WithUploader sets the image store used by the upload operations.
func WithUploader(u Uploader) Option {
	return func(b *Builder) { b.uploader = u }
}

// WithLogger overrides slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithPage loads an existing page. Later saves update it.
func WithPage(p *models.LandingPage) Option {
	return func(b *Builder) {
		if p == nil {
			return
		}
		id := p.ID
		b.pageID = &id
		b.initial = State{Sections: p.Content.Sections, Settings: p.Content.Settings}.clone()
	}
}

// WithState starts the builder from an unsaved document, such as a
// restored draft.
func WithState(s State) Option {
	return func(b *Builder) { b.initial = s.clone() }
}

// WithPageID sets the id of the page this document belongs to.
func WithPageID(id uuid.UUID) Option {
	return func(b *Builder) { b.pageID = &id }
}

// WithHistoryLimit overrides history.DefaultLimit.
func WithHistoryLimit(n int) Option {
	return func(b *Builder) { b.historyLimit = n }
}

// OnSave registers a hook called with the saved state after each
// successful save.
func OnSave(fn func(State, *models.LandingPage)) Option {
	return func(b *Builder) { b.onSave = fn }
}

// Builder is the orchestrator for one landing page document.
type Builder struct {
	mu       sync.Mutex
	hist     *history.History[State]
	selected string
	drag     dragState
	preview  bool
	pageID   *uuid.UUID
	saving   int

	initialPresetApplied bool

	persister    Persister
	uploader     Uploader
	logger       *slog.Logger
	onSave       func(State, *models.LandingPage)
	initial      State
	historyLimit int

	// idle is signalled on mu when an undo or redo settles.
	idle       *sync.Cond
	travelling bool
	travelGen  uint64

	subMu   sync.Mutex
	subs    map[int]func(View, Tx)
	nextSub int
}

// Tx is handed to listeners with every change. Writes made through the Tx
// of an undo or redo are applied without recording and keep the redo
// stack. Outside that step they behave like any other edit.
type Tx struct {
	b   *Builder
	gen uint64
}

// Update replaces the state with fn's result. It reports whether anything
// changed.
func (tx Tx) Update(fn func(State) State) bool {
	if tx.b == nil {
		return false
	}
	return tx.b.apply(tx, func(st State) (State, bool) { return fn(st), true })
}

// New returns a builder. Without WithPage or WithState it starts with no
// sections and default page settings.
func New(opts ...Option) *Builder {
	b := &Builder{
		logger:  slog.Default(),
		initial: State{Sections: []models.Section{}, Settings: models.DefaultPageSettings()},
		subs:    make(map[int]func(View, Tx)),
	}
	b.idle = sync.NewCond(&b.mu)
	for _, opt := range opts {
		opt(b)
	}
	if b.initial.Sections == nil {
		b.initial.Sections = []models.Section{}
	}
	b.hist = history.New(b.initial,
		history.WithEqual(sameState),
		history.WithLimit[State](b.historyLimit),
	)
	return b
}

// State returns a copy of the current sections and settings.
func (b *Builder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hist.Present().clone()
}

// View returns a copy of the full builder state.
func (b *Builder) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewLocked()
}

// Snapshot returns a copy of the history stacks.
func (b *Builder) Snapshot() history.Snapshot[State] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hist.Snapshot()
}

// PageID returns the id of the persisted page, or nil before the first
// save of a new page.
func (b *Builder) PageID() *uuid.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pageID == nil {
		return nil
	}
	id := *b.pageID
	return &id
}

func (b *Builder) viewLocked() View {
	st := b.hist.Present().clone()
	v := View{
		Sections:   st.Sections,
		Settings:   st.Settings,
		SelectedID: b.selected,
		ActiveID:   b.drag.activeID(),
		Preview:    b.preview,
		CanUndo:    b.hist.CanUndo(),
		CanRedo:    b.hist.CanRedo(),
		Saving:     b.saving > 0,
	}
	if b.pageID != nil {
		id := *b.pageID
		v.PageID = &id
	}
	return v
}

// Subscribe registers fn to receive the new view after every change,
// including undo and redo. Listeners run outside the builder lock. The
// returned func cancels the subscription.
func (b *Builder) Subscribe(fn func(View)) (cancel func()) {
	return b.Listen(func(v View, _ Tx) { fn(v) })
}

// Listen is Subscribe for listeners that write state back. Such writes must
// go through tx: a listener notified of an undo or redo that calls an edit
// method directly blocks until that step settles, which is never.
func (b *Builder) Listen(fn func(View, Tx)) (cancel func()) {
	b.subMu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.subMu.Lock()
			delete(b.subs, id)
			b.subMu.Unlock()
		})
	}
}

func (b *Builder) notify(v View, tx Tx) {
	b.subMu.Lock()
	fns := make([]func(View, Tx), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.subMu.Unlock()

	for _, fn := range fns {
		fn(v, tx)
	}
}

// waitIdle blocks until no undo or redo is being applied. mu must be held.
func (b *Builder) waitIdle() {
	for b.travelling {
		b.idle.Wait()
	}
}

// mutate runs fn under the lock against a copy of the present state. fn
// returns the next state and whether it applies at all. A changed state is
// recorded through history and subscribers are notified.
func (b *Builder) mutate(fn func(st State) (State, bool)) bool {
	return b.apply(Tx{}, fn)
}

// apply is mutate on behalf of tx. Writes from the Tx of the step being
// applied go straight through; everything else waits for it to settle.
func (b *Builder) apply(tx Tx, fn func(st State) (State, bool)) bool {
	b.mu.Lock()
	absorbed := b.travelling && tx.gen == b.travelGen
	if !absorbed {
		b.waitIdle()
		tx = Tx{b: b}
	}
	next, ok := fn(b.hist.Present().clone())
	if !ok {
		b.mu.Unlock()
		return false
	}
	changed := !sameState(next, b.hist.Present())
	if changed {
		b.hist.Set(next)
	}
	v := b.viewLocked()
	b.mu.Unlock()

	if changed {
		b.notify(v, tx)
	}
	return changed
}

// touch runs fn under the lock for state outside history (selection, drag,
// preview) and notifies subscribers when fn reports a change.
func (b *Builder) touch(fn func() bool) bool {
	b.mu.Lock()
	changed := fn()
	v := b.viewLocked()
	b.mu.Unlock()

	if changed {
		b.notify(v, Tx{b: b})
	}
	return changed
}

// Select sets the selected section. An empty id clears the selection.
func (b *Builder) Select(id string) {
	b.touch(func() bool {
		if id != "" && b.hist.Present().index(id) < 0 {
			b.logger.Debug("select: section not found", "section_id", id)
			return false
		}
		if b.selected == id {
			return false
		}
		b.selected = id
		return true
	})
}

// Selected returns the selected section, if any.
func (b *Builder) Selected() (models.Section, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.hist.Present()
	if i := st.index(b.selected); i >= 0 {
		return st.Sections[i].Clone(), true
	}
	return models.Section{}, false
}

// SetPreview toggles preview mode.
func (b *Builder) SetPreview(on bool) {
	b.touch(func() bool {
		if b.preview == on {
			return false
		}
		b.preview = on
		return true
	})
}

// UpdateSettings merges a partial settings update.
func (b *Builder) UpdateSettings(p models.SettingsPatch) bool {
	return b.mutate(func(st State) (State, bool) {
		st.Settings = st.Settings.Apply(p)
		return st, true
	})
}

// Undo steps back one history entry. It reports whether anything moved.
func (b *Builder) Undo() bool {
	return b.travel((*history.History[State]).Undo)
}

// Redo steps forward one history entry. It reports whether anything moved.
func (b *Builder) Redo() bool {
	return b.travel((*history.History[State]).Redo)
}

// travel applies one undo or redo step. Until listeners have run and the
// history has settled, other edits and steps wait.
func (b *Builder) travel(step func(*history.History[State]) bool) bool {
	b.mu.Lock()
	b.waitIdle()
	if !step(b.hist) {
		b.mu.Unlock()
		return false
	}
	if b.selected != "" && b.hist.Present().index(b.selected) < 0 {
		b.selected = ""
	}
	b.travelling = true
	b.travelGen++
	tx := Tx{b: b, gen: b.travelGen}
	v := b.viewLocked()
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.hist.Settle()
		b.travelling = false
		b.idle.Broadcast()
		b.mu.Unlock()
	}()
	b.notify(v, tx)
	return true
}

// ClearHistory drops undo and redo entries and keeps the current state.
func (b *Builder) ClearHistory() {
	b.touch(func() bool {
		changed := b.hist.CanUndo() || b.hist.CanRedo()
		b.hist.Clear()
		return changed
	})
}

// CanUndo reports whether Undo would move.
func (b *Builder) CanUndo() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hist.CanUndo()
}

// CanRedo reports whether Redo would move.
func (b *Builder) CanRedo() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hist.CanRedo()
}

// Saving reports whether a save is in flight.
func (b *Builder) Saving() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saving > 0
}
