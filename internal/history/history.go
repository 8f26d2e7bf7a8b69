// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package history implements a bounded undo/redo store of whole-value
// snapshots.
//
// History is not safe for concurrent use; the owner serializes access.
package history

import "reflect"

// DefaultLimit is the maximum number of past snapshots kept.
const DefaultLimit = 50

// Phase is the re-entrancy state of a History. While an undo or redo is
// being applied, writes replace the present value without recording.
type Phase int

const (
	Idle Phase = iota
	ApplyingUndo
	ApplyingRedo
)

func (p Phase) String() string {
	switch p {
	case ApplyingUndo:
		return "applying-undo"
	case ApplyingRedo:
		return "applying-redo"
	default:
		return "idle"
	}
}

// EqualFunc reports whether two values are the same state.
type EqualFunc[T any] func(a, b T) bool

// Option configures a History.
type Option[T any] func(*History[T])

// WithLimit overrides DefaultLimit. Values below 1 are ignored.
func WithLimit[T any](n int) Option[T] {
	return func(h *History[T]) {
		if n > 0 {
			h.limit = n
		}
	}
}

// WithEqual overrides the default reflect.DeepEqual comparison.
func WithEqual[T any](eq func(a, b T) bool) Option[T] {
	return func(h *History[T]) {
		if eq != nil {
			h.equal = eq
		}
	}
}

// Snapshot is a copy of the stacks at one moment.
type Snapshot[T any] struct {
	Past    []T `json:"past"`
	Present T   `json:"present"`
	Future  []T `json:"future"`
}

// History keeps past, present and future values of T.
type History[T any] struct {
	past    []T
	present T
	future  []T
	limit   int
	equal   EqualFunc[T]
	phase   Phase
}

// New returns a History whose present value is initial.
func New[T any](initial T, opts ...Option[T]) *History[T] {
	h := &History[T]{
		present: initial,
		limit:   DefaultLimit,
		equal:   func(a, b T) bool { return reflect.DeepEqual(a, b) },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Present returns the current value.
func (h *History[T]) Present() T { return h.present }

// Phase returns the current re-entrancy phase.
func (h *History[T]) Phase() Phase { return h.phase }

// CanUndo reports whether there is a past value to step back to.
func (h *History[T]) CanUndo() bool { return len(h.past) > 0 }

// CanRedo reports whether there is a future value to step forward to.
func (h *History[T]) CanRedo() bool { return len(h.future) > 0 }

// Set makes v the present value. A value equal to the present is ignored.
// When Idle the old present is pushed onto the past, the oldest entry is
// evicted beyond the limit and the future is discarded. While an undo or
// redo is being applied the present is replaced without recording.
// Set reports whether a snapshot was recorded.
func (h *History[T]) Set(v T) bool {
	if h.equal(v, h.present) {
		return false
	}
	if h.phase != Idle {
		h.present = v
		return false
	}
	h.past = append(h.past, h.present)
	if over := len(h.past) - h.limit; over > 0 {
		h.past = append(h.past[:0:0], h.past[over:]...)
	}
	h.present = v
	h.future = nil
	return true
}

// Update resolves fn against the present value and passes the result to Set.
func (h *History[T]) Update(fn func(T) T) bool {
	return h.Set(fn(h.present))
}

// Undo moves one step back and enters ApplyingUndo. It reports whether it
// moved; an empty past is a no-op.
func (h *History[T]) Undo() bool {
	if len(h.past) == 0 {
		return false
	}
	last := len(h.past) - 1
	prev := h.past[last]
	h.past = h.past[:last]
	h.future = append([]T{h.present}, h.future...)
	h.present = prev
	h.phase = ApplyingUndo
	return true
}

// Redo moves one step forward and enters ApplyingRedo. It reports whether
// it moved; an empty future is a no-op.
func (h *History[T]) Redo() bool {
	if len(h.future) == 0 {
		return false
	}
	next := h.future[0]
	h.future = h.future[1:]
	h.past = append(h.past, h.present)
	h.present = next
	h.phase = ApplyingRedo
	return true
}

// Settle returns to Idle. The owner calls it once everything triggered by
// an undo or redo has run.
func (h *History[T]) Settle() { h.phase = Idle }

// Clear drops past and future and keeps the present.
func (h *History[T]) Clear() {
	h.past = nil
	h.future = nil
}

// Snapshot returns copies of the stacks.
func (h *History[T]) Snapshot() Snapshot[T] {
	return Snapshot[T]{
		Past:    append([]T(nil), h.past...),
		Present: h.present,
		Future:  append([]T(nil), h.future...),
	}
}
