// Package history implements bounded snapshot-based undo and redo.
//
// The engine keeps two stacks of timestamped snapshots. Both stacks are
// capped in size and pruned by age, so an idle session cannot accumulate
// history even below the size cap.
package history

import (
	"fmt"
	"time"
)

const (
	DefaultMaxSize   = 100
	DefaultRetention = 10 * time.Minute
)

// Config sets the engine bounds. Non-positive values select the defaults.
type Config struct {
	MaxSize   int
	Retention time.Duration
	// Now is the clock, time.Now when nil
	Now func() time.Time
}

// Target is the live state the engine undoes and redoes
type Target interface {
	Snapshot() (Snapshot, error)
	Restore(Snapshot) error
}

type entry struct {
	snapshot  Snapshot
	createdAt time.Time
}

// Engine is the undo/redo state machine. It is not safe for concurrent use.
type Engine struct {
	maxSize   int
	retention time.Duration
	now       func() time.Time

	past      []entry
	future    []entry
	restoring bool
}

// New creates an engine with empty stacks
func New(cfg Config) *Engine {
	e := &Engine{
		maxSize:   cfg.MaxSize,
		retention: cfg.Retention,
		now:       cfg.Now,
	}
	if e.maxSize <= 0 {
		e.maxSize = DefaultMaxSize
	}
	if e.retention <= 0 {
		e.retention = DefaultRetention
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Record pushes the pre-mutation snapshot and clears the redo stack. It is a
// no-op while a restore is in progress and when s equals the newest entry.
// Reports whether an entry was pushed.
func (e *Engine) Record(s Snapshot) bool {
	if e.restoring || s.IsZero() {
		return false
	}
	if n := len(e.past); n > 0 && e.past[n-1].snapshot.Equal(s) {
		return false
	}
	e.past = e.push(e.past, s)
	e.future = nil
	return true
}

// Undo restores the newest past snapshot into t, saving t's current state
// for redo. It returns false when there is nothing to undo.
func (e *Engine) Undo(t Target) (bool, error) {
	return e.step(t, &e.past, &e.future)
}

// Redo is the inverse of Undo
func (e *Engine) Redo(t Target) (bool, error) {
	return e.step(t, &e.future, &e.past)
}

// step moves one entry from src to t, pushing t's current state onto dst.
// On a failed restore both stacks are left as they were.
func (e *Engine) step(t Target, src, dst *[]entry) (bool, error) {
	e.Sync()
	if len(*src) == 0 {
		return false, nil
	}
	current, err := t.Snapshot()
	if err != nil {
		return false, fmt.Errorf("failed to capture current state: %w", err)
	}

	n := len(*src)
	top := (*src)[n-1]
	savedSrc, savedDst := *src, append([]entry(nil), *dst...)

	*src = (*src)[:n-1]
	*dst = e.push(*dst, current)

	e.restoring = true
	err = t.Restore(top.snapshot)
	e.restoring = false
	if err != nil {
		*src, *dst = savedSrc, savedDst
		return false, fmt.Errorf("failed to restore snapshot: %w", err)
	}
	return true, nil
}

// push prunes the stack by age, appends s and trims the oldest entries to maxSize
func (e *Engine) push(stack []entry, s Snapshot) []entry {
	stack = e.prune(stack)
	stack = append(stack, entry{snapshot: s, createdAt: e.now()})
	if over := len(stack) - e.maxSize; over > 0 {
		stack = append([]entry(nil), stack[over:]...)
	}
	return stack
}

// prune drops entries older than the retention window
func (e *Engine) prune(stack []entry) []entry {
	cutoff := e.now().Add(-e.retention)
	kept := stack[:0:0]
	for _, en := range stack {
		if !en.createdAt.Before(cutoff) {
			kept = append(kept, en)
		}
	}
	return kept
}

// Sync prunes both stacks by age
func (e *Engine) Sync() {
	e.past = e.prune(e.past)
	e.future = e.prune(e.future)
}

// Reset empties both stacks
func (e *Engine) Reset() {
	e.past = nil
	e.future = nil
	e.restoring = false
}

// CanUndo reports whether Undo would restore anything
func (e *Engine) CanUndo() bool {
	return len(e.past) > 0
}

// CanRedo reports whether Redo would restore anything
func (e *Engine) CanRedo() bool {
	return len(e.future) > 0
}

// IsDirty reports whether either stack holds an entry
func (e *Engine) IsDirty() bool {
	return e.CanUndo() || e.CanRedo()
}

// Len returns the sizes of the undo and redo stacks
func (e *Engine) Len() (past, future int) {
	return len(e.past), len(e.future)
}

// Restoring reports whether a restore is in progress
func (e *Engine) Restoring() bool {
	return e.restoring
}
