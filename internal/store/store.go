// Package store owns the live schema workspace.
//
// Every mutating operation records a history snapshot before it changes
// anything and persists the workspace afterwards. Operations that can be
// rejected validate first, so a rejected call never leaves a history entry
// or a partial change behind. A Store is not safe for concurrent use.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tordrt/schemagen/internal/adapter"
	"github.com/tordrt/schemagen/internal/generator"
	"github.com/tordrt/schemagen/internal/history"
	"github.com/tordrt/schemagen/internal/persist"
	"github.com/tordrt/schemagen/internal/schema"
)

var (
	// ErrNotFound is returned when an id does not resolve
	ErrNotFound = errors.New("not found")
	// ErrLastDatabase is returned when removing the only database
	ErrLastDatabase = errors.New("at least one database is required")
	// ErrInvalidEdge is returned for edges whose ends do not resolve
	ErrInvalidEdge = errors.New("invalid edge")
	// ErrOutOfRange is returned for reorder indexes outside the list
	ErrOutOfRange = errors.New("index out of range")
)

// Persister loads and saves the workspace between sessions
type Persister interface {
	Load() (*schema.Workspace, error)
	Save(*schema.Workspace) error
}

// Notifier shows a warning to the user
type Notifier interface {
	Warn(title, message string)
}

// Result is the outcome of an operation whose failure the user should see
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SaveResult is the outcome of the last persistence attempt
type SaveResult struct {
	OK  bool
	Err error
}

const (
	storageFullTitle   = "Storage Full"
	storageFullMessage = "Local storage is full. Please export your current project now to avoid data loss, then remove old data or import only what you need."
)

// Options configures a Store. Every field is optional.
type Options struct {
	Family    schema.Family
	History   history.Config
	Persister Persister
	Notifier  Notifier
	Logger    *zap.SugaredLogger
	// Now is the clock used for exports and history, time.Now when nil
	Now func() time.Time
	// NewID returns the random part of new ids, a UUID when nil
	NewID func() string
	// Generator holds the options Generate passes to every target
	Generator generator.Options
	// Workspace is the initial state when the persister has none
	Workspace *schema.Workspace
}

// Store is the engine owning the workspace
type Store struct {
	adapter   *adapter.Adapter
	ws        *schema.Workspace
	history   *history.Engine
	persister Persister
	notifier  Notifier
	logger    *zap.SugaredLogger
	now       func() time.Time
	newID     func() string
	genOpts   generator.Options

	lastSave    SaveResult
	quotaWarned bool
}

// New creates a store, loading the persisted workspace when there is one
func New(opts Options) *Store {
	s := &Store{
		adapter:   adapter.For(opts.Family),
		persister: opts.Persister,
		notifier:  opts.Notifier,
		logger:    opts.Logger,
		now:       opts.Now,
		newID:     opts.NewID,
		genOpts:   opts.Generator,
		lastSave:  SaveResult{OK: true},
	}
	if s.logger == nil {
		s.logger = zap.NewNop().Sugar()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	cfg := opts.History
	if cfg.Now == nil {
		cfg.Now = s.now
	}
	s.history = history.New(cfg)

	s.ws = s.load(opts.Workspace)
	s.InitializeDatabases()
	return s
}

func (s *Store) load(initial *schema.Workspace) *schema.Workspace {
	if s.persister != nil {
		ws, err := s.persister.Load()
		if err != nil {
			s.logger.Warnw("failed to load workspace, starting from defaults", "error", err)
		} else if ws != nil {
			return ws
		}
	}
	if initial != nil {
		return cloneWorkspace(initial)
	}
	return DefaultWorkspace()
}

// Family is the database family the store generates for
func (s *Store) Family() schema.Family { return s.adapter.Family() }

// Adapter returns the family adapter
func (s *Store) Adapter() *adapter.Adapter { return s.adapter }

// Project returns a deep copy of the project
func (s *Store) Project() *schema.Project {
	return s.ws.Project.Clone()
}

// Workspace returns a deep copy of the persisted state
func (s *Store) Workspace() *schema.Workspace {
	return cloneWorkspace(s.ws)
}

// LastSave reports the outcome of the most recent save
func (s *Store) LastSave() SaveResult { return s.lastSave }

// InitializeDatabases repairs the database invariants and persists the result
func (s *Store) InitializeDatabases() {
	s.ws.RepairDatabases()
	s.persist()
}

func (s *Store) id(prefix string) string {
	return prefix + "-" + s.newID()
}

// record captures the pre-mutation state
func (s *Store) record(op string) {
	snap, err := history.Capture(&s.ws.Project)
	if err != nil {
		s.logger.Warnw("failed to capture history snapshot", "op", op, "error", err)
		return
	}
	pushed := s.history.Record(snap)
	past, future := s.history.Len()
	s.logger.Debugw("history recorded", "op", op, "pushed", pushed, "past", past, "future", future)
}

// commit prunes history and persists after a mutation
func (s *Store) commit() {
	s.history.Sync()
	s.persist()
}

func (s *Store) persist() {
	if s.persister == nil {
		s.lastSave = SaveResult{OK: true}
		return
	}
	if err := s.persister.Save(s.Workspace()); err != nil {
		s.lastSave = SaveResult{Err: err}
		s.logger.Warnw("failed to persist workspace", "error", err)
		if errors.Is(err, persist.ErrQuotaExceeded) && !s.quotaWarned {
			s.quotaWarned = true
			if s.notifier != nil {
				s.notifier.Warn(storageFullTitle, storageFullMessage)
			}
		}
		return
	}
	s.lastSave = SaveResult{OK: true}
	s.quotaWarned = false
}

// Undo restores the previous state; false when there is nothing to undo
func (s *Store) Undo() (bool, error) {
	return s.step("undo", s.history.Undo)
}

// Redo re-applies the last undone state; false when there is nothing to redo
func (s *Store) Redo() (bool, error) {
	return s.step("redo", s.history.Redo)
}

func (s *Store) step(op string, fn func(history.Target) (bool, error)) (bool, error) {
	ok, err := fn(liveState{s})
	if err != nil {
		s.logger.Warnw("history step failed", "op", op, "error", err)
		return false, err
	}
	if ok {
		past, future := s.history.Len()
		s.logger.Debugw("history "+op, "past", past, "future", future)
		s.commit()
	}
	return ok, nil
}

// CanUndo reports whether Undo would change anything
func (s *Store) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether Redo would change anything
func (s *Store) CanRedo() bool { return s.history.CanRedo() }

// IsDirty reports whether there is any history
func (s *Store) IsDirty() bool { return s.history.IsDirty() }

// HistoryLen returns the sizes of the undo and redo stacks
func (s *Store) HistoryLen() (past, future int) { return s.history.Len() }

// ResetHistory empties both history stacks
func (s *Store) ResetHistory() {
	s.history.Reset()
	s.logger.Debugw("history reset")
}

// liveState exposes the project to the history engine
type liveState struct {
	s *Store
}

func (l liveState) Snapshot() (history.Snapshot, error) {
	return history.Capture(&l.s.ws.Project)
}

// Restore replaces the project with a snapshot, keeping the current
// databases when the snapshot carries none, then repairs and clears selection
func (l liveState) Restore(snap history.Snapshot) error {
	var p schema.Project
	if err := snap.Decode(&p); err != nil {
		return err
	}
	cur := &l.s.ws.Project
	if len(p.Databases) == 0 {
		p.Databases = append([]schema.Database{}, cur.Databases...)
	}
	if p.ActiveDatabaseID == "" {
		p.ActiveDatabaseID = cur.ActiveDatabaseID
	}
	p.RepairDatabases()
	l.s.ws.Project = p
	l.s.ws.Selection = schema.Selection{}
	return nil
}

func cloneWorkspace(ws *schema.Workspace) *schema.Workspace {
	out := &schema.Workspace{
		Project:   *ws.Project.Clone(),
		Selection: ws.Selection,
		Clipboard: ws.Clipboard.Clone(),
	}
	if ws.Selected != nil {
		out.Selected = append([]string{}, ws.Selected...)
	}
	return out
}

// merged returns a copy of cur with props laid over its JSON form. A null
// prop resets the attribute.
func merged[T any](cur *T, props map[string]any) (*T, error) {
	buf, err := json.Marshal(cur)
	if err != nil {
		return nil, fmt.Errorf("failed to encode current value: %w", err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(buf, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode current value: %w", err)
	}
	for k, v := range props {
		fields[k] = v
	}
	if buf, err = json.Marshal(fields); err != nil {
		return nil, fmt.Errorf("failed to encode props: %w", err)
	}
	var out T
	if err := json.Unmarshal(buf, &out); err != nil {
		return nil, fmt.Errorf("failed to apply props: %w", err)
	}
	return &out, nil
}
