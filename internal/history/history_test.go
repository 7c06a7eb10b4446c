package history

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Title string            `json:"title"`
	Tags  map[string]string `json:"tags,omitempty"`
	Items []string          `json:"items,omitempty"`
}

// memTarget is a live document the engine can snapshot and restore
type memTarget struct {
	doc         doc
	failRestore bool
	engine      *Engine
	restores    int
}

func (m *memTarget) Snapshot() (Snapshot, error) {
	return Capture(m.doc)
}

func (m *memTarget) Restore(s Snapshot) error {
	if m.failRestore {
		return errors.New("boom")
	}
	m.restores++
	// mutations during a restore must not record history
	if m.engine != nil {
		snap, _ := Capture(doc{Title: "nested"})
		m.engine.Record(snap)
	}
	var d doc
	if err := s.Decode(&d); err != nil {
		return err
	}
	m.doc = d
	return nil
}

// mutate records the pre-mutation state, then applies fn
func (m *memTarget) mutate(t *testing.T, e *Engine, fn func(d *doc)) {
	t.Helper()
	snap, err := m.Snapshot()
	require.NoError(t, err)
	e.Record(snap)
	fn(&m.doc)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *clock {
	return &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func TestCaptureEqual(t *testing.T) {
	a, err := Capture(doc{Title: "x", Tags: map[string]string{"b": "2", "a": "1", "c": "3"}})
	require.NoError(t, err)
	b, err := Capture(doc{Title: "x", Tags: map[string]string{"c": "3", "a": "1", "b": "2"}})
	require.NoError(t, err)
	c, err := Capture(doc{Title: "y"})
	require.NoError(t, err)

	assert.True(t, a.Equal(b), "map order must not matter")
	assert.Equal(t, a.Sum(), b.Sum())
	assert.False(t, a.Equal(c))
	assert.False(t, a.IsZero())
	assert.True(t, Snapshot{}.IsZero())

	var out doc
	require.NoError(t, a.Decode(&out))
	assert.Equal(t, "x", out.Title)
	assert.Equal(t, "2", out.Tags["b"])

	assert.Error(t, Snapshot{}.Decode(&out))
}

func TestRoundTrip(t *testing.T) {
	e := New(Config{})
	m := &memTarget{doc: doc{Title: "s0"}}

	m.mutate(t, e, func(d *doc) { d.Title = "s1" })
	m.mutate(t, e, func(d *doc) { d.Title = "s2" })
	assert.True(t, e.CanUndo())
	assert.False(t, e.CanRedo())

	ok, err := e.Undo(m)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "s1", m.doc.Title)
	assert.True(t, e.CanRedo())

	ok, err = e.Redo(m)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "s2", m.doc.Title)

	ok, err = e.Undo(m)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = e.Undo(m)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "s0", m.doc.Title)

	ok, err = e.Undo(m)
	require.NoError(t, err)
	assert.False(t, ok, "nothing left to undo")
	assert.Equal(t, "s0", m.doc.Title)
}

func TestRecordDedup(t *testing.T) {
	e := New(Config{})
	s, err := Capture(doc{Title: "same"})
	require.NoError(t, err)

	assert.True(t, e.Record(s))
	assert.False(t, e.Record(s))
	past, _ := e.Len()
	assert.Equal(t, 1, past)

	assert.False(t, e.Record(Snapshot{}), "zero snapshots are ignored")
}

func TestRecordClearsFuture(t *testing.T) {
	e := New(Config{})
	m := &memTarget{doc: doc{Title: "a"}}
	m.mutate(t, e, func(d *doc) { d.Title = "b" })

	_, err := e.Undo(m)
	require.NoError(t, err)
	require.True(t, e.CanRedo())

	m.mutate(t, e, func(d *doc) { d.Title = "c" })
	assert.False(t, e.CanRedo())
	assert.True(t, e.IsDirty())
}

func TestMaxSize(t *testing.T) {
	e := New(Config{MaxSize: 3})
	m := &memTarget{}
	for _, title := range []string{"1", "2", "3", "4", "5"} {
		m.mutate(t, e, func(d *doc) { d.Title = title })
	}
	past, _ := e.Len()
	assert.Equal(t, 3, past)

	for e.CanUndo() {
		_, err := e.Undo(m)
		require.NoError(t, err)
	}
	assert.Equal(t, "2", m.doc.Title, "the oldest entries were evicted")
}

func TestRetention(t *testing.T) {
	c := newClock()
	e := New(Config{Retention: time.Minute, Now: c.now})
	m := &memTarget{}

	m.mutate(t, e, func(d *doc) { d.Title = "old" })
	c.advance(45 * time.Second)
	m.mutate(t, e, func(d *doc) { d.Title = "new" })
	c.advance(30 * time.Second)

	e.Sync()
	past, _ := e.Len()
	assert.Equal(t, 1, past, "entries older than the window are dropped")

	c.advance(time.Hour)
	ok, err := e.Undo(m)
	require.NoError(t, err)
	assert.False(t, ok, "undo prunes before popping")
	assert.False(t, e.IsDirty())
}

func TestRestoreGuard(t *testing.T) {
	e := New(Config{})
	m := &memTarget{doc: doc{Title: "a"}, engine: e}
	m.mutate(t, e, func(d *doc) { d.Title = "b" })

	ok, err := e.Undo(m)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, e.Restoring())

	past, future := e.Len()
	assert.Equal(t, 0, past, "records during restore are ignored")
	assert.Equal(t, 1, future)
}

func TestFailedRestoreKeepsStacks(t *testing.T) {
	e := New(Config{})
	m := &memTarget{doc: doc{Title: "a"}}
	m.mutate(t, e, func(d *doc) { d.Title = "b" })

	m.failRestore = true
	ok, err := e.Undo(m)
	require.Error(t, err)
	assert.False(t, ok)

	past, future := e.Len()
	assert.Equal(t, 1, past)
	assert.Equal(t, 0, future)
	assert.Equal(t, "b", m.doc.Title)
}

func TestReset(t *testing.T) {
	e := New(Config{})
	m := &memTarget{}
	m.mutate(t, e, func(d *doc) { d.Title = "x" })
	e.Reset()
	assert.False(t, e.IsDirty())
}

func TestConfigDefaults(t *testing.T) {
	e := New(Config{MaxSize: -1, Retention: 0})
	assert.Equal(t, DefaultMaxSize, e.maxSize)
	assert.Equal(t, DefaultRetention, e.retention)
}
