package persist

import (
	"sync"

	"github.com/tordrt/schemagen/internal/schema"
)

// Memory keeps the encoded workspace in memory
type Memory struct {
	// MaxBytes caps the encoded workspace size; zero means unlimited
	MaxBytes int

	mu    sync.Mutex
	data  []byte
	saves int
}

// Load returns the stored workspace, nil when nothing was saved yet
func (m *Memory) Load() (*schema.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return decode(m.data)
}

// Save replaces the stored workspace
func (m *Memory) Save(ws *schema.Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf, err := encode(ws, m.MaxBytes)
	if err != nil {
		return err
	}
	m.data = buf
	m.saves++
	return nil
}

// Saves counts successful saves
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
