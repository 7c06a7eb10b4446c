package persist

import (
	"fmt"
	"sync"

	"github.com/tidwall/buntdb"
	"go.uber.org/zap"

	"github.com/tordrt/schemagen/internal/schema"
)

// BuntConfig configures a BuntStore
type BuntConfig struct {
	// Path of the database file, in-memory when empty
	Path string
	// MaxBytes caps the encoded workspace size; zero means unlimited
	MaxBytes int
	Logger   *zap.SugaredLogger
}

// BuntStore persists the workspace in a buntdb database
type BuntStore struct {
	db       *buntdb.DB
	maxBytes int
	logger   *zap.SugaredLogger
	once     sync.Once
}

// OpenBunt opens or creates the database
func OpenBunt(cfg BuntConfig) (*BuntStore, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	var dbcfg buntdb.Config
	if err := db.ReadConfig(&dbcfg); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to read db config: %w", err)
	}
	dbcfg.SyncPolicy = buntdb.EverySecond
	if err := db.SetConfig(dbcfg); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set db config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &BuntStore{db: db, maxBytes: cfg.MaxBytes, logger: logger.Named("persist")}, nil
}

// Load returns the stored workspace, nil when nothing was saved yet
func (s *BuntStore) Load() (*schema.Workspace, error) {
	var value string
	var found bool
	err := s.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(Key)
		if err != nil {
			if err == buntdb.ErrNotFound {
				return nil
			}
			return err
		}
		value = val
		found = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	if !found {
		return nil, nil
	}
	return decode([]byte(value))
}

// Save replaces the stored workspace
func (s *BuntStore) Save(ws *schema.Workspace) error {
	buf, err := encode(ws, s.maxBytes)
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(Key, string(buf), nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to set workspace: %w", err)
	}
	s.logger.Debugw("workspace saved", "bytes", len(buf))
	return nil
}

// Close shrinks and closes the database
func (s *BuntStore) Close() error {
	var err error
	s.once.Do(func() {
		_ = s.db.Shrink()
		err = s.db.Close()
	})
	return err
}
