package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-logr/logr"
)

const (
	keyEngineConfig = "engine_config"
	weightKeyPrefix = "nnue_weight:"
)

// Store wraps a BadgerDB handle used for two unrelated things that both
// benefit from a small embedded KV store rather than ad hoc files: engine
// configuration snapshots and the NNUE weight-blob cache (see weights.go).
type Store struct {
	db  *badger.DB
	log logr.Logger
}

// Open opens (creating if necessary) the BadgerDB database under dir. Pass
// an empty dir to use the platform-default location from DatabaseDir.
func Open(dir string, log logr.Logger) (*Store, error) {
	if dir == "" {
		var err error
		dir, err = DatabaseDir()
		if err != nil {
			return nil, fmt.Errorf("store: resolve database dir: %w", err)
		}
	}

	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open badger at %s: %w", dir, err)
	}

	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EngineConfig is the set of engine-wide settings a host may persist
// across process restarts: hash table size, worker count, default NNUE
// weight paths, and a default time-control policy, per SPEC_FULL.md
// section 9's description of EngineConfig.
type EngineConfig struct {
	HashSizeMB    int    `json:"hash_size_mb"`
	Threads       int    `json:"threads"`
	NNUEBigPath   string `json:"nnue_big_path"`
	NNUESmallPath string `json:"nnue_small_path"`

	// DefaultByoyomiMs, when nonzero, is used to seed a byoyomi time
	// control when a host starts a search with no explicit clock info.
	DefaultByoyomiMs int64 `json:"default_byoyomi_ms"`

	SavedAt time.Time `json:"saved_at"`
}

// DefaultEngineConfig returns the configuration a freshly installed engine
// should start with.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		HashSizeMB: 64,
		Threads:    1,
	}
}

// SaveEngineConfig persists cfg, overwriting any previously saved config.
func (s *Store) SaveEngineConfig(cfg EngineConfig) error {
	cfg.SavedAt = time.Now()
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("store: marshal engine config: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyEngineConfig), data)
	})
	if err != nil {
		return fmt.Errorf("store: save engine config: %w", err)
	}
	s.log.V(1).Info("saved engine config", "hashSizeMB", cfg.HashSizeMB, "threads", cfg.Threads)
	return nil
}

// LoadEngineConfig loads a previously saved config, or DefaultEngineConfig
// if none was ever saved.
func (s *Store) LoadEngineConfig() (EngineConfig, error) {
	cfg := DefaultEngineConfig()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyEngineConfig))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &cfg)
		})
	})
	if err != nil {
		return cfg, fmt.Errorf("store: load engine config: %w", err)
	}
	return cfg, nil
}
