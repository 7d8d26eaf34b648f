package kv

import (
	"fmt"
	"strings"
	"sync"

	charmkv "github.com/charmbracelet/charm/kv"
)

// CharmConfig holds Charm KV configuration.
type CharmConfig struct {
	// DBName is the KV database name.
	DBName string
	// AutoSync pushes to the Charm server after writes. Off by default; the
	// store is offline-first and the local replica is the source of truth.
	AutoSync bool
}

// Charm is a Store backed by a Charm KV database (BadgerDB locally, with
// optional cloud sync).
type Charm struct {
	kv       *charmkv.KV
	autoSync bool
	mu       sync.Mutex
}

// OpenCharm opens (or creates) the named Charm KV database.
func OpenCharm(cfg CharmConfig) (*Charm, error) {
	name := cfg.DBName
	if name == "" {
		name = "versedb"
	}
	db, err := charmkv.OpenWithDefaults(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}
	c := &Charm{kv: db, autoSync: cfg.AutoSync}
	if cfg.AutoSync {
		// Pull remote data on startup; a failed pull is not fatal offline.
		_ = db.Sync()
	}
	return c, nil
}

func (c *Charm) Get(key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := c.kv.Get([]byte(key))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	if data == nil {
		return nil, false, nil
	}
	return data, true, nil
}

func (c *Charm) Set(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.kv.Set([]byte(key), value); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	if c.autoSync {
		_ = c.kv.Sync()
	}
	return nil
}

func (c *Charm) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.kv.Delete([]byte(key)); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil
		}
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	if c.autoSync {
		_ = c.kv.Sync()
	}
	return nil
}

func (c *Charm) Close() error {
	if c.kv == nil {
		return nil
	}
	err := c.kv.Close()
	c.kv = nil
	return err
}
