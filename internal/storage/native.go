//go:build native
// +build native

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/versedb/versedb/internal/storage/kv"
)

// NativeEngine wraps the file-backed SQL engine linked into the host
// process. The database is an ordinary file in the platform's application
// data directory; durability is the filesystem's problem, so Persist is a
// no-op and FTS stays trigger-synchronized from schema creation on.
type NativeEngine struct {
	dataDir string
	dbName  string
	logger  *slog.Logger
}

// NewNativeEngine creates a native engine storing its file under dataDir.
func NewNativeEngine(dataDir string, logger *slog.Logger) *NativeEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}
	return &NativeEngine{dataDir: dataDir, dbName: "versedb.db", logger: logger}
}

// DefaultDataDir resolves the application data directory following XDG.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".local", "share", "versedb")
		}
		dataHome = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataHome, "versedb")
}

func (e *NativeEngine) Name() string { return "native" }

func (e *NativeEngine) path() string {
	return filepath.Join(e.dataDir, e.dbName)
}

// Open opens or creates the database file with the engine settings the
// single-writer discipline needs.
func (e *NativeEngine) Open(ctx context.Context) (*sql.DB, error) {
	if err := os.MkdirAll(e.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open(DriverName, e.path())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return db, nil
}

// Persist is a no-op; the filesystem file is the durable copy.
func (e *NativeEngine) Persist(ctx context.Context, db *sql.DB) error { return nil }

func (e *NativeEngine) Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// Delete removes the database file along with its WAL sidecars.
func (e *NativeEngine) Delete() error {
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(e.path() + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete database file: %w", err)
		}
	}
	return nil
}

// SchemaVersion is tracked by the engine itself in the file header.
func (e *NativeEngine) SchemaVersion(ctx context.Context, q querier) (int, error) {
	var v int
	if err := q.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

func (e *NativeEngine) SetSchemaVersion(ctx context.Context, q querier, version int) error {
	// PRAGMA does not take bind parameters.
	_, err := q.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version))
	return err
}

// LiveTriggers is true: the shadow index is maintained within the same
// transaction as every mutation, so no rebuild step ever runs here.
func (e *NativeEngine) LiveTriggers() bool { return true }

// NewDefaultEngine returns the engine this build links: the file-backed
// native engine. The KV store is only used by embedded builds.
func NewDefaultEngine(dataDir string, _ kv.Store, logger *slog.Logger) Engine {
	return NewNativeEngine(dataDir, logger)
}
