//go:build !native
// +build !native

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/versedb/versedb/internal/storage/kv"
)

// imageKey is where the serialized database image lives in the KV store.
const imageKey = "versedb:image"

// EmbeddedEngine runs the pure Go SQL engine over a scratch file
// reconstituted from a durable key-value store, the way a WASM engine inside
// a sandboxed host starts from an empty in-memory image and restores from
// the host's storage. The scratch file is disposable; the KV image is the
// only durable copy, flushed back after every mutating operation.
type EmbeddedEngine struct {
	scratchDir string
	dbName     string
	kv         kv.Store
	logger     *slog.Logger
}

// NewEmbeddedEngine creates an embedded engine persisting to the given KV
// store. scratchDir holds the disposable working file.
func NewEmbeddedEngine(scratchDir string, store kv.Store, logger *slog.Logger) *EmbeddedEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbeddedEngine{
		scratchDir: scratchDir,
		dbName:     "versedb.db",
		kv:         store,
		logger:     logger,
	}
}

func (e *EmbeddedEngine) Name() string { return "embedded" }

func (e *EmbeddedEngine) scratchPath() string {
	return filepath.Join(e.scratchDir, e.dbName)
}

// Open reconstitutes the working database from the KV image (or starts
// empty on first run) and guarantees the metadata table exists before
// anything else touches the schema.
func (e *EmbeddedEngine) Open(ctx context.Context) (*sql.DB, error) {
	if err := os.MkdirAll(e.scratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	path := e.scratchPath()

	img, ok, err := e.kv.Get(imageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored image: %w", err)
	}
	if ok {
		if err := os.WriteFile(path, img, 0o644); err != nil {
			return nil, fmt.Errorf("failed to restore image: %w", err)
		}
		e.logger.Debug("restored database image", "bytes", len(img))
	} else {
		// Always start from an empty image when nothing is stored.
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to clear scratch file: %w", err)
		}
	}

	db, err := sql.Open(DriverName, "file:"+path+"?_pragma=foreign_keys(ON)&_pragma=journal_mode(DELETE)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer discipline; the engine refuses concurrent writers anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Metadata is created before any other table; the schema version and
	// the initialized sentinel live here.
	if _, err := db.ExecContext(ctx,
		"CREATE TABLE IF NOT EXISTS app_metadata (key TEXT PRIMARY KEY, value TEXT NOT NULL)"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create metadata table: %w", err)
	}
	return db, nil
}

// Persist flushes the scratch file into the KV store. With a rollback
// journal the file is complete after every committed transaction.
func (e *EmbeddedEngine) Persist(ctx context.Context, db *sql.DB) error {
	img, err := os.ReadFile(e.scratchPath())
	if err != nil {
		return fmt.Errorf("failed to read scratch file: %w", err)
	}
	if err := e.kv.Set(imageKey, img); err != nil {
		return fmt.Errorf("failed to store image: %w", err)
	}
	return nil
}

func (e *EmbeddedEngine) Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// Delete removes the durable image and the scratch file.
func (e *EmbeddedEngine) Delete() error {
	if err := e.kv.Delete(imageKey); err != nil {
		return fmt.Errorf("failed to delete stored image: %w", err)
	}
	if err := os.Remove(e.scratchPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete scratch file: %w", err)
	}
	return nil
}

// SchemaVersion reads the explicit metadata row; the embedded engine cannot
// rely on engine-level version storage surviving the KV round-trip the way a
// file pragma does on native.
func (e *EmbeddedEngine) SchemaVersion(ctx context.Context, q querier) (int, error) {
	raw, ok, err := metadataValue(ctx, q, metaSchemaVersion)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid schema version %q: %w", raw, err)
	}
	return v, nil
}

func (e *EmbeddedEngine) SetSchemaVersion(ctx context.Context, q querier, version int) error {
	return setMetadataValue(ctx, q, metaSchemaVersion, strconv.Itoa(version))
}

// LiveTriggers is false: row-by-row trigger maintenance during the
// multi-tens-of-thousands-row bootstrap insert is prohibitively slow on this
// engine. The index is batch-built afterwards and the triggers installed then.
func (e *EmbeddedEngine) LiveTriggers() bool { return false }

// NewDefaultEngine returns the engine this build links: the embedded engine
// over the given KV store.
func NewDefaultEngine(dataDir string, store kv.Store, logger *slog.Logger) Engine {
	return NewEmbeddedEngine(dataDir, store, logger)
}
