package storage

import (
	"context"
	"database/sql"
)

// Engine is the contract both backends implement: open/close/delete the
// persisted database and track the schema version. The native engine is a
// file on disk; the embedded engine reconstitutes a scratch image from a
// durable key-value store and flushes it back after mutations.
type Engine interface {
	// Name identifies the engine in logs ("native" or "embedded").
	Name() string

	// Open opens or creates the persisted database and returns a live
	// connection. Callers go through Manager.Acquire, which makes the
	// whole open+migrate+bootstrap path at-most-once.
	Open(ctx context.Context) (*sql.DB, error)

	// Persist flushes the working set to durable storage after a mutating
	// operation. No-op on the native engine.
	Persist(ctx context.Context, db *sql.DB) error

	// Close releases the connection without touching persisted bytes.
	Close(db *sql.DB) error

	// Delete removes all persisted bytes. Safe to call on a closed engine.
	Delete() error

	// SchemaVersion reports the current schema version, 0 when no schema
	// exists yet. Native tracks it in PRAGMA user_version, embedded in an
	// app_metadata row.
	SchemaVersion(ctx context.Context, q querier) (int, error)

	// SetSchemaVersion stamps the schema version. Runs inside the same
	// transaction as the migration it records.
	SetSchemaVersion(ctx context.Context, q querier, version int) error

	// LiveTriggers reports whether FTS sync triggers are installed as part
	// of schema creation. True on native (trigger-per-mutation is cheap
	// there), false on embedded (triggers would make the bulk bootstrap
	// insert prohibitively slow, so the index is batch-built afterwards).
	LiveTriggers() bool
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Verse is one immutable reference-text row. Written once at bootstrap,
// read-only afterward except for administrative reset.
type Verse struct {
	ID        int64
	Version   string
	Book      string
	Chapter   int
	Verse     int
	Text      string
	Language  string
	Themes    string
	Category  string
	Reference string
}

// Metadata keys used by the initialization path.
const (
	metaInitialized   = "initialized"
	metaSchemaVersion = "schema_version"
	metaInstallID     = "install_id"
	metaCreatedAt     = "created_at"
)

// metadataValue reads a key from app_metadata. Returns ok=false when the row
// (or the table itself) does not exist.
func metadataValue(ctx context.Context, q querier, key string) (string, bool, error) {
	ok, err := hasTable(ctx, q, "app_metadata")
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	var value string
	err = q.QueryRowContext(ctx, "SELECT value FROM app_metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// setMetadataValue upserts a key in app_metadata.
func setMetadataValue(ctx context.Context, q querier, key, value string) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO app_metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	return err
}
