package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// latestSchemaVersion is the version a fresh install is stamped with. The
// migration chain in migrations.go transforms any older schema to exactly
// this shape; fresh installs execute currentSchema directly and never replay
// the chain.
const latestSchemaVersion = 20

// currentSchema is the full schema at latestSchemaVersion. app_metadata comes
// first: it is consulted before any other table exists.
const currentSchema = `
-- App metadata key/value store (initialized sentinel, install id)
CREATE TABLE IF NOT EXISTS app_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- Typed user settings; type is an explicit tag, never inferred from the value
CREATE TABLE IF NOT EXISTS app_settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    type TEXT NOT NULL CHECK (type IN ('bool', 'int', 'double', 'string'))
);

-- Canonical verse table, populated once at bootstrap
CREATE TABLE IF NOT EXISTS verses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    version TEXT NOT NULL,
    book TEXT NOT NULL,
    chapter INTEGER NOT NULL,
    verse INTEGER NOT NULL,
    text TEXT NOT NULL,
    language TEXT NOT NULL DEFAULT 'en',
    themes TEXT,
    category TEXT,
    reference TEXT
);

CREATE INDEX IF NOT EXISTS idx_verses_ref ON verses(book, chapter, verse);
CREATE INDEX IF NOT EXISTS idx_verses_language ON verses(language, version);

-- Feature tables; consumers of the generic facade, no feature logic here
CREATE TABLE IF NOT EXISTS chat_messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS prayers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    body TEXT,
    answered INTEGER NOT NULL DEFAULT 0,
    answered_at TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_prayers_created ON prayers(created_at);

CREATE TABLE IF NOT EXISTS devotionals (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    body TEXT,
    verse_ref TEXT,
    published_at TEXT
);

CREATE TABLE IF NOT EXISTS reading_plans (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    description TEXT,
    days INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS reading_progress (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    plan_id INTEGER NOT NULL REFERENCES reading_plans(id) ON DELETE CASCADE,
    day INTEGER NOT NULL,
    completed_at TEXT NOT NULL DEFAULT (datetime('now'))
);

-- FTS shadow index over the verse table (external content)
CREATE VIRTUAL TABLE IF NOT EXISTS verses_fts USING fts5(
    book, chapter, verse, text,
    content='verses',
    content_rowid='id',
    tokenize='porter unicode61'
);
`

// createSchema executes the full current schema and stamps the latest
// version. Trigger installation follows the engine's indexing strategy:
// native gets live triggers immediately, embedded installs them only after
// the batch FTS build.
func createSchema(ctx context.Context, db *sql.DB, engine Engine) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, currentSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if engine.LiveTriggers() {
		if err := installFtsTriggers(ctx, tx); err != nil {
			return err
		}
	}
	if err := engine.SetSchemaVersion(ctx, tx, latestSchemaVersion); err != nil {
		return fmt.Errorf("failed to stamp schema version: %w", err)
	}
	if err := setMetadataValue(ctx, tx, metaInstallID, uuid.NewString()); err != nil {
		return err
	}
	if err := setMetadataValue(ctx, tx, metaCreatedAt, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}

// Schema introspection helpers. Migrations check their own preconditions with
// these instead of attempting a change and pattern-matching on the error.

func hasTable(ctx context.Context, q querier, name string) (bool, error) {
	var n string
	err := q.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?", name).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func hasColumn(ctx context.Context, q querier, table, column string) (bool, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return false, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			cid       int
			name, typ string
			notnull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

func hasIndex(ctx context.Context, q querier, name string) (bool, error) {
	var n string
	err := q.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'index' AND name = ?", name).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func hasTrigger(ctx context.Context, q querier, name string) (bool, error) {
	var n string
	err := q.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'trigger' AND name = ?", name).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// tableColumns returns the ordered column names of a table.
func tableColumns(ctx context.Context, q querier, table string) ([]string, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cols []string
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notnull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}
