package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Migration is a numbered, ordered transformation from version N-1 to N.
// Apply must check its own precondition and return nil when the change is
// already present, so the same migration table serves both the embedded
// bootstrap path and the native upgrade path without a second definition.
type Migration struct {
	Version     int
	Description string
	Apply       func(ctx context.Context, q querier) error
}

// exec runs a statement only when cond reports the change is still missing.
func applyOnce(ctx context.Context, q querier, stmt string, applied bool) error {
	if applied {
		return nil
	}
	_, err := q.ExecContext(ctx, stmt)
	return err
}

func createTableMigration(table, stmt string) func(ctx context.Context, q querier) error {
	return func(ctx context.Context, q querier) error {
		ok, err := hasTable(ctx, q, table)
		if err != nil {
			return err
		}
		return applyOnce(ctx, q, stmt, ok)
	}
}

func addColumnMigration(table, column, stmt string) func(ctx context.Context, q querier) error {
	return func(ctx context.Context, q querier) error {
		ok, err := hasColumn(ctx, q, table, column)
		if err != nil {
			return err
		}
		return applyOnce(ctx, q, stmt, ok)
	}
}

func createIndexMigration(index, stmt string) func(ctx context.Context, q querier) error {
	return func(ctx context.Context, q querier) error {
		ok, err := hasIndex(ctx, q, index)
		if err != nil {
			return err
		}
		return applyOnce(ctx, q, stmt, ok)
	}
}

// AllMigrations contains every migration in version order. Version 1 is the
// original installed schema; fresh installs never replay the chain (they get
// currentSchema directly), so these only ever run against pre-existing data.
var AllMigrations = []Migration{
	{
		Version:     1,
		Description: "initial verse table",
		Apply: createTableMigration("verses", `
			CREATE TABLE verses (
			    id INTEGER PRIMARY KEY AUTOINCREMENT,
			    version TEXT NOT NULL,
			    book TEXT NOT NULL,
			    chapter INTEGER NOT NULL,
			    verse INTEGER NOT NULL,
			    text TEXT NOT NULL
			)`),
	},
	{
		Version:     2,
		Description: "settings key/value store",
		Apply: createTableMigration("app_settings", `
			CREATE TABLE app_settings (
			    key TEXT PRIMARY KEY,
			    value TEXT NOT NULL
			)`),
	},
	{
		Version:     3,
		Description: "explicit type tag on settings",
		Apply: func(ctx context.Context, q querier) error {
			ok, err := hasColumn(ctx, q, "app_settings", "type")
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
			// Pre-existing values were all strings.
			if _, err := q.ExecContext(ctx,
				"ALTER TABLE app_settings ADD COLUMN type TEXT NOT NULL DEFAULT 'string'"); err != nil {
				return err
			}
			return nil
		},
	},
	{
		Version:     4,
		Description: "app metadata table",
		Apply: createTableMigration("app_metadata", `
			CREATE TABLE app_metadata (
			    key TEXT PRIMARY KEY,
			    value TEXT NOT NULL
			)`),
	},
	{
		Version:     5,
		Description: "language tag on verses",
		Apply: addColumnMigration("verses", "language",
			"ALTER TABLE verses ADD COLUMN language TEXT NOT NULL DEFAULT 'en'"),
	},
	{
		Version:     6,
		Description: "theme tags on verses",
		Apply: addColumnMigration("verses", "themes",
			"ALTER TABLE verses ADD COLUMN themes TEXT"),
	},
	{
		Version:     7,
		Description: "category on verses",
		Apply: addColumnMigration("verses", "category",
			"ALTER TABLE verses ADD COLUMN category TEXT"),
	},
	{
		Version:     8,
		Description: "display reference on verses",
		Apply: addColumnMigration("verses", "reference",
			"ALTER TABLE verses ADD COLUMN reference TEXT"),
	},
	{
		Version:     9,
		Description: "verse lookup index",
		Apply: createIndexMigration("idx_verses_ref",
			"CREATE INDEX idx_verses_ref ON verses(book, chapter, verse)"),
	},
	{
		Version:     10,
		Description: "chat transcript table",
		Apply: createTableMigration("chat_messages", `
			CREATE TABLE chat_messages (
			    id INTEGER PRIMARY KEY AUTOINCREMENT,
			    role TEXT NOT NULL,
			    content TEXT NOT NULL,
			    created_at TEXT NOT NULL DEFAULT (datetime('now'))
			)`),
	},
	{
		Version:     11,
		Description: "prayer entries table",
		Apply: createTableMigration("prayers", `
			CREATE TABLE prayers (
			    id INTEGER PRIMARY KEY AUTOINCREMENT,
			    title TEXT NOT NULL,
			    body TEXT,
			    created_at TEXT NOT NULL DEFAULT (datetime('now'))
			)`),
	},
	{
		Version:     12,
		Description: "answered flags on prayers",
		Apply: func(ctx context.Context, q querier) error {
			ok, err := hasColumn(ctx, q, "prayers", "answered")
			if err != nil {
				return err
			}
			if !ok {
				if _, err := q.ExecContext(ctx,
					"ALTER TABLE prayers ADD COLUMN answered INTEGER NOT NULL DEFAULT 0"); err != nil {
					return err
				}
			}
			ok, err = hasColumn(ctx, q, "prayers", "answered_at")
			if err != nil {
				return err
			}
			return applyOnce(ctx, q, "ALTER TABLE prayers ADD COLUMN answered_at TEXT", ok)
		},
	},
	{
		Version:     13,
		Description: "devotional content table",
		Apply: createTableMigration("devotionals", `
			CREATE TABLE devotionals (
			    id INTEGER PRIMARY KEY AUTOINCREMENT,
			    title TEXT NOT NULL,
			    body TEXT,
			    verse_ref TEXT,
			    published_at TEXT
			)`),
	},
	{
		Version:     14,
		Description: "reading plans table",
		Apply: createTableMigration("reading_plans", `
			CREATE TABLE reading_plans (
			    id INTEGER PRIMARY KEY AUTOINCREMENT,
			    name TEXT NOT NULL,
			    description TEXT,
			    days INTEGER NOT NULL DEFAULT 0
			)`),
	},
	{
		Version:     15,
		Description: "reading progress table",
		Apply: createTableMigration("reading_progress", `
			CREATE TABLE reading_progress (
			    id INTEGER PRIMARY KEY AUTOINCREMENT,
			    plan_id INTEGER NOT NULL REFERENCES reading_plans(id) ON DELETE CASCADE,
			    day INTEGER NOT NULL,
			    completed_at TEXT NOT NULL DEFAULT (datetime('now'))
			)`),
	},
	{
		Version:     16,
		Description: "language/version index on verses",
		Apply: createIndexMigration("idx_verses_language",
			"CREATE INDEX idx_verses_language ON verses(language, version)"),
	},
	{
		Version:     17,
		Description: "prayer recency index",
		Apply: createIndexMigration("idx_prayers_created",
			"CREATE INDEX idx_prayers_created ON prayers(created_at)"),
	},
	{
		Version:     18,
		Description: "FTS shadow index over verses",
		Apply: createTableMigration("verses_fts", `
			CREATE VIRTUAL TABLE verses_fts USING fts5(
			    book, chapter, verse, text,
			    content='verses',
			    content_rowid='id',
			    tokenize='porter unicode61'
			)`),
	},
	{
		Version:     19,
		Description: "FTS sync triggers",
		Apply: func(ctx context.Context, q querier) error {
			ok, err := hasTrigger(ctx, q, "verses_ai")
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
			return installFtsTriggers(ctx, q)
		},
	},
	{
		Version:     20,
		Description: "rebuild FTS after tokenizer change",
		Apply: func(ctx context.Context, q querier) error {
			// Rebuild is naturally idempotent for an external-content table.
			_, err := q.ExecContext(ctx, "INSERT INTO verses_fts(verses_fts) VALUES ('rebuild')")
			return err
		},
	},
}

// Migrate brings an existing schema at version current up to
// latestSchemaVersion, one transaction per migration, stamping the version
// inside that same transaction. Comparison is numeric only.
func Migrate(ctx context.Context, db *sql.DB, engine Engine, current int, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for _, m := range AllMigrations {
		if m.Version <= current {
			continue
		}
		if err := runMigration(ctx, db, engine, m); err != nil {
			return &MigrationError{Version: m.Version, Err: err}
		}
		logger.Debug("migration applied", "version", m.Version, "description", m.Description)
	}
	return nil
}

func runMigration(ctx context.Context, db *sql.DB, engine Engine, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := m.Apply(ctx, tx); err != nil {
		return err
	}
	if err := engine.SetSchemaVersion(ctx, tx, m.Version); err != nil {
		return fmt.Errorf("failed to stamp version: %w", err)
	}
	return tx.Commit()
}
