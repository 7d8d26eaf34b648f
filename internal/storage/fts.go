package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// FTS maintenance has two strategies, selected by the active engine:
//
//   - native: insert/update/delete triggers are created with the base table,
//     so the shadow index is consistent within the mutating transaction.
//   - embedded: triggers are deliberately absent during the bulk bootstrap
//     insert. The index is batch-built over the populated base table, then
//     the same trigger definitions are installed so later single-row
//     mutations are maintained exactly like the native engine.
//
// Both strategies return the same row identities for whole-word term queries;
// ordering is not guaranteed to match.

const ftsBatchSize = 5000

var ftsTriggerStatements = []string{
	`CREATE TRIGGER IF NOT EXISTS verses_ai AFTER INSERT ON verses BEGIN
		INSERT INTO verses_fts(rowid, book, chapter, verse, text)
		VALUES (new.id, new.book, new.chapter, new.verse, new.text);
	END`,
	`CREATE TRIGGER IF NOT EXISTS verses_ad AFTER DELETE ON verses BEGIN
		INSERT INTO verses_fts(verses_fts, rowid, book, chapter, verse, text)
		VALUES ('delete', old.id, old.book, old.chapter, old.verse, old.text);
	END`,
	`CREATE TRIGGER IF NOT EXISTS verses_au AFTER UPDATE ON verses BEGIN
		INSERT INTO verses_fts(verses_fts, rowid, book, chapter, verse, text)
		VALUES ('delete', old.id, old.book, old.chapter, old.verse, old.text);
		INSERT INTO verses_fts(rowid, book, chapter, verse, text)
		VALUES (new.id, new.book, new.chapter, new.verse, new.text);
	END`,
}

// installFtsTriggers creates the three sync triggers.
func installFtsTriggers(ctx context.Context, q querier) error {
	for _, stmt := range ftsTriggerStatements {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create FTS trigger: %w", err)
		}
	}
	return nil
}

// BuildFtsIndex batch-builds the shadow index from the already-populated
// verse table, emitting fractional progress in (0, 1]. Any previous index
// content is discarded first so a rebuild after an interrupted build never
// duplicates rows.
func BuildFtsIndex(ctx context.Context, db *sql.DB, progress ProgressFunc) error {
	var total int64
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM verses").Scan(&total); err != nil {
		return fmt.Errorf("failed to count verses: %w", err)
	}

	if _, err := db.ExecContext(ctx, "INSERT INTO verses_fts(verses_fts) VALUES ('delete-all')"); err != nil {
		return fmt.Errorf("failed to clear FTS index: %w", err)
	}
	if total == 0 {
		emitProgress(progress, 1.0)
		return nil
	}

	var done, lastID int64
	for done < total {
		res, err := db.ExecContext(ctx, `
			INSERT INTO verses_fts(rowid, book, chapter, verse, text)
			SELECT id, book, chapter, verse, text
			FROM verses
			WHERE id > ?
			ORDER BY id
			LIMIT ?`, lastID, ftsBatchSize)
		if err != nil {
			return fmt.Errorf("failed to build FTS batch: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
		done += n
		if err := db.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(rowid), ?) FROM verses_fts", lastID).Scan(&lastID); err != nil {
			return err
		}
		if done < total {
			emitProgress(progress, float64(done)/float64(total))
		}
	}
	emitProgress(progress, 1.0)
	return nil
}

// ftsMatchQuery turns free text into a whole-word MATCH expression. Each term
// is double-quoted so FTS5 operators in user input are treated literally.
func ftsMatchQuery(terms string) string {
	fields := strings.Fields(terms)
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+strings.ReplaceAll(f, `"`, "")+`"`)
	}
	return strings.Join(quoted, " ")
}

// SearchVerses queries the shadow index for whole-word terms, best match
// first. Note: in FTS5, 'rank' is a built-in virtual column representing
// BM25 relevance; lower values are better matches.
func (s *Store) SearchVerses(ctx context.Context, terms string, limit int) ([]Verse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	match := ftsMatchQuery(terms)
	if match == "" {
		return []Verse{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.id, v.version, v.book, v.chapter, v.verse, v.text,
		       v.language, COALESCE(v.themes, ''), COALESCE(v.category, ''), COALESCE(v.reference, '')
		FROM verses v
		JOIN verses_fts ON v.id = verses_fts.rowid
		WHERE verses_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, match, limit)
	if err != nil {
		return nil, &QueryError{Op: "search", Table: "verses", Err: err}
	}
	defer func() { _ = rows.Close() }()

	verses := make([]Verse, 0)
	for rows.Next() {
		var v Verse
		if err := rows.Scan(&v.ID, &v.Version, &v.Book, &v.Chapter, &v.Verse, &v.Text,
			&v.Language, &v.Themes, &v.Category, &v.Reference); err != nil {
			return nil, err
		}
		verses = append(verses, v)
	}
	return verses, rows.Err()
}
