package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/versedb/versedb/internal/storage/kv"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T) *EmbeddedEngine {
	t.Helper()
	return NewEmbeddedEngine(t.TempDir(), kv.NewMemory(), testLogger())
}

// openTestDB opens a throwaway database with no schema.
func openTestDB(t *testing.T) (*sql.DB, *EmbeddedEngine) {
	t.Helper()
	engine := newTestEngine(t)
	db, err := engine.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close(db) })
	return db, engine
}

// newTestStore opens a database with the full current schema applied.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, engine := openTestDB(t)
	require.NoError(t, createSchema(context.Background(), db, engine))
	return &Store{db: db, engine: engine, logger: testLogger()}
}

// rawRow is one line of a generated test dump.
type rawRow struct {
	translation, book          string
	chapter, verse             int
	textDisplay, textClean     string
	reference, themes, textAlt string
}

// testDumpSQL builds a dump in the fixed raw import layout.
func testDumpSQL(hasAlt bool, rows []rawRow) string {
	var b strings.Builder
	b.WriteString(`CREATE TABLE raw_verses (
		translation TEXT, book TEXT, chapter INTEGER, verse INTEGER,
		text_display TEXT, text_clean TEXT, reference TEXT, themes TEXT`)
	if hasAlt {
		b.WriteString(", text_alt TEXT")
	}
	b.WriteString(");\n")

	q := func(s string) string { return "'" + strings.ReplaceAll(s, "'", "''") + "'" }
	for _, r := range rows {
		fmt.Fprintf(&b, "INSERT INTO raw_verses VALUES (%s, %s, %d, %d, %s, %s, %s, %s",
			q(r.translation), q(r.book), r.chapter, r.verse,
			q(r.textDisplay), q(r.textClean), q(r.reference), q(r.themes))
		if hasAlt {
			fmt.Fprintf(&b, ", %s", q(r.textAlt))
		}
		b.WriteString(");\n")
	}
	return b.String()
}

func englishTestDataset() Dataset {
	return Dataset{
		Name:        "test-en",
		Language:    "en",
		Translation: "TST",
		HasAltText:  false,
		SQL: testDumpSQL(false, []rawRow{
			{translation: "TST", book: "Genesis", chapter: 1, verse: 1,
				textDisplay: "In the beginning God created the heavens and the earth.",
				textClean:   "In the beginning God created the heavens and the earth.",
				reference:   "Genesis 1:1", themes: "creation"},
			{translation: "TST", book: "Genesis", chapter: 1, verse: 3,
				textDisplay: "God said, let there be light, and there was light.",
				textClean:   "God said, let there be light, and there was light.",
				reference:   "Genesis 1:3", themes: "creation,light"},
			{translation: "TST", book: "John", chapter: 3, verse: 16,
				textDisplay: "For God so loved the world.",
				textClean:   "For God so loved the world.",
				reference:   "John 3:16", themes: "love"},
		}),
	}
}

func spanishTestDataset() Dataset {
	return Dataset{
		Name:        "test-es",
		Language:    "es",
		Translation: "TSE",
		HasAltText:  true,
		SQL: testDumpSQL(true, []rawRow{
			{translation: "TSE", book: "Génesis", chapter: 1, verse: 1,
				textDisplay: "En el principio creó Dios los cielos y la tierra.",
				textClean:   "En el principio creó Dios los cielos y la tierra.",
				reference:   "Génesis 1:1", themes: "creación"},
			{translation: "TSE", book: "Apocalipsis", chapter: 22, verse: 21,
				textDisplay: "La gracia sea con todos vosotros.",
				textClean:   "La gracia sea con todos vosotros.",
				reference:   "Apocalipsis 22:21", themes: "gracia"},
		}),
	}
}
