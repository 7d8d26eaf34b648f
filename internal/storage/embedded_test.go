package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versedb/versedb/internal/storage/kv"
)

func TestEmbeddedOpen_FreshStartsEmpty(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	db, err := engine.Open(ctx)
	require.NoError(t, err)
	defer func() { _ = engine.Close(db) }()

	v, err := engine.SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, v)

	// The metadata table exists before anything else touches the schema.
	ok, err := hasTable(ctx, db, "app_metadata")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEmbeddedPersist_RestoresAcrossInstances(t *testing.T) {
	ctx := context.Background()
	shared := kv.NewMemory()

	first := NewEmbeddedEngine(t.TempDir(), shared, testLogger())
	db, err := first.Open(ctx)
	require.NoError(t, err)
	require.NoError(t, createSchema(ctx, db, first))
	_, err = db.ExecContext(ctx,
		"INSERT INTO verses (version, book, chapter, verse, text, language) VALUES ('TST', 'Genesis', 1, 1, 'In the beginning.', 'en')")
	require.NoError(t, err)
	require.NoError(t, first.Persist(ctx, db))
	require.NoError(t, first.Close(db))

	// A second instance with its own scratch directory reconstitutes the
	// database from the shared durable image.
	second := NewEmbeddedEngine(t.TempDir(), shared, testLogger())
	db2, err := second.Open(ctx)
	require.NoError(t, err)
	defer func() { _ = second.Close(db2) }()

	v, err := second.SchemaVersion(ctx, db2)
	require.NoError(t, err)
	assert.Equal(t, latestSchemaVersion, v)

	var text string
	require.NoError(t, db2.QueryRowContext(ctx,
		"SELECT text FROM verses WHERE book = 'Genesis'").Scan(&text))
	assert.Equal(t, "In the beginning.", text)
}

func TestEmbeddedPersist_UnpersistedChangesAreLost(t *testing.T) {
	ctx := context.Background()
	shared := kv.NewMemory()

	first := NewEmbeddedEngine(t.TempDir(), shared, testLogger())
	db, err := first.Open(ctx)
	require.NoError(t, err)
	require.NoError(t, createSchema(ctx, db, first))
	require.NoError(t, first.Persist(ctx, db))

	// A write after the last snapshot only lives in the scratch file.
	_, err = db.ExecContext(ctx,
		"INSERT INTO verses (version, book, chapter, verse, text, language) VALUES ('TST', 'Jude', 1, 1, 'x', 'en')")
	require.NoError(t, err)
	require.NoError(t, first.Close(db))

	second := NewEmbeddedEngine(t.TempDir(), shared, testLogger())
	db2, err := second.Open(ctx)
	require.NoError(t, err)
	defer func() { _ = second.Close(db2) }()

	var n int64
	require.NoError(t, db2.QueryRowContext(ctx, "SELECT COUNT(*) FROM verses").Scan(&n))
	assert.Zero(t, n)
}

func TestEmbeddedDelete_ClearsDurableImage(t *testing.T) {
	ctx := context.Background()
	shared := kv.NewMemory()
	scratch := t.TempDir()

	engine := NewEmbeddedEngine(scratch, shared, testLogger())
	db, err := engine.Open(ctx)
	require.NoError(t, err)
	require.NoError(t, createSchema(ctx, db, engine))
	require.NoError(t, engine.Persist(ctx, db))
	require.NoError(t, engine.Close(db))

	require.NoError(t, engine.Delete())

	// Delete is safe to repeat on an already-empty engine.
	require.NoError(t, engine.Delete())

	db2, err := engine.Open(ctx)
	require.NoError(t, err)
	defer func() { _ = engine.Close(db2) }()

	v, err := engine.SchemaVersion(ctx, db2)
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestEmbeddedSchemaVersion_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db, engine := openTestDB(t)

	require.NoError(t, engine.SetSchemaVersion(ctx, db, 7))
	v, err := engine.SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	require.NoError(t, engine.SetSchemaVersion(ctx, db, 8))
	v, err = engine.SchemaVersion(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 8, v)
}

func TestEmbeddedEngine_NoLiveTriggers(t *testing.T) {
	engine := newTestEngine(t)
	assert.False(t, engine.LiveTriggers())
	assert.Equal(t, "embedded", engine.Name())
}
