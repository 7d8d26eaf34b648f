// Package storage provides the offline-first reference-data store: the
// engine abstraction, the versioned schema/migration runner, the one-time
// bulk-data bootstrap pipeline and the full-text search index builder.
//
// The same read/write/search semantics hold whether the process runs
// natively (persistent local file) or inside a sandboxed runtime (durable
// key-value storage behind a pure Go SQL engine).
//
// # Database Schema
//
// Tables:
//   - app_metadata: key/value store consulted before anything else
//     (initialized sentinel, schema version on the embedded engine)
//   - app_settings: typed user settings (explicit bool/int/double/string tag)
//   - verses: the canonical reference corpus, written once at bootstrap
//   - verses_fts: FTS5 shadow index over (book, chapter, verse, text)
//   - chat_messages, prayers, devotionals, reading_plans, reading_progress:
//     feature tables consuming the same facade
//
// # Basic Usage
//
//	datasets, err := corpus.Datasets(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mgr := storage.NewManager(storage.ManagerConfig{
//	    Engine:   engine,
//	    Datasets: datasets,
//	})
//	store, err := mgr.Acquire(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.Close()
//
//	results, err := store.SearchVerses(ctx, "beginning", 10)
//
// Acquire is idempotent and at-most-once: the first caller performs the
// full open+migrate(+bootstrap) path and every concurrent caller awaits
// that same in-flight initialization.
//
// # Build Tags
//
// The package supports two build configurations:
//
// Native build (native tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Database file in the application data directory
//
//   - FTS maintained by triggers from schema creation on
//
//     CGO_ENABLED=1 go build -tags "native"
//
// Embedded build (default):
//
//   - Uses modernc.org/sqlite driver
//
//   - Working set restored from and flushed to a durable key-value store
//
//   - FTS batch-built after bootstrap, then trigger-maintained
//
//     CGO_ENABLED=0 go build
package storage
