package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// rawImportTable is the temporary table each dataset's dump populates. Always
// dropped and recreated per dataset, so an interrupted run never leaves
// partial rows behind for the restart to duplicate.
const rawImportTable = "raw_verses"

// rawBaseColumns is the fixed column layout every bundled dump must produce.
// Non-English datasets carry one extra alternate-text column at the end.
var rawBaseColumns = []string{
	"translation", "book", "chapter", "verse",
	"text_display", "text_clean", "reference", "themes",
}

const rawAltColumn = "text_alt"

// Dataset is one bundled language/translation dump: a self-contained batch
// of table-create plus bulk-insert statements producing rawImportTable.
type Dataset struct {
	Name        string // diagnostic label, e.g. "web-en"
	Language    string // injected as a literal per dataset, never read from the dump
	Translation string // translation tag filter applied during transform
	SQL         string
	HasAltText  bool // non-English dumps carry the alternate-text column
}

// Loader ingests the bundled reference corpus into the canonical verse
// table. Invoked once per installation, gated by the initialized sentinel.
type Loader struct {
	datasets []Dataset
	logger   *slog.Logger
}

// NewLoader creates a bootstrap loader over the given datasets.
func NewLoader(datasets []Dataset, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{datasets: datasets, logger: logger}
}

// Run performs the bootstrap: for each dataset it recreates the raw import
// table, executes the dump, transforms the rows into the canonical table and
// drops the raw table, emitting one progress increment per dataset. The
// sentinel is written only after every dataset succeeded; any earlier failure
// leaves it unset so the next launch restarts from the first dataset.
func (l *Loader) Run(ctx context.Context, db *sql.DB, progress ProgressFunc) error {
	initialized, _, err := metadataValue(ctx, db, metaInitialized)
	if err != nil {
		return &BootstrapError{Err: err}
	}
	if initialized == "true" {
		l.logger.Debug("bootstrap skipped, sentinel already set")
		return nil
	}

	total := len(l.datasets)
	for i, ds := range l.datasets {
		if err := l.ingest(ctx, db, ds); err != nil {
			return err
		}
		l.logger.Info("dataset ingested", "dataset", ds.Name, "language", ds.Language)
		emitProgress(progress, float64(i+1)/float64(total))
	}
	if total == 0 {
		emitProgress(progress, 1.0)
	}

	if err := setMetadataValue(ctx, db, metaInitialized, "true"); err != nil {
		return &BootstrapError{Err: fmt.Errorf("failed to set sentinel: %w", err)}
	}
	return nil
}

// ingest runs steps 1-4 for a single dataset inside one transaction, so a
// dataset is either fully applied or absent.
func (l *Loader) ingest(ctx context.Context, db *sql.DB, ds Dataset) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &BootstrapError{Dataset: ds.Name, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	// Step 1: fresh raw table. Dropping first makes a restarted bootstrap
	// safe even if a previous run died between steps.
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+rawImportTable); err != nil {
		return &BootstrapError{Dataset: ds.Name, Err: err}
	}

	// Step 2: the dump creates and fills the raw table.
	if _, err := tx.ExecContext(ctx, ds.SQL); err != nil {
		return &BootstrapError{Dataset: ds.Name, Err: fmt.Errorf("dump execution failed: %w", err)}
	}

	// Fail fast if the dump's table shape does not match the fixed layout.
	if err := l.checkShape(ctx, tx, ds); err != nil {
		return err
	}

	// A restarted bootstrap re-ingests every dataset; clear rows a previous
	// attempt committed so the transform never duplicates them.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM verses WHERE version = ? AND language = ?", ds.Translation, ds.Language); err != nil {
		return &BootstrapError{Dataset: ds.Name, Err: err}
	}

	// Step 3: transform into the canonical table. The cleaned text falls
	// back through the alternate then the display text; a verse is never
	// dropped just because its cleaned field is blank. The language tag is
	// injected as a literal, not read from the dump.
	textExpr := "COALESCE(NULLIF(text_clean, ''), NULLIF(text_display, ''), '')"
	if ds.HasAltText {
		textExpr = "COALESCE(NULLIF(text_clean, ''), NULLIF(text_alt, ''), NULLIF(text_display, ''), '')"
	}
	transform := fmt.Sprintf(`
		INSERT INTO verses (version, book, chapter, verse, text, language, themes, category, reference)
		SELECT translation, book, chapter, verse, %s, ?, NULLIF(themes, ''), NULL, NULLIF(reference, '')
		FROM %s
		WHERE translation = ?
		ORDER BY rowid`, textExpr, rawImportTable)
	if _, err := tx.ExecContext(ctx, transform, ds.Language, ds.Translation); err != nil {
		return &BootstrapError{Dataset: ds.Name, Err: fmt.Errorf("transform failed: %w", err)}
	}

	// Step 4: drop the raw table.
	if _, err := tx.ExecContext(ctx, "DROP TABLE "+rawImportTable); err != nil {
		return &BootstrapError{Dataset: ds.Name, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &BootstrapError{Dataset: ds.Name, Err: err}
	}
	return nil
}

// checkShape verifies the raw table columns match the fixed dump layout
// exactly. A mismatch is fatal and not retried.
func (l *Loader) checkShape(ctx context.Context, q querier, ds Dataset) error {
	want := rawBaseColumns
	if ds.HasAltText {
		want = append(append([]string{}, rawBaseColumns...), rawAltColumn)
	}
	got, err := tableColumns(ctx, q, rawImportTable)
	if err != nil {
		return &BootstrapError{Dataset: ds.Name, Err: err}
	}
	if len(got) != len(want) {
		return &BootstrapError{Dataset: ds.Name,
			Err: fmt.Errorf("dump table has %d columns, want %d (%v)", len(got), len(want), got)}
	}
	for i := range want {
		if got[i] != want[i] {
			return &BootstrapError{Dataset: ds.Name,
				Err: fmt.Errorf("dump column %d is %q, want %q", i, got[i], want[i])}
		}
	}
	return nil
}
