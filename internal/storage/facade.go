package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Store is the process-wide handle every feature module talks to. It layers
// a small set of generic operations over whichever engine is active. Each
// call is a short, self-contained unit of work; callers must not hold
// long-lived transactions through it.
type Store struct {
	db     *sql.DB
	engine Engine
	logger *slog.Logger
}

// ready guards every facade operation so a handle that never completed
// initialization surfaces ErrNotInitialized rather than a generic failure.
func (s *Store) ready() error {
	if s == nil || s.db == nil {
		return ErrNotInitialized
	}
	return nil
}

// persist flushes the embedded engine's working set after a mutation.
func (s *Store) persist(ctx context.Context) error {
	if err := s.engine.Persist(ctx, s.db); err != nil {
		return fmt.Errorf("failed to persist after mutation: %w", err)
	}
	return nil
}

// DB exposes the underlying connection for the indexing and bootstrap
// stages. Feature code goes through the facade.
func (s *Store) DB() *sql.DB { return s.db }

// QueryOptions narrows a generic Query call.
type QueryOptions struct {
	Where   string
	Args    []any
	OrderBy string
	Limit   int
	Offset  int
}

// Query runs a generic SELECT * over one table and returns the rows as maps.
func (s *Store) Query(ctx context.Context, table string, opts QueryOptions) ([]map[string]any, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT * FROM %q", table)
	if opts.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(opts.Where)
	}
	if opts.OrderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(opts.OrderBy)
	}
	args := append([]any{}, opts.Args...)
	if opts.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			b.WriteString(" OFFSET ?")
			args = append(args, opts.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, &QueryError{Op: "query", Table: table, Err: err}
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{Op: "query", Table: table, Err: err}
	}

	out := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &QueryError{Op: "query", Table: table, Err: err}
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			// Drivers hand back []byte for TEXT; normalize to string.
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Op: "query", Table: table, Err: err}
	}
	return out, nil
}

// Count returns the number of rows matching an optional WHERE clause.
func (s *Store) Count(ctx context.Context, table, where string, args ...any) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	query := fmt.Sprintf("SELECT COUNT(*) FROM %q", table)
	if where != "" {
		query += " WHERE " + where
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, &QueryError{Op: "count", Table: table, Err: err}
	}
	return n, nil
}

// Insert adds one row and returns its id. Columns are taken from the map
// keys; ordering is stable so statements are deterministic.
func (s *Store) Insert(ctx context.Context, table string, row map[string]any) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if len(row) == 0 {
		return 0, &QueryError{Op: "insert", Table: table, Err: fmt.Errorf("empty row")}
	}
	cols := make([]string, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	quoted := make([]string, len(cols))
	for i, c := range cols {
		placeholders[i] = "?"
		args[i] = row[c]
		quoted[i] = fmt.Sprintf("%q", c)
	}
	query := fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)",
		table, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, &QueryError{Op: "insert", Table: table, Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &QueryError{Op: "insert", Table: table, Err: err}
	}
	if err := s.persist(ctx); err != nil {
		return id, err
	}
	return id, nil
}

// Update modifies rows matching the WHERE clause and returns how many changed.
func (s *Store) Update(ctx context.Context, table string, row map[string]any, where string, args ...any) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if len(row) == 0 {
		return 0, &QueryError{Op: "update", Table: table, Err: fmt.Errorf("empty row")}
	}
	cols := make([]string, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	sets := make([]string, len(cols))
	setArgs := make([]any, 0, len(cols)+len(args))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%q = ?", c)
		setArgs = append(setArgs, row[c])
	}
	setArgs = append(setArgs, args...)

	query := fmt.Sprintf("UPDATE %q SET %s", table, strings.Join(sets, ", "))
	if where != "" {
		query += " WHERE " + where
	}
	res, err := s.db.ExecContext(ctx, query, setArgs...)
	if err != nil {
		return 0, &QueryError{Op: "update", Table: table, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &QueryError{Op: "update", Table: table, Err: err}
	}
	if err := s.persist(ctx); err != nil {
		return n, err
	}
	return n, nil
}

// Delete removes rows matching the WHERE clause and returns how many.
func (s *Store) Delete(ctx context.Context, table, where string, args ...any) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	query := fmt.Sprintf("DELETE FROM %q", table)
	if where != "" {
		query += " WHERE " + where
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, &QueryError{Op: "delete", Table: table, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &QueryError{Op: "delete", Table: table, Err: err}
	}
	if err := s.persist(ctx); err != nil {
		return n, err
	}
	return n, nil
}

// SchemaVersion reports the active schema version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.engine.SchemaVersion(ctx, s.db)
}

// Metadata returns an app_metadata value.
func (s *Store) Metadata(ctx context.Context, key string) (string, bool, error) {
	if err := s.ready(); err != nil {
		return "", false, err
	}
	return metadataValue(ctx, s.db, key)
}
