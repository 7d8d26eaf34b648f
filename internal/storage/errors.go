package storage

import (
	"errors"
	"fmt"
)

// Sentinel errors callers branch on with errors.Is.
var (
	// ErrNotInitialized is returned by facade operations before Acquire has
	// completed, and by any handle outliving a Close.
	ErrNotInitialized = errors.New("storage not initialized")

	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
)

// InitializationError wraps a failure during the open/migrate path. Bootstrap
// failures are not wrapped here; they are recoverable and only logged.
type InitializationError struct {
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("storage initialization failed: %v", e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// MigrationError identifies which numbered migration failed.
type MigrationError struct {
	Version int
	Err     error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %d failed: %v", e.Version, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// BootstrapError wraps a failure while ingesting a bundled dataset. Dataset
// is empty for failures outside any single dataset (sentinel write, metadata
// read).
type BootstrapError struct {
	Dataset string
	Err     error
}

func (e *BootstrapError) Error() string {
	if e.Dataset == "" {
		return fmt.Sprintf("bootstrap failed: %v", e.Err)
	}
	return fmt.Sprintf("bootstrap of dataset %q failed: %v", e.Dataset, e.Err)
}

func (e *BootstrapError) Unwrap() error { return e.Err }

// QueryError carries the operation and table of a failed facade call.
type QueryError struct {
	Op    string
	Table string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s on %q failed: %v", e.Op, e.Table, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
