package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Manager owns the process-wide handle. The underlying engines are
// single-connection, so every caller shares one Store; the first caller that
// observes no cached handle performs the full open+migrate(+bootstrap) and
// every concurrent caller awaits that same in-flight initialization.
type Manager struct {
	engine Engine
	loader *Loader
	logger *slog.Logger

	bootstrapProgress ProgressFunc
	ftsProgress       ProgressFunc

	group singleflight.Group
	mu    sync.Mutex
	store *Store
}

// ManagerConfig wires a Manager.
type ManagerConfig struct {
	Engine            Engine
	Datasets          []Dataset
	Logger            *slog.Logger
	BootstrapProgress ProgressFunc
	FtsProgress       ProgressFunc
}

// NewManager creates a Manager. Nothing is opened until the first Acquire.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		engine:            cfg.Engine,
		loader:            NewLoader(cfg.Datasets, logger),
		logger:            logger,
		bootstrapProgress: cfg.BootstrapProgress,
		ftsProgress:       cfg.FtsProgress,
	}
}

// Acquire returns the shared handle, initializing storage on first use.
// Idempotent: an already-open handle is returned as is. Initialization is
// not cancellable; an impatient caller must not be able to abort a
// half-applied bootstrap, so the caller's deadline is stripped.
func (m *Manager) Acquire(ctx context.Context) (*Store, error) {
	m.mu.Lock()
	if m.store != nil {
		s := m.store
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do("init", func() (interface{}, error) {
		m.mu.Lock()
		if m.store != nil {
			s := m.store
			m.mu.Unlock()
			return s, nil
		}
		m.mu.Unlock()

		s, err := m.initialize(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.store = s
		m.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

// Current returns the handle without initializing. Callers that cannot
// tolerate a full bootstrap use this and decide what to do with
// ErrNotInitialized themselves.
func (m *Manager) Current() (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		return nil, ErrNotInitialized
	}
	return m.store, nil
}

// Close releases the handle without touching persisted bytes.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		return nil
	}
	err := m.engine.Close(m.store.db)
	m.store.db = nil // outstanding handles now report ErrNotInitialized
	m.store = nil
	return err
}

// Delete closes the handle and removes every persisted byte. The manager is
// left uninitialized; the next Acquire starts from a fresh install.
func (m *Manager) Delete() error {
	m.mu.Lock()
	if m.store != nil {
		if err := m.engine.Close(m.store.db); err != nil {
			m.logger.Warn("close before delete failed", "error", err)
		}
		m.store.db = nil
		m.store = nil
	}
	m.mu.Unlock()

	if err := m.engine.Delete(); err != nil {
		return &InitializationError{Err: fmt.Errorf("delete failed: %w", err)}
	}
	return nil
}

// Reset fully clears persisted bytes and metadata and re-initializes, as if
// on first install. A failed reset leaves storage in an unknown state; the
// caller retries by calling Reset again, which always re-attempts the
// delete before acquiring.
func (m *Manager) Reset(ctx context.Context) (*Store, error) {
	if err := m.Delete(); err != nil {
		return nil, err
	}
	return m.Acquire(ctx)
}

// initialize runs the full first-acquire path: open, create-or-migrate
// schema, bootstrap if the sentinel is unset, build the FTS index where the
// engine has no live triggers, then snapshot to durable storage.
func (m *Manager) initialize(ctx context.Context) (*Store, error) {
	db, err := m.engine.Open(ctx)
	if err != nil {
		return nil, &InitializationError{Err: err}
	}

	version, err := m.engine.SchemaVersion(ctx, db)
	if err != nil {
		_ = m.engine.Close(db)
		return nil, &InitializationError{Err: fmt.Errorf("failed to read schema version: %w", err)}
	}

	switch {
	case version == 0:
		// Fresh install: execute the current full schema directly and stamp
		// the latest version. The migration chain exists only to transform
		// pre-existing data.
		m.logger.Info("creating schema", "engine", m.engine.Name(), "version", latestSchemaVersion)
		if err := createSchema(ctx, db, m.engine); err != nil {
			_ = m.engine.Close(db)
			return nil, &InitializationError{Err: err}
		}
	case version < latestSchemaVersion:
		m.logger.Info("migrating schema", "engine", m.engine.Name(), "from", version, "to", latestSchemaVersion)
		if err := Migrate(ctx, db, m.engine, version, m.logger); err != nil {
			_ = m.engine.Close(db)
			return nil, err
		}
	case version > latestSchemaVersion:
		m.logger.Warn("schema is newer than this build", "found", version, "latest", latestSchemaVersion)
	}

	store := &Store{db: db, engine: m.engine, logger: m.logger}

	initialized, _, err := metadataValue(ctx, db, metaInitialized)
	if err != nil {
		_ = m.engine.Close(db)
		return nil, &InitializationError{Err: err}
	}

	if initialized != "true" {
		if err := m.loader.Run(ctx, db, m.bootstrapProgress); err != nil {
			// Recoverable by design: the sentinel was never set, so the
			// next launch restarts the bootstrap from the first dataset.
			// The app runs with an empty corpus until then. Nothing is
			// snapshotted, so durable state stays pre-bootstrap.
			m.logger.Error("bootstrap failed, continuing with empty corpus", "error", err)
			return store, nil
		}
		if !m.engine.LiveTriggers() {
			if err := BuildFtsIndex(ctx, db, m.ftsProgress); err != nil {
				m.logger.Error("FTS build failed", "error", err)
				return store, nil
			}
			// From here on single-row mutations are maintained by the same
			// triggers the native engine uses.
			if err := installFtsTriggers(ctx, db); err != nil {
				m.logger.Error("FTS trigger install failed", "error", err)
				return store, nil
			}
		}
	}

	if err := m.engine.Persist(ctx, db); err != nil {
		m.logger.Error("initial snapshot failed", "error", err)
	}
	return store, nil
}
