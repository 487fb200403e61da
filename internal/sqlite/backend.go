// Package sqlite implements the SQLite storage backend for unit specs.
//
// JSONL files in the data directory are the source of truth. Attach recreates
// the SQLite database and loads every JSONL file into it; writes go to SQLite
// first and then rewrite the JSONL files atomically, either immediately or
// deferred according to the configured sync strategy.
package sqlite

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

// dbFile is the SQLite file created in the data directory.
const dbFile = "slowcomb.db"

// Backend implements types.Store using SQLite as the query engine and JSONL
// files as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dataDir  string
	db       *sql.DB
	tables   map[string]*unitsTable
	logger   *slog.Logger

	// Deferred persistence for the on_close and batch strategies. Every
	// persist rewrites the whole files, so pending writes only need counting.
	syncStrategy  string
	batchSize     int
	batchInterval time.Duration
	pending       int
	batchTimer    *time.Timer
	batchMu       sync.Mutex
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger for attach, load, and persist events.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		tables: make(map[string]*unitsTable),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// GetTable returns the table with the given name.
// Returns ErrStoreDetached if the backend is not attached and
// ErrTableNotFound if the name is not a standard table.
func (b *Backend) GetTable(name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	table, ok := b.tables[name]
	if !ok {
		return nil, types.ErrTableNotFound
	}
	return table, nil
}

// Attach creates DataDir if needed, recreates the SQLite database, and loads
// the JSONL files into it.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	// The database is a cache of the JSONL files; start from scratch.
	dbPath := filepath.Join(dataDir, dbFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	// One connection keeps PRAGMA foreign_keys in effect for every query.
	db.SetMaxOpenConns(1)

	for _, ddl := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	if err := initJSONLFiles(dataDir); err != nil {
		db.Close()
		return err
	}
	loaded, err := loadAllJSONL(db, dataDir)
	if err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.config = config
	b.dataDir = dataDir
	b.syncStrategy = config.SQLite.GetSyncStrategy()
	b.batchSize = config.SQLite.GetBatchSize()
	b.batchInterval = time.Duration(config.SQLite.GetBatchInterval()) * time.Second
	b.pending = 0
	b.attached = true
	b.tables[types.UnitsTable] = &unitsTable{backend: b}

	if b.syncStrategy == types.SyncBatch && b.batchInterval > 0 {
		b.startBatchTimer()
	}

	b.logger.Debug("store attached",
		"data_dir", dataDir, "units", loaded, "sync", b.syncStrategy)
	return nil
}

// Detach flushes deferred writes and closes the database. After Detach,
// GetTable returns ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.stopBatchTimer()
	if err := b.flushLocked(); err != nil {
		return fmt.Errorf("flush pending writes: %w", err)
	}

	if err := b.db.Close(); err != nil {
		return err
	}
	b.db = nil
	b.attached = false
	b.tables = make(map[string]*unitsTable)

	b.logger.Debug("store detached", "data_dir", b.dataDir)
	return nil
}

// generateUUID returns a new UUID v7 for unit IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// persistLocked records a completed write. With the immediate strategy the
// JSONL files are rewritten now; otherwise the write is counted and flushed
// on Detach, on the batch timer, or when the batch fills.
// The caller must hold b.mu for writing.
func (b *Backend) persistLocked() error {
	if b.syncStrategy == types.SyncImmediate {
		return b.persistAllJSONL()
	}

	b.batchMu.Lock()
	b.pending++
	full := b.syncStrategy == types.SyncBatch && b.batchSize > 0 && b.pending >= b.batchSize
	b.batchMu.Unlock()

	if full {
		return b.flushLocked()
	}
	return nil
}

// flushLocked rewrites the JSONL files if writes are pending.
// The caller must hold b.mu for writing.
func (b *Backend) flushLocked() error {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.pending == 0 {
		return nil
	}
	if err := b.persistAllJSONL(); err != nil {
		return err
	}
	b.logger.Debug("flushed pending writes", "writes", b.pending)
	b.pending = 0
	return nil
}

// startBatchTimer starts the periodic flush for the batch strategy.
func (b *Backend) startBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.batchTimer != nil {
		return
	}
	b.batchTimer = time.AfterFunc(b.batchInterval, func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if !b.attached {
			return
		}
		if err := b.flushLocked(); err != nil {
			b.logger.Warn("batch flush failed", "error", err)
		}

		b.batchMu.Lock()
		if b.batchTimer != nil {
			b.batchTimer.Reset(b.batchInterval)
		}
		b.batchMu.Unlock()
	})
}

// stopBatchTimer stops the periodic flush if running.
func (b *Backend) stopBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.batchTimer != nil {
		b.batchTimer.Stop()
		b.batchTimer = nil
	}
}
