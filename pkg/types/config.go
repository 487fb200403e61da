package types

import "errors"

// Config holds backend selection and parameters for Store.Attach.
type Config struct {
	Backend string       `json:"backend" yaml:"backend"`
	DataDir string       `json:"data_dir" yaml:"data_dir"`
	SQLite  SQLiteConfig `json:"sqlite" yaml:"sqlite"`
}

// SQLiteConfig controls when the SQLite backend rewrites its JSONL files.
// The zero value persists every write immediately.
type SQLiteConfig struct {
	SyncStrategy  string `json:"sync_strategy" yaml:"sync_strategy"`
	BatchSize     int    `json:"batch_size" yaml:"batch_size"`
	BatchInterval int    `json:"batch_interval" yaml:"batch_interval"` // seconds
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Sync strategies for SQLiteConfig.
const (
	SyncImmediate = "immediate"
	SyncOnClose   = "on_close"
	SyncBatch     = "batch"
)

// Batch defaults used when SyncBatch is selected without explicit values.
const (
	DefaultBatchSize     = 10
	DefaultBatchInterval = 5
)

// Config validation errors.
var (
	ErrBackendEmpty         = errors.New("backend must not be empty")
	ErrBackendUnknown       = errors.New("unknown backend")
	ErrSyncStrategyUnknown  = errors.New("unknown sync strategy")
	ErrBatchSizeInvalid     = errors.New("batch size must be positive")
	ErrBatchIntervalInvalid = errors.New("batch interval must be positive")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	return c.SQLite.Validate()
}

// Validate checks the sync settings.
func (s SQLiteConfig) Validate() error {
	switch s.SyncStrategy {
	case "", SyncImmediate, SyncOnClose:
		return nil
	case SyncBatch:
		if s.BatchSize < 0 {
			return ErrBatchSizeInvalid
		}
		if s.BatchInterval < 0 {
			return ErrBatchIntervalInvalid
		}
		return nil
	default:
		return ErrSyncStrategyUnknown
	}
}

// GetSyncStrategy returns the effective strategy, defaulting to immediate.
func (s SQLiteConfig) GetSyncStrategy() string {
	if s.SyncStrategy == "" {
		return SyncImmediate
	}
	return s.SyncStrategy
}

// GetBatchSize returns the number of writes that triggers a batch flush.
func (s SQLiteConfig) GetBatchSize() int {
	if s.BatchSize == 0 {
		return DefaultBatchSize
	}
	return s.BatchSize
}

// GetBatchInterval returns the seconds between batch flushes.
func (s SQLiteConfig) GetBatchInterval() int {
	if s.BatchInterval == 0 {
		return DefaultBatchInterval
	}
	return s.BatchInterval
}
