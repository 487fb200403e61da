package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/slowcomb/internal/paths"
	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeyCacheSize     = "cache_size"
	cfgKeyTermLimit     = "term_limit"
	cfgKeyLogLevel      = "log_level"
	cfgKeySyncStrategy  = "sqlite.sync_strategy"
	cfgKeyBatchSize     = "sqlite.batch_size"
	cfgKeyBatchInterval = "sqlite.batch_interval"

	defaultBackend   = types.BackendSQLite
	defaultTermLimit = 500
	defaultLogLevel  = "info"
)

var errBadConfigValue = fmt.Errorf("%w: bad config value", types.ErrConfiguration)

// configFile holds the structure written to config.yaml on first run.
type configFile struct {
	Backend   string `yaml:"backend"`
	DataDir   string `yaml:"data_dir,omitempty"`
	CacheSize int    `yaml:"cache_size"`
	TermLimit int    `yaml:"term_limit"`
	LogLevel  string `yaml:"log_level"`
}

// setup resolves directories, loads config.yaml, and configures logging.
func (a *app) setup(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return sysError("resolve data dir: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.GetString(cfgKeyLogLevel))); err != nil {
		return fmt.Errorf("%w: %s: %w", errBadConfigValue, cfgKeyLogLevel, err)
	}
	if a.flags.verbose {
		level = slog.LevelDebug
	}
	if cfg.GetInt(cfgKeyCacheSize) < 0 {
		return fmt.Errorf("%w: %s must not be negative", errBadConfigValue, cfgKeyCacheSize)
	}
	if cfg.GetInt(cfgKeyTermLimit) < 1 {
		return fmt.Errorf("%w: %s must be positive", errBadConfigValue, cfgKeyTermLimit)
	}

	a.configDir = configDir
	a.dataDir = dataDir
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	a.logger.Debug("config loaded", "config_dir", configDir, "data_dir", dataDir)
	return nil
}

// loadConfig reads config.yaml from configDir using Viper. It creates the
// directory and a default config.yaml on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, sysError("create config dir: %w", err)
	}
	if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt), ""); err != nil {
		return nil, sysError("write default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyCacheSize, 0)
	v.SetDefault(cfgKeyTermLimit, defaultTermLimit)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeySyncStrategy, types.SyncImmediate)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("%w: read %s: %w", errBadConfigValue, configFileExt, err)
	}
	return v, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns nil.
func writeConfigIfMissing(path, dataDir string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	cfg := configFile{
		Backend:   defaultBackend,
		DataDir:   dataDir,
		TermLimit: defaultTermLimit,
		LogLevel:  defaultLogLevel,
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// storeConfig returns the backend configuration for the resolved data dir.
func (a *app) storeConfig() types.Config {
	return types.Config{
		Backend: strings.ToLower(a.cfg.GetString(cfgKeyBackend)),
		DataDir: a.dataDir,
		SQLite: types.SQLiteConfig{
			SyncStrategy:  a.cfg.GetString(cfgKeySyncStrategy),
			BatchSize:     a.cfg.GetInt(cfgKeyBatchSize),
			BatchInterval: a.cfg.GetInt(cfgKeyBatchInterval),
		},
	}
}
