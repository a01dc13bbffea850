package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dshills/quantaplan/internal/log"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// QUANTAPLAN_CATALOG_BACKEND=badger.
const EnvPrefix = "QUANTAPLAN"

// Catalog backends.
const (
	CatalogMemory   = "memory"
	CatalogBadger   = "badger"
	CatalogPostgres = "postgres"
)

// Storage layouts.
const (
	LayoutStatic = "static"
	LayoutDir    = "dir"
)

// Config represents the complete quantaplan configuration.
type Config struct {
	Log     log.Config    `mapstructure:"log"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Storage StorageConfig `mapstructure:"storage"`
	Planner PlannerConfig `mapstructure:"planner"`
}

// CatalogConfig selects where table definitions come from.
type CatalogConfig struct {
	Backend string `mapstructure:"backend"`
	// Path is the badger directory. Empty runs badger in memory.
	Path string `mapstructure:"path"`
	// DSN is the lib/pq connection string for the postgres backend.
	DSN string `mapstructure:"dsn"`
}

// StorageConfig selects where partition metadata comes from.
type StorageConfig struct {
	Layout  string `mapstructure:"layout"`
	DataDir string `mapstructure:"data_dir"`
}

// PlannerConfig holds plan builder options.
type PlannerConfig struct {
	DefaultSchema       string `mapstructure:"default_schema"`
	FoldScanProjections bool   `mapstructure:"fold_scan_projections"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Log: log.DefaultConfig(),
		Catalog: CatalogConfig{
			Backend: CatalogMemory,
		},
		Storage: StorageConfig{
			Layout:  LayoutStatic,
			DataDir: "./data",
		},
		Planner: PlannerConfig{
			DefaultSchema:       "public",
			FoldScanProjections: true,
		},
	}
}

// Loader reads configuration from defaults, an optional file, the
// environment and bound command line flags, in increasing precedence.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader seeded with DefaultConfig.
func NewLoader() *Loader {
	v := viper.New()
	d := DefaultConfig()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("catalog.backend", d.Catalog.Backend)
	v.SetDefault("catalog.path", d.Catalog.Path)
	v.SetDefault("catalog.dsn", d.Catalog.DSN)
	v.SetDefault("storage.layout", d.Storage.Layout)
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("planner.default_schema", d.Planner.DefaultSchema)
	v.SetDefault("planner.fold_scan_projections", d.Planner.FoldScanProjections)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// BindFlag makes a command line flag override key when the flag is set.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag to bind for %q", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads path (if non-empty), unmarshals and validates the result.
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return err
	}

	switch c.Catalog.Backend {
	case CatalogMemory, CatalogBadger:
	case CatalogPostgres:
		if c.Catalog.DSN == "" {
			return fmt.Errorf("catalog.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("invalid catalog backend: %q", c.Catalog.Backend)
	}

	switch c.Storage.Layout {
	case LayoutStatic:
	case LayoutDir:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("storage.data_dir is required for the dir layout")
		}
	default:
		return fmt.Errorf("invalid storage layout: %q", c.Storage.Layout)
	}

	if c.Planner.DefaultSchema == "" {
		return fmt.Errorf("planner.default_schema cannot be empty")
	}
	return nil
}
