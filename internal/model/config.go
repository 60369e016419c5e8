package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// TableConfig names the remote collections. Defaults match the hosted
// schema the app was first deployed against.
type TableConfig struct {
	Clients  string `mapstructure:"clients" yaml:"clients"`
	Projects string `mapstructure:"projects" yaml:"projects"`
	Invoices string `mapstructure:"invoices" yaml:"invoices"`
}

// StoreConfig holds connection settings for the remote data store.
type StoreConfig struct {
	// URL is the project root, e.g. https://xyz.supabase.co.
	URL string `mapstructure:"url" yaml:"url"`

	// APIKey is the static key sent on every request. When empty it is
	// looked up in the system keyring.
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`

	TimeoutSec int         `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	Tables     TableConfig `mapstructure:"tables" yaml:"tables"`
}

// StorageConfig holds settings for the binary object store.
type StorageConfig struct {
	Bucket string `mapstructure:"bucket" yaml:"bucket"`
}

// OutboxConfig controls the local queue of cascades awaiting replay.
type OutboxConfig struct {
	Path        string `mapstructure:"path" yaml:"path"`
	IntervalSec int    `mapstructure:"interval_sec" yaml:"interval_sec"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Dir     string `mapstructure:"dir" yaml:"dir"`
	Level   string `mapstructure:"level" yaml:"level"`
	Console bool   `mapstructure:"console" yaml:"console"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Outbox  OutboxConfig  `mapstructure:"outbox" yaml:"outbox"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// EnvPrefix is prepended to every environment override,
// e.g. WORKPAD_STORE_URL.
const EnvPrefix = "WORKPAD"

// DefaultConfigDir returns ~/.config/workpad.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "workpad")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/workpad/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := DefaultConfigDir()
	return &AppConfig{
		Store: StoreConfig{
			TimeoutSec: 30,
			Tables: TableConfig{
				Clients:  "clientes",
				Projects: "proyectos",
				Invoices: "facturas",
			},
		},
		Storage: StorageConfig{Bucket: "logos"},
		Outbox: OutboxConfig{
			Path:        filepath.Join(dir, "outbox.db"),
			IntervalSec: 60,
		},
		Log: LogConfig{
			Dir:   filepath.Join(dir, "logs"),
			Level: "info",
		},
	}
}

// setDefaults mirrors defaultAppConfig into v so that env overrides and
// partial files resolve against the same values.
func setDefaults(v *viper.Viper, d *AppConfig) {
	v.SetDefault("store.url", d.Store.URL)
	v.SetDefault("store.api_key", d.Store.APIKey)
	v.SetDefault("store.timeout_sec", d.Store.TimeoutSec)
	v.SetDefault("store.tables.clients", d.Store.Tables.Clients)
	v.SetDefault("store.tables.projects", d.Store.Tables.Projects)
	v.SetDefault("store.tables.invoices", d.Store.Tables.Invoices)
	v.SetDefault("storage.bucket", d.Storage.Bucket)
	v.SetDefault("outbox.path", d.Outbox.Path)
	v.SetDefault("outbox.interval_sec", d.Outbox.IntervalSec)
	v.SetDefault("log.dir", d.Log.Dir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.console", d.Log.Console)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A missing file is not an error: defaults plus WORKPAD_* environment
// overrides are returned instead.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, defaultAppConfig())

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Store.TimeoutSec <= 0 {
		cfg.Store.TimeoutSec = 30
	}
	if cfg.Outbox.IntervalSec <= 0 {
		cfg.Outbox.IntervalSec = 60
	}
	cfg.Store.URL = strings.TrimRight(cfg.Store.URL, "/")

	return cfg, nil
}

// Validate reports configuration that makes the remote store unreachable.
func (c *AppConfig) Validate() error {
	if c.Store.URL == "" {
		return fmt.Errorf("store.url is not set (config file or %s_STORE_URL)", EnvPrefix)
	}
	if c.Store.APIKey == "" {
		return fmt.Errorf("no API key: run 'workpad login' or set %s_STORE_API_KEY", EnvPrefix)
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed. The API key is never written;
// it belongs in the keyring.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	store := cfg.Store
	store.APIKey = ""
	v.Set("store", store)
	v.Set("storage", cfg.Storage)
	v.Set("outbox", cfg.Outbox)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
