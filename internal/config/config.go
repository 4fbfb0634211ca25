// Package config loads and saves the fburn TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// Config holds all fburn configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Store      StoreConfig      `toml:"store"`
	Appearance AppearanceConfig `toml:"appearance"`
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DataDir  string `toml:"data_dir,omitempty"`
	Currency string `toml:"currency"`
	Budgets  bool   `toml:"budgets"`
}

// StoreConfig selects where categories and budgets are kept. Relative paths
// resolve against the data directory.
type StoreConfig struct {
	Backend        string `toml:"backend"`
	CategoriesFile string `toml:"categories_file"`
	BudgetsFile    string `toml:"budgets_file"`
	Database       string `toml:"database"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr        string `toml:"addr"`
	MaxUploadMB int    `toml:"max_upload_mb"`
}

// LogConfig holds logger settings. An empty File logs to stderr.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file,omitempty"`
}

// Backend names.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Currency: "AED",
			Budgets:  true,
		},
		Store: StoreConfig{
			Backend:        BackendJSON,
			CategoriesFile: "categories.json",
			BudgetsFile:    "budgets.json",
			Database:       "fburn.db",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Server: ServerConfig{
			Addr:        "127.0.0.1:8787",
			MaxUploadMB: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fburn")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "fburn")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultDataDir returns the XDG-compliant data directory.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "fburn")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "fburn")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to the default path.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// DataDir returns the configured data directory, or the XDG default.
func (c Config) DataDir() string {
	if c.General.DataDir != "" {
		return expandHome(c.General.DataDir)
	}
	return DefaultDataDir()
}

// CategoriesPath returns the resolved categories document path.
func (c Config) CategoriesPath() string { return c.resolve(c.Store.CategoriesFile) }

// BudgetsPath returns the resolved budgets document path.
func (c Config) BudgetsPath() string { return c.resolve(c.Store.BudgetsFile) }

// DatabasePath returns the resolved SQLite database path.
func (c Config) DatabasePath() string { return c.resolve(c.Store.Database) }

func (c Config) resolve(p string) string {
	p = expandHome(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir(), p)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}

// Validate checks every setting and reports all problems at once.
func (c Config) Validate() error {
	var errs []error

	switch c.Store.Backend {
	case BackendJSON, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("store.backend %q: must be %q or %q", c.Store.Backend, BackendJSON, BackendSQLite))
	}
	if c.Store.Backend == BackendJSON && c.CategoriesPath() == c.BudgetsPath() {
		errs = append(errs, errors.New("store.categories_file and store.budgets_file must differ"))
	}
	if strings.TrimSpace(c.General.Currency) == "" {
		errs = append(errs, errors.New("general.currency must not be empty"))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level %q: %w", c.Log.Level, err))
	}
	if c.Server.MaxUploadMB < 1 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb %d: must be at least 1", c.Server.MaxUploadMB))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
