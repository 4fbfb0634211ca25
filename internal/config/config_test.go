package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.General.Currency != "AED" || !cfg.General.Budgets || cfg.Store.Backend != BackendJSON {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fburn", "config.toml")
	cfg := DefaultConfig()
	cfg.General.Currency = "EUR"
	cfg.General.Budgets = false
	cfg.Store.Backend = BackendSQLite

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.General.Currency != "EUR" || got.General.Budgets || got.Store.Backend != BackendSQLite {
		t.Errorf("round trip = %+v", got.General)
	}
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[appearance]\ntheme = \"tokyo-night\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Appearance.Theme != "tokyo-night" {
		t.Errorf("theme = %q, want tokyo-night", cfg.Appearance.Theme)
	}
	if cfg.Server.Addr != "127.0.0.1:8787" {
		t.Errorf("addr = %q, want default", cfg.Server.Addr)
	}
}

func TestLoadFrom_BadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[general\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil || !strings.Contains(err.Error(), "parsing config") {
		t.Errorf("err = %v, want parsing config error", err)
	}
}

func TestPathsResolveAgainstDataDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.DataDir = "/srv/fburn"
	cfg.Store.BudgetsFile = "/elsewhere/budgets.json"

	if got := cfg.CategoriesPath(); got != "/srv/fburn/categories.json" {
		t.Errorf("CategoriesPath = %q", got)
	}
	if got := cfg.BudgetsPath(); got != "/elsewhere/budgets.json" {
		t.Errorf("BudgetsPath = %q", got)
	}
	if got := cfg.DatabasePath(); got != "/srv/fburn/fburn.db" {
		t.Errorf("DatabasePath = %q", got)
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Store.Backend = "postgres"
	cfg.Log.Level = "loud"
	cfg.Server.MaxUploadMB = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate = nil, want error")
	}
	for _, want := range []string{"store.backend", "log.level", "max_upload_mb"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvBackend, "sqlite")
	t.Setenv(EnvBudgets, "false")
	t.Setenv(EnvCurrency, "USD")

	cfg := DefaultConfig()
	ApplyEnv(&cfg)
	if cfg.Store.Backend != "sqlite" || cfg.General.Budgets || cfg.General.Currency != "USD" {
		t.Errorf("cfg after env = %+v / %+v", cfg.Store, cfg.General)
	}
}

func TestApplyEnv_NormalizesCase(t *testing.T) {
	t.Setenv(EnvBackend, "SQLite")
	t.Setenv(EnvCurrency, "usd")

	cfg := DefaultConfig()
	ApplyEnv(&cfg)
	if cfg.Store.Backend != BackendSQLite {
		t.Errorf("Backend = %q, want %q", cfg.Store.Backend, BackendSQLite)
	}
	if cfg.General.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", cfg.General.Currency)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
