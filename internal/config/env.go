package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvDataDir  = "FBURN_DATA_DIR"
	EnvBackend  = "FBURN_BACKEND"
	EnvCurrency = "FBURN_CURRENCY"
	EnvBudgets  = "FBURN_BUDGETS"
	EnvAddr     = "FBURN_ADDR"
	EnvLogLevel = "FBURN_LOG_LEVEL"
)

// LoadDotEnv loads a .env file from the working directory if one exists.
// Variables already set in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// ApplyEnv overlays FBURN_* environment variables onto cfg.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.General.DataDir = v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		cfg.Store.Backend = strings.ToLower(v)
	}
	if v := os.Getenv(EnvCurrency); v != "" {
		cfg.General.Currency = strings.ToUpper(v)
	}
	if v := os.Getenv(EnvBudgets); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.General.Budgets = b
		}
	}
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
}
