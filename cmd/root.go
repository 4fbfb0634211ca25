// Package cmd implements the fburn CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/theirongolddev/fburn/internal/cli"
	"github.com/theirongolddev/fburn/internal/config"
	"github.com/theirongolddev/fburn/internal/logging"
	"github.com/theirongolddev/fburn/internal/pipeline"
	"github.com/theirongolddev/fburn/internal/store"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	flagConfig    string
	flagDataDir   string
	flagBackend   string
	flagCurrency  string
	flagNoBudgets bool
	flagLogLevel  string
	flagQuiet     bool
)

var rootCmd = &cobra.Command{
	Use:   "fburn [statement...]",
	Short: "Personal finance dashboard",
	Long: "Categorize bank statement rows by keyword, track spending against budgets,\n" +
		"and teach fburn new keywords by correcting its choices.",
	SilenceUsage: true,
	RunE:         runTUI,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Directory holding categories and budgets")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Store backend: json or sqlite")
	rootCmd.PersistentFlags().StringVar(&flagCurrency, "currency", "", "Currency code shown with amounts")
	rootCmd.PersistentFlags().BoolVar(&flagNoBudgets, "no-budgets", false, "Hide budget columns and editing")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.ConfigPath()
}

// loadConfig reads the config file, then overlays .env, the environment and
// command-line flags, in that order.
func loadConfig() (config.Config, error) {
	config.LoadDotEnv()
	cfg, err := config.LoadFrom(configPath())
	if err != nil {
		return cfg, err
	}
	config.ApplyEnv(&cfg)

	if flagDataDir != "" {
		cfg.General.DataDir = flagDataDir
	}
	if flagBackend != "" {
		cfg.Store.Backend = strings.ToLower(flagBackend)
	}
	if flagCurrency != "" {
		cfg.General.Currency = strings.ToUpper(flagCurrency)
	}
	if flagNoBudgets {
		cfg.General.Budgets = false
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	return cfg, cfg.Validate()
}

// openStore opens the configured backend and loads both documents.
func openStore(cfg config.Config, logger *logging.Logger) (*store.Store, error) {
	var b store.Backend
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		sb, err := store.OpenSQLite(cfg.DatabasePath())
		if err != nil {
			return nil, err
		}
		b = sb
	default:
		b = store.NewJSONBackend(cfg.CategoriesPath(), cfg.BudgetsPath())
	}

	st, err := store.Open(b, logger.Logger)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return st, nil
}

// env is what every data command needs: resolved config, logger, store and
// a session over the store.
type env struct {
	cfg     config.Config
	log     *logging.Logger
	store   *store.Store
	session *pipeline.Session
}

// newEnv builds an env. logOut receives log output when no log file is
// configured; nil discards it.
func newEnv(logOut io.Writer) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}
	// Terminal output only shows problems unless a level was asked for.
	if cfg.Log.File == "" && flagLogLevel == "" && os.Getenv(config.EnvLogLevel) == "" {
		logger.SetLevel(log.WarnLevel)
	}
	st, err := openStore(cfg, logger)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	return &env{
		cfg:     cfg,
		log:     logger,
		store:   st,
		session: pipeline.NewSession(st, cfg.General.Budgets, logger.Logger),
	}, nil
}

func (e *env) Close() {
	_ = e.store.Close()
	_ = e.log.Close()
}

// cliLogOut is stderr unless --quiet.
func cliLogOut() io.Writer {
	if flagQuiet {
		return nil
	}
	return os.Stderr
}

// loadStatements is the shared statement loading path used by all
// reporting commands.
func loadStatements(paths []string) (*pipeline.LoadResult, error) {
	if len(paths) == 0 {
		return nil, errors.New("no statement given")
	}
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Reading statements...\n")
	}

	progressFn := func(current, total int) {
		if flagQuiet || total < 2 {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  Parsing %s", cli.RenderProgressBar(current, total, 20))
	}

	result, err := pipeline.Load(context.Background(), paths, progressFn)
	if err != nil {
		if !flagQuiet {
			fmt.Fprintln(os.Stderr)
		}
		return nil, err
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "\r  Parsed %s rows from %d file(s)              \n",
			cli.FormatNumber(int64(len(result.Transactions))), len(result.Files))
	}
	return result, nil
}

// loadSession builds an env and loads paths into its session.
func loadSession(paths []string) (*env, error) {
	e, err := newEnv(cliLogOut())
	if err != nil {
		return nil, err
	}
	lr, err := loadStatements(paths)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.session.SetLoad(lr)
	return e, nil
}
