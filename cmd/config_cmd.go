package cmd

import (
	"fmt"

	"github.com/theirongolddev/fburn/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", configPath())
	if configExists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Data directory: %s\n", cfg.DataDir())
	fmt.Printf("    Currency:       %s\n", cfg.General.Currency)
	fmt.Printf("    Budgets:        %v\n", cfg.General.Budgets)
	fmt.Println()

	fmt.Println("  [Store]")
	fmt.Printf("    Backend:    %s\n", cfg.Store.Backend)
	if cfg.Store.Backend == config.BackendSQLite {
		fmt.Printf("    Database:   %s\n", cfg.DatabasePath())
	} else {
		fmt.Printf("    Categories: %s\n", cfg.CategoriesPath())
		fmt.Printf("    Budgets:    %s\n", cfg.BudgetsPath())
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:        %s\n", cfg.Server.Addr)
	fmt.Printf("    Max upload:     %d MB\n", cfg.Server.MaxUploadMB)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level: %s\n", cfg.Log.Level)
	if cfg.Log.File != "" {
		fmt.Printf("    File:  %s\n", cfg.Log.File)
	}
	fmt.Println()

	fmt.Printf("  Overrides: %s, %s, %s, %s, %s, %s\n",
		config.EnvDataDir, config.EnvBackend, config.EnvCurrency, config.EnvBudgets, config.EnvAddr, config.EnvLogLevel)
	fmt.Println("  Run `fburn setup` to reconfigure.")
	return nil
}
