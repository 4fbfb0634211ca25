package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/fburn/internal/config"
	"github.com/theirongolddev/fburn/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Environment and flag overrides are not written back.
	cfg, err := config.LoadFrom(configPath())
	if err != nil {
		return err
	}

	vals := tui.SetupValuesFrom(cfg)
	if err := tui.NewSetupForm(&vals).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}
	vals.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.SaveTo(configPath(), cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", configPath())
	fmt.Printf("  Categories and budgets live in %s (%s)\n", cfg.DataDir(), cfg.Store.Backend)
	fmt.Println("  Run `fburn setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
