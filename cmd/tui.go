package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/fburn/internal/config"
	"github.com/theirongolddev/fburn/internal/tui"
	"github.com/theirongolddev/fburn/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [statement...]",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, args []string) error {
	firstRun := !configExists()

	// Logs would corrupt the alt screen, so they only go to a configured file.
	e, err := newEnv(nil)
	if err != nil {
		return err
	}
	defer e.Close()

	theme.SetActive(e.cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(e.session, tui.Options{
		Config:     e.cfg,
		ConfigPath: configPath(),
		Paths:      args,
		FirstRun:   firstRun,
		Logger:     e.log.Logger,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// configExists reports whether the active config file is on disk.
func configExists() bool {
	if flagConfig == "" {
		return config.Exists()
	}
	_, err := os.Stat(flagConfig)
	return err == nil
}
