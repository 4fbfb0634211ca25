package tui

import (
	"errors"
	"strings"

	"github.com/theirongolddev/fburn/internal/config"
	"github.com/theirongolddev/fburn/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// SetupValues holds the answers collected by the setup form.
type SetupValues struct {
	Theme    string
	Currency string
	Budgets  bool
	Backend  string
	DataDir  string
}

// SetupValuesFrom seeds the form with the current configuration.
func SetupValuesFrom(cfg config.Config) SetupValues {
	return SetupValues{
		Theme:    cfg.Appearance.Theme,
		Currency: cfg.General.Currency,
		Budgets:  cfg.General.Budgets,
		Backend:  cfg.Store.Backend,
		DataDir:  cfg.DataDir(),
	}
}

// Apply copies the answers onto cfg.
func (v SetupValues) Apply(cfg *config.Config) {
	cfg.Appearance.Theme = v.Theme
	cfg.General.Currency = strings.ToUpper(strings.TrimSpace(v.Currency))
	cfg.General.Budgets = v.Budgets
	cfg.Store.Backend = v.Backend
	if dir := strings.TrimSpace(v.DataDir); dir != "" && dir != config.DefaultDataDir() {
		cfg.General.DataDir = dir
	}
}

// NewSetupForm builds the first-run form. Answers are written into vals.
func NewSetupForm(vals *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to fburn").
				Description("Upload a bank statement, sort spending into categories\nand keep an eye on your budgets."),
			huh.NewInput().
				Title("Currency").
				Description("Shown next to every amount.").
				Placeholder("AED").
				Value(&vals.Currency).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("currency is required")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Track monthly budgets per category?").
				Value(&vals.Budgets),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where should categories and budgets be kept?").
				Options(
					huh.NewOption("JSON documents", config.BackendJSON),
					huh.NewOption("SQLite database", config.BackendSQLite),
				).
				Value(&vals.Backend),
			huh.NewInput().
				Title("Data directory").
				Value(&vals.DataDir),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
		),
	).WithShowHelp(false)
}

// saveSetup applies the form answers and writes the config file.
func (a *App) saveSetup() error {
	a.setupVals.Apply(&a.cfg)
	theme.SetActive(a.cfg.Appearance.Theme)
	a.tabs = a.visibleTabs()
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	return config.SaveTo(a.cfgPath, a.cfg)
}
