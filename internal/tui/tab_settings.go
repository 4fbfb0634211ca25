package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/fburn/internal/cli"
	"github.com/theirongolddev/fburn/internal/config"
	"github.com/theirongolddev/fburn/internal/tui/components"
	"github.com/theirongolddev/fburn/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldTheme = iota
	settingsFieldCurrency
	settingsFieldBudgets
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 64
	ti.Width = 40
	return ti
}

func (a App) handleSettingsKey(k string) (App, tea.Cmd, bool) {
	switch k {
	case "j", "down":
		if a.settings.cursor < settingsFieldCount-1 {
			a.settings.cursor++
		}
	case "k", "up":
		if a.settings.cursor > 0 {
			a.settings.cursor--
		}
	case "enter":
		if a.settings.cursor == settingsFieldBudgets {
			// Toggles save immediately, no text entry needed.
			a.settingsApply(strconv.FormatBool(!a.cfg.General.Budgets))
			return a, nil, true
		}
		m, cmd := a.settingsStartEdit()
		return m, cmd, true
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) settingsStartEdit() (App, tea.Cmd) {
	ti := newSettingsInput()
	switch a.settings.cursor {
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(a.cfg.Appearance.Theme)
	case settingsFieldCurrency:
		ti.Placeholder = "AED"
		ti.SetValue(a.cfg.General.Currency)
	}
	ti.Focus()
	a.settings.editing = true
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settings.editing = false
		a.settingsApply(strings.TrimSpace(a.settings.input.Value()))
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}
	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsApply validates val for the selected field, applies it to the
// running dashboard and writes the config file.
func (a *App) settingsApply(val string) {
	cfg := a.cfg
	switch a.settings.cursor {
	case settingsFieldTheme:
		if !theme.Valid(val) {
			a.flash(components.ToneError, "Unknown theme %q", val)
			return
		}
		cfg.Appearance.Theme = val
	case settingsFieldCurrency:
		if val == "" {
			a.flash(components.ToneError, "Currency must not be empty")
			return
		}
		cfg.General.Currency = strings.ToUpper(val)
	case settingsFieldBudgets:
		b, err := strconv.ParseBool(val)
		if err != nil {
			a.flash(components.ToneError, "Budgets must be true or false")
			return
		}
		cfg.General.Budgets = b
	}

	a.cfg = cfg
	theme.SetActive(cfg.Appearance.Theme)
	a.setTabs()
	a.refreshExpenses()

	if err := config.SaveTo(a.cfgPath, cfg); err != nil {
		a.flash(components.ToneError, "Save failed: %v", err)
		return
	}
	a.flash(components.ToneOK, "Saved %s", a.cfgPath)
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	type field struct {
		label string
		value string
	}
	budgets := "off"
	if a.cfg.General.Budgets {
		budgets = "on"
	}
	fields := []field{
		{"Theme", a.cfg.Appearance.Theme},
		{"Currency", a.cfg.General.Currency},
		{"Budgets", budgets},
	}

	innerW := components.CardInnerWidth(cw)
	var formBody strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-14s ", f.label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-14s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			formBody.WriteString(marker + label + value)
			usedWidth := lipgloss.Width(marker) + lipgloss.Width(label) + lipgloss.Width(value)
			if padLen := innerW - usedWidth; padLen > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", padLen)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-14s ", f.label+":")))
			formBody.WriteString(valueStyle.Render(f.value))
		}
		formBody.WriteString("\n")
	}
	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit or toggle  [Esc] cancel"))

	store := a.session.Store()
	rows := []field{
		{"Storage", a.cfg.Store.Backend},
		{"Data directory", a.cfg.DataDir()},
		{"Config file", a.cfgPath},
		{"Categories", cli.FormatNumber(int64(len(store.Names())))},
	}
	if a.cfg.Store.Backend == config.BackendSQLite {
		rows = append(rows, field{"Database", a.cfg.DatabasePath()})
	} else {
		rows = append(rows,
			field{"Categories file", a.cfg.CategoriesPath()},
			field{"Budgets file", a.cfg.BudgetsPath()})
	}
	var infoBody strings.Builder
	for i, r := range rows {
		if i > 0 {
			infoBody.WriteString("\n")
		}
		infoBody.WriteString(labelStyle.Render(fmt.Sprintf("%-17s", r.label+":")) + valueStyle.Render(cli.Truncate(r.value, innerW-17)))
	}

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Storage", infoBody.String(), cw))
	return b.String()
}
