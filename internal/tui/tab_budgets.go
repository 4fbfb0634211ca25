package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/fburn/internal/cli"
	"github.com/theirongolddev/fburn/internal/model"
	"github.com/theirongolddev/fburn/internal/tui/components"
	"github.com/theirongolddev/fburn/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// budgetsState tracks the budgets tab state.
type budgetsState struct {
	cursor  int
	editing bool
	input   textinput.Model
}

func (s *budgetsState) move(delta, n int) {
	s.cursor = max(0, min(s.cursor+delta, n-1))
}

// budgetRow is one category's budget joined with its spending.
type budgetRow struct {
	model.CategoryTotal
}

// budgetRows lists every category in stored order, including the ones
// with no spending in the current statement.
func (a App) budgetRows() []budgetRow {
	spent := make(map[string]model.CategoryTotal)
	for _, ct := range a.session.Result().Totals {
		spent[ct.Category] = ct
	}
	var rows []budgetRow
	for _, bud := range a.session.Store().Budgets() {
		ct, ok := spent[bud.Category]
		if !ok {
			ct = model.CategoryTotal{Category: bud.Category, Budget: bud.Amount, Remaining: bud.Amount}
		}
		rows = append(rows, budgetRow{ct})
	}
	return rows
}

func (a App) handleBudgetsKey(k string) (App, tea.Cmd, bool) {
	n := len(a.budgetRows())
	switch k {
	case "j", "down":
		a.budgets.move(1, n)
	case "k", "up":
		a.budgets.move(-1, n)
	case "g", "home":
		a.budgets.cursor = 0
	case "G", "end":
		a.budgets.move(n, n)
	case "enter":
		m, cmd := a.startBudgetEdit()
		return m, cmd, true
	case "S":
		if !a.session.Store().Dirty() {
			a.flash(components.ToneInfo, "Budgets already saved")
			break
		}
		if err := a.session.SaveBudgets(); err != nil {
			a.flash(components.ToneError, "Budgets not saved: %v", err)
			break
		}
		a.flash(components.ToneOK, "Budgets saved")
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) startBudgetEdit() (App, tea.Cmd) {
	rows := a.budgetRows()
	if a.budgets.cursor >= len(rows) {
		return a, nil
	}
	ti := textinput.New()
	ti.Placeholder = "0.00"
	ti.CharLimit = 20
	ti.Width = 14
	ti.SetValue(rows[a.budgets.cursor].Budget.StringFixed(2))
	ti.Focus()
	a.budgets.editing = true
	a.budgets.input = ti
	return a, ti.Cursor.BlinkCmd()
}

// parseBudget reads a user-entered budget such as "1,500" or "250.50".
func parseBudget(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.New("not a number")
	}
	return d, nil
}

func (a App) updateBudgetInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.budgets.editing = false
		rows := a.budgetRows()
		if a.budgets.cursor >= len(rows) {
			return a, nil
		}
		name := rows[a.budgets.cursor].Category
		amt, err := parseBudget(a.budgets.input.Value())
		if err == nil {
			err = a.session.SetBudget(name, amt)
		}
		if err != nil {
			a.flash(components.ToneError, "Budget for %s not changed: %v", name, err)
			return a, nil
		}
		a.flash(components.ToneWarn, "Budget for %s set to %s, press S to save", name, cli.FormatAmount(amt))
		return a, nil
	case "esc":
		a.budgets.editing = false
		return a, nil
	}
	var cmd tea.Cmd
	a.budgets.input, cmd = a.budgets.input.Update(msg)
	return a, cmd
}

func (a App) renderBudgetsTab(cw int) string {
	t := theme.Active
	cur := a.currency()
	rows := a.budgetRows()

	total, spent := decimal.Zero, decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Budget)
		spent = spent.Add(r.Amount)
	}
	left := total.Sub(spent)
	leftColor := t.Income()
	if left.IsNegative() {
		leftColor = t.Over()
	}
	note := "saved"
	if a.session.Store().Dirty() {
		note = "unsaved, press S"
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Total Budget", Value: cli.FormatMoney(cur, total), Note: note},
		{Label: "Spent", Value: cli.FormatMoney(cur, spent), Color: t.Spend()},
		{Label: "Remaining", Value: cli.FormatMoney(cur, left), Color: leftColor},
	}, cw))
	b.WriteString("\n")

	inner := components.CardInnerWidth(cw)
	const numW = 14
	nameW := 18
	barW := max(10, inner-nameW-numW*3-4-8)

	head := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	cell := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	sel := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
	dim := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	lines := []string{head.Render(fmt.Sprintf("%-*s %*s %*s %*s", nameW, "Category", numW, "Budget", numW, "Spent", numW, "Remaining"))}
	for i, r := range rows {
		name := fmt.Sprintf("%-*s", nameW, cli.Truncate(r.Category, nameW))
		budget := fmt.Sprintf(" %*s", numW, cli.FormatAmount(r.Budget))
		if a.budgets.editing && i == a.budgets.cursor {
			budget = " " + a.budgets.input.View()
		}
		nums := fmt.Sprintf(" %*s %*s ", numW, cli.FormatAmount(r.Amount), numW, cli.FormatDelta(r.Remaining))

		style := cell
		if i == a.budgets.cursor {
			style = sel
		}
		line := style.Render(name) + style.Render(budget) + dim.Render(nums) + blank.Render(" ")
		if r.Budget.IsPositive() {
			line += components.BudgetBar(r.PercentUsed, barW)
		} else {
			line += dim.Render("no budget")
		}
		lines = append(lines, line)
	}
	if len(rows) == 0 {
		lines = append(lines, dim.Render("No categories yet."))
	}

	b.WriteString(components.ContentCard("Budgets", strings.Join(lines, "\n"), cw))
	return b.String()
}
