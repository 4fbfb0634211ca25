package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/theirongolddev/fburn/internal/cli"
	"github.com/theirongolddev/fburn/internal/model"
	"github.com/theirongolddev/fburn/internal/pipeline"
	"github.com/theirongolddev/fburn/internal/tui/components"
	"github.com/theirongolddev/fburn/internal/tui/theme"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// expensesState tracks the editable expenses grid. pending holds category
// choices made in the grid that have not been applied yet, keyed by row ID.
type expensesState struct {
	table   table.Model
	pending map[int]string
	adding  bool
	input   textinput.Model
}

// expensesChrome is the number of content lines around the table.
const expensesChrome = 4

func newExpensesState() expensesState {
	// Single-letter paging keys collide with tab and edit shortcuts.
	km := table.DefaultKeyMap()
	km.PageUp = key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up"))
	km.PageDown = key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down"))
	km.HalfPageUp = key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("^u", "½ page up"))
	km.HalfPageDown = key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("^d", "½ page down"))

	return expensesState{
		table:   table.New(table.WithFocused(true), table.WithKeyMap(km)),
		pending: make(map[int]string),
	}
}

func tableStyles() table.Styles {
	t := theme.Active
	s := table.DefaultStyles()
	s.Header = s.Header.
		Foreground(t.Accent).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border).
		BorderBottom(true).
		Bold(true)
	s.Cell = s.Cell.Foreground(t.TextPrimary)
	s.Selected = s.Selected.
		Foreground(t.AccentBright).
		Background(t.SurfaceHover).
		Bold(true)
	return s
}

// refreshExpenses rebuilds the grid from the latest pipeline result.
func (a *App) refreshExpenses() {
	cw := a.contentWidth()
	if cw == 0 {
		cw = minTerminalWidth
	}
	res := a.session.Result()

	const (
		idW   = 4
		dateW = 11
		amtW  = 12
		catW  = 16
		hintW = 14
	)
	// Each column carries one cell of padding on both sides.
	detailsW := max(12, cw-(idW+dateW+amtW+catW+hintW)-6*2)

	cols := []table.Column{
		{Title: "#", Width: idW},
		{Title: "Date", Width: dateW},
		{Title: "Details", Width: detailsW},
		{Title: "Amount", Width: amtW},
		{Title: "Category", Width: catW},
		{Title: "Hint", Width: hintW},
	}

	rows := make([]table.Row, len(res.Debits))
	for i, tx := range res.Debits {
		cat := tx.Category
		if p, ok := a.expenses.pending[tx.ID]; ok {
			cat = p + " *"
		}
		hint := ""
		if s, ok := res.SuggestionFor(tx.ID); ok {
			hint = "≈ " + s.Category
		}
		rows[i] = table.Row{
			strconv.Itoa(tx.ID),
			cli.FormatDate(tx.Date),
			tx.Details,
			fmt.Sprintf("%*s", amtW, cli.FormatAmount(tx.Amount)),
			cat,
			hint,
		}
	}

	cursor := a.expenses.table.Cursor()
	a.expenses.table.SetStyles(tableStyles())
	a.expenses.table.SetColumns(cols)
	a.expenses.table.SetRows(rows)
	a.expenses.table.SetWidth(cw)
	a.expenses.table.SetHeight(max(3, a.contentHeight()-expensesChrome))
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}
	a.expenses.table.SetCursor(max(0, cursor))
}

// selectedExpense returns the debit row under the cursor.
func (a App) selectedExpense() (model.Transaction, bool) {
	debits := a.session.Result().Debits
	i := a.expenses.table.Cursor()
	if i < 0 || i >= len(debits) {
		return model.Transaction{}, false
	}
	return debits[i], true
}

// handleExpensesKey processes keys for the expenses tab.
func (a App) handleExpensesKey(k string) (App, tea.Cmd, bool) {
	if k == "n" {
		m, cmd := a.startAddCategory()
		return m, cmd, true
	}
	if !a.session.Loaded() || a.loadErr != nil {
		return a, nil, false
	}

	switch k {
	case "c":
		a.cycleCategory(1)
	case "C":
		a.cycleCategory(-1)
	case "t":
		tx, ok := a.selectedExpense()
		if !ok {
			break
		}
		if s, ok := a.session.Result().SuggestionFor(tx.ID); ok {
			a.setPending(tx, s.Category)
		}
	case "u":
		if tx, ok := a.selectedExpense(); ok {
			delete(a.expenses.pending, tx.ID)
		}
	case "U":
		a.expenses.pending = make(map[int]string)
	case "a":
		a.applyPending()
	default:
		return a, nil, false
	}
	a.refreshExpenses()
	return a, nil, true
}

// cycleCategory moves the selected row's pending category through the
// category list in stored order.
func (a *App) cycleCategory(delta int) {
	tx, ok := a.selectedExpense()
	if !ok {
		return
	}
	names := a.session.Store().Names()
	if len(names) == 0 {
		return
	}
	current := tx.Category
	if p, ok := a.expenses.pending[tx.ID]; ok {
		current = p
	}
	idx := 0
	for i, n := range names {
		if n == current {
			idx = i
			break
		}
	}
	next := names[(idx+delta+len(names))%len(names)]
	a.setPending(tx, next)
}

func (a *App) setPending(tx model.Transaction, category string) {
	if category == tx.Category {
		delete(a.expenses.pending, tx.ID)
		return
	}
	a.expenses.pending[tx.ID] = category
}

// applyPending commits the pending choices. Each changed row teaches its
// new category the row's details as a keyword.
func (a *App) applyPending() {
	if len(a.expenses.pending) == 0 {
		a.flash(components.ToneInfo, "Nothing to apply")
		return
	}
	edits := make([]pipeline.Edit, 0, len(a.expenses.pending))
	for id, cat := range a.expenses.pending {
		edits = append(edits, pipeline.Edit{ID: id, Category: cat})
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].ID < edits[j].ID })

	res, err := a.session.ApplyEdits(edits)
	if err != nil && res.Applied == 0 {
		a.flash(components.ToneError, "Changes not applied: %v", err)
		return
	}
	a.expenses.pending = make(map[int]string)
	if err != nil {
		a.flash(components.ToneWarn, "Applied %d changes, but saving keywords failed: %v", res.Applied, err)
		return
	}
	a.flash(components.ToneOK, "Applied %d changes, learned %d keywords", res.Applied, len(res.Learned))
}

func (a App) startAddCategory() (App, tea.Cmd) {
	ti := textinput.New()
	ti.Placeholder = "new category name"
	ti.CharLimit = 64
	ti.Width = 40
	ti.Focus()
	a.expenses.adding = true
	a.expenses.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateAddCategoryInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.expenses.adding = false
		name := strings.TrimSpace(a.expenses.input.Value())
		if name == "" {
			return a, nil
		}
		added, err := a.session.AddCategory(name)
		switch {
		case err != nil:
			a.flash(components.ToneError, "Could not add %q: %v", name, err)
		case added:
			a.flash(components.ToneOK, "Added category %q", name)
		default:
			a.flash(components.ToneInfo, "Category %q already exists", name)
		}
		a.refreshExpenses()
		return a, nil
	case "esc":
		a.expenses.adding = false
		return a, nil
	}
	var cmd tea.Cmd
	a.expenses.input, cmd = a.expenses.input.Update(msg)
	return a, cmd
}

func (a App) renderExpensesTab(cw int) string {
	if !a.session.Loaded() || a.loadErr != nil {
		body := a.emptyState(cw)
		if a.expenses.adding {
			body += "\n" + a.addCategoryLine()
		}
		return body
	}
	t := theme.Active
	res := a.session.Result()

	titleStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Background).Bold(true)
	metaStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Background)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Background)
	pendStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Background).Bold(true)

	uncategorized := 0
	for _, tx := range res.Debits {
		if tx.Category == model.Uncategorized {
			uncategorized++
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(" Expenses"))
	b.WriteString(metaStyle.Render(fmt.Sprintf("  %d rows · %s",
		len(res.Debits), cli.FormatMoney(a.currency(), res.Summary.DebitTotal))))
	if uncategorized > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("  · %d %s", uncategorized, model.Uncategorized)))
	}
	if n := len(a.expenses.pending); n > 0 {
		b.WriteString(pendStyle.Render(fmt.Sprintf("  · %d pending, press a to apply", n)))
	}
	b.WriteString("\n")

	if len(res.Debits) == 0 {
		b.WriteString(metaStyle.Render(" No debit rows in this statement."))
		return b.String()
	}

	b.WriteString(a.expenses.table.View())
	b.WriteString("\n")

	switch {
	case a.expenses.adding:
		b.WriteString(a.addCategoryLine())
	default:
		if tx, ok := a.selectedExpense(); ok {
			b.WriteString(a.selectedLine(tx, cw))
		}
	}
	return b.String()
}

func (a App) addCategoryLine() string {
	t := theme.Active
	label := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Background).Bold(true)
	return label.Render(" New category: ") + a.expenses.input.View()
}

// selectedLine describes the row under the cursor and what applying it
// would teach.
func (a App) selectedLine(tx model.Transaction, cw int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Background)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Background)

	line := dim.Render(" " + cli.Truncate(tx.Details, cw/2))
	if p, ok := a.expenses.pending[tx.ID]; ok {
		line += dim.Render("  will teach ") + accent.Render(p)
	} else if s, ok := a.session.Result().SuggestionFor(tx.ID); ok {
		line += dim.Render("  looks like ") + accent.Render(s.Keyword) + dim.Render(", press t for ") + accent.Render(s.Category)
	}
	return line
}
