// Package tui provides the interactive Bubble Tea dashboard for fburn.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/theirongolddev/fburn/internal/cli"
	"github.com/theirongolddev/fburn/internal/config"
	"github.com/theirongolddev/fburn/internal/pipeline"
	"github.com/theirongolddev/fburn/internal/tui/components"
	"github.com/theirongolddev/fburn/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// DataLoadedMsg is sent when statement loading finishes.
type DataLoadedMsg struct {
	Result   *pipeline.LoadResult
	Err      error
	LoadTime time.Duration
}

// ProgressMsg reports file parsing progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// Options configures NewApp.
type Options struct {
	Config     config.Config
	ConfigPath string
	Paths      []string // statements to load on start
	FirstRun   bool     // show the setup form before the dashboard
	Logger     *log.Logger
}

// App is the root Bubble Tea model.
type App struct {
	session *pipeline.Session
	cfg     config.Config
	cfgPath string
	log     *log.Logger

	// Load state
	paths    []string
	loading  bool
	loadErr  error
	loadTime time.Duration

	// UI state
	width     int
	height    int
	tabs      []components.Tab
	activeTab int
	showHelp  bool

	// Per-tab state
	expenses expensesState
	budgets  budgetsState
	payments paymentsState
	settings settingsState

	// Statement path prompt
	opening   bool
	openInput textinput.Model

	// One-line feedback in the status bar
	status     string
	statusTone components.StatusTone

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals SetupValues
	needSetup bool

	// Loading, channel-based progress subscription
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg // progress + completion messages from loader goroutine
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight = 5
	headerHeight     = 2 // tab bar + source line
	statusHeight     = 1
)

// NewApp creates the dashboard around an open session.
func NewApp(sess *pipeline.Session, opts Options) App {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	a := App{
		session:   sess,
		cfg:       opts.Config,
		cfgPath:   opts.ConfigPath,
		log:       logger.WithPrefix("tui"),
		paths:     opts.Paths,
		loading:   len(opts.Paths) > 0,
		needSetup: opts.FirstRun,
		spinner:   sp,
		loadSub:   make(chan tea.Msg, 1),
		expenses:  newExpensesState(),
	}
	a.tabs = a.visibleTabs()
	if a.needSetup {
		a.setupVals = SetupValuesFrom(a.cfg)
		a.setupForm = NewSetupForm(&a.setupVals)
	}
	a.refreshExpenses()
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
	}
	if a.loading {
		cmds = append(cmds, loadDataCmd(a.paths, a.loadSub))
	}
	if a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	}
	return tea.Batch(cmds...)
}

func (a App) visibleTabs() []components.Tab {
	return components.Tabs(a.cfg.General.Budgets)
}

func (a App) activeTabID() string {
	if a.activeTab < 0 || a.activeTab >= len(a.tabs) {
		return ""
	}
	return a.tabs[a.activeTab].ID
}

func (a *App) selectTab(id string) {
	if idx := components.TabIdxByID(a.tabs, id); idx >= 0 {
		a.activeTab = idx
	}
}

// setTabs rebuilds the tab list, keeping the active tab when it is still visible.
func (a *App) setTabs() {
	current := a.activeTabID()
	a.tabs = a.visibleTabs()
	a.activeTab = 0
	a.selectTab(current)
}

func (a *App) flash(tone components.StatusTone, format string, args ...any) {
	a.status = fmt.Sprintf(format, args...)
	a.statusTone = tone
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		a.refreshExpenses()
		return a, nil

	case tea.MouseMsg:
		if a.loading || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			return a.scroll(-1), nil
		case tea.MouseButtonWheelDown:
			return a.scroll(1), nil
		case tea.MouseButtonLeft:
			if msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.loading = false
		a.loadTime = msg.LoadTime
		a.progress, a.progressMax = 0, 0
		if msg.Err != nil {
			a.loadErr = msg.Err
			a.log.Error("load failed", "err", msg.Err)
			a.selectTab(components.TabExpenses)
			a.refreshExpenses()
			return a, nil
		}
		a.loadErr = nil
		a.session.SetLoad(msg.Result)
		a.expenses.pending = make(map[int]string)
		a.payments.offset = 0
		a.refreshExpenses()
		a.flash(components.ToneOK, "Loaded %d rows from %s", len(msg.Result.Transactions), strings.Join(msg.Result.Files, ", "))
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case spinner.TickMsg:
		if a.loading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	// First-run setup intercepts all keys
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	// Text inputs own the keyboard while active
	switch {
	case a.opening:
		return a.updateOpenInput(msg)
	case a.expenses.adding:
		return a.updateAddCategoryInput(msg)
	case a.budgets.editing:
		return a.updateBudgetInput(msg)
	case a.settings.editing:
		return a.updateSettingsInput(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	if a.loading {
		if key == "q" {
			return a, tea.Quit
		}
		return a, nil
	}

	// Tab-specific bindings win over global ones
	var handled bool
	var cmd tea.Cmd
	switch a.activeTabID() {
	case components.TabExpenses:
		a, cmd, handled = a.handleExpensesKey(key)
	case components.TabBudgets:
		a, cmd, handled = a.handleBudgetsKey(key)
	case components.TabPayments:
		a, handled = a.handlePaymentsKey(key)
	case components.TabSettings:
		a, cmd, handled = a.handleSettingsKey(key)
	}
	if handled {
		return a, cmd
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "o":
		return a.startOpen()
	case "r":
		if len(a.paths) == 0 {
			a.flash(components.ToneWarn, "No statement to reload, press o to open one")
			return a, nil
		}
		return a.startLoad(a.paths)
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(a.tabs)) % len(a.tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(a.tabs)
		return a, nil
	}
	if len(msg.Runes) == 1 {
		if idx := components.TabIdxByKey(a.tabs, msg.Runes[0]); idx >= 0 {
			a.activeTab = idx
			return a, nil
		}
	}

	// Remaining keys drive the expenses table (j/k, pgup/pgdown, g/G).
	if a.activeTabID() == components.TabExpenses {
		a.expenses.table, cmd = a.expenses.table.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) scroll(delta int) App {
	switch a.activeTabID() {
	case components.TabExpenses:
		if delta < 0 {
			a.expenses.table.MoveUp(1)
		} else {
			a.expenses.table.MoveDown(1)
		}
	case components.TabBudgets:
		a.budgets.move(delta, len(a.budgetRows()))
	case components.TabPayments:
		a.payments.offset = max(0, a.payments.offset+delta)
	}
	return a
}

func (a App) startLoad(paths []string) (tea.Model, tea.Cmd) {
	a.paths = paths
	a.loading = true
	a.loadErr = nil
	a.status = ""
	a.progress, a.progressMax = 0, 0
	return a, tea.Batch(loadDataCmd(paths, a.loadSub), a.spinner.Tick)
}

func (a App) startOpen() (tea.Model, tea.Cmd) {
	ti := textinput.New()
	ti.Placeholder = "path to a .csv or .xlsx statement, or a folder"
	ti.CharLimit = 512
	ti.Width = 60
	if len(a.paths) > 0 {
		ti.SetValue(a.paths[0])
	}
	ti.Focus()
	a.opening = true
	a.openInput = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateOpenInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.opening = false
		path := strings.TrimSpace(a.openInput.Value())
		if path == "" {
			return a, nil
		}
		return a.startLoad([]string{path})
	case "esc":
		a.opening = false
		return a, nil
	}
	var cmd tea.Cmd
	a.openInput, cmd = a.openInput.Update(msg)
	return a, cmd
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		if err := a.saveSetup(); err != nil {
			a.flash(components.ToneError, "Setup not saved: %v", err)
		} else {
			a.flash(components.ToneOK, "Saved %s", a.cfgPath)
		}
		a.needSetup = false
		a.setupForm = nil
		a.refreshExpenses()
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) contentHeight() int {
	return max(minContentHeight, a.height-headerHeight-statusHeight)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

func (a App) currency() string {
	return a.cfg.General.Currency
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.loading {
		return a.viewLoading()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  fburn needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ fburn"))
	b.WriteString(subtitleStyle.Render(" · Personal Finance"))
	b.WriteString("\n\n")

	if a.progressMax > 0 {
		barW := max(20, min(40, a.width-30))
		pct := float64(a.progress) / float64(a.progressMax)
		b.WriteString(spinnerStyle.Render(a.spinner.View()))
		b.WriteString(subtitleStyle.Render(" Reading statements\n\n"))
		b.WriteString(components.ProgressBar(pct, barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progress))))
		b.WriteString(subtitleStyle.Render(" / "))
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progressMax))))
		b.WriteString(subtitleStyle.Render(" files"))
	} else {
		b.WriteString(spinnerStyle.Render(a.spinner.View()))
		b.WriteString(subtitleStyle.Render(" Looking for statements..."))
	}

	card := cardStyle.Render(b.String())
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

type binding struct{ key, desc string }

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var keys []string
	for _, tab := range a.tabs {
		keys = append(keys, string(tab.Key))
	}

	sections := []struct {
		title    string
		bindings []binding
	}{
		{"Navigation", []binding{
			{strings.Join(keys, " "), "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Move selection"},
			{"g G", "First / Last row"},
		}},
		{"Expenses", []binding{
			{"c C", "Next / Previous category"},
			{"t", "Take the suggested category"},
			{"u U", "Undo row / Undo all"},
			{"a", "Apply changes and learn keywords"},
			{"n", "New category"},
		}},
		{"General", []binding{
			{"Enter", "Edit budget or setting"},
			{"S", "Save budgets"},
			{"o", "Open a statement"},
			{"r", "Reload statement"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	card := cardStyle.Render(b.String())
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	// 1. Header: tab bar + source line
	sourceStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	sourceAccent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	source := sourceStyle.Render(" no statement loaded ")
	if files := a.session.Files(); a.session.Loaded() && a.loadErr == nil {
		sum := a.session.Result().Summary
		source = sourceStyle.Render(" ") +
			sourceAccent.Render(strings.Join(files, ", ")) +
			sourceStyle.Render(" │ "+cli.FormatDateRange(sum.FirstDate, sum.LastDate)+" │ "+
				fmt.Sprintf("%d rows ", sum.Rows))
	}
	if a.opening {
		source = sourceStyle.Render(" Open: ") + a.openInput.View()
	}
	header := components.RenderTabBar(a.tabs, a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).MaxWidth(w).Render(source)

	// 2. Status bar
	info := ""
	if a.loadTime > 0 {
		info = fmt.Sprintf("loaded in %.2fs", a.loadTime.Seconds())
	}
	statusBar := components.RenderStatusBar(w, a.hints(), a.status, a.statusTone, info)

	// 3. Content
	contentH := a.contentHeight()
	var content string
	switch a.activeTabID() {
	case components.TabExpenses:
		content = a.renderExpensesTab(cw)
	case components.TabSummary:
		content = a.renderSummaryTab(cw)
	case components.TabBudgets:
		content = a.renderBudgetsTab(cw)
	case components.TabPayments:
		content = a.renderPaymentsTab(cw, contentH)
	case components.TabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// hints returns the key hints for the status bar.
func (a App) hints() string {
	switch {
	case a.opening || a.expenses.adding || a.budgets.editing || a.settings.editing:
		return "[enter]confirm [esc]cancel"
	case a.activeTabID() == components.TabExpenses && a.session.Loaded() && a.loadErr == nil:
		return "[c]ategory [a]pply [n]ew [?]help [q]uit"
	case a.activeTabID() == components.TabBudgets:
		return "[enter]edit [S]ave [?]help [q]uit"
	default:
		return "[o]pen [?]help [q]uit"
	}
}

// emptyState renders the placeholder shown before a statement is loaded,
// or the load error when the last load failed.
func (a App) emptyState(cw int) string {
	t := theme.Active
	if a.loadErr != nil {
		errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
		dim := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
		body := errStyle.Render("Could not load statement") + "\n\n" +
			dim.Render(wrap(a.loadErr.Error(), components.CardInnerWidth(cw))) + "\n\n" +
			dim.Render("Press o to open another file or r to retry.")
		return components.ContentCard("", body, cw)
	}
	dim := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	body := dim.Render("No statement loaded.") + "\n\n" +
		dim.Render("Press o and enter the path of a .csv or .xlsx statement.\n"+
			"Columns: Date, Details, Amount, Debit/Credit.")
	return components.ContentCard("", body, cw)
}

// ─── Helpers ────────────────────────────────────────────────────

// loadDataCmd starts statement loading in a background goroutine.
// It streams ProgressMsg updates and a final DataLoadedMsg through sub.
func loadDataCmd(paths []string, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()

			// Progress callback: non-blocking send so workers aren't stalled.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			res, err := pipeline.Load(context.Background(), paths, progressFn)
			sub <- DataLoadedMsg{Result: res, Err: err, LoadTime: time.Since(start)}
		}()
		return <-sub
	}
}

// waitForLoadMsg returns the next message from the loader.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
func (a App) tabAtX(x int) int {
	return components.TabAtX(a.tabs, a.activeTab, x)
}

func wrap(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}
