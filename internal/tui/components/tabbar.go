package components

import (
	"strings"

	"github.com/theirongolddev/fburn/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	ID     string
	Name   string
	Key    rune
	KeyPos int // position of the shortcut letter in the name (-1 if not in name)
}

// Tab identifiers.
const (
	TabExpenses = "expenses"
	TabSummary  = "summary"
	TabBudgets  = "budgets"
	TabPayments = "payments"
	TabSettings = "settings"
)

var allTabs = []Tab{
	{ID: TabExpenses, Name: "Expenses", Key: 'e', KeyPos: 0},
	{ID: TabSummary, Name: "Summary", Key: 's', KeyPos: 0},
	{ID: TabBudgets, Name: "Budgets", Key: 'b', KeyPos: 0},
	{ID: TabPayments, Name: "Payments", Key: 'p', KeyPos: 0},
	{ID: TabSettings, Name: "Settings", Key: 'x', KeyPos: -1},
}

// Tabs returns the visible tabs. The Budgets tab only shows when
// budgeting is enabled.
func Tabs(budgets bool) []Tab {
	out := make([]Tab, 0, len(allTabs))
	for _, tab := range allTabs {
		if tab.ID == TabBudgets && !budgets {
			continue
		}
		out = append(out, tab)
	}
	return out
}

// TabSeparator sits between rendered tabs.
const TabSeparator = "  "

// TabVisualWidth returns the rendered cell width of a tab label.
func TabVisualWidth(tab Tab, active bool) int {
	switch {
	case active:
		return lipgloss.Width(tab.Name)
	case tab.KeyPos >= 0 && tab.KeyPos < len(tab.Name):
		return lipgloss.Width(tab.Name) + 2 // brackets around the key
	default:
		return lipgloss.Width(tab.Name) + 3 // "[x]" suffix
	}
}

// RenderTabBar renders the tab bar with the given active index.
func RenderTabBar(tabs []Tab, activeIdx int, width int) string {
	t := theme.Active

	base := lipgloss.NewStyle().Background(t.Background)
	activeStyle := base.Foreground(t.Accent).Bold(true).Underline(true)
	inactiveStyle := base.Foreground(t.TextMuted)
	keyStyle := base.Foreground(t.Accent).Bold(true)
	dimKeyStyle := base.Foreground(t.TextDim)

	parts := make([]string, 0, len(tabs))
	for i, tab := range tabs {
		var rendered string
		switch {
		case i == activeIdx:
			rendered = activeStyle.Render(tab.Name)
		case tab.KeyPos >= 0 && tab.KeyPos < len(tab.Name):
			rendered = inactiveStyle.Render(tab.Name[:tab.KeyPos]) +
				dimKeyStyle.Render("[") + keyStyle.Render(string(tab.Name[tab.KeyPos])) + dimKeyStyle.Render("]") +
				inactiveStyle.Render(tab.Name[tab.KeyPos+1:])
		default:
			rendered = inactiveStyle.Render(tab.Name) +
				dimKeyStyle.Render("[") + keyStyle.Render(string(tab.Key)) + dimKeyStyle.Render("]")
		}
		parts = append(parts, rendered)
	}

	bar := base.Render(" ") + strings.Join(parts, base.Render(TabSeparator))
	return lipgloss.NewStyle().Width(width).MaxWidth(width).Background(t.Background).Render(bar)
}

// TabAtX returns the index of the tab under column x of the tab bar, or -1.
func TabAtX(tabs []Tab, activeIdx, x int) int {
	pos := 1
	for i, tab := range tabs {
		w := TabVisualWidth(tab, i == activeIdx)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + len(TabSeparator)
	}
	return -1
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(tabs []Tab, key rune) int {
	for i, tab := range tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}

// TabIdxByID returns the index of the tab with the given ID, or -1.
func TabIdxByID(tabs []Tab, id string) int {
	for i, tab := range tabs {
		if tab.ID == id {
			return i
		}
	}
	return -1
}
