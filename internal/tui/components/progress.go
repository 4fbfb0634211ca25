package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fburn/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// ProgressBar renders the file loading progress with a percentage.
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	filled := max(0, min(int(pct*float64(width)), width))

	filledStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	b.WriteString(filledStyle.Render(strings.Repeat("█", filled)))
	b.WriteString(emptyStyle.Render(strings.Repeat("░", width-filled)))

	return b.String() + spaceStyle.Render(" ") + pctStyle.Render(fmt.Sprintf("%.0f%%", pct*100))
}

// ColorForPct returns green/yellow/orange/red based on how much of a
// budget has been used, where 1.0 means the full budget.
func ColorForPct(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct > 1:
		return t.Over()
	case pct >= 0.9:
		return t.Orange
	case pct >= 0.7:
		return t.Yellow
	default:
		return t.Green
	}
}

// BudgetBar renders how much of a budget is used. percentUsed is on the
// 0-100 scale and may exceed 100; the bar saturates while the label
// keeps the real figure.
func BudgetBar(percentUsed decimal.Decimal, barWidth int) string {
	t := theme.Active

	pct := percentUsed.InexactFloat64() / 100
	fill := ColorForPct(pct)
	shown := max(0, min(pct, 1))

	bar := progress.New(
		progress.WithSolidFill(string(fill)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(fill).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return bar.ViewAs(shown) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%5s%%", percentUsed.StringFixed(1)))
}
