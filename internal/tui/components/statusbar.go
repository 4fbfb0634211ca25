package components

import (
	"strings"

	"github.com/theirongolddev/fburn/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusTone selects the colour of a status bar message.
type StatusTone int

const (
	ToneInfo StatusTone = iota
	ToneOK
	ToneWarn
	ToneError
)

// RenderStatusBar renders the bottom status bar: key hints on the left,
// an optional message in the middle and source info on the right.
func RenderStatusBar(width int, hints, message string, tone StatusTone, info string) string {
	t := theme.Active

	base := lipgloss.NewStyle().Background(t.Surface)
	hintStyle := base.Foreground(t.TextMuted)
	infoStyle := base.Foreground(t.TextDim)

	msgColor := t.Accent
	switch tone {
	case ToneOK:
		msgColor = t.Green
	case ToneWarn:
		msgColor = t.Orange
	case ToneError:
		msgColor = t.Red
	}
	msgStyle := base.Foreground(msgColor).Bold(true)

	left := hintStyle.Render(" " + hints)
	if message != "" {
		left += base.Render("  ") + msgStyle.Render(message)
	}
	right := infoStyle.Render(info + " ")

	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	bar := left + base.Render(strings.Repeat(" ", padding)) + right
	if lipgloss.Width(bar) > width {
		bar = left
	}
	return lipgloss.NewStyle().Width(width).MaxWidth(width).Background(t.Surface).Render(bar)
}
