package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// Theme colors (Flexoki Dark)
var (
	ColorBg        = lipgloss.Color("#100F0F")
	ColorSurface   = lipgloss.Color("#1C1B1A")
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorBlue      = lipgloss.Color("#4385BE")
	ColorPurple    = lipgloss.Color("#8B7EC8")
	ColorYellow    = lipgloss.Color("#D0A215")
	ColorMagenta   = lipgloss.Color("#CE5D97")
	ColorCyan      = lipgloss.Color("#24837B")
)

// SeriesColors cycle through chart slices.
var SeriesColors = []lipgloss.Color{
	ColorAccent, ColorOrange, ColorBlue, ColorYellow, ColorPurple, ColorGreen, ColorMagenta, ColorRed,
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	moneyStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	errStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
	// LeftAlign marks extra columns (besides the first) to left-align.
	LeftAlign map[int]bool
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderError renders a single user-facing error line.
func RenderError(err error) string {
	return errStyle.Render("  ✗ " + err.Error())
}

// RenderNote renders a muted one-line note.
func RenderNote(s string) string {
	return mutedStyle.Render("  " + s)
}

// RenderMoney renders a money value in the money colour.
func RenderMoney(currency string, d decimal.Decimal) string {
	if d.IsNegative() {
		return warnStyle.Render(FormatMoney(currency, d))
	}
	return moneyStyle.Render(FormatMoney(currency, d))
}

func separatorLine(left, mid, right string, widths []int) string {
	var b strings.Builder
	b.WriteString(dimStyle.Render(left))
	for i, w := range widths {
		b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		if i < len(widths)-1 {
			b.WriteString(dimStyle.Render(mid))
		}
	}
	b.WriteString(dimStyle.Render(right))
	b.WriteString("\n")
	return b.String()
}

// pad fits cell into w display columns.
func pad(cell string, w int, left bool) string {
	gap := w - lipgloss.Width(cell)
	if gap < 0 {
		gap = 0
	}
	if left {
		return " " + cell + strings.Repeat(" ", gap) + " "
	}
	return " " + strings.Repeat(" ", gap) + cell + " "
}

// RenderTable renders a bordered table with headers and rows.
// A row consisting of the single cell "---" draws a separator.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			if w := lipgloss.Width(h); w > widths[i] {
				widths[i] = w
			}
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if w := lipgloss.Width(cell); i < numCols && w > widths[i] {
					widths[i] = w
				}
			}
		}
	}

	var b strings.Builder

	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	b.WriteString(separatorLine("╭", "┬", "╮", widths))

	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			b.WriteString(headerStyle.Render(pad(h, widths[i], true)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
		b.WriteString(separatorLine("├", "┼", "┤", widths))
	}

	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			b.WriteString(separatorLine("├", "┼", "┤", widths))
			continue
		}

		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = Truncate(row[i], widths[i])
			}
			// Right-align numeric columns (all except first)
			left := i == 0 || t.LeftAlign[i]
			b.WriteString(valueStyle.Render(pad(cell, widths[i], left)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	b.WriteString(separatorLine("╰", "┴", "╯", widths))
	return b.String()
}

// RenderProgressBar renders a simple text progress bar.
func RenderProgressBar(current, total int, width int) string {
	if total <= 0 {
		return ""
	}

	pct := float64(current) / float64(total)
	if pct > 1 {
		pct = 1
	}

	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s/%s",
		mutedStyle.Render(bar),
		FormatNumber(int64(current)),
		FormatNumber(int64(total)),
	)
}

// RenderSparkline generates a unicode block sparkline from a series of values.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	maxVal := values[0]
	for _, v := range values[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int(v / maxVal * float64(len(blocks)-1))
		if idx >= len(blocks) {
			idx = len(blocks) - 1
		}
		if idx < 0 {
			idx = 0
		}
		b.WriteRune(blocks[idx])
	}

	return b.String()
}

// Bar is one labelled value in a bar or share chart.
type Bar struct {
	Label string
	Value decimal.Decimal
}

// RenderBarChart renders one horizontal bar per entry, scaled to the
// largest value, with the formatted amount after each bar.
func RenderBarChart(title, currency string, bars []Bar, maxWidth int) string {
	if len(bars) == 0 {
		return ""
	}
	labelW := 0
	maxVal := decimal.Zero
	for _, bar := range bars {
		if w := lipgloss.Width(bar.Label); w > labelW {
			labelW = w
		}
		if bar.Value.GreaterThan(maxVal) {
			maxVal = bar.Value
		}
	}
	if labelW > 20 {
		labelW = 20
	}

	var b strings.Builder
	if title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(title))
		b.WriteString("\n")
	}
	for i, bar := range bars {
		n := barLength(bar.Value, maxVal, maxWidth)
		color := SeriesColors[i%len(SeriesColors)]
		fmt.Fprintf(&b, "  %s %s %s\n",
			valueStyle.Render(pad(Truncate(bar.Label, labelW), labelW, true)),
			lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", n)),
			mutedStyle.Render(FormatMoney(currency, bar.Value)),
		)
	}
	return b.String()
}

func barLength(v, maxVal decimal.Decimal, width int) int {
	if !maxVal.IsPositive() || !v.IsPositive() {
		return 0
	}
	n := int(v.Div(maxVal).Mul(decimal.NewFromInt(int64(width))).IntPart())
	if n < 1 {
		n = 1
	}
	if n > width {
		n = width
	}
	return n
}

// RenderShareChart renders each entry's share of the total as one
// segmented bar followed by a legend with percentages.
func RenderShareChart(title string, bars []Bar, width int) string {
	total := decimal.Zero
	for _, bar := range bars {
		total = total.Add(bar.Value)
	}
	if !total.IsPositive() || width <= 0 {
		return ""
	}

	var b strings.Builder
	if title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(title))
		b.WriteString("\n")
	}

	shares := Shares(bars, width)
	b.WriteString("  ")
	for i, n := range shares {
		color := SeriesColors[i%len(SeriesColors)]
		b.WriteString(lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", n)))
	}
	b.WriteString("\n")

	for i, bar := range bars {
		color := SeriesColors[i%len(SeriesColors)]
		pct := bar.Value.Div(total).Mul(decimal.NewFromInt(100))
		fmt.Fprintf(&b, "  %s %s %s\n",
			lipgloss.NewStyle().Foreground(color).Render("■"),
			valueStyle.Render(bar.Label),
			mutedStyle.Render(FormatPercent(pct)),
		)
	}
	return b.String()
}

// Shares splits width cells across bars proportionally using largest
// remainders, so the segments always add up to width.
func Shares(bars []Bar, width int) []int {
	total := decimal.Zero
	for _, bar := range bars {
		total = total.Add(bar.Value)
	}
	out := make([]int, len(bars))
	if !total.IsPositive() {
		return out
	}

	type rem struct {
		idx  int
		frac decimal.Decimal
	}
	rems := make([]rem, len(bars))
	used := 0
	w := decimal.NewFromInt(int64(width))
	for i, bar := range bars {
		exact := bar.Value.Mul(w).Div(total)
		floor := exact.Floor()
		out[i] = int(floor.IntPart())
		used += out[i]
		rems[i] = rem{idx: i, frac: exact.Sub(floor)}
	}
	for left := width - used; left > 0; left-- {
		best := -1
		for j, r := range rems {
			if best < 0 || r.frac.GreaterThan(rems[best].frac) {
				best = j
			}
		}
		out[rems[best].idx]++
		rems[best].frac = decimal.NewFromInt(-1)
	}
	return out
}
