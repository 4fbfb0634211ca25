package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/fburn/internal/cli"
	"github.com/theirongolddev/fburn/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a unicode sparkline from values.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	peak := values[0]
	for _, v := range values[1:] {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		peak = 1
	}

	var buf strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(sparkBlocks)-1))
		idx = max(0, min(idx, len(sparkBlocks)-1))
		buf.WriteRune(sparkBlocks[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(buf.String())
}

// DailyChart renders daily spending as vertical columns with a y axis.
// Narrow areas fall back to a sparkline.
func DailyChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}
	t := theme.Active

	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}
	step := chartTickStep(peak)
	ceiling := math.Ceil(peak/step) * step

	yLabelW := max(4, len(formatChartLabel(ceiling))+1)
	chartW := max(5, width-yLabelW-1)

	// Columns are one cell wide with a gap; extra days are merged by
	// taking the maximum of each bucket.
	n := len(values)
	cols := min(n, (chartW+1)/2)
	bucketed := make([]float64, cols)
	bucketLabels := make([]string, cols)
	for i := range n {
		c := i * cols / n
		bucketed[c] = math.Max(bucketed[c], values[i])
		if bucketLabels[c] == "" && i < len(labels) {
			bucketLabels[c] = labels[i]
		}
	}

	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	bar := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)
	eighths := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	var b strings.Builder
	for row := height; row >= 1; row-- {
		top := ceiling * float64(row) / float64(height)
		bottom := ceiling * float64(row-1) / float64(height)
		label := ""
		if row == height {
			label = formatChartLabel(ceiling)
		}
		b.WriteString(axis.Render(fmt.Sprintf("%*s│", yLabelW, label)))
		for i, v := range bucketed {
			if i > 0 {
				b.WriteString(blank.Render(" "))
			}
			switch {
			case v >= top:
				b.WriteString(bar.Render("█"))
			case v > bottom:
				idx := int((v - bottom) / (top - bottom) * 8)
				b.WriteString(bar.Render(string(eighths[max(1, min(idx, 8))])))
			default:
				b.WriteString(blank.Render(" "))
			}
		}
		b.WriteString("\n")
	}
	axisLen := cols*2 - 1
	b.WriteString(axis.Render(fmt.Sprintf("%*s└%s", yLabelW, "0", strings.Repeat("─", axisLen))))

	if cols > 0 && bucketLabels[0] != "" {
		first, last := bucketLabels[0], bucketLabels[cols-1]
		gap := axisLen - lipgloss.Width(first) - lipgloss.Width(last)
		line := first
		if gap > 1 {
			line += strings.Repeat(" ", gap) + last
		}
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(axis.Render(line))
	}
	return b.String()
}

// CategoryBars renders one horizontal bar per category, scaled to the
// largest amount, followed by the formatted amount.
func CategoryBars(bars []cli.Bar, currency string, width int) string {
	if len(bars) == 0 {
		return ""
	}
	t := theme.Active

	labelW := 0
	peak := decimal.Zero
	for _, bar := range bars {
		labelW = max(labelW, lipgloss.Width(bar.Label))
		if bar.Value.GreaterThan(peak) {
			peak = bar.Value
		}
	}
	labelW = min(labelW, 18)
	amountW := 0
	for _, bar := range bars {
		amountW = max(amountW, len(cli.FormatMoney(currency, bar.Value)))
	}
	barMax := max(4, width-labelW-amountW-2)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	amountStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	lines := make([]string, len(bars))
	for i, bar := range bars {
		n := 0
		if peak.IsPositive() && bar.Value.IsPositive() {
			n = max(1, int(bar.Value.Div(peak).Mul(decimal.NewFromInt(int64(barMax))).IntPart()))
		}
		fill := lipgloss.NewStyle().Foreground(t.SeriesColor(i)).Background(t.Surface)
		lines[i] = labelStyle.Render(fmt.Sprintf("%-*s", labelW, cli.Truncate(bar.Label, labelW))) +
			blank.Render(" ") +
			fill.Render(strings.Repeat("█", n)) +
			blank.Render(strings.Repeat(" ", barMax-n+1)) +
			amountStyle.Render(cli.FormatMoney(currency, bar.Value))
	}
	return strings.Join(lines, "\n")
}

// ShareBar renders a single segmented bar of each category's share of
// the total with a legend underneath.
func ShareBar(bars []cli.Bar, width int) string {
	shares := cli.Shares(bars, width)
	total := decimal.Zero
	for _, bar := range bars {
		total = total.Add(bar.Value)
	}
	if !total.IsPositive() {
		return ""
	}
	t := theme.Active
	blank := lipgloss.NewStyle().Background(t.Surface)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	for i, n := range shares {
		b.WriteString(lipgloss.NewStyle().Foreground(t.SeriesColor(i)).Background(t.Surface).Render(strings.Repeat("█", n)))
	}

	var legend []string
	for i, bar := range bars {
		pct := bar.Value.Div(total).Mul(decimal.NewFromInt(100))
		legend = append(legend,
			lipgloss.NewStyle().Foreground(t.SeriesColor(i)).Background(t.Surface).Render("■")+
				blank.Render(" ")+
				muted.Render(bar.Label+" "+cli.FormatPercent(pct)))
	}

	// Wrap the legend to the available width.
	line, lineW := "", 0
	for _, item := range legend {
		w := lipgloss.Width(item)
		if lineW > 0 && lineW+2+w > width {
			b.WriteString("\n" + line)
			line, lineW = "", 0
		}
		if lineW > 0 {
			line += blank.Render("  ")
			lineW += 2
		}
		line += item
		lineW += w
	}
	if line != "" {
		b.WriteString("\n" + line)
	}
	return b.String()
}

// chartTickStep computes a nice tick interval targeting ~5 ticks.
func chartTickStep(maxVal float64) float64 {
	if maxVal <= 0 {
		return 1
	}
	rough := maxVal / 5
	exp := math.Floor(math.Log10(rough))
	base := math.Pow(10, exp)
	frac := rough / base

	switch {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func formatChartLabel(v float64) string {
	switch {
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e4:
		return fmt.Sprintf("%.0fk", v/1e3)
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
