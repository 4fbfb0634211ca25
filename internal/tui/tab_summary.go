package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/fburn/internal/cli"
	"github.com/theirongolddev/fburn/internal/model"
	"github.com/theirongolddev/fburn/internal/tui/components"
	"github.com/theirongolddev/fburn/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

func (a App) renderSummaryTab(cw int) string {
	if !a.session.Loaded() || a.loadErr != nil {
		return a.emptyState(cw)
	}
	t := theme.Active
	res := a.session.Result()
	sum := res.Summary
	cur := a.currency()
	budgeting := a.cfg.General.Budgets

	metrics := []components.Metric{
		{Label: "Spent", Value: cli.FormatMoney(cur, sum.DebitTotal), Note: fmt.Sprintf("%d debits", sum.DebitRows), Color: t.Spend()},
		{Label: "Payments", Value: cli.FormatMoney(cur, sum.CreditTotal), Note: fmt.Sprintf("%d credits", sum.CreditRows), Color: t.Income()},
	}
	if budgeting {
		left := sum.BudgetTotal.Sub(sum.DebitTotal)
		color := t.TextPrimary
		if left.IsNegative() {
			color = t.Over()
		}
		metrics = append(metrics, components.Metric{
			Label: "Budget", Value: cli.FormatMoney(cur, sum.BudgetTotal),
			Note: "left " + cli.FormatDelta(left), Color: color,
		})
	}
	metrics = append(metrics, components.Metric{
		Label: "Net", Value: cli.FormatMoney(cur, sum.Net()),
		Note: cli.FormatDateRange(sum.FirstDate, sum.LastDate),
	})

	var b strings.Builder
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	bars := make([]cli.Bar, 0, len(res.Totals))
	for _, ct := range res.Totals {
		bars = append(bars, cli.Bar{Label: ct.Category, Value: ct.Amount})
	}

	if len(bars) > 0 {
		if a.isCompactLayout() {
			b.WriteString(components.ContentCard("Spending by Category",
				components.CategoryBars(bars, cur, components.CardInnerWidth(cw)), cw))
			b.WriteString("\n")
			b.WriteString(components.ContentCard("Share of Spending",
				components.ShareBar(bars, components.CardInnerWidth(cw)), cw))
		} else {
			widths := []int{cw * 3 / 5, cw - cw*3/5}
			b.WriteString(components.CardRow([]string{
				components.ContentCard("Spending by Category",
					components.CategoryBars(bars, cur, components.CardInnerWidth(widths[0])), widths[0]),
				components.ContentCard("Share of Spending",
					components.ShareBar(bars, components.CardInnerWidth(widths[1])), widths[1]),
			}))
		}
		b.WriteString("\n")
	}

	if values, labels := dailySpend(res.Debits); len(values) > 1 {
		b.WriteString(components.ContentCard("Daily Spending",
			components.DailyChart(values, labels, t.Spend(), components.CardInnerWidth(cw), 6), cw))
		b.WriteString("\n")
	}

	b.WriteString(components.ContentCard("Category Totals", a.totalsTable(res.Totals, components.CardInnerWidth(cw)), cw))
	return b.String()
}

// totalsTable lays out the aggregated rows; budget columns only appear
// when budgeting is enabled.
func (a App) totalsTable(totals []model.CategoryTotal, width int) string {
	t := theme.Active
	cur := a.currency()
	budgeting := a.cfg.General.Budgets

	head := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	cell := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	over := lipgloss.NewStyle().Foreground(t.Over()).Background(t.Surface).Bold(true)

	const numW = 14
	nameW := max(10, width-numW-6)
	if budgeting {
		nameW = max(10, width-numW*4-6-8)
	}

	header := fmt.Sprintf("%-*s %5s %*s", nameW, "Category", "Rows", numW, "Amount")
	if budgeting {
		header += fmt.Sprintf(" %*s %*s %8s", numW, "Budget", numW, "Remaining", "Used")
	}

	lines := []string{head.Render(header)}
	for _, ct := range totals {
		line := cell.Render(fmt.Sprintf("%-*s %5d %*s", nameW, cli.Truncate(ct.Category, nameW), ct.Count, numW, cli.FormatMoney(cur, ct.Amount)))
		if budgeting {
			style := dim
			if ct.OverBudget() {
				style = over
			}
			line += dim.Render(fmt.Sprintf(" %*s", numW, cli.FormatAmount(ct.Budget))) +
				style.Render(fmt.Sprintf(" %*s %8s", numW, cli.FormatDelta(ct.Remaining), cli.FormatPercent(ct.PercentUsed)))
		}
		lines = append(lines, line)
	}
	if len(totals) == 0 {
		lines = append(lines, dim.Render("No spending yet."))
	}
	return strings.Join(lines, "\n")
}

// dailySpend sums debits per calendar day over the statement's span,
// filling days without spending with zero.
func dailySpend(debits []model.Transaction) ([]float64, []string) {
	byDay := make(map[time.Time]decimal.Decimal)
	var first, last time.Time
	for _, tx := range debits {
		if tx.Date.IsZero() {
			continue
		}
		d := tx.Date.Truncate(24 * time.Hour)
		byDay[d] = byDay[d].Add(tx.Amount)
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	if first.IsZero() {
		return nil, nil
	}

	var values []float64
	var labels []string
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		values = append(values, byDay[d].InexactFloat64())
		labels = append(labels, d.Format("02 Jan"))
	}
	return values, labels
}
