package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fburn/internal/cli"
	"github.com/theirongolddev/fburn/internal/tui/components"
	"github.com/theirongolddev/fburn/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// paymentsState tracks the scroll position of the credits list.
type paymentsState struct {
	offset int
}

func (a App) handlePaymentsKey(k string) (App, bool) {
	n := len(a.session.Result().Credits)
	switch k {
	case "j", "down":
		a.payments.offset = min(a.payments.offset+1, max(0, n-1))
	case "k", "up":
		a.payments.offset = max(0, a.payments.offset-1)
	case "g", "home":
		a.payments.offset = 0
	case "G", "end":
		a.payments.offset = max(0, n-1)
	default:
		return a, false
	}
	return a, true
}

func (a App) renderPaymentsTab(cw, h int) string {
	if !a.session.Loaded() || a.loadErr != nil {
		return a.emptyState(cw)
	}
	t := theme.Active
	cur := a.currency()
	res := a.session.Result()
	sum := res.Summary

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Payments Received", Value: cli.FormatMoney(cur, sum.CreditTotal), Color: t.Income()},
		{Label: "Credit Rows", Value: cli.FormatNumber(int64(sum.CreditRows)), Note: cli.FormatDateRange(sum.FirstDate, sum.LastDate)},
	}, cw))
	b.WriteString("\n")

	inner := components.CardInnerWidth(cw)
	const dateW, amtW = 11, 16
	detailsW := max(10, inner-dateW-amtW-2)

	head := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	cell := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	amount := lipgloss.NewStyle().Foreground(t.Income()).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	lines := []string{head.Render(fmt.Sprintf("%-*s %-*s %*s", dateW, "Date", detailsW, "Details", amtW, "Amount"))}
	if len(res.Credits) == 0 {
		lines = append(lines, dim.Render("No payments in this statement."))
	}

	// Card border, title and header row.
	visible := max(1, h-lipgloss.Height(b.String())-4)
	start := min(a.payments.offset, max(0, len(res.Credits)-visible))
	end := min(len(res.Credits), start+visible)
	for _, tx := range res.Credits[start:end] {
		lines = append(lines,
			cell.Render(fmt.Sprintf("%-*s %-*s ", dateW, cli.FormatDate(tx.Date), detailsW, cli.Truncate(tx.Details, detailsW)))+
				amount.Render(fmt.Sprintf("%*s", amtW, cli.FormatAmount(tx.Amount))))
	}

	title := "Payments"
	if len(res.Credits) > visible {
		title = fmt.Sprintf("Payments (%d-%d of %d)", start+1, end, len(res.Credits))
	}
	b.WriteString(components.ContentCard(title, strings.Join(lines, "\n"), cw))
	return b.String()
}
