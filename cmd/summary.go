package cmd

import (
	"fmt"
	"slices"

	"github.com/theirongolddev/fburn/internal/cli"
	"github.com/theirongolddev/fburn/internal/model"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <statement...>",
	Short: "Spending per category, budgets and payments",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, args []string) error {
	e, err := loadSession(args)
	if err != nil {
		return err
	}
	defer e.Close()

	res := e.session.Result()
	sum := res.Summary
	cur := e.cfg.General.Currency
	budgeting := e.cfg.General.Budgets

	if sum.Rows == 0 {
		fmt.Println("\n  No rows in this statement.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("SPENDING  " + cli.FormatDateRange(sum.FirstDate, sum.LastDate)))
	fmt.Println()

	rows := [][]string{
		{"Rows", cli.FormatNumber(int64(sum.Rows))},
		{"---"},
		{"Spent", cli.FormatMoney(cur, sum.DebitTotal)},
		{"Debit rows", cli.FormatNumber(int64(sum.DebitRows))},
		{"Payments", cli.FormatMoney(cur, sum.CreditTotal)},
		{"Credit rows", cli.FormatNumber(int64(sum.CreditRows))},
		{"---"},
	}
	if budgeting {
		rows = append(rows,
			[]string{"Budget", cli.FormatMoney(cur, sum.BudgetTotal)},
			[]string{"Left", cli.FormatDelta(sum.BudgetTotal.Sub(sum.DebitTotal))},
			[]string{"---"},
		)
	}
	rows = append(rows, []string{"Net", cli.FormatDelta(sum.Net())})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))
	fmt.Println()

	fmt.Print(cli.RenderTable(categoryTable(res.Totals, cur, budgeting)))

	if len(res.Totals) > 0 {
		bars := make([]cli.Bar, 0, len(res.Totals))
		for _, ct := range res.Totals {
			bars = append(bars, cli.Bar{Label: ct.Category, Value: ct.Amount})
		}
		fmt.Println()
		fmt.Print(cli.RenderBarChart("Spending by Category", cur, bars, 40))
		fmt.Println()
		fmt.Print(cli.RenderShareChart("Share of Spending", bars, 50))
	}

	if daily := dailyTotals(res.Debits); len(daily) > 1 {
		fmt.Println()
		fmt.Printf("  Daily  %s\n", cli.RenderSparkline(daily))
	}

	if n := len(res.Suggestions); n > 0 {
		fmt.Println()
		fmt.Println(cli.RenderNote(fmt.Sprintf("%d uncategorized rows have a likely match; see `fburn expenses --uncategorized`.", n)))
	}
	fmt.Println()
	return nil
}

// categoryTable lays out the aggregated rows; budget columns only appear
// when budgeting is enabled.
func categoryTable(totals []model.CategoryTotal, cur string, budgeting bool) cli.Table {
	headers := []string{"Category", "Rows", "Amount"}
	if budgeting {
		headers = append(headers, "Budget", "Remaining", "Used")
	}

	rows := make([][]string, 0, len(totals))
	for _, ct := range totals {
		row := []string{ct.Category, cli.FormatNumber(int64(ct.Count)), cli.FormatMoney(cur, ct.Amount)}
		if budgeting {
			used := cli.FormatPercent(ct.PercentUsed)
			if ct.OverBudget() {
				used += " !"
			}
			row = append(row, cli.FormatAmount(ct.Budget), cli.FormatDelta(ct.Remaining), used)
		}
		rows = append(rows, row)
	}
	return cli.Table{
		Title:   "Categories",
		Headers: headers,
		Rows:    rows,
	}
}

// dailyTotals sums debits per calendar day with spending, oldest first.
func dailyTotals(debits []model.Transaction) []float64 {
	var (
		out  []float64
		last string
	)
	sorted := slices.Clone(debits)
	slices.SortStableFunc(sorted, func(a, b model.Transaction) int { return a.Date.Compare(b.Date) })

	acc := decimal.Zero
	for _, tx := range sorted {
		day := tx.Date.Format("2006-01-02")
		if day != last && last != "" {
			out = append(out, acc.InexactFloat64())
			acc = decimal.Zero
		}
		last = day
		acc = acc.Add(tx.Amount)
	}
	if last != "" {
		out = append(out, acc.InexactFloat64())
	}
	return out
}
