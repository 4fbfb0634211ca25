package cmd

import (
	"fmt"
	"strconv"

	"github.com/theirongolddev/fburn/internal/cli"
	"github.com/theirongolddev/fburn/internal/model"
	"github.com/theirongolddev/fburn/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	expensesCategory      string
	expensesUncategorized bool
	expensesLimit         int
)

var expensesCmd = &cobra.Command{
	Use:   "expenses <statement...>",
	Short: "Debit rows with their categories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExpenses,
}

var paymentsCmd = &cobra.Command{
	Use:   "payments <statement...>",
	Short: "Credit rows and the payments total",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPayments,
}

func init() {
	expensesCmd.Flags().StringVar(&expensesCategory, "category", "", "Only rows in this category")
	expensesCmd.Flags().BoolVarP(&expensesUncategorized, "uncategorized", "u", false, "Only rows nothing matched")
	expensesCmd.Flags().IntVarP(&expensesLimit, "limit", "l", 0, "Number of rows to show (0 for all)")
	rootCmd.AddCommand(expensesCmd)
	rootCmd.AddCommand(paymentsCmd)
}

func runExpenses(_ *cobra.Command, args []string) error {
	if expensesUncategorized {
		expensesCategory = model.Uncategorized
	}

	e, err := loadSession(args)
	if err != nil {
		return err
	}
	defer e.Close()

	res := e.session.Result()
	debits := res.Debits
	if expensesCategory != "" {
		debits = pipeline.FilterByCategory(debits, expensesCategory)
	}
	if len(debits) == 0 {
		fmt.Println("\n  No matching debit rows.")
		return nil
	}

	total := pipeline.SumAmounts(debits)
	shown := debits
	if expensesLimit > 0 && len(shown) > expensesLimit {
		shown = shown[:expensesLimit]
	}

	rows := make([][]string, 0, len(shown))
	for _, tx := range shown {
		hint := ""
		if s, ok := res.SuggestionFor(tx.ID); ok {
			hint = "≈ " + s.Category + " (" + s.Keyword + ")"
		}
		rows = append(rows, []string{
			strconv.Itoa(tx.ID),
			cli.FormatDate(tx.Date),
			cli.Truncate(tx.Details, 40),
			cli.FormatAmount(tx.Amount),
			tx.Category,
			hint,
		})
	}

	title := fmt.Sprintf("Expenses  %d rows · %s", len(debits), cli.FormatMoney(e.cfg.General.Currency, total))
	if len(shown) < len(debits) {
		title = fmt.Sprintf("Expenses  %d of %d rows · %s", len(shown), len(debits), cli.FormatMoney(e.cfg.General.Currency, total))
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:     title,
		Headers:   []string{"#", "Date", "Details", "Amount", "Category", "Hint"},
		Rows:      rows,
		LeftAlign: map[int]bool{1: true, 2: true, 4: true, 5: true},
	}))
	fmt.Println(cli.RenderNote("Reassign a row with `fburn assign <statement> <#> <category>`."))
	fmt.Println()
	return nil
}

func runPayments(_ *cobra.Command, args []string) error {
	e, err := loadSession(args)
	if err != nil {
		return err
	}
	defer e.Close()

	res := e.session.Result()
	if len(res.Credits) == 0 {
		fmt.Println("\n  No payments in this statement.")
		return nil
	}

	rows := make([][]string, 0, len(res.Credits))
	for _, tx := range res.Credits {
		rows = append(rows, []string{cli.FormatDate(tx.Date), cli.Truncate(tx.Details, 50), cli.FormatAmount(tx.Amount)})
	}
	rows = append(rows, []string{"---"}, []string{"Total", "", cli.FormatMoney(e.cfg.General.Currency, res.Summary.CreditTotal)})

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:     "Payments",
		Headers:   []string{"Date", "Details", "Amount"},
		Rows:      rows,
		LeftAlign: map[int]bool{1: true},
	}))
	fmt.Println()
	return nil
}
