package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/fburn/internal/cli"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var errBudgetsDisabled = errors.New("budgets are disabled; enable them with `fburn setup` or general.budgets in the config")

var budgetsCmd = &cobra.Command{
	Use:   "budgets",
	Short: "List category budgets",
	Args:  cobra.NoArgs,
	RunE:  runBudgetsList,
}

var budgetsSetCmd = &cobra.Command{
	Use:   "set <category> <amount> [<category> <amount>...]",
	Short: "Change budgets and save them",
	Args: func(_ *cobra.Command, args []string) error {
		if len(args) == 0 || len(args)%2 != 0 {
			return errors.New("want <category> <amount> pairs")
		}
		return nil
	},
	RunE: runBudgetsSet,
}

func init() {
	budgetsCmd.AddCommand(budgetsSetCmd)
	rootCmd.AddCommand(budgetsCmd)
}

func runBudgetsList(_ *cobra.Command, _ []string) error {
	e, err := newEnv(cliLogOut())
	if err != nil {
		return err
	}
	defer e.Close()
	if !e.cfg.General.Budgets {
		return errBudgetsDisabled
	}

	total := decimal.Zero
	var rows [][]string
	for _, b := range e.store.Budgets() {
		total = total.Add(b.Amount)
		name := b.Category
		if !e.store.Has(name) {
			name += " (no category)"
		}
		rows = append(rows, []string{name, cli.FormatAmount(b.Amount)})
	}
	rows = append(rows, []string{"---"}, []string{"Total", cli.FormatMoney(e.cfg.General.Currency, total)})

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Budgets",
		Headers: []string{"Category", "Budget"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}

func runBudgetsSet(_ *cobra.Command, args []string) error {
	e, err := newEnv(cliLogOut())
	if err != nil {
		return err
	}
	defer e.Close()
	if !e.cfg.General.Budgets {
		return errBudgetsDisabled
	}

	// Validate every pair before anything is saved.
	for i := 0; i < len(args); i += 2 {
		amt, err := decimal.NewFromString(strings.ReplaceAll(args[i+1], ",", ""))
		if err != nil {
			return fmt.Errorf("budget for %s: %q is not a number", args[i], args[i+1])
		}
		if err := e.session.SetBudget(args[i], amt); err != nil {
			return fmt.Errorf("budget for %s: %w", args[i], err)
		}
	}
	if err := e.session.SaveBudgets(); err != nil {
		return err
	}
	for i := 0; i < len(args); i += 2 {
		fmt.Printf("  %s = %s\n", args[i], cli.FormatMoney(e.cfg.General.Currency, e.store.Budget(args[i])))
	}
	return nil
}
