package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/theirongolddev/fburn/internal/cli"
	"github.com/theirongolddev/fburn/internal/pipeline"

	"github.com/spf13/cobra"
)

var assignCmd = &cobra.Command{
	Use:   "assign <statement> <row> <category> [<row> <category>...]",
	Short: "Reassign rows and learn their details as keywords",
	Long: "Reassign statement rows (by the # shown in `fburn expenses`) to a category.\n" +
		"Each changed row's details become a keyword of its new category, so the\n" +
		"same text is categorized automatically next time.",
	Args: func(_ *cobra.Command, args []string) error {
		if len(args) < 3 || len(args)%2 == 0 {
			return errors.New("want a statement followed by <row> <category> pairs")
		}
		return nil
	},
	RunE: runAssign,
}

func init() {
	rootCmd.AddCommand(assignCmd)
}

func parseEdits(pairs []string) ([]pipeline.Edit, error) {
	edits := make([]pipeline.Edit, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		id, err := strconv.Atoi(pairs[i])
		if err != nil || id < 1 {
			return nil, fmt.Errorf("row %q: must be a positive number", pairs[i])
		}
		edits = append(edits, pipeline.Edit{ID: id, Category: pairs[i+1]})
	}
	return edits, nil
}

func runAssign(_ *cobra.Command, args []string) error {
	edits, err := parseEdits(args[1:])
	if err != nil {
		return err
	}

	e, err := loadSession(args[:1])
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := e.session.ApplyEdits(edits)
	if err != nil && res.Applied == 0 {
		return err
	}

	fmt.Println()
	fmt.Printf("  Reassigned %d row(s)\n", res.Applied)
	for _, l := range res.Learned {
		fmt.Printf("  Learned %q for %s\n", l.Keyword, l.Category)
	}
	if err != nil {
		fmt.Println(cli.RenderError(err))
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(categoryTable(e.session.Result().Totals, e.cfg.General.Currency, e.cfg.General.Budgets)))
	fmt.Println()
	return err
}
