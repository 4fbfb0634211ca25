package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/theirongolddev/fburn/internal/cli"

	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"cat"},
	Short:   "List categories and their keywords",
	Args:    cobra.NoArgs,
	RunE:    runCategoriesList,
}

var categoriesAddCmd = &cobra.Command{
	Use:   "add <name...>",
	Short: "Create categories with a zero budget",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCategoriesAdd,
}

var categoriesKeywordCmd = &cobra.Command{
	Use:   "keyword <category> <keyword...>",
	Short: "Add keywords to a category",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runCategoriesKeyword,
}

var categoriesExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write categories and keywords as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCategoriesExport,
}

var categoriesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge categories and keywords from YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoriesImport,
}

func init() {
	categoriesCmd.AddCommand(categoriesAddCmd, categoriesKeywordCmd, categoriesExportCmd, categoriesImportCmd)
	rootCmd.AddCommand(categoriesCmd)
}

func runCategoriesList(_ *cobra.Command, _ []string) error {
	e, err := newEnv(cliLogOut())
	if err != nil {
		return err
	}
	defer e.Close()

	cats := e.store.Categories()
	rows := make([][]string, 0, len(cats))
	for _, c := range cats {
		kws := strings.Join(c.Keywords, ", ")
		if kws == "" {
			kws = "-"
		}
		row := []string{c.Name, cli.FormatNumber(int64(len(c.Keywords))), cli.Truncate(kws, 60)}
		if e.cfg.General.Budgets {
			row = append(row, cli.FormatAmount(e.store.Budget(c.Name)))
		}
		rows = append(rows, row)
	}
	headers := []string{"Category", "Keywords", "Examples"}
	if e.cfg.General.Budgets {
		headers = append(headers, "Budget")
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:     fmt.Sprintf("Categories (%s)", e.cfg.Store.Backend),
		Headers:   headers,
		Rows:      rows,
		LeftAlign: map[int]bool{2: true},
	}))
	fmt.Println()
	return nil
}

func runCategoriesAdd(_ *cobra.Command, args []string) error {
	e, err := newEnv(cliLogOut())
	if err != nil {
		return err
	}
	defer e.Close()

	for _, name := range args {
		added, err := e.store.AddCategory(name)
		if err != nil {
			return err
		}
		if added {
			fmt.Printf("  Added %s\n", strings.TrimSpace(name))
		} else {
			fmt.Printf("  Skipped %q (empty or already exists)\n", name)
		}
	}
	return nil
}

func runCategoriesKeyword(_ *cobra.Command, args []string) error {
	e, err := newEnv(cliLogOut())
	if err != nil {
		return err
	}
	defer e.Close()

	category := args[0]
	if !e.store.Has(category) {
		return fmt.Errorf("unknown category %q; add it with `fburn categories add`", category)
	}
	for _, kw := range args[1:] {
		learned, err := e.store.AddKeyword(category, kw)
		if err != nil {
			return err
		}
		if learned {
			fmt.Printf("  %s += %q\n", category, strings.TrimSpace(kw))
		} else {
			fmt.Printf("  Skipped %q\n", kw)
		}
	}
	return nil
}

func runCategoriesExport(_ *cobra.Command, args []string) error {
	e, err := newEnv(cliLogOut())
	if err != nil {
		return err
	}
	defer e.Close()

	var w io.Writer = os.Stdout
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("creating %s: %w", args[0], err)
		}
		defer f.Close()
		w = f
	}
	return e.store.ExportYAML(w)
}

func runCategoriesImport(_ *cobra.Command, args []string) error {
	e, err := newEnv(cliLogOut())
	if err != nil {
		return err
	}
	defer e.Close()

	var r io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer f.Close()
		r = f
	}

	stats, err := e.store.ImportYAML(r)
	fmt.Printf("  Imported %d categories, %d keywords (%d skipped)\n", stats.Categories, stats.Keywords, stats.Skipped)
	return err
}
