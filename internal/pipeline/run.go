package pipeline

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fburn/internal/model"
)

// Input is everything one pipeline pass depends on.
type Input struct {
	Transactions []model.Transaction
	Categories   []model.Category
	Budgets      map[string]decimal.Decimal
	// Overrides pins rows (by ID) to a category chosen by the user,
	// taking precedence over keyword matching.
	Overrides map[int]string
}

// Result is the output of one pass.
type Result struct {
	Transactions []model.Transaction
	Debits       []model.Transaction
	Credits      []model.Transaction
	Totals       []model.CategoryTotal
	Summary      model.Summary
	Suggestions  []model.Suggestion
}

// Run categorizes, splits and aggregates in. It has no side effects and is
// re-run in full after any state change.
func Run(in Input) Result {
	txs := Categorize(in.Transactions, NewMatcher(in.Categories))
	for i := range txs {
		if cat, ok := in.Overrides[txs[i].ID]; ok {
			txs[i].Category = cat
		}
	}

	debits, credits := SplitByPolarity(txs)
	return Result{
		Transactions: txs,
		Debits:       debits,
		Credits:      credits,
		Totals:       AggregateCategories(debits, in.Budgets),
		Summary:      Summarize(txs, debits, credits, in.Budgets),
		Suggestions:  Suggest(debits, in.Categories),
	}
}

// SuggestionFor returns the suggestion for a row, if any.
func (r Result) SuggestionFor(id int) (model.Suggestion, bool) {
	for _, s := range r.Suggestions {
		if s.TransactionID == id {
			return s, true
		}
	}
	return model.Suggestion{}, false
}
