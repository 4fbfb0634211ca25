package model

import "github.com/shopspring/decimal"

// Category is a named bucket with the keywords that auto-classify into it.
type Category struct {
	Name     string
	Keywords []string
}

// CategoryTotal is the budget-joined summary row for one category,
// computed from debit rows only.
type CategoryTotal struct {
	Category    string
	Count       int
	Amount      decimal.Decimal
	Budget      decimal.Decimal
	Remaining   decimal.Decimal
	PercentUsed decimal.Decimal
}

// OverBudget reports whether spending exceeded a non-zero budget.
func (c CategoryTotal) OverBudget() bool {
	return c.Budget.IsPositive() && c.Remaining.IsNegative()
}

// Suggestion is a hint for an uncategorized row: the closest learned
// keyword and the category it belongs to.
type Suggestion struct {
	TransactionID int
	Category      string
	Keyword       string
	Distance      int
}

// Budget is the spending limit configured for one category.
type Budget struct {
	Category string
	Amount   decimal.Decimal
}
