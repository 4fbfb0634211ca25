// Package pipeline turns parsed statements into categorized, budget-joined
// summaries, and holds the interactive session state around that.
package pipeline

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fburn/internal/model"
)

var hundred = decimal.NewFromInt(100)

// SplitByPolarity separates debit and credit rows. Rows with an unknown
// flag land in neither.
func SplitByPolarity(txs []model.Transaction) (debits, credits []model.Transaction) {
	for _, tx := range txs {
		switch {
		case tx.IsDebit():
			debits = append(debits, tx)
		case tx.IsCredit():
			credits = append(credits, tx)
		}
	}
	return debits, credits
}

// AggregateCategories groups debit rows by category and joins each group
// with its budget. Categories with no rows are omitted. Results are sorted
// by amount descending; equal amounts keep alphabetical order.
func AggregateCategories(debits []model.Transaction, budgets map[string]decimal.Decimal) []model.CategoryTotal {
	groups := make(map[string]*model.CategoryTotal)
	for _, tx := range debits {
		ct, ok := groups[tx.Category]
		if !ok {
			ct = &model.CategoryTotal{Category: tx.Category}
			groups[tx.Category] = ct
		}
		ct.Count++
		ct.Amount = ct.Amount.Add(tx.Amount)
	}

	result := make([]model.CategoryTotal, 0, len(groups))
	for _, ct := range groups {
		ct.Budget = budgets[ct.Category]
		ct.Remaining = ct.Budget.Sub(ct.Amount)
		ct.PercentUsed = PercentUsed(ct.Amount, ct.Budget)
		result = append(result, *ct)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Category < result[j].Category })
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Amount.GreaterThan(result[j].Amount)
	})
	return result
}

// PercentUsed returns amount/budget*100 rounded half to even at one decimal
// place, or 0 when budget is 0.
func PercentUsed(amount, budget decimal.Decimal) decimal.Decimal {
	if budget.IsZero() {
		return decimal.Zero
	}
	return amount.Div(budget).Mul(hundred).RoundBank(1)
}

// SumAmounts totals the amounts of txs.
func SumAmounts(txs []model.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range txs {
		sum = sum.Add(tx.Amount)
	}
	return sum
}

// Summarize computes the top-level figures for one pass.
func Summarize(all, debits, credits []model.Transaction, budgets map[string]decimal.Decimal) model.Summary {
	s := model.Summary{
		Rows:        len(all),
		DebitRows:   len(debits),
		CreditRows:  len(credits),
		DebitTotal:  SumAmounts(debits),
		CreditTotal: SumAmounts(credits),
	}
	for _, b := range budgets {
		s.BudgetTotal = s.BudgetTotal.Add(b)
	}
	for _, tx := range all {
		if tx.Date.IsZero() {
			continue
		}
		if s.FirstDate.IsZero() || tx.Date.Before(s.FirstDate) {
			s.FirstDate = tx.Date
		}
		if tx.Date.After(s.LastDate) {
			s.LastDate = tx.Date
		}
	}
	return s
}

// FilterByCategory returns the rows assigned to category.
func FilterByCategory(txs []model.Transaction, category string) []model.Transaction {
	var out []model.Transaction
	for _, tx := range txs {
		if tx.Category == category {
			out = append(out, tx)
		}
	}
	return out
}
