package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary holds the top-level figures of one pipeline pass.
type Summary struct {
	Rows        int
	DebitRows   int
	CreditRows  int
	DebitTotal  decimal.Decimal
	CreditTotal decimal.Decimal
	BudgetTotal decimal.Decimal
	FirstDate   time.Time
	LastDate    time.Time
}

// Net is credits minus debits.
func (s Summary) Net() decimal.Decimal {
	return s.CreditTotal.Sub(s.DebitTotal)
}
