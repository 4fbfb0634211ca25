package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Uncategorized is the reserved default bucket. It always exists and never
// carries keywords.
const Uncategorized = "Uncategorized"

// Polarity is the debit/credit flag of a statement row.
type Polarity int

const (
	PolarityUnknown Polarity = iota
	Debit
	Credit
)

func (p Polarity) String() string {
	switch p {
	case Debit:
		return "Debit"
	case Credit:
		return "Credit"
	default:
		return "Unknown"
	}
}

// Transaction is one parsed statement row. Amount is a non-negative
// magnitude; the sign lives in Polarity.
type Transaction struct {
	ID       int
	Date     time.Time
	Details  string
	Amount   decimal.Decimal
	Polarity Polarity
	Category string

	// Source is the file the row came from, Line its 1-based line in that file.
	Source string
	Line   int
}

// IsDebit reports whether the row is an outgoing expense.
func (t Transaction) IsDebit() bool { return t.Polarity == Debit }

// IsCredit reports whether the row is an incoming payment.
func (t Transaction) IsCredit() bool { return t.Polarity == Credit }
