// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is how statement dates are shown.
const DateLayout = "02 Jan 2006"

// FormatAmount formats a money value with two decimals and thousands
// separators. e.g., 2000 -> "2,000.00", -2.3 -> "-2.30"
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err == nil {
		whole = FormatNumber(n)
	}
	out := whole + "." + frac
	if neg && out != "0.00" {
		out = "-" + out
	}
	return out
}

// FormatMoney prefixes FormatAmount with a currency code.
// e.g., ("AED", 2000) -> "AED 2,000.00"
func FormatMoney(currency string, d decimal.Decimal) string {
	if currency == "" {
		return FormatAmount(d)
	}
	return currency + " " + FormatAmount(d)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a percentage that is already scaled to 0-100.
func FormatPercent(pct decimal.Decimal) string {
	return pct.StringFixed(1) + "%"
}

// FormatDelta formats a remaining-budget value with an explicit sign.
func FormatDelta(d decimal.Decimal) string {
	if d.IsNegative() {
		return FormatAmount(d)
	}
	return "+" + FormatAmount(d)
}

// FormatDate formats a statement date, or "-" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(DateLayout)
}

// FormatDateRange formats an inclusive date span.
func FormatDateRange(from, to time.Time) string {
	if from.IsZero() {
		return "-"
	}
	if from.Equal(to) {
		return FormatDate(from)
	}
	return fmt.Sprintf("%s to %s", FormatDate(from), FormatDate(to))
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
