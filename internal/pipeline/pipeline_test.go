package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fburn/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func tx(id int, details, amount string, p model.Polarity) model.Transaction {
	return model.Transaction{
		ID:       id,
		Date:     time.Date(2024, 1, id, 0, 0, 0, 0, time.UTC),
		Details:  details,
		Amount:   dec(amount),
		Polarity: p,
	}
}

func TestRun_EndToEndExample(t *testing.T) {
	in := Input{
		Transactions: []model.Transaction{
			tx(1, "Coffee Shop", "4.50", model.Debit),
			tx(2, "Coffee Shop", "3.20", model.Debit),
			tx(3, "Salary", "2000.00", model.Credit),
		},
		Categories: []model.Category{
			{Name: model.Uncategorized},
			{Name: "Food", Keywords: []string{"coffee shop"}},
		},
		Budgets: map[string]decimal.Decimal{"Food": dec("10.0")},
	}

	res := Run(in)

	if len(res.Totals) != 1 {
		t.Fatalf("totals = %d rows, want 1: %+v", len(res.Totals), res.Totals)
	}
	got := res.Totals[0]
	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"amount", got.Amount, "7.70"},
		{"budget", got.Budget, "10.0"},
		{"remaining", got.Remaining, "2.30"},
		{"percent_used", got.PercentUsed, "77.0"},
	}
	if got.Category != "Food" {
		t.Errorf("category = %q, want Food", got.Category)
	}
	for _, c := range checks {
		if !c.got.Equal(dec(c.want)) {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
	if !res.Summary.CreditTotal.Equal(dec("2000.00")) {
		t.Errorf("credit total = %s, want 2000.00", res.Summary.CreditTotal)
	}
	if len(res.Credits) != 1 || len(res.Debits) != 2 {
		t.Errorf("split = %d debits / %d credits, want 2/1", len(res.Debits), len(res.Credits))
	}
}

func TestCategorize_FirstMatchWins(t *testing.T) {
	cats := []model.Category{
		{Name: model.Uncategorized},
		{Name: "Food", Keywords: []string{"market"}},
		{Name: "Groceries", Keywords: []string{" MARKET ", "bakery"}},
	}
	txs := Categorize([]model.Transaction{
		tx(1, "Market", "1", model.Debit),
		tx(2, "bakery", "1", model.Debit),
	}, NewMatcher(cats))

	if txs[0].Category != "Food" {
		t.Errorf("Market -> %q, want Food (first category in order)", txs[0].Category)
	}
	if txs[1].Category != "Groceries" {
		t.Errorf("bakery -> %q, want Groceries", txs[1].Category)
	}
}

func TestCategorize_ExactMatchOnly(t *testing.T) {
	m := NewMatcher([]model.Category{{Name: "Food", Keywords: []string{"coffee"}}})

	tests := map[string]string{
		"coffee":      "Food",
		"COFFEE":      "Food",
		"coffee shop": model.Uncategorized,
		"cofee":       model.Uncategorized,
		" coffee":     model.Uncategorized,
		"":            model.Uncategorized,
	}
	for details, want := range tests {
		if got := m.Match(details); got != want {
			t.Errorf("Match(%q) = %q, want %q", details, got, want)
		}
	}
}

func TestCategorize_UncategorizedKeywordsIgnored(t *testing.T) {
	m := NewMatcher([]model.Category{{Name: model.Uncategorized, Keywords: []string{"rent"}}})
	if got := m.Match("rent"); got != model.Uncategorized {
		t.Errorf("Match(rent) = %q, want %q", got, model.Uncategorized)
	}
}

func TestCategorize_Property(t *testing.T) {
	cats := []model.Category{
		{Name: model.Uncategorized},
		{Name: "Food", Keywords: []string{"coffee shop", "Bakery "}},
		{Name: "Rent", Keywords: []string{"landlord"}},
	}
	in := []model.Transaction{
		tx(1, "Coffee Shop", "1", model.Debit),
		tx(2, "bakery", "1", model.Debit),
		tx(3, "LANDLORD", "1", model.Debit),
		tx(4, "Taxi", "1", model.Debit),
		tx(5, "Coffee Shop #2", "1", model.Credit),
	}
	m := NewMatcher(cats)
	out := Categorize(in, m)

	keywords := make(map[string]map[string]bool)
	for _, c := range cats {
		keywords[c.Name] = make(map[string]bool)
		for _, kw := range c.Keywords {
			keywords[c.Name][strings.ToLower(strings.TrimSpace(kw))] = true
		}
	}
	for _, r := range out {
		if r.Category == model.Uncategorized {
			continue
		}
		if !keywords[r.Category][strings.ToLower(r.Details)] {
			t.Errorf("row %d %q assigned %q without a matching keyword", r.ID, r.Details, r.Category)
		}
	}

	again := Categorize(out, m)
	for i := range out {
		if again[i].Category != out[i].Category {
			t.Errorf("row %d: %q then %q, want idempotent", out[i].ID, out[i].Category, again[i].Category)
		}
	}

	if in[0].Category != "" {
		t.Error("Categorize mutated its input")
	}
}

func TestAggregateCategories_SumAndOrder(t *testing.T) {
	debits := []model.Transaction{
		{Category: "Rent", Amount: dec("500")},
		{Category: "Food", Amount: dec("20.25")},
		{Category: "Food", Amount: dec("30.75")},
		{Category: "Bills", Amount: dec("51")},
		{Category: "Alpha", Amount: dec("51")},
	}
	totals := AggregateCategories(debits, nil)

	var names []string
	sum := decimal.Zero
	for _, ct := range totals {
		names = append(names, ct.Category)
		sum = sum.Add(ct.Amount)
	}
	if got := strings.Join(names, ","); got != "Rent,Alpha,Bills,Food" {
		t.Errorf("order = %s, want Rent,Alpha,Bills,Food", got)
	}
	if want := SumAmounts(debits); !sum.Equal(want) {
		t.Errorf("sum of totals = %s, want %s", sum, want)
	}
	for _, ct := range totals {
		if !ct.Budget.IsZero() || !ct.PercentUsed.IsZero() {
			t.Errorf("%s: budget %s percent %s, want 0/0 without budgets", ct.Category, ct.Budget, ct.PercentUsed)
		}
		if !ct.Remaining.Equal(ct.Amount.Neg()) {
			t.Errorf("%s: remaining = %s, want %s", ct.Category, ct.Remaining, ct.Amount.Neg())
		}
	}
}

func TestAggregateCategories_OmitsEmptyCategories(t *testing.T) {
	totals := AggregateCategories(nil, map[string]decimal.Decimal{"Food": dec("10")})
	if len(totals) != 0 {
		t.Errorf("totals = %+v, want none", totals)
	}
}

func TestPercentUsed(t *testing.T) {
	tests := []struct {
		amount, budget, want string
	}{
		{"5", "0", "0"},
		{"0", "0", "0"},
		{"10", "10", "100.0"},
		{"7.70", "10", "77.0"},
		{"1", "3", "33.3"},
		{"2", "3", "66.7"},
		{"15", "10", "150"},
		{"0", "25", "0"},
		{"12.25", "100", "12.2"},
		{"12.35", "100", "12.4"},
		{"1", "8", "12.5"},
	}
	for _, tt := range tests {
		got := PercentUsed(dec(tt.amount), dec(tt.budget))
		if !got.Equal(dec(tt.want)) {
			t.Errorf("PercentUsed(%s, %s) = %s, want %s", tt.amount, tt.budget, got, tt.want)
		}
	}
}

func TestOverBudget(t *testing.T) {
	totals := AggregateCategories(
		[]model.Transaction{{Category: "Food", Amount: dec("12")}},
		map[string]decimal.Decimal{"Food": dec("10")},
	)
	if !totals[0].OverBudget() {
		t.Error("OverBudget = false, want true")
	}
	if !totals[0].Remaining.Equal(dec("-2")) {
		t.Errorf("remaining = %s, want -2", totals[0].Remaining)
	}
}

func TestSplitByPolarity_UnknownExcluded(t *testing.T) {
	debits, credits := SplitByPolarity([]model.Transaction{
		tx(1, "a", "1", model.Debit),
		tx(2, "b", "1", model.PolarityUnknown),
		tx(3, "c", "1", model.Credit),
	})
	if len(debits) != 1 || len(credits) != 1 {
		t.Errorf("split = %d/%d, want 1/1", len(debits), len(credits))
	}
}

func TestRun_OverridesWin(t *testing.T) {
	res := Run(Input{
		Transactions: []model.Transaction{tx(1, "Coffee Shop", "4", model.Debit)},
		Categories:   []model.Category{{Name: "Food", Keywords: []string{"coffee shop"}}, {Name: "Treats"}},
		Overrides:    map[int]string{1: "Treats"},
	})
	if res.Transactions[0].Category != "Treats" {
		t.Errorf("category = %q, want Treats", res.Transactions[0].Category)
	}
}

func TestSuggest(t *testing.T) {
	cats := []model.Category{
		{Name: model.Uncategorized},
		{Name: "Food", Keywords: []string{"coffee shop"}},
		{Name: "Transport", Keywords: []string{"metro card"}},
	}
	debits := []model.Transaction{
		{ID: 1, Details: "Coffee Shoq", Category: model.Uncategorized},
		{ID: 2, Details: "Something Else Entirely", Category: model.Uncategorized},
		{ID: 3, Details: "Coffee Shop", Category: "Food"},
	}
	got := Suggest(debits, cats)
	if len(got) != 1 {
		t.Fatalf("suggestions = %+v, want 1", got)
	}
	if got[0].TransactionID != 1 || got[0].Category != "Food" || got[0].Distance != 1 {
		t.Errorf("suggestion = %+v, want row 1 -> Food at distance 1", got[0])
	}
}
