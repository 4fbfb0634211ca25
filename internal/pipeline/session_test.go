package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/theirongolddev/fburn/internal/model"
	"github.com/theirongolddev/fburn/internal/source"
	"github.com/theirongolddev/fburn/internal/store"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(store.NewJSONBackend(
		filepath.Join(dir, "categories.json"),
		filepath.Join(dir, "budgets.json"),
	), nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewSession(st, true, nil)
}

func writeCSV(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const header = "Date,Details,Amount,Debit/Credit"

func TestSession_LearningTakesEffect(t *testing.T) {
	s := newSession(t)
	if _, err := s.AddCategory("Food"); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	path := writeCSV(t, dir, "jan.csv", header,
		"01 Jan 2024,Coffee Shop,4.50,Debit",
		"02 Jan 2024,Coffee Shop,3.20,Debit",
		"03 Jan 2024,Salary,2000.00,Credit",
	)
	lr, err := Load(context.Background(), []string{path}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s.SetLoad(lr)

	for _, d := range s.Result().Debits {
		if d.Category != model.Uncategorized {
			t.Fatalf("row %d = %q before learning, want Uncategorized", d.ID, d.Category)
		}
	}

	res, err := s.ApplyEdits([]Edit{{ID: 1, Category: "Food"}})
	if err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}
	if res.Applied != 1 || len(res.Learned) != 1 || res.Learned[0].Keyword != "Coffee Shop" {
		t.Errorf("result = %+v, want 1 applied, Coffee Shop learned", res)
	}

	// Row 2 was never edited; the learned keyword now classifies it.
	for _, d := range s.Result().Debits {
		if d.Category != "Food" {
			t.Errorf("row %d = %q after learning, want Food", d.ID, d.Category)
		}
	}
	if got := s.Store().Keywords("Food"); len(got) != 1 {
		t.Errorf("Food keywords = %v, want one", got)
	}

	// A fresh upload of the same details is categorized without edits.
	s.SetLoad(lr)
	if got := s.Result().Totals; len(got) != 1 || got[0].Category != "Food" {
		t.Errorf("totals after reload = %+v, want Food only", got)
	}
}

func TestSession_ApplyEditsNoChangeIsSkipped(t *testing.T) {
	s := newSession(t)
	lr, err := LoadReader(strings.NewReader(header+"\n01 Jan 2024,Taxi,9,Debit\n"), "upload.csv")
	if err != nil {
		t.Fatal(err)
	}
	s.SetLoad(lr)

	res, err := s.ApplyEdits([]Edit{{ID: 1, Category: model.Uncategorized}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Applied != 0 || len(res.Learned) != 0 {
		t.Errorf("result = %+v, want nothing applied", res)
	}
}

func TestSession_ApplyEditsValidates(t *testing.T) {
	s := newSession(t)
	if _, err := s.AddCategory("Food"); err != nil {
		t.Fatal(err)
	}
	lr, err := LoadReader(strings.NewReader(header+"\n01 Jan 2024,Taxi,9,Debit\n"), "upload.csv")
	if err != nil {
		t.Fatal(err)
	}
	s.SetLoad(lr)

	_, err = s.ApplyEdits([]Edit{{ID: 1, Category: "Food"}, {ID: 1, Category: "Travel"}})
	if !errors.Is(err, store.ErrUnknownCategory) {
		t.Errorf("err = %v, want ErrUnknownCategory", err)
	}
	if got := s.Result().Debits[0].Category; got != model.Uncategorized {
		t.Errorf("category = %q after rejected batch, want Uncategorized", got)
	}

	_, err = s.ApplyEdits([]Edit{{ID: 42, Category: "Food"}})
	if !errors.Is(err, ErrUnknownTransaction) {
		t.Errorf("err = %v, want ErrUnknownTransaction", err)
	}
}

func TestSession_ApplyEditsRejectsCreditRows(t *testing.T) {
	s := newSession(t)
	if _, err := s.AddCategory("Food"); err != nil {
		t.Fatal(err)
	}
	lr, err := LoadReader(strings.NewReader(header+
		"\n03 Jan 2024,Salary,2000.00,Credit"+
		"\n04 Jan 2024,Salary,5.00,Debit\n"), "upload.csv")
	if err != nil {
		t.Fatal(err)
	}
	s.SetLoad(lr)

	res, err := s.ApplyEdits([]Edit{{ID: 1, Category: "Food"}})
	if !errors.Is(err, ErrUnknownTransaction) {
		t.Fatalf("err = %v, want ErrUnknownTransaction", err)
	}
	if res.Applied != 0 || len(res.Learned) != 0 {
		t.Errorf("res = %+v, want nothing applied", res)
	}
	if got := s.Store().Keywords("Food"); len(got) != 0 {
		t.Errorf("Food keywords = %v, want none", got)
	}
	if got := s.Result().Debits[0].Category; got != model.Uncategorized {
		t.Errorf("debit category = %q, want Uncategorized", got)
	}
}

func TestSession_OverrideKeepsEditAgainstEarlierKeyword(t *testing.T) {
	s := newSession(t)
	for _, name := range []string{"Food", "Treats"} {
		if _, err := s.AddCategory(name); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.AddKeyword("Food", "coffee shop"); err != nil {
		t.Fatal(err)
	}
	lr, err := LoadReader(strings.NewReader(header+"\n01 Jan 2024,Coffee Shop,4,Debit\n"), "upload.csv")
	if err != nil {
		t.Fatal(err)
	}
	s.SetLoad(lr)

	if _, err := s.ApplyEdits([]Edit{{ID: 1, Category: "Treats"}}); err != nil {
		t.Fatal(err)
	}
	if got := s.Result().Debits[0].Category; got != "Treats" {
		t.Errorf("category = %q, want Treats", got)
	}
}

func TestLoad_MultipleFilesRenumbered(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "a.csv", header, "01 Jan 2024,A,1,Debit", "02 Jan 2024,B,2,Debit")
	writeCSV(t, dir, "b.csv", header, "03 Jan 2024,C,3,Credit")

	var calls atomic.Int32
	lr, err := Load(context.Background(), []string{dir}, func(current, total int) {
		calls.Add(1)
		if total != 2 {
			t.Errorf("total = %d, want 2", total)
		}
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("progress calls = %d, want 2", n)
	}
	if len(lr.Transactions) != 3 {
		t.Fatalf("rows = %d, want 3", len(lr.Transactions))
	}
	for i, tx := range lr.Transactions {
		if tx.ID != i+1 {
			t.Errorf("row %d ID = %d", i, tx.ID)
		}
	}
	if lr.Transactions[2].Details != "C" {
		t.Errorf("last row = %q, want C from b.csv", lr.Transactions[2].Details)
	}
}

func TestLoad_AnyFailureFailsAll(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "a.csv", header, "01 Jan 2024,A,1,Debit")
	writeCSV(t, dir, "b.csv", header, "not a date,B,2,Debit")

	lr, err := Load(context.Background(), []string{dir}, nil)
	if err == nil {
		t.Fatal("Load = nil error, want failure")
	}
	if lr != nil {
		t.Error("partial result returned with error")
	}
	var le *source.LoadError
	if !errors.As(err, &le) || le.File != "b.csv" {
		t.Errorf("err = %v, want LoadError for b.csv", err)
	}
}
