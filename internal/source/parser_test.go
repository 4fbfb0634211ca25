package source

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/fburn/internal/model"
)

// writeStatement creates a temp CSV file and returns a DiscoveredFile for it.
func writeStatement(t *testing.T, lines ...string) DiscoveredFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "statement.csv")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return DiscoveredFile{Path: path, Name: "statement.csv", Format: FormatCSV}
}

func TestParseFile_Basic(t *testing.T) {
	df := writeStatement(t,
		` Date , Details ,Amount, Debit/Credit `,
		`01 Jan 2024,Coffee Shop,4.50,Debit`,
		`02 Jan 2024,Coffee Shop,3.20,Debit`,
		`03 Jan 2024,Salary,"2,000.00",Credit`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	txs := result.Transactions
	if len(txs) != 3 {
		t.Fatalf("rows = %d, want 3", len(txs))
	}

	first := txs[0]
	if first.ID != 1 {
		t.Errorf("ID = %d, want 1", first.ID)
	}
	if want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); !first.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", first.Date, want)
	}
	if first.Details != "Coffee Shop" {
		t.Errorf("Details = %q, want Coffee Shop", first.Details)
	}
	if first.Amount.String() != "4.5" {
		t.Errorf("Amount = %s, want 4.5", first.Amount)
	}
	if first.Polarity != model.Debit {
		t.Errorf("Polarity = %v, want Debit", first.Polarity)
	}
	if first.Category != "" {
		t.Errorf("Category = %q, want empty before categorizing", first.Category)
	}

	if txs[2].Amount.StringFixed(2) != "2000.00" {
		t.Errorf("thousands amount = %s, want 2000.00", txs[2].Amount.StringFixed(2))
	}
	if txs[2].Polarity != model.Credit {
		t.Errorf("Polarity = %v, want Credit", txs[2].Polarity)
	}
}

func TestParseFile_DetailsNotTrimmed(t *testing.T) {
	df := writeStatement(t,
		`Date,Details,Amount,Debit/Credit`,
		`01 Jan 2024, Coffee Shop ,4.50,Debit`,
	)
	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if got := result.Transactions[0].Details; got != " Coffee Shop " {
		t.Errorf("Details = %q, want untrimmed", got)
	}
}

func TestParseFile_ExtraColumnsAndOrder(t *testing.T) {
	df := writeStatement(t,
		`Debit/Credit,Ref,Amount,Details,Date`,
		`Debit,X1,10,Rent,15 Feb 2024`,
	)
	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	tx := result.Transactions[0]
	if tx.Details != "Rent" || tx.Amount.String() != "10" || tx.Date.Month() != time.February {
		t.Errorf("row = %+v, want Rent/10/February", tx)
	}
}

func TestParseFile_Failures(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		wantErr error
		line    int
	}{
		{
			name:    "missing column",
			lines:   []string{`Date,Details,Amount`, `01 Jan 2024,Coffee,1,Debit`},
			wantErr: ErrMissingColumn,
			line:    1,
		},
		{
			name:    "bad date",
			lines:   []string{`Date,Details,Amount,Debit/Credit`, `01 Jan 2024,A,1,Debit`, `2024-01-02,B,1,Debit`},
			wantErr: ErrBadDate,
			line:    3,
		},
		{
			name:    "bad amount",
			lines:   []string{`Date,Details,Amount,Debit/Credit`, `01 Jan 2024,A,abc,Debit`},
			wantErr: ErrBadAmount,
			line:    2,
		},
		{
			name:    "negative amount",
			lines:   []string{`Date,Details,Amount,Debit/Credit`, `01 Jan 2024,A,-4.00,Debit`},
			wantErr: ErrBadAmount,
			line:    2,
		},
		{
			name:  "ragged row",
			lines: []string{`Date,Details,Amount,Debit/Credit`, `01 Jan 2024,A,1,Debit,extra`},
			line:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseFile(writeStatement(t, tt.lines...))
			if result.Err == nil {
				t.Fatal("expected error, got nil")
			}
			if result.Transactions != nil {
				t.Errorf("got %d rows alongside error, want none", len(result.Transactions))
			}
			var le *LoadError
			if !errors.As(result.Err, &le) {
				t.Fatalf("error %T is not *LoadError", result.Err)
			}
			if le.Line != tt.line {
				t.Errorf("Line = %d, want %d", le.Line, tt.line)
			}
			if tt.wantErr != nil && !errors.Is(result.Err, tt.wantErr) {
				t.Errorf("error = %v, want %v", result.Err, tt.wantErr)
			}
		})
	}
}

func TestParseFile_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	result := ParseFile(DiscoveredFile{Path: path, Name: "empty.csv"})
	if !errors.Is(result.Err, ErrNoHeader) {
		t.Errorf("error = %v, want ErrNoHeader", result.Err)
	}
}

func TestParseFile_HeaderOnly(t *testing.T) {
	result := ParseFile(writeStatement(t, `Date,Details,Amount,Debit/Credit`))
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Transactions) != 0 {
		t.Errorf("rows = %d, want 0", len(result.Transactions))
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"05 Mar 2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"5 Mar 2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{" 05 mar 2024 ", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"05 March 2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"2024-03-05", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseDate(%q) err = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if tt.ok && !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParsePolarity(t *testing.T) {
	tests := map[string]model.Polarity{
		"Debit":   model.Debit,
		" credit": model.Credit,
		"DEBIT":   model.Debit,
		"Refund":  model.PolarityUnknown,
		"":        model.PolarityUnknown,
	}
	for in, want := range tests {
		if got := ParsePolarity(in); got != want {
			t.Errorf("ParsePolarity(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Date", "Details", "Amount", "Debit/Credit"},
		{"01 Jan 2024", "Coffee Shop", 4.5, "Debit"},
		{time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), "Salary", "2,000.00", "Credit"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	txs, err := Parse(bytes.NewReader(buf.Bytes()), "statement.xlsx", FormatXLSX)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("rows = %d, want 2", len(txs))
	}
	if txs[0].Amount.StringFixed(2) != "4.50" {
		t.Errorf("Amount = %s, want 4.50", txs[0].Amount.StringFixed(2))
	}
	if want := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC); !txs[1].Date.Equal(want) {
		t.Errorf("serial Date = %v, want %v", txs[1].Date, want)
	}
	if txs[1].Polarity != model.Credit {
		t.Errorf("Polarity = %v, want Credit", txs[1].Polarity)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.CSV", "c.xlsx", "notes.txt", ".hidden.csv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	files, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	if got := strings.Join(names, ","); got != "a.CSV,b.csv,c.xlsx" {
		t.Errorf("files = %s, want a.CSV,b.csv,c.xlsx", got)
	}
	if files[2].Format != FormatXLSX {
		t.Errorf("c.xlsx format = %v, want xlsx", files[2].Format)
	}

	if _, err := Discover(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("Discover(missing) = nil error, want error")
	}
}
