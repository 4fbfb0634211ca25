// Package source discovers and parses bank statement files into transactions.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/fburn/internal/model"
)

// ParseResult holds the output of parsing a single statement file.
type ParseResult struct {
	File         DiscoveredFile
	Transactions []model.Transaction
	Err          error
}

// ParseFile reads a statement and returns its rows, uncategorized. Any
// malformed row fails the whole file with a *LoadError; there is no partial
// result.
func ParseFile(df DiscoveredFile) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{File: df, Err: &LoadError{File: df.Name, Err: err}}
	}
	defer func() { _ = f.Close() }()

	txs, err := Parse(f, df.Name, df.Format)
	return ParseResult{File: df, Transactions: txs, Err: err}
}

// Parse decodes a statement from r. name is only used in error messages and
// as the Source of each row.
func Parse(r io.Reader, name string, format Format) ([]model.Transaction, error) {
	if format == FormatXLSX {
		return ParseXLSX(r, name)
	}
	return ParseCSV(r, name)
}

// ParseCSV decodes a comma-separated statement with a header row.
func ParseCSV(r io.Reader, name string) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &LoadError{File: name, Err: ErrNoHeader}
	}
	if err != nil {
		return nil, csvLoadError(name, err)
	}

	dec, err := newRowDecoder(header, false)
	if err != nil {
		return nil, &LoadError{File: name, Line: 1, Err: err}
	}

	var txs []model.Transaction
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvLoadError(name, err)
		}
		line, _ := cr.FieldPos(0)
		tx, err := dec.decode(rec, name, line)
		if err != nil {
			return nil, err
		}
		tx.ID = len(txs) + 1
		txs = append(txs, tx)
	}
	return txs, nil
}

func csvLoadError(name string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &LoadError{File: name, Line: pe.Line, Err: pe.Err}
	}
	return &LoadError{File: name, Err: err}
}

// ParseXLSX decodes the first sheet of a workbook laid out like the CSV
// statement. Cells are read raw so that date cells arrive as serials.
func ParseXLSX(r io.Reader, name string) ([]model.Transaction, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &LoadError{File: name, Err: fmt.Errorf("opening workbook: %w", err)}
	}
	defer func() { _ = wb.Close() }()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, &LoadError{File: name, Err: ErrNoHeader}
	}
	rows, err := wb.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &LoadError{File: name, Err: fmt.Errorf("reading sheet %q: %w", sheets[0], err)}
	}

	headerAt := -1
	for i, row := range rows {
		if !blankRow(row) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, &LoadError{File: name, Err: ErrNoHeader}
	}

	dec, err := newRowDecoder(rows[headerAt], true)
	if err != nil {
		return nil, &LoadError{File: name, Line: headerAt + 1, Err: err}
	}

	var txs []model.Transaction
	for i := headerAt + 1; i < len(rows); i++ {
		row := rows[i]
		if blankRow(row) {
			continue
		}
		// GetRows drops trailing empty cells.
		for len(row) < dec.width {
			row = append(row, "")
		}
		tx, err := dec.decode(row, name, i+1)
		if err != nil {
			return nil, err
		}
		tx.ID = len(txs) + 1
		txs = append(txs, tx)
	}
	return txs, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// rowDecoder maps a header to column indexes and converts records.
type rowDecoder struct {
	width    int
	date     int
	details  int
	amount   int
	polarity int
	serials  bool
}

func newRowDecoder(header []string, serials bool) (*rowDecoder, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[strings.ToLower(h)]; !dup {
			idx[strings.ToLower(h)] = i
		}
	}

	d := &rowDecoder{width: len(header), serials: serials}
	var missing []string
	for _, c := range []struct {
		name string
		dst  *int
	}{
		{ColDate, &d.date},
		{ColDetails, &d.details},
		{ColAmount, &d.amount},
		{ColPolarity, &d.polarity},
	} {
		i, ok := idx[strings.ToLower(c.name)]
		if !ok {
			missing = append(missing, c.name)
			continue
		}
		*c.dst = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return d, nil
}

func (d *rowDecoder) decode(rec []string, file string, line int) (model.Transaction, error) {
	fail := func(col string, err error) (model.Transaction, error) {
		return model.Transaction{}, &LoadError{File: file, Line: line, Column: col, Err: err}
	}

	date, err := d.parseDate(rec[d.date])
	if err != nil {
		return fail(ColDate, err)
	}
	amount, err := ParseAmount(rec[d.amount])
	if err != nil {
		return fail(ColAmount, err)
	}

	return model.Transaction{
		Date:     date,
		Details:  rec[d.details],
		Amount:   amount,
		Polarity: ParsePolarity(rec[d.polarity]),
		Source:   file,
		Line:     line,
	}, nil
}

func (d *rowDecoder) parseDate(s string) (time.Time, error) {
	t, err := ParseDate(s)
	if err == nil || !d.serials {
		return t, err
	}
	serial, ferr := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if ferr != nil || serial <= 0 {
		return time.Time{}, err
	}
	t, xerr := excelize.ExcelDateToTime(serial, false)
	if xerr != nil {
		return time.Time{}, err
	}
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC), nil
}

// ParseDate parses a statement date such as "05 Mar 2024".
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w %q (want e.g. 05 Mar 2024)", ErrBadDate, s)
}

// ParseAmount parses a non-negative amount, dropping thousands separators.
func ParseAmount(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if clean == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrBadAmount)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w %q", ErrBadAmount, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w %q: amounts are magnitudes, sign belongs in Debit/Credit", ErrBadAmount, s)
	}
	return d, nil
}

// ParsePolarity reads the Debit/Credit flag. Unrecognised values yield
// PolarityUnknown and the row joins neither branch.
func ParsePolarity(s string) model.Polarity {
	switch {
	case strings.EqualFold(strings.TrimSpace(s), "debit"):
		return model.Debit
	case strings.EqualFold(strings.TrimSpace(s), "credit"):
		return model.Credit
	default:
		return model.PolarityUnknown
	}
}
