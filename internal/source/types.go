package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Required statement columns, matched after trimming header whitespace.
const (
	ColDate     = "Date"
	ColDetails  = "Details"
	ColAmount   = "Amount"
	ColPolarity = "Debit/Credit"
)

// DateLayouts are tried in order when parsing the Date column.
var DateLayouts = []string{"2 Jan 2006", "2 January 2006"}

// Format is the container format of a statement file.
type Format int

const (
	FormatCSV Format = iota
	FormatXLSX
)

func (f Format) String() string {
	if f == FormatXLSX {
		return "xlsx"
	}
	return "csv"
}

// FormatFor picks a format from a file name. Anything that is not .xlsx is
// read as CSV.
func FormatFor(name string) Format {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// DiscoveredFile is a statement file found on disk.
type DiscoveredFile struct {
	Path   string
	Name   string
	Format Format
}

var (
	ErrNoHeader      = errors.New("no header row")
	ErrMissingColumn = errors.New("missing required column")
	ErrBadDate       = errors.New("invalid date")
	ErrBadAmount     = errors.New("invalid amount")
)

// LoadError is the single failure surfaced when a statement cannot be
// loaded. Line is 1-based and zero when the failure is not tied to a row.
type LoadError struct {
	File   string
	Line   int
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteString(": ")
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Column != "" {
		b.WriteString(e.Column)
		b.WriteString(": ")
	}
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }
