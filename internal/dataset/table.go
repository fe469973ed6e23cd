package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrColumnNotFound indicates a requested column is absent from the table header.
	ErrColumnNotFound = errors.New("column not found")
	// ErrInvalidNumeric indicates a cell that should be numeric could not be parsed.
	ErrInvalidNumeric = errors.New("invalid numeric value")
)

// Options controls how tabular files are read.
type Options struct {
	// MaxRows limits rows loaded; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, chosen from the file extension (',' or '\t').
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// XLSX sheet selection; SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
}

// DefaultOptions returns reasonable defaults for loading datasets.
func DefaultOptions() Options {
	return Options{SheetIndex: 1}
}

// Table is an in-memory table of string cells with a header row.
// Every row has exactly len(Header) cells.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
	// Total counts data rows seen in the source, including rows skipped by MaxRows.
	Total int
}

// Len returns the number of loaded data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Column resolves a column name (case-insensitive, trimmed) to its index.
func (t *Table) Column(name string) (int, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, h := range t.Header {
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q (available: %s)", ErrColumnNotFound, name, strings.Join(t.Header, ", "))
}

// Columns resolves several column names, failing on the first unknown one.
func (t *Table) Columns(names []string) ([]int, error) {
	out := make([]int, 0, len(names))
	for _, n := range names {
		idx, err := t.Column(n)
		if err != nil {
			return nil, err
		}
		out = append(out, idx)
	}
	return out, nil
}

// Cell returns the trimmed value at (row, col) and whether it is present.
// Blank cells are missing.
func (t *Table) Cell(row, col int) (string, bool) {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return "", false
	}
	v := strings.TrimSpace(t.Rows[row][col])
	return v, v != ""
}

// Select returns a new table holding only the rows at the given indexes.
func (t *Table) Select(rows []int) *Table {
	out := &Table{Name: t.Name, Header: t.Header, Total: t.Total, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		out.Rows = append(out.Rows, t.Rows[r])
	}
	return out
}

// Load reads a CSV/TSV or XLSX file depending on its extension.
func Load(path string, opt Options) (*Table, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return LoadXLSX(path, opt)
	}
	return LoadCSV(path, opt)
}

// LoadCSV reads a delimited text file with a header row.
func LoadCSV(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	t, err := ReadCSV(f, delim, opt.MaxRows)
	if err != nil {
		return nil, err
	}
	t.Name = filepath.Base(path)
	return t, nil
}

// ReadCSV reads delimited records from r. The first record is the header.
func ReadCSV(r io.Reader, delim rune, maxRows int) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := &Table{Header: cleanHeader(header)}
	acc := newRowAccumulator(t, maxRows)
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", t.Total+1, err)
		}
		acc.add(rec)
	}
	return t, nil
}

type rowAccumulator struct {
	t       *Table
	maxRows int
}

func newRowAccumulator(t *Table, maxRows int) *rowAccumulator {
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	return &rowAccumulator{t: t, maxRows: maxRows}
}

// add normalizes a record to the header width and appends it.
func (a *rowAccumulator) add(rec []string) {
	a.t.Total++
	if len(a.t.Rows) >= a.maxRows {
		return
	}
	ncol := len(a.t.Header)
	row := make([]string, ncol)
	copy(row, rec)
	a.t.Rows = append(a.t.Rows, row)
}

func cleanHeader(h []string) []string {
	out := make([]string, len(h))
	for i, v := range h {
		v = strings.TrimSpace(strings.TrimPrefix(v, "\ufeff"))
		if v == "" {
			v = fmt.Sprintf("column_%d", i+1)
		}
		out[i] = v
	}
	return out
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
