package basket

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/basketloom-cli/internal/dataset"
)

// ErrNoColumns indicates no item columns were selected.
var ErrNoColumns = errors.New("at least one item column is required")

// ColumnOptions controls FromColumns.
type ColumnOptions struct {
	// IDColumn names the column holding the transaction id; row numbers are used when empty.
	IDColumn string
	// Separator splits a cell into several items; empty disables splitting.
	Separator string
	// PrefixColumn labels items as "column=value".
	PrefixColumn bool
}

// DefaultColumnOptions splits cells on commas and prefixes labels with their column.
func DefaultColumnOptions() ColumnOptions {
	return ColumnOptions{Separator: ",", PrefixColumn: true}
}

// FromColumns builds one transaction per row from the values of the given
// categorical columns. Missing cells contribute no item.
func FromColumns(t *dataset.Table, columns []string, opt ColumnOptions) ([]Transaction, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}
	idxs, err := t.Columns(columns)
	if err != nil {
		return nil, err
	}
	idCol := -1
	if opt.IDColumn != "" {
		if idCol, err = t.Column(opt.IDColumn); err != nil {
			return nil, err
		}
	}
	out := make([]Transaction, 0, t.Len())
	for r := range t.Rows {
		id := strconv.Itoa(r + 1)
		if idCol >= 0 {
			if v, ok := t.Cell(r, idCol); ok {
				id = v
			}
		}
		tx := NewTransaction(id)
		for _, c := range idxs {
			v, ok := t.Cell(r, c)
			if !ok {
				continue
			}
			for _, part := range splitValue(v, opt.Separator) {
				if opt.PrefixColumn {
					part = t.Header[c] + "=" + part
				}
				tx.Add(part)
			}
		}
		out = append(out, tx)
	}
	return out, nil
}

func splitValue(v, sep string) []string {
	if sep == "" {
		return []string{v}
	}
	var out []string
	for _, p := range strings.Split(v, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LineOptions describes a long-format log: one row per (transaction, item).
type LineOptions struct {
	TransactionColumn string
	ItemColumn        string
	// QuantityColumn is optional; without it every line counts as present.
	QuantityColumn string
	Invalid        dataset.InvalidPolicy
	Numeric        dataset.Options
}

// LineItem is one typed record of a long-format log.
type LineItem struct {
	TransactionID string
	Item          string
	Quantity      *float64
}

// ParseLines converts table rows into typed line items. Rows missing the id or
// item are skipped; rows with a non-positive quantity are dropped; unparseable
// quantities follow opt.Invalid.
func ParseLines(t *dataset.Table, opt LineOptions) ([]LineItem, dataset.FilterStats, error) {
	st := dataset.FilterStats{Input: t.Len()}
	txCol, err := t.Column(opt.TransactionColumn)
	if err != nil {
		return nil, st, err
	}
	itemCol, err := t.Column(opt.ItemColumn)
	if err != nil {
		return nil, st, err
	}
	qtyCol := -1
	if opt.QuantityColumn != "" {
		if qtyCol, err = t.Column(opt.QuantityColumn); err != nil {
			return nil, st, err
		}
	}
	out := make([]LineItem, 0, t.Len())
	for r := range t.Rows {
		id, okID := t.Cell(r, txCol)
		item, okItem := t.Cell(r, itemCol)
		if !okID || !okItem {
			st.Missing++
			continue
		}
		li := LineItem{TransactionID: id, Item: item}
		if qtyCol >= 0 {
			raw, ok := t.Cell(r, qtyCol)
			if !ok {
				st.Missing++
				continue
			}
			q, ok := dataset.ParseNumber(raw, opt.Numeric)
			if !ok {
				if opt.Invalid == dataset.InvalidReject {
					return nil, st, fmt.Errorf("%w: row %d column %q: %q", dataset.ErrInvalidNumeric, r+1, t.Header[qtyCol], raw)
				}
				st.Invalid++
				continue
			}
			if q <= 0 {
				st.Dropped++
				continue
			}
			li.Quantity = &q
		}
		out = append(out, li)
	}
	st.Kept = len(out)
	return out, st, nil
}

// GroupLines folds line items into transactions ordered by first appearance.
func GroupLines(lines []LineItem) []Transaction {
	pos := map[string]int{}
	var out []Transaction
	for _, li := range lines {
		i, ok := pos[li.TransactionID]
		if !ok {
			i = len(out)
			pos[li.TransactionID] = i
			out = append(out, NewTransaction(li.TransactionID))
		}
		out[i].Add(li.Item)
	}
	return out
}

// FromLines parses and groups a long-format log in one step.
func FromLines(t *dataset.Table, opt LineOptions) ([]Transaction, dataset.FilterStats, error) {
	lines, st, err := ParseLines(t, opt)
	if err != nil {
		return nil, st, err
	}
	return GroupLines(lines), st, nil
}

// IndicatorOptions describes a pre-pivoted table.
type IndicatorOptions struct {
	IDColumn string
	// Exclude lists non-item columns, such as filter columns.
	Exclude []string
	Numeric dataset.Options
}

// FromIndicator reads a pre-pivoted table where every column other than the
// id and excluded columns is an item and truthy cells mark presence.
func FromIndicator(t *dataset.Table, opt IndicatorOptions) ([]Transaction, error) {
	idCol := -1
	if opt.IDColumn != "" {
		var err error
		if idCol, err = t.Column(opt.IDColumn); err != nil {
			return nil, err
		}
	}
	skip := map[int]bool{idCol: true}
	for _, name := range opt.Exclude {
		c, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		skip[c] = true
	}
	out := make([]Transaction, 0, t.Len())
	for r := range t.Rows {
		id := strconv.Itoa(r + 1)
		if v, ok := t.Cell(r, idCol); ok && idCol >= 0 {
			id = v
		}
		tx := NewTransaction(id)
		for c, name := range t.Header {
			if skip[c] {
				continue
			}
			if v, ok := t.Cell(r, c); ok && truthy(v, opt.Numeric) {
				tx.Add(name)
			}
		}
		out = append(out, tx)
	}
	return out, nil
}

func truthy(v string, numeric dataset.Options) bool {
	switch strings.ToLower(v) {
	case "true", "yes", "y", "x":
		return true
	case "false", "no", "n":
		return false
	}
	x, ok := dataset.ParseNumber(v, numeric)
	return ok && x > 0
}
