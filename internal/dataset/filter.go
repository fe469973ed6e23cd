package dataset

import (
	"fmt"
	"strings"
)

// InvalidPolicy decides what happens to rows whose numeric cell cannot be parsed.
type InvalidPolicy string

const (
	// InvalidDrop removes the row and counts it in FilterStats.Invalid.
	InvalidDrop InvalidPolicy = "drop"
	// InvalidReject fails the whole step with ErrInvalidNumeric.
	InvalidReject InvalidPolicy = "reject"
)

// ParseInvalidPolicy validates a policy name. Empty means InvalidDrop.
func ParseInvalidPolicy(s string) (InvalidPolicy, error) {
	switch InvalidPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", InvalidDrop:
		return InvalidDrop, nil
	case InvalidReject:
		return InvalidReject, nil
	default:
		return "", fmt.Errorf("unknown invalid-numeric policy %q (use drop|reject)", s)
	}
}

// FilterStats reports how a filter treated the input rows.
type FilterStats struct {
	Input   int
	Kept    int
	Dropped int // rows that failed the predicate
	Invalid int // rows with an unparseable numeric cell
	Missing int // rows with a blank cell in the filtered column
}

// Add merges s2 into s, treating s2 as a later stage over s's kept rows.
func (s FilterStats) Add(s2 FilterStats) FilterStats {
	if s.Input == 0 {
		s.Input = s2.Input
	}
	s.Kept = s2.Kept
	s.Dropped += s2.Dropped
	s.Invalid += s2.Invalid
	s.Missing += s2.Missing
	return s
}

// FilterPositive keeps rows whose numeric value in column is strictly positive.
func FilterPositive(t *Table, column string, policy InvalidPolicy, opt Options) (*Table, FilterStats, error) {
	st := FilterStats{Input: t.Len()}
	col, err := t.Column(column)
	if err != nil {
		return nil, st, err
	}
	keep := make([]int, 0, t.Len())
	for i := range t.Rows {
		v, ok := t.Cell(i, col)
		if !ok {
			st.Missing++
			continue
		}
		x, ok := ParseNumber(v, opt)
		if !ok {
			if policy == InvalidReject {
				return nil, st, fmt.Errorf("%w: row %d column %q: %q", ErrInvalidNumeric, i+1, t.Header[col], v)
			}
			st.Invalid++
			continue
		}
		if x <= 0 {
			st.Dropped++
			continue
		}
		keep = append(keep, i)
	}
	st.Kept = len(keep)
	return t.Select(keep), st, nil
}

// FilterEquals keeps rows whose value in column equals value (case-insensitive).
func FilterEquals(t *Table, column, value string) (*Table, FilterStats, error) {
	st := FilterStats{Input: t.Len()}
	col, err := t.Column(column)
	if err != nil {
		return nil, st, err
	}
	want := strings.TrimSpace(value)
	keep := make([]int, 0, t.Len())
	for i := range t.Rows {
		v, ok := t.Cell(i, col)
		if !ok {
			st.Missing++
			continue
		}
		if !strings.EqualFold(v, want) {
			st.Dropped++
			continue
		}
		keep = append(keep, i)
	}
	st.Kept = len(keep)
	return t.Select(keep), st, nil
}
