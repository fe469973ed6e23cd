package basket

import (
	"errors"
	"math/bits"
	"sort"
)

// ErrNoTransactions indicates support was requested over a matrix with zero rows.
var ErrNoTransactions = errors.New("support is undefined for zero transactions")

// Matrix is a transaction × item indicator matrix. Row i corresponds to the
// i-th encoded transaction; columns follow Items(). It is immutable once built.
//
// Columns are stored as bitsets over rows so that counting the rows that
// contain a set of items is a word-wise AND followed by a popcount.
type Matrix struct {
	ids     []string
	items   []string
	index   map[string]int
	cols    [][]uint64
	rowSums []int
	nrows   int
	words   int
}

// Encode builds the indicator matrix for txns. The item universe is sorted
// lexically, so column order does not depend on input order. An empty input
// yields a matrix with zero rows and zero columns.
func Encode(txns []Transaction) *Matrix {
	universe := map[string]struct{}{}
	for _, t := range txns {
		for _, it := range t.Labels() {
			universe[it] = struct{}{}
		}
	}
	items := make([]string, 0, len(universe))
	for it := range universe {
		items = append(items, it)
	}
	sort.Strings(items)

	m := &Matrix{
		ids:     make([]string, len(txns)),
		items:   items,
		index:   make(map[string]int, len(items)),
		cols:    make([][]uint64, len(items)),
		rowSums: make([]int, len(txns)),
		nrows:   len(txns),
		words:   (len(txns) + 63) / 64,
	}
	for c, it := range items {
		m.index[it] = c
		m.cols[c] = make([]uint64, m.words)
	}
	for r, t := range txns {
		m.ids[r] = t.ID
		for _, it := range t.Labels() {
			c := m.index[it]
			m.cols[c][r/64] |= 1 << (uint(r) % 64)
			m.rowSums[r]++
		}
	}
	return m
}

// Rows returns the number of transactions.
func (m *Matrix) Rows() int { return m.nrows }

// Cols returns the number of distinct items.
func (m *Matrix) Cols() int { return len(m.items) }

// Items returns the column labels. The slice must not be modified.
func (m *Matrix) Items() []string { return m.items }

// IDs returns the transaction identifiers in row order.
func (m *Matrix) IDs() []string { return m.ids }

// Index returns the column of an item label.
func (m *Matrix) Index(item string) (int, bool) {
	c, ok := m.index[item]
	return c, ok
}

// At reports whether transaction r contains item c.
func (m *Matrix) At(r, c int) bool {
	if r < 0 || r >= m.nrows || c < 0 || c >= len(m.cols) {
		return false
	}
	return m.cols[c][r/64]&(1<<(uint(r)%64)) != 0
}

// RowSum returns the number of items in transaction r.
func (m *Matrix) RowSum(r int) int { return m.rowSums[r] }

// ColSum returns the number of transactions containing item c.
func (m *Matrix) ColSum(c int) int { return m.Count([]int{c}) }

// Count returns the number of rows in which every column in cols is set.
// An empty column list matches every row.
func (m *Matrix) Count(cols []int) int {
	if len(cols) == 0 {
		return m.nrows
	}
	n := 0
	for w := 0; w < m.words; w++ {
		acc := m.cols[cols[0]][w]
		for _, c := range cols[1:] {
			acc &= m.cols[c][w]
			if acc == 0 {
				break
			}
		}
		n += bits.OnesCount64(acc)
	}
	return n
}

// Support returns the fraction of transactions containing all of cols.
func (m *Matrix) Support(cols []int) (float64, error) {
	if m.nrows == 0 {
		return 0, ErrNoTransactions
	}
	return float64(m.Count(cols)) / float64(m.nrows), nil
}
