// Package mining finds frequent itemsets with a level-wise (Apriori) search
// and derives association rules from them.
//
// The search relies on antimonotonicity: an itemset cannot be more frequent
// than any of its subsets. Candidates of size k are built only by joining
// frequent (k-1)-itemsets that share their first k-2 items, and a candidate
// is discarded before counting if any of its (k-1)-subsets is not frequent.
package mining

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/basketloom-cli/internal/basket"
)

type config struct {
	maxLen int
}

// Option customizes Apriori.
type Option func(*config)

// WithMaxLen stops the search after itemsets of size n; n <= 0 means unlimited.
func WithMaxLen(n int) Option {
	return func(c *config) { c.maxLen = n }
}

// ValidateSupport checks that s lies in (0, 1].
func ValidateSupport(s float64) error {
	if math.IsNaN(s) || s <= 0 || s > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidSupport, s)
	}
	return nil
}

// Apriori returns every itemset whose support in m is at least minSupport.
//
// A matrix with zero rows yields an empty result: no support is ever
// computed for it. The result is ordered by support descending; ties keep
// discovery order, which is by size and then by item position in m.Items().
func Apriori(m *basket.Matrix, minSupport float64, opts ...Option) (*Frequent, error) {
	if err := ValidateSupport(minSupport); err != nil {
		return nil, err
	}
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}
	n := m.Rows()
	if n == 0 {
		return newFrequent(0, minSupport, nil), nil
	}

	var (
		found  []Itemset
		levels []LevelStat
		known  = map[string]struct{}{}
	)
	accept := func(cols []int) bool {
		cnt := m.Count(cols)
		sup := float64(cnt) / float64(n)
		if sup < minSupport {
			return false
		}
		labels := make([]string, len(cols))
		for i, c := range cols {
			labels[i] = m.Items()[c]
		}
		found = append(found, Itemset{Items: labels, Support: sup, Count: cnt})
		known[intsKey(cols)] = struct{}{}
		return true
	}

	var level [][]int
	for c := 0; c < m.Cols(); c++ {
		cols := []int{c}
		if accept(cols) {
			level = append(level, cols)
		}
	}
	levels = append(levels, LevelStat{Size: 1, Candidates: m.Cols(), Frequent: len(level)})

	for k := 2; len(level) > 1 && (cfg.maxLen <= 0 || k <= cfg.maxLen); k++ {
		cands := generateCandidates(level, known)
		var next [][]int
		for _, cand := range cands {
			if accept(cand) {
				next = append(next, cand)
			}
		}
		levels = append(levels, LevelStat{Size: k, Candidates: len(cands), Frequent: len(next)})
		level = next
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].Support > found[j].Support })
	f := newFrequent(n, minSupport, found)
	f.Levels = levels
	return f, nil
}

// generateCandidates joins lexicographically sorted (k-1)-itemsets that share
// their first k-2 items and keeps only candidates whose every (k-1)-subset
// is frequent.
func generateCandidates(level [][]int, known map[string]struct{}) [][]int {
	var out [][]int
	for i := 0; i < len(level); i++ {
		a := level[i]
		for j := i + 1; j < len(level); j++ {
			b := level[j]
			if !samePrefix(a, b) {
				break
			}
			cand := make([]int, len(a)+1)
			copy(cand, a)
			cand[len(a)] = b[len(b)-1]
			if allSubsetsKnown(cand, known) {
				out = append(out, cand)
			}
		}
	}
	return out
}

func samePrefix(a, b []int) bool {
	for i := 0; i < len(a)-1; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func allSubsetsKnown(cand []int, known map[string]struct{}) bool {
	sub := make([]int, 0, len(cand)-1)
	for skip := range cand {
		sub = sub[:0]
		for i, c := range cand {
			if i != skip {
				sub = append(sub, c)
			}
		}
		if _, ok := known[intsKey(sub)]; !ok {
			return false
		}
	}
	return true
}

func intsKey(cols []int) string {
	var b strings.Builder
	for i, c := range cols {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(c))
	}
	return b.String()
}
