package mining

import (
	"sort"
	"strings"
)

// Itemset is a frequent itemset with its support.
// Items are kept in lexical order.
type Itemset struct {
	Items   []string
	Support float64
	Count   int
}

// Len returns the number of items.
func (s Itemset) Len() int { return len(s.Items) }

// String renders the items as "{a, b}".
func (s Itemset) String() string { return "{" + strings.Join(s.Items, ", ") + "}" }

// Frequent is the immutable result of frequent-itemset mining.
type Frequent struct {
	// Itemsets ordered by support desc, then size asc, then discovery order.
	Itemsets     []Itemset
	Transactions int
	MinSupport   float64
	Levels       []LevelStat

	lookup map[string]int
}

// LevelStat records the search effort at one itemset size.
type LevelStat struct {
	Size       int
	Candidates int
	Frequent   int
}

func newFrequent(n int, minSupport float64, sets []Itemset) *Frequent {
	f := &Frequent{Itemsets: sets, Transactions: n, MinSupport: minSupport, lookup: make(map[string]int, len(sets))}
	for i, s := range sets {
		f.lookup[key(s.Items)] = i
	}
	return f
}

// Len returns the number of frequent itemsets.
func (f *Frequent) Len() int { return len(f.Itemsets) }

// Empty reports whether no itemset met the threshold.
func (f *Frequent) Empty() bool { return len(f.Itemsets) == 0 }

// MaxSize returns the size of the largest frequent itemset.
func (f *Frequent) MaxSize() int {
	n := 0
	for _, s := range f.Itemsets {
		if s.Len() > n {
			n = s.Len()
		}
	}
	return n
}

// Lookup returns the frequent itemset with exactly the given items, in any order.
func (f *Frequent) Lookup(items []string) (Itemset, bool) {
	cp := append([]string(nil), items...)
	sort.Strings(cp)
	i, ok := f.lookup[key(cp)]
	if !ok {
		return Itemset{}, false
	}
	return f.Itemsets[i], true
}

// Top returns up to n itemsets in result order; n <= 0 returns all.
func (f *Frequent) Top(n int) []Itemset {
	if n <= 0 || n > len(f.Itemsets) {
		n = len(f.Itemsets)
	}
	return f.Itemsets[:n]
}

// key joins sorted labels with the ASCII unit separator.
func key(sorted []string) string { return strings.Join(sorted, "\x1f") }
