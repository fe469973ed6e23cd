package mining

import (
	"math"
	"slices"
	"sort"
	"strings"
)

// Rule is a directional association between two disjoint itemsets whose
// union is frequent.
type Rule struct {
	Antecedent        []string
	Consequent        []string
	AntecedentSupport float64
	ConsequentSupport float64
	Support           float64
	Confidence        float64
	Lift              float64
	Leverage          float64
	// Conviction is +Inf when Confidence is 1.
	Conviction float64
}

func (r Rule) String() string {
	return "{" + strings.Join(r.Antecedent, ", ") + "} -> {" + strings.Join(r.Consequent, ", ") + "}"
}

// DeriveRules splits every frequent itemset of size two or more into each
// non-empty proper antecedent and its complement, and keeps the rules whose
// metric is at least minThreshold.
//
// Rules are ordered by the metric descending, then by antecedent and
// consequent in lexical order of their sorted labels.
func DeriveRules(f *Frequent, metric Metric, minThreshold float64) ([]Rule, error) {
	if err := metric.ValidateThreshold(minThreshold); err != nil {
		return nil, err
	}
	if f == nil || f.Empty() {
		return nil, nil
	}
	var rules []Rule
	for _, set := range f.Itemsets {
		k := set.Len()
		if k < 2 {
			continue
		}
		for mask := 1; mask < (1<<k)-1; mask++ {
			ante, cons := split(set.Items, mask)
			a, ok := f.Lookup(ante)
			if !ok {
				return nil, &InconsistencyError{Itemset: set.Items, Subset: ante}
			}
			c, ok := f.Lookup(cons)
			if !ok {
				return nil, &InconsistencyError{Itemset: set.Items, Subset: cons}
			}
			r := newRule(ante, cons, a.Support, c.Support, set.Support)
			if v := metric.Value(r); v >= minThreshold {
				rules = append(rules, r)
			}
		}
	}
	sortRules(rules, metric)
	return rules, nil
}

func newRule(ante, cons []string, sA, sC, sAC float64) Rule {
	conf := sAC / sA
	r := Rule{
		Antecedent:        ante,
		Consequent:        cons,
		AntecedentSupport: sA,
		ConsequentSupport: sC,
		Support:           sAC,
		Confidence:        conf,
		Lift:              conf / sC,
		Leverage:          sAC - sA*sC,
	}
	if conf >= 1 {
		r.Conviction = math.Inf(1)
	} else {
		r.Conviction = (1 - sC) / (1 - conf)
	}
	return r
}

// split partitions sorted items by the bits of mask; both halves stay sorted.
func split(items []string, mask int) (in, out []string) {
	for i, it := range items {
		if mask&(1<<i) != 0 {
			in = append(in, it)
		} else {
			out = append(out, it)
		}
	}
	return in, out
}

func sortRules(rules []Rule, metric Metric) {
	sort.SliceStable(rules, func(i, j int) bool {
		vi, vj := metric.Value(rules[i]), metric.Value(rules[j])
		if vi != vj {
			return vi > vj
		}
		if c := slices.Compare(rules[i].Antecedent, rules[j].Antecedent); c != 0 {
			return c < 0
		}
		return slices.Compare(rules[i].Consequent, rules[j].Consequent) < 0
	})
}

// RuleFilter keeps rules whose sides mention the given text. Matching is a
// case-insensitive substring test against each item label; empty fields
// match everything.
type RuleFilter struct {
	AntecedentContains string
	ConsequentContains string
}

// IsZero reports whether the filter keeps every rule.
func (rf RuleFilter) IsZero() bool {
	return rf.AntecedentContains == "" && rf.ConsequentContains == ""
}

// Match reports whether r passes the filter.
func (rf RuleFilter) Match(r Rule) bool {
	return mentions(r.Antecedent, rf.AntecedentContains) && mentions(r.Consequent, rf.ConsequentContains)
}

// Apply returns the matching rules in their original order.
func (rf RuleFilter) Apply(rules []Rule) []Rule {
	if rf.IsZero() {
		return rules
	}
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if rf.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func mentions(items []string, needle string) bool {
	if needle == "" {
		return true
	}
	needle = strings.ToLower(needle)
	for _, it := range items {
		if strings.Contains(strings.ToLower(it), needle) {
			return true
		}
	}
	return false
}
