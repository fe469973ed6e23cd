// Package basket turns tabular records into transactions and encodes them
// as a transaction × item indicator matrix.
package basket

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// Transaction is one basket: an identifier plus a set of item labels.
// Labels are opaque; case and whitespace are significant.
type Transaction struct {
	ID    string
	Items mapset.Set[string]
}

// NewTransaction builds a transaction, collapsing duplicate items.
func NewTransaction(id string, items ...string) Transaction {
	return Transaction{ID: id, Items: mapset.NewThreadUnsafeSet(items...)}
}

// Add inserts an item label.
func (t *Transaction) Add(item string) {
	if t.Items == nil {
		t.Items = mapset.NewThreadUnsafeSet[string]()
	}
	t.Items.Add(item)
}

// Len returns the number of distinct items.
func (t Transaction) Len() int {
	if t.Items == nil {
		return 0
	}
	return t.Items.Cardinality()
}

// Labels returns the items in lexical order.
func (t Transaction) Labels() []string {
	if t.Items == nil {
		return nil
	}
	out := t.Items.ToSlice()
	sort.Strings(out)
	return out
}
