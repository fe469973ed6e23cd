package mining

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/basketloom-cli/internal/basket"
)

var (
	// ErrInvalidSupport indicates a minimum support outside (0, 1].
	ErrInvalidSupport = errors.New("minimum support must be in (0, 1]")
	// ErrUnknownMetric indicates a rule metric name that is not supported.
	ErrUnknownMetric = errors.New("unknown rule metric")
	// ErrInvalidThreshold indicates a metric threshold that cannot be satisfied meaningfully.
	ErrInvalidThreshold = errors.New("invalid metric threshold")
	// ErrNoTransactions is returned when support would be computed over zero rows.
	ErrNoTransactions = basket.ErrNoTransactions
	// ErrInconsistent marks a broken invariant between mining and rule derivation.
	ErrInconsistent = errors.New("internal consistency error")
)

// InconsistencyError reports a subset whose support was expected in the
// frequent-itemset result but was missing.
type InconsistencyError struct {
	Itemset []string
	Subset  []string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("%v: support of {%s} missing while deriving rules from {%s}",
		ErrInconsistent, strings.Join(e.Subset, ", "), strings.Join(e.Itemset, ", "))
}

func (e *InconsistencyError) Unwrap() error { return ErrInconsistent }
