package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/basketloom-cli/internal/basket"
	"github.com/KaramelBytes/basketloom-cli/internal/dataset"
	"github.com/KaramelBytes/basketloom-cli/internal/mining"
)

// ErrInvalidParams wraps every configuration error detected before a run starts.
var ErrInvalidParams = errors.New("invalid mining parameters")

// Layout describes how table rows map to transactions.
type Layout string

const (
	// LayoutColumns: one transaction per row, items from categorical columns.
	LayoutColumns Layout = "columns"
	// LayoutLines: one row per (transaction, item, quantity) line.
	LayoutLines Layout = "lines"
	// LayoutIndicator: pre-pivoted transaction × item table.
	LayoutIndicator Layout = "indicator"
)

// ParseLayout validates a layout name. Empty means LayoutColumns.
func ParseLayout(s string) (Layout, error) {
	switch l := Layout(strings.ToLower(strings.TrimSpace(s))); l {
	case "":
		return LayoutColumns, nil
	case LayoutColumns, LayoutLines, LayoutIndicator:
		return l, nil
	}
	return "", fmt.Errorf("%w: unknown layout %q (use columns|lines|indicator)", ErrInvalidParams, s)
}

// Params is the caller-supplied configuration of one mining run.
type Params struct {
	Layout         Layout            `json:"layout" yaml:"layout"`
	Columns        []string          `json:"columns,omitempty" yaml:"columns,omitempty"`
	IDColumn       string            `json:"id_column,omitempty" yaml:"id_column,omitempty"`
	ItemColumn     string            `json:"item_column,omitempty" yaml:"item_column,omitempty"`
	QuantityColumn string            `json:"quantity_column,omitempty" yaml:"quantity_column,omitempty"`
	Separator      string            `json:"separator,omitempty" yaml:"separator,omitempty"`
	PrefixColumns  bool              `json:"prefix_columns" yaml:"prefix_columns"`
	PositiveColumn string            `json:"positive_column,omitempty" yaml:"positive_column,omitempty"`
	Where          map[string]string `json:"where,omitempty" yaml:"where,omitempty"`

	InvalidPolicy dataset.InvalidPolicy `json:"invalid_numeric" yaml:"invalid_numeric"`

	MinSupport   float64       `json:"min_support" yaml:"min_support"`
	Metric       mining.Metric `json:"metric" yaml:"metric"`
	MinThreshold float64       `json:"min_threshold" yaml:"min_threshold"`
	MaxLen       int           `json:"max_len,omitempty" yaml:"max_len,omitempty"`

	AntecedentContains string `json:"antecedent_contains,omitempty" yaml:"antecedent_contains,omitempty"`
	ConsequentContains string `json:"consequent_contains,omitempty" yaml:"consequent_contains,omitempty"`

	// Numeric controls number parsing for filters and quantities.
	Numeric dataset.Options `json:"-" yaml:"-"`
}

// DefaultParams returns the parameters used when nothing else is configured.
func DefaultParams() Params {
	return Params{
		Layout:        LayoutColumns,
		Separator:     ",",
		PrefixColumns: true,
		InvalidPolicy: dataset.InvalidDrop,
		MinSupport:    0.05,
		Metric:        mining.MetricLift,
		MinThreshold:  1.0,
		Numeric:       dataset.DefaultOptions(),
	}
}

// RuleFilter returns the rule filter described by p.
func (p Params) RuleFilter() mining.RuleFilter {
	return mining.RuleFilter{AntecedentContains: p.AntecedentContains, ConsequentContains: p.ConsequentContains}
}

// Validate checks everything that can be checked without the data. Errors
// wrap ErrInvalidParams and the specific cause.
func (p *Params) Validate() error {
	layout, err := ParseLayout(string(p.Layout))
	if err != nil {
		return err
	}
	p.Layout = layout

	switch p.Layout {
	case LayoutColumns:
		if len(p.Columns) == 0 {
			return fmt.Errorf("%w: %w", ErrInvalidParams, basket.ErrNoColumns)
		}
	case LayoutLines:
		if p.IDColumn == "" || p.ItemColumn == "" {
			return fmt.Errorf("%w: lines layout needs both an id column and an item column", ErrInvalidParams)
		}
	}
	if err := mining.ValidateSupport(p.MinSupport); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	metric, err := mining.ParseMetric(string(p.Metric))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	p.Metric = metric
	if err := metric.ValidateThreshold(p.MinThreshold); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	if p.MaxLen < 0 {
		return fmt.Errorf("%w: max length must be >= 0, got %d", ErrInvalidParams, p.MaxLen)
	}
	policy, err := dataset.ParseInvalidPolicy(string(p.InvalidPolicy))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	p.InvalidPolicy = policy
	return nil
}

// CheckColumns verifies that every column p refers to exists in t.
func (p Params) CheckColumns(t *dataset.Table) error {
	for _, name := range p.referencedColumns() {
		if _, err := t.Column(name); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
	}
	return nil
}

func (p Params) referencedColumns() []string {
	var cols []string
	if p.Layout == LayoutColumns {
		cols = append(cols, p.Columns...)
	}
	for _, c := range []string{p.IDColumn, p.ItemColumn, p.QuantityColumn, p.PositiveColumn} {
		if c != "" {
			cols = append(cols, c)
		}
	}
	return append(cols, p.whereColumns()...)
}

// whereColumns returns the equality-filter columns in a stable order.
func (p Params) whereColumns() []string {
	keys := make([]string, 0, len(p.Where))
	for k := range p.Where {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
