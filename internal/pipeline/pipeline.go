// Package pipeline runs one market-basket analysis end to end: row filters,
// transaction building, encoding, frequent-itemset search and rule
// derivation. Every Run owns its intermediate artifacts; nothing is shared
// between runs.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KaramelBytes/basketloom-cli/internal/basket"
	"github.com/KaramelBytes/basketloom-cli/internal/dataset"
	"github.com/KaramelBytes/basketloom-cli/internal/mining"
)

// Result holds everything a run produced.
type Result struct {
	Dataset      string
	Params       Params
	Filter       dataset.FilterStats
	Transactions []basket.Transaction
	Matrix       *basket.Matrix
	Frequent     *mining.Frequent
	// Rules is nil when no itemset was frequent.
	Rules    []mining.Rule
	Started  time.Time
	Duration time.Duration
}

// HasRules reports whether the run produced at least one rule.
func (r *Result) HasRules() bool { return len(r.Rules) > 0 }

// Run executes the pipeline for t. Parameters are validated and every
// referenced column is resolved before any row is touched.
func Run(ctx context.Context, t *dataset.Table, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := p.CheckColumns(t); err != nil {
		return nil, err
	}
	res := &Result{Dataset: t.Name, Params: p, Started: time.Now()}
	log := slog.Default().With("dataset", t.Name)

	rows, stats, err := applyFilters(t, p)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txns, lineStats, err := buildTransactions(rows, p)
	if err != nil {
		return nil, fmt.Errorf("build transactions: %w", err)
	}
	if p.Layout == LayoutLines {
		stats = stats.Add(lineStats)
	}
	res.Filter = stats
	res.Transactions = txns
	if stats.Invalid > 0 {
		log.WarnContext(ctx, "dropped rows with unparseable numbers", "rows", stats.Invalid)
	}
	if stats.Missing > 0 {
		log.WarnContext(ctx, "dropped rows with missing values", "rows", stats.Missing)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Matrix = basket.Encode(txns)
	log.DebugContext(ctx, "encoded transactions", "rows", res.Matrix.Rows(), "items", res.Matrix.Cols())

	res.Frequent, err = mining.Apriori(res.Matrix, p.MinSupport, mining.WithMaxLen(p.MaxLen))
	if err != nil {
		return nil, fmt.Errorf("mine itemsets: %w", err)
	}
	for _, lv := range res.Frequent.Levels {
		log.DebugContext(ctx, "apriori level", "size", lv.Size, "candidates", lv.Candidates, "frequent", lv.Frequent)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !res.Frequent.Empty() {
		rules, err := mining.DeriveRules(res.Frequent, p.Metric, p.MinThreshold)
		if err != nil {
			return nil, fmt.Errorf("derive rules: %w", err)
		}
		res.Rules = p.RuleFilter().Apply(rules)
		log.DebugContext(ctx, "derived rules", "total", len(rules), "kept", len(res.Rules))
	}
	res.Duration = time.Since(res.Started)
	return res, nil
}

func applyFilters(t *dataset.Table, p Params) (*dataset.Table, dataset.FilterStats, error) {
	stats := dataset.FilterStats{Input: t.Len(), Kept: t.Len()}
	cur := t
	for _, col := range p.whereColumns() {
		next, st, err := dataset.FilterEquals(cur, col, p.Where[col])
		if err != nil {
			return nil, stats, fmt.Errorf("filter %s: %w", col, err)
		}
		stats = stats.Add(st)
		cur = next
	}
	if p.PositiveColumn != "" {
		next, st, err := dataset.FilterPositive(cur, p.PositiveColumn, p.InvalidPolicy, p.Numeric)
		if err != nil {
			return nil, stats, fmt.Errorf("filter %s: %w", p.PositiveColumn, err)
		}
		stats = stats.Add(st)
		cur = next
	}
	return cur, stats, nil
}

func buildTransactions(t *dataset.Table, p Params) ([]basket.Transaction, dataset.FilterStats, error) {
	switch p.Layout {
	case LayoutLines:
		return basket.FromLines(t, basket.LineOptions{
			TransactionColumn: p.IDColumn,
			ItemColumn:        p.ItemColumn,
			QuantityColumn:    p.QuantityColumn,
			Invalid:           p.InvalidPolicy,
			Numeric:           p.Numeric,
		})
	case LayoutIndicator:
		txns, err := basket.FromIndicator(t, basket.IndicatorOptions{
			IDColumn: p.IDColumn,
			Exclude:  p.referencedColumns(),
			Numeric:  p.Numeric,
		})
		return txns, dataset.FilterStats{}, err
	default:
		txns, err := basket.FromColumns(t, p.Columns, basket.ColumnOptions{
			IDColumn:     p.IDColumn,
			Separator:    p.Separator,
			PrefixColumn: p.PrefixColumns,
		})
		return txns, dataset.FilterStats{}, err
	}
}
