package report

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/basketloom-cli/internal/pipeline"
)

// Markdown renders a plain-text report of a run with up to top itemsets and
// rules (all when top <= 0). No terminal styling is applied.
func Markdown(res *pipeline.Result, top int) string {
	var b strings.Builder
	p := res.Params

	b.WriteString("[RUN]\n")
	b.WriteString(fmt.Sprintf("Dataset: %s\n", res.Dataset))
	b.WriteString(fmt.Sprintf("Layout: %s\n", p.Layout))
	switch p.Layout {
	case pipeline.LayoutLines:
		b.WriteString(fmt.Sprintf("Transactions from: %s / items from: %s\n", p.IDColumn, p.ItemColumn))
	case pipeline.LayoutColumns:
		b.WriteString(fmt.Sprintf("Item columns: %s\n", strings.Join(p.Columns, ", ")))
	}
	b.WriteString(fmt.Sprintf("Min support: %g; rules by %s >= %g\n", p.MinSupport, p.Metric, p.MinThreshold))
	if !p.RuleFilter().IsZero() {
		b.WriteString(fmt.Sprintf("Rule filter: antecedent contains %q, consequent contains %q\n", p.AntecedentContains, p.ConsequentContains))
	}

	b.WriteString("\n[FILTERS]\n")
	b.WriteString(fmt.Sprintf("- rows read: %d\n- rows kept: %d\n", res.Filter.Input, res.Filter.Kept))
	if res.Filter.Dropped > 0 {
		b.WriteString(fmt.Sprintf("- filtered out: %d\n", res.Filter.Dropped))
	}
	if res.Filter.Invalid > 0 {
		b.WriteString(fmt.Sprintf("- unparseable numbers (%s): %d\n", p.InvalidPolicy, res.Filter.Invalid))
	}
	if res.Filter.Missing > 0 {
		b.WriteString(fmt.Sprintf("- missing values: %d\n", res.Filter.Missing))
	}
	b.WriteString(fmt.Sprintf("- transactions: %d over %d items\n", res.Matrix.Rows(), res.Matrix.Cols()))

	b.WriteString("\n[FREQUENT ITEMSETS]\n")
	if res.Frequent.Empty() {
		b.WriteString("(none)\n")
	} else {
		b.WriteString("| itemset | support | count |\n|---|---|---|\n")
		for _, s := range res.Frequent.Top(top) {
			b.WriteString(fmt.Sprintf("| %s | %.4f | %d |\n", escapeCell(strings.Join(s.Items, ", ")), s.Support, s.Count))
		}
	}

	b.WriteString("\n[ASSOCIATION RULES]\n")
	if !res.HasRules() {
		b.WriteString("(none)\n")
	} else {
		rules := res.Rules
		if top > 0 && len(rules) > top {
			rules = rules[:top]
		}
		b.WriteString("| antecedent | consequent | support | confidence | lift | leverage | conviction |\n|---|---|---|---|---|---|---|\n")
		for _, r := range rules {
			b.WriteString(fmt.Sprintf("| %s | %s | %.4f | %.4f | %.4f | %.4f | %s |\n",
				escapeCell(strings.Join(r.Antecedent, ", ")), escapeCell(strings.Join(r.Consequent, ", ")),
				r.Support, r.Confidence, r.Lift, r.Leverage, FormatMetric(r.Conviction)))
		}
	}

	b.WriteString("\n[NOTES]\n")
	for _, line := range plainInsights(res) {
		b.WriteString("- " + line + "\n")
	}
	return b.String()
}

func plainInsights(res *pipeline.Result) []string {
	switch {
	case res.Matrix.Rows() == 0:
		return []string{"No transactions left after filtering."}
	case res.Frequent.Empty():
		return []string{fmt.Sprintf("No itemset reaches support %g.", res.Params.MinSupport)}
	case !res.HasRules():
		return []string{fmt.Sprintf("No rule has %s >= %g.", res.Params.Metric, res.Params.MinThreshold)}
	}
	var out []string
	for i, r := range res.Rules {
		if i == 3 {
			break
		}
		out = append(out, Sentence(r))
	}
	return out
}

func escapeCell(s string) string { return strings.ReplaceAll(s, "|", "\\|") }
