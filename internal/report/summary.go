package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/basketloom-cli/internal/mining"
	"github.com/KaramelBytes/basketloom-cli/internal/pipeline"
)

// Summary renders a boxed overview of a run.
func Summary(res *pipeline.Result) string {
	var lines []string
	lines = append(lines, FormatTitle("Market basket analysis: "+res.Dataset))
	lines = append(lines, fmt.Sprintf("Rows:          %d read, %d kept", res.Filter.Input, res.Filter.Kept))
	if n := res.Filter.Dropped + res.Filter.Invalid + res.Filter.Missing; n > 0 {
		lines = append(lines, SubtleStyle.Render(fmt.Sprintf("               %d filtered, %d unparseable, %d missing",
			res.Filter.Dropped, res.Filter.Invalid, res.Filter.Missing)))
	}
	lines = append(lines,
		fmt.Sprintf("Transactions:  %d over %d items", res.Matrix.Rows(), res.Matrix.Cols()),
		fmt.Sprintf("Itemsets:      %d (min support %g, largest %d)", res.Frequent.Len(), res.Params.MinSupport, res.Frequent.MaxSize()),
		fmt.Sprintf("Rules:         %d (%s >= %g)", len(res.Rules), res.Params.Metric, res.Params.MinThreshold),
	)
	if res.Duration > 0 {
		lines = append(lines, SubtleStyle.Render(fmt.Sprintf("Took %s", res.Duration.Round(time.Millisecond))))
	}
	lines = append(lines, "")
	lines = append(lines, Insights(res)...)
	return BoxStyle.Render(strings.Join(lines, "\n"))
}

// Insights returns short plain-language findings, or a hint when nothing was found.
func Insights(res *pipeline.Result) []string {
	switch {
	case res.Matrix.Rows() == 0:
		return []string{FormatWarning("No transactions left after filtering; check the filters and column choices.")}
	case res.Frequent.Empty():
		return []string{FormatWarning(fmt.Sprintf("No itemset reaches support %g; try lowering --min-support.", res.Params.MinSupport))}
	case !res.HasRules():
		return []string{FormatWarning(fmt.Sprintf("No rule has %s >= %g; try a lower --min-threshold or another --metric.", res.Params.Metric, res.Params.MinThreshold))}
	}
	out := []string{FormatSuccess("Top rule: " + Sentence(res.Rules[0]))}
	if len(res.Rules) > 1 {
		out = append(out, SubtleStyle.Render("Next:     "+Sentence(res.Rules[1])))
	}
	return out
}

// Sentence describes a rule in one line.
func Sentence(r mining.Rule) string {
	return fmt.Sprintf("%s in %.0f%% of transactions with %s (lift %s)",
		strings.Join(r.Consequent, " + "), r.Confidence*100, strings.Join(r.Antecedent, " + "), FormatMetric(r.Lift))
}
