package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/KaramelBytes/basketloom-cli/internal/mining"
)

const barWidth = 20

// colGap separates table columns.
const colGap = "  "

// ItemsetTable renders up to limit itemsets (all when limit <= 0).
func ItemsetTable(sets []mining.Itemset, limit int) string {
	if limit > 0 && len(sets) > limit {
		sets = sets[:limit]
	}
	rows := [][]string{
		{HeaderStyle.Render("#"), HeaderStyle.Render("Itemset"), HeaderStyle.Render("Support"), HeaderStyle.Render("Count")},
		{rule(3), rule(30), rule(barWidth + 6), rule(5)},
	}
	for i, s := range sets {
		rows = append(rows, []string{
			fmt.Sprint(i + 1), truncate(s.String(), 60), Bar(s.Support, barWidth), fmt.Sprint(s.Count),
		})
	}
	return renderColumns(rows)
}

// RuleTable renders up to limit rules (all when limit <= 0).
func RuleTable(rules []mining.Rule, limit int) string {
	if limit > 0 && len(rules) > limit {
		rules = rules[:limit]
	}
	rows := [][]string{
		{HeaderStyle.Render("#"), HeaderStyle.Render("Rule"), HeaderStyle.Render("Support"),
			HeaderStyle.Render("Conf"), HeaderStyle.Render("Lift"), HeaderStyle.Render("Conviction")},
		{rule(3), rule(40), rule(barWidth + 6), rule(5), rule(5), rule(10)},
	}
	for i, r := range rules {
		rows = append(rows, []string{
			fmt.Sprint(i + 1), truncate(r.String(), 80), Bar(r.Support, barWidth),
			fmt.Sprintf("%.3f", r.Confidence), fmt.Sprintf("%.3f", r.Lift), FormatMetric(r.Conviction),
		})
	}
	return renderColumns(rows)
}

func rule(n int) string { return strings.Repeat("─", n) }

// renderColumns left-aligns cells by their printed width, so styled cells
// and multi-byte glyphs line up. The last column is not padded.
func renderColumns(rows [][]string) string {
	var widths []int
	for _, row := range rows {
		for c, cell := range row {
			if c == len(widths) {
				widths = append(widths, 0)
			}
			widths[c] = max(widths[c], lipgloss.Width(cell))
		}
	}
	var b strings.Builder
	for _, row := range rows {
		for c, cell := range row {
			b.WriteString(cell)
			if c < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[c]-lipgloss.Width(cell)))
				b.WriteString(colGap)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Bar draws v in [0, 1] as a fixed-width bar followed by the value.
func Bar(v float64, width int) string {
	v = math.Max(0, math.Min(1, v))
	n := int(math.Round(v * float64(width)))
	return BarStyle.Render(strings.Repeat("█", n)) + strings.Repeat("░", width-n) + fmt.Sprintf(" %.3f", v)
}

// FormatMetric prints a metric with three decimals, or ∞.
func FormatMetric(v float64) string {
	if math.IsInf(v, 1) {
		return "∞"
	}
	return fmt.Sprintf("%.3f", v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
