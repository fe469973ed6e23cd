package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Column kinds inferred by Profile.
const (
	KindNumeric     = "numeric"
	KindDatetime    = "datetime"
	KindCategorical = "categorical"
	KindText        = "text"
	KindUnknown     = "unknown"
)

// Report summarizes a table column by column.
type Report struct {
	Name     string
	Rows     int
	Loaded   int
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min, Max, Mean, Std float64
	Positive           int
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

type CategoryCount struct {
	Value string
	Count int
}

// Profile infers column kinds and basic statistics for t.
func Profile(t *Table, opt Options, sampleRows int) *Report {
	rep := &Report{Name: t.Name, Rows: t.Total, Loaded: t.Len()}
	if sampleRows < 0 {
		sampleRows = 0
	}
	for i := 0; i < len(t.Rows) && i < sampleRows; i++ {
		rep.Samples = append(rep.Samples, t.Rows[i])
	}
	for j, name := range t.Header {
		rep.Cols = append(rep.Cols, profileColumn(t, j, name, opt))
	}
	if rep.Loaded < rep.Rows {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("loaded only %d/%d rows due to MaxRows", rep.Loaded, rep.Rows))
	}
	return rep
}

func profileColumn(t *Table, j int, name string, opt Options) ColumnSummary {
	s := ColumnSummary{Name: name}
	var (
		n, numCnt, dtCnt, txtCnt int
		mean, m2                 float64
		lo, hi                   = math.Inf(1), math.Inf(-1)
		cats                     = map[string]int{}
		exText                   []string
	)
	for i := range t.Rows {
		v, ok := t.Cell(i, j)
		if !ok {
			s.Missing++
			continue
		}
		s.NonNull++
		if x, ok := ParseNumber(v, opt); ok {
			numCnt++
			n++
			lo = math.Min(lo, x)
			hi = math.Max(hi, x)
			delta := x - mean
			mean += delta / float64(n)
			m2 += delta * (x - mean)
			if x > 0 {
				s.Positive++
			}
			continue
		}
		if _, ok := parseTimeMaybe(v); ok {
			dtCnt++
			continue
		}
		txtCnt++
		if len(cats) <= 10000 && len(v) <= 64 {
			cats[v]++
		}
		if len(exText) < 3 {
			exText = append(exText, v)
		}
	}
	switch {
	case numCnt > 0 && numCnt >= dtCnt && numCnt >= txtCnt:
		s.Kind = KindNumeric
		s.Min, s.Max, s.Mean = lo, hi, mean
		if n > 1 {
			s.Std = math.Sqrt(m2 / float64(n-1))
		}
	case dtCnt > 0 && dtCnt >= txtCnt:
		s.Kind = KindDatetime
	case len(cats) > 0:
		s.Kind = KindCategorical
		tops := make([]CategoryCount, 0, len(cats))
		for k, v := range cats {
			tops = append(tops, CategoryCount{Value: k, Count: v})
		}
		sort.Slice(tops, func(a, b int) bool {
			if tops[a].Count == tops[b].Count {
				return tops[a].Value < tops[b].Value
			}
			return tops[a].Count > tops[b].Count
		})
		s.Unique = len(tops)
		if len(tops) > 8 {
			tops = tops[:8]
		}
		s.TopValues = tops
	case txtCnt > 0:
		s.Kind = KindText
		s.ExampleTexts = exText
	default:
		s.Kind = KindUnknown
	}
	return s
}

// NumericColumns lists the names of columns inferred as numeric.
func (r *Report) NumericColumns() []string { return r.columnsOf(KindNumeric) }

// CategoricalColumns lists the names of columns inferred as categorical.
func (r *Report) CategoricalColumns() []string { return r.columnsOf(KindCategorical) }

func (r *Report) columnsOf(kind string) []string {
	var out []string
	for _, c := range r.Cols {
		if c.Kind == kind {
			out = append(out, c.Name)
		}
	}
	return out
}

// Markdown renders a compact report suitable for standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	if r.Loaded < r.Rows {
		b.WriteString(fmt.Sprintf("Rows: ~%d (loaded %d)\n", r.Rows, r.Loaded))
	} else {
		b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeVal(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case KindNumeric:
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g; positive %d", c.Min, c.Max, c.Mean, c.Std, c.Positive))
		case KindCategorical:
			b.WriteString(" — top: ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
			if c.Unique > len(c.TopValues) {
				b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
			}
		case KindText:
			b.WriteString(" — e.g., ")
			for i, ex := range c.ExampleTexts {
				if i > 0 {
					b.WriteString(" | ")
				}
				b.WriteString(safeVal(clip(ex, 80)))
			}
		}
		b.WriteString("\n")
	}

	var missing []string
	for _, c := range r.Cols {
		if c.Missing > 0 {
			missing = append(missing, fmt.Sprintf("- %s: %d", safeVal(c.Name), c.Missing))
		}
	}
	if len(missing) > 0 {
		b.WriteString("\n[MISSING VALUES]\n")
		b.WriteString(strings.Join(missing, "\n"))
		b.WriteString("\n")
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD]\n| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeVal(c.Name))
		}
		b.WriteString(" |\n|")
		b.WriteString(strings.Repeat(" --- |", len(r.Cols)))
		b.WriteString("\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				val = clip(val, 80)
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// clip shortens s to at most n runes, marking the cut with "...".
func clip(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-3]) + "..."
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
