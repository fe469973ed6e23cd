// Package export writes mining results as delimited text.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/basketloom-cli/internal/mining"
	"github.com/KaramelBytes/basketloom-cli/internal/utils"
)

var (
	itemsetHeader = []string{"itemsets", "support", "count"}
	ruleHeader    = []string{
		"antecedents", "consequents", "antecedent support", "consequent support",
		"support", "confidence", "lift", "leverage", "conviction",
	}
)

// WriteItemsets writes one record per itemset after a header row.
func WriteItemsets(w io.Writer, sets []mining.Itemset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(itemsetHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range sets {
		rec := []string{joinItems(s.Items), formatFloat(s.Support), strconv.Itoa(s.Count)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write itemset: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRules writes one record per rule after a header row.
func WriteRules(w io.Writer, rules []mining.Rule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ruleHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rules {
		rec := []string{
			joinItems(r.Antecedent), joinItems(r.Consequent),
			formatFloat(r.AntecedentSupport), formatFloat(r.ConsequentSupport),
			formatFloat(r.Support), formatFloat(r.Confidence), formatFloat(r.Lift),
			formatFloat(r.Leverage), formatFloat(r.Conviction),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write rule: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV renders fn into dir/base.csv atomically and returns the path written.
// An existing file of the same name is never overwritten; a numeric suffix is
// appended instead.
func SaveCSV(dir, base string, fn func(io.Writer) error) (string, error) {
	if err := utils.EnsureProjectDir(dir); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return "", err
	}
	path := UniquePath(dir, base, ".csv")
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	return path, nil
}

// UniquePath returns dir/base+ext, or dir/base-N+ext for the first N >= 2
// that does not exist yet.
func UniquePath(dir, base, ext string) string {
	path := filepath.Join(dir, base+ext)
	for n := 2; fileExists(path); n++ {
		path = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, n, ext))
	}
	return path
}

// BaseName derives an export base name from a dataset path: "data/Orders 2024.xlsx" → "orders_2024".
func BaseName(datasetPath string) string {
	name := strings.TrimSuffix(filepath.Base(datasetPath), filepath.Ext(datasetPath))
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "dataset"
	}
	return b.String()
}

func joinItems(items []string) string { return strings.Join(items, ", ") }

func formatFloat(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
