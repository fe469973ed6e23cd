package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/basketloom-cli/internal/dataset"
	"github.com/spf13/pflag"
)

// tableFlags are the file-reading flags shared by describe, add, mine and mine-batch.
type tableFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	maxRows    int
	sheetName  string
	sheetIndex int
}

func (tf *tableFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&tf.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	fs.StringVar(&tf.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted; a lone comma before three digits, as in 1,234, is read as grouping)")
	fs.StringVar(&tf.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	fs.IntVar(&tf.maxRows, "max-rows", -1, "maximum rows to load (0 = unlimited, default from config)")
	fs.StringVar(&tf.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	fs.IntVar(&tf.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

// options converts the flags into dataset options.
func (tf *tableFlags) options() (dataset.Options, error) {
	opt := dataset.DefaultOptions()
	switch {
	case tf.maxRows >= 0:
		opt.MaxRows = tf.maxRows
	case cfg != nil:
		opt.MaxRows = cfg.MaxRows
	}
	switch tf.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", tf.delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(tf.decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", tf.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(tf.thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", tf.thousands)
	}
	opt.SheetName = tf.sheetName
	if tf.sheetIndex > 0 {
		opt.SheetIndex = tf.sheetIndex
	}
	return opt, nil
}

// expandInputs resolves globs and literal paths into a sorted, de-duplicated list.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}
