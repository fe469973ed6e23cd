package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/KaramelBytes/basketloom-cli/internal/dataset"
	"github.com/KaramelBytes/basketloom-cli/internal/export"
	"github.com/KaramelBytes/basketloom-cli/internal/mining"
	"github.com/KaramelBytes/basketloom-cli/internal/pipeline"
	"github.com/KaramelBytes/basketloom-cli/internal/project"
	"github.com/KaramelBytes/basketloom-cli/internal/report"
	"github.com/KaramelBytes/basketloom-cli/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// mineFlags are the run flags shared by mine and mine-batch.
type mineFlags struct {
	project     string
	preset      string
	presetsFile string

	layout         string
	columns        []string
	idColumn       string
	itemColumn     string
	quantityColumn string
	separator      string
	prefixColumns  bool
	positive       string
	where          []string
	invalid        string

	minSupport   float64
	metric       string
	minThreshold float64
	maxLen       int
	antecedent   string
	consequent   string

	top       int
	exportDir string
	noExport  bool
}

func (mf *mineFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&mf.project, "project", "p", "", "project name: use its defaults and record the run in its history")
	fs.StringVar(&mf.preset, "preset", "", "named parameter preset (see 'basketloom presets')")
	fs.StringVar(&mf.presetsFile, "presets-file", "", "YAML file with additional presets (overrides config)")

	fs.StringVar(&mf.layout, "layout", "columns", "table layout: columns|lines|indicator")
	fs.StringSliceVar(&mf.columns, "columns", nil, "columns layout: item columns (comma-separated, repeatable)")
	fs.StringVar(&mf.idColumn, "id-column", "", "transaction id column")
	fs.StringVar(&mf.itemColumn, "item-column", "", "lines layout: item column")
	fs.StringVar(&mf.quantityColumn, "quantity-column", "", "lines layout: quantity column; lines with quantity <= 0 are dropped")
	fs.StringVar(&mf.separator, "separator", ",", "columns layout: split cell values on this separator (empty disables)")
	fs.BoolVar(&mf.prefixColumns, "prefix-columns", true, "columns layout: label items as column=value")
	fs.StringVar(&mf.positive, "positive", "", "keep only rows where this numeric column is > 0")
	fs.StringArrayVar(&mf.where, "where", nil, "keep only rows where column=value (repeatable)")
	fs.StringVar(&mf.invalid, "invalid-numeric", "", "unparseable numbers: drop|reject (default from config)")

	fs.Float64Var(&mf.minSupport, "min-support", 0, "minimum itemset support in (0, 1] (default from config)")
	fs.StringVar(&mf.metric, "metric", "", "rule metric: "+strings.Join(metricNames(), "|")+" (default from config)")
	fs.Float64Var(&mf.minThreshold, "min-threshold", 0, "minimum value of --metric for a rule (default from config)")
	fs.IntVar(&mf.maxLen, "max-len", 0, "maximum itemset size (0 = unlimited)")
	fs.StringVar(&mf.antecedent, "antecedent-contains", "", "keep rules whose antecedent mentions this text")
	fs.StringVar(&mf.consequent, "consequent-contains", "", "keep rules whose consequent mentions this text")

	fs.IntVar(&mf.top, "top", 0, "rows to show per table (default from config)")
	fs.StringVar(&mf.exportDir, "export-dir", "", "directory for CSV exports (default: project exports or config export_dir)")
	fs.BoolVar(&mf.noExport, "no-export", false, "do not write CSV exports")
}

func metricNames() []string {
	out := make([]string, len(mining.Metrics))
	for i, m := range mining.Metrics {
		out[i] = string(m)
	}
	return out
}

// params resolves run parameters. Later sources win: built-in defaults,
// global config, preset, project defaults, then explicitly set flags.
func (mf *mineFlags) params(fs *pflag.FlagSet, proj *project.Project, opt dataset.Options) (pipeline.Params, error) {
	p := pipeline.DefaultParams()
	if cfg != nil {
		p.MinSupport = cfg.MinSupport
		p.Metric = mining.Metric(cfg.Metric)
		p.MinThreshold = cfg.MinThreshold
		p.MaxLen = cfg.MaxLen
		p.InvalidPolicy = dataset.InvalidPolicy(cfg.InvalidNumeric)
	}

	presetName := mf.preset
	if presetName == "" && proj != nil && proj.Defaults != nil {
		presetName = proj.Defaults.Preset
	}
	if presetName != "" {
		file := mf.presetsFile
		if file == "" && cfg != nil {
			file = cfg.PresetsFile
		}
		presets, err := pipeline.LoadPresets(file)
		if err != nil {
			return p, err
		}
		pr, err := pipeline.Lookup(presets, presetName)
		if err != nil {
			return p, err
		}
		p = pr.Params
	}
	proj.ApplyDefaults(&p)

	if fs.Changed("layout") {
		p.Layout = pipeline.Layout(mf.layout)
	}
	if fs.Changed("columns") {
		p.Columns = mf.columns
	}
	if fs.Changed("id-column") {
		p.IDColumn = mf.idColumn
	}
	if fs.Changed("item-column") {
		p.ItemColumn = mf.itemColumn
	}
	if fs.Changed("quantity-column") {
		p.QuantityColumn = mf.quantityColumn
	}
	if fs.Changed("separator") {
		p.Separator = mf.separator
	}
	if fs.Changed("prefix-columns") {
		p.PrefixColumns = mf.prefixColumns
	}
	if fs.Changed("positive") {
		p.PositiveColumn = mf.positive
	}
	if fs.Changed("where") {
		where := make(map[string]string, len(mf.where))
		for _, w := range mf.where {
			col, val, ok := strings.Cut(w, "=")
			if !ok || strings.TrimSpace(col) == "" {
				return p, fmt.Errorf("%w: --where expects column=value, got %q", pipeline.ErrInvalidParams, w)
			}
			where[strings.TrimSpace(col)] = strings.TrimSpace(val)
		}
		p.Where = where
	}
	if fs.Changed("invalid-numeric") {
		p.InvalidPolicy = dataset.InvalidPolicy(mf.invalid)
	}
	if fs.Changed("min-support") {
		p.MinSupport = mf.minSupport
	}
	if fs.Changed("metric") {
		p.Metric = mining.Metric(mf.metric)
	}
	if fs.Changed("min-threshold") {
		p.MinThreshold = mf.minThreshold
	}
	if fs.Changed("max-len") {
		p.MaxLen = mf.maxLen
	}
	if fs.Changed("antecedent-contains") {
		p.AntecedentContains = mf.antecedent
	}
	if fs.Changed("consequent-contains") {
		p.ConsequentContains = mf.consequent
	}
	p.Numeric = opt

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func (mf *mineFlags) topN() int {
	if mf.top > 0 {
		return mf.top
	}
	if cfg != nil && cfg.Top > 0 {
		return cfg.Top
	}
	return 10
}

func (mf *mineFlags) outputDir(proj *project.Project) string {
	switch {
	case mf.exportDir != "":
		return mf.exportDir
	case proj != nil:
		return proj.ExportDir()
	case cfg != nil && cfg.ExportDir != "":
		return cfg.ExportDir
	}
	return "."
}

func (mf *mineFlags) openProject() (*project.Project, error) {
	if mf.project == "" {
		return nil, nil
	}
	return loadProjectByName(mf.project)
}

// resolveInput maps a project dataset reference to its file. Existing paths
// are returned unchanged.
func resolveInput(proj *project.Project, arg string, opt *dataset.Options) (string, error) {
	if _, err := os.Stat(arg); err == nil || proj == nil {
		return arg, nil
	}
	d, err := proj.FindDataset(arg)
	if err != nil {
		return "", err
	}
	if opt.SheetName == "" && d.Sheet != "" {
		opt.SheetName = d.Sheet
	}
	return d.Path, nil
}

// exportResult writes the itemsets and rules CSV files and returns their paths.
func exportResult(res *pipeline.Result, dir, base string) ([]string, error) {
	sets, err := export.SaveCSV(dir, base+"_itemsets", func(w io.Writer) error {
		return export.WriteItemsets(w, res.Frequent.Itemsets)
	})
	if err != nil {
		return nil, err
	}
	rules, err := export.SaveCSV(dir, base+"_rules", func(w io.Writer) error {
		return export.WriteRules(w, res.Rules)
	})
	if err != nil {
		return nil, err
	}
	return []string{sets, rules}, nil
}

// recordRun stores res in the project's run history.
func recordRun(ctx context.Context, proj *project.Project, res *pipeline.Result) (string, error) {
	s, err := store.Open(ctx, proj.StorePath())
	if err != nil {
		return "", err
	}
	defer s.Close()
	return s.SaveRun(ctx, res)
}

var (
	mineOpts   mineFlags
	mineTable  tableFlags
	mineFormat string
)

var mineCmd = &cobra.Command{
	Use:   "mine <file|dataset>",
	Short: "Find frequent itemsets and association rules in a dataset",
	Long: `Mine loads a CSV/TSV/XLSX file, turns it into transactions, finds frequent
itemsets with Apriori and derives association rules. With --project, the
argument may also name a dataset added to the project.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch mineFormat {
		case "table", "markdown":
		default:
			return fmt.Errorf("unsupported --format: %s (use table|markdown)", mineFormat)
		}
		opt, err := mineTable.options()
		if err != nil {
			return err
		}
		proj, err := mineOpts.openProject()
		if err != nil {
			return err
		}
		path, err := resolveInput(proj, args[0], &opt)
		if err != nil {
			return err
		}
		params, err := mineOpts.params(cmd.Flags(), proj, opt)
		if err != nil {
			return err
		}
		t, err := dataset.Load(path, opt)
		if err != nil {
			return err
		}
		res, err := pipeline.Run(cmd.Context(), t, params)
		if err != nil {
			return err
		}

		top := mineOpts.topN()
		if mineFormat == "markdown" {
			fmt.Println(report.Markdown(res, top))
		} else {
			fmt.Println(report.Summary(res))
			if !res.Frequent.Empty() {
				fmt.Println(report.FormatTitle("Frequent itemsets"))
				fmt.Println(report.ItemsetTable(res.Frequent.Itemsets, top))
			}
			if res.HasRules() {
				fmt.Println(report.FormatTitle("Association rules"))
				fmt.Println(report.RuleTable(res.Rules, top))
			}
		}

		if !mineOpts.noExport {
			paths, err := exportResult(res, mineOpts.outputDir(proj), export.BaseName(path))
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Printf("✓ Wrote %s\n", p)
			}
		}
		if proj != nil {
			id, err := recordRun(cmd.Context(), proj, res)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Recorded run %s in project '%s'\n", id, proj.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mineCmd)
	mineOpts.register(mineCmd.Flags())
	mineTable.register(mineCmd.Flags())
	mineCmd.Flags().StringVar(&mineFormat, "format", "table", "output format: table|markdown")
}
