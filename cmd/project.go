package cmd

import (
	"fmt"

	"github.com/KaramelBytes/basketloom-cli/internal/mining"
	"github.com/KaramelBytes/basketloom-cli/internal/pipeline"
	"github.com/KaramelBytes/basketloom-cli/internal/project"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// defaultsFlags are the project default flags shared by init and
// project set-defaults.
type defaultsFlags struct {
	preset       string
	minSupport   float64
	metric       string
	minThreshold float64
}

func (df *defaultsFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&df.preset, "preset", "", "default preset for mine")
	fs.Float64Var(&df.minSupport, "min-support", 0, "default minimum support (unset inherits config)")
	fs.StringVar(&df.metric, "metric", "", "default rule metric (empty inherits config)")
	fs.Float64Var(&df.minThreshold, "min-threshold", 0, "default metric threshold (unset inherits config)")
}

// apply copies the explicitly set flags into d and validates the result.
func (df *defaultsFlags) apply(fs *pflag.FlagSet, d *project.Defaults) error {
	if fs.Changed("preset") {
		d.Preset = df.preset
	}
	if fs.Changed("min-support") {
		v := df.minSupport
		d.MinSupport = &v
	}
	if fs.Changed("metric") {
		d.Metric = df.metric
	}
	if fs.Changed("min-threshold") {
		v := df.minThreshold
		d.MinThreshold = &v
	}
	return validateDefaults(d)
}

var (
	pmProject  string
	pmClear    bool
	pmDefaults defaultsFlags
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage per-project settings",
}

var projectShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a project's datasets and their profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := requireProject()
		if err != nil {
			return err
		}
		fmt.Print(p.Overview())
		if d := p.Defaults; !d.IsZero() {
			fmt.Printf("\n[DEFAULTS]\npreset=%q min_support=%s metric=%q min_threshold=%s\n",
				d.Preset, optFloat(d.MinSupport), d.Metric, optFloat(d.MinThreshold))
		}
		return nil
	},
}

var projectSetDefaultsCmd = &cobra.Command{
	Use:   "set-defaults",
	Short: "Set or clear a project's default mining settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := requireProject()
		if err != nil {
			return err
		}
		if p.Defaults == nil {
			p.Defaults = &project.Defaults{}
		}
		if pmClear {
			p.Defaults = &project.Defaults{}
		} else {
			d := *p.Defaults
			if err := pmDefaults.apply(cmd.Flags(), &d); err != nil {
				return err
			}
			p.Defaults = &d
		}
		if err := p.Save(); err != nil {
			return err
		}
		if pmClear {
			fmt.Printf("✓ Cleared project defaults for %s\n", pmProject)
		} else {
			fmt.Printf("✓ Set project defaults for %s\n", pmProject)
		}
		return nil
	},
}

var projectRemoveCmd = &cobra.Command{
	Use:   "remove <dataset>",
	Short: "Remove a dataset (id, id prefix or file name) from a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := requireProject()
		if err != nil {
			return err
		}
		if err := p.RemoveDataset(args[0]); err != nil {
			return err
		}
		if err := p.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Removed dataset %s\n", args[0])
		return nil
	},
}

func requireProject() (*project.Project, error) {
	if pmProject == "" {
		return nil, fmt.Errorf("--project is required")
	}
	return loadProjectByName(pmProject)
}

// validateDefaults checks d against the parameters a run would end up
// with: config values, then the preset, then d itself. The threshold is
// always checked, since an inherited one may not suit the new metric.
func validateDefaults(d *project.Defaults) error {
	p := pipeline.DefaultParams()
	if cfg != nil {
		p.MinSupport = cfg.MinSupport
		p.Metric = mining.Metric(cfg.Metric)
		p.MinThreshold = cfg.MinThreshold
	}
	if d.Preset != "" {
		file := ""
		if cfg != nil {
			file = cfg.PresetsFile
		}
		presets, err := pipeline.LoadPresets(file)
		if err != nil {
			return err
		}
		pr, err := pipeline.Lookup(presets, d.Preset)
		if err != nil {
			return err
		}
		p = pr.Params
	}
	if d.MinSupport != nil {
		if err := mining.ValidateSupport(*d.MinSupport); err != nil {
			return err
		}
	}
	if d.Metric != "" {
		m, err := mining.ParseMetric(d.Metric)
		if err != nil {
			return err
		}
		d.Metric = string(m)
		p.Metric = m
	}
	if d.MinThreshold != nil {
		p.MinThreshold = *d.MinThreshold
	}
	if err := p.Metric.ValidateThreshold(p.MinThreshold); err != nil {
		return fmt.Errorf("%w (set --min-threshold to match --metric)", err)
	}
	return nil
}

func optFloat(v *float64) string {
	if v == nil {
		return "inherit"
	}
	return fmt.Sprintf("%g", *v)
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectSetDefaultsCmd)
	projectCmd.AddCommand(projectRemoveCmd)

	projectCmd.PersistentFlags().StringVarP(&pmProject, "project", "p", "", "project name")
	projectSetDefaultsCmd.Flags().BoolVar(&pmClear, "clear", false, "clear all project defaults")
	pmDefaults.register(projectSetDefaultsCmd.Flags())
}
