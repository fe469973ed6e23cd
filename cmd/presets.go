package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/basketloom-cli/internal/pipeline"
	"github.com/spf13/cobra"
)

var presetsFile string

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List built-in and configured parameter presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		file := presetsFile
		if file == "" && cfg != nil {
			file = cfg.PresetsFile
		}
		presets, err := pipeline.LoadPresets(file)
		if err != nil {
			return err
		}
		for _, name := range pipeline.PresetNames(presets) {
			pr := presets[name]
			p := pr.Params
			fmt.Printf("- %s: %s\n", name, pr.Description)
			fmt.Printf("    layout=%s support>=%g %s>=%g", p.Layout, p.MinSupport, p.Metric, p.MinThreshold)
			switch p.Layout {
			case pipeline.LayoutLines:
				fmt.Printf(" id=%s item=%s", p.IDColumn, p.ItemColumn)
				if p.QuantityColumn != "" {
					fmt.Printf(" quantity=%s", p.QuantityColumn)
				}
			default:
				if len(p.Columns) > 0 {
					fmt.Printf(" columns=%s", strings.Join(p.Columns, ","))
				}
			}
			if p.PositiveColumn != "" {
				fmt.Printf(" positive=%s", p.PositiveColumn)
			}
			if len(p.Where) > 0 {
				keys := make([]string, 0, len(p.Where))
				for k := range p.Where {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Printf(" where %s=%s", k, p.Where[k])
				}
			}
			if p.ConsequentContains != "" {
				fmt.Printf(" consequent~%s", p.ConsequentContains)
			}
			if p.AntecedentContains != "" {
				fmt.Printf(" antecedent~%s", p.AntecedentContains)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
	presetsCmd.Flags().StringVar(&presetsFile, "presets-file", "", "YAML file with additional presets (overrides config)")
}
