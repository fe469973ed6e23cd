package cmd

import (
	"fmt"

	cfgpkg "github.com/KaramelBytes/basketloom-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set BasketLoom configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("min_support: %g\n", cfg.MinSupport)
		fmt.Printf("metric: %s\n", cfg.Metric)
		fmt.Printf("min_threshold: %g\n", cfg.MinThreshold)
		fmt.Printf("max_len: %d\n", cfg.MaxLen)
		fmt.Printf("top: %d\n", cfg.Top)
		fmt.Printf("export_dir: %s\n", cfg.ExportDir)
		fmt.Printf("projects_dir: %s\n", cfg.ProjectsDir)
		if cfg.PresetsFile != "" {
			fmt.Printf("presets_file: %s\n", cfg.PresetsFile)
		}
		fmt.Printf("max_rows: %d\n", cfg.MaxRows)
		fmt.Printf("invalid_numeric: %s\n", cfg.InvalidNumeric)
		fmt.Printf("log_level: %s\n", cfg.LogLevel)
		fmt.Printf("log_format: %s\n", cfg.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("not saved: %w", err)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("✓ Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
