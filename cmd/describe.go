package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/basketloom-cli/internal/dataset"
	"github.com/spf13/cobra"
)

var (
	descFlags      tableFlags
	descOutputPath string
	descSampleRows int
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Profile a CSV/TSV/XLSX file: column kinds, missing values, top values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		opt, err := descFlags.options()
		if err != nil {
			return err
		}
		t, err := dataset.Load(path, opt)
		if err != nil {
			return err
		}
		md := dataset.Profile(t, opt, descSampleRows).Markdown()

		if descOutputPath == "" {
			fmt.Println(md)
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(descOutputPath), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(descOutputPath, []byte(md), 0o644); err != nil {
			return fmt.Errorf("write profile: %w", err)
		}
		fmt.Printf("✓ Wrote profile to %s\n", descOutputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	descFlags.register(describeCmd.Flags())
	describeCmd.Flags().StringVarP(&descOutputPath, "output", "o", "", "optional path to write the profile (Markdown)")
	describeCmd.Flags().IntVar(&descSampleRows, "sample-rows", 5, "number of sample rows to include")
}
