package cmd

import (
	"fmt"

	"github.com/KaramelBytes/basketloom-cli/internal/report"
	"github.com/KaramelBytes/basketloom-cli/internal/store"
	"github.com/spf13/cobra"
)

var (
	runsProject string
	runsTop     int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect a project's mining history",
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a recorded run (id or unique id prefix)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openRunStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		run, err := s.LoadRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		top := runsTop
		if top <= 0 && cfg != nil {
			top = cfg.Top
		}

		fmt.Println(report.FormatTitle(fmt.Sprintf("Run %s: %s", run.ID, run.Dataset)))
		fmt.Printf("Recorded:      %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Layout:        %s\n", run.Params.Layout)
		fmt.Printf("Transactions:  %d over %d items\n", run.Transactions, run.Items)
		fmt.Printf("Itemsets:      %d (min support %g)\n", run.ItemsetCount, run.Params.MinSupport)
		fmt.Printf("Rules:         %d (%s >= %g)\n\n", run.RuleCount, run.Params.Metric, run.Params.MinThreshold)
		if len(run.Itemsets) > 0 {
			fmt.Println(report.FormatTitle("Frequent itemsets"))
			fmt.Println(report.ItemsetTable(run.Itemsets, top))
		}
		if len(run.Rules) > 0 {
			fmt.Println(report.FormatTitle("Association rules"))
			fmt.Println(report.RuleTable(run.Rules, top))
		}
		return nil
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a recorded run (id or unique id prefix)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openRunStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		run, err := s.LoadRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := s.DeleteRun(cmd.Context(), run.ID); err != nil {
			return err
		}
		fmt.Printf("✓ Deleted run %s\n", run.ID)
		return nil
	},
}

func openRunStore(cmd *cobra.Command) (*store.Store, error) {
	if runsProject == "" {
		return nil, fmt.Errorf("--project is required")
	}
	p, err := loadProjectByName(runsProject)
	if err != nil {
		return nil, err
	}
	return store.Open(cmd.Context(), p.StorePath())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	runsCmd.PersistentFlags().StringVarP(&runsProject, "project", "p", "", "project name")
	runsShowCmd.Flags().IntVar(&runsTop, "top", 0, "rows to show per table (default from config)")
}
