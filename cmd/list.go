package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/basketloom-cli/internal/store"
	"github.com/spf13/cobra"
)

var (
	listProjects bool
	listDatasets bool
	listRuns     bool
	listProjName string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects, datasets or runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		selected := 0
		for _, b := range []bool{listProjects, listDatasets, listRuns} {
			if b {
				selected++
			}
		}
		if selected != 1 {
			return fmt.Errorf("specify exactly one of --projects, --datasets or --runs")
		}
		if listProjects {
			return listAllProjects()
		}
		if listProjName == "" {
			return fmt.Errorf("--project is required when using --datasets or --runs")
		}
		p, err := loadProjectByName(listProjName)
		if err != nil {
			return err
		}
		if listDatasets {
			if len(p.Datasets) == 0 {
				fmt.Println("(no datasets)")
				return nil
			}
			for _, d := range p.SortedDatasets() {
				fmt.Printf("- %s: %s (%d rows, %d columns)", d.ID, d.Name, d.Rows, len(d.Columns))
				if d.Description != "" {
					fmt.Printf(" %s", d.Description)
				}
				fmt.Println()
			}
			return nil
		}

		s, err := store.Open(cmd.Context(), p.StorePath())
		if err != nil {
			return err
		}
		defer s.Close()
		runs, err := s.ListRuns(cmd.Context())
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("(no runs)")
			return nil
		}
		for _, r := range runs {
			fmt.Printf("- %s  %s  %s  support>=%g %s>=%g  %d itemsets, %d rules\n",
				shortID(r.ID), r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Dataset,
				r.Params.MinSupport, r.Params.Metric, r.Params.MinThreshold, r.ItemsetCount, r.RuleCount)
		}
		return nil
	},
}

func listAllProjects() error {
	root, err := defaultProjectsDir()
	if err != nil {
		return err
	}
	dirs, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	found := false
	for _, e := range dirs {
		if !e.IsDir() {
			continue
		}
		pj := filepath.Join(root, e.Name(), "project.json")
		if _, err := os.Stat(pj); err == nil {
			fmt.Printf("- %s\n", e.Name())
			found = true
		}
	}
	if !found {
		fmt.Println("(no projects)")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listProjects, "projects", false, "list projects")
	listCmd.Flags().BoolVar(&listDatasets, "datasets", false, "list datasets in a project")
	listCmd.Flags().BoolVar(&listRuns, "runs", false, "list recorded mining runs in a project")
	listCmd.Flags().StringVarP(&listProjName, "project", "p", "", "project name for --datasets and --runs")
}
