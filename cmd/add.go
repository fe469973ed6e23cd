package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	addProjectName string
	addDesc        string
	addFlags       tableFlags
)

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Profile a dataset and add it to a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if addProjectName == "" {
			return fmt.Errorf("--project is required")
		}
		p, err := loadProjectByName(addProjectName)
		if err != nil {
			return err
		}
		opt, err := addFlags.options()
		if err != nil {
			return err
		}
		d, err := p.AddDataset(args[0], addDesc, opt)
		if err != nil {
			return err
		}
		if err := p.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Dataset added: %s (%d rows, %d columns, id %s)\n", d.Name, d.Rows, len(d.Columns), shortID(d.ID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addProjectName, "project", "p", "", "project name")
	addCmd.Flags().StringVar(&addDesc, "desc", "", "dataset description")
	addFlags.register(addCmd.Flags())
}
