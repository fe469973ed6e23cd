package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/basketloom-cli/internal/project"
	"github.com/KaramelBytes/basketloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	initDescription string
	initDefaults    defaultsFlags
)

var initCmd = &cobra.Command{
	Use:   "init <project-name>",
	Short: "Create a project to hold datasets, run history and mining defaults",
	Long: `Init creates ~/.basketloom/projects/<name> (or the configured projects_dir)
with an empty dataset list. Mining defaults given here are stored in the
project and used by 'mine -p <name>' unless a flag overrides them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return fmt.Errorf("invalid project name %q", name)
		}
		projDir, err := resolveProjectDirByName(name)
		if err != nil {
			return err
		}
		if err := checkProjectDirFree(projDir); err != nil {
			return err
		}

		p := project.NewProject(name, initDescription, projDir)
		if err := initDefaults.apply(cmd.Flags(), p.Defaults); err != nil {
			return err
		}
		if err := utils.EnsureProjectDir(projDir); err != nil {
			return err
		}
		if err := p.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Project initialized: %s\n", projDir)
		if !p.Defaults.IsZero() {
			fmt.Printf("  defaults: preset=%q min_support=%s metric=%q min_threshold=%s\n",
				p.Defaults.Preset, optFloat(p.Defaults.MinSupport), p.Defaults.Metric, optFloat(p.Defaults.MinThreshold))
		}
		return nil
	},
}

// checkProjectDirFree fails when dir already holds a project or any other files.
func checkProjectDirFree(dir string) error {
	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("inspect project directory: %w", err)
	}
	for _, e := range entries {
		if e.Name() == "project.json" {
			return fmt.Errorf("project already exists at %s", dir)
		}
	}
	if len(entries) > 0 {
		return fmt.Errorf("directory %s is not empty; refusing to initialize a project there", dir)
	}
	return nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(dir string) (string, error) {
	if !strings.HasPrefix(dir, "~") {
		return filepath.Clean(dir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	rest := strings.TrimLeft(strings.TrimPrefix(dir, "~"), `/\`)
	return filepath.Join(home, rest), nil
}

func defaultProjectsDir() (string, error) {
	dir := ""
	if cfg != nil {
		dir = cfg.ProjectsDir
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".basketloom", "projects")
	}
	dir, err := expandHome(dir)
	if err != nil {
		return "", err
	}
	if err := utils.EnsureProjectDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func resolveProjectDirByName(name string) (string, error) {
	if name == "" {
		return "", errors.New("project name is required")
	}
	root, err := defaultProjectsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}

// loadProjectByName loads a project from the projects directory.
func loadProjectByName(name string) (*project.Project, error) {
	dir, err := resolveProjectDirByName(name)
	if err != nil {
		return nil, err
	}
	return project.LoadProject(dir)
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initDescription, "desc", "d", "", "project description")
	initDefaults.register(initCmd.Flags())
}
