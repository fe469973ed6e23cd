package cmd

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/basketloom-cli/internal/mining"
	"github.com/KaramelBytes/basketloom-cli/internal/pipeline"
	"github.com/KaramelBytes/basketloom-cli/internal/project"
	"github.com/KaramelBytes/basketloom-cli/internal/store"
)

const basketsCSV = "basket,fruit,drink\n1,apple,tea\n2,apple,tea\n3,pear,tea\n4,apple,coffee\n"

// resetFlags restores every flag to its default so invocations do not leak
// Changed state or values into each other.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execCmd(args ...string) error {
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) {
	t.Helper()
	if err := execCmd(args...); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeFile(t *testing.T, path, body string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return recs
}

func TestCLI_InitAddMineRecordsRun(t *testing.T) {
	home := isolateHome(t)
	data := writeFile(t, filepath.Join(home, "baskets.csv"), basketsCSV)

	// Invalid defaults are rejected before the project directory is created.
	require.ErrorIs(t, execCmd("init", "shop", "--metric", "support", "--min-threshold", "2"), mining.ErrInvalidThreshold)
	runCmd(t, "init", "shop", "-d", "corner shop",
		"--min-support", "0.5", "--metric", "confidence", "--min-threshold", "0.5")
	require.Error(t, execCmd("init", "shop"))
	runCmd(t, "add", "-p", "shop", data, "--desc", "weekly baskets")
	runCmd(t, "list", "--datasets", "-p", "shop")

	projDir, err := resolveProjectDirByName("shop")
	require.NoError(t, err)
	p, err := project.LoadProject(projDir)
	require.NoError(t, err)
	require.Len(t, p.Datasets, 1)
	require.NotNil(t, p.Defaults.MinSupport)
	assert.Equal(t, 0.5, *p.Defaults.MinSupport)
	assert.Equal(t, "confidence", p.Defaults.Metric)
	require.NotNil(t, p.Defaults.MinThreshold)
	assert.Equal(t, 0.5, *p.Defaults.MinThreshold)

	// The dataset is referenced by name, not path; mining parameters come
	// from the project defaults.
	runCmd(t, "mine", "-p", "shop", "baskets.csv", "--columns", "fruit,drink", "--id-column", "basket")

	rules := readCSV(t, filepath.Join(p.ExportDir(), "baskets_rules.csv"))
	require.Len(t, rules, 3)
	assert.Equal(t, "antecedents", rules[0][0])
	assert.Equal(t, "drink=tea", rules[1][0])
	assert.Equal(t, "fruit=apple", rules[1][1])
	itemsets := readCSV(t, filepath.Join(p.ExportDir(), "baskets_itemsets.csv"))
	assert.Len(t, itemsets, 4)

	ctx := context.Background()
	s, err := store.Open(ctx, p.StorePath())
	require.NoError(t, err)
	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.Len(t, runs, 1)
	assert.Equal(t, "baskets.csv", runs[0].Dataset)
	assert.Equal(t, 2, runs[0].RuleCount)

	runCmd(t, "list", "--runs", "-p", "shop")
	runCmd(t, "runs", "show", "-p", "shop", runs[0].ID[:8])
	runCmd(t, "runs", "delete", "-p", "shop", runs[0].ID)
	require.Error(t, execCmd("runs", "show", "-p", "shop", runs[0].ID))
}

func TestCLI_MineBatchCollisionFreeExports(t *testing.T) {
	home := isolateHome(t)
	writeFile(t, filepath.Join(home, "d1", "orders.csv"), basketsCSV)
	writeFile(t, filepath.Join(home, "d2", "orders.csv"), basketsCSV)
	out := filepath.Join(home, "out")

	runCmd(t, "mine-batch", filepath.Join(home, "d*", "orders.csv"),
		"--columns", "fruit,drink", "--min-support", "0.5", "--min-threshold", "0",
		"--export-dir", out, "--quiet")

	for _, name := range []string{"orders_itemsets.csv", "orders_itemsets-2.csv", "orders_rules.csv", "orders_rules-2.csv"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}
}

func TestCLI_MineBatchReportsFailures(t *testing.T) {
	home := isolateHome(t)
	writeFile(t, filepath.Join(home, "ok.csv"), basketsCSV)
	writeFile(t, filepath.Join(home, "other.csv"), "a,b\nx,y\n")

	err := execCmd("mine-batch", filepath.Join(home, "*.csv"),
		"--columns", "fruit", "--min-support", "0.5", "--no-export", "--quiet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
}

func TestCLI_MinePresetKeepsDelayCauseRules(t *testing.T) {
	home := isolateHome(t)
	data := writeFile(t, filepath.Join(home, "shipments.csv"),
		"supplier_name,component_name,route,carrier,delay_cause,delay_days\n"+
			"S1,C1,R1,K1,weather,3\n"+
			"S1,C1,R1,K1,weather,2\n"+
			"S2,C2,R2,K2,customs,0\n"+
			"S2,C2,R2,K1,customs,4\n")
	out := filepath.Join(home, "exports")

	runCmd(t, "mine", data, "--preset", "supply-chain", "--export-dir", out, "--format", "markdown")

	rules := readCSV(t, filepath.Join(out, "shipments_rules.csv"))
	require.Greater(t, len(rules), 1)
	for _, r := range rules[1:] {
		assert.Contains(t, r[1], "delay_cause=")
	}
}

func TestCLI_MineRejectsInvalidParams(t *testing.T) {
	home := isolateHome(t)
	data := writeFile(t, filepath.Join(home, "baskets.csv"), basketsCSV)

	err := execCmd("mine", data, "--columns", "fruit", "--min-support", "1.5", "--no-export")
	require.ErrorIs(t, err, pipeline.ErrInvalidParams)

	err = execCmd("mine", data, "--columns", "colour", "--no-export")
	require.ErrorIs(t, err, pipeline.ErrInvalidParams)

	err = execCmd("mine", data, "--columns", "fruit", "--where", "nonsense", "--no-export")
	require.ErrorIs(t, err, pipeline.ErrInvalidParams)

	require.Error(t, execCmd("mine", data, "--columns", "fruit", "--format", "pdf"))
}

func TestCLI_ConfigSetAndDefaults(t *testing.T) {
	home := isolateHome(t)
	runCmd(t, "config", "set", "min_support", "0.5")
	runCmd(t, "config", "set", "metric", "confidence")
	require.Error(t, execCmd("config", "set", "metric", "gain"))

	b, err := os.ReadFile(filepath.Join(home, ".basketloom", "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "min_support: 0.5")
	runCmd(t, "config", "show")

	// Switching to a metric the stored threshold does not fit is refused
	// and leaves the file untouched.
	err = execCmd("config", "set", "metric", "leverage")
	require.ErrorIs(t, err, mining.ErrInvalidThreshold)
	after, err := os.ReadFile(filepath.Join(home, ".basketloom", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, string(b), string(after))
	require.ErrorIs(t, execCmd("config", "set", "min_threshold", "1.5"), mining.ErrInvalidThreshold)

	// Config supplies the defaults when no flag is given.
	data := writeFile(t, filepath.Join(home, "baskets.csv"), basketsCSV)
	out := filepath.Join(home, "out")
	runCmd(t, "mine", data, "--columns", "fruit,drink", "--min-threshold", "0.5", "--export-dir", out)
	itemsets := readCSV(t, filepath.Join(out, "baskets_itemsets.csv"))
	assert.Len(t, itemsets, 4)
}

func TestCLI_ProjectDefaults(t *testing.T) {
	home := isolateHome(t)
	runCmd(t, "init", "defaults")
	runCmd(t, "project", "set-defaults", "-p", "defaults", "--min-support", "0.5", "--metric", "lift")
	require.Error(t, execCmd("project", "set-defaults", "-p", "defaults", "--preset", "nope"))

	projDir, err := resolveProjectDirByName("defaults")
	require.NoError(t, err)
	p, err := project.LoadProject(projDir)
	require.NoError(t, err)
	require.NotNil(t, p.Defaults.MinSupport)
	assert.Equal(t, 0.5, *p.Defaults.MinSupport)
	assert.Equal(t, "lift", p.Defaults.Metric)
	assert.Nil(t, p.Defaults.MinThreshold)

	// leverage with the inherited threshold of 1.0 is out of range.
	err = execCmd("project", "set-defaults", "-p", "defaults", "--metric", "leverage")
	require.ErrorIs(t, err, mining.ErrInvalidThreshold)
	runCmd(t, "project", "set-defaults", "-p", "defaults", "--metric", "leverage", "--min-threshold", "0")
	p, err = project.LoadProject(projDir)
	require.NoError(t, err)
	require.NotNil(t, p.Defaults.MinThreshold)
	assert.Equal(t, 0.0, *p.Defaults.MinThreshold)
	runCmd(t, "project", "set-defaults", "-p", "defaults", "--metric", "lift")

	data := writeFile(t, filepath.Join(home, "baskets.csv"), basketsCSV)
	runCmd(t, "mine", "-p", "defaults", data, "--columns", "fruit,drink", "--min-threshold", "0")
	itemsets := readCSV(t, filepath.Join(p.ExportDir(), "baskets_itemsets.csv"))
	assert.Len(t, itemsets, 4)

	runCmd(t, "project", "set-defaults", "-p", "defaults", "--clear")
	runCmd(t, "project", "show", "-p", "defaults")
}

func TestCLI_DescribeAndPresets(t *testing.T) {
	home := isolateHome(t)
	data := writeFile(t, filepath.Join(home, "baskets.csv"), basketsCSV)
	out := filepath.Join(home, "profile.md")

	runCmd(t, "describe", data, "-o", out)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), "fruit"))

	runCmd(t, "presets")
	require.Error(t, execCmd("list"))
	runCmd(t, "list", "--projects")
}
