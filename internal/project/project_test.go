package project_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/basketloom-cli/internal/dataset"
	"github.com/KaramelBytes/basketloom-cli/internal/mining"
	"github.com/KaramelBytes/basketloom-cli/internal/pipeline"
	"github.com/KaramelBytes/basketloom-cli/internal/project"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestAddDatasetProfilesAndPersists(t *testing.T) {
	tdir := t.TempDir()
	csvPath := writeFile(t, tdir, "shipments.csv", "shipment_id,route,delay_days\nS1,North,3\nS2,South,0\n")

	proj := project.NewProject("logistics", "late shipments", filepath.Join(tdir, "proj"))
	d, err := proj.AddDataset(csvPath, " Q1 log ", dataset.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "shipments.csv", d.Name)
	assert.Equal(t, "Q1 log", d.Description)
	assert.Equal(t, 2, d.Rows)
	assert.Equal(t, []string{"shipment_id", "route", "delay_days"}, d.Columns)
	assert.Contains(t, d.Profile, "[SCHEMA]")
	require.NoError(t, proj.Save())

	loaded, err := project.LoadProject(proj.RootDir())
	require.NoError(t, err)
	require.Len(t, loaded.Datasets, 1)
	got, err := loaded.FindDataset("shipments.csv")
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
	got, err = loaded.FindDataset(d.ID[:6])
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, filepath.Join(proj.RootDir(), "runs.db"), loaded.StorePath())

	overview := loaded.Overview()
	assert.True(t, strings.HasPrefix(overview, "[PROJECT]\nlogistics: late shipments"))
	assert.Contains(t, overview, "--- Dataset: shipments.csv (Q1 log) ---")
}

func TestAddDatasetMissingFile(t *testing.T) {
	proj := project.NewProject("p", "", t.TempDir())
	_, err := proj.AddDataset(filepath.Join(t.TempDir(), "nope.csv"), "", dataset.DefaultOptions())
	require.Error(t, err)
	assert.Empty(t, proj.Datasets)
}

func TestFindAndRemoveDataset(t *testing.T) {
	tdir := t.TempDir()
	a := writeFile(t, tdir, "a.csv", "x\n1\n")
	proj := project.NewProject("p", "", filepath.Join(tdir, "proj"))
	_, err := proj.AddDataset(a, "", dataset.DefaultOptions())
	require.NoError(t, err)

	_, err = proj.FindDataset("b.csv")
	require.ErrorIs(t, err, project.ErrDatasetNotFound)
	require.NoError(t, proj.RemoveDataset("A.CSV"))
	assert.Empty(t, proj.Datasets)
	assert.Contains(t, proj.Overview(), "(none)")
}

func TestApplyDefaults(t *testing.T) {
	proj := project.NewProject("p", "", t.TempDir())
	support := 0.02
	proj.Defaults.MinSupport = &support
	proj.Defaults.Metric = "confidence"

	params := pipeline.DefaultParams()
	proj.ApplyDefaults(&params)
	assert.Equal(t, 0.02, params.MinSupport)
	assert.Equal(t, mining.MetricConfidence, params.Metric)
	assert.Equal(t, 1.0, params.MinThreshold)
}

func TestDefaultsKeepZeroThroughSave(t *testing.T) {
	dir := t.TempDir()
	proj := project.NewProject("p", "", dir)
	assert.True(t, proj.Defaults.IsZero())
	zero := 0.0
	proj.Defaults.MinThreshold = &zero
	require.NoError(t, proj.Save())

	loaded, err := project.LoadProject(dir)
	require.NoError(t, err)
	require.NotNil(t, loaded.Defaults.MinThreshold)
	assert.False(t, loaded.Defaults.IsZero())
	assert.Nil(t, loaded.Defaults.MinSupport)

	params := pipeline.DefaultParams()
	params.MinThreshold = 1.0
	loaded.ApplyDefaults(&params)
	assert.Equal(t, 0.0, params.MinThreshold)
}

func TestLoadProjectMissing(t *testing.T) {
	_, err := project.LoadProject(t.TempDir())
	require.ErrorIs(t, err, os.ErrNotExist)
}
