package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/basketloom-cli/internal/mining"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.05, c.MinSupport)
	assert.Equal(t, "lift", c.Metric)
	assert.Equal(t, 1.0, c.MinThreshold)
	assert.Equal(t, 10, c.Top)
	assert.Equal(t, "drop", c.InvalidNumeric)
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), ".basketloom", "projects"), c.ProjectsDir)
	require.NoError(t, c.Validate())
}

func TestLoadPrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_support: 0.2\nmetric: confidence\ntop: 3\n"), 0o644))
	t.Setenv("BASKETLOOM_TOP", "7")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.2, c.MinSupport)
	assert.Equal(t, "confidence", c.Metric)
	assert.Equal(t, 7, c.Top)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.Set("min_support", "0.1"))
	require.NoError(t, Save(c, ""))

	again, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.1, again.MinSupport)
}

func TestSetValidates(t *testing.T) {
	c := &Global{Metric: "lift", MinThreshold: 1}
	require.ErrorIs(t, c.Set("min_support", "0"), mining.ErrInvalidSupport)
	require.ErrorIs(t, c.Set("metric", "gain"), mining.ErrUnknownMetric)
	require.NoError(t, c.Set("metric", "Confidence"))
	assert.Equal(t, "confidence", c.Metric)
	require.ErrorIs(t, c.Set("min_threshold", "1.5"), mining.ErrInvalidThreshold)
	require.NoError(t, c.Set("top", "25"))
	assert.Equal(t, 25, c.Top)
	assert.Error(t, c.Set("top", "-1"))
	assert.Error(t, c.Set("log_level", "loud"))
	assert.Error(t, c.Set("colour", "red"))
	assert.Contains(t, Keys(), "invalid_numeric")
}

func TestValidateCatchesMetricThresholdMismatch(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)

	// The metric setter alone accepts leverage; the stored threshold of 1.0
	// only fails the combined check.
	require.NoError(t, c.Set("metric", "leverage"))
	require.ErrorIs(t, c.Validate(), mining.ErrInvalidThreshold)

	require.NoError(t, c.Set("metric", "lift"))
	require.NoError(t, c.Set("min_threshold", "0.1"))
	require.NoError(t, c.Set("metric", "leverage"))
	require.NoError(t, c.Validate())
}
