package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/basketloom-cli/internal/dataset"
	"github.com/KaramelBytes/basketloom-cli/internal/mining"
)

func table(t *testing.T, rows ...string) *dataset.Table {
	t.Helper()
	tbl, err := dataset.ReadCSV(strings.NewReader(strings.Join(rows, "\n")), ',', 0)
	require.NoError(t, err)
	tbl.Name = "test.csv"
	return tbl
}

func shipments(t *testing.T) *dataset.Table {
	return table(t,
		"shipment_id,supplier_name,component_name,route,carrier,delay_cause,delay_days",
		"S1,Acme,Bolt,North,FastCo,Weather,3",
		"S2,Acme,Bolt,North,FastCo,Weather,5",
		"S3,Acme,Nut,South,SlowCo,Customs,2",
		"S4,Globex,Nut,South,SlowCo,Customs,1",
		"S5,Globex,Bolt,North,FastCo,Weather,0",
		"S6,Initech,Gear,East,FastCo,Weather,n/a",
		"S7,Initech,Gear,East,SlowCo,,",
	)
}

func TestRunSupplyChainPreset(t *testing.T) {
	p := BuiltinPresets()["supply-chain"].Params
	p.MinSupport = 0.4
	res, err := Run(context.Background(), shipments(t), p)
	require.NoError(t, err)

	assert.Equal(t, "test.csv", res.Dataset)
	assert.Equal(t, dataset.FilterStats{Input: 7, Kept: 4, Dropped: 1, Invalid: 1, Missing: 1}, res.Filter)
	require.Equal(t, 4, res.Matrix.Rows())
	require.False(t, res.Frequent.Empty())

	w, ok := res.Frequent.Lookup([]string{"route=North", "delay_cause=Weather"})
	require.True(t, ok)
	assert.InDelta(t, 0.5, w.Support, 1e-12)

	require.True(t, res.HasRules())
	for _, r := range res.Rules {
		assert.GreaterOrEqual(t, r.Lift, 0.8)
		assert.True(t, mining.RuleFilter{ConsequentContains: "delay_cause"}.Match(r), "%s", r)
	}
}

func TestRunRejectPolicyFails(t *testing.T) {
	p := BuiltinPresets()["supply-chain"].Params
	p.InvalidPolicy = dataset.InvalidReject
	_, err := Run(context.Background(), shipments(t), p)
	require.ErrorIs(t, err, dataset.ErrInvalidNumeric)
}

func TestRunRetailLines(t *testing.T) {
	tbl := table(t,
		"InvoiceNo,Description,Quantity,Country",
		"1,Mug,2,United Kingdom",
		"1,Teapot,1,United Kingdom",
		"2,Mug,1,United Kingdom",
		"2,Teapot,1,United Kingdom",
		"3,Mug,1,France",
		"4,Mug,-1,United Kingdom",
	)
	p := BuiltinPresets()["retail"].Params
	p.MinSupport = 0.5
	res, err := Run(context.Background(), tbl, p)
	require.NoError(t, err)

	assert.Len(t, res.Transactions, 2)
	assert.Equal(t, 6, res.Filter.Input)
	assert.Equal(t, 4, res.Filter.Kept)
	assert.Equal(t, 2, res.Filter.Dropped)
	require.Len(t, res.Rules, 2)
	assert.Equal(t, 1.0, res.Rules[0].Lift)
}

func TestRunNoFrequentItemsets(t *testing.T) {
	tbl := table(t, "a", "x", "y", "z")
	p := DefaultParams()
	p.Columns = []string{"a"}
	p.MinSupport = 0.9
	res, err := Run(context.Background(), tbl, p)
	require.NoError(t, err)
	assert.True(t, res.Frequent.Empty())
	assert.Nil(t, res.Rules)
}

func TestRunEmptyTable(t *testing.T) {
	tbl := table(t, "a,b")
	p := DefaultParams()
	p.Columns = []string{"a", "b"}
	res, err := Run(context.Background(), tbl, p)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Matrix.Rows())
	assert.True(t, res.Frequent.Empty())
}

func TestRunIndicatorLayout(t *testing.T) {
	tbl := table(t, "id,A,B,C", "t1,1,1,0", "t2,1,1,1", "t3,1,0,0", "t4,0,1,1")
	p := DefaultParams()
	p.Layout = LayoutIndicator
	p.IDColumn = "id"
	p.MinSupport = 0.5
	p.Metric = mining.MetricConfidence
	p.MinThreshold = 0.6
	res, err := Run(context.Background(), tbl, p)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, res.Matrix.Items())
	assert.Len(t, res.Rules, 4)
}

func TestRunIndicatorLayoutSkipsFilterColumns(t *testing.T) {
	tbl := table(t,
		"id,store,spend,A,B",
		"t1,north,12,1,1",
		"t2,north,4,1,0",
		"t3,south,7,0,1",
		"t4,north,0,1,1",
	)
	p := DefaultParams()
	p.Layout = LayoutIndicator
	p.IDColumn = "id"
	p.PositiveColumn = "spend"
	p.Where = map[string]string{"store": "north"}
	p.MinSupport = 0.5
	p.MinThreshold = 0
	res, err := Run(context.Background(), tbl, p)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, res.Matrix.Items())
	assert.Equal(t, 2, res.Matrix.Rows())
}

func TestRunValidatesBeforeWork(t *testing.T) {
	tbl := shipments(t)
	tests := []struct {
		name  string
		edit  func(*Params)
		cause error
	}{
		{"support", func(p *Params) { p.MinSupport = 0 }, mining.ErrInvalidSupport},
		{"metric", func(p *Params) { p.Metric = "gini" }, mining.ErrUnknownMetric},
		{"threshold", func(p *Params) { p.Metric = mining.MetricConfidence; p.MinThreshold = 2 }, mining.ErrInvalidThreshold},
		{"column", func(p *Params) { p.Columns = []string{"warehouse"} }, dataset.ErrColumnNotFound},
		{"where", func(p *Params) { p.Where = map[string]string{"region": "EU"} }, dataset.ErrColumnNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := BuiltinPresets()["supply-chain"].Params
			tt.edit(&p)
			_, err := Run(context.Background(), tbl, p)
			require.ErrorIs(t, err, ErrInvalidParams)
			require.ErrorIs(t, err, tt.cause)
		})
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, shipments(t), BuiltinPresets()["supply-chain"].Params)
	require.ErrorIs(t, err, context.Canceled)
}

func TestParamsValidateNormalizes(t *testing.T) {
	p := Params{Layout: "", Columns: []string{"a"}, MinSupport: 0.1, Metric: "LIFT", MinThreshold: 1}
	require.NoError(t, p.Validate())
	assert.Equal(t, LayoutColumns, p.Layout)
	assert.Equal(t, mining.MetricLift, p.Metric)
	assert.Equal(t, dataset.InvalidDrop, p.InvalidPolicy)

	_, err := ParseLayout("wide")
	require.ErrorIs(t, err, ErrInvalidParams)

	lines := Params{Layout: LayoutLines, ItemColumn: "x", MinSupport: 0.1, Metric: "lift"}
	require.ErrorIs(t, lines.Validate(), ErrInvalidParams)
}

func TestBuiltinPresetsValidate(t *testing.T) {
	for name, pr := range BuiltinPresets() {
		p := pr.Params
		assert.NoError(t, p.Validate(), name)
	}
	assert.Equal(t, []string{"retail", "supply-chain"}, PresetNames(BuiltinPresets()))
}

func TestLoadPresets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`presets:
  - name: pharmacy
    description: prescriptions filled together
    params:
      layout: lines
      id_column: rx
      item_column: drug
      min_support: 0.03
      metric: confidence
      min_threshold: 0.5
`), 0o644))

	presets, err := LoadPresets(path)
	require.NoError(t, err)
	p, err := Lookup(presets, "pharmacy")
	require.NoError(t, err)
	assert.Equal(t, LayoutLines, p.Params.Layout)
	assert.Equal(t, mining.MetricConfidence, p.Params.Metric)
	assert.Contains(t, presets, "retail")

	_, err = Lookup(presets, "nope")
	require.ErrorIs(t, err, ErrInvalidParams)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("presets:\n  - name: x\n    params:\n      columns: [a]\n      min_support: 2\n"), 0o644))
	_, err = LoadPresets(bad)
	require.ErrorIs(t, err, mining.ErrInvalidSupport)
}
