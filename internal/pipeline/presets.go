package pipeline

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/basketloom-cli/internal/dataset"
	"github.com/KaramelBytes/basketloom-cli/internal/mining"
)

// Preset is a named, documented set of parameters for a known dataset shape.
type Preset struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Params      Params `yaml:"params"`
}

// BuiltinPresets returns the presets shipped with the binary, keyed by name.
func BuiltinPresets() map[string]Preset {
	return map[string]Preset{
		"supply-chain": {
			Name:        "supply-chain",
			Description: "Delayed shipments: which suppliers, components, routes and carriers co-occur with each delay cause",
			Params: Params{
				Layout:             LayoutColumns,
				Columns:            []string{"supplier_name", "component_name", "route", "carrier", "delay_cause"},
				Separator:          ",",
				PrefixColumns:      true,
				PositiveColumn:     "delay_days",
				InvalidPolicy:      dataset.InvalidDrop,
				MinSupport:         0.01,
				Metric:             mining.MetricLift,
				MinThreshold:       0.8,
				ConsequentContains: "delay_cause",
				Numeric:            dataset.DefaultOptions(),
			},
		},
		"retail": {
			Name:        "retail",
			Description: "Online-retail invoices (UK): products bought together",
			Params: Params{
				Layout:         LayoutLines,
				IDColumn:       "InvoiceNo",
				ItemColumn:     "Description",
				QuantityColumn: "Quantity",
				Where:          map[string]string{"Country": "United Kingdom"},
				InvalidPolicy:  dataset.InvalidDrop,
				MinSupport:     0.02,
				Metric:         mining.MetricLift,
				MinThreshold:   1.0,
				Numeric:        dataset.DefaultOptions(),
			},
		},
	}
}

// PresetNames returns the names of presets in sorted order.
func PresetNames(presets map[string]Preset) []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// LoadPresets reads presets from a YAML file and merges them over the
// built-ins; a file preset with a built-in name replaces it. Each loaded
// preset is validated.
func LoadPresets(path string) (map[string]Preset, error) {
	out := BuiltinPresets()
	if path == "" {
		return out, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	var f presetFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	for _, p := range f.Presets {
		if p.Name == "" {
			return nil, fmt.Errorf("parse presets: preset without a name in %s", path)
		}
		p.Params.Numeric = dataset.DefaultOptions()
		if err := p.Params.Validate(); err != nil {
			return nil, fmt.Errorf("preset %s: %w", p.Name, err)
		}
		out[p.Name] = p
	}
	return out, nil
}

// Lookup returns the named preset.
func Lookup(presets map[string]Preset, name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: unknown preset %q (available: %v)", ErrInvalidParams, name, PresetNames(presets))
	}
	return p, nil
}
