package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/basketloom-cli/internal/dataset"
	"github.com/KaramelBytes/basketloom-cli/internal/mining"
)

const (
	dirName   = ".basketloom"
	envPrefix = "BASKETLOOM"
)

// Global configuration structure.
type Global struct {
	MinSupport     float64 `mapstructure:"min_support" yaml:"min_support"`
	Metric         string  `mapstructure:"metric" yaml:"metric"`
	MinThreshold   float64 `mapstructure:"min_threshold" yaml:"min_threshold"`
	MaxLen         int     `mapstructure:"max_len" yaml:"max_len"`
	Top            int     `mapstructure:"top" yaml:"top"`
	ExportDir      string  `mapstructure:"export_dir" yaml:"export_dir"`
	ProjectsDir    string  `mapstructure:"projects_dir" yaml:"projects_dir"`
	PresetsFile    string  `mapstructure:"presets_file" yaml:"presets_file"`
	MaxRows        int     `mapstructure:"max_rows" yaml:"max_rows"`
	InvalidNumeric string  `mapstructure:"invalid_numeric" yaml:"invalid_numeric"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Dir returns ~/.basketloom.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.basketloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("min_support", 0.05)
	v.SetDefault("metric", string(mining.MetricLift))
	v.SetDefault("min_threshold", 1.0)
	v.SetDefault("max_len", 0)
	v.SetDefault("top", 10)
	v.SetDefault("export_dir", ".")
	v.SetDefault("projects_dir", "")
	v.SetDefault("presets_file", "")
	v.SetDefault("max_rows", 0)
	v.SetDefault("invalid_numeric", string(dataset.InvalidDrop))
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve projects_dir default: ~/.basketloom/projects
	if c.ProjectsDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.ProjectsDir = filepath.Join(dir, "projects")
	}
	return &c, nil
}

// Keys lists the settable configuration keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set parses and validates value for key and stores it in c.
func (c *Global) Set(key, value string) error {
	set, ok := setters[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := set(c, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// Validate checks the mining-related values with the same rules as a run.
func (c *Global) Validate() error {
	if err := mining.ValidateSupport(c.MinSupport); err != nil {
		return err
	}
	m, err := mining.ParseMetric(c.Metric)
	if err != nil {
		return err
	}
	if err := m.ValidateThreshold(c.MinThreshold); err != nil {
		return err
	}
	if _, err := dataset.ParseInvalidPolicy(c.InvalidNumeric); err != nil {
		return err
	}
	return nil
}

var setters = map[string]func(*Global, string) error{
	"min_support": func(c *Global, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", v)
		}
		if err := mining.ValidateSupport(f); err != nil {
			return err
		}
		c.MinSupport = f
		return nil
	},
	"metric": func(c *Global, v string) error {
		m, err := mining.ParseMetric(v)
		if err != nil {
			return err
		}
		c.Metric = string(m)
		return nil
	},
	"min_threshold": func(c *Global, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", v)
		}
		m, err := mining.ParseMetric(c.Metric)
		if err != nil {
			return err
		}
		if err := m.ValidateThreshold(f); err != nil {
			return err
		}
		c.MinThreshold = f
		return nil
	},
	"max_len":    intSetter(func(c *Global, n int) { c.MaxLen = n }),
	"top":        intSetter(func(c *Global, n int) { c.Top = n }),
	"max_rows":   intSetter(func(c *Global, n int) { c.MaxRows = n }),
	"export_dir": func(c *Global, v string) error { c.ExportDir = v; return nil },
	"projects_dir": func(c *Global, v string) error {
		c.ProjectsDir = v
		return nil
	},
	"presets_file": func(c *Global, v string) error { c.PresetsFile = v; return nil },
	"invalid_numeric": func(c *Global, v string) error {
		p, err := dataset.ParseInvalidPolicy(v)
		if err != nil {
			return err
		}
		c.InvalidNumeric = string(p)
		return nil
	},
	"log_level": func(c *Global, v string) error {
		switch strings.ToLower(v) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(v)
			return nil
		}
		return fmt.Errorf("invalid log level %q (use debug|info|warn|error)", v)
	},
	"log_format": func(c *Global, v string) error {
		switch strings.ToLower(v) {
		case "console", "json":
			c.LogFormat = strings.ToLower(v)
			return nil
		}
		return fmt.Errorf("invalid log format %q (use console|json)", v)
	},
}

func intSetter(apply func(*Global, int)) func(*Global, string) error {
	return func(c *Global, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("expected a non-negative integer, got %q", v)
		}
		apply(c, n)
		return nil
	}
}
