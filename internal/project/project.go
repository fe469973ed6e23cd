package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/basketloom-cli/internal/dataset"
	"github.com/KaramelBytes/basketloom-cli/internal/mining"
	"github.com/KaramelBytes/basketloom-cli/internal/pipeline"
	"github.com/KaramelBytes/basketloom-cli/internal/utils"
)

const (
	projectFileName = "project.json"
	storeFileName   = "runs.db"
	profileSamples  = 5
)

// ErrDatasetNotFound is returned when a dataset reference matches nothing.
var ErrDatasetNotFound = errors.New("dataset not found")

// Project represents a BasketLoom project persisted on disk.
type Project struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Datasets    map[string]*Dataset `json:"datasets"`
	Defaults    *Defaults           `json:"defaults"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`

	// Not serialized: on-disk location of the project.json
	rootDir string `json:"-"`
}

// Defaults are per-project mining settings. Empty strings and nil numbers
// inherit from the global configuration; a stored 0 threshold is kept.
type Defaults struct {
	Preset       string   `json:"preset,omitempty"`
	MinSupport   *float64 `json:"min_support,omitempty"`
	Metric       string   `json:"metric,omitempty"`
	MinThreshold *float64 `json:"min_threshold,omitempty"`
}

// IsZero reports whether no default is set.
func (d *Defaults) IsZero() bool {
	return d == nil || (d.Preset == "" && d.MinSupport == nil && d.Metric == "" && d.MinThreshold == nil)
}

// NewProject constructs an in-memory project. Call Save() to persist.
func NewProject(name, description, rootDir string) *Project {
	return &Project{
		Name:        name,
		Description: description,
		Datasets:    make(map[string]*Dataset),
		Defaults:    &Defaults{},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		rootDir:     rootDir,
	}
}

// LoadProject loads a project.json from the provided directory.
func LoadProject(dir string) (*Project, error) {
	path := filepath.Join(dir, projectFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("project not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read project: %w", err)
	}
	var p Project
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	if p.Datasets == nil {
		p.Datasets = make(map[string]*Dataset)
	}
	if p.Defaults == nil {
		p.Defaults = &Defaults{}
	}
	p.rootDir = dir
	return &p, nil
}

// RootDir returns the on-disk project directory path.
func (p *Project) RootDir() string { return p.rootDir }

// StorePath is the SQLite run history of this project.
func (p *Project) StorePath() string { return filepath.Join(p.rootDir, storeFileName) }

// ExportDir is where run exports go when the project is used.
func (p *Project) ExportDir() string { return filepath.Join(p.rootDir, "exports") }

// Save writes project.json using atomic write.
func (p *Project) Save() error {
	if p.rootDir == "" {
		return errors.New("project root directory not set")
	}
	if err := utils.EnsureProjectDir(p.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	p.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(p)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(p.rootDir, projectFileName), data)
}

// AddDataset loads and profiles a file and records it in the project.
func (p *Project) AddDataset(path, description string, opt dataset.Options) (*Dataset, error) {
	t, err := dataset.Load(path, opt)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	d := &Dataset{
		ID:          uuid.NewString(),
		Path:        abs,
		Name:        filepath.Base(path),
		Description: strings.TrimSpace(description),
		Sheet:       opt.SheetName,
		Rows:        t.Total,
		Columns:     append([]string(nil), t.Header...),
		Profile:     dataset.Profile(t, opt, profileSamples).Markdown(),
		AddedAt:     time.Now(),
	}
	if p.Datasets == nil {
		p.Datasets = make(map[string]*Dataset)
	}
	p.Datasets[d.ID] = d
	p.UpdatedAt = time.Now()
	return d, nil
}

// FindDataset resolves a dataset by id, id prefix, or file name.
func (p *Project) FindDataset(ref string) (*Dataset, error) {
	if d, ok := p.Datasets[ref]; ok {
		return d, nil
	}
	var matches []*Dataset
	for _, d := range p.SortedDatasets() {
		if (ref != "" && strings.HasPrefix(d.ID, ref)) || strings.EqualFold(d.Name, ref) {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, ref)
	case 1:
		return matches[0], nil
	}
	return nil, fmt.Errorf("%q matches %d datasets; use the id", ref, len(matches))
}

// RemoveDataset drops a dataset from the project.
func (p *Project) RemoveDataset(ref string) error {
	d, err := p.FindDataset(ref)
	if err != nil {
		return err
	}
	delete(p.Datasets, d.ID)
	p.UpdatedAt = time.Now()
	return nil
}

// SortedDatasets returns datasets ordered by name then id.
func (p *Project) SortedDatasets() []*Dataset {
	out := make([]*Dataset, 0, len(p.Datasets))
	for _, d := range p.Datasets {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ApplyDefaults overlays the project's set defaults onto params.
func (p *Project) ApplyDefaults(params *pipeline.Params) {
	if p == nil || p.Defaults == nil {
		return
	}
	if p.Defaults.MinSupport != nil {
		params.MinSupport = *p.Defaults.MinSupport
	}
	if p.Defaults.Metric != "" {
		params.Metric = mining.Metric(p.Defaults.Metric)
	}
	if p.Defaults.MinThreshold != nil {
		params.MinThreshold = *p.Defaults.MinThreshold
	}
}

// Overview renders the project and the cached profile of every dataset.
func (p *Project) Overview() string {
	var sb strings.Builder
	sb.WriteString("[PROJECT]\n")
	sb.WriteString(p.Name)
	if p.Description != "" {
		sb.WriteString(": ")
		sb.WriteString(p.Description)
	}
	sb.WriteString("\n\n[DATASETS]\n")
	if len(p.Datasets) == 0 {
		sb.WriteString("(none)\n")
		return sb.String()
	}
	for _, d := range p.SortedDatasets() {
		sb.WriteString("--- Dataset: ")
		sb.WriteString(d.Name)
		if d.Description != "" {
			sb.WriteString(" (")
			sb.WriteString(d.Description)
			sb.WriteString(")")
		}
		sb.WriteString(" ---\n")
		sb.WriteString(d.Profile)
		sb.WriteString("\n")
	}
	return sb.String()
}
