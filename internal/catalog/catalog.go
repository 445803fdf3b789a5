/*
PURPOSE:
  Loads test models from model list files into model.Model values.
  This is the catalog the runner iterates over.

REQUIREMENTS:
  User-specified:
  - One list file per test directory (modellist.yaml / .yml / .json).
  - Entries carry name, objective, tags, files, solvers, options, values.

  Implementation-discovered:
  - .json lists are decoded with encoding/json; .yaml and .yml lists with yaml.v3.
  - Without "files", the model file is found by name: .nl, then .mod, then .run.
  - Relative files resolve against the list's directory.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (Run), internal/cli (list-models)
  - Produces: []*model.Model
  - Dependencies: gopkg.in/yaml.v3, encoding/json

ERROR HANDLING:
  - Unknown tags propagate model.ErrUnknownTag. The catalog data must be fixed.
  - Malformed entries wrap ErrInvalidEntry with file and index.

IMPLEMENTATION RULES:
  - Deterministic order: directories and lists are walked in lexical order,
    entries keep file order.

USAGE:
  cat, err := catalog.Load([]string{"tests"}, true)
  for _, m := range cat.Models() { ... }

SELF-HEALING INSTRUCTIONS:
  - If a list fails with "no model file", check the entry name against the files on disk.

RELATED FILES:
  - internal/model/model.go
*/

package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/daryltucker/solver-runner/internal/model"
)

// ErrInvalidEntry is wrapped by errors about malformed list entries.
var ErrInvalidEntry = errors.New("invalid model list entry")

// ListFiles are the file names recognized as model lists, in priority order.
var ListFiles = []string{"modellist.yaml", "modellist.yml", "modellist.json"}

// modelExtensions are tried, in order, when an entry names no files.
var modelExtensions = []string{".nl", ".mod", ".run"}

// Entry is one record of a model list file.
type Entry struct {
	Name      string            `yaml:"name" json:"name"`
	Objective *float64          `yaml:"objective" json:"objective"`
	Tags      model.TagSet      `yaml:"tags" json:"tags"`
	Files     []string          `yaml:"files" json:"files"`
	Solvers   []string          `yaml:"solvers" json:"solvers"`
	Options   map[string]string `yaml:"options" json:"options"`
	Values    map[string]any    `yaml:"values" json:"values"`
}

// Model converts the entry into a Model. dir resolves relative files.
func (e Entry) Model(dir string) (*model.Model, error) {
	if e.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidEntry)
	}

	var primary string
	var others []string
	if len(e.Files) > 0 {
		files := make([]string, len(e.Files))
		for i, f := range e.Files {
			if f == "" {
				return nil, fmt.Errorf("%w: %s: empty file name", ErrInvalidEntry, e.Name)
			}
			files[i] = resolve(dir, f)
		}
		primary, others = files[0], files[1:]
	} else {
		found, err := findModelFile(dir, e.Name)
		if err != nil {
			return nil, err
		}
		primary = found
	}

	opts := []model.Option{model.WithName(e.Name), model.WithOtherFiles(others...)}
	if e.Solvers != nil || e.Options != nil || e.Values != nil {
		opts = append(opts, model.WithDescription(&model.Description{
			Solvers: e.Solvers,
			Options: e.Options,
			Values:  e.Values,
		}))
	}
	return model.New(primary, e.Objective, e.Tags, opts...), nil
}

// LoadFile reads one model list.
func LoadFile(path string) ([]*model.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &entries)
	} else {
		err = yaml.Unmarshal(data, &entries)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse model list %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	models := make([]*model.Model, 0, len(entries))
	for i, e := range entries {
		m, err := e.Model(dir)
		if err != nil {
			return nil, fmt.Errorf("%s: entry %d: %w", path, i, err)
		}
		models = append(models, m)
	}
	return models, nil
}

// LoadDir loads the model list of dir and, when recursive, of every
// subdirectory.
func LoadDir(dir string, recursive bool) ([]*model.Model, error) {
	if !recursive {
		list, ok := listFileIn(dir)
		if !ok {
			return nil, nil
		}
		return LoadFile(list)
	}

	var models []*model.Model
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		list, ok := listFileIn(path)
		if !ok {
			return nil
		}
		loaded, err := LoadFile(list)
		if err != nil {
			return err
		}
		models = append(models, loaded...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return models, nil
}

// Catalog is an ordered collection of models.
type Catalog struct {
	models []*model.Model
}

// New wraps models into a Catalog.
func New(models []*model.Model) *Catalog {
	return &Catalog{models: slices.Clone(models)}
}

// Load reads every directory into one catalog.
func Load(dirs []string, recursive bool) (*Catalog, error) {
	var all []*model.Model
	for _, dir := range dirs {
		models, err := LoadDir(dir, recursive)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog %s: %w", dir, err)
		}
		all = append(all, models...)
	}
	return &Catalog{models: all}, nil
}

// Models returns the models in catalog order.
func (c *Catalog) Models() []*model.Model { return slices.Clone(c.models) }

// Len returns the number of models.
func (c *Catalog) Len() int { return len(c.models) }

// Filter returns a catalog of the models keep accepts.
func (c *Catalog) Filter(keep func(*model.Model) bool) *Catalog {
	var out []*model.Model
	for _, m := range c.models {
		if keep(m) {
			out = append(out, m)
		}
	}
	return &Catalog{models: out}
}

// Select keeps models named in include (all when empty) and drops those whose
// name contains any exclude substring, case-insensitively.
func (c *Catalog) Select(include, exclude []string) *Catalog {
	return c.Filter(func(m *model.Model) bool {
		if len(include) > 0 && !slices.Contains(include, m.Name()) {
			return false
		}
		name := strings.ToLower(m.Name())
		for _, ex := range exclude {
			if ex != "" && strings.Contains(name, strings.ToLower(ex)) {
				return false
			}
		}
		return true
	})
}

// WithAnyTag keeps models carrying at least one of tags.
func (c *Catalog) WithAnyTag(tags model.TagSet) *Catalog {
	return c.Filter(func(m *model.Model) bool { return m.HasAnyTag(tags) })
}

func listFileIn(dir string) (string, bool) {
	for _, name := range ListFiles {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func findModelFile(dir, name string) (string, error) {
	for _, ext := range modelExtensions {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s: no model file %s{%s} in %s",
		ErrInvalidEntry, name, name, strings.Join(modelExtensions, ","), dir)
}

func resolve(dir, file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(dir, file)
}
