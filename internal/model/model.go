/*
PURPOSE:
  Defines Model, the descriptor of one test case: the problem file,
  its expected objective, tags, auxiliary files and an optional description.

REQUIREMENTS:
  User-specified:
  - Name defaults to the file stem.
  - NL models are recognized by the ".nl" extension, case-insensitively.
  - Tag predicates decide which solver configurations attempt which model.

  Implementation-discovered:
  - The description is an explicit struct; a nil field means the key is absent.
  - Getters for optional description data fail instead of returning zero values.

ARCHITECTURE INTEGRATION:
  - Built by: internal/catalog
  - Queried by: internal/engine (selection, execution, checks), internal/cli

ERROR HANDLING:
  - Solvers/Options/ExpectedValues return ErrMissingDescription or ErrMissingKey.
    Callers guard with the matching Has* method.

IMPLEMENTATION RULES:
  - Models are immutable after New. Accessors return copies of slices and maps.
  - No file-system access here; paths are only manipulated as strings.

USAGE:
  m := model.New("tests/diet.mod", model.Objective(88.2), model.NewTagSet(model.Linear))
  m := model.NewLinear("tests/lp1.nl", 1.0, model.Integer)

SELF-HEALING INSTRUCTIONS:
  - If a new description key is needed, add a field to Description and a Has/getter method pair.

RELATED FILES:
  - internal/model/tags.go
  - internal/catalog/catalog.go

MAINTENANCE:
  - Keep the accessor set in sync with the engine's needs.
*/

package model

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"
)

var (
	// ErrMissingDescription is returned when a model was built without a description.
	ErrMissingDescription = errors.New("model has no description")
	// ErrMissingKey is returned when the description lacks the requested key.
	ErrMissingKey = errors.New("model description has no such key")
)

// Description holds the optional structured metadata of a model.
// Each field is independently optional; nil means absent.
type Description struct {
	// Solvers lists the solver names this model is validated against.
	Solvers []string `yaml:"solvers,omitempty" json:"solvers,omitempty"`
	// Options holds option strings keyed by "<solver>_options" or "ANYSOLVER_options".
	Options map[string]string `yaml:"options,omitempty" json:"options,omitempty"`
	// Values maps expressions to their expected values after solving.
	Values map[string]any `yaml:"values,omitempty" json:"values,omitempty"`
}

// Model describes one test case.
type Model struct {
	filename    string
	expected    *float64
	tags        TagSet
	otherFiles  []string
	name        string
	description *Description
}

// Option customizes a Model at construction.
type Option func(*Model)

// WithOtherFiles attaches auxiliary files (data files, scripts).
// Passing no files leaves the list absent.
func WithOtherFiles(files ...string) Option {
	return func(m *Model) {
		if len(files) == 0 {
			m.otherFiles = nil
			return
		}
		m.otherFiles = slices.Clone(files)
	}
}

// WithName overrides the display name. An empty name keeps the file stem.
func WithName(name string) Option {
	return func(m *Model) {
		if name != "" {
			m.name = name
		}
	}
}

// WithDescription attaches the structured description.
func WithDescription(d *Description) Option {
	return func(m *Model) {
		if d == nil {
			m.description = nil
			return
		}
		m.description = &Description{
			Solvers: slices.Clone(d.Solvers),
			Options: maps.Clone(d.Options),
			Values:  maps.Clone(d.Values),
		}
	}
}

// Objective is shorthand for an expected objective value.
func Objective(v float64) *float64 { return &v }

// New builds a Model. expected may be nil when the model has no expected
// objective; a nil tags set is stored as an empty one.
func New(filename string, expected *float64, tags TagSet, opts ...Option) *Model {
	filename = normalizePath(filename)
	m := &Model{
		filename: filename,
		tags:     tags.Clone(),
		name:     stem(filename),
	}
	if expected != nil {
		v := *expected
		m.expected = &v
	}
	if m.tags == nil {
		m.tags = NewTagSet()
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewLinear builds a linear model. vars defaults to Continuous.
func NewLinear(filename string, expected float64, vars ...Tag) *Model {
	return New(filename, Objective(expected), withVars(Linear, vars))
}

// NewQuadratic builds a quadratic model. vars defaults to Continuous.
func NewQuadratic(filename string, expected float64, vars ...Tag) *Model {
	return New(filename, Objective(expected), withVars(Quadratic, vars))
}

func withVars(kind Tag, vars []Tag) TagSet {
	if len(vars) == 0 {
		return NewTagSet(kind, Continuous)
	}
	return NewTagSet(append([]Tag{kind}, vars...)...)
}

// HasSolvers reports whether the description lists solvers.
func (m *Model) HasSolvers() bool {
	return m.description != nil && m.description.Solvers != nil
}

// Solvers returns the solvers the model is validated against.
func (m *Model) Solvers() ([]string, error) {
	if m.description == nil {
		return nil, ErrMissingDescription
	}
	if m.description.Solvers == nil {
		return nil, fmt.Errorf("%w: solvers", ErrMissingKey)
	}
	return slices.Clone(m.description.Solvers), nil
}

// HasOptions reports whether the description carries solver options.
func (m *Model) HasOptions() bool {
	return m.description != nil && m.description.Options != nil
}

// Options returns the option overrides. Check HasOptions first.
func (m *Model) Options() (map[string]string, error) {
	if m.description == nil {
		return nil, ErrMissingDescription
	}
	if m.description.Options == nil {
		return nil, fmt.Errorf("%w: options", ErrMissingKey)
	}
	return maps.Clone(m.description.Options), nil
}

// HasExpectedValues reports whether the description carries expected values.
func (m *Model) HasExpectedValues() bool {
	return m.description != nil && m.description.Values != nil
}

// ExpectedValues returns the expected non-objective values. Check HasExpectedValues first.
func (m *Model) ExpectedValues() (map[string]any, error) {
	if m.description == nil {
		return nil, ErrMissingDescription
	}
	if m.description.Values == nil {
		return nil, fmt.Errorf("%w: values", ErrMissingKey)
	}
	return maps.Clone(m.description.Values), nil
}

// ExpectedObjective returns the expected objective, nil if none was given.
func (m *Model) ExpectedObjective() *float64 {
	if m.expected == nil {
		return nil
	}
	v := *m.expected
	return &v
}

// Name returns the display name.
func (m *Model) Name() string { return m.name }

// IsNL reports whether the model file is in NL format.
func (m *Model) IsNL() bool {
	return strings.ToLower(suffix(m.filename)) == ".nl"
}

// FilePath returns the model file path.
func (m *Model) FilePath() string { return m.filename }

// SolFilePath returns the model file path with its extension replaced by ".sol".
func (m *Model) SolFilePath() string {
	return strings.TrimSuffix(m.filename, suffix(m.filename)) + ".sol"
}

// AdditionalFiles returns the auxiliary files, nil when there are none.
func (m *Model) AdditionalFiles() []string {
	return slices.Clone(m.otherFiles)
}

// Tags returns a copy of the model's tags.
func (m *Model) Tags() TagSet { return m.tags.Clone() }

// HasTag reports whether the model carries t.
func (m *Model) HasTag(t Tag) bool { return m.tags.Has(t) }

// HasAnyTag reports whether the model carries at least one tag of tags.
// A nil set never matches.
func (m *Model) HasAnyTag(tags TagSet) bool {
	if tags == nil {
		return false
	}
	for t := range tags {
		if m.HasTag(t) {
			return true
		}
	}
	return false
}

// IsSubsetOfTags reports whether every tag of the model is in tags,
// typically the feature set a solver supports. A nil set never matches;
// a model without tags matches any non-nil set.
func (m *Model) IsSubsetOfTags(tags TagSet) bool {
	if tags == nil {
		return false
	}
	for t := range m.tags {
		if !tags.Has(t) {
			return false
		}
	}
	return true
}

// IsScript reports whether the model is an AMPL script rather than a model file.
func (m *Model) IsScript() bool { return m.HasTag(Script) }

func (m *Model) String() string {
	return fmt.Sprintf("%s (%s) %v", m.name, m.filename, m.tags.Names())
}

// normalizePath drops "." segments and repeated or trailing separators.
// ".." segments are kept.
func normalizePath(path string) string {
	if path == "" {
		return ""
	}
	slashed := filepath.ToSlash(path)
	parts := make([]string, 0, strings.Count(slashed, "/")+1)
	for _, part := range strings.Split(slashed, "/") {
		if part != "" && part != "." {
			parts = append(parts, part)
		}
	}
	out := strings.Join(parts, "/")
	if strings.HasPrefix(slashed, "/") {
		out = "/" + out
	}
	if out == "" {
		out = "."
	}
	return filepath.FromSlash(out)
}

// suffix returns the final extension of the path's last element.
// A leading dot alone does not start an extension, nor does a trailing one.
func suffix(path string) string {
	base := filepath.Base(path)
	i := strings.LastIndex(base, ".")
	if i <= 0 || i == len(base)-1 {
		return ""
	}
	return base[i:]
}

// stem returns the last path element without its final extension.
func stem(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, suffix(path))
}
