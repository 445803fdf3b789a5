/*
PURPOSE:
  Defines the closed set of model tags used to describe test models.
  Tags cover modeling features, execution mode, driver features,
  piecewise-linear approximation checks and solver-specific setups.

REQUIREMENTS:
  User-specified:
  - Every tag has a stable numeric id and a catalog name.
  - Catalog names convert to tags; an unknown name is an error, never skipped.

  Implementation-discovered:
  - Tags are always held in a set (TagSet), even when a model has one tag.
  - Config files and model lists decode tag names straight into a TagSet.

ARCHITECTURE INTEGRATION:
  - Used by: internal/model (Model), internal/catalog, internal/config, internal/engine
  - Dependencies: gopkg.in/yaml.v3 (TagSet codec)

ERROR HANDLING:
  - ParseTag/FromNames return *UnknownTagError, which matches ErrUnknownTag.

IMPLEMENTATION RULES:
  - Never renumber an existing tag. Ids are shared with the catalog files.
  - New tags go into tagNames AND the constant block.

USAGE:
  tags, err := model.FromNames([]string{"linear", "integer"})
  if tags.Has(model.Integer) { ... }

SELF-HEALING INSTRUCTIONS:
  - If a catalog fails with "unknown model tag", check the spelling against `solver-runner tags`.

RELATED FILES:
  - internal/model/model.go

MAINTENANCE:
  - Update when drivers gain new testable features.
*/

package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Tag is a named category describing a modeling feature, a required driver
// capability or an execution mode. The numeric value is the stable id.
type Tag int

const (
	NA Tag = 0

	// Modeling features
	Linear             Tag = 1
	Quadratic          Tag = 2
	QuadraticNonconvex Tag = 3
	SOCP               Tag = 4
	Nonlinear          Tag = 5
	Complementarity    Tag = 6
	Arc                Tag = 7
	PLinear            Tag = 8 // native handling of pl constraints

	Continuous Tag = 10
	Integer    Tag = 11
	Binary     Tag = 12 // display only, AMPL does not distinguish binaries

	Logical    Tag = 13
	Polynomial Tag = 14

	Trigonometric  Tag = 100
	HTrigonometric Tag = 101
	Log            Tag = 102

	// Execution mode
	Script Tag = 1000

	// Driver features
	Unbdd        Tag = 10001
	ReturnMIPGap Tag = 10002
	Sens         Tag = 10003
	LazyUserCuts Tag = 10004
	SOS          Tag = 10005
	PreSOSEnc    Tag = 10006
	FuncPieces   Tag = 10007

	Relax     Tag = 20006
	WarmStart Tag = 20007
	MIPStart  Tag = 20008

	MultiObj    Tag = 30009
	ObjPriority Tag = 30010

	MultiSol  Tag = 40011
	SStatus   Tag = 40012 // basis I/O
	IIS       Tag = 40013
	IISForce  Tag = 40014
	FeasRelax Tag = 40100

	// Solvers accepting general nonlinear constraints natively can still
	// test the own pl approximation through acc:exp and friends.
	CheckPLApproxExp Tag = 50000
	CheckPLApproxLog Tag = 50001

	// Solvers accepting PL constraints that want to test PL -> SOS2 (acc:pl=1).
	CheckPL2SOS2 Tag = 50500

	// Solver-specific
	GurobiCloud  Tag = 100000
	GurobiServer Tag = 100001
)

var tagNames = map[Tag]string{
	NA:                 "NA",
	Linear:             "linear",
	Quadratic:          "quadratic",
	QuadraticNonconvex: "quadraticnonconvex",
	SOCP:               "socp",
	Nonlinear:          "nonlinear",
	Complementarity:    "complementarity",
	Arc:                "arc",
	PLinear:            "plinear",
	Continuous:         "continuous",
	Integer:            "integer",
	Binary:             "binary",
	Logical:            "logical",
	Polynomial:         "polynomial",
	Trigonometric:      "trigonometric",
	HTrigonometric:     "htrigonometric",
	Log:                "log",
	Script:             "script",
	Unbdd:              "unbdd",
	ReturnMIPGap:       "return_mipgap",
	Sens:               "sens",
	LazyUserCuts:       "lazy_user_cuts",
	SOS:                "sos",
	PreSOSEnc:          "presosenc",
	FuncPieces:         "funcpieces",
	Relax:              "relax",
	WarmStart:          "warmstart",
	MIPStart:           "mipstart",
	MultiObj:           "multiobj",
	ObjPriority:        "obj_priority",
	MultiSol:           "multisol",
	SStatus:            "sstatus",
	IIS:                "iis",
	IISForce:           "iisforce",
	FeasRelax:          "feasrelax",
	CheckPLApproxExp:   "check_pl_approx_exp",
	CheckPLApproxLog:   "check_pl_approx_log",
	CheckPL2SOS2:       "check_pl2sos2",
	GurobiCloud:        "gurobi_cloud",
	GurobiServer:       "gurobi_server",
}

var tagsByName = func() map[string]Tag {
	m := make(map[string]Tag, len(tagNames))
	for t, n := range tagNames {
		m[n] = t
	}
	return m
}()

// TagGroup classifies a tag by what it describes.
type TagGroup string

const (
	GroupNotApplicable TagGroup = "not-applicable"
	GroupModeling      TagGroup = "modeling"
	GroupExecution     TagGroup = "execution"
	GroupDriver        TagGroup = "driver"
	GroupPLApprox      TagGroup = "pl-approx"
	GroupSolver        TagGroup = "solver"
)

// ErrUnknownTag is matched by every tag lookup failure.
var ErrUnknownTag = errors.New("unknown model tag")

// UnknownTagError reports the name that failed to resolve.
type UnknownTagError struct {
	Name string
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownTag, e.Name)
}

func (e *UnknownTagError) Is(target error) bool {
	return target == ErrUnknownTag
}

// String returns the catalog name of the tag.
func (t Tag) String() string {
	if n, ok := tagNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

// ID returns the stable numeric identifier.
func (t Tag) ID() int { return int(t) }

// Valid reports whether t is a member of the enumeration.
func (t Tag) Valid() bool {
	_, ok := tagNames[t]
	return ok
}

// Group returns the category the tag belongs to.
func (t Tag) Group() TagGroup {
	switch {
	case t == NA:
		return GroupNotApplicable
	case t < Script:
		return GroupModeling
	case t == Script:
		return GroupExecution
	case t < CheckPLApproxExp:
		return GroupDriver
	case t < GurobiCloud:
		return GroupPLApprox
	default:
		return GroupSolver
	}
}

// ParseTag resolves a single catalog name.
func ParseTag(name string) (Tag, error) {
	t, ok := tagsByName[name]
	if !ok {
		return NA, &UnknownTagError{Name: name}
	}
	return t, nil
}

// FromNames converts catalog names into a set of tags.
// It fails on the first name that is not a known tag.
func FromNames(names []string) (TagSet, error) {
	set := NewTagSet()
	for _, n := range names {
		t, err := ParseTag(n)
		if err != nil {
			return nil, err
		}
		set[t] = struct{}{}
	}
	return set, nil
}

// AllTags returns every tag ordered by id.
func AllTags() []Tag {
	all := make([]Tag, 0, len(tagNames))
	for t := range tagNames {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	return all
}

// TagSet is an unordered set of tags. A nil TagSet stands for "no set given"
// and is treated differently from an empty one by the Model predicates.
type TagSet map[Tag]struct{}

// NewTagSet returns a non-nil set holding tags.
func NewTagSet(tags ...Tag) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s TagSet) Has(t Tag) bool {
	_, ok := s[t]
	return ok
}

// Len returns the number of distinct tags.
func (s TagSet) Len() int { return len(s) }

// Sorted returns the members ordered by id.
func (s TagSet) Sorted() []Tag {
	out := make([]Tag, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Names returns the catalog names ordered by id.
func (s TagSet) Names() []string {
	sorted := s.Sorted()
	names := make([]string, len(sorted))
	for i, t := range sorted {
		names[i] = t.String()
	}
	return names
}

// Clone returns a copy; cloning nil gives nil.
func (s TagSet) Clone() TagSet {
	if s == nil {
		return nil
	}
	c := make(TagSet, len(s))
	for t := range s {
		c[t] = struct{}{}
	}
	return c
}

// Union returns a new set with the members of both.
func (s TagSet) Union(other TagSet) TagSet {
	u := make(TagSet, len(s)+len(other))
	for t := range s {
		u[t] = struct{}{}
	}
	for t := range other {
		u[t] = struct{}{}
	}
	return u
}

// Intersect returns a new set with the members present in both.
func (s TagSet) Intersect(other TagSet) TagSet {
	out := make(TagSet)
	for t := range s {
		if other.Has(t) {
			out[t] = struct{}{}
		}
	}
	return out
}

// Equal reports whether both sets have the same members.
func (s TagSet) Equal(other TagSet) bool {
	if len(s) != len(other) {
		return false
	}
	for t := range s {
		if !other.Has(t) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as a list of names.
func (s TagSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// UnmarshalJSON accepts a list of names, a single name or null.
func (s *TagSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = NewTagSet()
		return nil
	}
	var names []string
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		names = []string{name}
	} else if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("tags must be a list of names: %w", err)
	}
	set, err := FromNames(names)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

// MarshalYAML encodes the set as a list of names.
func (s TagSet) MarshalYAML() (interface{}, error) {
	return s.Names(), nil
}

// UnmarshalYAML accepts a list of names or a single name.
func (s *TagSet) UnmarshalYAML(node *yaml.Node) error {
	var names []string
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*s = NewTagSet()
			return nil
		}
		names = []string{node.Value}
	default:
		if err := node.Decode(&names); err != nil {
			return fmt.Errorf("tags must be a list of names (line %d): %w", node.Line, err)
		}
	}
	set, err := FromNames(names)
	if err != nil {
		return err
	}
	*s = set
	return nil
}
