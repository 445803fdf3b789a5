package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrMismatch is wrapped by every failed comparison against expected results.
var ErrMismatch = errors.New("result differs from expected")

// withinTolerance compares with tol relative to max(1, |want|).
func withinTolerance(got, want, tol float64) bool {
	return math.Abs(got-want) <= tol*math.Max(1, math.Abs(want))
}

// CheckObjective compares the obtained objective with the expected one.
// A model without expected objective always passes.
func CheckObjective(expected, got *float64, tol float64) error {
	if expected == nil {
		return nil
	}
	if got == nil {
		return fmt.Errorf("%w: no objective reported, expected %g", ErrMismatch, *expected)
	}
	if !withinTolerance(*got, *expected, tol) {
		return fmt.Errorf("%w: objective %g, expected %g", ErrMismatch, *got, *expected)
	}
	return nil
}

// CheckValues compares reported values with the expected ones. Numbers are
// compared with tol, anything else by its string form. Every mismatch is
// listed in the error.
func CheckValues(expected map[string]any, got map[string]string, tol float64) error {
	names := make([]string, 0, len(expected))
	for name := range expected {
		names = append(names, name)
	}
	sort.Strings(names)

	var problems []string
	for _, name := range names {
		want := expected[name]
		value, ok := got[name]
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: not reported", name))
			continue
		}
		if wantNum, isNum := toFloat(want); isNum {
			gotNum, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil || !withinTolerance(gotNum, wantNum, tol) {
				problems = append(problems, fmt.Sprintf("%s: got %s, expected %g", name, value, wantNum))
			}
			continue
		}
		if strings.TrimSpace(value) != fmt.Sprint(want) {
			problems = append(problems, fmt.Sprintf("%s: got %q, expected %q", name, value, fmt.Sprint(want)))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrMismatch, strings.Join(problems, "; "))
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
