package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/solver-runner/internal/model"
)

func TestCheckObjective(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected *float64
		got      *float64
		wantErr  bool
	}{
		{"no expectation", nil, nil, false},
		{"no expectation, any value", nil, model.Objective(3), false},
		{"exact", model.Objective(88.2), model.Objective(88.2), false},
		{"relative tolerance", model.Objective(1e6), model.Objective(1e6 + 5), false},
		{"absolute tolerance near zero", model.Objective(0), model.Objective(5e-6), false},
		{"too far", model.Objective(1), model.Objective(1.001), true},
		{"not reported", model.Objective(1), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckObjective(tt.expected, tt.got, 1e-5)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMismatch)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCheckValues(t *testing.T) {
	t.Parallel()

	expected := map[string]any{
		"x[1]":         5,
		"y":            0.25,
		"solve_result": "solved",
	}

	require.NoError(t, CheckValues(expected, map[string]string{
		"x[1]":         "5.0000000000000009",
		"y":            "0.25",
		"solve_result": " solved",
	}, 1e-9))

	err := CheckValues(expected, map[string]string{
		"x[1]":         "4",
		"solve_result": "infeasible",
	}, 1e-9)
	require.ErrorIs(t, err, ErrMismatch)
	assert.Contains(t, err.Error(), "x[1]: got 4, expected 5")
	assert.Contains(t, err.Error(), "y: not reported")
	assert.Contains(t, err.Error(), `solve_result: got "infeasible", expected "solved"`)

	err = CheckValues(map[string]any{"z": 1.0}, map[string]string{"z": "abc"}, 1e-9)
	assert.ErrorIs(t, err, ErrMismatch)

	assert.NoError(t, CheckValues(nil, nil, 0))
}
