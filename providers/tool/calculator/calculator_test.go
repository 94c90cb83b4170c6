package calculator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalc(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		a, b     float64
		expected float64
	}{
		{"add keyword", "add", 3, 4, 7},
		{"plus symbol", "+", 1.5, 2.5, 4},
		{"sub keyword", "sub", 10, 3, 7},
		{"minus symbol", "-", 3, 10, -7},
		{"mul keyword", "mul", 6, 7, 42},
		{"times symbol", "*", -2, 3, -6},
		{"div keyword", "div", 10, 4, 2.5},
		{"slash symbol", "/", 9, 3, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			output, err := Calc(context.Background(), Input{A: tc.a, B: tc.b, Op: tc.op})
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, output.Result, 1e-9)
		})
	}
}

func TestCalc_Errors(t *testing.T) {
	_, err := Calc(context.Background(), Input{A: 1, B: 0, Op: "div"})
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = Calc(context.Background(), Input{A: 1, B: 2, Op: "pow"})
	assert.ErrorContains(t, err, `unsupported operation "pow"`)
}

func TestNew_HandlesModelArguments(t *testing.T) {
	calculator := New()

	definition := calculator.Definition()
	assert.Equal(t, "calculator", definition.Name)
	require.NotNil(t, definition.Parameters)
	assert.ElementsMatch(t, []string{"a", "b", "op"}, definition.Parameters.Required)
	require.NotNil(t, calculator.Cost())
	assert.Zero(t, calculator.Cost().Amount)

	output, err := calculator.Handle(context.Background(), map[string]any{"a": 6.0, "b": 7, "op": "mul"})
	require.NoError(t, err)
	assert.Equal(t, Output{Result: 42}, output)
}
