package calculator

import (
	"context"
	"errors"
	"fmt"

	"github.com/leofalp/llmstream/core/cost"
	"github.com/leofalp/llmstream/providers/tool"
)

// ErrDivisionByZero is returned for a division whose divisor is zero.
var ErrDivisionByZero = errors.New("division by zero")

// New returns a calculator [tool.Tool]. It runs in-process and is free.
func New() *tool.Tool[Input, Output] {
	return tool.New(
		"calculator",
		Calc,
		tool.WithDescription("Performs one arithmetic operation (add, sub, mul, div) on two numbers."),
		tool.WithCost(cost.ToolCost{Currency: "USD", Description: "local computation"}),
	)
}

// Calc applies req.Op to req.A and req.B. Supported operations are
// "add"/"+", "sub"/"-", "mul"/"*" and "div"/"/".
//
//	result, _ := calculator.Calc(ctx, calculator.Input{A: 10, B: 4, Op: "div"})
//	fmt.Println(result.Result) // 2.5
func Calc(_ context.Context, req Input) (Output, error) {
	switch req.Op {
	case "add", "+":
		return Output{Result: req.A + req.B}, nil
	case "sub", "-":
		return Output{Result: req.A - req.B}, nil
	case "mul", "*":
		return Output{Result: req.A * req.B}, nil
	case "div", "/":
		if req.B == 0 {
			return Output{}, ErrDivisionByZero
		}
		return Output{Result: req.A / req.B}, nil
	default:
		return Output{}, fmt.Errorf("unsupported operation %q", req.Op)
	}
}

// Input holds the two operands and the operation applied by [Calc].
type Input struct {
	A  float64 `json:"a" jsonschema:"description=First operand,required"`
	B  float64 `json:"b" jsonschema:"description=Second operand,required"`
	Op string  `json:"op" jsonschema:"description=Operation,enum=add,enum=sub,enum=mul,enum=div,required"`
}

// Output carries the result of [Calc].
type Output struct {
	Result float64 `json:"result" jsonschema:"description=The result of the calculation"`
}
