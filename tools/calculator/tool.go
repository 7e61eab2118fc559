package calculator

import (
	"context"

	"github.com/Knetic/govaluate"

	"github.com/bububa/finagents/tools"
)

const (
	Name        = "calculate"
	Description = "Evaluate a mathematical expression, for example '(412.3 - 370.1) / 370.1 * 100'. Supports + - * / ** %, comparisons, the constants pi and e, and the functions abs, sqrt, exp, ln, log10, floor, ceil, round, sin, cos, tan, pow, min, max and pct(from, to)."
)

// Input Tool for performing calculations. Supports basic arithmetic operations
// like addition, subtraction, multiplication, and division, as well as more
// complex operations like exponentiation and trigonometric functions.
type Input struct {
	// Expression Mathematical expression to evaluate. For example, '2 + 2'.
	Expression string `json:"expression" jsonschema:"title=expression,description=Mathematical expression to evaluate. For example '2 + 2'." validate:"required"`
	// Params represents expressions's parameters
	Params map[string]float64 `json:"params,omitempty" jsonschema:"title=params,description=Named numeric parameters used in the expression."`
}

func NewInput(exp string, params map[string]float64) *Input {
	return &Input{
		Expression: exp,
		Params:     params,
	}
}

// Output Schema for the output of the calculator
type Output struct {
	Expression string `json:"expression"`
	// Result Result of the calculation
	Result interface{} `json:"result"`
}

// New returns the calculate tool
func New(opts ...tools.Option) *tools.Function[Input, Output] {
	return tools.NewFunction(Name, Description, Run, opts...)
}

// Run evaluates the expression
func Run(ctx context.Context, input *Input) (Output, error) {
	exp, err := govaluate.NewEvaluableExpressionWithFunctions(input.Expression, Functions)
	if err != nil {
		return Output{}, err
	}
	params := make(map[string]interface{}, len(input.Params)+len(constParams))
	for k, v := range input.Params {
		params[k] = v
	}
	for k, v := range constParams {
		if _, ok := params[k]; ok {
			continue
		}
		params[k] = v
	}
	result, err := exp.Evaluate(params)
	if err != nil {
		return Output{}, err
	}
	return Output{Expression: input.Expression, Result: result}, nil
}
