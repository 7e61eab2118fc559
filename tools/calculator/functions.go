package calculator

import (
	"fmt"
	"math"

	"github.com/Knetic/govaluate"
)

func unary(name string, fn func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s expects 1 argument, got %d", name, len(args))
		}
		v, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("%s expects a number", name)
		}
		return fn(v), nil
	}
}

func binary(name string, fn func(float64, float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("%s expects 2 arguments, got %d", name, len(args))
		}
		a, ok1 := args[0].(float64)
		b, ok2 := args[1].(float64)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%s expects numbers", name)
		}
		return fn(a, b), nil
	}
}

func variadic(name string, fn func(float64, float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("%s expects at least 1 argument", name)
		}
		var ret float64
		for idx, arg := range args {
			v, ok := arg.(float64)
			if !ok {
				return nil, fmt.Errorf("%s expects numbers", name)
			}
			if idx == 0 {
				ret = v
				continue
			}
			ret = fn(ret, v)
		}
		return ret, nil
	}
}

// Functions available inside expressions
var Functions = map[string]govaluate.ExpressionFunction{
	"abs":   unary("abs", math.Abs),
	"sqrt":  unary("sqrt", math.Sqrt),
	"exp":   unary("exp", math.Exp),
	"ln":    unary("ln", math.Log),
	"log10": unary("log10", math.Log10),
	"floor": unary("floor", math.Floor),
	"ceil":  unary("ceil", math.Ceil),
	"round": unary("round", math.Round),
	"sin":   unary("sin", math.Sin),
	"cos":   unary("cos", math.Cos),
	"tan":   unary("tan", math.Tan),
	"pow":   binary("pow", math.Pow),
	"min":   variadic("min", math.Min),
	"max":   variadic("max", math.Max),
	// pct returns the percentage change from a to b
	"pct": binary("pct", func(a, b float64) float64 {
		return (b - a) / a * 100
	}),
}
