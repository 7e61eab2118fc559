package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

// ErrUnknownTool is returned when the model calls a function that is not registered
var ErrUnknownTool = errors.New("unknown tool")

// Tool is a function the model can call
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON schema of the function arguments
	Parameters() any
	// Call runs the function with JSON encoded arguments and returns the text sent back to the model
	Call(ctx context.Context, arguments string) (string, error)
}

// Toolkit groups related tools
type Toolkit interface {
	Tools() []Tool
}

// List is a Toolkit made of standalone tools
type List []Tool

func (l List) Tools() []Tool {
	return l
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Function adapts a typed handler to a Tool. I must be a struct, its json and
// jsonschema tags describe the arguments.
type Function[I any, O any] struct {
	Config
	handler func(context.Context, *I) (O, error)
	schema  *jsonschema.Schema
}

var _ Tool = (*Function[struct{}, string])(nil)

// NewFunction returns a new Function
func NewFunction[I any, O any](name string, description string, handler func(context.Context, *I) (O, error), opts ...Option) *Function[I, O] {
	ret := &Function[I, O]{
		handler: handler,
		schema:  Schema(new(I)),
	}
	ret.SetName(name)
	ret.SetDescription(description)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	return ret
}

// Schema reflects the JSON schema of v inline, without $defs
func Schema(v any) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(v)
	s.Version = ""
	s.ID = ""
	return s
}

func (f *Function[I, O]) Parameters() any {
	return f.schema
}

// Run decodes and validates the arguments then executes the handler
func (f *Function[I, O]) Run(ctx context.Context, arguments string) (O, error) {
	var (
		input I
		ret   O
	)
	if args := strings.TrimSpace(arguments); args != "" && args != "null" {
		if err := json.Unmarshal([]byte(args), &input); err != nil {
			return ret, fmt.Errorf("invalid arguments for %s: %w", f.Name(), err)
		}
	}
	if err := validate.Struct(&input); err != nil {
		var invalid *validator.InvalidValidationError
		if !errors.As(err, &invalid) {
			return ret, fmt.Errorf("invalid arguments for %s: %w", f.Name(), err)
		}
	}
	return f.handler(ctx, &input)
}

func (f *Function[I, O]) Call(ctx context.Context, arguments string) (string, error) {
	if f.startHook != nil {
		f.startHook(ctx, f, arguments)
	}
	out, err := f.Run(ctx, arguments)
	if err != nil {
		if f.errorHook != nil {
			f.errorHook(ctx, f, arguments, err)
		}
		return "", err
	}
	result, err := Stringify(out)
	if err != nil {
		if f.errorHook != nil {
			f.errorHook(ctx, f, arguments, err)
		}
		return "", err
	}
	if f.endHook != nil {
		f.endHook(ctx, f, arguments, result)
	}
	return result, nil
}

// Stringify renders a tool result as text for the model
func Stringify(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case fmt.Stringer:
		return t.String(), nil
	}
	bs, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(bs), nil
}
