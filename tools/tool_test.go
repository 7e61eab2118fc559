package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoInput struct {
	Symbol string `json:"symbol" jsonschema:"description=The stock symbol." validate:"required"`
	Limit  int    `json:"limit,omitempty" jsonschema:"description=Number of items." validate:"gte=0"`
}

type echoOutput struct {
	Symbol string `json:"symbol"`
	Limit  int    `json:"limit"`
}

func newEcho(opts ...Option) *Function[echoInput, echoOutput] {
	return NewFunction("echo", "Echo the arguments.", func(ctx context.Context, in *echoInput) (echoOutput, error) {
		return echoOutput{Symbol: in.Symbol, Limit: in.Limit}, nil
	}, opts...)
}

func TestFunctionCall(t *testing.T) {
	var started, ended string
	fn := newEcho(
		WithStartHook(func(ctx context.Context, tool Tool, args string) { started = tool.Name() }),
		WithEndHook(func(ctx context.Context, tool Tool, args string, result string) { ended = result }),
	)
	ret, err := fn.Call(context.Background(), `{"symbol":"NVDA","limit":3}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"symbol":"NVDA","limit":3}`, ret)
	assert.Equal(t, "echo", started)
	assert.Equal(t, ret, ended)
}

func TestFunctionValidation(t *testing.T) {
	var hooked error
	fn := newEcho(WithErrorHook(func(ctx context.Context, tool Tool, args string, err error) { hooked = err }))
	_, err := fn.Call(context.Background(), `{"limit":3}`)
	require.Error(t, err)
	assert.Equal(t, err, hooked)
	_, err = fn.Call(context.Background(), `{"symbol":`)
	assert.ErrorContains(t, err, "invalid arguments for echo")
}

func TestFunctionParameters(t *testing.T) {
	bs, err := json.Marshal(newEcho().Parameters())
	require.NoError(t, err)
	var schema map[string]any
	require.NoError(t, json.Unmarshal(bs, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.NotContains(t, schema, "$schema")
	assert.NotContains(t, schema, "$defs")
	props := schema["properties"].(map[string]any)
	assert.Contains(t, props, "symbol")
	assert.Contains(t, props, "limit")
	assert.Equal(t, []any{"symbol"}, schema["required"])
}

func TestSet(t *testing.T) {
	set := NewSet(newEcho(), NewFunction("upper", "", func(ctx context.Context, in *echoInput) (string, error) {
		return in.Symbol, nil
	}))
	assert.Equal(t, 2, set.Len())
	defs := set.OpenAI()
	require.Len(t, defs, 2)
	assert.Equal(t, "echo", defs[0].Function.Name)
	ret, err := set.Call(context.Background(), "upper", `{"symbol":"MSFT"}`)
	require.NoError(t, err)
	assert.Equal(t, "MSFT", ret)
	_, err = set.Call(context.Background(), "missing", "{}")
	assert.True(t, errors.Is(err, ErrUnknownTool))
	assert.Nil(t, NewSet().OpenAI())
}
