package components

import (
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ToolCall is a function call requested by the model
type ToolCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// String renders the call as name(arguments)
func (c ToolCall) String() string {
	return fmt.Sprintf("%s(%s)", c.Name, strings.TrimSpace(c.Arguments))
}

func ToolCallsToOpenAI(src []ToolCall) []openai.ToolCall {
	list := make([]openai.ToolCall, 0, len(src))
	for _, v := range src {
		list = append(list, openai.ToolCall{
			ID:   v.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      v.Name,
				Arguments: v.Arguments,
			},
		})
	}
	return list
}

func ToolCallsFromOpenAI(src []openai.ToolCall) []ToolCall {
	list := make([]ToolCall, 0, len(src))
	for _, v := range src {
		list = append(list, ToolCall{
			ID:        v.ID,
			Name:      v.Function.Name,
			Arguments: v.Function.Arguments,
		})
	}
	return list
}

// ToolCallback is the result of a tool call
type ToolCallback struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content,omitempty"`
	IsError bool   `json:"is_error,omitempty"`
}

// ToolCallAccumulator merges streamed tool call deltas by index
type ToolCallAccumulator struct {
	calls []ToolCall
}

// Add merges a streamed delta
func (a *ToolCallAccumulator) Add(delta openai.ToolCall) {
	idx := len(a.calls)
	if delta.Index != nil {
		idx = *delta.Index
	}
	for len(a.calls) <= idx {
		a.calls = append(a.calls, ToolCall{})
	}
	call := &a.calls[idx]
	if delta.ID != "" {
		call.ID = delta.ID
	}
	if delta.Function.Name != "" {
		call.Name += delta.Function.Name
	}
	call.Arguments += delta.Function.Arguments
}

// Calls returns the accumulated calls, skipping empty slots
func (a *ToolCallAccumulator) Calls() []ToolCall {
	ret := make([]ToolCall, 0, len(a.calls))
	for _, v := range a.calls {
		if v.Name == "" {
			continue
		}
		ret = append(ret, v)
	}
	return ret
}
