package agents

import (
	"context"
	"errors"
	"io"

	"github.com/bububa/finagents/components"
)

// ErrEmptyChain is returned when a chain has no steps
var ErrEmptyChain = errors.New("empty chain")

// Step is one agent of a chain
type Step struct {
	Agent *Agent
	// Prompt builds the step query from the chain query and the previous answer.
	// Nil passes the previous answer, or the chain query for the first step.
	Prompt func(query string, previous string) string
	// NoStream prints the step answer once complete
	NoStream bool
}

func (s Step) prompt(query string, previous string, first bool) string {
	if s.Prompt != nil {
		return s.Prompt(query, previous)
	}
	if first {
		return query
	}
	return previous
}

// Chain runs agents in sequence, each one answering from the answer of the previous
type Chain struct {
	steps []Step
}

// NewChain returns a new Chain instance
func NewChain(steps ...Step) *Chain {
	return &Chain{
		steps: steps,
	}
}

// Run runs every step synchronously and returns the last answer with one response per step
func (c *Chain) Run(ctx context.Context, query string) (string, []*components.LLMResponse, error) {
	if len(c.steps) == 0 {
		return "", nil, ErrEmptyChain
	}
	var answer string
	ret := make([]*components.LLMResponse, 0, len(c.steps))
	for idx, step := range c.steps {
		out, resp, err := step.Agent.Run(ctx, step.prompt(query, answer, idx == 0))
		ret = append(ret, resp)
		if err != nil {
			return "", ret, err
		}
		answer = out
	}
	return answer, ret, nil
}

// PrintResponse prints every step answer to w and returns them in order
func (c *Chain) PrintResponse(ctx context.Context, w io.Writer, query string, stream bool) ([]string, error) {
	if len(c.steps) == 0 {
		return nil, ErrEmptyChain
	}
	var previous string
	ret := make([]string, 0, len(c.steps))
	for idx, step := range c.steps {
		out, err := step.Agent.PrintResponse(ctx, w, step.prompt(query, previous, idx == 0), stream && !step.NoStream)
		if err != nil {
			return ret, err
		}
		ret = append(ret, out)
		previous = out
	}
	return ret, nil
}
