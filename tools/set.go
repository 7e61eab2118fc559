package tools

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Set is an ordered collection of tools addressed by name
type Set struct {
	list  []Tool
	index map[string]int
}

// NewSet returns a Set holding the given tools; later tools replace earlier ones with the same name
func NewSet(list ...Tool) *Set {
	ret := &Set{index: make(map[string]int, len(list))}
	ret.Add(list...)
	return ret
}

// Add registers tools
func (s *Set) Add(list ...Tool) {
	for _, t := range list {
		if idx, found := s.index[t.Name()]; found {
			s.list[idx] = t
			continue
		}
		s.index[t.Name()] = len(s.list)
		s.list = append(s.list, t)
	}
}

// AddToolkits registers every tool of the toolkits
func (s *Set) AddToolkits(kits ...Toolkit) {
	for _, kit := range kits {
		s.Add(kit.Tools()...)
	}
}

// Get returns the tool registered under name
func (s *Set) Get(name string) (Tool, bool) {
	idx, found := s.index[name]
	if !found {
		return nil, false
	}
	return s.list[idx], true
}

// Len returns the number of tools
func (s *Set) Len() int {
	return len(s.list)
}

// Tools returns the registered tools in registration order
func (s *Set) Tools() []Tool {
	return s.list
}

// Call runs the named tool
func (s *Set) Call(ctx context.Context, name string, arguments string) (string, error) {
	t, found := s.Get(name)
	if !found {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t.Call(ctx, arguments)
}

// OpenAI returns the function definitions sent with a chat request
func (s *Set) OpenAI() []openai.Tool {
	if len(s.list) == 0 {
		return nil
	}
	ret := make([]openai.Tool, 0, len(s.list))
	for _, t := range s.list {
		ret = append(ret, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return ret
}
