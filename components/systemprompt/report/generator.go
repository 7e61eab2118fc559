package report

import (
	"fmt"
	"strings"

	"github.com/bububa/finagents/components/systemprompt"
)

const markdownInstruction = "Use markdown to format your answers."

// Generator renders a report agent system prompt: who the agent is, the steps it
// follows and the shape of the report it must produce.
type Generator struct {
	systemprompt.BaseGenerator
	description    string
	instructions   []string
	expectedOutput string
	markdown       bool
}

var _ systemprompt.Generator = (*Generator)(nil)

// New returns a new system prompt Generator
func New(options ...Option) *Generator {
	ret := new(Generator)
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

func (g *Generator) Generate() string {
	var promptParts []string
	if desc := strings.TrimSpace(g.description); desc != "" {
		promptParts = append(promptParts, desc, "")
	}
	var instructions []string
	for _, v := range g.instructions {
		if v = strings.TrimSpace(v); v != "" {
			instructions = append(instructions, v)
		}
	}
	switch len(instructions) {
	case 0:
	case 1:
		promptParts = append(promptParts, "# INSTRUCTIONS", instructions[0], "")
	default:
		promptParts = append(promptParts, "# INSTRUCTIONS")
		for _, v := range instructions {
			promptParts = append(promptParts, fmt.Sprintf("- %s", v))
		}
		promptParts = append(promptParts, "")
	}
	if out := strings.TrimSpace(g.expectedOutput); out != "" {
		promptParts = append(promptParts, "# EXPECTED OUTPUT", out, "")
	}
	if g.markdown {
		promptParts = append(promptParts, "# ADDITIONAL INFORMATION", fmt.Sprintf("- %s", markdownInstruction), "")
	}
	if providers := g.ContextProviders(); len(providers) > 0 {
		promptParts = append(promptParts, "# EXTRA INFORMATION AND CONTEXT")
		for _, provider := range providers {
			if info := provider.Info(); info != "" {
				promptParts = append(promptParts, fmt.Sprintf("## %s", provider.Title()), info, "")
			}
		}
	}
	return strings.TrimSpace(strings.Join(promptParts, "\n"))
}
