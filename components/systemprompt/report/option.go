package report

import "github.com/bububa/finagents/components/systemprompt"

type Option = func(g *Generator)

// WithDescription set the agent description
func WithDescription(description string) Option {
	return func(g *Generator) {
		g.description = description
	}
}

// WithInstructions set the agent instructions
func WithInstructions(instructions ...string) Option {
	return func(g *Generator) {
		g.instructions = instructions
	}
}

// WithExpectedOutput set the expected output template
func WithExpectedOutput(expectedOutput string) Option {
	return func(g *Generator) {
		g.expectedOutput = expectedOutput
	}
}

// WithMarkdown asks the model to format answers with markdown
func WithMarkdown(markdown bool) Option {
	return func(g *Generator) {
		g.markdown = markdown
	}
}

// WithContextProviders set Generator context pproviders
func WithContextProviders(providers ...systemprompt.ContextProvider) Option {
	return func(g *Generator) {
		g.AddContextProviders(providers...)
	}
}
