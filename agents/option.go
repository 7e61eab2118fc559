package agents

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bububa/finagents/components"
	"github.com/bububa/finagents/components/systemprompt"
	"github.com/bububa/finagents/tools"
)

type Option func(c *Config)

func WithClient(clt ChatClient) Option {
	return func(c *Config) {
		c.client = clt
	}
}

func WithMemory(m *components.Memory) Option {
	return func(c *Config) {
		c.memory = m
	}
}

// WithSystemPromptGenerator replaces the prompt built from description, instructions and expected output
func WithSystemPromptGenerator(g systemprompt.Generator) Option {
	return func(c *Config) {
		c.systemPromptGenerator = g
	}
}

func WithModel(model string) Option {
	return func(c *Config) {
		c.model = model
	}
}

func WithTemperature(temperature float32) Option {
	return func(c *Config) {
		c.temperature = temperature
	}
}

func WithMaxTokens(maxTokens int) Option {
	return func(c *Config) {
		c.maxTokens = maxTokens
	}
}

// WithMaxToolRounds limits how many times tool results are sent back to the model
func WithMaxToolRounds(n int) Option {
	return func(c *Config) {
		c.maxToolRounds = n
	}
}

func WithName(name string) Option {
	return func(c *Config) {
		c.name = name
	}
}

func WithDescription(description string) Option {
	return func(c *Config) {
		c.description = description
	}
}

func WithInstructions(instructions ...string) Option {
	return func(c *Config) {
		c.instructions = instructions
	}
}

func WithExpectedOutput(expectedOutput string) Option {
	return func(c *Config) {
		c.expectedOutput = expectedOutput
	}
}

func WithMarkdown(markdown bool) Option {
	return func(c *Config) {
		c.markdown = markdown
	}
}

// WithDatetime adds the current time to the system prompt, a nil clock uses time.Now
func WithDatetime(clock func() time.Time) Option {
	return func(c *Config) {
		c.addDatetime = true
		c.clock = clock
	}
}

// WithShowToolCalls prints the tool calls while printing a response
func WithShowToolCalls(show bool) Option {
	return func(c *Config) {
		c.showToolCalls = show
	}
}

func WithTools(list ...tools.Tool) Option {
	return func(c *Config) {
		c.tools.Add(list...)
	}
}

func WithToolkits(kits ...tools.Toolkit) Option {
	return func(c *Config) {
		c.tools.AddToolkits(kits...)
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Config) {
		c.logger = l
	}
}

func WithStartHook(fn StartHook) Option {
	return func(c *Config) {
		c.startHook = fn
	}
}

func WithEndHook(fn EndHook) Option {
	return func(c *Config) {
		c.endHook = fn
	}
}

func WithErrorHook(fn ErrorHook) Option {
	return func(c *Config) {
		c.errorHook = fn
	}
}
