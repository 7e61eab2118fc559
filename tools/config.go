package tools

import "context"

type (
	StartHook func(ctx context.Context, tool Tool, arguments string)
	EndHook   func(ctx context.Context, tool Tool, arguments string, result string)
	ErrorHook func(ctx context.Context, tool Tool, arguments string, err error)
)

// Config is the name, description and hooks shared by every tool
type Config struct {
	// name the function name exposed to the model
	name string
	// description the function description exposed to the model
	description string
	startHook   StartHook
	endHook     EndHook
	errorHook   ErrorHook
}

func (c *Config) SetName(v string) {
	c.name = v
}

func (c Config) Name() string {
	return c.name
}

func (c *Config) SetDescription(v string) {
	c.description = v
}

func (c Config) Description() string {
	return c.description
}

func (c *Config) SetStartHook(fn StartHook) {
	c.startHook = fn
}

func (c *Config) SetEndHook(fn EndHook) {
	c.endHook = fn
}

func (c *Config) SetErrorHook(fn ErrorHook) {
	c.errorHook = fn
}
