package tools

type Option func(c *Config)

func WithName(name string) Option {
	return func(c *Config) {
		c.SetName(name)
	}
}

func WithDescription(desc string) Option {
	return func(c *Config) {
		c.SetDescription(desc)
	}
}

func WithStartHook(fn StartHook) Option {
	return func(c *Config) {
		c.SetStartHook(fn)
	}
}

func WithEndHook(fn EndHook) Option {
	return func(c *Config) {
		c.SetEndHook(fn)
	}
}

func WithErrorHook(fn ErrorHook) Option {
	return func(c *Config) {
		c.SetErrorHook(fn)
	}
}
