package vectordb

// DefaultTopK results returned when neither the engine nor the search sets a limit
const DefaultTopK = 5

type Options struct {
	EngineType EngineType
	// TopK maximum number of results, overridden per search
	TopK int
	// Dimension vector dimension, required by engines with a fixed column size
	Dimension int
}

type Option func(*Options)

func WithEngine(engine EngineType) Option {
	return func(c *Options) {
		c.EngineType = engine
	}
}

func WithTopK(k int) Option {
	return func(c *Options) {
		c.TopK = k
	}
}

// WithDimension must match the embedding model, 1536 for text-embedding-3-small
func WithDimension(dimension int) Option {
	return func(c *Options) {
		c.Dimension = dimension
	}
}

// Limit returns the result limit for a search
func (o Options) Limit(s *SearchOptions) int {
	switch {
	case s.TopK > 0:
		return s.TopK
	case o.TopK > 0:
		return o.TopK
	default:
		return DefaultTopK
	}
}
