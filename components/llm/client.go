package llm

import (
	"net/http"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/bububa/finagents/config"
)

const (
	GroqBaseURL   = "https://api.groq.com/openai/v1"
	OpenAIBaseURL = "https://api.openai.com/v1"
)

// Option customizes the OpenAI compatible client
type Option func(cfg *openai.ClientConfig)

// WithHTTPClient set the http client used for requests
func WithHTTPClient(clt *http.Client) Option {
	return func(cfg *openai.ClientConfig) {
		cfg.HTTPClient = clt
	}
}

// WithAPIKey overrides the key read from the environment
func WithAPIKey(key string) Option {
	return func(cfg *openai.ClientConfig) {
		cfg.AuthToken = key
	}
}

// BaseURL returns the endpoint for a provider, falling back to the well known
// url of groq and openai.
func BaseURL(p config.Provider) string {
	if p.BaseURL != "" {
		return p.BaseURL
	}
	switch p.Name {
	case "openai":
		return OpenAIBaseURL
	default:
		return GroqBaseURL
	}
}

// NewClient returns an OpenAI compatible chat client for the provider
func NewClient(p config.Provider, opts ...Option) *openai.Client {
	cfg := openai.DefaultConfig(os.Getenv(p.APIKeyEnv))
	cfg.BaseURL = BaseURL(p)
	for _, opt := range opts {
		opt(&cfg)
	}
	return openai.NewClientWithConfig(cfg)
}
