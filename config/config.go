package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the finagents configuration
type Config struct {
	// Log logger settings
	Log LogConfig `yaml:"log"`
	// Models model ids for every agent
	Models ModelConfig `yaml:"models"`
	// Providers OpenAI compatible endpoints
	Providers ProviderConfig `yaml:"providers"`
	// Database pgvector connection and probe settings
	Database DatabaseConfig `yaml:"database" validate:"required"`
	// Container pgvector container settings
	Container ContainerConfig `yaml:"container"`
	// Tools tool plugin settings
	Tools ToolsConfig `yaml:"tools"`
}

// LogConfig logger settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// ModelConfig model ids
type ModelConfig struct {
	Research  string `yaml:"research" validate:"required"`
	Stock     string `yaml:"stock" validate:"required"`
	Evaluator string `yaml:"evaluator" validate:"required"`
	Embedding string `yaml:"embedding"`
}

// ProviderConfig OpenAI compatible endpoints
type ProviderConfig struct {
	// Chat provider used by every chat agent
	Chat Provider `yaml:"chat"`
	// Embedding provider used by the knowledge store
	Embedding Provider `yaml:"embedding"`
}

// Provider is an OpenAI compatible endpoint
type Provider struct {
	// Name provider name, groq, openai or custom
	Name string `yaml:"name" validate:"omitempty,oneof=groq openai custom"`
	// BaseURL overrides the provider default base url
	BaseURL string `yaml:"baseURL" validate:"omitempty,url"`
	// APIKeyEnv environment variable holding the api key
	APIKeyEnv string `yaml:"apiKeyEnv"`
}

// DatabaseConfig pgvector connection and probe settings
type DatabaseConfig struct {
	URL         string        `yaml:"url" validate:"required"`
	MaxRetries  int           `yaml:"maxRetries" validate:"gte=1"`
	Wait        time.Duration `yaml:"wait" validate:"gte=0"`
	InitialWait time.Duration `yaml:"initialWait" validate:"gte=0"`
	Collection  string        `yaml:"collection"`
	Table       string        `yaml:"table"`
}

// ContainerConfig pgvector container settings
type ContainerConfig struct {
	Binary  string `yaml:"binary"`
	Image   string `yaml:"image" validate:"required"`
	Name    string `yaml:"name" validate:"required"`
	DataDir string `yaml:"dataDir" validate:"required"`
	LogFile string `yaml:"logFile" validate:"required"`
	Port    int    `yaml:"port" validate:"gt=0,lt=65536"`
	DB      string `yaml:"db"`
	User    string `yaml:"user"`
	// Password is not validated, an empty password is passed through to the image
	Password string `yaml:"password"`
	// Clean removes a previous container with the same name before creating
	Clean bool `yaml:"clean"`
}

// ToolsConfig tool plugin settings
type ToolsConfig struct {
	MaxSearchResults int    `yaml:"maxSearchResults" validate:"gte=0"`
	ArticleLimit     int    `yaml:"articleLimit" validate:"gte=0"`
	UserAgent        string `yaml:"userAgent"`
}

// Default returns the Groq setup with the local pgvector container
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Models: ModelConfig{
			Research:  "llama-3.3-70b-versatile",
			Stock:     "llama-3.3-70b-versatile",
			Evaluator: "llama-3.1-8b-instant",
			Embedding: "text-embedding-3-small",
		},
		Providers: ProviderConfig{
			Chat:      Provider{Name: "groq", APIKeyEnv: GroqAPIKey},
			Embedding: Provider{Name: "openai", APIKeyEnv: "OPENAI_API_KEY"},
		},
		Database: DatabaseConfig{
			URL:         "postgres://ai:ai@localhost:5532/ai",
			MaxRetries:  5,
			Wait:        10 * time.Second,
			InitialWait: 30 * time.Second,
			Collection:  "financial_reports",
			Table:       "knowledge",
		},
		Container: ContainerConfig{
			Binary:   "docker",
			Image:    "ankane/pgvector",
			Name:     "pgvector",
			DataDir:  "pgdata",
			LogFile:  "postgres.log",
			Port:     5532,
			DB:       "ai",
			User:     "ai",
			Password: "ai",
		},
		Tools: ToolsConfig{
			MaxSearchResults: 5,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		bs, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read configuration file: %w", err)
		}
		if err := yaml.Unmarshal(bs, cfg); err != nil {
			return nil, fmt.Errorf("unable to parse configuration file: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration values
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			return fmt.Errorf("invalid configuration %s: %w", errs[0].Namespace(), err)
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
