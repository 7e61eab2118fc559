package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const (
	// GroqKey is the variable users put their Groq key in
	GroqKey = "GROQ_KEY"
	// AgnoKey is the variable users put their Agno key in
	AgnoKey = "AGNO_KEY"
	// GroqAPIKey is the variable read by the Groq chat provider
	GroqAPIKey = "GROQ_API_KEY"
	// PhiAPIKey is the variable read by the agent monitoring platform
	PhiAPIKey = "PHI_API_KEY"
)

// Env is the process environment
type Env interface {
	Getenv(key string) string
	Setenv(key, value string) error
}

type osEnv struct{}

func (osEnv) Getenv(key string) string {
	return os.Getenv(key)
}

func (osEnv) Setenv(key, value string) error {
	return os.Setenv(key, value)
}

// OSEnv returns the real process environment
func OSEnv() Env {
	return osEnv{}
}

// MapEnv is an in-memory Env
type MapEnv map[string]string

func (m MapEnv) Getenv(key string) string {
	return m[key]
}

func (m MapEnv) Setenv(key, value string) error {
	m[key] = value
	return nil
}

// LoadEnv loads .env files into the process environment. Missing files are skipped.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// ExportCredentials copies the user facing keys to the names the providers read.
// A missing source key leaves the target untouched.
func ExportCredentials(env Env) error {
	for src, dist := range map[string]string{
		GroqKey: GroqAPIKey,
		AgnoKey: PhiAPIKey,
	} {
		v := env.Getenv(src)
		if v == "" {
			continue
		}
		if err := env.Setenv(dist, v); err != nil {
			return err
		}
	}
	return nil
}

// CredentialStatus returns one status line per exported key
func CredentialStatus(env Env) []string {
	ret := make([]string, 0, 2)
	if env.Getenv(GroqAPIKey) != "" {
		ret = append(ret, "Groq API key set!")
	} else {
		ret = append(ret, "Groq API key not set")
	}
	if env.Getenv(PhiAPIKey) != "" {
		ret = append(ret, "Agno API key set!")
	} else {
		ret = append(ret, "Phi API key not set")
	}
	return ret
}
