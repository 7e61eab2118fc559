package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/bububa/finagents/agents"
	"github.com/bububa/finagents/components/llm"
	"github.com/bububa/finagents/config"
	"github.com/bububa/finagents/tools"
	"github.com/bububa/finagents/tools/duckduckgo"
	"github.com/bububa/finagents/tools/newspaper"
)

// App is shared by every subcommand
type App struct {
	Config *config.Config
	Logger *logrus.Logger
	Out    io.Writer
	Stream bool
}

// NewApp loads the environment and the configuration, exports the provider keys
// and prints their status
func NewApp(command *Command, out io.Writer) (*App, error) {
	if err := config.LoadEnv(command.EnvFile); err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	env := config.OSEnv()
	if err := config.ExportCredentials(env); err != nil {
		return nil, err
	}
	for _, line := range config.CredentialStatus(env) {
		fmt.Fprintln(out, line)
	}
	cfg, err := config.Load(command.Config)
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if command.LogLevel != "" {
		level = command.LogLevel
	}
	return &App{
		Config: cfg,
		Logger: newLogger(level),
		Out:    out,
		Stream: !command.NoStream,
	}, nil
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithError(err).Warn("invalid log level, using info")
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// Context is cancelled on interrupt
func (a *App) Context() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// AgentOptions binds an agent to the configured chat provider and model
func (a *App) AgentOptions(model string) []agents.Option {
	return []agents.Option{
		agents.WithClient(llm.NewClient(a.Config.Providers.Chat)),
		agents.WithModel(model),
		agents.WithLogger(a.Logger),
	}
}

// ResearchToolkits search and article reading with the configured limits
func (a *App) ResearchToolkits() []tools.Toolkit {
	cfg := a.Config.Tools
	search := []duckduckgo.Option{duckduckgo.WithNews(true)}
	if cfg.MaxSearchResults > 0 {
		search = append(search, duckduckgo.WithMaxResults(cfg.MaxSearchResults))
	}
	reader := []newspaper.Option{}
	if cfg.ArticleLimit > 0 {
		reader = append(reader, newspaper.WithArticleLength(cfg.ArticleLimit))
	}
	if cfg.UserAgent != "" {
		search = append(search, duckduckgo.WithUserAgent(cfg.UserAgent))
		reader = append(reader, newspaper.WithUserAgent(cfg.UserAgent))
	}
	return []tools.Toolkit{duckduckgo.New(search), newspaper.New(reader...)}
}
