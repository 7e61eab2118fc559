package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"
)

type Command struct {
	Config   string `help:"YAML configuration file." type:"existingfile" short:"c"`
	EnvFile  string `help:"Environment file holding GROQ_KEY and AGNO_KEY." default:".env" name:"env-file"`
	LogLevel string `help:"Log level (trace, debug, info, warn, error), overrides the configuration." name:"log-level"`
	NoStream bool   `help:"Print answers once complete instead of streaming them." name:"no-stream"`

	Research  ResearchCommand  `cmd:"research" help:"Write a research report with web search and article reading."`
	Stock     StockCommand     `cmd:"stock" help:"Write a credit rating style stock report with Yahoo Finance data."`
	Evaluate  EvaluateCommand  `cmd:"evaluate" help:"Score a RAG response with the LLM judge."`
	Provision ProvisionCommand `cmd:"provision" help:"Create and start the pgvector container, then wait for it."`
	Probe     ProbeCommand     `cmd:"probe" help:"Wait until the database accepts connections."`
	Ingest    IngestCommand    `cmd:"ingest" help:"Add files or urls to the knowledge store."`
	Ask       AskCommand       `cmd:"ask" help:"Answer a question from the knowledge store."`
}

func main() {
	command := new(Command)
	ctx := kong.Parse(
		command,
		kong.Name("finagents"),
		kong.Description("Financial research agents"),
		kong.UsageOnError(),
	)
	app, err := NewApp(command, os.Stdout)
	ctx.FatalIfErrorf(err)
	err = ctx.Run(app)
	if err != nil {
		app.Logger.WithError(err).Error(ctx.Command())
		logrus.Exit(1)
	}
}
