package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bububa/finagents/agents"
	"github.com/bububa/finagents/agents/evaluator"
	"github.com/bububa/finagents/agents/finance"
	"github.com/bububa/finagents/components/document"
	"github.com/bububa/finagents/components/document/parsers/pdf"
	"github.com/bububa/finagents/components/document/parsers/xlsx"
	"github.com/bububa/finagents/provision"
	"github.com/bububa/finagents/tools"
	"github.com/bububa/finagents/tools/calculator"
	"github.com/bububa/finagents/tools/yfinance"
)

type ResearchCommand struct {
	Query []string `arg:"" optional:"" help:"Research topic."`
}

func (r *ResearchCommand) Run(app *App) error {
	ctx, cancel := app.Context()
	defer cancel()
	query := strings.Join(r.Query, " ")
	if query == "" {
		query = finance.GenAIInFinancialServices
	}
	agent := finance.NewResearchAgent(app.ResearchToolkits(), app.AgentOptions(app.Config.Models.Research)...)
	_, err := agent.PrintResponse(ctx, app.Out, query, app.Stream)
	return err
}

const StockAgentReady = "Stock Agent created. Ready to take user queries.."

type StockCommand struct {
	Query []string `arg:"" optional:"" help:"Question about one or more stocks."`
}

func stockToolkits(app *App) []tools.Toolkit {
	opts := []yfinance.Option{yfinance.EnableAll()}
	if ua := app.Config.Tools.UserAgent; ua != "" {
		opts = append(opts, yfinance.WithUserAgent(ua))
	}
	return []tools.Toolkit{yfinance.New(opts), tools.List{calculator.New()}}
}

func (s *StockCommand) Run(app *App) error {
	ctx, cancel := app.Context()
	defer cancel()
	query := strings.Join(s.Query, " ")
	if query == "" {
		query = finance.MicrosoftInAI
	}
	agent := finance.NewStockAgent(stockToolkits(app), app.AgentOptions(app.Config.Models.Stock)...)
	fmt.Fprintln(app.Out, StockAgentReady)
	_, err := agent.PrintResponse(ctx, app.Out, query, app.Stream)
	return err
}

type EvaluateCommand struct {
	Query    string   `help:"Question the response answers." default:"How is Microsoft performing in the age of AI?"`
	Response string   `help:"Response to score, generated by the stock agent when empty."`
	Context  []string `help:"Retrieved context passages, the Microsoft example passages when empty." sep:"none"`
	Score    bool     `help:"Print the parsed scores after the report."`
}

func (e *EvaluateCommand) Run(app *App) error {
	ctx, cancel := app.Context()
	defer cancel()
	judge := evaluator.New(app.AgentOptions(app.Config.Models.Evaluator)...)
	fmt.Fprintln(app.Out, "LLM-as-a Judge Evaluator initialized successfully!")
	passages := e.Context
	if len(passages) == 0 {
		passages = evaluator.ExampleContext()
	}
	var (
		report string
		err    error
	)
	if e.Response != "" {
		report, err = judge.Evaluate(ctx, app.Out, e.Query, e.Response, passages, app.Stream)
	} else {
		// the stock agent answers first, its answer is then scored
		stock := finance.NewStockAgent(stockToolkits(app), app.AgentOptions(app.Config.Models.Stock)...)
		fmt.Fprintln(app.Out, StockAgentReady)
		var answers []string
		answers, err = agents.NewChain(
			agents.Step{Agent: stock, NoStream: true},
			agents.Step{Agent: judge.Agent(), Prompt: func(query, response string) string {
				return evaluator.BuildPrompt(query, response, passages)
			}},
		).PrintResponse(ctx, app.Out, e.Query, app.Stream)
		if len(answers) == 2 {
			report = answers[1]
		}
	}
	if err != nil {
		return err
	}
	if !e.Score {
		return nil
	}
	parsed, err := evaluator.ParseReport(report)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.Out)
	for _, s := range parsed.Scores {
		fmt.Fprintf(app.Out, "%s: %g/%d\n", s.Metric, s.Score, evaluator.MaxMetricScore)
	}
	fmt.Fprintf(app.Out, "Total: %g/%d\n", parsed.Total(), evaluator.MaxOverallScore)
	return nil
}

type ProvisionCommand struct {
	Clean   bool `help:"Remove a previous container and its log before creating."`
	DryRun  bool `help:"Print the container commands without running them." name:"dry-run"`
	NoProbe bool `help:"Do not wait for the database after starting." name:"no-probe"`
}

func (p *ProvisionCommand) Run(app *App) error {
	ctx, cancel := app.Context()
	defer cancel()
	cfg := app.Config.Container
	cfg.Clean = cfg.Clean || p.Clean
	provisioner := provision.NewProvisioner(cfg, provision.WithProvisionerLogger(app.Logger))
	if p.DryRun {
		plan, err := provisioner.Plan()
		if err != nil {
			return err
		}
		for _, c := range plan {
			fmt.Fprintln(app.Out, c)
		}
		return nil
	}
	if err := provisioner.Up(ctx); err != nil {
		return err
	}
	if p.NoProbe {
		return nil
	}
	return probe(ctx, app, app.Config.Database.InitialWait)
}

type ProbeCommand struct {
	NoInitialWait bool `help:"Skip the initial wait." name:"no-initial-wait"`
}

func (p *ProbeCommand) Run(app *App) error {
	ctx, cancel := app.Context()
	defer cancel()
	initialWait := app.Config.Database.InitialWait
	if p.NoInitialWait {
		initialWait = 0
	}
	return probe(ctx, app, initialWait)
}

func probe(ctx context.Context, app *App, initialWait time.Duration) error {
	db := app.Config.Database
	p := provision.NewProbe(db.URL,
		provision.WithMaxRetries(db.MaxRetries),
		provision.WithWait(db.Wait),
		provision.WithInitialWait(initialWait),
		provision.WithLogFile(app.Config.Container.LogFile),
		provision.WithOutput(app.Out),
		provision.WithProbeLogger(app.Logger),
	)
	conn, err := p.Wait(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(app.Out, "\n❌ Database connection failed. Please check the logs above.")
		}
		return err
	}
	defer conn.Close()
	fmt.Fprintln(app.Out, "\n✅ Database is ready for RAG Agent initialization!")
	return nil
}

type IngestCommand struct {
	Knowledge   KnowledgeFlags `embed:""`
	Sources     []string       `arg:"" help:"Files or http(s) urls to add."`
	ChunkSize   int            `help:"Chunk size in tokens." default:"200" name:"chunk-size"`
	Overlap     int            `help:"Tokens repeated between chunks." default:"50"`
	PDFPassword string         `help:"Password of encrypted pdf files." name:"pdf-password"`
}

func (i *IngestCommand) Run(app *App) error {
	ctx, cancel := app.Context()
	defer cancel()
	store, err := i.Knowledge.Open(ctx, app)
	if err != nil {
		return err
	}
	defer store.Close()
	parsers := append(document.DefaultParsers(), pdf.New(pdf.WithPassword(i.PDFPassword)), xlsx.New())
	chunker := newChunker(app.Logger, i.ChunkSize, i.Overlap)
	rag := store.RAG(app, chunker)
	for _, src := range i.Sources {
		doc, err := load(ctx, src, parsers)
		if err != nil {
			return fmt.Errorf("%s: %w", src, err)
		}
		usage, err := rag.AddDocuments(ctx, i.Knowledge.Collection, doc)
		if err != nil {
			return fmt.Errorf("%s: %w", src, err)
		}
		fmt.Fprintf(app.Out, "Added %s (%d embedding tokens)\n", src, usage.InputTokens)
	}
	return nil
}

func load(ctx context.Context, src string, parsers []document.Parser) (document.Document, error) {
	if u, err := url.Parse(src); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return document.FromURL(ctx, nil, src, parsers...)
	}
	return document.FromFile(ctx, src, parsers...)
}

type AskCommand struct {
	Knowledge KnowledgeFlags `embed:""`
	Query     []string       `arg:"" help:"Question."`
	Evaluate  bool           `help:"Score the answer with the LLM judge using the retrieved context."`
}

func (a *AskCommand) Run(app *App) error {
	ctx, cancel := app.Context()
	defer cancel()
	store, err := a.Knowledge.Open(ctx, app)
	if err != nil {
		return err
	}
	defer store.Close()
	query := strings.Join(a.Query, " ")
	answer, err := store.RAG(app, nil).PrintResponse(ctx, app.Out, query, app.Stream)
	if err != nil {
		return err
	}
	app.Logger.WithFields(logrus.Fields{"contexts": len(answer.Contexts)}).Debug("answered")
	if !a.Evaluate {
		return nil
	}
	judge := evaluator.New(app.AgentOptions(app.Config.Models.Evaluator)...)
	_, err = judge.Evaluate(ctx, app.Out, query, answer.Response, answer.Contexts, app.Stream)
	return err
}
