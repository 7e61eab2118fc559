package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/bububa/finagents/agents"
	"github.com/bububa/finagents/agents/rag"
	"github.com/bububa/finagents/components/embedder"
	"github.com/bububa/finagents/components/embedder/openai"
	"github.com/bububa/finagents/components/llm"
	"github.com/bububa/finagents/components/vectordb"
	"github.com/bububa/finagents/components/vectordb/engines/chromem"
	"github.com/bububa/finagents/components/vectordb/engines/pgvector"
	"github.com/bububa/finagents/provision"
)

// KnowledgeInstructions keep the knowledge agent on the retrieved context
var KnowledgeInstructions = []string{
	"Answer only from the information provided with the question.",
	"Cite the source of every figure you use.",
	"Say so when the information is not enough to answer.",
}

type KnowledgeFlags struct {
	Engine     string `help:"Vector store engine." enum:"pgvector,chromem" default:"pgvector"`
	Path       string `help:"Directory of the chromem store." default:"knowledge.db"`
	Collection string `help:"Collection name." default:"financial_reports"`
	Dimension  int    `help:"Embedding dimension." default:"1536"`
	TopK       int    `help:"Number of passages retrieved per question." default:"5" name:"top-k"`
}

// Store is an opened vector store
type Store struct {
	engine     vectordb.Engine
	collection string
	close      func()
}

func (k *KnowledgeFlags) Open(ctx context.Context, app *App) (*Store, error) {
	opts := []vectordb.Option{vectordb.WithTopK(k.TopK), vectordb.WithDimension(k.Dimension)}
	switch vectordb.EngineType(k.Engine) {
	case vectordb.Chromem:
		engine, err := chromem.NewPersistent(k.Path, true, opts...)
		if err != nil {
			return nil, err
		}
		return &Store{engine: engine, collection: k.Collection, close: func() {}}, nil
	case vectordb.PGVector:
		db, err := provision.PoolConnector(ctx, app.Config.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("connect %s: %w", vectordb.PGVector, err)
		}
		engine, err := pgvector.New(db, app.Config.Database.Table, opts...)
		if err != nil {
			db.Close()
			return nil, err
		}
		return &Store{engine: engine, collection: k.Collection, close: db.Close}, nil
	default:
		return nil, fmt.Errorf("unknown engine %s", k.Engine)
	}
}

func (s *Store) Close() {
	s.close()
}

// RAG returns the knowledge agent over the store
func (s *Store) RAG(app *App, chunker *embedder.TextChunker) *rag.RAG {
	embeddings := openai.New(llm.NewClient(app.Config.Providers.Embedding), openai.WithModel(app.Config.Models.Embedding))
	agent := agents.NewAgent(append(app.AgentOptions(app.Config.Models.Research),
		agents.WithName("Knowledge Agent"),
		agents.WithInstructions(KnowledgeInstructions...),
		agents.WithMarkdown(true),
	)...)
	return rag.New(agent,
		rag.WithEmbedder(embeddings),
		rag.WithChunker(chunker),
		rag.WithVectorDB(s.engine),
		rag.WithCollection(s.collection),
		rag.WithLogger(app.Logger),
	)
}

// newChunker counts tokens with tiktoken, falling back to words when the encoding cannot be loaded
func newChunker(logger logrus.FieldLogger, size int, overlap int) *embedder.TextChunker {
	opts := []embedder.TextChunkerOption{embedder.WithChunkSize(size), embedder.WithChunkOverlap(overlap)}
	counter, err := embedder.NewTikTokenCounter("cl100k_base")
	if err != nil {
		logger.WithError(err).Warn("tiktoken unavailable, counting words")
	} else {
		opts = append(opts, embedder.WithTokenCounter(counter))
	}
	return embedder.NewTextChunker(opts...)
}
