package rag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/bububa/finagents/agents"
	"github.com/bububa/finagents/components"
	"github.com/bububa/finagents/components/document"
	"github.com/bububa/finagents/components/embedder"
	"github.com/bububa/finagents/components/vectordb"
	"github.com/bububa/finagents/components/vectordb/engines/memory"
)

const DefaultCollection = "financial_reports"

var (
	// ErrNoContext is returned when the knowledge store has nothing relevant to the query
	ErrNoContext = errors.New("no relevant information to answer question")
	// ErrNoEmbedder is returned when the knowledge store is used without an embedder
	ErrNoEmbedder = errors.New("rag has no embedder")
)

type Options struct {
	embedder         embedder.Embedder
	chunker          *embedder.TextChunker
	engine           vectordb.Engine
	collection       string
	searchOptions    []vectordb.SearchOption
	contextGenerator func(string, []vectordb.Record) string
	logger           logrus.FieldLogger
}

type Option func(*Options)

func WithEmbedder(e embedder.Embedder) Option {
	return func(r *Options) {
		r.embedder = e
	}
}

func WithChunker(c *embedder.TextChunker) Option {
	return func(r *Options) {
		r.chunker = c
	}
}

func WithVectorDB(e vectordb.Engine) Option {
	return func(r *Options) {
		r.engine = e
	}
}

// WithCollection set the collection Run searches
func WithCollection(name string) Option {
	return func(r *Options) {
		r.collection = name
	}
}

func WithSearchOptions(opts ...vectordb.SearchOption) Option {
	return func(r *Options) {
		r.searchOptions = opts
	}
}

// WithContextGenerator set how the query and the retrieved records become the agent prompt
func WithContextGenerator(fn func(string, []vectordb.Record) string) Option {
	return func(r *Options) {
		r.contextGenerator = fn
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Options) {
		r.logger = l
	}
}

// RAG answers questions with an agent grounded on records retrieved from a vector store
type RAG struct {
	agent *agents.Agent
	Options
}

// Answer is the agent response with the context it was given
type Answer struct {
	Response string
	// Contexts text of every retrieved record, in rank order
	Contexts []string
	Records  []vectordb.Record
	Usage    *components.LLMUsage
}

func New(agent *agents.Agent, opts ...Option) *RAG {
	ret := &RAG{agent: agent}
	for _, opt := range opts {
		opt(&ret.Options)
	}
	if ret.collection == "" {
		ret.collection = DefaultCollection
	}
	if ret.contextGenerator == nil {
		ret.contextGenerator = DefaultContextGenerator
	}
	if ret.logger == nil {
		ret.logger = logrus.StandardLogger()
	}
	if ret.engine == nil {
		ret.engine = memory.New()
	}
	return ret
}

func (r *RAG) Agent() *agents.Agent {
	return r.agent
}

// AddDocuments chunks, embeds and stores documents in a collection
func (r *RAG) AddDocuments(ctx context.Context, collection string, docs ...document.Document) (*components.LLMUsage, error) {
	if r.embedder == nil {
		return nil, ErrNoEmbedder
	}
	totalUsage := new(components.LLMUsage)
	for _, doc := range docs {
		var chunks []embedder.Chunk
		if r.chunker != nil {
			chunks = r.chunker.Chunk(doc.Content)
		} else if strings.TrimSpace(doc.Content) != "" {
			chunks = []embedder.Chunk{{Text: doc.Content}}
		}
		if len(chunks) == 0 {
			continue
		}
		embeddings, err := embedder.EmbedChunks(ctx, r.embedder, chunks, doc.Meta, totalUsage)
		if err != nil {
			return totalUsage, err
		}
		records := make([]vectordb.Record, 0, len(embeddings))
		for _, e := range embeddings {
			records = append(records, vectordb.Record{Embedding: e})
		}
		if err := r.engine.Insert(ctx, collection, records...); err != nil {
			return totalUsage, err
		}
		r.logger.WithFields(logrus.Fields{
			"collection": collection,
			"source":     doc.Meta["source"],
			"chunks":     len(records),
		}).Info("document added")
	}
	return totalUsage, nil
}

// Search returns the records closest to the query
func (r *RAG) Search(ctx context.Context, collection string, query string, opts ...vectordb.SearchOption) ([]vectordb.Record, *components.LLMUsage, error) {
	if r.embedder == nil {
		return nil, nil, ErrNoEmbedder
	}
	var embedding embedder.Embedding
	usage := new(components.LLMUsage)
	if err := r.embedder.Embed(ctx, query, &embedding, usage); err != nil {
		return nil, usage, err
	}
	opts = append(append([]vectordb.SearchOption{}, opts...), vectordb.SearchWithCollection(collection))
	records, err := r.engine.Search(ctx, embedding.Embedding, opts...)
	return records, usage, err
}

func (r *RAG) prompt(ctx context.Context, query string) (string, *Answer, error) {
	records, usage, err := r.Search(ctx, r.collection, query, r.searchOptions...)
	if err != nil {
		return "", nil, err
	}
	if len(records) == 0 {
		return "", nil, fmt.Errorf("%w: %s", ErrNoContext, query)
	}
	ret := &Answer{
		Contexts: vectordb.Contexts(records),
		Records:  records,
		Usage:    usage,
	}
	return r.contextGenerator(query, records), ret, nil
}

// Run retrieves context for the query and lets the agent answer it
func (r *RAG) Run(ctx context.Context, query string) (*Answer, error) {
	input, ret, err := r.prompt(ctx, query)
	if err != nil {
		return nil, err
	}
	response, resp, err := r.agent.Run(ctx, input)
	if err != nil {
		return nil, err
	}
	ret.Response = response
	ret.Usage.Merge(resp.Usage)
	return ret, nil
}

// PrintResponse is Run with the answer printed to w, streamed or at once
func (r *RAG) PrintResponse(ctx context.Context, w io.Writer, query string, stream bool) (*Answer, error) {
	input, ret, err := r.prompt(ctx, query)
	if err != nil {
		return nil, err
	}
	if ret.Response, err = r.agent.PrintResponse(ctx, w, input, stream); err != nil {
		return nil, err
	}
	return ret, nil
}

// DefaultContextGenerator lists the records with their metadata before the question
func DefaultContextGenerator(query string, records []vectordb.Record) string {
	sb := new(strings.Builder)
	sb.WriteString("Based on the following information:\n\n")
	for i, record := range records {
		fmt.Fprintf(sb, "%d. %s\n", i+1, record.Embedding.Object)
		keys := make([]string, 0, len(record.Embedding.Meta))
		for k := range record.Embedding.Meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(sb, "  - %s: %s\n", k, record.Embedding.Meta[k])
		}
		fmt.Fprintf(sb, "  - Score: %.3f\n", record.Score)
	}
	fmt.Fprintf(sb, "\nPlease provide a comprehensive answer to this question: %s", query)
	return sb.String()
}
