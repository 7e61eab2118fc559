package openai

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/bububa/finagents/components"
	"github.com/bububa/finagents/components/embedder"
)

const DefaultModel = "text-embedding-3-small"

// ErrEmptyEmbedding is returned when the provider answers without vectors
var ErrEmptyEmbedding = errors.New("empty embedding response")

// Client is the embeddings api, satisfied by *openai.Client
type Client interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Embedder calls an OpenAI compatible embeddings endpoint
type Embedder struct {
	client     Client
	model      string
	dimensions int
}

var _ embedder.Embedder = (*Embedder)(nil)

type Option func(*Embedder)

func WithModel(model string) Option {
	return func(e *Embedder) {
		e.model = model
	}
}

// WithDimensions asks the provider to shorten vectors, supported by text-embedding-3 models
func WithDimensions(n int) Option {
	return func(e *Embedder) {
		e.dimensions = n
	}
}

func New(client Client, opts ...Option) *Embedder {
	ret := &Embedder{client: client, model: DefaultModel}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (e *Embedder) Model() string {
	return e.model
}

func (e *Embedder) Embed(ctx context.Context, text string, embedding *embedder.Embedding, usage *components.LLMUsage) error {
	list, err := e.BatchEmbed(ctx, []string{text}, usage)
	if err != nil {
		return err
	}
	*embedding = list[0]
	return nil
}

func (e *Embedder) BatchEmbed(ctx context.Context, parts []string, usage *components.LLMUsage) ([]embedder.Embedding, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      parts,
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dimensions,
	})
	if err != nil {
		return nil, err
	}
	if usage != nil {
		usage.Merge(&components.LLMUsage{InputTokens: int64(resp.Usage.PromptTokens)})
	}
	if len(resp.Data) == 0 {
		return nil, ErrEmptyEmbedding
	}
	ret := make([]embedder.Embedding, 0, len(resp.Data))
	for _, v := range resp.Data {
		if v.Index < 0 || v.Index >= len(parts) {
			return nil, errors.New("embedding index out of range")
		}
		vec := make([]float64, len(v.Embedding))
		for i, f := range v.Embedding {
			vec[i] = float64(f)
		}
		ret = append(ret, embedder.Embedding{
			Object:    parts[v.Index],
			Embedding: vec,
			Index:     v.Index,
		})
	}
	return ret, nil
}
