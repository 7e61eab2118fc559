package embedder

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/bububa/finagents/components"
)

// ErrVectorLengthMismatch is returned when comparing vectors of different dimensions
var ErrVectorLengthMismatch = errors.New("vector length mismatch")

// Embedder turns text into vectors
type Embedder interface {
	Model() string
	Embed(ctx context.Context, text string, embedding *Embedding, usage *components.LLMUsage) error
	BatchEmbed(ctx context.Context, parts []string, usage *components.LLMUsage) ([]Embedding, error)
}

// Embedding is the vector representation of a piece of text. Object holds the text itself.
type Embedding struct {
	Object    string            `json:"object"`
	Embedding []float64         `json:"embedding"`
	Index     int               `json:"index"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// UUID returns a stable id derived from the text and its metadata
func (e Embedding) UUID() string {
	var sb strings.Builder
	sb.WriteString(e.Object)
	keys := make([]string, 0, len(e.Meta))
	for k := range e.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(k + ":" + e.Meta[k])
		sb.WriteByte('\n')
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(sb.String())).String()
}

// DotProduct of two embeddings with the same dimension
func (e *Embedding) DotProduct(other *Embedding) (float64, error) {
	if len(e.Embedding) != len(other.Embedding) {
		return 0, ErrVectorLengthMismatch
	}
	var ret float64
	for i := range e.Embedding {
		ret += e.Embedding[i] * other.Embedding[i]
	}
	return ret, nil
}

// EmbedChunks embeds every chunk in one batch and attaches meta to each result
func EmbedChunks(ctx context.Context, e Embedder, chunks []Chunk, meta map[string]string, usage *components.LLMUsage) ([]Embedding, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, chunk.Text)
	}
	ret, err := e.BatchEmbed(ctx, parts, usage)
	if err != nil {
		return nil, err
	}
	for idx := range ret {
		ret[idx].Object = parts[ret[idx].Index]
		if len(meta) > 0 {
			ret[idx].Meta = make(map[string]string, len(meta))
			for k, v := range meta {
				ret[idx].Meta[k] = v
			}
		}
	}
	return ret, nil
}
