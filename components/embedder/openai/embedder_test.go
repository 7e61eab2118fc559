package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bububa/finagents/components"
	"github.com/bububa/finagents/components/embedder"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *openai.Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := openai.DefaultConfig("test")
	cfg.BaseURL = srv.URL + "/v1"
	return openai.NewClientWithConfig(cfg)
}

func TestBatchEmbed(t *testing.T) {
	var req openai.EmbeddingRequest
	clt := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small",
			"data":[{"object":"embedding","index":1,"embedding":[0.5,0.25]},{"object":"embedding","index":0,"embedding":[1,0]}],
			"usage":{"prompt_tokens":7,"total_tokens":7}}`))
	})
	e := New(clt, WithDimensions(2))
	usage := new(components.LLMUsage)
	list, err := e.BatchEmbed(context.Background(), []string{"revenue", "margin"}, usage)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, string(req.Model))
	assert.Equal(t, 2, req.Dimensions)
	require.Len(t, list, 2)
	assert.Equal(t, "margin", list[0].Object)
	assert.Equal(t, []float64{0.5, 0.25}, list[0].Embedding)
	assert.Equal(t, "revenue", list[1].Object)
	assert.Equal(t, int64(7), usage.InputTokens)
}

func TestEmbedEmpty(t *testing.T) {
	clt := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[],"usage":{}}`))
	})
	var one embedder.Embedding
	err := New(clt).Embed(context.Background(), "revenue", &one, nil)
	assert.ErrorIs(t, err, ErrEmptyEmbedding)
}
