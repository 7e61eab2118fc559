package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bububa/finagents/config"
)

func TestBaseURL(t *testing.T) {
	assert.Equal(t, GroqBaseURL, BaseURL(config.Provider{Name: "groq"}))
	assert.Equal(t, GroqBaseURL, BaseURL(config.Provider{}))
	assert.Equal(t, OpenAIBaseURL, BaseURL(config.Provider{Name: "openai"}))
	assert.Equal(t, "http://local/v1", BaseURL(config.Provider{Name: "custom", BaseURL: "http://local/v1"}))
}

func TestNewClientSendsKey(t *testing.T) {
	t.Setenv("FINAGENTS_TEST_KEY", "gsk_test")
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","model":"llama-3.1-8b-instant","choices":[{"index":0,"message":{"role":"assistant","content":"ok"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()
	clt := NewClient(config.Provider{Name: "custom", BaseURL: srv.URL, APIKeyEnv: "FINAGENTS_TEST_KEY"})
	resp, err := clt.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
		Model:    "llama-3.1-8b-instant",
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer gsk_test", auth)
	assert.Equal(t, "ok", resp.Choices[0].Message.Content)
}
