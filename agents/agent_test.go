package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bububa/finagents/components"
	"github.com/bububa/finagents/tools/calculator"
)

// fakeLLM is an OpenAI compatible endpoint replaying scripted replies
type fakeLLM struct {
	*httptest.Server
	mtx      sync.Mutex
	replies  []string
	requests []openai.ChatCompletionRequest
}

func startFakeLLM(t *testing.T, replies ...string) *fakeLLM {
	f := &fakeLLM{replies: replies}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mtx.Lock()
		idx := len(f.requests)
		f.requests = append(f.requests, req)
		reply := f.replies[len(f.replies)-1]
		if idx < len(f.replies) {
			reply = f.replies[idx]
		}
		f.mtx.Unlock()
		if req.Stream {
			w.Header().Set("Content-Type", "text/event-stream")
		} else {
			w.Header().Set("Content-Type", "application/json")
		}
		fmt.Fprint(w, reply)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeLLM) client() *openai.Client {
	cfg := openai.DefaultConfig("test")
	cfg.BaseURL = f.URL + "/v1"
	return openai.NewClientWithConfig(cfg)
}

func completion(content string, calls ...openai.ToolCall) string {
	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content, ToolCalls: calls}
	reason := openai.FinishReasonStop
	if len(calls) > 0 {
		reason = openai.FinishReasonToolCalls
	}
	bs, _ := json.Marshal(openai.ChatCompletionResponse{
		ID:      "chatcmpl-1",
		Model:   "llama-3.3-70b-versatile",
		Created: 1700000000,
		Choices: []openai.ChatCompletionChoice{{Index: 0, Message: msg, FinishReason: reason}},
		Usage:   openai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	})
	return string(bs)
}

func toolCall(id, name, args string) openai.ToolCall {
	return openai.ToolCall{ID: id, Type: openai.ToolTypeFunction, Function: openai.FunctionCall{Name: name, Arguments: args}}
}

func sse(deltas ...openai.ChatCompletionStreamChoiceDelta) string {
	var sb strings.Builder
	for _, d := range deltas {
		bs, _ := json.Marshal(openai.ChatCompletionStreamResponse{
			ID:      "chatcmpl-s",
			Object:  "chat.completion.chunk",
			Model:   "llama-3.3-70b-versatile",
			Choices: []openai.ChatCompletionStreamChoice{{Index: 0, Delta: d}},
		})
		fmt.Fprintf(&sb, "data: %s\n\n", bs)
	}
	sb.WriteString("data: [DONE]\n\n")
	return sb.String()
}

func newTestAgent(f *fakeLLM, opts ...Option) *Agent {
	logger, _ := test.NewNullLogger()
	opts = append([]Option{
		WithClient(f.client()),
		WithModel("llama-3.3-70b-versatile"),
		WithName("Stock Analyst"),
		WithDescription("You are a stock analyst."),
		WithInstructions("Use tables to display data."),
		WithTools(calculator.New()),
		WithLogger(logger),
	}, opts...)
	return NewAgent(opts...)
}

func TestRunWithToolCall(t *testing.T) {
	f := startFakeLLM(t,
		completion("", toolCall("call_1", calculator.Name, `{"expression":"2+2"}`)),
		completion("The answer is 4."),
	)
	var started, ended string
	agent := newTestAgent(f,
		WithStartHook(func(ctx context.Context, a *Agent, query string) { started = query }),
		WithEndHook(func(ctx context.Context, a *Agent, query string, answer string, resp *components.LLMResponse) {
			ended = answer
		}),
	)
	answer, resp, err := agent.Run(context.Background(), "What is 2+2?")
	require.NoError(t, err)
	assert.Equal(t, "The answer is 4.", answer)
	assert.Equal(t, "What is 2+2?", started)
	assert.Equal(t, answer, ended)
	assert.Equal(t, 2, resp.Rounds)
	assert.Equal(t, int64(20), resp.Usage.InputTokens)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, calculator.Name, resp.ToolCalls[0].Name)

	require.Len(t, f.requests, 2)
	first := f.requests[0]
	assert.Equal(t, "llama-3.3-70b-versatile", first.Model)
	require.Len(t, first.Tools, 1)
	assert.Equal(t, calculator.Name, first.Tools[0].Function.Name)
	assert.Equal(t, openai.ChatMessageRoleSystem, first.Messages[0].Role)
	assert.Contains(t, first.Messages[0].Content, "You are a stock analyst.")
	assert.Contains(t, first.Messages[0].Content, "# INSTRUCTIONS\nUse tables to display data.")

	second := f.requests[1].Messages
	require.Len(t, second, 4)
	assert.Equal(t, "call_1", second[2].ToolCalls[0].ID)
	assert.Equal(t, openai.ChatMessageRoleTool, second[3].Role)
	assert.Equal(t, "call_1", second[3].ToolCallID)
	assert.JSONEq(t, `{"expression":"2+2","result":4}`, second[3].Content)
	assert.Equal(t, 4, agent.Memory().MessageCount())
}

func TestRunUnknownTool(t *testing.T) {
	f := startFakeLLM(t,
		completion("", toolCall("call_1", "get_weather", `{}`)),
		completion("Sorry."),
	)
	logger, hook := test.NewNullLogger()
	agent := newTestAgent(f, WithLogger(logger))
	answer, _, err := agent.Run(context.Background(), "weather?")
	require.NoError(t, err)
	assert.Equal(t, "Sorry.", answer)
	reply := f.requests[1].Messages[3]
	assert.Equal(t, "Error: unknown tool: get_weather", reply.Content)
	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["tool"] == "get_weather" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestRunMaxToolRounds(t *testing.T) {
	f := startFakeLLM(t, completion("", toolCall("call_1", calculator.Name, `{"expression":"1+1"}`)))
	var hooked error
	agent := newTestAgent(f,
		WithMaxToolRounds(2),
		WithErrorHook(func(ctx context.Context, a *Agent, query string, resp *components.LLMResponse, err error) { hooked = err }),
	)
	_, resp, err := agent.Run(context.Background(), "loop")
	assert.ErrorIs(t, err, ErrMaxToolRounds)
	assert.ErrorIs(t, hooked, ErrMaxToolRounds)
	assert.Len(t, f.requests, 3)
	assert.Len(t, resp.ToolCalls, 2)
}

func TestRunProviderError(t *testing.T) {
	f := &fakeLLM{Server: httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid api key","type":"invalid_request_error"}}`)
	}))}
	defer f.Close()
	_, _, err := newTestAgent(f).Run(context.Background(), "hi")
	assert.ErrorContains(t, err, "invalid api key")
}

func TestRunWithoutClient(t *testing.T) {
	_, _, err := NewAgent().Run(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNoClient)
}

func TestStreamWithToolCall(t *testing.T) {
	zero := 0
	f := startFakeLLM(t,
		sse(
			openai.ChatCompletionStreamChoiceDelta{Role: openai.ChatMessageRoleAssistant, ToolCalls: []openai.ToolCall{{Index: &zero, ID: "call_1", Type: openai.ToolTypeFunction, Function: openai.FunctionCall{Name: calculator.Name}}}},
			openai.ChatCompletionStreamChoiceDelta{ToolCalls: []openai.ToolCall{{Index: &zero, Function: openai.FunctionCall{Arguments: `{"expression":`}}}},
			openai.ChatCompletionStreamChoiceDelta{ToolCalls: []openai.ToolCall{{Index: &zero, Function: openai.FunctionCall{Arguments: `"2+2"}`}}}},
		),
		sse(
			openai.ChatCompletionStreamChoiceDelta{Role: openai.ChatMessageRoleAssistant, Content: "Microsoft"},
			openai.ChatCompletionStreamChoiceDelta{Content: " is up 4%."},
		),
	)
	agent := newTestAgent(f, WithShowToolCalls(true))
	var buf bytes.Buffer
	answer, err := agent.PrintResponse(context.Background(), &buf, "How is Microsoft performing?", true)
	require.NoError(t, err)
	assert.Equal(t, "Microsoft is up 4%.", answer)
	assert.Equal(t, "\nRunning:\n - calculate({\"expression\":\"2+2\"})\n\nMicrosoft is up 4%.\n", buf.String())
	require.Len(t, f.requests, 2)
	assert.True(t, f.requests[1].Stream)
	tool := f.requests[1].Messages[3]
	assert.Equal(t, "call_1", tool.ToolCallID)
	assert.JSONEq(t, `{"expression":"2+2","result":4}`, tool.Content)
}

func TestPrintResponseNoStream(t *testing.T) {
	f := startFakeLLM(t,
		completion("", toolCall("call_1", calculator.Name, `{"expression":"2+2"}`)),
		completion("Four.\n"),
	)
	agent := newTestAgent(f, WithShowToolCalls(true), WithDatetime(func() time.Time {
		return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	}))
	var buf bytes.Buffer
	answer, err := agent.PrintResponse(context.Background(), &buf, "2+2?", false)
	require.NoError(t, err)
	assert.Equal(t, "Four.\n", answer)
	assert.Equal(t, "\nRunning:\n - calculate({\"expression\":\"2+2\"})\n\nFour.\n", buf.String())
	assert.Contains(t, f.requests[0].Messages[0].Content, "The current time is 2025-01-02 03:04:05 UTC")
}
