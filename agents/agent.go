package agents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/bububa/finagents/components"
	"github.com/bububa/finagents/components/systemprompt"
	"github.com/bububa/finagents/components/systemprompt/report"
	"github.com/bububa/finagents/tools"
)

const DefaultMaxToolRounds = 10

var (
	// ErrMaxToolRounds is returned when the model keeps requesting tools after the round limit
	ErrMaxToolRounds = errors.New("max tool rounds exceeded")
	// ErrEmptyResponse is returned when the provider answers without choices
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrNoClient is returned when an agent runs without a chat client
	ErrNoClient = errors.New("agent has no chat client")
)

// ChatClient is the OpenAI compatible chat api, satisfied by *openai.Client
type ChatClient interface {
	CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateChatCompletionStream(context.Context, openai.ChatCompletionRequest) (*openai.ChatCompletionStream, error)
}

type (
	StartHook func(ctx context.Context, agent *Agent, query string)
	EndHook   func(ctx context.Context, agent *Agent, query string, answer string, resp *components.LLMResponse)
	ErrorHook func(ctx context.Context, agent *Agent, query string, resp *components.LLMResponse, err error)
)

// Config represents general agents configuration
type Config struct {
	// client Client for interacting with the language model
	client ChatClient
	//	memory  Memory component for storing chat history.
	memory *components.Memory
	//	systemPromptGenerator Component for generating system prompts.
	systemPromptGenerator systemprompt.Generator
	// model llm model
	model string
	// temperature Temperature for response generation, 0 leaves the provider default
	temperature float32
	// maxTokens Maximum number of tokens allowed in the response
	maxTokens     int
	maxToolRounds int
	// name is Agent name presentation
	name           string
	description    string
	instructions   []string
	expectedOutput string
	markdown       bool
	addDatetime    bool
	clock          func() time.Time
	showToolCalls  bool
	tools          *tools.Set
	logger         logrus.FieldLogger
	startHook      StartHook
	endHook        EndHook
	errorHook      ErrorHook
}

// Agent is a chat agent bound to a model endpoint and a set of tools.
// It keeps calling the model while the model requests tool calls and feeds the
// tool results back until a final answer is produced.
type Agent struct {
	Config
}

// NewAgent initializes the Agent
func NewAgent(options ...Option) *Agent {
	ret := new(Agent)
	ret.tools = tools.NewSet()
	for _, opt := range options {
		opt(&ret.Config)
	}
	if ret.memory == nil {
		ret.memory = components.NewMemory(0)
	}
	if ret.maxToolRounds <= 0 {
		ret.maxToolRounds = DefaultMaxToolRounds
	}
	if ret.logger == nil {
		ret.logger = logrus.StandardLogger()
	}
	if ret.systemPromptGenerator == nil {
		g := report.New(
			report.WithDescription(ret.description),
			report.WithInstructions(ret.instructions...),
			report.WithExpectedOutput(ret.expectedOutput),
			report.WithMarkdown(ret.markdown),
		)
		if ret.addDatetime {
			g.AddContextProviders(systemprompt.NewDateTimeProvider(ret.clock))
		}
		ret.systemPromptGenerator = g
	}
	return ret
}

func (a *Agent) Name() string {
	return a.name
}

func (a *Agent) Model() string {
	return a.model
}

// Tools returns the tools available to the model
func (a *Agent) Tools() []tools.Tool {
	return a.tools.Tools()
}

// Memory returns the chat history store
func (a *Agent) Memory() *components.Memory {
	return a.memory
}

// ResetMemory clears the chat history
func (a *Agent) ResetMemory() {
	a.memory.Reset()
}

// SystemPrompt returns the system prompt
func (a *Agent) SystemPrompt() string {
	return a.systemPromptGenerator.Generate()
}

// RegisterSystemPromptContextProvider registers a new context provider
func (a *Agent) RegisterSystemPromptContextProvider(provider systemprompt.ContextProvider) {
	a.systemPromptGenerator.AddContextProviders(provider)
}

// UnregisterSystemPromptContextProvider unregisters an existing context provider.
func (a *Agent) UnregisterSystemPromptContextProvider(title string) {
	a.systemPromptGenerator.RemoveContextProviders(title)
}

func (a *Agent) log() logrus.FieldLogger {
	return a.logger.WithFields(logrus.Fields{"agent": a.name, "model": a.model})
}

func (a *Agent) request() openai.ChatCompletionRequest {
	messages := []components.Message{*components.NewMessage(components.SystemRole, a.SystemPrompt())}
	messages = append(messages, a.memory.History()...)
	return openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    components.MessagesToOpenAI(messages),
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
		Tools:       a.tools.OpenAI(),
	}
}

func (a *Agent) begin(ctx context.Context, query string) error {
	if a.client == nil {
		return ErrNoClient
	}
	if fn := a.startHook; fn != nil {
		fn(ctx, a, query)
	}
	a.memory.NewTurn()
	a.memory.NewMessage(components.UserRole, query)
	return nil
}

func (a *Agent) fail(ctx context.Context, query string, resp *components.LLMResponse, err error) error {
	a.log().WithError(err).Error("agent run failed")
	if fn := a.errorHook; fn != nil {
		fn(ctx, a, query, resp, err)
	}
	return err
}

func (a *Agent) finish(ctx context.Context, query string, answer string, resp *components.LLMResponse) {
	a.memory.NewMessage(components.AssistantRole, answer)
	if resp.Usage != nil {
		a.log().WithFields(logrus.Fields{
			"rounds":        resp.Rounds,
			"input_tokens":  resp.Usage.InputTokens,
			"output_tokens": resp.Usage.OutputTokens,
		}).Debug("agent run finished")
	}
	if fn := a.endHook; fn != nil {
		fn(ctx, a, query, answer, resp)
	}
}

// callTools executes the requested calls in order and records the results.
// Tool failures are sent back to the model as text so it can recover.
func (a *Agent) callTools(ctx context.Context, content string, calls []components.ToolCall, resp *components.LLMResponse) {
	a.memory.AddMessage(components.NewToolCallsMessage(content, calls))
	resp.ToolCalls = append(resp.ToolCalls, calls...)
	for _, call := range calls {
		logger := a.log().WithFields(logrus.Fields{"tool": call.Name, "arguments": call.Arguments})
		logger.Info("running tool")
		callback := components.ToolCallback{ID: call.ID, Name: call.Name}
		result, err := a.tools.Call(ctx, call.Name, call.Arguments)
		if err != nil {
			logger.WithError(err).Warn("tool call failed")
			callback.Content = fmt.Sprintf("Error: %v", err)
			callback.IsError = true
		} else {
			callback.Content = result
		}
		a.memory.AddMessage(components.NewToolMessage(callback))
	}
}

// Run runs the agent with the given user query synchronously and returns the final answer.
func (a *Agent) Run(ctx context.Context, query string) (string, *components.LLMResponse, error) {
	resp := new(components.LLMResponse)
	if err := a.begin(ctx, query); err != nil {
		return "", resp, err
	}
	for round := 0; ; round++ {
		a.log().WithField("round", round).Debug("chat completion")
		res, err := a.client.CreateChatCompletion(ctx, a.request())
		if err != nil {
			return "", resp, a.fail(ctx, query, resp, err)
		}
		resp.FromOpenAI(&res)
		if len(res.Choices) == 0 {
			return "", resp, a.fail(ctx, query, resp, ErrEmptyResponse)
		}
		msg := res.Choices[0].Message
		calls := components.ToolCallsFromOpenAI(msg.ToolCalls)
		if len(calls) == 0 {
			a.finish(ctx, query, msg.Content, resp)
			return msg.Content, resp, nil
		}
		if round >= a.maxToolRounds {
			return "", resp, a.fail(ctx, query, resp, ErrMaxToolRounds)
		}
		a.callTools(ctx, msg.Content, calls, resp)
	}
}

// Stream runs the agent and writes the answer to w as it is generated.
// It returns the full text of the final answer.
func (a *Agent) Stream(ctx context.Context, query string, w io.Writer) (string, error) {
	resp := new(components.LLMResponse)
	if err := a.begin(ctx, query); err != nil {
		return "", err
	}
	for round := 0; ; round++ {
		a.log().WithField("round", round).Debug("chat completion stream")
		content, calls, err := a.streamRound(ctx, w, resp)
		if err != nil {
			return "", a.fail(ctx, query, resp, err)
		}
		if len(calls) == 0 {
			a.finish(ctx, query, content, resp)
			return content, nil
		}
		if round >= a.maxToolRounds {
			return "", a.fail(ctx, query, resp, ErrMaxToolRounds)
		}
		if a.showToolCalls {
			if err := writeToolCalls(w, calls); err != nil {
				return "", a.fail(ctx, query, resp, err)
			}
		}
		a.callTools(ctx, content, calls, resp)
	}
}

func (a *Agent) streamRound(ctx context.Context, w io.Writer, resp *components.LLMResponse) (string, []components.ToolCall, error) {
	req := a.request()
	req.Stream = true
	stream, err := a.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", nil, err
	}
	defer stream.Close()
	var (
		content strings.Builder
		acc     components.ToolCallAccumulator
	)
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, err
		}
		resp.FromOpenAIStream(&chunk)
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			if _, err := io.WriteString(w, delta.Content); err != nil {
				return "", nil, err
			}
			content.WriteString(delta.Content)
		}
		for _, tc := range delta.ToolCalls {
			acc.Add(tc)
		}
	}
	resp.Rounds++
	return content.String(), acc.Calls(), nil
}

func writeToolCalls(w io.Writer, calls []components.ToolCall) error {
	var sb strings.Builder
	sb.WriteString("\nRunning:\n")
	for _, call := range calls {
		fmt.Fprintf(&sb, " - %s\n", call)
	}
	sb.WriteString("\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// PrintResponse runs the agent and prints the answer to w, streamed or at once.
// The answer text is returned so it can be passed on, e.g. to an evaluator.
func (a *Agent) PrintResponse(ctx context.Context, w io.Writer, query string, stream bool) (string, error) {
	if stream {
		answer, err := a.Stream(ctx, query, w)
		if err != nil {
			return "", err
		}
		if !strings.HasSuffix(answer, "\n") {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return answer, err
			}
		}
		return answer, nil
	}
	answer, resp, err := a.Run(ctx, query)
	if err != nil {
		return "", err
	}
	if a.showToolCalls && len(resp.ToolCalls) > 0 {
		if err := writeToolCalls(w, resp.ToolCalls); err != nil {
			return answer, err
		}
	}
	if _, err := fmt.Fprintln(w, strings.TrimRight(answer, "\n")); err != nil {
		return answer, err
	}
	return answer, nil
}
