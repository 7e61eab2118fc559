package components

import (
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// LLMResponse chat provider response
type LLMResponse struct {
	ID        string      `json:"id,omitempty"`
	Role      MessageRole `json:"role,omitempty"`
	Model     string      `json:"model,omitempty"`
	Usage     *LLMUsage   `json:"usage,omitempty"`
	Timestamp int64       `json:"ts,omitempty"`
	// Rounds number of model calls made to produce the response
	Rounds int `json:"rounds,omitempty"`
	// ToolCalls every tool call executed while producing the response
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// FromOpenAI convnert response from openai
func (r *LLMResponse) FromOpenAI(v *openai.ChatCompletionResponse) {
	r.ID = v.ID
	r.Role = AssistantRole
	r.Model = v.Model
	r.Timestamp = v.Created
	if r.Usage == nil {
		r.Usage = new(LLMUsage)
	}
	r.Usage.Merge(&LLMUsage{
		InputTokens:  int64(v.Usage.PromptTokens),
		OutputTokens: int64(v.Usage.CompletionTokens),
	})
	r.Rounds++
}

// FromOpenAIStream records a streamed chunk
func (r *LLMResponse) FromOpenAIStream(v *openai.ChatCompletionStreamResponse) {
	if r.ID == "" {
		r.ID = v.ID
		r.Role = AssistantRole
		r.Model = v.Model
		r.Timestamp = v.Created
	}
	if v.Usage != nil {
		if r.Usage == nil {
			r.Usage = new(LLMUsage)
		}
		r.Usage.Merge(&LLMUsage{
			InputTokens:  int64(v.Usage.PromptTokens),
			OutputTokens: int64(v.Usage.CompletionTokens),
		})
	}
}

// CreatedAt returns the response creation time
func (r LLMResponse) CreatedAt() time.Time {
	return time.Unix(r.Timestamp, 0)
}

type LLMUsage struct {
	InputTokens  int64 `json:"input_tokens,omitempty"`
	OutputTokens int64 `json:"output_tokens,omitempty"`
}

func (u *LLMUsage) Merge(v *LLMUsage) {
	if v == nil {
		return
	}
	u.InputTokens += v.InputTokens
	u.OutputTokens += v.OutputTokens
}
