package components

import (
	"github.com/rs/xid"
	openai "github.com/sashabaranov/go-openai"
)

// NewTurnID returns a new turn ID.
func NewTurnID() string {
	return xid.New().String()
}

// MessageRole is the role of the message sender (e.g., 'user', 'system', 'tool')
type MessageRole = string

const (
	SystemRole    MessageRole = openai.ChatMessageRoleSystem
	UserRole      MessageRole = openai.ChatMessageRoleUser
	AssistantRole MessageRole = openai.ChatMessageRoleAssistant
	ToolRole      MessageRole = openai.ChatMessageRoleTool
)

// Message  Represents a message in the chat history.
type Message struct {
	content string
	// role is the role of the message sender (e.g., 'user', 'system', 'tool')
	role MessageRole
	//	turnID is Unique identifier for the turn this message belongs to.
	turnID string
	// toolCalls tool calls requested by an assistant message
	toolCalls []ToolCall
	// toolCallID the tool call a tool message answers
	toolCallID string
	// name tool name of a tool message
	name string
}

// NewMessage returns a new Message
func NewMessage(role MessageRole, content string) *Message {
	return &Message{
		role:    role,
		content: content,
	}
}

// NewToolCallsMessage returns an assistant message requesting tool calls
func NewToolCallsMessage(content string, calls []ToolCall) *Message {
	return &Message{
		role:      AssistantRole,
		content:   content,
		toolCalls: calls,
	}
}

// NewToolMessage returns a tool message answering a tool call
func NewToolMessage(callback ToolCallback) *Message {
	return &Message{
		role:       ToolRole,
		content:    callback.Content,
		toolCallID: callback.ID,
		name:       callback.Name,
	}
}

// SetTurnID set message turnID
func (m *Message) SetTurnID(turnID string) *Message {
	m.turnID = turnID
	return m
}

// Role returns message role
func (m Message) Role() MessageRole {
	return m.role
}

// Content returns message content
func (m Message) Content() string {
	return m.content
}

// TurnID returns message turnID
func (m Message) TurnID() string {
	return m.turnID
}

// ToolCalls returns tool calls requested by an assistant message
func (m Message) ToolCalls() []ToolCall {
	return m.toolCalls
}

// ToolCallID returns the tool call answered by a tool message
func (m Message) ToolCallID() string {
	return m.toolCallID
}

// ToOpenAI convert message to openai ChatCompletionMessage
func (m Message) ToOpenAI(dist *openai.ChatCompletionMessage) {
	dist.Role = m.role
	dist.Content = m.content
	if len(m.toolCalls) > 0 {
		dist.ToolCalls = ToolCallsToOpenAI(m.toolCalls)
	}
	if m.toolCallID != "" {
		dist.ToolCallID = m.toolCallID
		dist.Name = m.name
	}
}

// MessagesToOpenAI converts a history to openai messages
func MessagesToOpenAI(messages []Message) []openai.ChatCompletionMessage {
	ret := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		var v openai.ChatCompletionMessage
		msg.ToOpenAI(&v)
		ret = append(ret, v)
	}
	return ret
}
