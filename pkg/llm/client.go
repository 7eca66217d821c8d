package llm

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

// Client defines the LLM operations used by the conversation engine.
type Client interface {
	// Complete sends the request and returns the full response.
	Complete(ctx context.Context, req Request) (*Response, error)
	// CompleteStream sends the request and invokes onChunk for each text
	// delta as it arrives, then returns the accumulated response. A non-nil
	// error from onChunk aborts the stream.
	CompleteStream(ctx context.Context, req Request, onChunk func(chunk string) error) (*Response, error)
	// SupportsToolCalling reports whether the configured model accepts
	// tool definitions. When false, callers fall back to prompt-only flows.
	SupportsToolCalling() bool
	// Model returns the configured model identifier.
	Model() string
}

// Request is a provider-neutral message request.
type Request struct {
	System      string
	Messages    []Message
	Tools       []Tool
	ForceTool   string // when set, the model must call this tool
	MaxTokens   int64
	Temperature *float64
}

// Message is a single conversational turn. Plain text turns carry one text
// block; tool loops carry tool_use and tool_result blocks.
type Message struct {
	Role   string // "user" or "assistant"
	Blocks []ContentBlock
}

// ContentBlock is one block of message or response content.
type ContentBlock struct {
	Type      string // "text", "tool_use" or "tool_result"
	Text      string
	ToolID    string
	ToolName  string
	ToolInput json.RawMessage
	IsError   bool
}

// Tool describes a callable tool with a JSON Schema input contract.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Response is a provider-neutral message response.
type Response struct {
	Blocks     []ContentBlock
	StopReason string
	Usage      TokenUsage
}

// TokenUsage tracks token consumption for a single call.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
}

// Text creates a plain text message with the given role.
func Text(role, content string) Message {
	return Message{Role: role, Blocks: []ContentBlock{{Type: "text", Text: content}}}
}

// UserText creates a plain user message.
func UserText(content string) Message { return Text("user", content) }

// AssistantText creates a plain assistant message.
func AssistantText(content string) Message { return Text("assistant", content) }

// ToolResult creates a user message carrying a single tool result.
func ToolResult(toolID, content string, isError bool) Message {
	return Message{Role: "user", Blocks: []ContentBlock{{
		Type:    "tool_result",
		ToolID:  toolID,
		Text:    content,
		IsError: isError,
	}}}
}

// Text returns the concatenated text blocks of the response.
func (r *Response) Text() string {
	var sb strings.Builder
	for _, b := range r.Blocks {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// ToolUses returns the tool_use blocks of the response.
func (r *Response) ToolUses() []ContentBlock {
	var uses []ContentBlock
	for _, b := range r.Blocks {
		if b.Type == "tool_use" {
			uses = append(uses, b)
		}
	}
	return uses
}

// AsMessage converts the response into an assistant message so tool loops
// can append it to the running conversation.
func (r *Response) AsMessage() Message {
	return Message{Role: "assistant", Blocks: r.Blocks}
}

// LogUsage logs token usage with structured fields.
func (u TokenUsage) LogUsage(model, phase string) {
	zap.L().Info("token usage",
		zap.String("model", model),
		zap.String("phase", phase),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
	)
}
