package smolagent

//go:generate go run github.com/matryer/moq -out mock/mock.go -pkg mock . Model StreamModel Tool ToolSet ManagedAgent

import (
	"context"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// GenerateRequest is the input of one model call.
type GenerateRequest struct {
	Messages      []ChatMessage
	StopSequences []string

	// ResponseFormat requests structured output, e.g. {"type": "json_object"}. Nil means free text.
	ResponseFormat map[string]any

	// Tools is the catalog of functions the model may call.
	Tools []ToolSpec
}

// Model is the contract a language model backend satisfies.
type Model interface {
	// Generate returns one complete response.
	Generate(ctx context.Context, req *GenerateRequest) (*ChatMessage, error)

	// ParseToolCalls returns msg with structured tool calls. When msg has none, one is extracted from its text content.
	ParseToolCalls(msg *ChatMessage) (*ChatMessage, error)
}

// StreamModel is a Model that can also stream responses. The returned channel is closed after the last delta.
// A delta with Error set is the last one sent.
type StreamModel interface {
	Model
	GenerateStream(ctx context.Context, req *GenerateRequest) (<-chan *StreamDelta, error)
}

const (
	DefaultToolNameKey      = "name"
	DefaultToolArgumentsKey = "arguments"
)

// BaseModel holds the behavior shared by every backend. Backends embed it.
type BaseModel struct {
	// ModelID is the provider model name.
	ModelID string

	// FlattenMessagesAsText makes PrepareMessages send every message as a single text part.
	FlattenMessagesAsText bool

	// ToolNameKey and ToolArgumentsKey are the JSON keys used when a tool call is extracted from text.
	ToolNameKey      string
	ToolArgumentsKey string
}

// NewBaseModel returns a BaseModel with default keys.
func NewBaseModel(modelID string) BaseModel {
	return BaseModel{
		ModelID:          modelID,
		ToolNameKey:      DefaultToolNameKey,
		ToolArgumentsKey: DefaultToolArgumentsKey,
	}
}

// ID returns the model name. The agent reports it in logs and traces.
func (x BaseModel) ID() string {
	return x.ModelID
}

// PrepareMessages cleans messages for the provider wire format.
func (x BaseModel) PrepareMessages(messages []ChatMessage, options ...CleanOption) ([]ChatMessage, error) {
	opts := append([]CleanOption{WithFlattenAsText(x.FlattenMessagesAsText)}, options...)
	return CleanMessages(messages, opts...)
}

// StopSequences returns stops, or nil when the model rejects the stop parameter.
func (x BaseModel) StopSequences(stops []string) []string {
	if !SupportsStopParameter(x.ModelID) {
		return nil
	}
	return stops
}

// ParseToolCalls implements Model.
func (x BaseModel) ParseToolCalls(msg *ChatMessage) (*ChatMessage, error) {
	if msg == nil {
		return nil, goerr.Wrap(ErrInvalidMessage, "message is nil")
	}

	out := *msg
	out.Role = RoleAssistant

	if len(out.ToolCalls) == 0 {
		if !out.HasContent() {
			return nil, goerr.Wrap(ErrInvalidMessage, "Message contains no content and no tool calls")
		}

		nameKey, argsKey := x.ToolNameKey, x.ToolArgumentsKey
		if nameKey == "" {
			nameKey = DefaultToolNameKey
		}
		if argsKey == "" {
			argsKey = DefaultToolArgumentsKey
		}

		call, err := ToolCallFromText(strings.TrimSpace(out.Text()), nameKey, argsKey)
		if err != nil {
			return nil, err
		}
		out.ToolCalls = []ToolCall{call}
		return &out, nil
	}

	calls := make([]ToolCall, len(out.ToolCalls))
	for i, call := range out.ToolCalls {
		call.Arguments = ParseJSONIfNeeded(call.Arguments)
		calls[i] = call
	}
	out.ToolCalls = calls
	return &out, nil
}

var noStopModelPattern = regexp.MustCompile(`^(o3[-\d]*|o4-mini[-\d]*)$`)

// SupportsStopParameter reports whether the model accepts stop sequences. Reasoning models such as o3 and o4-mini
// reject them. A provider prefix such as "openai/" is ignored.
func SupportsStopParameter(modelID string) bool {
	name := modelID
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return !noStopModelPattern.MatchString(name)
}
