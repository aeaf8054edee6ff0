package smolagent

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// MessageRole is the role of a chat message.
type MessageRole string

const (
	RoleSystem       MessageRole = "system"
	RoleUser         MessageRole = "user"
	RoleAssistant    MessageRole = "assistant"
	RoleToolCall     MessageRole = "tool-call"
	RoleToolResponse MessageRole = "tool-response"
)

// DefaultRoleConversions maps the agent-internal tool roles to roles every provider accepts.
var DefaultRoleConversions = map[MessageRole]MessageRole{
	RoleToolCall:     RoleAssistant,
	RoleToolResponse: RoleUser,
}

// ContentType is the type of a message content part.
type ContentType string

const (
	ContentTypeText     ContentType = "text"
	ContentTypeImage    ContentType = "image"
	ContentTypeImageURL ContentType = "image_url"
)

// MessageContent is one part of a chat message.
type MessageContent struct {
	Type ContentType `json:"type"`
	Text string      `json:"text,omitempty"`

	// Image is set for image parts before cleaning.
	Image *Image `json:"image,omitempty"`

	// Base64 holds the encoded image data of a cleaned image part.
	Base64 string `json:"base64,omitempty"`

	// URL holds the inline data URL of a cleaned image_url part.
	URL string `json:"url,omitempty"`
}

// TextContent creates a text content part.
func TextContent(text string) MessageContent {
	return MessageContent{Type: ContentTypeText, Text: text}
}

// ImageContent creates an image content part.
func ImageContent(img Image) MessageContent {
	return MessageContent{Type: ContentTypeImage, Image: &img}
}

// ToolCall is one function invocation requested by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments any    `json:"arguments"`
}

// ToMap returns the tool call in the function-calling wire form {id, type, function: {name, arguments}}.
func (x ToolCall) ToMap() map[string]any {
	return map[string]any{
		"id":   x.ID,
		"type": "function",
		"function": map[string]any{
			"name":      x.Name,
			"arguments": x.Arguments,
		},
	}
}

func (x ToolCall) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", x.ID),
		slog.String("name", x.Name),
		slog.Any("arguments", x.Arguments),
	)
}

// ChatMessage is a message exchanged with the model.
type ChatMessage struct {
	Role       MessageRole      `json:"role"`
	Content    []MessageContent `json:"content,omitempty"`
	ToolCalls  []ToolCall       `json:"tool_calls,omitempty"`
	TokenUsage *TokenUsage      `json:"token_usage,omitempty"`

	// Raw keeps the provider response for debugging. It is not serialized.
	Raw any `json:"-"`
}

// NewTextMessage creates a message with a single text part.
func NewTextMessage(role MessageRole, text string) ChatMessage {
	return ChatMessage{Role: role, Content: []MessageContent{TextContent(text)}}
}

// Text returns the text parts of the message joined by newlines.
func (m ChatMessage) Text() string {
	var texts []string
	for _, c := range m.Content {
		if c.Type == ContentTypeText {
			texts = append(texts, c.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// HasContent reports whether the message has at least one non-empty part.
func (m ChatMessage) HasContent() bool {
	for _, c := range m.Content {
		if c.Type != ContentTypeText || c.Text != "" {
			return true
		}
	}
	return false
}

// ToolCallDelta is a fragment of a tool call in a streamed response.
type ToolCallDelta struct {
	Index     *int   `json:"index,omitempty"`
	ID        string `json:"id,omitempty"`
	Type      string `json:"type,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// StreamDelta is one incremental fragment of a streamed model response.
type StreamDelta struct {
	Content    string          `json:"content,omitempty"`
	ToolCalls  []ToolCallDelta `json:"tool_calls,omitempty"`
	TokenUsage *TokenUsage     `json:"token_usage,omitempty"`

	// Error is set when the stream failed. It is the last value sent on the channel.
	Error error `json:"-"`
}

// AgglomerateStreamDeltas reassembles streamed deltas into one assistant message. Content is concatenated in order,
// tool call fragments are grouped by index (last non-empty id, first non-empty name, concatenated
// arguments; the type is always "function") and token usage is summed.
func AgglomerateStreamDeltas(deltas []*StreamDelta) (*ChatMessage, error) {
	type acc struct {
		id, name string
		args     strings.Builder
	}

	var content strings.Builder
	calls := map[int]*acc{}
	var usage *TokenUsage

	for _, delta := range deltas {
		if delta == nil {
			continue
		}
		if delta.TokenUsage != nil {
			usage = usage.Add(delta.TokenUsage)
		}
		content.WriteString(delta.Content)

		for _, tc := range delta.ToolCalls {
			if tc.Index == nil {
				return nil, goerr.Wrap(ErrInvalidStreamDelta, "tool call delta has no index", goerr.V("delta", tc))
			}
			a, ok := calls[*tc.Index]
			if !ok {
				a = &acc{}
				calls[*tc.Index] = a
			}
			if tc.ID != "" {
				a.id = tc.ID
			}
			if tc.Name != "" && a.name == "" {
				a.name = tc.Name
			}
			a.args.WriteString(tc.Arguments)
		}
	}

	msg := &ChatMessage{
		Role:       RoleAssistant,
		TokenUsage: usage,
	}
	if content.Len() > 0 {
		msg.Content = []MessageContent{TextContent(content.String())}
	}

	indexes := make([]int, 0, len(calls))
	for idx := range calls {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	for _, idx := range indexes {
		a := calls[idx]
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{
			ID:        a.id,
			Name:      a.name,
			Arguments: a.args.String(),
		})
	}

	return msg, nil
}

// toolCallsJSON renders tool calls the way they are shown to the model in the transcript.
func toolCallsJSON(calls []ToolCall) string {
	maps := make([]map[string]any, len(calls))
	for i, c := range calls {
		maps[i] = c.ToMap()
	}
	raw, err := json.MarshalIndent(maps, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(raw)
}
