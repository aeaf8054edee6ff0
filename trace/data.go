package trace

// RunData holds the outcome of a run.
type RunData struct {
	State        string `json:"state"`
	Steps        int    `json:"steps"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// StepData holds data specific to a step span.
type StepData struct {
	Number        int    `json:"number"`
	InputTokens   int    `json:"input_tokens"`
	OutputTokens  int    `json:"output_tokens"`
	IsFinalAnswer bool   `json:"is_final_answer,omitempty"`
	Plan          string `json:"plan,omitempty"`
	Observations  string `json:"observations,omitempty"`
}

// ModelCallData holds data specific to a model call span.
type ModelCallData struct {
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	Model        string `json:"model,omitempty"`
	Streamed     bool   `json:"streamed,omitempty"`

	Request  *ModelRequest  `json:"request"`
	Response *ModelResponse `json:"response"`
}

// ModelRequest represents the request sent to a model.
type ModelRequest struct {
	Messages      []Message  `json:"messages"`
	Tools         []ToolSpec `json:"tools,omitempty"`
	StopSequences []string   `json:"stop_sequences,omitempty"`
}

// ModelResponse represents the response from a model.
type ModelResponse struct {
	Text      string      `json:"text,omitempty"`
	ToolCalls []*ToolCall `json:"tool_calls,omitempty"`
}

// Message represents a chat message in the trace (simplified from smolagent.ChatMessage).
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolSpec represents a tool specification in the trace (simplified from smolagent.ToolSpec).
type ToolSpec struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ToolCall represents a tool call in the trace (simplified from smolagent.ToolCall).
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments any    `json:"arguments,omitempty"`
}

// ToolCallData holds data specific to a tool call span.
type ToolCallData struct {
	ID          string `json:"id"`
	ToolName    string `json:"tool_name"`
	Args        any    `json:"args"`
	Observation string `json:"observation,omitempty"`
	Error       string `json:"error,omitempty"`
}

// EventData holds data specific to a custom event span.
type EventData struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}
