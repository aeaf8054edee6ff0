package smolagent

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrInvalidTool           = errors.New("invalid tool specification")
	ErrInvalidParameter      = errors.New("invalid parameter")
	ErrToolNameConflict      = errors.New("tool name conflict")
	ErrInvalidPromptTemplate = errors.New("invalid prompt template")
	ErrStreamNotSupported    = errors.New("model does not support streaming")
	ErrMemoryVersionMismatch = errors.New("memory version mismatch")
	ErrInvalidMessage        = errors.New("invalid chat message")
	ErrInvalidStreamDelta    = errors.New("invalid stream delta")
)

// Agent error taxonomy. Every *AgentError matches ErrAgent with errors.Is, and the
// tool call / tool execution kinds also match ErrExecution.
var (
	ErrAgent         = errors.New("agent error")
	ErrGeneration    = errors.New("agent generation error")
	ErrParsing       = errors.New("agent parsing error")
	ErrExecution     = errors.New("agent execution error")
	ErrToolCall      = errors.New("agent tool call error")
	ErrToolExecution = errors.New("agent tool execution error")
	ErrMaxSteps      = errors.New("agent max steps error")
)

var errorKindParent = map[error]error{
	ErrGeneration:    ErrAgent,
	ErrParsing:       ErrAgent,
	ErrExecution:     ErrAgent,
	ErrToolCall:      ErrExecution,
	ErrToolExecution: ErrExecution,
	ErrMaxSteps:      ErrAgent,
}

var errorKindName = map[error]string{
	ErrAgent:         "AgentError",
	ErrGeneration:    "AgentGenerationError",
	ErrParsing:       "AgentParsingError",
	ErrExecution:     "AgentExecutionError",
	ErrToolCall:      "AgentToolCallError",
	ErrToolExecution: "AgentToolExecutionError",
	ErrMaxSteps:      "AgentMaxStepsError",
}

// AgentError is an error raised inside the agent loop. Its message is what the model sees as an observation.
type AgentError struct {
	kind    error
	message string
	cause   error
}

// newAgentError builds an AgentError of the given kind and logs it at error level.
func newAgentError(ctx context.Context, kind error, message string, cause error) *AgentError {
	if _, ok := errorKindName[kind]; !ok {
		kind = ErrAgent
	}
	e := &AgentError{kind: kind, message: message, cause: cause}
	LoggerFromContext(ctx).Error(message, "type", e.TypeName())
	return e
}

// NewAgentError creates an AgentError of the given kind. kind must be one of the agent error sentinels; anything else is treated as ErrAgent.
func NewAgentError(ctx context.Context, kind error, message string) *AgentError {
	return newAgentError(ctx, kind, message, nil)
}

func (e *AgentError) Error() string {
	return e.message
}

// Kind returns the sentinel error identifying the class of the error.
func (e *AgentError) Kind() error {
	return e.kind
}

// TypeName returns the serialized name of the error class, e.g. "AgentToolCallError".
func (e *AgentError) TypeName() string {
	return errorKindName[e.kind]
}

func (e *AgentError) Unwrap() error {
	return e.cause
}

// Is reports whether target is the kind of e or one of its ancestors in the taxonomy.
func (e *AgentError) Is(target error) bool {
	for k := e.kind; k != nil; k = errorKindParent[k] {
		if k == target {
			return true
		}
	}
	return false
}

// MarshalJSON serializes the error as {"type": ..., "message": ...}.
func (e *AgentError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"type":    e.TypeName(),
		"message": e.message,
	})
}

// UnmarshalJSON restores an error serialized by MarshalJSON.
func (e *AgentError) UnmarshalJSON(data []byte) error {
	var v struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	e.kind = ErrAgent
	for kind, name := range errorKindName {
		if name == v.Type {
			e.kind = kind
			break
		}
	}
	e.message = v.Message
	return nil
}
