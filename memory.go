package smolagent

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

// StepType is the tag of a memory step variant.
type StepType string

const (
	StepTypeMemory       StepType = "MemoryStep"
	StepTypeSystemPrompt StepType = "SystemPromptStep"
	StepTypeTask         StepType = "TaskStep"
	StepTypePlanning     StepType = "PlanningStep"
	StepTypeAction       StepType = "ActionStep"
	StepTypeFinalAnswer  StepType = "FinalAnswerStep"
)

// Lineage returns the step type followed by its ancestors, most specific first.
func (t StepType) Lineage() []StepType {
	if t == StepTypeMemory {
		return []StepType{StepTypeMemory}
	}
	return []StepType{t, StepTypeMemory}
}

// Step is one entry of the agent memory.
type Step interface {
	StepType() StepType

	// ToMessages renders the step as model input. summaryMode elides the model's own outputs and planning.
	ToMessages(summaryMode bool) []ChatMessage
}

// SystemPromptStep holds the system prompt of the agent.
type SystemPromptStep struct {
	SystemPrompt string `json:"system_prompt"`
}

func (x *SystemPromptStep) StepType() StepType { return StepTypeSystemPrompt }

func (x *SystemPromptStep) ToMessages(summaryMode bool) []ChatMessage {
	if summaryMode {
		return nil
	}
	return []ChatMessage{NewTextMessage(RoleSystem, x.SystemPrompt)}
}

// TaskStep is the task given to the agent.
type TaskStep struct {
	Task   string  `json:"task"`
	Images []Image `json:"images,omitempty"`
}

func (x *TaskStep) StepType() StepType { return StepTypeTask }

func (x *TaskStep) ToMessages(bool) []ChatMessage {
	content := []MessageContent{TextContent("New task:\n" + x.Task)}
	for _, img := range x.Images {
		content = append(content, ImageContent(img))
	}
	return []ChatMessage{{Role: RoleUser, Content: content}}
}

// PlanningStep is a planning turn of the model.
type PlanningStep struct {
	InputMessages []ChatMessage `json:"model_input_messages"`
	OutputMessage *ChatMessage  `json:"model_output_message"`
	Plan          string        `json:"plan"`
	Timing        Timing        `json:"timing"`
	TokenUsage    *TokenUsage   `json:"token_usage,omitempty"`
}

func (x *PlanningStep) StepType() StepType { return StepTypePlanning }

func (x *PlanningStep) ToMessages(summaryMode bool) []ChatMessage {
	if summaryMode {
		return nil
	}
	return []ChatMessage{
		NewTextMessage(RoleAssistant, strings.TrimSpace(x.Plan)),
		NewTextMessage(RoleUser, "Now proceed and carry out this plan."),
	}
}

// ActionStep is one think-act-observe iteration.
type ActionStep struct {
	StepNumber    int           `json:"step_number"`
	Timing        Timing        `json:"timing"`
	InputMessages []ChatMessage `json:"model_input_messages,omitempty"`
	ToolCalls     []ToolCall    `json:"tool_calls,omitempty"`
	Error         *AgentError   `json:"error,omitempty"`
	OutputMessage *ChatMessage  `json:"model_output_message,omitempty"`

	// ErrorCallIDs lists the calls whose execution failed, in id order. It is empty when Error concerns the whole
	// step.
	ErrorCallIDs []string `json:"error_call_ids,omitempty"`

	// OutputText is the text output of the model followed by one summary line per tool call.
	OutputText string `json:"model_output,omitempty"`

	// Observations holds one observation line per tool call in id order.
	Observations      string      `json:"observations,omitempty"`
	ObservationImages []Image     `json:"observations_images,omitempty"`
	ActionOutput      any         `json:"action_output,omitempty"`
	TokenUsage        *TokenUsage `json:"token_usage,omitempty"`
	IsFinalAnswer     bool        `json:"is_final_answer"`
}

func (x *ActionStep) StepType() StepType { return StepTypeAction }

func (x *ActionStep) ToMessages(summaryMode bool) []ChatMessage {
	var messages []ChatMessage

	if x.OutputText != "" && !summaryMode {
		messages = append(messages, NewTextMessage(RoleAssistant, strings.TrimSpace(x.OutputText)))
	}

	if len(x.ToolCalls) > 0 {
		messages = append(messages, NewTextMessage(RoleToolCall, "Calling tools:\n"+toolCallsJSON(x.ToolCalls)))
	}

	if len(x.ObservationImages) > 0 {
		content := make([]MessageContent, len(x.ObservationImages))
		for i, img := range x.ObservationImages {
			content[i] = ImageContent(img)
		}
		messages = append(messages, ChatMessage{Role: RoleUser, Content: content})
	}

	if x.Observations != "" {
		messages = append(messages, NewTextMessage(RoleToolResponse, "Observation:\n"+x.Observations))
	}

	if x.Error != nil {
		text := ""
		switch {
		case len(x.ErrorCallIDs) > 0:
			text = "Call id: " + strings.Join(x.ErrorCallIDs, ", ") + "\n"
		case len(x.ToolCalls) > 0:
			text = "Call id: " + x.ToolCalls[0].ID + "\n"
		}
		text += "Error:\n" + x.Error.Error() +
			"\nNow let's retry: take care not to repeat previous errors! If you have retried several times, try a completely different approach.\n"
		messages = append(messages, NewTextMessage(RoleToolResponse, text))
	}

	return messages
}

// FinalAnswerStep holds the output of a terminated run.
type FinalAnswerStep struct {
	Output AgentType `json:"output"`
}

func (x *FinalAnswerStep) StepType() StepType { return StepTypeFinalAnswer }

func (x *FinalAnswerStep) ToMessages(bool) []ChatMessage { return nil }

func (x *FinalAnswerStep) UnmarshalJSON(data []byte) error {
	var v struct {
		Output json.RawMessage `json:"output"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	var img Image
	if err := json.Unmarshal(v.Output, &img); err == nil && img.MimeType() != "" {
		x.Output = NewAgentImage(img)
		return nil
	}

	var raw any
	if len(v.Output) > 0 {
		if err := json.Unmarshal(v.Output, &raw); err != nil {
			return err
		}
	}
	x.Output = handleAgentOutputTypes(raw, "")
	return nil
}

const (
	// MemoryVersion is the version of the serialized memory format.
	MemoryVersion = 1
)

// Memory is the ordered log of steps of an agent. It is safe for concurrent use.
type Memory struct {
	mu           sync.RWMutex
	systemPrompt *SystemPromptStep
	steps        []Step
}

// NewMemory creates an empty memory with the system prompt.
func NewMemory(systemPrompt string) *Memory {
	return &Memory{systemPrompt: &SystemPromptStep{SystemPrompt: systemPrompt}}
}

// SystemPrompt returns the system prompt step.
func (m *Memory) SystemPrompt() *SystemPromptStep {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.systemPrompt
}

func (m *Memory) setSystemPrompt(prompt string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.systemPrompt = &SystemPromptStep{SystemPrompt: prompt}
}

// Steps returns a snapshot of the steps.
func (m *Memory) Steps() []Step {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Step, len(m.steps))
	copy(out, m.steps)
	return out
}

// Append adds a step at the end of the memory.
func (m *Memory) Append(step Step) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, step)
}

// Reset removes every step and keeps the system prompt.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = nil
}

// ActionSteps returns the action steps in order.
func (m *Memory) ActionSteps() []*ActionStep {
	var out []*ActionStep
	for _, step := range m.Steps() {
		if s, ok := step.(*ActionStep); ok {
			out = append(out, s)
		}
	}
	return out
}

// ToMessages flattens the system prompt and every step into model input messages.
func (m *Memory) ToMessages(summaryMode bool) []ChatMessage {
	messages := m.SystemPrompt().ToMessages(summaryMode)
	for _, step := range m.Steps() {
		messages = append(messages, step.ToMessages(summaryMode)...)
	}
	return messages
}

// FullSteps returns every step as a JSON object. Each object has a "step_type" key.
func (m *Memory) FullSteps() []map[string]any {
	steps := m.Steps()
	out := make([]map[string]any, 0, len(steps))
	for _, step := range steps {
		raw, err := marshalStep(step)
		if err != nil {
			continue
		}
		var v map[string]any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// SuccinctSteps returns FullSteps without the model input messages.
func (m *Memory) SuccinctSteps() []map[string]any {
	steps := m.FullSteps()
	for _, step := range steps {
		delete(step, "model_input_messages")
	}
	return steps
}

// Replay logs the steps of the memory. With detailed, the model input of each step is logged too.
func (m *Memory) Replay(logger *slog.Logger, detailed bool) {
	logger.Info("Replaying the agent's steps:")
	if detailed {
		logger.Info("System prompt", "text", m.SystemPrompt().SystemPrompt)
	}

	for _, step := range m.Steps() {
		switch s := step.(type) {
		case *TaskStep:
			logger.Info("New task", "task", s.Task, "images", len(s.Images))

		case *PlanningStep:
			attrs := []any{"plan", s.Plan}
			if detailed {
				attrs = append(attrs, "input_messages", s.InputMessages)
			}
			logger.Info("Planning step", attrs...)

		case *ActionStep:
			attrs := []any{
				"step", s.StepNumber,
				"output", s.OutputText,
				"observations", s.Observations,
			}
			if detailed {
				attrs = append(attrs, "input_messages", s.InputMessages)
			}
			if s.Error != nil {
				attrs = append(attrs, "error", s.Error.Error())
			}
			logger.Info("Action step", attrs...)

		case *FinalAnswerStep:
			if s.Output != nil {
				logger.Info("Final answer", "output", s.Output.String())
			}
		}
	}
}

type stepEnvelope struct {
	StepType StepType `json:"step_type"`
}

func marshalStep(step Step) ([]byte, error) {
	raw, err := json.Marshal(step)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal step", goerr.V("step_type", step.StepType()))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, goerr.Wrap(err, "failed to decode step", goerr.V("step_type", step.StepType()))
	}
	fields["step_type"], _ = json.Marshal(step.StepType())
	return json.Marshal(fields)
}

func unmarshalStep(raw json.RawMessage) (Step, error) {
	var env stepEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, goerr.Wrap(err, "failed to decode step type")
	}

	var step Step
	switch env.StepType {
	case StepTypeSystemPrompt:
		step = &SystemPromptStep{}
	case StepTypeTask:
		step = &TaskStep{}
	case StepTypePlanning:
		step = &PlanningStep{}
	case StepTypeAction:
		step = &ActionStep{}
	case StepTypeFinalAnswer:
		step = &FinalAnswerStep{}
	default:
		return nil, goerr.New("unknown step type", goerr.V("step_type", env.StepType))
	}

	if err := json.Unmarshal(raw, step); err != nil {
		return nil, goerr.Wrap(err, "failed to decode step", goerr.V("step_type", env.StepType))
	}
	return step, nil
}

type memoryJSON struct {
	Version      int               `json:"version"`
	SystemPrompt string            `json:"system_prompt"`
	Steps        []json.RawMessage `json:"steps"`
}

func (m *Memory) MarshalJSON() ([]byte, error) {
	v := memoryJSON{
		Version:      MemoryVersion,
		SystemPrompt: m.SystemPrompt().SystemPrompt,
		Steps:        []json.RawMessage{},
	}
	for _, step := range m.Steps() {
		raw, err := marshalStep(step)
		if err != nil {
			return nil, err
		}
		v.Steps = append(v.Steps, raw)
	}
	return json.Marshal(v)
}

// UnmarshalJSON restores a memory. It returns ErrMemoryVersionMismatch when the version differs from MemoryVersion.
func (m *Memory) UnmarshalJSON(data []byte) error {
	var v memoryJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Version != MemoryVersion {
		return goerr.Wrap(ErrMemoryVersionMismatch, "unsupported memory version",
			goerr.V("got", v.Version),
			goerr.V("want", MemoryVersion),
		)
	}

	steps := make([]Step, 0, len(v.Steps))
	for _, raw := range v.Steps {
		step, err := unmarshalStep(raw)
		if err != nil {
			return err
		}
		steps = append(steps, step)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.systemPrompt = &SystemPromptStep{SystemPrompt: v.SystemPrompt}
	m.steps = steps
	return nil
}
