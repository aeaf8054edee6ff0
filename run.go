package smolagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smolagent/trace"
)

// RunState is the outcome of a run.
type RunState string

const (
	RunStateSuccess       RunState = "success"
	RunStateMaxStepsError RunState = "max_steps_error"
)

// RunResult is the full result of a run.
type RunResult struct {
	Output AgentType
	State  RunState

	// Messages is the full transcript of the run, one map per memory step.
	Messages []map[string]any

	// TokenUsage is nil when a step did not report usage.
	TokenUsage *TokenUsage
	Timing     Timing
}

// RunOption configures one run.
type RunOption func(*runConfig)

type runConfig struct {
	reset          bool
	images         []Image
	additionalArgs map[string]any
	maxSteps       int
}

// WithReset controls whether memory and metrics are cleared before the run. Default is true.
func WithReset(reset bool) RunOption {
	return func(c *runConfig) {
		c.reset = reset
	}
}

// WithImages attaches images to the task.
func WithImages(images ...Image) RunOption {
	return func(c *runConfig) {
		c.images = append(c.images, images...)
	}
}

// WithAdditionalArgs stores args in the state and lists them in the task.
func WithAdditionalArgs(args map[string]any) RunOption {
	return func(c *runConfig) {
		c.additionalArgs = args
	}
}

// WithRunMaxSteps overrides the maximum number of steps for one run.
func WithRunMaxSteps(maxSteps int) RunOption {
	return func(c *runConfig) {
		c.maxSteps = maxSteps
	}
}

// EventType is the kind of an Event emitted by RunStream.
type EventType string

const (
	EventStreamDelta  EventType = "stream_delta"
	EventToolCall     EventType = "tool_call"
	EventToolOutput   EventType = "tool_output"
	EventActionOutput EventType = "action_output"
	EventPlanningStep EventType = "planning_step"
	EventActionStep   EventType = "action_step"
	EventFinalAnswer  EventType = "final_answer"
	EventError        EventType = "error"
)

// ToolOutput is the outcome of one executed tool call.
type ToolOutput struct {
	ID            string
	Output        any
	IsFinalAnswer bool
	Observation   string
	ToolCall      ToolCall
	Error         *AgentError
}

// ActionOutput is the outcome of one action step.
type ActionOutput struct {
	Output        any
	IsFinalAnswer bool
}

// Event is one item of a streamed run. Exactly one payload field is set, matching Type.
type Event struct {
	Type         EventType
	Delta        *StreamDelta
	ToolCall     *ToolCall
	ToolOutput   *ToolOutput
	ActionOutput *ActionOutput
	Step         Step
	FinalAnswer  AgentType

	// Error is set for EventError. It is the last event of the stream.
	Error error
}

// run holds the state of one execution of the agent loop.
type run struct {
	agent      *Agent
	task       string
	images     []Image
	maxSteps   int
	catalog    *toolCatalog
	stepNumber int
	emit       func(ctx context.Context, ev *Event) error
}

// Run executes the task and returns the full result.
func (a *Agent) Run(ctx context.Context, task string, opts ...RunOption) (*RunResult, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	start := time.Now()
	ctx, r, err := a.prepare(ctx, task, opts)
	if err != nil {
		return nil, err
	}

	output, err := r.execute(ctx)
	if err != nil {
		return nil, err
	}
	return a.result(output, start), nil
}

// Execute executes the task and returns the final answer only.
func (a *Agent) Execute(ctx context.Context, task string, opts ...RunOption) (AgentType, error) {
	result, err := a.Run(ctx, task, opts...)
	if err != nil {
		return nil, err
	}
	return result.Output, nil
}

// RunStream executes the task in the background and streams its events. The channel is closed after the
// EventFinalAnswer or EventError event. Cancel ctx to stop consuming early.
func (a *Agent) RunStream(ctx context.Context, task string, opts ...RunOption) (<-chan *Event, error) {
	a.runMu.Lock()

	ctx, r, err := a.prepare(ctx, task, opts)
	if err != nil {
		a.runMu.Unlock()
		return nil, err
	}

	ch := make(chan *Event)
	r.emit = func(ctx context.Context, ev *Event) error {
		select {
		case ch <- ev:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	go func() {
		defer close(ch)
		defer a.runMu.Unlock()

		if _, err := r.execute(ctx); err != nil {
			select {
			case ch <- &Event{Type: EventError, Error: err}:
			case <-ctx.Done():
			}
		}
	}()

	return ch, nil
}

// prepare binds the logger and tracer to ctx, builds the catalog and records the task step.
func (a *Agent) prepare(ctx context.Context, task string, opts []RunOption) (context.Context, *run, error) {
	cfg := runConfig{reset: true, maxSteps: a.maxSteps}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxSteps < 1 {
		return nil, nil, goerr.Wrap(ErrInvalidParameter, "max steps must be positive", goerr.V("max_steps", cfg.maxSteps))
	}

	logger := a.logger.With("smolagent.request_id", uuid.New().String())
	if a.name != "" {
		logger = logger.With("agent", a.name)
	}
	ctx = ctxWithLogger(ctx, logger)
	if trace.HandlerFrom(ctx) == nil && a.traceHandler != nil {
		ctx = trace.WithHandler(ctx, a.traceHandler)
	}

	a.interrupted.Store(false)

	if len(cfg.additionalArgs) > 0 {
		a.state.Merge(cfg.additionalArgs)
		raw, err := json.Marshal(cfg.additionalArgs)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to marshal additional args")
		}
		task += fmt.Sprintf("\nYou have been provided with these additional arguments, that you can access using the keys as variables in your python code:\n%s.", raw)
	}

	catalog, err := a.buildCatalog(ctx)
	if err != nil {
		return nil, nil, err
	}

	systemPrompt, err := renderPrompt("system_prompt", a.promptTemplates.SystemPrompt, PromptData{
		Tools:              catalog.tools,
		ManagedAgents:      catalog.managedAgents,
		CustomInstructions: a.instructions,
	})
	if err != nil {
		return nil, nil, err
	}
	a.memory.setSystemPrompt(systemPrompt)

	if cfg.reset {
		a.memory.Reset()
		a.monitor.Reset()
	}

	logger.Info("New run", "task", task, "model_id", modelID(a.model))
	a.memory.Append(&TaskStep{Task: task, Images: cfg.images})

	r := &run{
		agent:    a,
		task:     task,
		images:   cfg.images,
		maxSteps: cfg.maxSteps,
		catalog:  catalog,
	}
	return ctx, r, nil
}

func (r *run) send(ctx context.Context, ev *Event) error {
	if r.emit == nil {
		return nil
	}
	return r.emit(ctx, ev)
}

// ownsTrace reports whether this run opens the trace. A run nested in a managed agent call records its steps
// under the caller's span instead.
func (r *run) ownsTrace(ctx context.Context) bool {
	return r.agent.traceHandler != nil && trace.HandlerFrom(ctx) == r.agent.traceHandler && !nestedRun(ctx)
}

type nestedRunKey struct{}

func nestedRun(ctx context.Context) bool {
	v, _ := ctx.Value(nestedRunKey{}).(bool)
	return v
}

// execute drives the loop until a final answer, a fatal error or the step budget is exhausted.
func (r *run) execute(ctx context.Context) (output AgentType, err error) {
	a := r.agent
	logger := LoggerFromContext(ctx)
	handler := trace.HandlerFrom(ctx)

	if r.ownsTrace(ctx) {
		ctx = handler.StartRun(ctx, r.task)
		defer func() {
			handler.EndRun(ctx, r.runData(), err)
			if finishErr := handler.Finish(ctx); finishErr != nil {
				logger.Warn("failed to finish trace", "error", finishErr)
			}
		}()
	}
	ctx = context.WithValue(ctx, nestedRunKey{}, true)

	var finalAnswer any
	returned := false
	r.stepNumber = 1

	for !returned && r.stepNumber <= r.maxSteps {
		if a.interrupted.Load() {
			return nil, newAgentError(ctx, ErrAgent, "Agent was interrupted.", nil)
		}

		if a.planningInterval > 0 && (r.stepNumber == 1 || (r.stepNumber-1)%a.planningInterval == 0) {
			if err := r.runPlanningStep(ctx); err != nil {
				return nil, err
			}
		}

		logger.Info("Step started", "step", r.stepNumber)
		step := &ActionStep{
			StepNumber:        r.stepNumber,
			Timing:            NewTiming(time.Now()),
			ObservationImages: r.images,
		}

		stepCtx := ctx
		if handler != nil {
			stepCtx = handler.StartStep(ctx, trace.SpanKindActionStep, r.stepNumber)
		}

		out, stepErr := r.actionStep(stepCtx, step)
		if stepErr == nil && out.IsFinalAnswer {
			if checkErr := r.validateFinalAnswer(stepCtx, out.Output); checkErr != nil {
				stepErr = checkErr
			} else {
				finalAnswer = out.Output
				returned = true
				step.IsFinalAnswer = true
			}
		}

		var fatal error
		if stepErr != nil {
			var agentErr *AgentError
			if errors.As(stepErr, &agentErr) && !errors.Is(agentErr, ErrGeneration) {
				step.Error = agentErr
			} else {
				fatal = stepErr
			}
		}

		cbErr := r.finalizeStep(stepCtx, step)
		if handler != nil {
			handler.EndStep(stepCtx, actionStepData(step), stepErr)
		}
		a.memory.Append(step)
		if err := r.send(ctx, &Event{Type: EventActionStep, Step: step}); err != nil {
			return nil, err
		}
		r.stepNumber++

		if fatal != nil {
			return nil, fatal
		}
		if cbErr != nil {
			return nil, cbErr
		}
	}

	if !returned && r.stepNumber == r.maxSteps+1 {
		answer, err := r.handleMaxStepsReached(ctx)
		if err != nil {
			return nil, err
		}
		finalAnswer = answer
	}

	output = handleAgentOutputTypes(finalAnswer, a.outputType)
	a.memory.Append(&FinalAnswerStep{Output: output})
	if err := r.send(ctx, &Event{Type: EventFinalAnswer, FinalAnswer: output}); err != nil {
		return nil, err
	}
	logger.Info("Final answer", "output", output.String())
	return output, nil
}

// finalizeStep stamps the end time and runs the step callbacks.
func (r *run) finalizeStep(ctx context.Context, step Step) error {
	switch s := step.(type) {
	case *ActionStep:
		s.Timing.End(time.Now())
	case *PlanningStep:
		s.Timing.End(time.Now())
	}
	if err := r.agent.callbacks.Callback(ctx, step, r.agent); err != nil {
		return goerr.Wrap(err, "step callback failed", goerr.V("step_type", step.StepType()))
	}
	return nil
}

func (r *run) validateFinalAnswer(ctx context.Context, answer any) error {
	for _, check := range r.agent.finalAnswerChecks {
		if err := check.run(ctx, answer, r.agent.memory); err != nil {
			return err
		}
	}
	return nil
}

// handleMaxStepsReached asks the model for an answer from the transcript and records a failed step.
func (r *run) handleMaxStepsReached(ctx context.Context) (any, error) {
	start := time.Now()
	msg := r.provideFinalAnswer(ctx)

	step := &ActionStep{
		StepNumber:   r.stepNumber,
		Timing:       NewTiming(start),
		Error:        newAgentError(ctx, ErrMaxSteps, "Reached max steps.", nil),
		TokenUsage:   msg.TokenUsage,
		ActionOutput: msg.Text(),
	}
	cbErr := r.finalizeStep(ctx, step)
	r.agent.memory.Append(step)
	if err := r.send(ctx, &Event{Type: EventActionStep, Step: step}); err != nil {
		return nil, err
	}
	if cbErr != nil {
		return nil, cbErr
	}
	return msg.Text(), nil
}

// provideFinalAnswer never fails: a model error becomes the answer text.
func (r *run) provideFinalAnswer(ctx context.Context) *ChatMessage {
	a := r.agent
	tmpl := a.promptTemplates.FinalAnswer

	pre, err := renderPrompt("final_answer.pre_messages", tmpl.PreMessages, PromptData{Task: r.task})
	if err != nil {
		return &ChatMessage{Role: RoleAssistant, Content: []MessageContent{TextContent("Error in generating final LLM output: " + err.Error())}}
	}
	post, err := renderPrompt("final_answer.post_messages", tmpl.PostMessages, PromptData{Task: r.task})
	if err != nil {
		return &ChatMessage{Role: RoleAssistant, Content: []MessageContent{TextContent("Error in generating final LLM output: " + err.Error())}}
	}

	system := ChatMessage{Role: RoleSystem, Content: []MessageContent{TextContent(pre)}}
	for _, img := range r.images {
		system.Content = append(system.Content, ImageContent(img))
	}

	history := a.memory.ToMessages(false)
	messages := []ChatMessage{system}
	if len(history) > 1 {
		messages = append(messages, history[1:]...)
	}
	messages = append(messages, NewTextMessage(RoleUser, post))

	msg, err := r.generate(ctx, &GenerateRequest{Messages: messages}, false)
	if err != nil {
		return &ChatMessage{Role: RoleAssistant, Content: []MessageContent{TextContent("Error in generating final LLM output: " + err.Error())}}
	}
	return msg
}

func (r *run) runData() *trace.RunData {
	data := &trace.RunData{State: string(RunStateSuccess), Steps: r.stepNumber - 1}
	if usage := r.agent.totalTokenUsage(); usage != nil {
		data.InputTokens = usage.InputTokens
		data.OutputTokens = usage.OutputTokens
	}
	if r.agent.runState() == RunStateMaxStepsError {
		data.State = string(RunStateMaxStepsError)
	}
	return data
}

func (a *Agent) result(output AgentType, start time.Time) *RunResult {
	timing := NewTiming(start)
	timing.End(time.Now())
	return &RunResult{
		Output:     output,
		State:      a.runState(),
		Messages:   a.memory.FullSteps(),
		TokenUsage: a.totalTokenUsage(),
		Timing:     timing,
	}
}

// runState inspects the last step before the final answer.
func (a *Agent) runState() RunState {
	steps := a.memory.Steps()
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i].StepType() == StepTypeFinalAnswer {
			continue
		}
		if action, ok := steps[i].(*ActionStep); ok && action.Error != nil && errors.Is(action.Error, ErrMaxSteps) {
			return RunStateMaxStepsError
		}
		break
	}
	return RunStateSuccess
}

// totalTokenUsage sums action and planning steps. It is nil if one of them did not report usage.
func (a *Agent) totalTokenUsage() *TokenUsage {
	var total *TokenUsage
	for _, step := range a.memory.Steps() {
		var usage *TokenUsage
		switch s := step.(type) {
		case *ActionStep:
			usage = s.TokenUsage
		case *PlanningStep:
			usage = s.TokenUsage
		default:
			continue
		}
		if usage == nil {
			return nil
		}
		total = total.Add(usage)
	}
	if total == nil {
		return NewTokenUsage(0, 0)
	}
	return total
}

func actionStepData(step *ActionStep) *trace.StepData {
	data := &trace.StepData{
		Number:        step.StepNumber,
		IsFinalAnswer: step.IsFinalAnswer,
		Observations:  step.Observations,
	}
	if step.TokenUsage != nil {
		data.InputTokens = step.TokenUsage.InputTokens
		data.OutputTokens = step.TokenUsage.OutputTokens
	}
	return data
}
