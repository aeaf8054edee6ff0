package smolagent

import (
	"context"
	"fmt"
	"go/token"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/smolagent/trace"
)

const (
	DefaultMaxSteps = 20
)

// ManagedAgent is an agent that another agent can call like a tool. *Agent implements it.
type ManagedAgent interface {
	Name() string
	Description() string
	Inputs() map[string]*Parameter
	OutputType() ParameterType

	// CallAgent runs the agent on task and returns its report.
	CallAgent(ctx context.Context, task string, additionalArgs map[string]any) (any, error)
}

// Agent runs the multi-step tool calling loop against one model and one catalog of tools and managed agents.
// Runs of one agent are serialized.
type Agent struct {
	model Model
	agentConfig

	tools     []*lazyTool
	memory    *Memory
	monitor   *Monitor
	callbacks *CallbackRegistry
	state     *State

	runMu       sync.Mutex
	interrupted atomic.Bool
}

type agentConfig struct {
	name        string
	description string

	tools         []Tool
	toolSets      []ToolSet
	managedAgents []ManagedAgent

	maxSteps          int
	planningInterval  int
	streamOutputs     bool
	maxToolThreads    int
	instructions      string
	promptTemplates   *PromptTemplates
	finalAnswerChecks []namedCheck
	stepCallbacks     map[StepType][]StepCallback
	provideRunSummary bool
	outputType        ParameterType

	logger       *slog.Logger
	logLevel     LogLevel
	traceHandler trace.Handler
}

// Option is the type for the options of the agent.
type Option func(*agentConfig)

// WithName sets the agent name. The name is required when the agent is used as a managed agent.
func WithName(name string) Option {
	return func(c *agentConfig) {
		c.name = name
	}
}

// WithDescription sets the description shown to a manager agent.
func WithDescription(description string) Option {
	return func(c *agentConfig) {
		c.description = description
	}
}

// WithTools adds tools to the agent.
func WithTools(tools ...Tool) Option {
	return func(c *agentConfig) {
		c.tools = append(c.tools, tools...)
	}
}

// WithToolSets adds tool sets. They are resolved when each run starts.
func WithToolSets(toolSets ...ToolSet) Option {
	return func(c *agentConfig) {
		c.toolSets = append(c.toolSets, toolSets...)
	}
}

// WithManagedAgents adds agents that this agent can delegate tasks to.
func WithManagedAgents(agents ...ManagedAgent) Option {
	return func(c *agentConfig) {
		c.managedAgents = append(c.managedAgents, agents...)
	}
}

// WithMaxSteps sets the maximum number of action steps of a run. Default is 20.
func WithMaxSteps(maxSteps int) Option {
	return func(c *agentConfig) {
		c.maxSteps = maxSteps
	}
}

// WithPlanningInterval enables a planning step every interval action steps, starting with the first one.
func WithPlanningInterval(interval int) Option {
	return func(c *agentConfig) {
		c.planningInterval = interval
	}
}

// WithStreamOutputs makes the agent stream model outputs. The model must implement StreamModel.
func WithStreamOutputs(enabled bool) Option {
	return func(c *agentConfig) {
		c.streamOutputs = enabled
	}
}

// WithMaxToolThreads caps the number of tool calls of one batch running at the same time. Zero means no cap.
func WithMaxToolThreads(n int) Option {
	return func(c *agentConfig) {
		c.maxToolThreads = n
	}
}

// WithInstructions adds custom instructions to the system prompt.
func WithInstructions(instructions string) Option {
	return func(c *agentConfig) {
		c.instructions = instructions
	}
}

// WithPromptTemplates replaces the default prompt templates.
func WithPromptTemplates(templates *PromptTemplates) Option {
	return func(c *agentConfig) {
		c.promptTemplates = templates
	}
}

// WithStepCallback registers a callback for a step type.
// Usage:
//
//	smolagent.WithStepCallback(smolagent.StepTypeAction, func(ctx context.Context, step smolagent.Step, agent *smolagent.Agent) error {
//		println("step done")
//		return nil
//	})
func WithStepCallback(stepType StepType, cb StepCallback) Option {
	return func(c *agentConfig) {
		if c.stepCallbacks == nil {
			c.stepCallbacks = map[StepType][]StepCallback{}
		}
		c.stepCallbacks[stepType] = append(c.stepCallbacks[stepType], cb)
	}
}

// WithProvideRunSummary appends a summary of the agent's work to its report when it runs as a managed agent.
func WithProvideRunSummary(enabled bool) Option {
	return func(c *agentConfig) {
		c.provideRunSummary = enabled
	}
}

// WithOutputType sets the type the final answer is coerced to (string or image).
func WithOutputType(t ParameterType) Option {
	return func(c *agentConfig) {
		c.outputType = t
	}
}

// WithLogger sets the logger of the agent. Default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *agentConfig) {
		c.logger = logger
	}
}

// WithLogLevel sets the severity of agent logs. Default is LogLevelInfo.
func WithLogLevel(level LogLevel) Option {
	return func(c *agentConfig) {
		c.logLevel = level
	}
}

// WithTrace sets a trace handler that receives run, step, model call and tool call events.
func WithTrace(h trace.Handler) Option {
	return func(c *agentConfig) {
		c.traceHandler = h
	}
}

// New creates an agent. It fails when a tool or managed agent is invalid, names collide, or the prompt templates
// are incomplete.
func New(model Model, options ...Option) (*Agent, error) {
	if model == nil {
		return nil, goerr.New("model is required")
	}

	cfg := agentConfig{
		maxSteps: DefaultMaxSteps,
		logger:   slog.New(slog.DiscardHandler),
		logLevel: LogLevelInfo,
	}
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.promptTemplates == nil {
		cfg.promptTemplates = DefaultPromptTemplates()
	}
	cfg.logger = applyLogLevel(cfg.logger, cfg.logLevel)

	if err := validateAgentConfig(model, &cfg); err != nil {
		return nil, err
	}

	a := &Agent{
		model:       model,
		agentConfig: cfg,
		memory:      NewMemory(""),
		monitor:     NewMonitor(modelID(model)),
		callbacks:   NewCallbackRegistry(),
		state:       NewState(),
	}

	hasFinalAnswer := false
	for _, tool := range cfg.tools {
		if tool.Spec().Name == FinalAnswerToolName {
			hasFinalAnswer = true
		}
		a.tools = append(a.tools, &lazyTool{Tool: tool})
	}
	if !hasFinalAnswer {
		a.tools = append(a.tools, &lazyTool{Tool: NewFinalAnswerTool()})
	}

	for stepType, cbs := range cfg.stepCallbacks {
		for _, cb := range cbs {
			a.callbacks.Register(stepType, cb)
		}
	}
	a.callbacks.Register(StepTypeAction, a.monitor.UpdateMetrics)

	a.logger.Info("smolagent agent created",
		"name", a.name,
		"model_id", modelID(model),
		"max_steps", a.maxSteps,
		"planning_interval", a.planningInterval,
		"stream_outputs", a.streamOutputs,
		"max_tool_threads", a.maxToolThreads,
		"tools_count", len(a.tools),
		"tool_sets_count", len(a.toolSets),
		"managed_agents_count", len(a.managedAgents),
		"final_answer_checks_count", len(a.finalAnswerChecks),
		"has_trace", a.traceHandler != nil,
	)

	return a, nil
}

func validateAgentConfig(model Model, cfg *agentConfig) error {
	if cfg.name != "" && !token.IsIdentifier(cfg.name) {
		return goerr.Wrap(ErrInvalidParameter, fmt.Sprintf("Agent name '%s' must be a valid identifier and not a reserved keyword.", cfg.name))
	}
	if cfg.maxSteps < 1 {
		return goerr.Wrap(ErrInvalidParameter, "max steps must be positive", goerr.V("max_steps", cfg.maxSteps))
	}
	if cfg.planningInterval < 0 {
		return goerr.Wrap(ErrInvalidParameter, "planning interval must not be negative", goerr.V("planning_interval", cfg.planningInterval))
	}
	if cfg.streamOutputs {
		if _, ok := model.(StreamModel); !ok {
			return goerr.Wrap(ErrStreamNotSupported, "stream outputs is enabled but the model does not implement GenerateStream")
		}
	}
	if err := cfg.promptTemplates.Validate(); err != nil {
		return err
	}

	names := []string{}
	for _, tool := range cfg.tools {
		spec := tool.Spec()
		if err := spec.Validate(); err != nil {
			return err
		}
		names = append(names, spec.Name)
	}
	for _, agent := range cfg.managedAgents {
		if agent.Name() == "" || agent.Description() == "" {
			return goerr.Wrap(ErrInvalidParameter, "All managed agents need both a name and a description!")
		}
		names = append(names, agent.Name())
	}
	if cfg.name != "" {
		names = append(names, cfg.name)
	}

	if dups := duplicates(names); len(dups) > 0 {
		return goerr.Wrap(ErrToolNameConflict,
			"Each tool or managed agent should have a unique name! You passed these duplicate names: "+strings.Join(dups, ", "),
			goerr.V("duplicates", dups))
	}
	return nil
}

func duplicates(names []string) []string {
	seen := map[string]int{}
	var dups []string
	for _, name := range names {
		seen[name]++
		if seen[name] == 2 {
			dups = append(dups, name)
		}
	}
	return dups
}

func modelID(model Model) string {
	if m, ok := model.(interface{ ID() string }); ok {
		return m.ID()
	}
	return ""
}

// Name returns the agent name.
func (a *Agent) Name() string { return a.name }

// Description returns the agent description.
func (a *Agent) Description() string { return a.description }

// Inputs returns the inputs of the agent when it is called as a managed agent.
func (a *Agent) Inputs() map[string]*Parameter {
	return map[string]*Parameter{
		"task": {
			Type:        TypeString,
			Description: "Long detailed description of the task.",
		},
		"additional_args": {
			Type:        TypeObject,
			Description: "Dictionary of extra inputs to pass to the managed agent, e.g. images, dataframes, or any other contextual data it may need.",
			Nullable:    true,
		},
	}
}

// OutputType returns the output type of the agent when it is called as a managed agent.
func (a *Agent) OutputType() ParameterType { return TypeString }

// Memory returns the memory of the agent.
func (a *Agent) Memory() *Memory { return a.memory }

// Monitor returns the metrics monitor of the agent.
func (a *Agent) Monitor() *Monitor { return a.monitor }

// State returns the variables shared by the steps of a run.
func (a *Agent) State() *State { return a.state }

// Model returns the model of the agent.
func (a *Agent) Model() Model { return a.model }

// Interrupt stops the current run at the start of its next step.
func (a *Agent) Interrupt() {
	a.interrupted.Store(true)
}

// Replay logs the steps of the last run. With detailed, model inputs are logged too.
func (a *Agent) Replay(detailed bool) {
	a.memory.Replay(a.logger, detailed)
}
