// Package logger provides a trace.Handler that writes trace events to a slog.Logger.
package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/smolagent/trace"
)

// Event represents a trace event type that can be selectively enabled.
type Event int

const (
	// Run enables logging of run start/end.
	Run Event = iota
	// Step enables logging of planning and action steps.
	Step
	// ModelRequest enables logging of model request details (messages, tools, stop sequences).
	ModelRequest
	// ModelResponse enables logging of model response details (text, tool calls, token usage).
	ModelResponse
	// ToolCall enables logging of tool calls (name, args, observation, duration).
	ToolCall
	// ManagedAgent enables logging of managed agent start/end.
	ManagedAgent
	// CustomEvent enables logging of custom events.
	CustomEvent

	eventCount
)

type config struct {
	logger *slog.Logger
	events map[Event]bool
}

// Option configures the logger handler.
type Option func(*config)

// WithLogger sets a custom slog.Logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithEvents enables only the specified event types.
// When not specified, all events are enabled.
func WithEvents(events ...Event) Option {
	return func(c *config) {
		c.events = make(map[Event]bool, len(events))
		for _, e := range events {
			c.events[e] = true
		}
	}
}

type handler struct {
	cfg config
}

// New creates a new trace.Handler that logs trace events via slog.
func New(opts ...Option) trace.Handler {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.events == nil {
		cfg.events = make(map[Event]bool, eventCount)
		for i := Event(0); i < eventCount; i++ {
			cfg.events[i] = true
		}
	}

	return &handler{cfg: cfg}
}

func (h *handler) logger() *slog.Logger {
	if h.cfg.logger != nil {
		return h.cfg.logger
	}
	return slog.Default()
}

func (h *handler) enabled(e Event) bool {
	return h.cfg.events[e]
}

type startTimeKey struct{}

func withStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, startTimeKey{}, t)
}

func startTimeFrom(ctx context.Context) time.Time {
	t, _ := ctx.Value(startTimeKey{}).(time.Time)
	return t
}

type spanNameKey struct{}

func withSpanName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, spanNameKey{}, name)
}

func spanNameFrom(ctx context.Context) string {
	name, _ := ctx.Value(spanNameKey{}).(string)
	return name
}

type toolCallKey struct{}

func withToolCall(ctx context.Context, call *trace.ToolCall) context.Context {
	return context.WithValue(ctx, toolCallKey{}, call)
}

func toolCallFrom(ctx context.Context) *trace.ToolCall {
	call, _ := ctx.Value(toolCallKey{}).(*trace.ToolCall)
	if call == nil {
		return &trace.ToolCall{}
	}
	return call
}

func withError(attrs []any, err error) []any {
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	return attrs
}

// StartRun logs the run start.
func (h *handler) StartRun(ctx context.Context, task string) context.Context {
	if h.enabled(Run) {
		h.logger().InfoContext(ctx, "agent run started", slog.String("task", task))
	}
	return withStartTime(ctx, time.Now())
}

// EndRun logs the run end with duration, state and token usage.
func (h *handler) EndRun(ctx context.Context, data *trace.RunData, err error) {
	if !h.enabled(Run) {
		return
	}

	attrs := []any{
		slog.Duration("duration", time.Since(startTimeFrom(ctx))),
	}
	if data != nil {
		attrs = append(attrs,
			slog.String("state", data.State),
			slog.Int("steps", data.Steps),
			slog.Int("input_tokens", data.InputTokens),
			slog.Int("output_tokens", data.OutputTokens),
		)
	}
	h.logger().InfoContext(ctx, "agent run ended", withError(attrs, err)...)
}

// StartStep records the start time and step name.
func (h *handler) StartStep(ctx context.Context, kind trace.SpanKind, number int) context.Context {
	ctx = withStartTime(ctx, time.Now())
	return withSpanName(ctx, string(kind))
}

// EndStep logs the step.
func (h *handler) EndStep(ctx context.Context, data *trace.StepData, err error) {
	if !h.enabled(Step) {
		return
	}

	attrs := []any{
		slog.String("kind", spanNameFrom(ctx)),
		slog.Duration("duration", time.Since(startTimeFrom(ctx))),
	}
	if data != nil {
		attrs = append(attrs,
			slog.Int("number", data.Number),
			slog.Int("input_tokens", data.InputTokens),
			slog.Int("output_tokens", data.OutputTokens),
			slog.Bool("final_answer", data.IsFinalAnswer),
		)
	}
	h.logger().InfoContext(ctx, "agent step", withError(attrs, err)...)
}

// StartModelCall records the start time for duration calculation.
func (h *handler) StartModelCall(ctx context.Context) context.Context {
	return withStartTime(ctx, time.Now())
}

// EndModelCall logs model call details based on enabled events.
// ModelRequest controls request details, ModelResponse controls response details.
// If either is enabled, model and token usage are always included.
func (h *handler) EndModelCall(ctx context.Context, data *trace.ModelCallData, err error) {
	reqEnabled := h.enabled(ModelRequest)
	respEnabled := h.enabled(ModelResponse)
	if !reqEnabled && !respEnabled {
		return
	}

	attrs := []any{
		slog.Duration("duration", time.Since(startTimeFrom(ctx))),
	}

	if data != nil {
		attrs = append(attrs,
			slog.String("model", data.Model),
			slog.Bool("streamed", data.Streamed),
			slog.Int("input_tokens", data.InputTokens),
			slog.Int("output_tokens", data.OutputTokens),
		)

		if reqEnabled && data.Request != nil {
			attrs = append(attrs, slog.Any("request", data.Request))
		}
		if respEnabled && data.Response != nil {
			attrs = append(attrs, slog.Any("response", data.Response))
		}
	}

	h.logger().InfoContext(ctx, "model call", withError(attrs, err)...)
}

// StartToolCall records the start time and tool call for EndToolCall.
func (h *handler) StartToolCall(ctx context.Context, call *trace.ToolCall) context.Context {
	ctx = withStartTime(ctx, time.Now())
	return withToolCall(ctx, call)
}

// EndToolCall logs the tool call.
func (h *handler) EndToolCall(ctx context.Context, observation string, err error) {
	if !h.enabled(ToolCall) {
		return
	}

	call := toolCallFrom(ctx)
	attrs := []any{
		slog.String("id", call.ID),
		slog.String("tool", call.Name),
		slog.Any("args", call.Arguments),
		slog.Duration("duration", time.Since(startTimeFrom(ctx))),
		slog.String("observation", observation),
	}
	h.logger().InfoContext(ctx, "tool call", withError(attrs, err)...)
}

// StartManagedAgent logs the managed agent start and stores the name in context.
func (h *handler) StartManagedAgent(ctx context.Context, name string) context.Context {
	ctx = withStartTime(ctx, time.Now())
	ctx = withSpanName(ctx, name)
	if h.enabled(ManagedAgent) {
		h.logger().InfoContext(ctx, "managed agent started", slog.String("name", name))
	}
	return ctx
}

// EndManagedAgent logs the managed agent end with duration and error info.
func (h *handler) EndManagedAgent(ctx context.Context, err error) {
	if !h.enabled(ManagedAgent) {
		return
	}

	attrs := []any{
		slog.String("name", spanNameFrom(ctx)),
		slog.Duration("duration", time.Since(startTimeFrom(ctx))),
	}
	h.logger().InfoContext(ctx, "managed agent ended", withError(attrs, err)...)
}

// AddEvent logs a custom event.
func (h *handler) AddEvent(ctx context.Context, kind string, data any) {
	if !h.enabled(CustomEvent) {
		return
	}

	h.logger().InfoContext(ctx, "event",
		slog.String("kind", kind),
		slog.Any("data", data),
	)
}

// Finish is a no-op for the logger handler. Persistence is the Recorder's responsibility.
func (h *handler) Finish(_ context.Context) error {
	return nil
}
