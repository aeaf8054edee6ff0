package trace

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Option is a functional option for configuring a Recorder.
type Option func(*Recorder)

// WithRepository sets the repository for persisting trace data.
func WithRepository(repo Repository) Option {
	return func(r *Recorder) {
		r.repo = repo
	}
}

// WithMetadata sets the metadata for the trace.
func WithMetadata(meta TraceMetadata) Option {
	return func(r *Recorder) {
		r.metadata = meta
	}
}

// WithTraceID sets a custom trace ID.
// If not set or set to an empty string, a UUID v7 is generated automatically.
func WithTraceID(id string) Option {
	return func(r *Recorder) {
		r.traceID = id
	}
}

// Recorder collects tracing data during an agent run into an in-memory Trace structure.
// It implements the Handler interface and provides access to the collected Trace via Trace().
type Recorder struct {
	trace    *Trace
	mu       sync.Mutex
	repo     Repository
	metadata TraceMetadata
	traceID  string
}

// New creates a new Recorder with the given options.
func New(opts ...Option) *Recorder {
	r := &Recorder{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// context key types
type handlerKey struct{}
type currentSpanKey struct{}

// WithHandler stores the Handler in the context.
func WithHandler(ctx context.Context, h Handler) context.Context {
	return context.WithValue(ctx, handlerKey{}, h)
}

// HandlerFrom retrieves the Handler from the context. Returns nil if not set.
func HandlerFrom(ctx context.Context) Handler {
	h, _ := ctx.Value(handlerKey{}).(Handler)
	return h
}

func withCurrentSpan(ctx context.Context, span *Span) context.Context {
	return context.WithValue(ctx, currentSpanKey{}, span)
}

func currentSpanFrom(ctx context.Context) *Span {
	s, _ := ctx.Value(currentSpanKey{}).(*Span)
	return s
}

func newSpanID() string {
	return uuid.New().String()
}

// StartRun starts the root run span.
func (r *Recorder) StartRun(ctx context.Context, task string) context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	span := &Span{
		SpanID:    newSpanID(),
		Kind:      SpanKindRun,
		Name:      "run",
		StartedAt: now,
		Status:    SpanStatusOK,
		Event:     &EventData{Kind: "task", Data: task},
	}

	traceID := r.traceID
	if traceID == "" {
		traceID = uuid.Must(uuid.NewV7()).String()
	}

	r.trace = &Trace{
		TraceID:   traceID,
		RootSpan:  span,
		Metadata:  r.metadata,
		StartedAt: now,
	}

	return withCurrentSpan(ctx, span)
}

// EndRun ends the root run span.
func (r *Recorder) EndRun(ctx context.Context, data *RunData, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	span := currentSpanFrom(ctx)
	if span == nil || span.Kind != SpanKindRun {
		return
	}

	now := endSpan(span, err)
	span.Run = data
	if r.trace != nil {
		r.trace.EndedAt = now
	}
}

// StartStep starts a step span as a child of the current span.
func (r *Recorder) StartStep(ctx context.Context, kind SpanKind, number int) context.Context {
	return r.startChildSpan(ctx, kind, fmt.Sprintf("%s:%d", kind, number), nil)
}

// EndStep ends the step span with the given data.
func (r *Recorder) EndStep(ctx context.Context, data *StepData, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	span := currentSpanFrom(ctx)
	if span == nil || (span.Kind != SpanKindPlanningStep && span.Kind != SpanKindActionStep) {
		return
	}

	endSpan(span, err)
	span.Step = data
}

// StartModelCall starts a model_call span as a child of the current span.
func (r *Recorder) StartModelCall(ctx context.Context) context.Context {
	return r.startChildSpan(ctx, SpanKindModelCall, "model_call", nil)
}

// EndModelCall ends the model_call span with the given data.
func (r *Recorder) EndModelCall(ctx context.Context, data *ModelCallData, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	span := currentSpanFrom(ctx)
	if span == nil || span.Kind != SpanKindModelCall {
		return
	}

	endSpan(span, err)
	span.ModelCall = data
}

// StartToolCall starts a tool_call span as a child of the current span.
func (r *Recorder) StartToolCall(ctx context.Context, call *ToolCall) context.Context {
	if call == nil {
		return ctx
	}
	return r.startChildSpan(ctx, SpanKindToolCall, call.Name, func(span *Span) {
		span.ToolCall = &ToolCallData{
			ID:       call.ID,
			ToolName: call.Name,
			Args:     call.Arguments,
		}
	})
}

// EndToolCall ends the tool_call span with the observation.
func (r *Recorder) EndToolCall(ctx context.Context, observation string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	span := currentSpanFrom(ctx)
	if span == nil || span.Kind != SpanKindToolCall {
		return
	}

	endSpan(span, err)
	if span.ToolCall != nil {
		span.ToolCall.Observation = observation
		if err != nil {
			span.ToolCall.Error = err.Error()
		}
	}
}

// StartManagedAgent starts a managed_agent span as a child of the current span.
func (r *Recorder) StartManagedAgent(ctx context.Context, name string) context.Context {
	return r.startChildSpan(ctx, SpanKindManagedAgent, name, nil)
}

// EndManagedAgent ends the managed_agent span.
func (r *Recorder) EndManagedAgent(ctx context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	span := currentSpanFrom(ctx)
	if span == nil || span.Kind != SpanKindManagedAgent {
		return
	}
	endSpan(span, err)
}

// AddEvent adds an event span as a child of the current span.
func (r *Recorder) AddEvent(ctx context.Context, kind string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	parent := currentSpanFrom(ctx)
	if parent == nil {
		return
	}

	now := time.Now()
	parent.Children = append(parent.Children, &Span{
		SpanID:    newSpanID(),
		ParentID:  parent.SpanID,
		Kind:      SpanKindEvent,
		Name:      kind,
		StartedAt: now,
		EndedAt:   now,
		Status:    SpanStatusOK,
		Event: &EventData{
			Kind: kind,
			Data: data,
		},
	})
}

// Finish completes the trace and persists it to the Repository.
func (r *Recorder) Finish(ctx context.Context) error {
	r.mu.Lock()
	trace := r.trace
	repo := r.repo
	r.mu.Unlock()

	if trace == nil || repo == nil {
		return nil
	}

	return repo.Save(ctx, trace)
}

// Trace returns the current trace data. Returns nil if no trace is active.
func (r *Recorder) Trace() *Trace {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trace
}

func (r *Recorder) startChildSpan(ctx context.Context, kind SpanKind, name string, init func(*Span)) context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()

	parent := currentSpanFrom(ctx)
	if parent == nil {
		return ctx
	}

	span := &Span{
		SpanID:    newSpanID(),
		ParentID:  parent.SpanID,
		Kind:      kind,
		Name:      name,
		StartedAt: time.Now(),
		Status:    SpanStatusOK,
	}
	if init != nil {
		init(span)
	}

	parent.Children = append(parent.Children, span)
	return withCurrentSpan(ctx, span)
}

// endSpan stamps the end time and error of span. It must be called with the lock held.
func endSpan(span *Span, err error) time.Time {
	now := time.Now()
	span.EndedAt = now
	span.Duration = now.Sub(span.StartedAt)
	if err != nil {
		span.Status = SpanStatusError
		span.Error = err.Error()
	}
	return now
}
