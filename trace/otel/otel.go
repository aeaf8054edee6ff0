// Package otel provides an OpenTelemetry trace handler for smolagent.
//
// It bridges agent trace events to OpenTelemetry spans, allowing
// integration with any OTel-compatible backend (Jaeger, Zipkin, OTLP, etc.).
//
// Basic usage with global TracerProvider:
//
//	agent, err := smolagent.New(model, smolagent.WithTrace(otel.New()))
//
// With explicit TracerProvider:
//
//	agent, err := smolagent.New(model, smolagent.WithTrace(
//	    otel.New(otel.WithTracerProvider(tp)),
//	))
package otel

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/smolagent/trace"
	otelAPI "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	otelTrace "go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/m-mizutani/smolagent"
)

// Option is a functional option for configuring the OTel handler.
type Option func(*handler)

// WithTracerProvider sets an explicit TracerProvider.
// If not set, the global TracerProvider is used.
func WithTracerProvider(tp otelTrace.TracerProvider) Option {
	return func(h *handler) {
		h.tracerProvider = tp
	}
}

// handler implements trace.Handler by bridging events to OpenTelemetry spans.
type handler struct {
	tracerProvider otelTrace.TracerProvider
	tracer         otelTrace.Tracer
}

// New creates a new OTel trace handler.
// If no TracerProvider is specified via options, the global TracerProvider is used.
func New(opts ...Option) trace.Handler {
	h := &handler{}
	for _, opt := range opts {
		opt(h)
	}

	if h.tracerProvider == nil {
		h.tracerProvider = otelAPI.GetTracerProvider()
	}
	h.tracer = h.tracerProvider.Tracer(tracerName)

	return h
}

func endSpan(span otelTrace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (h *handler) StartRun(ctx context.Context, task string) context.Context {
	ctx, span := h.tracer.Start(ctx, "agent_run",
		otelTrace.WithSpanKind(otelTrace.SpanKindInternal),
	)
	span.SetAttributes(taskAttr(task))
	return ctx
}

func (h *handler) EndRun(ctx context.Context, data *trace.RunData, err error) {
	span := otelTrace.SpanFromContext(ctx)
	if data != nil {
		span.SetAttributes(
			runStateAttr(data.State),
			inputTokensAttr(data.InputTokens),
			outputTokensAttr(data.OutputTokens),
		)
	}
	endSpan(span, err)
}

func (h *handler) StartStep(ctx context.Context, kind trace.SpanKind, number int) context.Context {
	ctx, span := h.tracer.Start(ctx, fmt.Sprintf("%s:%d", kind, number),
		otelTrace.WithSpanKind(otelTrace.SpanKindInternal),
	)
	span.SetAttributes(stepNumberAttr(number))
	return ctx
}

func (h *handler) EndStep(ctx context.Context, data *trace.StepData, err error) {
	span := otelTrace.SpanFromContext(ctx)
	if data != nil {
		span.SetAttributes(
			inputTokensAttr(data.InputTokens),
			outputTokensAttr(data.OutputTokens),
			finalAnswerAttr(data.IsFinalAnswer),
		)
	}
	endSpan(span, err)
}

func (h *handler) StartModelCall(ctx context.Context) context.Context {
	ctx, _ = h.tracer.Start(ctx, "model_call",
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
	)
	return ctx
}

func (h *handler) EndModelCall(ctx context.Context, data *trace.ModelCallData, err error) {
	span := otelTrace.SpanFromContext(ctx)
	if data != nil {
		span.SetAttributes(
			modelNameAttr(data.Model),
			inputTokensAttr(data.InputTokens),
			outputTokensAttr(data.OutputTokens),
		)
	}
	endSpan(span, err)
}

func (h *handler) StartToolCall(ctx context.Context, call *trace.ToolCall) context.Context {
	if call == nil {
		return ctx
	}
	ctx, span := h.tracer.Start(ctx, fmt.Sprintf("tool:%s", call.Name),
		otelTrace.WithSpanKind(otelTrace.SpanKindInternal),
	)
	span.SetAttributes(toolNameAttr(call.Name), toolCallIDAttr(call.ID))
	if call.Arguments != nil {
		if b, err := json.Marshal(call.Arguments); err == nil {
			span.SetAttributes(toolArgsAttr(string(b)))
		}
	}
	return ctx
}

func (h *handler) EndToolCall(ctx context.Context, observation string, err error) {
	span := otelTrace.SpanFromContext(ctx)
	if observation != "" {
		span.SetAttributes(observationAttr(observation))
	}
	endSpan(span, err)
}

func (h *handler) StartManagedAgent(ctx context.Context, name string) context.Context {
	ctx, _ = h.tracer.Start(ctx, fmt.Sprintf("managed_agent:%s", name),
		otelTrace.WithSpanKind(otelTrace.SpanKindInternal),
	)
	return ctx
}

func (h *handler) EndManagedAgent(ctx context.Context, err error) {
	endSpan(otelTrace.SpanFromContext(ctx), err)
}

func (h *handler) AddEvent(ctx context.Context, kind string, data any) {
	span := otelTrace.SpanFromContext(ctx)
	if data == nil {
		span.AddEvent(kind)
		return
	}
	if b, err := json.Marshal(data); err == nil {
		span.AddEvent(kind, otelTrace.WithAttributes(eventDataAttr(string(b))))
	} else {
		span.AddEvent(kind)
	}
}

func (h *handler) Finish(_ context.Context) error {
	// Spans are exported by the TracerProvider's SpanProcessor.
	return nil
}
