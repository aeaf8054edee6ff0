package otel_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/smolagent/trace"
	traceOtel "github.com/m-mizutani/smolagent/trace/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkTrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestHandler() (trace.Handler, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdkTrace.NewTracerProvider(
		sdkTrace.WithSyncer(exporter),
	)
	h := traceOtel.New(traceOtel.WithTracerProvider(tp))
	return h, exporter
}

func findSpan(spans tracetest.SpanStubs, name string) *tracetest.SpanStub {
	for i := range spans {
		if spans[i].Name == name {
			return &spans[i]
		}
	}
	return nil
}

func attrValue(span *tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestOTelHandlerRun(t *testing.T) {
	h, exporter := setupTestHandler()
	ctx := context.Background()

	ctx = h.StartRun(ctx, "What is 2+2?")
	h.EndRun(ctx, &trace.RunData{State: "success", InputTokens: 30, OutputTokens: 10}, nil)

	spans := exporter.GetSpans()
	gt.Equal(t, len(spans), 1)
	gt.Equal(t, spans[0].Name, "agent_run")

	task, ok := attrValue(&spans[0], "agent.task")
	gt.B(t, ok).True()
	gt.Equal(t, task.AsString(), "What is 2+2?")

	state, ok := attrValue(&spans[0], "agent.run.state")
	gt.B(t, ok).True()
	gt.Equal(t, state.AsString(), "success")
}

func TestOTelHandlerRunWithError(t *testing.T) {
	h, exporter := setupTestHandler()
	ctx := context.Background()

	ctx = h.StartRun(ctx, "task")
	h.EndRun(ctx, nil, errors.New("test error"))

	spans := exporter.GetSpans()
	gt.Equal(t, len(spans), 1)
	gt.Equal(t, len(spans[0].Events), 1) // error event recorded
	gt.Equal(t, spans[0].Status.Description, "test error")
}

func TestOTelHandlerStepAndModelCall(t *testing.T) {
	h, exporter := setupTestHandler()
	ctx := context.Background()

	ctx = h.StartRun(ctx, "task")
	stepCtx := h.StartStep(ctx, trace.SpanKindActionStep, 1)
	modelCtx := h.StartModelCall(stepCtx)
	h.EndModelCall(modelCtx, &trace.ModelCallData{
		Model:        "test-model",
		InputTokens:  100,
		OutputTokens: 50,
	}, nil)
	h.EndStep(stepCtx, &trace.StepData{Number: 1, IsFinalAnswer: true}, nil)
	h.EndRun(ctx, nil, nil)

	spans := exporter.GetSpans()
	gt.Equal(t, len(spans), 3)

	modelSpan := findSpan(spans, "model_call")
	gt.Value(t, modelSpan).NotNil()
	stepSpan := findSpan(spans, "action_step:1")
	gt.Value(t, stepSpan).NotNil()
	if modelSpan == nil || stepSpan == nil {
		return
	}

	gt.Equal(t, modelSpan.Parent.SpanID(), stepSpan.SpanContext.SpanID())
	model, ok := attrValue(modelSpan, "gen_ai.request.model")
	gt.B(t, ok).True()
	gt.Equal(t, model.AsString(), "test-model")

	final, ok := attrValue(stepSpan, "agent.step.final_answer")
	gt.B(t, ok).True()
	gt.B(t, final.AsBool()).True()
}

func TestOTelHandlerToolCall(t *testing.T) {
	h, exporter := setupTestHandler()
	ctx := context.Background()

	ctx = h.StartRun(ctx, "task")
	toolCtx := h.StartToolCall(ctx, &trace.ToolCall{ID: "call_1", Name: "search", Arguments: map[string]any{"query": "test"}})
	h.EndToolCall(toolCtx, "3 results", nil)
	h.EndRun(ctx, nil, nil)

	spans := exporter.GetSpans()
	gt.Equal(t, len(spans), 2)

	toolSpan := findSpan(spans, "tool:search")
	gt.Value(t, toolSpan).NotNil()
	if toolSpan == nil {
		return
	}
	args, ok := attrValue(toolSpan, "tool.args")
	gt.B(t, ok).True()
	gt.Equal(t, args.AsString(), `{"query":"test"}`)

	obs, ok := attrValue(toolSpan, "tool.observation")
	gt.B(t, ok).True()
	gt.Equal(t, obs.AsString(), "3 results")
}

func TestOTelHandlerManagedAgent(t *testing.T) {
	h, exporter := setupTestHandler()
	ctx := context.Background()

	ctx = h.StartRun(ctx, "task")
	subCtx := h.StartManagedAgent(ctx, "child")
	h.EndManagedAgent(subCtx, nil)
	h.EndRun(ctx, nil, nil)

	spans := exporter.GetSpans()
	gt.Equal(t, len(spans), 2)
	gt.Value(t, findSpan(spans, "managed_agent:child")).NotNil()
}

func TestOTelHandlerAddEvent(t *testing.T) {
	h, exporter := setupTestHandler()
	ctx := context.Background()

	ctx = h.StartRun(ctx, "task")

	type testData struct {
		Content string `json:"content"`
	}
	h.AddEvent(ctx, "stream_delta", &testData{Content: "Hel"})
	h.AddEvent(ctx, "final_answer", nil)
	h.EndRun(ctx, nil, nil)

	spans := exporter.GetSpans()
	gt.Equal(t, len(spans), 1)
	gt.Equal(t, len(spans[0].Events), 2)
	gt.Equal(t, spans[0].Events[0].Name, "stream_delta")
	gt.Equal(t, spans[0].Events[1].Name, "final_answer")
}

func TestOTelHandlerFinish(t *testing.T) {
	h, _ := setupTestHandler()
	// Finish should be a no-op and return nil
	gt.NoError(t, h.Finish(context.Background()))
}

func TestOTelHandlerParentChildRelation(t *testing.T) {
	h, exporter := setupTestHandler()
	ctx := context.Background()

	runCtx := h.StartRun(ctx, "task")
	modelCtx := h.StartModelCall(runCtx)
	h.EndModelCall(modelCtx, nil, nil)
	toolCtx := h.StartToolCall(runCtx, &trace.ToolCall{Name: "search"})
	h.EndToolCall(toolCtx, "", nil)
	h.EndRun(runCtx, nil, nil)

	spans := exporter.GetSpans()
	gt.Equal(t, len(spans), 3)

	runSpan := findSpan(spans, "agent_run")
	gt.Value(t, runSpan).NotNil()
	if runSpan == nil {
		return
	}

	for i := range spans {
		if spans[i].Name != "agent_run" {
			gt.Equal(t, spans[i].Parent.SpanID(), runSpan.SpanContext.SpanID())
		}
	}
}
