package trace_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/smolagent/trace"
)

func TestMultiHandlerFanOut(t *testing.T) {
	rec1 := trace.New()
	rec2 := trace.New()
	multi := trace.Multi(rec1, rec2)

	ctx := context.Background()
	runCtx := multi.StartRun(ctx, "task")

	stepCtx := multi.StartStep(runCtx, trace.SpanKindActionStep, 1)
	modelCtx := multi.StartModelCall(stepCtx)
	multi.EndModelCall(modelCtx, &trace.ModelCallData{InputTokens: 10}, nil)
	multi.AddEvent(stepCtx, "action_output", nil)
	multi.EndStep(stepCtx, &trace.StepData{Number: 1}, nil)

	multi.EndRun(runCtx, &trace.RunData{State: "success"}, nil)

	// Both recorders should have the same structure
	for _, rec := range []*trace.Recorder{rec1, rec2} {
		tr := rec.Trace()
		gt.Value(t, tr).NotNil()
		gt.A(t, tr.RootSpan.Children).Length(1).Required()
		step := tr.RootSpan.Children[0]
		gt.Equal(t, len(step.Children), 2) // model_call + event
		gt.Equal(t, tr.RootSpan.Run.State, "success")
	}

	// recorders do not share spans
	gt.NotEqual(t, rec1.Trace().RootSpan.SpanID, rec2.Trace().RootSpan.SpanID)
}

func TestMultiHandlerToolCall(t *testing.T) {
	rec1 := trace.New()
	rec2 := trace.New()
	multi := trace.Multi(rec1, rec2)

	runCtx := multi.StartRun(context.Background(), "task")
	toolCtx := multi.StartToolCall(runCtx, &trace.ToolCall{ID: "call_1", Name: "search", Arguments: map[string]any{"q": "test"}})
	multi.EndToolCall(toolCtx, "found", nil)
	multi.EndRun(runCtx, nil, nil)

	for _, rec := range []*trace.Recorder{rec1, rec2} {
		tr := rec.Trace()
		gt.Value(t, tr).NotNil()
		gt.A(t, tr.RootSpan.Children).Length(1).Required()
		gt.Equal(t, tr.RootSpan.Children[0].Kind, trace.SpanKindToolCall)
		gt.Equal(t, tr.RootSpan.Children[0].ToolCall.Observation, "found")
	}
}

func TestMultiHandlerManagedAgent(t *testing.T) {
	rec1 := trace.New()
	rec2 := trace.New()
	multi := trace.Multi(rec1, rec2)

	runCtx := multi.StartRun(context.Background(), "task")
	subCtx := multi.StartManagedAgent(runCtx, "child")
	multi.EndManagedAgent(subCtx, errors.New("child failed"))
	multi.EndRun(runCtx, nil, nil)

	for _, rec := range []*trace.Recorder{rec1, rec2} {
		tr := rec.Trace()
		gt.Value(t, tr).NotNil()
		gt.A(t, tr.RootSpan.Children).Length(1).Required()
		gt.Equal(t, tr.RootSpan.Children[0].Kind, trace.SpanKindManagedAgent)
		gt.Equal(t, tr.RootSpan.Children[0].Status, trace.SpanStatusError)
	}
}

type failingFinishHandler struct {
	trace.Recorder
}

func (f *failingFinishHandler) Finish(_ context.Context) error {
	return errors.New("finish failed")
}

func TestMultiHandlerFinishCollectsErrors(t *testing.T) {
	rec := trace.New()
	failing := &failingFinishHandler{}
	multi := trace.Multi(rec, failing)

	err := multi.Finish(context.Background())
	gt.Value(t, err).NotNil()
	gt.S(t, err.Error()).Contains("finish failed")
}

func TestMultiHandlerFinishNoErrors(t *testing.T) {
	rec1 := trace.New()
	rec2 := trace.New()
	multi := trace.Multi(rec1, rec2)

	err := multi.Finish(context.Background())
	gt.NoError(t, err)
}
