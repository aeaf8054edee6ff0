package trace

import "context"

// Handler is the interface for trace backends.
// Implementations receive lifecycle events during an agent run
// and can record, export, or forward them as needed.
type Handler interface {
	// StartRun starts the root run span.
	StartRun(ctx context.Context, task string) context.Context
	// EndRun ends the root run span.
	EndRun(ctx context.Context, data *RunData, err error)

	// StartStep starts a planning or action step span.
	StartStep(ctx context.Context, kind SpanKind, number int) context.Context
	// EndStep ends a step span with the given data.
	EndStep(ctx context.Context, data *StepData, err error)

	// StartModelCall starts a model call span.
	StartModelCall(ctx context.Context) context.Context
	// EndModelCall ends a model call span with the given data.
	EndModelCall(ctx context.Context, data *ModelCallData, err error)

	// StartToolCall starts a tool call span.
	StartToolCall(ctx context.Context, call *ToolCall) context.Context
	// EndToolCall ends a tool call span with the observation.
	EndToolCall(ctx context.Context, observation string, err error)

	// StartManagedAgent starts a managed agent span.
	StartManagedAgent(ctx context.Context, name string) context.Context
	// EndManagedAgent ends a managed agent span.
	EndManagedAgent(ctx context.Context, err error)

	// AddEvent adds an event to the current span.
	AddEvent(ctx context.Context, kind string, data any)

	// Finish completes the trace and performs any final operations.
	Finish(ctx context.Context) error
}
