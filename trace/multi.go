package trace

import (
	"context"
	"errors"
)

// multiHandler fans out trace events to multiple Handler implementations.
// Each handler receives its own isolated context so that two Recorders do not share a current span.
type multiHandler struct {
	handlers []Handler
}

// Multi creates a Handler that forwards all events to the given handlers.
func Multi(handlers ...Handler) Handler {
	return &multiHandler{handlers: handlers}
}

type multiCtxKey struct{}

// getContexts retrieves per-handler contexts from the context.
// If not found, returns the base context for each handler.
func (m *multiHandler) getContexts(ctx context.Context) []context.Context {
	if v, ok := ctx.Value(multiCtxKey{}).([]context.Context); ok && len(v) == len(m.handlers) {
		return v
	}
	ctxs := make([]context.Context, len(m.handlers))
	for i := range ctxs {
		ctxs[i] = ctx
	}
	return ctxs
}

// start runs fn for every handler with its own parent context and stores the resulting contexts.
func (m *multiHandler) start(ctx context.Context, fn func(h Handler, ctx context.Context) context.Context) context.Context {
	parentCtxs := m.getContexts(ctx)
	handlerCtxs := make([]context.Context, len(m.handlers))
	for i, h := range m.handlers {
		handlerCtxs[i] = fn(h, parentCtxs[i])
	}
	return context.WithValue(ctx, multiCtxKey{}, handlerCtxs)
}

func (m *multiHandler) end(ctx context.Context, fn func(h Handler, ctx context.Context)) {
	ctxs := m.getContexts(ctx)
	for i, h := range m.handlers {
		fn(h, ctxs[i])
	}
}

func (m *multiHandler) StartRun(ctx context.Context, task string) context.Context {
	return m.start(ctx, func(h Handler, ctx context.Context) context.Context {
		return h.StartRun(ctx, task)
	})
}

func (m *multiHandler) EndRun(ctx context.Context, data *RunData, err error) {
	m.end(ctx, func(h Handler, ctx context.Context) {
		h.EndRun(ctx, data, err)
	})
}

func (m *multiHandler) StartStep(ctx context.Context, kind SpanKind, number int) context.Context {
	return m.start(ctx, func(h Handler, ctx context.Context) context.Context {
		return h.StartStep(ctx, kind, number)
	})
}

func (m *multiHandler) EndStep(ctx context.Context, data *StepData, err error) {
	m.end(ctx, func(h Handler, ctx context.Context) {
		h.EndStep(ctx, data, err)
	})
}

func (m *multiHandler) StartModelCall(ctx context.Context) context.Context {
	return m.start(ctx, func(h Handler, ctx context.Context) context.Context {
		return h.StartModelCall(ctx)
	})
}

func (m *multiHandler) EndModelCall(ctx context.Context, data *ModelCallData, err error) {
	m.end(ctx, func(h Handler, ctx context.Context) {
		h.EndModelCall(ctx, data, err)
	})
}

func (m *multiHandler) StartToolCall(ctx context.Context, call *ToolCall) context.Context {
	return m.start(ctx, func(h Handler, ctx context.Context) context.Context {
		return h.StartToolCall(ctx, call)
	})
}

func (m *multiHandler) EndToolCall(ctx context.Context, observation string, err error) {
	m.end(ctx, func(h Handler, ctx context.Context) {
		h.EndToolCall(ctx, observation, err)
	})
}

func (m *multiHandler) StartManagedAgent(ctx context.Context, name string) context.Context {
	return m.start(ctx, func(h Handler, ctx context.Context) context.Context {
		return h.StartManagedAgent(ctx, name)
	})
}

func (m *multiHandler) EndManagedAgent(ctx context.Context, err error) {
	m.end(ctx, func(h Handler, ctx context.Context) {
		h.EndManagedAgent(ctx, err)
	})
}

func (m *multiHandler) AddEvent(ctx context.Context, kind string, data any) {
	m.end(ctx, func(h Handler, ctx context.Context) {
		h.AddEvent(ctx, kind, data)
	})
}

func (m *multiHandler) Finish(ctx context.Context) error {
	var errs []error
	for _, h := range m.handlers {
		if err := h.Finish(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
