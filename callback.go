package smolagent

import (
	"context"
	"sync"
)

// StepCallback is called when a step is finalized. Returning an error aborts the run.
type StepCallback func(ctx context.Context, step Step, agent *Agent) error

// CallbackRegistry dispatches step callbacks by step type. A callback registered for a type also fires for every
// step whose lineage includes that type, e.g. a StepTypeMemory callback fires for all steps.
type CallbackRegistry struct {
	mu        sync.RWMutex
	callbacks map[StepType][]StepCallback
}

// NewCallbackRegistry creates an empty registry.
func NewCallbackRegistry() *CallbackRegistry {
	return &CallbackRegistry{callbacks: map[StepType][]StepCallback{}}
}

// Register adds a callback for the step type.
func (r *CallbackRegistry) Register(stepType StepType, cb StepCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[stepType] = append(r.callbacks[stepType], cb)
}

// Callback fires every callback registered for the step type and its ancestors, most specific type first.
// It stops at the first error.
func (r *CallbackRegistry) Callback(ctx context.Context, step Step, agent *Agent) error {
	r.mu.RLock()
	var targets []StepCallback
	for _, t := range step.StepType().Lineage() {
		targets = append(targets, r.callbacks[t]...)
	}
	r.mu.RUnlock()

	for _, cb := range targets {
		if err := cb(ctx, step, agent); err != nil {
			return err
		}
	}
	return nil
}
