package smolagent

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Monitor aggregates step durations and token usage across runs of an agent.
type Monitor struct {
	mu           sync.Mutex
	modelID      string
	durations    []time.Duration
	inputTokens  int
	outputTokens int
}

// NewMonitor creates a monitor for the model.
func NewMonitor(modelID string) *Monitor {
	return &Monitor{modelID: modelID}
}

// TotalTokenUsage returns the token usage summed over every monitored step.
func (m *Monitor) TotalTokenUsage() *TokenUsage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return NewTokenUsage(m.inputTokens, m.outputTokens)
}

// StepDurations returns the durations of the monitored steps.
func (m *Monitor) StepDurations() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.durations))
	copy(out, m.durations)
	return out
}

// Reset clears the collected metrics.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations = nil
	m.inputTokens = 0
	m.outputTokens = 0
}

// UpdateMetrics records an action step and logs one summary line.
func (m *Monitor) UpdateMetrics(ctx context.Context, step Step, _ *Agent) error {
	action, ok := step.(*ActionStep)
	if !ok {
		return nil
	}

	m.mu.Lock()
	d := action.Timing.Duration()
	if d > 0 {
		m.durations = append(m.durations, d)
	}
	line := fmt.Sprintf("[Step %d: Duration %.2f seconds", len(m.durations), d.Seconds())
	if action.TokenUsage != nil {
		m.inputTokens += action.TokenUsage.InputTokens
		m.outputTokens += action.TokenUsage.OutputTokens
		line += fmt.Sprintf(" | Input tokens: %d | Output tokens: %d", m.inputTokens, m.outputTokens)
	}
	line += "]"
	m.mu.Unlock()

	LoggerFromContext(ctx).Info(line, "model_id", m.modelID)
	return nil
}
