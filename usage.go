package smolagent

import (
	"encoding/json"
	"time"
)

// TokenUsage is the token count of one or more model calls.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// NewTokenUsage creates a TokenUsage. Negative counts are clamped to zero.
func NewTokenUsage(input, output int) *TokenUsage {
	input = max(input, 0)
	output = max(output, 0)
	return &TokenUsage{
		InputTokens:  input,
		OutputTokens: output,
		TotalTokens:  input + output,
	}
}

// Add returns the sum of two usages. A nil receiver or argument counts as zero.
func (u *TokenUsage) Add(other *TokenUsage) *TokenUsage {
	var in, out int
	if u != nil {
		in, out = u.InputTokens, u.OutputTokens
	}
	if other != nil {
		in += other.InputTokens
		out += other.OutputTokens
	}
	return NewTokenUsage(in, out)
}

// Timing is the wall clock span of a step or run. EndTime is nil while in flight.
type Timing struct {
	StartTime time.Time
	EndTime   *time.Time
}

// NewTiming starts a timing at the given time.
func NewTiming(start time.Time) Timing {
	return Timing{StartTime: start}
}

// End stamps the end time.
func (t *Timing) End(end time.Time) {
	t.EndTime = &end
}

// Duration returns the elapsed time, or zero if the timing has not ended.
func (t Timing) Duration() time.Duration {
	if t.EndTime == nil {
		return 0
	}
	return t.EndTime.Sub(t.StartTime)
}

type timingJSON struct {
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Duration  *float64   `json:"duration,omitempty"`
}

func (t Timing) MarshalJSON() ([]byte, error) {
	v := timingJSON{StartTime: t.StartTime, EndTime: t.EndTime}
	if t.EndTime != nil {
		d := t.Duration().Seconds()
		v.Duration = &d
	}
	return json.Marshal(v)
}

func (t *Timing) UnmarshalJSON(data []byte) error {
	var v timingJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	t.StartTime = v.StartTime
	t.EndTime = v.EndTime
	return nil
}
