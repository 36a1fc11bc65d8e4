// Package metrics provides token and timing accounting for LLM calls.
package metrics

import "fmt"

// GenerationStats is a usage record for one or more LLM calls. Timing
// fields are in seconds (Groq reports fractional seconds). A single
// accumulator instance is merged into across a whole generation run;
// per-call records are transient.
type GenerationStats struct {
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// Timing (seconds)
	InputTime  float64 `json:"input_time" yaml:"input_time"`
	OutputTime float64 `json:"output_time" yaml:"output_time"`
	TotalTime  float64 `json:"total_time" yaml:"total_time"`

	// Tokens
	InputTokens  int `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int `json:"output_tokens" yaml:"output_tokens"`
}

// New creates an empty accumulator for the given model.
func New(model string) *GenerationStats {
	return &GenerationStats{Model: model}
}

// Add merges another record into the receiver by field-wise addition of
// the numeric fields. The receiver's model identifier is kept. Addition is
// commutative and associative, so merge order does not affect totals.
func (s *GenerationStats) Add(other *GenerationStats) {
	if other == nil {
		return
	}
	s.InputTime += other.InputTime
	s.OutputTime += other.OutputTime
	s.TotalTime += other.TotalTime
	s.InputTokens += other.InputTokens
	s.OutputTokens += other.OutputTokens
}

// Clone returns a copy of the record. The orchestrator hands copies to
// consumers so later merges cannot mutate an already-yielded snapshot.
func (s *GenerationStats) Clone() *GenerationStats {
	cpy := *s
	return &cpy
}

// InputSpeed returns input tokens per second, or 0 when no input time has
// been recorded.
func (s *GenerationStats) InputSpeed() float64 {
	if s.InputTime == 0 {
		return 0
	}
	return float64(s.InputTokens) / s.InputTime
}

// OutputSpeed returns output tokens per second, or 0 when no output time
// has been recorded.
func (s *GenerationStats) OutputSpeed() float64 {
	if s.OutputTime == 0 {
		return 0
	}
	return float64(s.OutputTokens) / s.OutputTime
}

// TotalTokens returns the combined input and output token count.
func (s *GenerationStats) TotalTokens() int {
	return s.InputTokens + s.OutputTokens
}

// String returns a one-line human summary for progress logging.
func (s *GenerationStats) String() string {
	return fmt.Sprintf("model=%s tokens=%d/%d time=%.2fs speed=%.1f tok/s",
		s.Model, s.InputTokens, s.OutputTokens, s.TotalTime, s.OutputSpeed())
}
