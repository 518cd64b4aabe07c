package fluxmesh

import (
	"fmt"
	"math"
)

// DropPolicy selects the overflow discipline of the bounded output buffer.
// The policy is resolved once at buffer construction into a concrete
// strategy; no per-item branching occurs afterwards.
type DropPolicy int

const (
	// Block suspends production while the buffer is full, throttling the
	// producer to consumer speed. Every produced item is eventually
	// delivered.
	Block DropPolicy = iota
	// DropOldest evicts the single oldest buffered item to admit a new one.
	// Production never suspends; the consumer receives an order-preserving
	// subsequence of what was produced.
	DropOldest
)

// String returns the policy name.
func (p DropPolicy) String() string {
	switch p {
	case Block:
		return "block"
	case DropOldest:
		return "drop_oldest"
	default:
		return "unknown"
	}
}

// UnboundedBuffer is the BufferSize sentinel disabling the capacity bound.
const UnboundedBuffer = 0

// UnboundedEntropy is the EntropyBudget sentinel disabling collapse.
func UnboundedEntropy() float64 { return math.Inf(1) }

// Config is the immutable per-flux configuration. It is copied at Lift time;
// later mutation of the caller's value has no effect.
type Config struct {
	// BufferSize caps the internal output buffer. UnboundedBuffer (0)
	// removes the bound.
	BufferSize int

	// DropPolicy selects the overflow discipline of a bounded buffer.
	DropPolicy DropPolicy

	// EntropyBudget is the pool of work credits available to the flux.
	// UnboundedEntropy() disables collapse.
	EntropyBudget float64

	// EntropyDecay is the number of credits consumed per processed item.
	EntropyDecay float64

	// FeedbackFraction is the share (0.0-1.0) of output items re-injected
	// as new input on the same path external items use.
	FeedbackFraction float64

	// MaxEvents hard-caps the total number of items ever processed
	// (streamed, fed back and perturbations combined). 0 means uncapped.
	// A positive value is mandatory whenever FeedbackFraction > 0, since a
	// pure feedback loop has no natural end.
	MaxEvents int
}

// DefaultConfig returns a blocking 64-slot buffer with collapse disabled and
// no feedback.
func DefaultConfig() Config {
	return Config{
		BufferSize:    64,
		DropPolicy:    Block,
		EntropyBudget: UnboundedEntropy(),
		EntropyDecay:  1,
	}
}

// InfiniteConfig returns the unbounded variant: no buffer bound and no
// entropy collapse. The flux runs until its source is exhausted.
func InfiniteConfig() Config {
	return Config{
		BufferSize:    UnboundedBuffer,
		DropPolicy:    Block,
		EntropyBudget: UnboundedEntropy(),
		EntropyDecay:  1,
	}
}

// validate rejects configurations that cannot be executed safely.
func (c Config) validate() error {
	if c.BufferSize < 0 {
		return fmt.Errorf("flux: negative buffer size %d", c.BufferSize)
	}
	if c.EntropyDecay < 0 {
		return fmt.Errorf("flux: negative entropy decay %v", c.EntropyDecay)
	}
	if math.IsNaN(c.EntropyBudget) {
		return fmt.Errorf("flux: entropy budget is NaN")
	}
	if c.FeedbackFraction < 0 || c.FeedbackFraction > 1 {
		return fmt.Errorf("flux: feedback fraction %v outside [0,1]", c.FeedbackFraction)
	}
	if c.MaxEvents < 0 {
		return fmt.Errorf("flux: negative max events %d", c.MaxEvents)
	}
	if c.FeedbackFraction > 0 && c.MaxEvents == 0 {
		return fmt.Errorf("flux: feedback fraction %v requires MaxEvents as circuit breaker", c.FeedbackFraction)
	}
	return nil
}
