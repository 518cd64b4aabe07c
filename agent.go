package fluxmesh

import (
	"context"
	"fmt"
)

// Agent is the capability a FluxAgent wraps: a named, single-shot
// request/response operation. Invoke may block and may fail. Flux treats the
// agent as opaque; its only obligation towards an agent instance holding
// internal state is preserving call order.
type Agent[I, O any] interface {
	// Name returns the agent's diagnostic identifier.
	Name() string

	// Invoke processes a single input and returns the corresponding output.
	Invoke(ctx context.Context, input I) (O, error)
}

type funcAgent[I, O any] struct {
	name string
	fn   func(ctx context.Context, input I) (O, error)
}

// NewFuncAgent wraps a plain function as an Agent.
func NewFuncAgent[I, O any](name string, fn func(ctx context.Context, input I) (O, error)) Agent[I, O] {
	return &funcAgent[I, O]{name: name, fn: fn}
}

// Name implements Agent.
func (a *funcAgent[I, O]) Name() string { return a.name }

// Invoke implements Agent.
func (a *funcAgent[I, O]) Invoke(ctx context.Context, input I) (O, error) { return a.fn(ctx, input) }

// Identity returns the agent that passes every input through unchanged.
// Lifting it is observationally the identity on streams.
func Identity[T any]() Agent[T, T] {
	return NewFuncAgent("identity", func(_ context.Context, v T) (T, error) {
		return v, nil
	})
}

// Compose chains two agents into one: the output of f becomes the input of
// g. The composed agent fails with whichever stage failed first.
func Compose[A, B, C any](f Agent[A, B], g Agent[B, C]) Agent[A, C] {
	name := fmt.Sprintf("%s>%s", f.Name(), g.Name())
	return NewFuncAgent(name, func(ctx context.Context, input A) (C, error) {
		mid, err := f.Invoke(ctx, input)
		if err != nil {
			var zero C
			return zero, err
		}
		return g.Invoke(ctx, mid)
	})
}
