// Package fluxmesh lifts single-shot request/response agents into
// long-running streaming pipelines with built-in flow control.
//
// The package revolves around three layers:
//
//  1. The Agent boundary – any capability with a name and a single
//     Invoke(ctx, input) (output, error) operation
//  2. The FluxAgent engine – wraps one agent (or composed chain) into a
//     streaming entity with a bounded buffer, an entropy-based termination
//     ledger and an optional ouroboric feedback edge
//  3. Composition operators – Compose / ComposeInner rework the inner agent
//     without adding stream stages, while Pipe connects two flux stages at
//     the stream boundary into a Pipeline that behaves like a single
//     FluxAgent
//
// Typical usage:
//
//	double := fluxmesh.NewFuncAgent("double", func(_ context.Context, v int) (int, error) {
//		return v * 2, nil
//	})
//	fa := fluxmesh.Lift(double)
//	out, err := fa.Start(ctx, source.Range(0, 10))
//	// range over out via out.Next(ctx) or source.Collect
//
// Lifting satisfies the functor laws: lifting the identity agent is the
// identity on streams, and lifting a composed agent is observationally equal
// to piping the separately lifted parts.
//
// Lazy sequences live in the source sub-package; provider-backed agents
// (OpenAI, Anthropic) live under model.
package fluxmesh
