package fluxmesh

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hupe1980/fluxmesh/source"
)

// Flux is the external contract shared by FluxAgent and Pipeline: a
// streaming entity that lifts Source[I] to Source[O] and accepts
// perturbations while flowing.
type Flux[I, O any] interface {
	// Name returns the diagnostic identifier.
	Name() string

	// Start begins draining src and returns the output stream. Valid only
	// from Idle.
	Start(ctx context.Context, src source.Source[I]) (source.Source[O], error)

	// Invoke injects one ad-hoc item on the same internal path streamed
	// items travel. Valid only while Flowing.
	Invoke(ctx context.Context, input I) (O, error)

	// State returns the current lifecycle state.
	State() State

	// EntropyRemaining returns the remaining work credits.
	EntropyRemaining() float64
}

// silentInvoker lets pipelines relay perturbations through a stage without
// emitting the intermediate value onto that stage's output stream.
type silentInvoker[I, O any] interface {
	invoke(ctx context.Context, input I, silent bool) (O, error)
}

// ComposeInner rewraps the inner agent of fa by post-composing g after the
// existing agent. The returned FluxAgent shares fa's configuration, logger
// and random source but owns fresh state machinery; no extra buffering stage
// is introduced. fa itself is left untouched.
func ComposeInner[I, M, O any](fa *FluxAgent[I, M], g Agent[M, O]) *FluxAgent[I, O] {
	return Lift(Compose(fa.agent, g), func(o *Options) {
		o.Config = fa.cfg
		o.Logger = fa.logger
		o.Rand = fa.randFn
	})
}

// Pipe connects two flux stages at the stream boundary: the output source of
// left becomes the input source of right. The resulting Pipeline behaves
// externally like a single FluxAgent; lifting a composed agent and piping
// the separately lifted parts are observationally equal.
func Pipe[I, M, O any](left Flux[I, M], right Flux[M, O]) *Pipeline[I, M, O] {
	return &Pipeline[I, M, O]{id: uuid.NewString(), left: left, right: right}
}

// Pipeline is two flux stages joined at the stream boundary. Ownership of
// the intermediate source transfers to the right stage when started.
type Pipeline[I, M, O any] struct {
	id     string
	left   Flux[I, M]
	right  Flux[M, O]
	cancel context.CancelFunc
}

// Name implements Flux.
func (p *Pipeline[I, M, O]) Name() string {
	return fmt.Sprintf("pipe(%s, %s)", p.left.Name(), p.right.Name())
}

// Start implements Flux. Both stages are started under a shared derived
// context so a failure starting the right stage unwinds the left one.
func (p *Pipeline[I, M, O]) Start(ctx context.Context, src source.Source[I]) (source.Source[O], error) {
	runCtx, cancel := context.WithCancel(ctx)

	mid, err := p.left.Start(runCtx, src)
	if err != nil {
		cancel()
		return nil, err
	}
	out, err := p.right.Start(runCtx, mid)
	if err != nil {
		cancel()
		return nil, err
	}

	p.cancel = cancel
	return out, nil
}

// Invoke implements Flux. The item traverses each stage's ordinary
// perturbation path exactly once: the left stage replies without emitting
// (its result reaches the stream through the right stage instead), then the
// right stage processes the intermediate value and emits the final output.
func (p *Pipeline[I, M, O]) Invoke(ctx context.Context, input I) (O, error) {
	return p.invoke(ctx, input, false)
}

func (p *Pipeline[I, M, O]) invoke(ctx context.Context, input I, silent bool) (O, error) {
	var zero O

	mid, err := stageInvoke(ctx, p.left, input, true)
	if err != nil {
		return zero, err
	}
	out, err := stageInvoke(ctx, p.right, mid, silent)
	if err != nil {
		return zero, err
	}
	return out, nil
}

// stageInvoke relays a perturbation through one stage, using the silent path
// when the stage supports it.
func stageInvoke[I, O any](ctx context.Context, stage Flux[I, O], input I, silent bool) (O, error) {
	if si, ok := stage.(silentInvoker[I, O]); ok {
		return si.invoke(ctx, input, silent)
	}
	return stage.Invoke(ctx, input)
}

// State implements Flux by combining the stage states: collapse anywhere is
// collapse of the whole, and the pipeline is only complete once both stages
// are terminal.
func (p *Pipeline[I, M, O]) State() State {
	ls, rs := p.left.State(), p.right.State()
	switch {
	case ls == StateCollapsed || rs == StateCollapsed:
		return StateCollapsed
	case ls == StateIdle && rs == StateIdle:
		return StateIdle
	case ls.Terminal() && rs.Terminal():
		return StateComplete
	default:
		return StateFlowing
	}
}

// EntropyRemaining implements Flux: the binding constraint is the stage with
// the least credit left.
func (p *Pipeline[I, M, O]) EntropyRemaining() float64 {
	return min(p.left.EntropyRemaining(), p.right.EntropyRemaining())
}
