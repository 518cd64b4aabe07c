package fluxmesh

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/hupe1980/fluxmesh/logging"
	"github.com/hupe1980/fluxmesh/source"
)

// Options configures a FluxAgent at Lift time.
type Options struct {
	// Config is the flow-control configuration (buffer, entropy, feedback).
	Config Config

	// Logger receives structured lifecycle and failure logs. Defaults to a
	// no-op logger.
	Logger logging.Logger

	// Rand drives the probabilistic feedback selection. Defaults to
	// rand.Float64; override for deterministic tests.
	Rand func() float64
}

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) func(o *Options) {
	return func(o *Options) { o.Config = cfg }
}

// WithLogger installs a structured logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// WithRand overrides the feedback random source.
func WithRand(fn func() float64) func(o *Options) {
	return func(o *Options) { o.Rand = fn }
}

// FluxAgent wraps a single Agent (or composed chain) into a streaming
// entity. It owns one Config, one State, a bounded output buffer, an entropy
// ledger and, when FeedbackFraction > 0, a feedback edge re-injecting a
// share of its own output into its own input.
//
// A FluxAgent is created once per pipeline stage and must not be shared
// mutably across pipelines. The buffer and entropy ledger are mutated only
// by the drain goroutine; Invoke serializes against it by routing through
// the perturbation channel.
type FluxAgent[I, O any] struct {
	id     string
	agent  Agent[I, O]
	cfg    Config
	logger logging.Logger
	randFn func() float64

	mu        sync.Mutex
	state     State
	entropy   float64
	processed int
	failure   error

	dropped atomic.Uint64

	perturb chan envelope[I, O]
	done    chan struct{}
}

// envelope is one unit of work entering the drain loop, from the external
// source, the feedback edge or a perturbation.
type envelope[I, O any] struct {
	value  I
	srcErr error
	reply  chan invokeResult[O]
	silent bool // reply-only: do not emit to the output buffer
}

type invokeResult[O any] struct {
	out O
	err error
}

// Lift wraps an agent into an idle FluxAgent. This is the functor's object
// mapping; Start performs the actual lifting of a concrete input stream.
func Lift[I, O any](agent Agent[I, O], optFns ...func(o *Options)) *FluxAgent[I, O] {
	opts := Options{
		Config: DefaultConfig(),
		Logger: logging.NoOpLogger{},
		Rand:   rand.Float64,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &FluxAgent[I, O]{
		id:      uuid.NewString(),
		agent:   agent,
		cfg:     opts.Config,
		logger:  opts.Logger,
		randFn:  opts.Rand,
		state:   StateIdle,
		entropy: opts.Config.EntropyBudget,
		perturb: make(chan envelope[I, O]),
		done:    make(chan struct{}),
	}
}

// Name returns the flux's diagnostic identifier, derived from the wrapped
// agent's name.
func (f *FluxAgent[I, O]) Name() string { return fmt.Sprintf("flux(%s)", f.agent.Name()) }

// State returns the current lifecycle state.
func (f *FluxAgent[I, O]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// EntropyRemaining returns the remaining work credits. The value is frozen
// once the flux reaches a terminal state.
func (f *FluxAgent[I, O]) EntropyRemaining() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entropy
}

// Processed returns the total number of items processed so far (streamed,
// fed back and perturbations combined).
func (f *FluxAgent[I, O]) Processed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.processed
}

// Dropped returns the number of items evicted under the DropOldest policy.
func (f *FluxAgent[I, O]) Dropped() uint64 { return f.dropped.Load() }

// Start transitions the flux from Idle to Flowing and begins draining src.
// The returned source yields the wrapped agent's outputs; it terminates with
// source.Done on Complete/Collapsed and with the recorded failure when the
// agent or the input source failed.
//
// Cancelling ctx is the cancellation surface: it stops in-flight production,
// releases the buffer and moves the flux to Complete. Start on a non-idle
// instance fails fast with ErrAlreadyStarted.
func (f *FluxAgent[I, O]) Start(ctx context.Context, src source.Source[I]) (source.Source[O], error) {
	if err := f.cfg.validate(); err != nil {
		return nil, err
	}
	if f.cfg.FeedbackFraction > 0 && !feedbackAssignable[I, O]() {
		return nil, fmt.Errorf("flux: feedback requires output type assignable to input type (%s -> %s)",
			typeName[O](), typeName[I]())
	}

	f.mu.Lock()
	if f.state != StateIdle {
		state := f.state
		f.mu.Unlock()
		return nil, fmt.Errorf("%w (state %s)", ErrAlreadyStarted, state)
	}
	f.state = StateFlowing
	f.mu.Unlock()

	buf := newBuffer[O](f.cfg.BufferSize, f.cfg.DropPolicy, &f.dropped)

	// Feedback can hold at most MaxEvents pending items, so a channel of
	// that capacity never blocks the drain loop against itself.
	fbCap := f.cfg.MaxEvents
	if fbCap < 1 {
		fbCap = 1
	}
	feedback := make(chan I, fbCap)
	external := make(chan envelope[I, O])

	runCtx, cancel := context.WithCancel(ctx)
	go f.feed(runCtx, src, external)
	go f.drain(runCtx, cancel, external, feedback, buf)

	f.logger.Info("flux.started", "flux_id", f.id, "agent", f.agent.Name(),
		"buffer_size", f.cfg.BufferSize, "drop_policy", f.cfg.DropPolicy.String())

	return buf, nil
}

// Invoke injects one ad-hoc item while the flux is Flowing. The item
// traverses the identical internal path streamed items travel: it is
// processed by the drain loop in arrival order, charged against the entropy
// ledger, eligible for feedback and emitted to the output buffer. The
// corresponding output is also returned to the caller.
//
// Invoke fails fast with ErrNotFlowing outside the Flowing state.
func (f *FluxAgent[I, O]) Invoke(ctx context.Context, input I) (O, error) {
	return f.invoke(ctx, input, false)
}

// invoke implements Invoke; silent suppresses the buffer emission so
// pipeline stages can relay a perturbation without duplicating it on the
// stream.
func (f *FluxAgent[I, O]) invoke(ctx context.Context, input I, silent bool) (O, error) {
	var zero O

	if state := f.State(); state != StateFlowing {
		return zero, fmt.Errorf("%w (state %s)", ErrNotFlowing, state)
	}

	reply := make(chan invokeResult[O], 1)
	select {
	case f.perturb <- envelope[I, O]{value: input, reply: reply, silent: silent}:
	case <-f.done:
		return zero, fmt.Errorf("%w (state %s)", ErrNotFlowing, f.State())
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case r := <-reply:
		return r.out, r.err
	case <-f.done:
		// The drain loop may have replied just before terminating.
		select {
		case r := <-reply:
			return r.out, r.err
		default:
		}
		return zero, fmt.Errorf("%w (state %s)", ErrNotFlowing, f.State())
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// feed pumps the external source into the drain loop's input channel,
// closing it on exhaustion. A source failure travels inline so ordering
// against already-queued items is preserved.
func (f *FluxAgent[I, O]) feed(ctx context.Context, src source.Source[I], external chan<- envelope[I, O]) {
	defer close(external)
	for {
		v, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, source.Done) {
				return
			}
			select {
			case external <- envelope[I, O]{srcErr: err}:
			case <-ctx.Done():
			case <-f.done:
			}
			return
		}
		select {
		case external <- envelope[I, O]{value: v}:
		case <-ctx.Done():
			return
		case <-f.done:
			return
		}
	}
}

// drain is the single consumer of all three producers (external source,
// feedback edge, perturbations). It owns the buffer and the entropy ledger.
func (f *FluxAgent[I, O]) drain(
	ctx context.Context,
	cancel context.CancelFunc,
	external <-chan envelope[I, O],
	feedback chan I,
	buf buffer[O],
) {
	defer cancel()

	for {
		// The flux completes once the external source is exhausted and no
		// feedback remains. drain is the only goroutine touching feedback,
		// so the length check is race-free.
		if external == nil && len(feedback) == 0 {
			f.finish(StateComplete, buf, nil)
			return
		}

		var env envelope[I, O]
		select {
		case v := <-feedback:
			env = envelope[I, O]{value: v}
		case e, ok := <-external:
			if !ok {
				external = nil
				continue
			}
			env = e
		case e := <-f.perturb:
			env = e
		case <-ctx.Done():
			f.finish(StateComplete, buf, ctx.Err())
			return
		}

		if env.srcErr != nil {
			f.finish(StateComplete, buf, fmt.Errorf("flux: source failed: %w", env.srcErr))
			return
		}

		out, err := f.agent.Invoke(ctx, env.value)
		if err != nil {
			failure := fmt.Errorf("flux: agent %s failed: %w", f.agent.Name(), err)
			if env.reply != nil {
				env.reply <- invokeResult[O]{err: failure}
			}
			f.finish(StateComplete, buf, failure)
			return
		}

		if !env.silent {
			if err := buf.push(ctx, out); err != nil {
				if env.reply != nil {
					env.reply <- invokeResult[O]{err: err}
				}
				f.finish(StateComplete, buf, err)
				return
			}
		}

		f.mu.Lock()
		f.processed++
		collapsed := false
		if !math.IsInf(f.cfg.EntropyBudget, 1) {
			if f.entropy-f.cfg.EntropyDecay <= 0 {
				// Final step: the result is already emitted; the ledger
				// freezes at its pre-decrement value.
				collapsed = true
			} else {
				f.entropy -= f.cfg.EntropyDecay
			}
		}
		capped := f.cfg.MaxEvents > 0 && f.processed >= f.cfg.MaxEvents
		f.mu.Unlock()

		if env.reply != nil {
			env.reply <- invokeResult[O]{out: out}
		}

		if collapsed {
			f.logger.Info("flux.collapsed", "flux_id", f.id, "agent", f.agent.Name(),
				"processed", f.Processed(), "entropy_remaining", f.EntropyRemaining())
			f.finish(StateCollapsed, buf, nil)
			return
		}
		if capped {
			f.finish(StateComplete, buf, nil)
			return
		}

		if f.cfg.FeedbackFraction > 0 && f.randFn() < f.cfg.FeedbackFraction {
			if in, ok := any(out).(I); ok {
				select {
				case feedback <- in:
				default:
					// Capacity equals MaxEvents, so this cannot trigger
					// before the cap completes the flux.
				}
			}
		}
	}
}

// finish performs the terminal transition exactly once, freezing the ledger
// and ending the output source.
func (f *FluxAgent[I, O]) finish(next State, buf buffer[O], failure error) {
	f.mu.Lock()
	if f.state.Terminal() {
		f.mu.Unlock()
		return
	}
	f.state = next
	f.failure = failure
	f.mu.Unlock()

	close(f.done)

	if failure != nil {
		buf.fail(failure)
		f.logger.Error("flux.failed", "flux_id", f.id, "agent", f.agent.Name(), "error", failure)
		return
	}
	buf.close()
	f.logger.Info("flux.finished", "flux_id", f.id, "agent", f.agent.Name(),
		"state", next.String(), "processed", f.Processed(), "dropped", f.Dropped())
}

// feedbackAssignable reports whether an output value can re-enter the input
// path, checked once at Start.
func feedbackAssignable[I, O any]() bool {
	it := reflect.TypeOf((*I)(nil)).Elem()
	ot := reflect.TypeOf((*O)(nil)).Elem()
	return ot.AssignableTo(it)
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
