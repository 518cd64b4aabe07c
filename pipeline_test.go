package fluxmesh

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/fluxmesh/source"
)

func incAgent() Agent[int, int] {
	return NewFuncAgent("inc", func(_ context.Context, v int) (int, error) { return v + 1, nil })
}

func doubleAgent() Agent[int, int] {
	return NewFuncAgent("double", func(_ context.Context, v int) (int, error) { return v * 2, nil })
}

func TestFunctorIdentity(t *testing.T) {
	// Lifting the identity agent leaves the stream unchanged.
	fa := Lift(Identity[int]())
	out, err := fa.Start(context.Background(), source.Range(0, 10))
	assert.NoError(t, err)

	items, err := source.Collect(context.Background(), out)
	assert.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, items)
}

func TestFunctorComposition(t *testing.T) {
	// Piping the separately lifted stages equals lifting the composed agent.
	piped := Pipe[int, int, int](Lift(incAgent()), Lift(doubleAgent()))
	pipedOut, err := piped.Start(context.Background(), source.Range(0, 10))
	assert.NoError(t, err)
	pipedItems, err := source.Collect(context.Background(), pipedOut)
	assert.NoError(t, err)

	fused := Lift(Compose(incAgent(), doubleAgent()))
	fusedOut, err := fused.Start(context.Background(), source.Range(0, 10))
	assert.NoError(t, err)
	fusedItems, err := source.Collect(context.Background(), fusedOut)
	assert.NoError(t, err)

	assert.Equal(t, fusedItems, pipedItems)
	assert.Equal(t, []int{2, 4, 6, 8, 10, 12, 14, 16, 18, 20}, pipedItems)
}

func TestPipe_TypeChangingStages(t *testing.T) {
	toStr := NewFuncAgent("stringify", func(_ context.Context, v int) (string, error) {
		return strconv.Itoa(v), nil
	})
	upLen := NewFuncAgent("len", func(_ context.Context, s string) (int, error) {
		return len(s), nil
	})

	p := Pipe[int, string, int](Lift(toStr), Lift(upLen))
	assert.Equal(t, "pipe(flux(stringify), flux(len))", p.Name())

	out, err := p.Start(context.Background(), source.FromSlice([]int{7, 42, 1000}))
	assert.NoError(t, err)

	items, err := source.Collect(context.Background(), out)
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2, 4}, items)
}

func TestPipeline_StateCombination(t *testing.T) {
	left := Lift(incAgent())
	right := Lift(doubleAgent())
	p := Pipe[int, int, int](left, right)

	assert.Equal(t, StateIdle, p.State())

	ch := make(chan int)
	out, err := p.Start(context.Background(), source.FromChannel(ch))
	assert.NoError(t, err)
	assert.Equal(t, StateFlowing, p.State())

	close(ch)
	_, err = source.Collect(context.Background(), out)
	assert.NoError(t, err)

	assert.Eventually(t, func() bool { return p.State() == StateComplete },
		5*time.Second, time.Millisecond)
}

func TestPipeline_CollapseDominates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EntropyBudget = 0.1
	cfg.EntropyDecay = 0.1

	left := Lift(incAgent(), WithConfig(cfg))
	right := Lift(doubleAgent())
	p := Pipe[int, int, int](left, right)

	out, err := p.Start(context.Background(), source.Range(0, 100))
	assert.NoError(t, err)

	items, err := source.Collect(context.Background(), out)
	assert.NoError(t, err)
	assert.Less(t, len(items), 100)
	assert.Equal(t, StateCollapsed, p.State())
}

func TestPipeline_EntropyRemainingIsMinimum(t *testing.T) {
	cfgLeft := DefaultConfig()
	cfgLeft.EntropyBudget = 100
	cfgLeft.EntropyDecay = 1
	cfgRight := DefaultConfig()
	cfgRight.EntropyBudget = 50
	cfgRight.EntropyDecay = 1

	left := Lift(incAgent(), WithConfig(cfgLeft))
	right := Lift(doubleAgent(), WithConfig(cfgRight))
	p := Pipe[int, int, int](left, right)

	out, err := p.Start(context.Background(), source.Range(0, 10))
	assert.NoError(t, err)
	_, err = source.Collect(context.Background(), out)
	assert.NoError(t, err)

	assert.Equal(t, float64(40), p.EntropyRemaining())
}

func TestPipeline_InvokeTraversesBothStages(t *testing.T) {
	left := Lift(incAgent())
	right := Lift(doubleAgent())
	p := Pipe[int, int, int](left, right)

	ch := make(chan int)
	out, err := p.Start(context.Background(), source.FromChannel(ch))
	assert.NoError(t, err)

	got, err := p.Invoke(context.Background(), 5)
	assert.NoError(t, err)
	assert.Equal(t, 12, got)

	close(ch)

	// The perturbation result appears on the output stream exactly once;
	// the intermediate value never surfaces anywhere.
	items, err := source.Collect(context.Background(), out)
	assert.NoError(t, err)
	assert.Equal(t, []int{12}, items)
}

func TestPipeline_InvokeWhileIdleFails(t *testing.T) {
	p := Pipe[int, int, int](Lift(incAgent()), Lift(doubleAgent()))
	_, err := p.Invoke(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFlowing)
}

func TestPipeline_Nested(t *testing.T) {
	inner := Pipe[int, int, int](Lift(incAgent()), Lift(doubleAgent()))
	p := Pipe[int, int, int](inner, Lift(incAgent()))

	ch := make(chan int)
	out, err := p.Start(context.Background(), source.FromChannel(ch))
	assert.NoError(t, err)

	got, err := p.Invoke(context.Background(), 5)
	assert.NoError(t, err)
	assert.Equal(t, 13, got)

	close(ch)
	items, err := source.Collect(context.Background(), out)
	assert.NoError(t, err)
	assert.Equal(t, []int{13}, items)
}

func TestComposeInner(t *testing.T) {
	fa := Lift(incAgent())
	fused := ComposeInner[int, int, int](fa, doubleAgent())
	assert.Equal(t, "flux(inc>double)", fused.Name())

	out, err := fused.Start(context.Background(), source.Range(0, 5))
	assert.NoError(t, err)
	items, err := source.Collect(context.Background(), out)
	assert.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6, 8, 10}, items)

	// The original flux is untouched and independently startable.
	assert.Equal(t, StateIdle, fa.State())
	orig, err := fa.Start(context.Background(), source.Range(0, 3))
	assert.NoError(t, err)
	origItems, err := source.Collect(context.Background(), orig)
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, origItems)
}
