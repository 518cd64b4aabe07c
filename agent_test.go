package fluxmesh

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFuncAgent(t *testing.T) {
	a := NewFuncAgent("inc", func(_ context.Context, v int) (int, error) { return v + 1, nil })
	assert.Equal(t, "inc", a.Name())

	out, err := a.Invoke(context.Background(), 41)
	assert.NoError(t, err)
	assert.Equal(t, 42, out)
}

func TestIdentity(t *testing.T) {
	id := Identity[string]()
	assert.Equal(t, "identity", id.Name())

	out, err := id.Invoke(context.Background(), "unchanged")
	assert.NoError(t, err)
	assert.Equal(t, "unchanged", out)
}

func TestCompose_AppliesInOrder(t *testing.T) {
	inc := NewFuncAgent("inc", func(_ context.Context, v int) (int, error) { return v + 1, nil })
	double := NewFuncAgent("double", func(_ context.Context, v int) (int, error) { return v * 2, nil })

	c := Compose(inc, double)
	assert.Equal(t, "inc>double", c.Name())

	out, err := c.Invoke(context.Background(), 5)
	assert.NoError(t, err)
	assert.Equal(t, 12, out)
}

func TestCompose_FirstStageFailureShortCircuits(t *testing.T) {
	sentinel := errors.New("boom")
	fail := NewFuncAgent("fail", func(_ context.Context, _ int) (int, error) { return 0, sentinel })

	gCalled := false
	g := NewFuncAgent("g", func(_ context.Context, v int) (int, error) {
		gCalled = true
		return v, nil
	})

	_, err := Compose(fail, g).Invoke(context.Background(), 1)
	assert.ErrorIs(t, err, sentinel)
	assert.False(t, gCalled)
}
