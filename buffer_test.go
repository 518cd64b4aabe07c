package fluxmesh

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/fluxmesh/source"
)

func TestBlockBuffer_DeliversInOrder(t *testing.T) {
	var dropped atomic.Uint64
	buf := newBuffer[int](4, Block, &dropped)

	for i := 0; i < 4; i++ {
		assert.NoError(t, buf.push(context.Background(), i))
	}
	buf.close()

	items, err := source.Collect[int](context.Background(), buf)
	assert.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, items)
	assert.Zero(t, dropped.Load())
}

func TestBlockBuffer_PushBlocksUntilConsumed(t *testing.T) {
	var dropped atomic.Uint64
	buf := newBuffer[int](1, Block, &dropped)

	assert.NoError(t, buf.push(context.Background(), 1))

	pushed := make(chan struct{})
	go func() {
		assert.NoError(t, buf.push(context.Background(), 2))
		close(pushed)
	}()

	select {
	case <-pushed:
		t.Fatal("push into a full block buffer must suspend")
	case <-time.After(20 * time.Millisecond):
	}

	v, err := buf.Next(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, v)

	select {
	case <-pushed:
	case <-time.After(time.Second):
		t.Fatal("push did not resume after consumption")
	}
}

func TestBlockBuffer_PushCancelled(t *testing.T) {
	var dropped atomic.Uint64
	buf := newBuffer[int](1, Block, &dropped)
	assert.NoError(t, buf.push(context.Background(), 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, buf.push(ctx, 2), context.Canceled)
}

func TestRingBuffer_EvictsOldest(t *testing.T) {
	var dropped atomic.Uint64
	buf := newBuffer[int](2, DropOldest, &dropped)

	for i := 0; i < 5; i++ {
		assert.NoError(t, buf.push(context.Background(), i))
	}
	buf.close()

	items, err := source.Collect[int](context.Background(), buf)
	assert.NoError(t, err)
	assert.Equal(t, []int{3, 4}, items)
	assert.Equal(t, uint64(3), dropped.Load())
}

func TestRingBuffer_UnboundedNeverDrops(t *testing.T) {
	var dropped atomic.Uint64
	buf := newBuffer[int](UnboundedBuffer, Block, &dropped)

	for i := 0; i < 1000; i++ {
		assert.NoError(t, buf.push(context.Background(), i))
	}
	buf.close()

	items, err := source.Collect[int](context.Background(), buf)
	assert.NoError(t, err)
	assert.Len(t, items, 1000)
	assert.Zero(t, dropped.Load())
}

func TestBuffer_FailAfterDrainingItems(t *testing.T) {
	sentinel := errors.New("terminal failure")

	for _, policy := range []DropPolicy{Block, DropOldest} {
		var dropped atomic.Uint64
		buf := newBuffer[int](8, policy, &dropped)
		assert.NoError(t, buf.push(context.Background(), 7))
		buf.fail(sentinel)

		v, err := buf.Next(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, 7, v)

		_, err = buf.Next(context.Background())
		assert.ErrorIs(t, err, sentinel)
	}
}

func TestRingBuffer_NextWakesOnPush(t *testing.T) {
	var dropped atomic.Uint64
	buf := newBuffer[int](2, DropOldest, &dropped)

	got := make(chan int, 1)
	go func() {
		v, err := buf.Next(context.Background())
		assert.NoError(t, err)
		got <- v
	}()

	time.Sleep(10 * time.Millisecond)
	assert.NoError(t, buf.push(context.Background(), 42))

	select {
	case v := <-got:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("Next did not wake on push")
	}
}
