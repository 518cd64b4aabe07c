package fluxmesh

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/fluxmesh/source"
)

// buffer is the bounded FIFO between production (agent output) and
// consumption (the caller iterating the output source). Exactly one
// goroutine pushes and exactly one consumes. close and fail are terminal;
// buffered items remain consumable afterwards, then Next reports Done or the
// recorded failure.
type buffer[T any] interface {
	source.Source[T]

	push(ctx context.Context, v T) error
	close()
	fail(err error)
}

// newBuffer resolves the configured policy into a concrete strategy once.
// A blocking bounded buffer maps onto a buffered channel; drop-oldest and
// the unbounded sentinel map onto a mutex-guarded ring.
func newBuffer[T any](capacity int, policy DropPolicy, dropped *atomic.Uint64) buffer[T] {
	if capacity > 0 && policy == Block {
		return &blockBuffer[T]{ch: make(chan T, capacity)}
	}
	evict := capacity
	if policy != DropOldest {
		evict = 0 // unbounded sentinel: never evict
	}
	return &ringBuffer[T]{capacity: evict, dropped: dropped, notify: make(chan struct{}, 1)}
}

// blockBuffer implements the block discipline on top of a buffered channel:
// the producer suspends on send while the buffer is full.
type blockBuffer[T any] struct {
	ch chan T

	mu  sync.Mutex
	err error
}

func (b *blockBuffer[T]) push(ctx context.Context, v T) error {
	select {
	case b.ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *blockBuffer[T]) close() { close(b.ch) }

func (b *blockBuffer[T]) fail(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
	close(b.ch)
}

// Next implements source.Source. Remaining items are drained before the
// terminal condition is reported.
func (b *blockBuffer[T]) Next(ctx context.Context) (T, error) {
	var zero T
	select {
	case v, ok := <-b.ch:
		if ok {
			return v, nil
		}
		b.mu.Lock()
		err := b.err
		b.mu.Unlock()
		if err != nil {
			return zero, err
		}
		return zero, source.Done
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// ringBuffer implements drop-oldest (and the unbounded queue when capacity
// is 0): push never suspends; when full the oldest item is evicted and
// counted.
type ringBuffer[T any] struct {
	capacity int // 0 = unbounded
	dropped  *atomic.Uint64
	notify   chan struct{}

	mu     sync.Mutex
	items  []T
	closed bool
	err    error
}

func (b *ringBuffer[T]) push(_ context.Context, v T) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	if b.capacity > 0 && len(b.items) >= b.capacity {
		b.items = b.items[1:]
		if b.dropped != nil {
			b.dropped.Add(1)
		}
	}
	b.items = append(b.items, v)
	b.mu.Unlock()
	b.signal()
	return nil
}

func (b *ringBuffer[T]) close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.signal()
}

func (b *ringBuffer[T]) fail(err error) {
	b.mu.Lock()
	b.closed = true
	b.err = err
	b.mu.Unlock()
	b.signal()
}

func (b *ringBuffer[T]) signal() {
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Next implements source.Source.
func (b *ringBuffer[T]) Next(ctx context.Context) (T, error) {
	var zero T
	for {
		b.mu.Lock()
		if len(b.items) > 0 {
			v := b.items[0]
			b.items = b.items[1:]
			b.mu.Unlock()
			return v, nil
		}
		closed, err := b.closed, b.err
		b.mu.Unlock()

		if closed {
			if err != nil {
				return zero, err
			}
			return zero, source.Done
		}
		select {
		case <-b.notify:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}
