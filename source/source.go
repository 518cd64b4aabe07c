package source

import (
	"context"
	"errors"
)

// Done is the sentinel returned by Next when a source is exhausted. It marks
// normal end-of-stream and is never wrapped around another failure.
var Done = errors.New("source: no more items")

// Source is a lazy, possibly infinite sequence of values.
//
// Next blocks until the next item is available, the source is exhausted
// (returning Done) or the context is cancelled. A Source is single-consumer:
// callers must not invoke Next concurrently. One traversal consumes the
// source; constructors backed by pure generators (Range, Repeat, ...) are
// restartable only by invoking the constructor again.
type Source[T any] interface {
	Next(ctx context.Context) (T, error)
}

// Func adapts an ordinary pull function into a Source.
type Func[T any] func(ctx context.Context) (T, error)

// Next implements Source.
func (f Func[T]) Next(ctx context.Context) (T, error) { return f(ctx) }

// Empty returns an immediately exhausted source.
func Empty[T any]() Source[T] {
	return Func[T](func(context.Context) (T, error) {
		var zero T
		return zero, Done
	})
}

// Single returns a source that yields v exactly once.
func Single[T any](v T) Source[T] { return Repeat(v, 1) }

// Repeat returns a source that yields v exactly times times. A non-positive
// count yields an exhausted source; use Forever for an unbounded repeat.
func Repeat[T any](v T, times int) Source[T] {
	remaining := times
	return Func[T](func(ctx context.Context) (T, error) {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		if remaining <= 0 {
			var zero T
			return zero, Done
		}
		remaining--
		return v, nil
	})
}

// Forever returns an unbounded source that yields v on every pull.
func Forever[T any](v T) Source[T] {
	return Func[T](func(ctx context.Context) (T, error) {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		return v, nil
	})
}

// Range returns the lazy integer progression [start, stop) with step 1.
func Range(start, stop int) Source[int] { return RangeBy(start, stop, 1) }

// RangeBy returns the lazy integer progression from start towards stop
// (exclusive) advancing by step. A negative step counts down; step 0 yields
// an exhausted source.
func RangeBy(start, stop, step int) Source[int] {
	next := start
	return Func[int](func(ctx context.Context) (int, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if step == 0 || (step > 0 && next >= stop) || (step < 0 && next <= stop) {
			return 0, Done
		}
		v := next
		next += step
		return v, nil
	})
}

// FromSlice returns a source yielding the elements of items in order. The
// slice is not copied; callers must not mutate it while the source is live.
func FromSlice[T any](items []T) Source[T] {
	idx := 0
	return Func[T](func(ctx context.Context) (T, error) {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		if idx >= len(items) {
			var zero T
			return zero, Done
		}
		v := items[idx]
		idx++
		return v, nil
	})
}

// FromChannel adapts an externally produced channel into a Source. The source
// is exhausted once the channel is closed; it never closes the channel itself.
func FromChannel[T any](ch <-chan T) Source[T] {
	return Func[T](func(ctx context.Context) (T, error) {
		var zero T
		select {
		case v, ok := <-ch:
			if !ok {
				return zero, Done
			}
			return v, nil
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	})
}

// Collect drains src until exhaustion and returns the accumulated items.
// On any error other than Done the items pulled so far are returned alongside
// the error.
func Collect[T any](ctx context.Context, src Source[T]) ([]T, error) {
	var items []T
	for {
		v, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, Done) {
				return items, nil
			}
			return items, err
		}
		items = append(items, v)
	}
}
