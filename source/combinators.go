package source

import (
	"context"
	"errors"
)

// Filter returns a source yielding only the items of src for which pred
// reports true. The predicate may block and may fail; a predicate error is
// terminal for the filtered source.
func Filter[T any](src Source[T], pred func(ctx context.Context, v T) (bool, error)) Source[T] {
	return Func[T](func(ctx context.Context) (T, error) {
		for {
			v, err := src.Next(ctx)
			if err != nil {
				var zero T
				return zero, err
			}
			keep, err := pred(ctx, v)
			if err != nil {
				var zero T
				return zero, err
			}
			if keep {
				return v, nil
			}
		}
	})
}

// Map returns a source that transforms each item of src through fn, possibly
// changing the element type. The transform may block and may fail; a
// transform error is terminal for the mapped source.
func Map[T, U any](src Source[T], fn func(ctx context.Context, v T) (U, error)) Source[U] {
	return Func[U](func(ctx context.Context) (U, error) {
		v, err := src.Next(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(ctx, v)
	})
}

// Batch groups the items of src into fixed-size slices. The final batch may
// be shorter when src is exhausted first. A size below one is treated as one.
func Batch[T any](src Source[T], size int) Source[[]T] {
	if size < 1 {
		size = 1
	}
	exhausted := false
	return Func[[]T](func(ctx context.Context) ([]T, error) {
		if exhausted {
			return nil, Done
		}
		batch := make([]T, 0, size)
		for len(batch) < size {
			v, err := src.Next(ctx)
			if err != nil {
				if errors.Is(err, Done) {
					exhausted = true
					if len(batch) > 0 {
						return batch, nil
					}
					return nil, Done
				}
				return nil, err
			}
			batch = append(batch, v)
		}
		return batch, nil
	})
}

// Take limits src to its first n items. Take(src, 0) yields nothing and never
// pulls the underlying source.
func Take[T any](src Source[T], n int) Source[T] {
	remaining := n
	return Func[T](func(ctx context.Context) (T, error) {
		if remaining <= 0 {
			var zero T
			return zero, Done
		}
		v, err := src.Next(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		remaining--
		return v, nil
	})
}

// Skip drops the first n items of src. Skip(src, 0) is a pass-through;
// skipping past the end yields an exhausted source.
func Skip[T any](src Source[T], n int) Source[T] {
	remaining := n
	return Func[T](func(ctx context.Context) (T, error) {
		for remaining > 0 {
			if _, err := src.Next(ctx); err != nil {
				var zero T
				return zero, err
			}
			remaining--
		}
		return src.Next(ctx)
	})
}
