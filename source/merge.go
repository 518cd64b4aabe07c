package source

import (
	"context"
	"errors"
	"sync"
)

// Merge concurrently drains all input sources, yielding items in arrival
// order. Relative order within each input is preserved; no ordering is
// guaranteed across inputs. Zero inputs yield an exhausted source and a
// single input is returned as-is.
//
// Production starts lazily on the first pull and is governed by that pull's
// context: cancelling it stops every sub-drain. The first failure of any
// input is terminal for the merged source and cancels the siblings.
func Merge[T any](inputs ...Source[T]) Source[T] {
	switch len(inputs) {
	case 0:
		return Empty[T]()
	case 1:
		return inputs[0]
	}
	return &mergeSource[T]{inputs: inputs}
}

type mergeResult[T any] struct {
	v   T
	err error
}

type mergeSource[T any] struct {
	inputs []Source[T]
	once   sync.Once
	out    chan mergeResult[T]
	cancel context.CancelFunc
}

// Next implements Source.
func (m *mergeSource[T]) Next(ctx context.Context) (T, error) {
	m.once.Do(func() { m.start(ctx) })

	var zero T
	select {
	case r, ok := <-m.out:
		if !ok {
			return zero, Done
		}
		if r.err != nil {
			m.cancel()
			return zero, r.err
		}
		return r.v, nil
	case <-ctx.Done():
		m.cancel()
		return zero, ctx.Err()
	}
}

// start launches one drain goroutine per input plus a closer that ends the
// merged stream once every input is exhausted.
func (m *mergeSource[T]) start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.out = make(chan mergeResult[T])

	var wg sync.WaitGroup
	for _, src := range m.inputs {
		wg.Add(1)
		go func(src Source[T]) {
			defer wg.Done()
			for {
				v, err := src.Next(runCtx)
				if err != nil {
					if errors.Is(err, Done) {
						return
					}
					select {
					case m.out <- mergeResult[T]{err: err}:
					case <-runCtx.Done():
					}
					return
				}
				select {
				case m.out <- mergeResult[T]{v: v}:
				case <-runCtx.Done():
					return
				}
			}
		}(src)
	}

	go func() {
		wg.Wait()
		close(m.out)
	}()
}
