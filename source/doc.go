// Package source provides the lazy asynchronous sequence algebra underlying
// FluxMesh streams. A Source[T] yields items one at a time on demand; it may
// be finite or infinite and is consumed by exactly one goroutine.
//
// The package has three groups of building blocks:
//
//  1. Constructors – Empty, Single, Repeat, Forever, Range, FromSlice,
//     FromChannel plus the clock-driven Periodic, Countdown and Tick
//  2. Combinators – Filter, Map, Batch, Take, Skip and the concurrent Merge;
//     each takes a Source and returns a new Source, preserving laziness
//  3. Draining helpers – Collect for synchronous consumption
//
// Combinators are closed under composition: chains of combinators never
// materialize intermediate results. Ordering is strict FIFO along any single
// chain; Merge only guarantees per-input relative order.
package source
