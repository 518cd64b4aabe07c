package source

import (
	"context"
	"time"
)

// Periodic returns an infinite source of wall-clock timestamps, one per
// interval. The underlying ticker is created lazily on the first pull and
// stopped when a pull observes context cancellation.
func Periodic(interval time.Duration) Source[time.Time] {
	var ticker *time.Ticker
	return Func[time.Time](func(ctx context.Context) (time.Time, error) {
		if ticker == nil {
			ticker = time.NewTicker(interval)
		}
		select {
		case t := <-ticker.C:
			return t, nil
		case <-ctx.Done():
			ticker.Stop()
			return time.Time{}, ctx.Err()
		}
	})
}

// Countdown returns a source that yields n, n-1, ..., 0 then stops, pausing
// interval before each item. A negative n is exhausted immediately.
func Countdown(n int, interval time.Duration) Source[int] {
	next := n
	return Func[int](func(ctx context.Context) (int, error) {
		if next < 0 {
			return 0, Done
		}
		if err := sleep(ctx, interval); err != nil {
			return 0, err
		}
		v := next
		next--
		return v, nil
	})
}

// Tick returns a bounded tick counter yielding 0..count-1, one per interval.
func Tick(interval time.Duration, count int) Source[int] {
	next := 0
	return Func[int](func(ctx context.Context) (int, error) {
		if next >= count {
			return 0, Done
		}
		if err := sleep(ctx, interval); err != nil {
			return 0, err
		}
		v := next
		next++
		return v, nil
	})
}

// sleep waits for d or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
