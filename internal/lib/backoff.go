package lib

import (
	"context"
	"math"
	"time"
)

// Backoff is an exponential retry policy: the first retry waits Initial, each
// later one twice as long, never more than Max.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	// MaxAttempts bounds the attempts. Zero retries forever.
	MaxAttempts int
}

// Delay returns the wait after the given failed attempt, counting from 1.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := b.Initial
	for i := 1; i < attempt; i++ {
		if (b.Max > 0 && d >= b.Max) || d > math.MaxInt64/2 {
			break
		}
		d *= 2
	}
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}
	return d
}

// Exhausted reports whether no attempt may follow the given one.
func (b Backoff) Exhausted(attempt int) bool {
	return b.MaxAttempts > 0 && attempt >= b.MaxAttempts
}

type sleepFunc func(ctx context.Context, d time.Duration) error

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
