package retry

import (
	"context"
	"math/rand"
	"time"

	"reelforge/internal/types"
)

// Policy is a bounded exponential backoff shared by every capability call
// site, so failure behavior stays uniform and testable in one place.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Jitter is the fraction of the delay randomized away, in [0, 1).
	Jitter float64
}

// Do runs fn until it succeeds, returns a non-transient error, or attempts
// run out. Only errors marked transient by the capability adapter are
// retried.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.BaseDelay
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if !types.IsTransient(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		if err := sleep(ctx, p.jittered(delay)); err != nil {
			return err
		}
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return err
}

func (p Policy) jittered(d time.Duration) time.Duration {
	if p.Jitter <= 0 || d <= 0 {
		return d
	}
	spread := float64(d) * p.Jitter
	return d - time.Duration(rand.Float64()*spread)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
