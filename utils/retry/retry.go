// Package retry runs an operation again after retryable failures, waiting an
// exponentially growing delay between attempts.
package retry

import (
	"context"
	"math"
	"time"
)

type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration
	// Multiplier grows the delay after every retry. Values below 1 mean 1.
	Multiplier float64
	// MaxDelay caps a single delay when > 0.
	MaxDelay time.Duration

	// Retryable reports whether err is worth another attempt. nil retries nothing.
	Retryable func(err error) bool
	// OnRetry is called before sleeping; attempt is 1-based.
	OnRetry func(attempt int, delay time.Duration, err error)
	// Sleep waits for d or until ctx ends. nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		InitialDelay: 2 * time.Second,
		Multiplier:   2,
	}
}

// Delay returns the wait before retry n (0-based).
func (p Policy) Delay(n int) time.Duration {
	m := p.Multiplier
	if m < 1 {
		m = 1
	}
	d := time.Duration(float64(p.InitialDelay) * math.Pow(m, float64(n)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Do calls fn until it succeeds, returns a non-retryable error, or MaxRetries
// retries are spent. The last error is returned unchanged.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}

		delay := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay, err)
		}
		if serr := sleep(ctx, delay); serr != nil {
			return err
		}
	}
}

func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
