package watsonx

import (
	"context"
	"time"
)

// RetryPolicy bounds how generation calls react to transient upstream
// failures. Only statuses listed in Retryable trigger another attempt;
// everything else fails immediately.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	// Multiplier scales the backoff between attempts; 1 keeps it flat.
	Multiplier float64
	Retryable  []int
}

// DefaultPolicy matches the NCR pipeline: three attempts, flat two-second
// backoff on rate limits and server errors.
func DefaultPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     2 * time.Second,
		Multiplier:  1,
		Retryable:   []int{429, 500, 502, 503, 504},
	}
}

// KeywordPolicy matches the Safety/Housekeeping pipeline: request timeouts
// are retryable too, and the backoff doubles per attempt.
func KeywordPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     2 * time.Second,
		Multiplier:  2,
		Retryable:   []int{408, 429, 500, 502, 503, 504},
	}
}

func (p RetryPolicy) retryable(status int) bool {
	for _, s := range p.Retryable {
		if s == status {
			return true
		}
	}
	return false
}

// wait sleeps the backoff for the given zero-based attempt, honoring
// context cancellation.
func (p RetryPolicy) wait(ctx context.Context, attempt int) error {
	d := p.Backoff
	for i := 0; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
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
