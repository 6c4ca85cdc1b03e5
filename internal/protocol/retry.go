package protocol

import "time"

// RetryPolicy bounds the verify-and-retry loops. Backoff receives the
// 1-based attempt that just failed and returns how long to wait before the
// next one.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
}

// DefaultRetryPolicy waits attempt*150ms between tries, five tries total.
// The store has no compare-and-swap, so a handful of spaced re-reads is the
// whole conflict story; exceeding the bound is surfaced, never fatal.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * 150 * time.Millisecond
		},
	}
}
