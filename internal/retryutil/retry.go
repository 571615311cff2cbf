package retryutil

import (
	"context"
	"time"
)

// maxShift caps the exponential schedule so a large attempt count cannot
// overflow the duration.
const maxShift = 6

// Delay returns the exponential backoff delay for the given zero-based
// attempt: unit, 2*unit, 4*unit, ...
func Delay(attempt int, unit time.Duration) time.Duration {
	if unit <= 0 {
		unit = time.Second
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxShift {
		attempt = maxShift
	}
	return unit << uint(attempt)
}

// Sleep blocks for d or until the context is done, returning the context
// error in the latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
