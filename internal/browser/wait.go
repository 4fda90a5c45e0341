// internal/browser/wait.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultPollInterval is used when a wait is given a non-positive interval.
const DefaultPollInterval = 250 * time.Millisecond

// TimeoutError reports a condition that did not hold before its deadline.
type TimeoutError struct {
	What  string
	After time.Duration
	// Last is the most recent error returned by the condition, if any.
	Last error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %s waiting for %s", e.After, e.What)
	if e.Last != nil {
		msg += ": " + e.Last.Error()
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return e.Last }

// Is lets callers match any wait timeout with errors.Is(err, context.DeadlineExceeded).
func (e *TimeoutError) Is(target error) bool {
	return target == context.DeadlineExceeded
}

// WaitUntil polls cond every interval until it reports true, returns a
// non-nil error from a canceled parent, or timeout elapses. cond is always
// evaluated at least once. Errors returned by cond are treated as "not yet"
// and surfaced on timeout.
func WaitUntil(ctx context.Context, what string, timeout, interval time.Duration, cond func(ctx context.Context) (bool, error)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last error
	for {
		ok, err := cond(waitCtx)
		if err == nil && ok {
			return nil
		}
		if err != nil {
			last = err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Swallow the deadline error the condition itself saw.
			if errors.Is(last, context.DeadlineExceeded) {
				last = nil
			}
			return &TimeoutError{What: what, After: timeout, Last: last}
		case <-ticker.C:
		}
	}
}
