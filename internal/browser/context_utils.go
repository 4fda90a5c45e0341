// internal/browser/context_utils.go
package browser

import (
	"context"
	"errors"
	"time"
)

// CombineContext returns a context that carries the values of primary (the
// chromedp tab context) but is canceled when either primary or op is done.
// op supplies the caller's deadline, and its expiry surfaces as
// context.DeadlineExceeded on the combined context, not as Canceled.
func CombineContext(primary, op context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)
	dl, hasDeadline := op.Deadline()
	if hasDeadline {
		var cancelDeadline context.CancelFunc
		combined, cancelDeadline = context.WithDeadline(combined, dl)
		inner := cancel
		cancel = func() { cancelDeadline(); inner() }
	}

	stop := context.AfterFunc(op, func() {
		// The combined context carries the same deadline and expires on its own.
		if hasDeadline && errors.Is(op.Err(), context.DeadlineExceeded) {
			return
		}
		cancel()
	})
	return combined, func() {
		stop()
		cancel()
	}
}

// valueOnlyContext inherits values from its parent but never its
// cancellation or deadline.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }
func (valueOnlyContext) Done() <-chan struct{}                    { return nil }
func (valueOnlyContext) Err() error                               { return nil }

// Detach returns a context with ctx's values that survives ctx being
// canceled. Cleanup on the tab (stopping a load, releasing script handles)
// runs on a detached context so a timed-out operation can still tidy up.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
