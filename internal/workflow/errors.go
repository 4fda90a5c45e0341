// File: internal/workflow/errors.go
package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCurrentItem means the current-items section held no selectable entry.
	ErrNoCurrentItem = errors.New("no current item to select")
	// ErrNoLinkTarget means neither the page nor the configuration yielded a URL.
	ErrNoLinkTarget = errors.New("no link target could be resolved")
	// ErrSessionLost means the target page still showed the login form
	// after a fresh login.
	ErrSessionLost = errors.New("session expired again after re-login")
)

// LinkResolutionError is returned when the day's sub-page could not be
// reached and confirmed within the allowed attempts.
type LinkResolutionError struct {
	Attempts int
	Err      error
}

func (e *LinkResolutionError) Error() string {
	return fmt.Sprintf("link resolution failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *LinkResolutionError) Unwrap() error { return e.Err }
