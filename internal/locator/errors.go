// File: internal/locator/errors.go
package locator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is synthesized when a chain ends without any strategy
	// having waited for an element.
	ErrNotFound = errors.New("element not found")
	// ErrNotActionable marks elements that exist but are hidden or disabled.
	ErrNotActionable = errors.New("element found but not visible and enabled")
)

// NotActionableError reports a strategy that matched only unusable elements.
type NotActionableError struct {
	Strategy string
	Matched  int
}

func (e *NotActionableError) Error() string {
	return fmt.Sprintf("strategy %s matched %d element(s), none visible and enabled", e.Strategy, e.Matched)
}

func (e *NotActionableError) Unwrap() error { return ErrNotActionable }

// LocatorExhaustedError reports that no strategy of a chain produced a
// usable element. Last is the final strategy's failure.
type LocatorExhaustedError struct {
	Target     string
	Strategies []string
	Last       error
}

func (e *LocatorExhaustedError) Error() string {
	return fmt.Sprintf("no strategy located %s (tried %s): %v",
		e.Target, strings.Join(e.Strategies, ", "), e.Last)
}

func (e *LocatorExhaustedError) Unwrap() error { return e.Last }
