// File: internal/navigation/errors.go
package navigation

import "fmt"

// NavigationError is returned when every page-load attempt for a target failed.
type NavigationError struct {
	URL      string
	Label    string
	Attempts int
	Err      error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s (%s) failed after %d attempt(s): %v", e.URL, e.Label, e.Attempts, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// AuthenticationError is returned when the admin UI never showed a
// logged-in indicator. Challenge names the anti-bot marker seen on the
// page, if any.
type AuthenticationError struct {
	URL       string
	Challenge string
	Err       error
}

func (e *AuthenticationError) Error() string {
	msg := fmt.Sprintf("could not log in to the admin panel (url=%s)", e.URL)
	if e.Challenge != "" {
		msg += fmt.Sprintf(", possible challenge %q", e.Challenge)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthenticationError) Unwrap() error { return e.Err }
