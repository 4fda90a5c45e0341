// File: internal/feed/errors.go
package feed

import (
	"errors"
	"fmt"
)

// ErrEmptyFeed is returned when the feed parses but carries no entries.
var ErrEmptyFeed = errors.New("feed contains no entries")

// FeedError reports a feed that could not be fetched or understood.
type FeedError struct {
	URL    string
	Reason string
	Err    error
}

func (e *FeedError) Error() string {
	msg := fmt.Sprintf("feed %s: %s", e.URL, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FeedError) Unwrap() error { return e.Err }
