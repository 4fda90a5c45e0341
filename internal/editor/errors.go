// File: internal/editor/errors.go
package editor

import (
	"errors"
	"fmt"
)

var (
	// ErrNoVideoControl means no toolbar control opened the URL-entry surface.
	ErrNoVideoControl = errors.New("no toolbar control opened the video dialog")
	// ErrNoModalContainer means the URL-entry surface has no dialog, modal or form ancestor.
	ErrNoModalContainer = errors.New("video dialog container not found")
	// ErrNoConfirmControl means the dialog container has no usable confirm button.
	ErrNoConfirmControl = errors.New("no button to confirm the video")
)

// InsertionDialogError reports a failure to open or submit the video
// insertion dialog. Stage is "open" or "confirm".
type InsertionDialogError struct {
	Stage string
	Err   error
}

func (e *InsertionDialogError) Error() string {
	return fmt.Sprintf("video insertion dialog (%s): %v", e.Stage, e.Err)
}

func (e *InsertionDialogError) Unwrap() error { return e.Err }

// SaveControlNotFoundError reports that no save control could be located.
// Last is the error of the final lookup.
type SaveControlNotFoundError struct {
	Tried []string
	Last  error
}

func (e *SaveControlNotFoundError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("save control not found (tried %d strategies)", len(e.Tried))
	}
	return fmt.Sprintf("save control not found (tried %d strategies): %v", len(e.Tried), e.Last)
}

func (e *SaveControlNotFoundError) Unwrap() error { return e.Last }
