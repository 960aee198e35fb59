package tracker

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Sentinel errors for tracker operations
var (
	ErrNotEditing    = errors.New("no row is being edited")
	ErrRowLocked     = errors.New("row is locked")
	ErrRowNotFound   = errors.New("row not found")
	ErrNotWired      = errors.New("row is not wired")
	ErrSaveInFlight  = errors.New("save already in progress")
	ErrReadOnly      = errors.New("view is read-only")
	ErrFieldReadOnly = errors.New("field is not editable")
)

// SaveError records a save the server rejected. Message is the server's
// explanation trimmed to the message limit and may be empty.
type SaveError struct {
	Err     error
	Message string
	RowID   int64
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("saving row %d: %v", e.RowID, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// NewSaveError creates a new SaveError
func NewSaveError(rowID int64, err error, message string) *SaveError {
	return &SaveError{
		RowID:   rowID,
		Err:     err,
		Message: message,
	}
}

// serverMessager is implemented by transport errors that carry the
// response body of a failed request.
type serverMessager interface {
	ServerMessage() string
}

func serverMessage(err error) string {
	var sm serverMessager
	if errors.As(err, &sm) {
		return sm.ServerMessage()
	}
	return ""
}

func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
