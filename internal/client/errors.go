package client

import "fmt"

// StatusError records a fetch that returned an unexpected status.
type StatusError struct {
	Path       string
	Status     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: %s", e.Path, e.Status)
}

// NewStatusError creates a new StatusError
func NewStatusError(path string, code int, status string) *StatusError {
	return &StatusError{
		Path:       path,
		StatusCode: code,
		Status:     status,
	}
}

// UpdateError records a save the server rejected.
type UpdateError struct {
	Status     string
	Body       string
	StatusCode int
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("update failed (%s)", e.Status)
}

// ServerMessage returns the server's explanation, trimmed.
func (e *UpdateError) ServerMessage() string {
	return trimMessage(e.Body)
}

// NewUpdateError creates a new UpdateError
func NewUpdateError(code int, status, body string) *UpdateError {
	return &UpdateError{
		StatusCode: code,
		Status:     status,
		Body:       body,
	}
}
