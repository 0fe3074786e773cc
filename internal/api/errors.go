package api

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a failed backend call with enough context to surface a
// user-friendly notification. Operations are never retried
// automatically.
type APIError struct {
	StatusCode int
	Operation  string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: backend returned %d", e.Operation, e.StatusCode)
}

// UserMessage maps an error to a dismissible notification title and
// message pair. Unknown errors get a generic pair rather than leaking
// internals to the UI.
func UserMessage(err error) (title, message string) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "Something went wrong", "The operation could not be completed. Please try again."
	}

	switch apiErr.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "Invalid data", "The server rejected the submitted data. Check the form and try again."
	case http.StatusNotFound:
		return "Not found", "The requested item no longer exists. It may have been deleted elsewhere."
	case http.StatusConflict:
		return "Conflict", "The item was changed elsewhere. Refresh and try again."
	case http.StatusTooManyRequests:
		return "Too many requests", "Please wait a moment before trying again."
	case http.StatusUnauthorized, http.StatusForbidden:
		return "Not allowed", "You do not have permission to perform this operation."
	default:
		if apiErr.StatusCode >= 500 {
			return "Server error", "The finance service is having trouble. Please try again shortly."
		}
		return "Request failed", "The operation could not be completed. Please try again."
	}
}
