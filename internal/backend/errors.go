package backend

import (
	"fmt"

	"github.com/roncastellon/BWM-walker-app-sub000/internal/walk"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Method string
	Path   string
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Status)
}

func (e *APIError) Unwrap() error {
	return walk.ErrTrackingBackend
}
