package walk

import "errors"

var (
	// ErrLocationUnsupported means the platform has no location capability.
	ErrLocationUnsupported = errors.New("location unsupported")
	// ErrLocationUnavailable means a specific acquisition attempt failed:
	// permission denied, timeout, or a hardware error.
	ErrLocationUnavailable = errors.New("location unavailable")
	// ErrTrackingBackend wraps every failed call to the REST backend.
	ErrTrackingBackend = errors.New("tracking backend error")
	// ErrPollingTransient marks a failed background refresh.
	ErrPollingTransient = errors.New("polling transient error")
)

// IsLocationError reports whether err came from position acquisition.
func IsLocationError(err error) bool {
	return errors.Is(err, ErrLocationUnsupported) || errors.Is(err, ErrLocationUnavailable)
}
