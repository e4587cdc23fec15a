package apiclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dvcrn/activity-dashboard/internal/endpoints"
)

// ErrUnknownEndpoint is returned before any network call when the entity
// name is not registered.
var ErrUnknownEndpoint = endpoints.ErrUnknownEndpoint

// ErrNoRefreshToken means the store held no refresh token when a 401 was
// observed. Callers never see it; they receive the original 401 instead.
var ErrNoRefreshToken = errors.New("no refresh token available")

// NetworkError is a transport failure where no response was received.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is any non-2xx answer from the backend.
type HTTPError struct {
	Method string
	URL    string
	Status int
	Body   []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.Status, string(e.Body))
}

// Unauthorized reports whether the backend rejected the access token.
func (e *HTTPError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// RefreshError is a failed refresh sub-call. It is always terminal and the
// stored credentials have been cleared by the time it is returned.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err is a 401 HTTPError.
func IsUnauthorized(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Unauthorized()
}
