package shopify

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound distinguishes 404 responses from other API failures.
var ErrNotFound = errors.New("not_found")

// TransportError is a network-level failure reaching the platform.
// Always retryable by the caller.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("shopify %s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx response from the platform.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify %s: status %d: %s", e.Op, e.Status, e.Body)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// IsTransport reports whether err was a network-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
