package domain

import "errors"

var (
	// ErrMalformedOrder is returned when a raw order record cannot be turned
	// into a valid Order. The record is skipped; the run continues.
	ErrMalformedOrder = errors.New("malformed order record")

	// ErrNoRoute is returned when the route service reports no path between
	// two systems.
	ErrNoRoute = errors.New("no route between systems")
)

// ServiceError represents a failure of the external market-data service.
// These are fatal to the run: the engine does not retry or substitute
// defaults.
type ServiceError struct {
	Op  string // operation that failed, e.g. "fetch orders", "lookup volume"
	Err error
}

func (e *ServiceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps an external-service failure.
func NewServiceError(op string, err error) *ServiceError {
	return &ServiceError{Op: op, Err: err}
}
