// Package apperr defines the error taxonomy shared by the gateway packages.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAddress is returned when a string is not a valid account address.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidArgument is returned for local validation failures.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrProviderUnavailable signals that a data source could not answer.
	// It never reaches HTTP clients.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPersistence is returned when a store cannot be reached.
	ErrPersistence = errors.New("persistence error")
)

// UpstreamError is returned when a required remote call fails.
type UpstreamError struct {
	Service string // "jupiter", "rpc", ...
	Status  int    // HTTP status, 0 when no response
	Body    string // upstream body for diagnostics
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Service, e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Upstream wraps err as an UpstreamError without a response.
func Upstream(service string, err error) error {
	return &UpstreamError{Service: service, Err: err}
}

// Invalid wraps a message as ErrInvalidArgument.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
