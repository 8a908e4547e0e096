package providers

import (
	"errors"
	"fmt"
)

// UnsupportedError marks a documented capability gap, not a vendor failure.
// The dispatcher catches it for fallback-eligible operations; everywhere
// else it surfaces as a clear "not supported by this provider" response.
type UnsupportedError struct {
	Provider  Name
	Operation string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s not supported by provider %s", e.Operation, e.Provider)
}

func IsUnsupported(err error) bool {
	var ue *UnsupportedError
	return errors.As(err, &ue)
}

// APIError wraps a vendor call failure with enough context to log and to
// embed the vendor's message in the gateway response.
type APIError struct {
	Provider  Name
	Operation string
	Err       error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Operation, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func apiErr(provider Name, operation string, err error) error {
	return &APIError{Provider: provider, Operation: operation, Err: err}
}
