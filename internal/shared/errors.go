package shared

import (
	"errors"
	"fmt"
)

// RequestError is used when we want a specific error message and StatusCode.
// Sane defaults are listed below. Routes that need custom error messages
// build their own and the boundary translator returns the exact message
// inside the request error.
//
// Validation and auth errors are rejected at the boundary and never reach
// the dispatcher.
type RequestError struct {
	StatusCode int
	Err        error
}

func (r *RequestError) Error() string {
	return fmt.Sprintf("status %d: err %v", r.StatusCode, r.Err)
}

var (
	ErrMissingAuth   = &RequestError{Err: errors.New("missing API key"), StatusCode: 401}
	ErrInvalidFormat = &RequestError{Err: errors.New("invalid authentication format"), StatusCode: 401}
	ErrUnauthorized  = &RequestError{Err: errors.New("invalid or expired API key"), StatusCode: 401}
	ErrInactiveUser  = &RequestError{Err: errors.New("user account is inactive"), StatusCode: 403}

	ErrInvalidRequest  = &RequestError{Err: errors.New("invalid request body"), StatusCode: 400}
	ErrUnknownProvider = &RequestError{Err: errors.New("unknown provider"), StatusCode: 400}

	ErrEmbeddingNotFound = &RequestError{Err: errors.New("embedding not found"), StatusCode: 404}

	ErrInternalServerError = &RequestError{Err: errors.New("internal server error"), StatusCode: 500}
)
