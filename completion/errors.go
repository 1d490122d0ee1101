// Copyright © 2024 The ELPS authors

package completion

import (
	"errors"
	"fmt"
)

// ErrMalformedRequest is matched by every *RequestError.
var ErrMalformedRequest = errors.New("malformed completion request")

// RequestError describes a completion request that cannot be served, such
// as an unreadable document or a position outside of it.
type RequestError struct {
	URI      string
	Position Position
	Reason   string
	Err      error // underlying cause, may be nil
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("%s: %s at %v: %s", ErrMalformedRequest, e.URI, e.Position, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedRequest}
	}
	return []error{ErrMalformedRequest, e.Err}
}
