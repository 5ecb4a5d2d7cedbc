package registry

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAddress = errors.New("invalid registry address")
	ErrBuildRequest   = errors.New("build registry request")
	ErrTransport      = errors.New("registry request failed")
	ErrDecodeResponse = errors.New("decode registry response")
	ErrUnexpectedCode = errors.New("unexpected registry status")
	ErrSaveFailed     = errors.New("save failed")
	ErrResetFailed    = errors.New("reset failed")
)

// StatusError reports a non-2xx response. Err is the operation sentinel
// (ErrSaveFailed, ErrResetFailed or ErrUnexpectedCode).
type StatusError struct {
	Err        error
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v: %d", e.Err, e.StatusCode)
	}
	return fmt.Sprintf("%v: %d: %s", e.Err, e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0 when err did not
// come from a non-2xx response.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
