// pkg/fingerprint/errors.go
package fingerprint

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned by New for configurations it cannot run.
	ErrInvalidConfig = errors.New("fingerprint: invalid config")

	// ErrConfigMismatch is returned when fingerprints produced under
	// different Params are compared.
	ErrConfigMismatch = errors.New("fingerprint: config mismatch")
)

// StreamError reports a failure of the byte source. Op is "open", "read"
// or "close".
type StreamError struct {
	Op  string
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("fingerprint: %s stream: %v", e.Op, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }
