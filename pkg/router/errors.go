package router

import (
	"errors"
	"fmt"
)

// ErrNoHandler is returned by Fetch when no route accepts the update.
var ErrNoHandler = errors.New("no handler")

// PanicError wraps a value recovered from a panicking middleware or handler.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
