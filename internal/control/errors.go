package control

import "errors"

var (
	// ErrUnknownControl indicates an Input naming no known control.
	ErrUnknownControl = errors.New("control: unknown control")

	// ErrBadValue indicates an Input value that does not parse for its control.
	ErrBadValue = errors.New("control: invalid value")
)

// InputError wraps an error with the offending input.
type InputError struct {
	Input   Input
	Wrapped error
}

func (e *InputError) Error() string {
	return e.Wrapped.Error() + ": " + e.Input.Control + "=" + e.Input.Value
}

func (e *InputError) Unwrap() error {
	return e.Wrapped
}
