// Package errs defines the error taxonomy shared by the viewer engine.
// Call sites wrap these with fmt.Errorf("...: %w", ...) and callers test
// with errors.Is.
package errs

import "errors"

var (
	// ErrInvalidArgument reports malformed input such as a bad style colour,
	// an out-of-range style index or a wrongly typed load source.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound reports an unknown or unloaded model, or a product that
	// an operation must resolve.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedEnvironment reports a missing or unusable rendering context.
	ErrUnsupportedEnvironment = errors.New("unsupported environment")

	// ErrPreconditionViolation reports a call made in a state that forbids
	// it, e.g. unloading a model while a frame is being drawn.
	ErrPreconditionViolation = errors.New("precondition violation")
)
