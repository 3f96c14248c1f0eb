package pipeline

import (
	"errors"
	"fmt"
)

// Common pipeline errors. Both indicate misconfiguration rather than bad
// input data and are never retried.
var (
	// ErrNotRegistered indicates that a model, or a field of a model, has
	// no transform registered in the pipeline.
	ErrNotRegistered = errors.New("no transform registered")

	// ErrNoLookup indicates that a get-or-create operation was invoked
	// without a lookup function, either per-call or as a pipeline default.
	ErrNoLookup = errors.New("no lookup supplied")
)

// Error tags a failure raised inside a Transform's Apply with the name of
// the transform that raised it. Run creates it exactly once per failure; it
// propagates unchanged through nested chains so the innermost failing
// transform is the one recorded.
type Error struct {
	// Transform is the Name of the transform whose Apply failed.
	Transform string

	// Err is the original error, untouched.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("transform %s: %v", e.Transform, e.Err)
}

// Unwrap returns the original error, so errors.Is and errors.As observe the
// original failure kind rather than the wrapper.
func (e *Error) Unwrap() error { return e.Err }

// FieldError is the pipeline-boundary form of a transform failure, produced
// when building a single constructor argument. It is the one place where
// human-readable provenance is assembled; every other layer passes
// structured provenance through untouched.
type FieldError struct {
	// Model is the registered name of the model being built.
	Model string

	// Field is the constructor argument that failed to build.
	Field string

	// Transform is the name of the innermost failing transform.
	Transform string

	// Err is the original error raised by that transform.
	Err error
}

// Error formats the full provenance trail: which field of which model
// failed, inside which transform, and why.
func (e *FieldError) Error() string {
	return fmt.Sprintf("failed @ %s.%s: %s: %v", e.Model, e.Field, e.Transform, e.Err)
}

// Unwrap returns the original error. The transform-level *Error wrapper is
// deliberately dropped so the unwrap chain reaches the original failure
// kind in one step.
func (e *FieldError) Unwrap() error { return e.Err }
