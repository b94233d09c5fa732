package extension

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateIdentifier is returned by New when two compiled-in
	// extensions share an identifier. It indicates a build misconfiguration.
	ErrDuplicateIdentifier = errors.New("duplicate extension identifier")

	// ErrAlreadyInitialized is returned by Init on a registry that has
	// already left PhaseUninitialized.
	ErrAlreadyInitialized = errors.New("extension registry already initialized")

	// ErrRoutesDropped is the cause of an InitializationError when a router
	// hook returns an accumulator missing earlier contributions.
	ErrRoutesDropped = errors.New("router hook dropped earlier route contributions")

	// ErrRouteConflict is returned when two contributions register the same
	// method and pattern.
	ErrRouteConflict = errors.New("conflicting extension routes")

	// ErrArgType signals a call argument with an unexpected concrete type.
	ErrArgType = errors.New("extension call argument has unexpected type")

	// ErrResultType signals a call result with an unexpected concrete type.
	ErrResultType = errors.New("extension call result has unexpected type")
)

// InitializationError reports the extension whose boot hook failed.
type InitializationError struct {
	Identifier string
	Err        error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initializing extension %q: %v", e.Identifier, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }
