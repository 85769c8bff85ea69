package bolt

import "errors"

var (
	// ErrNoParameters is returned when Start receives an empty parameter list
	ErrNoParameters = errors.New("bolt: no parameters")

	// ErrNilDependencies is returned when Start receives no dependency bundle
	ErrNilDependencies = errors.New("bolt: nil dependencies")

	// ErrInUse is returned when Start is called on an instance already bound to dependencies
	ErrInUse = errors.New("bolt: instance already in use")

	// ErrClosed is returned once the manager or its scheduler is terminating
	ErrClosed = errors.New("bolt: manager closed")
)
