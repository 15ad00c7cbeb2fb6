package binding

import "errors"

// Binding configuration errors. All of them are raised while the bindings are
// built, never while the control loop runs.
var (
	// ErrNoAction indicates a binding without an onTrue effect.
	ErrNoAction = errors.New("binding: no action")

	// ErrInvalidBinding indicates a malformed binding.
	ErrInvalidBinding = errors.New("binding: invalid binding")

	// ErrInvalidPolicy indicates an unknown dispatch policy.
	ErrInvalidPolicy = errors.New("binding: invalid policy")

	// ErrDuplicateBinding indicates two bindings with the same name in a set.
	ErrDuplicateBinding = errors.New("binding: duplicate binding")

	// ErrSharedState indicates a latch or selector handed to a second binding.
	ErrSharedState = errors.New("binding: state already owned")
)
