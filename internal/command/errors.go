package command

import "errors"

// Command errors.
var (
	// ErrInvalidCommand indicates a command that cannot be constructed as given.
	ErrInvalidCommand = errors.New("command: invalid command")

	// ErrDuplicateName indicates a registry name that is already taken.
	ErrDuplicateName = errors.New("command: duplicate name")

	// ErrUnknownName indicates a registry lookup of an unregistered name.
	ErrUnknownName = errors.New("command: unknown name")
)
