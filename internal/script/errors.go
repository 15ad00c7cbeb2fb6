package script

import "errors"

// Script errors.
var (
	// ErrInvalidScript indicates a script that does not define a usable command.
	ErrInvalidScript = errors.New("script: invalid script")

	// ErrUnknownSubsystem indicates a reference to a subsystem the host lacks.
	ErrUnknownSubsystem = errors.New("script: unknown subsystem")

	// ErrUnsupported indicates a host call the subsystem cannot perform.
	ErrUnsupported = errors.New("script: unsupported operation")

	// ErrScriptClosed is returned by a command whose Lua state is closed.
	ErrScriptClosed = errors.New("script: closed")
)
