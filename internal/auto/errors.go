package auto

import "errors"

// Routine errors.
var (
	// ErrInvalidRoutine indicates a routine file that cannot be used as written.
	ErrInvalidRoutine = errors.New("auto: invalid routine")

	// ErrUnknownRoutine indicates a lookup of a routine that is not loaded.
	ErrUnknownRoutine = errors.New("auto: unknown routine")

	// ErrUnknownCommand indicates a step naming a command the registry lacks.
	ErrUnknownCommand = errors.New("auto: unknown command")

	// ErrWatcherClosed is returned when starting a closed watcher.
	ErrWatcherClosed = errors.New("auto: watcher closed")
)
