package signal

import "errors"

// Signal errors.
var (
	// ErrUnknownSignal indicates a name the source layout does not declare.
	ErrUnknownSignal = errors.New("signal: unknown signal")

	// ErrInvalidTrigger indicates a malformed trigger description.
	ErrInvalidTrigger = errors.New("signal: invalid trigger")

	// ErrInvalidPosition indicates an unknown directional position.
	ErrInvalidPosition = errors.New("signal: invalid position")

	// ErrSourceClosed indicates the source can no longer be sampled.
	ErrSourceClosed = errors.New("signal: source closed")
)
