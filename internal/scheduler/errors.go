package scheduler

import (
	"errors"
	"fmt"
)

// Scheduler errors.
var (
	// ErrNilCommand indicates a nil command was scheduled or installed.
	ErrNilCommand = errors.New("scheduler: nil command")

	// ErrUnregisteredResource indicates a command requiring an unknown resource.
	ErrUnregisteredResource = errors.New("scheduler: unregistered resource")

	// ErrDefaultRequirement indicates a default command that does not require
	// exactly its resource.
	ErrDefaultRequirement = errors.New("scheduler: default command requirements")

	// ErrDefaultRunning indicates an attempt to replace a running default.
	ErrDefaultRunning = errors.New("scheduler: default command is running")

	// ErrInvalidPeriod indicates a non-positive loop period.
	ErrInvalidPeriod = errors.New("scheduler: invalid period")
)

// Phase names the lifecycle step in which a command failed.
type Phase string

// Lifecycle phases.
const (
	PhaseStart   Phase = "start"
	PhaseExecute Phase = "execute"
	PhaseEnd     Phase = "end"
)

// ActionError wraps a failure returned by a command, typically an actuator
// fault. The scheduler does not retry; the cycle stops and the error is
// returned to the caller.
type ActionError struct {
	Command string
	Phase   Phase
	Cycle   uint64
	Err     error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("scheduler: %s failed in %s (cycle %d): %v", e.Command, e.Phase, e.Cycle, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}
