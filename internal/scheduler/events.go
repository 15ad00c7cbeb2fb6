package scheduler

import (
	"time"

	"github.com/google/uuid"
)

// EventKind is the lifecycle transition an Event reports.
type EventKind uint8

const (
	// EventStarted follows a successful claim and Start.
	EventStarted EventKind = iota
	// EventFinished follows End(false).
	EventFinished
	// EventInterrupted follows End(true).
	EventInterrupted
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventFinished:
		return "finished"
	case EventInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Event describes one lifecycle transition of a command activation.
type Event struct {
	Kind         EventKind
	ActivationID uuid.UUID
	Command      string
	Resources    []string
	Cycle        uint64
	Default      bool
	Time         time.Time
}

// Observer receives lifecycle events synchronously from the control loop.
// Implementations must not block.
type Observer interface {
	OnEvent(ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev Event)

// OnEvent implements Observer.
func (f ObserverFunc) OnEvent(ev Event) {
	f(ev)
}
