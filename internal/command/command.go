package command

import "fmt"

// Resource is a controlled subsystem that at most one command may own at a time.
type Resource interface {
	Name() string
}

// Command is a unit of work with an explicit lifecycle.
//
// The scheduler calls Start once when the command acquires its resources,
// Execute once per cycle while it is active, IsFinished after each Execute,
// and End exactly once per activation, either after IsFinished returns true
// (interrupted=false) or when another command preempts it (interrupted=true).
//
// None of the methods may block.
type Command interface {
	// Name identifies the command in logs and events.
	Name() string

	// Requirements lists the resources the command needs exclusively,
	// in the order they are claimed.
	Requirements() []Resource

	Start() error
	Execute() error
	IsFinished() bool
	End(interrupted bool) error
}

// State is the execution state of a command as seen by the scheduler.
type State uint8

const (
	// Idle commands are not scheduled.
	Idle State = iota
	// Running commands own their resources and execute every cycle.
	Running
	// Ending commands are inside End.
	Ending
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Ending:
		return "ending"
	default:
		return "unknown"
	}
}

// base carries the name and requirements shared by the concrete commands.
type base struct {
	name         string
	requirements []Resource
}

func newBase(name string, reqs []Resource) (base, error) {
	if name == "" {
		return base{}, fmt.Errorf("%w: empty name", ErrInvalidCommand)
	}
	for i, r := range reqs {
		if r == nil {
			return base{}, fmt.Errorf("%w: %s: nil requirement %d", ErrInvalidCommand, name, i)
		}
	}
	return base{name: name, requirements: dedupe(reqs)}, nil
}

// Name implements Command.
func (b *base) Name() string {
	return b.name
}

// Requirements implements Command.
func (b *base) Requirements() []Resource {
	return b.requirements
}

// dedupe drops repeated resources, keeping first-declared order.
func dedupe(reqs []Resource) []Resource {
	out := make([]Resource, 0, len(reqs))
	seen := make(map[Resource]bool, len(reqs))
	for _, r := range reqs {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// Requires reports whether cmd lists r among its requirements.
func Requires(cmd Command, r Resource) bool {
	for _, req := range cmd.Requirements() {
		if req == r {
			return true
		}
	}
	return false
}
