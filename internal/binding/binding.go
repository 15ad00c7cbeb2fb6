package binding

import (
	"fmt"

	"github.com/dshills/teleop/internal/command"
	"github.com/dshills/teleop/internal/signal"
)

// Policy decides how trigger edges turn into scheduling requests.
type Policy uint8

const (
	// OneShot schedules onTrue on the rising edge and onFalse on the falling edge.
	OneShot Policy = iota

	// RepeatWhileHeld schedules onTrue on every cycle the trigger is high.
	// Scheduling a running command is a no-op, so instant commands fire every
	// cycle while continuous ones keep running. On the falling edge onTrue is
	// cancelled and onFalse scheduled once.
	RepeatWhileHeld

	// WhileHeld schedules onTrue on the rising edge and cancels it on the
	// falling edge, handing the resource back to its default.
	WhileHeld
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case OneShot:
		return "one-shot"
	case RepeatWhileHeld:
		return "repeat-while-held"
	case WhileHeld:
		return "while-held"
	default:
		return "unknown"
	}
}

// ParsePolicy parses a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "one-shot", "oneshot":
		return OneShot, nil
	case "repeat-while-held", "repeat":
		return RepeatWhileHeld, nil
	case "while-held", "hold":
		return WhileHeld, nil
	default:
		return OneShot, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
}

// Op is the kind of request a binding emits.
type Op uint8

const (
	// OpSchedule asks the scheduler to start a command.
	OpSchedule Op = iota
	// OpCancel asks the scheduler to interrupt a command if it is running.
	OpCancel
)

// String returns the op name.
func (o Op) String() string {
	if o == OpCancel {
		return "cancel"
	}
	return "schedule"
}

// Request is one scheduling request produced during binding evaluation.
type Request struct {
	Op      Op
	Command command.Command
	Binding string
}

// Binding maps a trigger condition to command requests. It is immutable once
// built, apart from the toggle latch or level selector it owns.
type Binding struct {
	name    string
	trigger signal.Trigger
	policy  Policy
	onTrue  command.Command
	onFalse command.Command

	// Edge handlers run on each qualifying rising edge before onTrue is
	// requested. Only the owning binding mutates its latch.
	toggle *ToggleState
	levels *LevelSelector
}

// Option configures a Binding.
type Option func(*Binding)

// OnFalse sets the command scheduled on the falling edge.
func OnFalse(cmd command.Command) Option {
	return func(b *Binding) {
		b.onFalse = cmd
	}
}

// Repeat selects the RepeatWhileHeld policy.
func Repeat() Option {
	return func(b *Binding) {
		b.policy = RepeatWhileHeld
	}
}

// Hold selects the WhileHeld policy.
func Hold() Option {
	return func(b *Binding) {
		b.policy = WhileHeld
	}
}

// WithPolicy selects a policy explicitly.
func WithPolicy(p Policy) Option {
	return func(b *Binding) {
		b.policy = p
	}
}

// Bind creates a binding. onTrue is required; onFalse defaults to nothing and
// the policy to OneShot.
func Bind(name string, trigger signal.Trigger, onTrue command.Command, opts ...Option) (*Binding, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty binding name", ErrInvalidBinding)
	}
	if onTrue == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoAction, name)
	}

	b := &Binding{
		name:    name,
		trigger: trigger,
		policy:  OneShot,
		onTrue:  onTrue,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.policy > WhileHeld {
		return nil, fmt.Errorf("%w: %s: policy %d", ErrInvalidPolicy, name, b.policy)
	}
	if b.onFalse == b.onTrue {
		return nil, fmt.Errorf("%w: %s: onFalse is the onTrue command", ErrInvalidBinding, name)
	}
	return b, nil
}

// Name returns the binding name.
func (b *Binding) Name() string { return b.name }

// Trigger returns the watched trigger.
func (b *Binding) Trigger() signal.Trigger { return b.trigger }

// Policy returns the dispatch policy.
func (b *Binding) Policy() Policy { return b.policy }

// OnTrue returns the command requested while the trigger qualifies.
func (b *Binding) OnTrue() command.Command { return b.onTrue }

// OnFalse returns the falling-edge command, or nil.
func (b *Binding) OnFalse() command.Command { return b.onFalse }

// Toggle returns the owned toggle latch, or nil.
func (b *Binding) Toggle() *ToggleState { return b.toggle }

// Levels returns the owned level selector, or nil.
func (b *Binding) Levels() *LevelSelector { return b.levels }

// String describes the binding for logs.
func (b *Binding) String() string {
	s := fmt.Sprintf("%s: %s -> %s (%s)", b.name, b.trigger, b.onTrue.Name(), b.policy)
	if b.onFalse != nil {
		s += fmt.Sprintf(", release -> %s", b.onFalse.Name())
	}
	return s
}

// Evaluate classifies the trigger between two snapshots and appends the
// resulting requests to out.
func (b *Binding) Evaluate(previous, current signal.Snapshot, out []Request) []Request {
	edge := b.trigger.Edge(previous, current)

	switch b.policy {
	case OneShot:
		switch edge {
		case signal.Rising:
			out = append(out, b.request(OpSchedule, b.onTrue))
		case signal.Falling:
			if b.onFalse != nil {
				out = append(out, b.request(OpSchedule, b.onFalse))
			}
		}

	case RepeatWhileHeld:
		switch {
		case edge.High():
			out = append(out, b.request(OpSchedule, b.onTrue))
		case edge == signal.Falling:
			out = append(out, b.request(OpCancel, b.onTrue))
			if b.onFalse != nil {
				out = append(out, b.request(OpSchedule, b.onFalse))
			}
		}

	case WhileHeld:
		switch edge {
		case signal.Rising:
			out = append(out, b.request(OpSchedule, b.onTrue))
		case signal.Falling:
			out = append(out, b.request(OpCancel, b.onTrue))
			if b.onFalse != nil {
				out = append(out, b.request(OpSchedule, b.onFalse))
			}
		}
	}

	return out
}

func (b *Binding) request(op Op, cmd command.Command) Request {
	return Request{Op: op, Command: cmd, Binding: b.name}
}
