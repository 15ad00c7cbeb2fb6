package signal

import (
	"fmt"
	"strconv"
	"strings"
)

// Trigger projects one signal onto a boolean "pressed" condition.
// Buttons are pressed while down, hats while at a target position and
// axes while past a threshold.
type Trigger struct {
	kind      Kind
	name      string
	position  Position
	threshold float64
	below     bool
}

// Button triggers while the named button is down.
func Button(name string) Trigger {
	return Trigger{kind: Digital, name: name}
}

// Hat triggers while the named hat is at position.
func Hat(name string, position Position) Trigger {
	return Trigger{kind: Directional, name: name, position: position}
}

// POVAt triggers while the standard POV hat is at position.
func POVAt(position Position) Trigger {
	return Hat(POV, position)
}

// AxisAbove triggers while the named axis is greater than threshold.
func AxisAbove(name string, threshold float64) Trigger {
	return Trigger{kind: Analog, name: name, threshold: threshold}
}

// AxisBelow triggers while the named axis is less than threshold.
func AxisBelow(name string, threshold float64) Trigger {
	return Trigger{kind: Analog, name: name, threshold: threshold, below: true}
}

// Kind returns the kind of the underlying signal.
func (t Trigger) Kind() Kind {
	return t.kind
}

// Name returns the underlying signal name.
func (t Trigger) Name() string {
	return t.name
}

// Active reports whether the trigger is pressed in the snapshot.
func (t Trigger) Active(s Snapshot) bool {
	switch t.kind {
	case Digital:
		return s.Digital(t.name)
	case Directional:
		return s.Directional(t.name) == t.position
	case Analog:
		v := s.Analog(t.name)
		if t.below {
			return v < t.threshold
		}
		return v > t.threshold
	default:
		return false
	}
}

// Edge classifies the trigger between two consecutive snapshots.
func (t Trigger) Edge(previous, current Snapshot) EdgeState {
	return Classify(t.Active(previous), t.Active(current))
}

// Validate checks the trigger against a source layout.
func (t Trigger) Validate(layout Layout) error {
	if t.name == "" {
		return fmt.Errorf("%w: empty signal name", ErrInvalidTrigger)
	}
	if !layout.Has(t.kind, t.name) {
		return fmt.Errorf("%w: %s signal %q", ErrUnknownSignal, t.kind, t.name)
	}
	if t.kind == Directional && (t.position == PositionNone || !t.position.Valid()) {
		return fmt.Errorf("%w: hat %q position %v", ErrInvalidTrigger, t.name, t.position)
	}
	return nil
}

// String renders the trigger in the form accepted by ParseTrigger.
func (t Trigger) String() string {
	switch t.kind {
	case Directional:
		if t.name == POV {
			return fmt.Sprintf("pov:%s", t.position)
		}
		return fmt.Sprintf("hat:%s:%s", t.name, t.position)
	case Analog:
		op := ">"
		if t.below {
			op = "<"
		}
		return fmt.Sprintf("axis:%s%s%g", t.name, op, t.threshold)
	default:
		return t.name
	}
}

// ParseTrigger parses a trigger description:
//
//	A                        button
//	pov:up, pov:180          standard POV hat position
//	hat:Hat2:left            named hat position
//	axis:RightTrigger>0.5    axis threshold (also <)
func ParseTrigger(s string) (Trigger, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Trigger{}, fmt.Errorf("%w: empty", ErrInvalidTrigger)
	}

	prefix, rest, found := strings.Cut(s, ":")
	if !found {
		return Button(s), nil
	}

	switch strings.ToLower(prefix) {
	case "pov":
		p, err := ParsePosition(rest)
		if err != nil {
			return Trigger{}, err
		}
		return POVAt(p), nil

	case "hat":
		name, pos, ok := strings.Cut(rest, ":")
		if !ok || name == "" {
			return Trigger{}, fmt.Errorf("%w: %q", ErrInvalidTrigger, s)
		}
		p, err := ParsePosition(pos)
		if err != nil {
			return Trigger{}, err
		}
		return Hat(name, p), nil

	case "axis":
		idx := strings.IndexAny(rest, "<>")
		if idx <= 0 {
			return Trigger{}, fmt.Errorf("%w: %q", ErrInvalidTrigger, s)
		}
		threshold, err := strconv.ParseFloat(strings.TrimSpace(rest[idx+1:]), 64)
		if err != nil {
			return Trigger{}, fmt.Errorf("%w: %q: %v", ErrInvalidTrigger, s, err)
		}
		name := strings.TrimSpace(rest[:idx])
		if rest[idx] == '<' {
			return AxisBelow(name, threshold), nil
		}
		return AxisAbove(name, threshold), nil

	default:
		return Trigger{}, fmt.Errorf("%w: unknown prefix %q", ErrInvalidTrigger, prefix)
	}
}
