package signal

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the shape of a signal's value.
type Kind uint8

const (
	// Digital signals are buttons: true while pressed.
	Digital Kind = iota
	// Directional signals are d-pad/hat positions.
	Directional
	// Analog signals are axes in [-1, 1].
	Analog
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Digital:
		return "digital"
	case Directional:
		return "directional"
	case Analog:
		return "analog"
	default:
		return "unknown"
	}
}

// Position is a directional-pad angle in degrees, or PositionNone.
type Position int

// Directional positions, clockwise from up.
const (
	PositionNone Position = -1
	Up           Position = 0
	UpRight      Position = 45
	Right        Position = 90
	DownRight    Position = 135
	Down         Position = 180
	DownLeft     Position = 225
	Left         Position = 270
	UpLeft       Position = 315
)

var positionNames = map[Position]string{
	PositionNone: "none",
	Up:           "up",
	UpRight:      "up-right",
	Right:        "right",
	DownRight:    "down-right",
	Down:         "down",
	DownLeft:     "down-left",
	Left:         "left",
	UpLeft:       "up-left",
}

// Valid reports whether p is one of the defined positions.
func (p Position) Valid() bool {
	_, ok := positionNames[p]
	return ok
}

// String returns the position name.
func (p Position) String() string {
	if name, ok := positionNames[p]; ok {
		return name
	}
	return strconv.Itoa(int(p))
}

// ParsePosition accepts a position name ("up", "down-left", "none") or an angle.
func ParsePosition(s string) (Position, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, name := range positionNames {
		if s == name {
			return p, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return PositionNone, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	p := Position(n)
	if !p.Valid() {
		return PositionNone, fmt.Errorf("%w: %d", ErrInvalidPosition, n)
	}
	return p, nil
}

// Layout declares the signals a source provides.
type Layout struct {
	Buttons []string
	Hats    []string
	Axes    []string
}

// Has reports whether the layout declares name with the given kind.
func (l Layout) Has(kind Kind, name string) bool {
	var names []string
	switch kind {
	case Digital:
		names = l.Buttons
	case Directional:
		names = l.Hats
	case Analog:
		names = l.Axes
	}
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// Names returns every declared name, sorted.
func (l Layout) Names() []string {
	names := make([]string, 0, len(l.Buttons)+len(l.Hats)+len(l.Axes))
	names = append(names, l.Buttons...)
	names = append(names, l.Hats...)
	names = append(names, l.Axes...)
	sort.Strings(names)
	return names
}

// Standard gamepad signal names.
const (
	ButtonA      = "A"
	ButtonB      = "B"
	ButtonX      = "X"
	ButtonY      = "Y"
	BumperLeft   = "LB"
	BumperRight  = "RB"
	ButtonBack   = "Back"
	ButtonStart  = "Start"
	StickLeft    = "LS"
	StickRight   = "RS"
	POV          = "POV"
	AxisLeftX    = "LeftX"
	AxisLeftY    = "LeftY"
	AxisRightX   = "RightX"
	AxisRightY   = "RightY"
	TriggerLeft  = "LeftTrigger"
	TriggerRight = "RightTrigger"
)

// XboxLayout returns the layout of a standard two-stick gamepad.
func XboxLayout() Layout {
	return Layout{
		Buttons: []string{
			ButtonA, ButtonB, ButtonX, ButtonY,
			BumperLeft, BumperRight, ButtonBack, ButtonStart,
			StickLeft, StickRight,
		},
		Hats: []string{POV},
		Axes: []string{
			AxisLeftX, AxisLeftY, AxisRightX, AxisRightY,
			TriggerLeft, TriggerRight,
		},
	}
}

// HatPosition converts hat deflections to a position. x is negative to the
// left and y negative upward, matching gamepad hat axes; only the signs
// matter. No deflection is PositionNone.
func HatPosition(x, y int) Position {
	switch {
	case y < 0 && x == 0:
		return Up
	case y < 0 && x > 0:
		return UpRight
	case y == 0 && x > 0:
		return Right
	case y > 0 && x > 0:
		return DownRight
	case y > 0 && x == 0:
		return Down
	case y > 0 && x < 0:
		return DownLeft
	case y == 0 && x < 0:
		return Left
	case y < 0 && x < 0:
		return UpLeft
	default:
		return PositionNone
	}
}

// ApplyDeadband zeroes values whose magnitude is below deadband.
func ApplyDeadband(value, deadband float64) float64 {
	if value > -deadband && value < deadband {
		return 0
	}
	return value
}

func clamp(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}
