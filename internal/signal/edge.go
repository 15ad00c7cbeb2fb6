package signal

// EdgeState classifies one cycle of a boolean signal against the previous cycle.
type EdgeState uint8

const (
	// SteadyLow means false on both cycles.
	SteadyLow EdgeState = iota
	// Rising means false then true.
	Rising
	// SteadyHigh means true on both cycles.
	SteadyHigh
	// Falling means true then false.
	Falling
)

// Classify derives the edge state from the previous and current sample.
func Classify(previous, current bool) EdgeState {
	switch {
	case !previous && current:
		return Rising
	case previous && !current:
		return Falling
	case current:
		return SteadyHigh
	default:
		return SteadyLow
	}
}

// High reports whether the signal is true on the current cycle.
func (e EdgeState) High() bool {
	return e == Rising || e == SteadyHigh
}

// String returns the edge state name.
func (e EdgeState) String() string {
	switch e {
	case SteadyLow:
		return "steady-low"
	case Rising:
		return "rising"
	case SteadyHigh:
		return "steady-high"
	case Falling:
		return "falling"
	default:
		return "unknown"
	}
}
