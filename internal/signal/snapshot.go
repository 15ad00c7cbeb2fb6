package signal

// Snapshot holds one sample of every signal, taken at a single instant.
// Sources build a snapshot and never modify it after returning it.
type Snapshot struct {
	cycle       uint64
	digital     map[string]bool
	directional map[string]Position
	analog      map[string]float64
}

// NewSnapshot creates an empty snapshot for the given cycle.
func NewSnapshot(cycle uint64) Snapshot {
	return Snapshot{
		cycle:       cycle,
		digital:     make(map[string]bool),
		directional: make(map[string]Position),
		analog:      make(map[string]float64),
	}
}

// Cycle returns the control cycle the snapshot was taken in.
func (s Snapshot) Cycle() uint64 {
	return s.cycle
}

// Digital returns a button value; unknown names read as released.
func (s Snapshot) Digital(name string) bool {
	return s.digital[name]
}

// Directional returns a hat position; unknown names read as PositionNone.
func (s Snapshot) Directional(name string) Position {
	if p, ok := s.directional[name]; ok {
		return p
	}
	return PositionNone
}

// Analog returns an axis value; unknown names read as zero.
func (s Snapshot) Analog(name string) float64 {
	return s.analog[name]
}

// SetDigital records a button value. Only sources call this while building.
func (s Snapshot) SetDigital(name string, v bool) {
	s.digital[name] = v
}

// SetDirectional records a hat position. Only sources call this while building.
func (s Snapshot) SetDirectional(name string, p Position) {
	s.directional[name] = p
}

// SetAnalog records an axis value clamped to [-1, 1].
func (s Snapshot) SetAnalog(name string, v float64) {
	s.analog[name] = clamp(v)
}

// Source samples an input device.
type Source interface {
	// Layout returns the signals this source provides.
	Layout() Layout

	// Sample reads every signal once. It is called exactly once per cycle.
	Sample(cycle uint64) (Snapshot, error)
}
