package signal

import "sync"

// MemorySource is a Source whose values are set directly.
// It backs tests and scripted replays.
type MemorySource struct {
	mu          sync.Mutex
	layout      Layout
	digital     map[string]bool
	directional map[string]Position
	analog      map[string]float64
	samples     int
}

// NewMemorySource creates a source with every signal released/centered.
func NewMemorySource(layout Layout) *MemorySource {
	return &MemorySource{
		layout:      layout,
		digital:     make(map[string]bool),
		directional: make(map[string]Position),
		analog:      make(map[string]float64),
	}
}

// Layout implements Source.
func (m *MemorySource) Layout() Layout {
	return m.layout
}

// Sample implements Source.
func (m *MemorySource) Sample(cycle uint64) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.samples++
	snap := NewSnapshot(cycle)
	for _, name := range m.layout.Buttons {
		snap.SetDigital(name, m.digital[name])
	}
	for _, name := range m.layout.Hats {
		p, ok := m.directional[name]
		if !ok {
			p = PositionNone
		}
		snap.SetDirectional(name, p)
	}
	for _, name := range m.layout.Axes {
		snap.SetAnalog(name, m.analog[name])
	}
	return snap, nil
}

// Samples returns how many times Sample has been called.
func (m *MemorySource) Samples() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.samples
}

// Press sets a button down.
func (m *MemorySource) Press(name string) {
	m.SetButton(name, true)
}

// Release sets a button up.
func (m *MemorySource) Release(name string) {
	m.SetButton(name, false)
}

// SetButton sets a button value.
func (m *MemorySource) SetButton(name string, down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.digital[name] = down
}

// SetPOV sets a hat position.
func (m *MemorySource) SetPOV(name string, p Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.directional[name] = p
}

// SetAxis sets an axis value.
func (m *MemorySource) SetAxis(name string, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analog[name] = v
}

// Reset releases every button, centers every hat and zeroes every axis.
func (m *MemorySource) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.digital = make(map[string]bool)
	m.directional = make(map[string]Position)
	m.analog = make(map[string]float64)
}
