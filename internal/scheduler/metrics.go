package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Metrics collects command and cycle statistics. It is safe to read from
// other goroutines while the control loop records.
type Metrics struct {
	mu sync.RWMutex

	commands map[string]*CommandMetrics

	cycles        uint64
	overruns      uint64
	faults        uint64
	totalCycle    time.Duration
	maxCycle      time.Duration
	lastCycleTime time.Time
}

// CommandMetrics holds statistics for one command name.
type CommandMetrics struct {
	Name         string
	Starts       uint64
	Finishes     uint64
	Interrupts   uint64
	Executes     uint64
	Faults       uint64
	TotalExecute time.Duration
	MaxExecute   time.Duration
}

// AverageExecute returns the mean Execute duration.
func (cm *CommandMetrics) AverageExecute() time.Duration {
	if cm.Executes == 0 {
		return 0
	}
	return cm.TotalExecute / time.Duration(cm.Executes)
}

// NewMetrics creates an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{commands: make(map[string]*CommandMetrics)}
}

func (m *Metrics) command(name string) *CommandMetrics {
	cm := m.commands[name]
	if cm == nil {
		cm = &CommandMetrics{Name: name}
		m.commands[name] = cm
	}
	return cm
}

// RecordLifecycle counts a lifecycle transition.
func (m *Metrics) RecordLifecycle(name string, kind EventKind) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cm := m.command(name)
	switch kind {
	case EventStarted:
		cm.Starts++
	case EventFinished:
		cm.Finishes++
	case EventInterrupted:
		cm.Interrupts++
	}
}

// RecordExecute records one Execute call.
func (m *Metrics) RecordExecute(name string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cm := m.command(name)
	cm.Executes++
	cm.TotalExecute += d
	if d > cm.MaxExecute {
		cm.MaxExecute = d
	}
}

// RecordFault records a failed lifecycle call.
func (m *Metrics) RecordFault(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.faults++
	m.command(name).Faults++
}

// RecordCycle records the duration of one control cycle.
func (m *Metrics) RecordCycle(d time.Duration, overrun bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cycles++
	m.totalCycle += d
	if d > m.maxCycle {
		m.maxCycle = d
	}
	if overrun {
		m.overruns++
	}
	m.lastCycleTime = time.Now()
}

// CommandStats returns a copy of the statistics for name, or nil.
func (m *Metrics) CommandStats(name string) *CommandMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cm := m.commands[name]
	if cm == nil {
		return nil
	}
	c := *cm
	return &c
}

// Commands returns copies of every command's statistics, sorted by name.
func (m *Metrics) Commands() []CommandMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]CommandMetrics, 0, len(m.commands))
	for _, cm := range m.commands {
		out = append(out, *cm)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// MetricsSnapshot is a point-in-time view of the cycle counters.
type MetricsSnapshot struct {
	Cycles       uint64
	Overruns     uint64
	Faults       uint64
	AverageCycle time.Duration
	MaxCycle     time.Duration
	CommandCount int
	Timestamp    time.Time
}

// Snapshot returns the current cycle counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		Cycles:       m.cycles,
		Overruns:     m.overruns,
		Faults:       m.faults,
		MaxCycle:     m.maxCycle,
		CommandCount: len(m.commands),
		Timestamp:    time.Now(),
	}
	if m.cycles > 0 {
		snap.AverageCycle = m.totalCycle / time.Duration(m.cycles)
	}
	return snap
}

// Reset clears all statistics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commands = make(map[string]*CommandMetrics)
	m.cycles = 0
	m.overruns = 0
	m.faults = 0
	m.totalCycle = 0
	m.maxCycle = 0
	m.lastCycleTime = time.Time{}
}
