package binding

import (
	"fmt"

	"github.com/dshills/teleop/internal/command"
	"github.com/dshills/teleop/internal/signal"
)

// ToggleState is a boolean latch owned by one binding. It flips each time
// the binding's command executes, so a press whose command is preempted
// before it runs leaves the latch where it was.
type ToggleState struct {
	on bool
}

// On returns the latch value.
func (t *ToggleState) On() bool {
	return t.on
}

func (t *ToggleState) flip() {
	t.on = !t.on
}

// Toggle creates a one-shot binding that flips its own latch on every press
// and then runs apply with the new value.
func Toggle(name string, trigger signal.Trigger, apply func(on bool) error, reqs ...command.Resource) (*Binding, error) {
	if apply == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoAction, name)
	}

	state := &ToggleState{}
	cmd, err := command.NewInstant(name, func() error {
		state.flip()
		return apply(state.On())
	}, reqs...)
	if err != nil {
		return nil, err
	}

	b, err := Bind(name, trigger, cmd)
	if err != nil {
		return nil, err
	}
	b.toggle = state
	return b, nil
}

// LevelSelector is an ordered list of set-points with a current index.
// Each execution of the owning binding's command advances the index with
// wraparound.
type LevelSelector struct {
	levels []float64
	index  int
	owner  string
}

// NewLevelSelector creates a selector positioned on the first level.
func NewLevelSelector(levels ...float64) (*LevelSelector, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: no levels", ErrInvalidBinding)
	}
	return &LevelSelector{levels: append([]float64(nil), levels...)}, nil
}

// Current returns the selected level.
func (l *LevelSelector) Current() float64 {
	return l.levels[l.index]
}

// Index returns the selected position.
func (l *LevelSelector) Index() int {
	return l.index
}

// Levels returns a copy of the set-points.
func (l *LevelSelector) Levels() []float64 {
	return append([]float64(nil), l.levels...)
}

func (l *LevelSelector) advance() {
	l.index = (l.index + 1) % len(l.levels)
}

// CycleLevels creates a one-shot binding that advances selector on every
// press and then runs apply with the new level. A selector belongs to
// exactly one binding.
func CycleLevels(name string, trigger signal.Trigger, selector *LevelSelector, apply func(level float64) error, reqs ...command.Resource) (*Binding, error) {
	if selector == nil {
		return nil, fmt.Errorf("%w: %s: nil selector", ErrInvalidBinding, name)
	}
	if apply == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoAction, name)
	}
	if selector.owner != "" {
		return nil, fmt.Errorf("%w: %s: selector owned by %s", ErrSharedState, name, selector.owner)
	}

	cmd, err := command.NewInstant(name, func() error {
		selector.advance()
		return apply(selector.Current())
	}, reqs...)
	if err != nil {
		return nil, err
	}

	b, err := Bind(name, trigger, cmd)
	if err != nil {
		return nil, err
	}
	selector.owner = name
	b.levels = selector
	return b, nil
}
