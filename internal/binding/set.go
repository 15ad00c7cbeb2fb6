package binding

import (
	"errors"
	"fmt"

	"github.com/dshills/teleop/internal/signal"
)

// Set holds bindings in declaration order. Evaluation follows that order, so
// when two bindings claim the same resource in one cycle the later-declared
// one wins.
type Set struct {
	bindings []*Binding
	names    map[string]bool
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{names: make(map[string]bool)}
}

// Add appends bindings. Names must be unique within the set.
func (s *Set) Add(bindings ...*Binding) error {
	for _, b := range bindings {
		if b == nil {
			return fmt.Errorf("%w: nil binding", ErrInvalidBinding)
		}
		if s.names[b.name] {
			return fmt.Errorf("%w: %s", ErrDuplicateBinding, b.name)
		}
		s.names[b.name] = true
		s.bindings = append(s.bindings, b)
	}
	return nil
}

// Bindings returns the bindings in declaration order.
func (s *Set) Bindings() []*Binding {
	return s.bindings
}

// Len returns the number of bindings.
func (s *Set) Len() int {
	return len(s.bindings)
}

// Validate checks every trigger against the source layout and reports all
// problems at once.
func (s *Set) Validate(layout signal.Layout) error {
	var errs []error
	for _, b := range s.bindings {
		if err := b.trigger.Validate(layout); err != nil {
			errs = append(errs, fmt.Errorf("binding %s: %w", b.name, err))
		}
	}
	return errors.Join(errs...)
}

// Evaluate runs every binding against the snapshots and returns the requests
// in declaration order.
func (s *Set) Evaluate(previous, current signal.Snapshot) []Request {
	var out []Request
	for _, b := range s.bindings {
		out = b.Evaluate(previous, current, out)
	}
	return out
}
