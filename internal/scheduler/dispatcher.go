package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/dshills/teleop/internal/binding"
	"github.com/dshills/teleop/internal/logging"
	"github.com/dshills/teleop/internal/signal"
)

// Dispatcher drives the control cycle: sample, evaluate bindings, apply
// requests, execute, retire.
type Dispatcher struct {
	source   signal.Source
	bindings *binding.Set
	sched    *Scheduler
	log      *logging.Logger

	cycle    uint64
	previous signal.Snapshot
	current  signal.Snapshot

	bindingsEnabled bool
	now             func() time.Time
}

// NewDispatcher creates a dispatcher. Bindings are validated against the
// source layout; a mismatch is a configuration error.
func NewDispatcher(source signal.Source, bindings *binding.Set, sched *Scheduler, log *logging.Logger) (*Dispatcher, error) {
	if source == nil || sched == nil {
		return nil, fmt.Errorf("scheduler: dispatcher needs a source and a scheduler")
	}
	if bindings == nil {
		bindings = binding.NewSet()
	}
	if err := bindings.Validate(source.Layout()); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Dispatcher{
		source:          source,
		bindings:        bindings,
		sched:           sched,
		log:             log,
		bindingsEnabled: true,
		now:             time.Now,
	}, nil
}

// Scheduler returns the scheduler the dispatcher drives.
func (d *Dispatcher) Scheduler() *Scheduler {
	return d.sched
}

// Cycle returns the number of the last cycle run.
func (d *Dispatcher) Cycle() uint64 {
	return d.cycle
}

// Current returns the snapshot of the cycle in progress (or last completed).
// Commands read analog inputs through it, so they always see the values
// sampled at the start of the same cycle.
func (d *Dispatcher) Current() signal.Snapshot {
	return d.current
}

// Analog returns a supplier reading an axis from the current snapshot.
func (d *Dispatcher) Analog(name string) func() float64 {
	return func() float64 {
		return d.current.Analog(name)
	}
}

// SetBindingsEnabled turns binding evaluation on or off. Samples are still
// taken and remembered while disabled, so re-enabling does not fabricate
// edges for buttons that were already held.
func (d *Dispatcher) SetBindingsEnabled(enabled bool) {
	d.bindingsEnabled = enabled
}

// Tick runs exactly one control cycle.
func (d *Dispatcher) Tick() error {
	d.cycle++
	d.sched.beginCycle(d.cycle)

	snap, err := d.source.Sample(d.cycle)
	if err != nil {
		return fmt.Errorf("sampling cycle %d: %w", d.cycle, err)
	}
	d.current = snap
	defer func() { d.previous = snap }()

	var requests []binding.Request
	if d.bindingsEnabled {
		requests = d.bindings.Evaluate(d.previous, snap)
	}

	for _, req := range requests {
		switch req.Op {
		case binding.OpSchedule:
			err = d.sched.Schedule(req.Command)
		case binding.OpCancel:
			err = d.sched.Cancel(req.Command)
		}
		if err != nil {
			return fmt.Errorf("binding %s: %w", req.Binding, err)
		}
	}

	if err := d.sched.ArmDefaults(); err != nil {
		return err
	}
	return d.sched.Execute()
}

// Run ticks every period until ctx is done or a cycle fails.
func (d *Dispatcher) Run(ctx context.Context, period time.Duration) error {
	return d.RunFor(ctx, period, 0)
}

// RunFor ticks every period for at most cycles cycles (0 means no limit).
// A zero period runs cycles back to back, which replays use.
func (d *Dispatcher) RunFor(ctx context.Context, period time.Duration, cycles uint64) error {
	if period < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPeriod, period)
	}

	var tick <-chan time.Time
	if period > 0 {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		tick = ticker.C
	}

	for n := uint64(0); cycles == 0 || n < cycles; n++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		began := d.now()
		if err := d.Tick(); err != nil {
			return err
		}
		elapsed := d.now().Sub(began)

		overrun := period > 0 && elapsed > period
		if overrun {
			d.log.Warn("cycle %d overran: %v > %v", d.cycle, elapsed, period)
		}
		if m := d.sched.Metrics(); m != nil {
			m.RecordCycle(elapsed, overrun)
		}
	}
	return nil
}
