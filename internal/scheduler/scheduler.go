package scheduler

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/teleop/internal/command"
	"github.com/dshills/teleop/internal/logging"
)

// activation is one run of a command, from Start to End.
type activation struct {
	id        uuid.UUID
	cmd       command.Command
	isDefault bool
	started   uint64
}

// Scheduler owns the resource table. Each registered resource is held by at
// most one running command; a free resource with a default command is
// re-occupied by that default as soon as it is released.
//
// Scheduler is not safe for concurrent use. It is driven from the single
// control-loop goroutine.
type Scheduler struct {
	log     *logging.Logger
	metrics *Metrics

	resources []command.Resource
	defaults  map[command.Resource]command.Command
	owners    map[command.Resource]*activation

	// active holds running activations in start order, which is also the
	// execution order.
	active []*activation
	byCmd  map[command.Command]*activation
	ending map[command.Command]bool

	observers []Observer
	cycle     uint64
	newID     func() uuid.UUID
	now       func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics enables metrics collection into m.
func WithMetrics(m *Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// WithObserver adds a lifecycle observer.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// New creates a scheduler with no resources.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		log:      logging.Discard(),
		defaults: make(map[command.Resource]command.Command),
		owners:   make(map[command.Resource]*activation),
		byCmd:    make(map[command.Command]*activation),
		ending:   make(map[command.Command]bool),
		newID:    uuid.New,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddObserver adds a lifecycle observer after construction.
func (s *Scheduler) AddObserver(o Observer) {
	if o != nil {
		s.observers = append(s.observers, o)
	}
}

// Metrics returns the metrics collector, or nil if disabled.
func (s *Scheduler) Metrics() *Metrics {
	return s.metrics
}

// Register adds a resource. Registering twice is a no-op.
func (s *Scheduler) Register(resources ...command.Resource) {
	for _, r := range resources {
		if r == nil || s.registered(r) {
			continue
		}
		s.resources = append(s.resources, r)
	}
}

// Resources returns the registered resources in registration order.
func (s *Scheduler) Resources() []command.Resource {
	return append([]command.Resource(nil), s.resources...)
}

// SetDefault installs the command that runs on r whenever nothing else owns
// it. The default must require exactly r.
func (s *Scheduler) SetDefault(r command.Resource, cmd command.Command) error {
	if !s.registered(r) {
		return fmt.Errorf("%w: %s", ErrUnregisteredResource, resourceName(r))
	}
	if cmd == nil {
		return fmt.Errorf("%w: default for %s", ErrNilCommand, r.Name())
	}
	reqs := cmd.Requirements()
	if len(reqs) != 1 || reqs[0] != r {
		return fmt.Errorf("%w: %s must require only %s", ErrDefaultRequirement, cmd.Name(), r.Name())
	}
	if old, ok := s.defaults[r]; ok && s.byCmd[old] != nil {
		return fmt.Errorf("%w: default for %s is running", ErrDefaultRunning, r.Name())
	}
	s.defaults[r] = cmd
	return nil
}

// Default returns the default command of r.
func (s *Scheduler) Default(r command.Resource) (command.Command, bool) {
	cmd, ok := s.defaults[r]
	return cmd, ok
}

// Schedule starts cmd. Its requirements are claimed in declaration order; a
// different command holding one of them is interrupted and fully released
// before cmd starts. Scheduling a running command does nothing.
func (s *Scheduler) Schedule(cmd command.Command) error {
	if cmd == nil {
		return ErrNilCommand
	}
	if s.byCmd[cmd] != nil || s.ending[cmd] {
		return nil
	}
	for _, r := range cmd.Requirements() {
		if !s.registered(r) {
			return fmt.Errorf("%w: %s required by %s", ErrUnregisteredResource, resourceName(r), cmd.Name())
		}
	}
	return s.start(cmd, false)
}

// Cancel interrupts cmd if it is running and re-arms the defaults of the
// resources it held.
func (s *Scheduler) Cancel(cmd command.Command) error {
	act := s.byCmd[cmd]
	if act == nil {
		return nil
	}
	freed, err := s.end(act, true)
	if err != nil {
		return err
	}
	return s.rearm(freed)
}

// CancelAll interrupts every running command, defaults included, without
// re-arming defaults.
func (s *Scheduler) CancelAll() error {
	for len(s.active) > 0 {
		act := s.active[len(s.active)-1]
		if _, err := s.end(act, true); err != nil {
			return err
		}
	}
	return nil
}

// ArmDefaults starts the default command of every free resource.
func (s *Scheduler) ArmDefaults() error {
	return s.rearm(s.resources)
}

// Execute runs one execution pass: every command active at the start of the
// pass executes exactly once, in start order. Commands that report finished
// are ended and their resources handed to defaults immediately; defaults
// started here execute from the next pass on. A command may call Schedule
// from its Execute; what it schedules also waits for the next pass.
func (s *Scheduler) Execute() error {
	pass := append([]*activation(nil), s.active...)
	for _, act := range pass {
		if s.byCmd[act.cmd] != act {
			continue
		}

		began := s.now()
		err := act.cmd.Execute()
		if s.metrics != nil {
			s.metrics.RecordExecute(act.cmd.Name(), s.now().Sub(began))
		}
		if err != nil {
			return s.fault(act.cmd, PhaseExecute, err)
		}

		if !act.cmd.IsFinished() {
			continue
		}
		freed, err := s.end(act, false)
		if err != nil {
			return err
		}
		if err := s.rearm(freed); err != nil {
			return err
		}
	}
	return nil
}

// Owner returns the command holding r.
func (s *Scheduler) Owner(r command.Resource) (command.Command, bool) {
	act := s.owners[r]
	if act == nil {
		return nil, false
	}
	return act.cmd, true
}

// State returns the execution state of cmd.
func (s *Scheduler) State(cmd command.Command) command.State {
	switch {
	case s.ending[cmd]:
		return command.Ending
	case s.byCmd[cmd] != nil:
		return command.Running
	default:
		return command.Idle
	}
}

// IsRunning reports whether cmd is active.
func (s *Scheduler) IsRunning(cmd command.Command) bool {
	return s.byCmd[cmd] != nil
}

// ActivationID returns the id of cmd's current activation.
func (s *Scheduler) ActivationID(cmd command.Command) (uuid.UUID, bool) {
	act := s.byCmd[cmd]
	if act == nil {
		return uuid.Nil, false
	}
	return act.id, true
}

// Active returns the running commands in execution order.
func (s *Scheduler) Active() []command.Command {
	out := make([]command.Command, 0, len(s.active))
	for _, act := range s.active {
		out = append(out, act.cmd)
	}
	return out
}

// Cycle returns the cycle the scheduler is in.
func (s *Scheduler) Cycle() uint64 {
	return s.cycle
}

func (s *Scheduler) beginCycle(cycle uint64) {
	s.cycle = cycle
}

// start claims cmd's requirements and calls Start. The caller has checked
// that cmd is not running.
func (s *Scheduler) start(cmd command.Command, isDefault bool) error {
	reqs := cmd.Requirements()

	var freed []command.Resource
	for _, r := range reqs {
		inc := s.owners[r]
		if inc == nil || inc.cmd == cmd {
			continue
		}
		s.log.Debug("%s preempts %s on %s", cmd.Name(), inc.cmd.Name(), r.Name())
		released, err := s.end(inc, true)
		if err != nil {
			return err
		}
		freed = append(freed, released...)
	}

	act := &activation{
		id:        s.newID(),
		cmd:       cmd,
		isDefault: isDefault,
		started:   s.cycle,
	}
	for _, r := range reqs {
		s.owners[r] = act
	}
	s.active = append(s.active, act)
	s.byCmd[cmd] = act

	if err := cmd.Start(); err != nil {
		// A command that never started holds nothing. The freed resources
		// get their defaults back at the next ArmDefaults.
		s.release(act)
		return s.fault(cmd, PhaseStart, err)
	}
	s.log.Debug("started %s", cmd.Name())
	s.emit(EventStarted, act)

	return s.rearm(freed)
}

// end calls End on act and releases everything it held. Resources are
// released even when End fails, so the table stays consistent.
func (s *Scheduler) end(act *activation, interrupted bool) ([]command.Resource, error) {
	cmd := act.cmd

	s.ending[cmd] = true
	endErr := cmd.End(interrupted)
	delete(s.ending, cmd)

	released := s.release(act)

	kind := EventFinished
	if interrupted {
		kind = EventInterrupted
		s.log.Debug("interrupted %s", cmd.Name())
	} else {
		s.log.Debug("finished %s", cmd.Name())
	}
	s.emit(kind, act)

	if endErr != nil {
		return released, s.fault(cmd, PhaseEnd, endErr)
	}
	return released, nil
}

// release drops act from the ownership table and the active list and
// returns the resources it held.
func (s *Scheduler) release(act *activation) []command.Resource {
	var released []command.Resource
	for _, r := range act.cmd.Requirements() {
		if s.owners[r] == act {
			delete(s.owners, r)
			released = append(released, r)
		}
	}
	for i, a := range s.active {
		if a == act {
			s.active = append(s.active[:i], s.active[i+1:]...)
			break
		}
	}
	delete(s.byCmd, act.cmd)
	return released
}

// rearm starts the default of each free resource in the given order.
func (s *Scheduler) rearm(resources []command.Resource) error {
	for _, r := range resources {
		if s.owners[r] != nil {
			continue
		}
		def, ok := s.defaults[r]
		if !ok || s.byCmd[def] != nil || s.ending[def] {
			continue
		}
		if err := s.start(def, true); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) emit(kind EventKind, act *activation) {
	if s.metrics != nil {
		s.metrics.RecordLifecycle(act.cmd.Name(), kind)
	}
	if len(s.observers) == 0 {
		return
	}

	reqs := act.cmd.Requirements()
	names := make([]string, len(reqs))
	for i, r := range reqs {
		names[i] = r.Name()
	}
	ev := Event{
		Kind:         kind,
		ActivationID: act.id,
		Command:      act.cmd.Name(),
		Resources:    names,
		Cycle:        s.cycle,
		Default:      act.isDefault,
		Time:         s.now(),
	}
	for _, o := range s.observers {
		o.OnEvent(ev)
	}
}

func (s *Scheduler) fault(cmd command.Command, phase Phase, err error) error {
	s.log.Error("%s failed during %s: %v", cmd.Name(), phase, err)
	if s.metrics != nil {
		s.metrics.RecordFault(cmd.Name())
	}
	return &ActionError{Command: cmd.Name(), Phase: phase, Cycle: s.cycle, Err: err}
}

func (s *Scheduler) registered(r command.Resource) bool {
	for _, known := range s.resources {
		if known == r {
			return true
		}
	}
	return false
}

func resourceName(r command.Resource) string {
	if r == nil {
		return "<nil>"
	}
	return r.Name()
}
