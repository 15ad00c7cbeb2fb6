package command

import "fmt"

// InstantCommand runs its function once, on its first Execute, and finishes.
type InstantCommand struct {
	base
	fn   func() error
	done bool
}

// NewInstant creates a command that runs fn once per activation.
func NewInstant(name string, fn func() error, reqs ...Resource) (*InstantCommand, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: %s: nil function", ErrInvalidCommand, name)
	}
	b, err := newBase(name, reqs)
	if err != nil {
		return nil, err
	}
	return &InstantCommand{base: b, fn: fn}, nil
}

// Start implements Command.
func (c *InstantCommand) Start() error {
	c.done = false
	return nil
}

// Execute implements Command.
func (c *InstantCommand) Execute() error {
	if c.done {
		return nil
	}
	c.done = true
	return c.fn()
}

// IsFinished implements Command.
func (c *InstantCommand) IsFinished() bool {
	return c.done
}

// End implements Command.
func (c *InstantCommand) End(bool) error {
	return nil
}

// RunCommand calls its function every cycle until interrupted.
type RunCommand struct {
	base
	fn    func() error
	onEnd func(interrupted bool) error
}

// NewRun creates a continuous command. onEnd may be nil.
func NewRun(name string, fn func() error, onEnd func(interrupted bool) error, reqs ...Resource) (*RunCommand, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: %s: nil function", ErrInvalidCommand, name)
	}
	b, err := newBase(name, reqs)
	if err != nil {
		return nil, err
	}
	return &RunCommand{base: b, fn: fn, onEnd: onEnd}, nil
}

// Start implements Command.
func (c *RunCommand) Start() error { return nil }

// Execute implements Command.
func (c *RunCommand) Execute() error { return c.fn() }

// IsFinished implements Command.
func (c *RunCommand) IsFinished() bool { return false }

// End implements Command.
func (c *RunCommand) End(interrupted bool) error {
	if c.onEnd == nil {
		return nil
	}
	return c.onEnd(interrupted)
}

// Hooks are the optional lifecycle functions of a FunctionalCommand.
type Hooks struct {
	OnStart    func() error
	OnExecute  func() error
	IsFinished func() bool
	OnEnd      func(interrupted bool) error
}

// FunctionalCommand delegates each lifecycle step to a hook.
type FunctionalCommand struct {
	base
	hooks Hooks
}

// NewFunctional creates a command from hooks. At least one hook must be set.
func NewFunctional(name string, hooks Hooks, reqs ...Resource) (*FunctionalCommand, error) {
	if hooks.OnStart == nil && hooks.OnExecute == nil && hooks.OnEnd == nil {
		return nil, fmt.Errorf("%w: %s: no hooks", ErrInvalidCommand, name)
	}
	b, err := newBase(name, reqs)
	if err != nil {
		return nil, err
	}
	return &FunctionalCommand{base: b, hooks: hooks}, nil
}

// Start implements Command.
func (c *FunctionalCommand) Start() error {
	if c.hooks.OnStart == nil {
		return nil
	}
	return c.hooks.OnStart()
}

// Execute implements Command.
func (c *FunctionalCommand) Execute() error {
	if c.hooks.OnExecute == nil {
		return nil
	}
	return c.hooks.OnExecute()
}

// IsFinished implements Command.
func (c *FunctionalCommand) IsFinished() bool {
	if c.hooks.IsFinished == nil {
		return false
	}
	return c.hooks.IsFinished()
}

// End implements Command.
func (c *FunctionalCommand) End(interrupted bool) error {
	if c.hooks.OnEnd == nil {
		return nil
	}
	return c.hooks.OnEnd(interrupted)
}

// WaitCommand finishes after a fixed number of cycles. It requires nothing.
type WaitCommand struct {
	base
	cycles  int
	elapsed int
}

// NewWait creates a command that finishes on its cycles-th Execute.
func NewWait(name string, cycles int) (*WaitCommand, error) {
	if cycles < 1 {
		return nil, fmt.Errorf("%w: %s: wait of %d cycles", ErrInvalidCommand, name, cycles)
	}
	b, err := newBase(name, nil)
	if err != nil {
		return nil, err
	}
	return &WaitCommand{base: b, cycles: cycles}, nil
}

// Start implements Command.
func (c *WaitCommand) Start() error {
	c.elapsed = 0
	return nil
}

// Execute implements Command.
func (c *WaitCommand) Execute() error {
	c.elapsed++
	return nil
}

// IsFinished implements Command.
func (c *WaitCommand) IsFinished() bool {
	return c.elapsed >= c.cycles
}

// End implements Command.
func (c *WaitCommand) End(bool) error { return nil }

// Must panics if err is non-nil. It is meant for package-level fixtures.
func Must[T Command](cmd T, err error) T {
	if err != nil {
		panic(err)
	}
	return cmd
}
