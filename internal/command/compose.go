package command

import "fmt"

// SequenceCommand runs its children one after another. When a child finishes,
// the next one starts in the same cycle and executes from the next cycle on.
type SequenceCommand struct {
	base
	children []Command
	index    int
}

// NewSequence creates a sequence. Its requirements are the union of its
// children's requirements in declaration order.
func NewSequence(name string, children ...Command) (*SequenceCommand, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("%w: %s: empty sequence", ErrInvalidCommand, name)
	}
	var reqs []Resource
	for i, c := range children {
		if c == nil {
			return nil, fmt.Errorf("%w: %s: nil child %d", ErrInvalidCommand, name, i)
		}
		reqs = append(reqs, c.Requirements()...)
	}
	b, err := newBase(name, reqs)
	if err != nil {
		return nil, err
	}
	return &SequenceCommand{base: b, children: children}, nil
}

// Children returns the commands in run order.
func (c *SequenceCommand) Children() []Command {
	return c.children
}

// Current returns the running child, or nil once the sequence is done.
func (c *SequenceCommand) Current() Command {
	if c.index >= len(c.children) {
		return nil
	}
	return c.children[c.index]
}

// Start implements Command.
func (c *SequenceCommand) Start() error {
	c.index = 0
	return c.children[0].Start()
}

// Execute implements Command.
func (c *SequenceCommand) Execute() error {
	cur := c.Current()
	if cur == nil {
		return nil
	}
	if err := cur.Execute(); err != nil {
		return err
	}
	if !cur.IsFinished() {
		return nil
	}
	if err := cur.End(false); err != nil {
		return err
	}
	c.index++
	if next := c.Current(); next != nil {
		return next.Start()
	}
	return nil
}

// IsFinished implements Command.
func (c *SequenceCommand) IsFinished() bool {
	return c.index >= len(c.children)
}

// End implements Command.
func (c *SequenceCommand) End(interrupted bool) error {
	if cur := c.Current(); cur != nil && interrupted {
		return cur.End(true)
	}
	return nil
}

// TimeoutCommand ends its inner command after a number of cycles.
type TimeoutCommand struct {
	inner   Command
	cycles  int
	elapsed int
}

// WithTimeout limits cmd to cycles executions. A timed-out inner command is
// ended as interrupted.
func WithTimeout(cmd Command, cycles int) (*TimeoutCommand, error) {
	if cmd == nil {
		return nil, fmt.Errorf("%w: nil command", ErrInvalidCommand)
	}
	if cycles < 1 {
		return nil, fmt.Errorf("%w: %s: timeout of %d cycles", ErrInvalidCommand, cmd.Name(), cycles)
	}
	return &TimeoutCommand{inner: cmd, cycles: cycles}, nil
}

// Name implements Command.
func (c *TimeoutCommand) Name() string { return c.inner.Name() }

// Requirements implements Command.
func (c *TimeoutCommand) Requirements() []Resource { return c.inner.Requirements() }

// Start implements Command.
func (c *TimeoutCommand) Start() error {
	c.elapsed = 0
	return c.inner.Start()
}

// Execute implements Command.
func (c *TimeoutCommand) Execute() error {
	c.elapsed++
	return c.inner.Execute()
}

// IsFinished implements Command.
func (c *TimeoutCommand) IsFinished() bool {
	return c.inner.IsFinished() || c.elapsed >= c.cycles
}

// End implements Command.
func (c *TimeoutCommand) End(interrupted bool) error {
	return c.inner.End(interrupted || !c.inner.IsFinished())
}

// NamedCommand exposes an inner command under another name.
type NamedCommand struct {
	name  string
	inner Command
}

// Rename wraps cmd so it reports name.
func Rename(name string, cmd Command) (*NamedCommand, error) {
	if name == "" || cmd == nil {
		return nil, fmt.Errorf("%w: rename needs a name and a command", ErrInvalidCommand)
	}
	return &NamedCommand{name: name, inner: cmd}, nil
}

// Unwrap returns the wrapped command.
func (c *NamedCommand) Unwrap() Command { return c.inner }

// Name implements Command.
func (c *NamedCommand) Name() string { return c.name }

// Requirements implements Command.
func (c *NamedCommand) Requirements() []Resource { return c.inner.Requirements() }

// Start implements Command.
func (c *NamedCommand) Start() error { return c.inner.Start() }

// Execute implements Command.
func (c *NamedCommand) Execute() error { return c.inner.Execute() }

// IsFinished implements Command.
func (c *NamedCommand) IsFinished() bool { return c.inner.IsFinished() }

// End implements Command.
func (c *NamedCommand) End(interrupted bool) error { return c.inner.End(interrupted) }
