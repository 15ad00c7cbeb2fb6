package script

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/teleop/internal/command"
	"github.com/dshills/teleop/internal/logging"
)

// Command is a command.Command whose phases are Lua functions. A script
// defines a global table:
//
//	command = {
//	  name = "RaiseSlowly",
//	  requires = {"elevator"},
//	  start = function() end,
//	  execute = function() set_speed("elevator", 0.2) end,
//	  is_finished = function() return false end,
//	  finish = function(interrupted) lock("elevator") end,
//	}
//
// Only name and execute are required. Without is_finished the command runs
// until it is interrupted.
type Command struct {
	mu      sync.Mutex
	name    string
	path    string
	reqs    []command.Resource
	L       *lua.LState
	timeout time.Duration

	start      *lua.LFunction
	execute    *lua.LFunction
	isFinished *lua.LFunction
	finish     *lua.LFunction

	finished bool
	closed   bool
}

// Option configures loaded commands.
type Option func(*options)

type options struct {
	log     *logging.Logger
	timeout time.Duration
}

// WithLogger sets the logger that receives log() output from scripts.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithCallTimeout bounds each call into a script.
func WithCallTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// Load runs source and builds the command it defines. path is used in
// messages only.
func Load(path, source string, host Host, opts ...Option) (*Command, error) {
	o := options{log: logging.Discard(), timeout: DefaultCallTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	L := newState(host, o.log.WithField("script", filepath.Base(path)))
	c, err := define(L, path, source, host)
	if err != nil {
		L.Close()
		return nil, err
	}
	c.timeout = o.timeout
	return c, nil
}

func define(L *lua.LState, path, source string, host Host) (*Command, error) {
	if err := L.DoString(source); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidScript, path, err)
	}

	tbl, ok := L.GetGlobal("command").(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: %s: no command table", ErrInvalidScript, path)
	}

	c := &Command{path: path, L: L}
	name, ok := tbl.RawGetString("name").(lua.LString)
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: %s: command.name must be a string", ErrInvalidScript, path)
	}
	c.name = string(name)

	fields := []struct {
		key      string
		dst      **lua.LFunction
		required bool
	}{
		{"start", &c.start, false},
		{"execute", &c.execute, true},
		{"is_finished", &c.isFinished, false},
		{"finish", &c.finish, false},
	}
	for _, f := range fields {
		switch v := tbl.RawGetString(f.key).(type) {
		case *lua.LFunction:
			*f.dst = v
		case *lua.LNilType:
			if f.required {
				return nil, fmt.Errorf("%w: %s: command.%s is required", ErrInvalidScript, path, f.key)
			}
		default:
			return nil, fmt.Errorf("%w: %s: command.%s must be a function", ErrInvalidScript, path, f.key)
		}
	}

	switch reqs := tbl.RawGetString("requires").(type) {
	case *lua.LNilType:
	case *lua.LTable:
		var bad error
		reqs.ForEach(func(_, v lua.LValue) {
			name, ok := v.(lua.LString)
			if !ok {
				bad = fmt.Errorf("%w: %s: requires entries must be strings", ErrInvalidScript, path)
				return
			}
			r, found := host.Subsystem(string(name))
			if !found {
				bad = fmt.Errorf("%w: %s: %s", ErrUnknownSubsystem, path, name)
				return
			}
			c.reqs = append(c.reqs, r)
		})
		if bad != nil {
			return nil, bad
		}
	default:
		return nil, fmt.Errorf("%w: %s: command.requires must be a list", ErrInvalidScript, path)
	}
	return c, nil
}

// LoadFile loads the command defined by the Lua file at path.
func LoadFile(path string, host Host, opts ...Option) (*Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(path, string(data), host, opts...)
}

// LoadDir loads every .lua file in dir in name order. It stops at the first
// failure and closes what it had loaded.
func LoadDir(dir string, host Host, opts ...Option) ([]*Command, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	cmds := make([]*Command, 0, len(names))
	for _, name := range names {
		c, err := LoadFile(filepath.Join(dir, name), host, opts...)
		if err != nil {
			CloseAll(cmds)
			return nil, err
		}
		cmds = append(cmds, c)
	}
	return cmds, nil
}

// Register adds every command to reg under its own name.
func Register(reg *command.Registry, cmds []*Command) error {
	for _, c := range cmds {
		if err := reg.Register(c.Name(), c); err != nil {
			return fmt.Errorf("%s: %w", c.path, err)
		}
	}
	return nil
}

// CloseAll closes every command.
func CloseAll(cmds []*Command) {
	for _, c := range cmds {
		c.Close()
	}
}

// Name implements command.Command.
func (c *Command) Name() string { return c.name }

// Path returns the file the command was loaded from.
func (c *Command) Path() string { return c.path }

// Requirements implements command.Command.
func (c *Command) Requirements() []command.Resource { return c.reqs }

// Start implements command.Command.
func (c *Command) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finished = false
	_, err := c.call("start", c.start)
	return err
}

// Execute implements command.Command.
func (c *Command) Execute() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.call("execute", c.execute); err != nil {
		return err
	}
	if c.isFinished == nil {
		return nil
	}
	done, err := c.call("is_finished", c.isFinished)
	if err != nil {
		return err
	}
	c.finished = lua.LVAsBool(done)
	return nil
}

// IsFinished implements command.Command. The script's is_finished runs right
// after execute, so IsFinished itself never calls into Lua.
func (c *Command) IsFinished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finished
}

// End implements command.Command.
func (c *Command) End(interrupted bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.call("finish", c.finish, lua.LBool(interrupted))
	return err
}

func (c *Command) call(phase string, fn *lua.LFunction, args ...lua.LValue) (lua.LValue, error) {
	if c.closed {
		return lua.LNil, ErrScriptClosed
	}
	if fn == nil {
		return lua.LNil, nil
	}
	ret, err := call(c.L, c.timeout, fn, args...)
	if err != nil {
		return lua.LNil, fmt.Errorf("script %s: %s: %w", c.name, phase, err)
	}
	return ret, nil
}

// Close releases the Lua state. It is safe to call more than once.
func (c *Command) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.L.Close()
}
