package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/teleop/internal/command"
	"github.com/dshills/teleop/internal/logging"
	"github.com/dshills/teleop/internal/robot"
)

type host struct {
	elevator *robot.Elevator
	shooter  *robot.Shooter
	log      []string
}

func newHost() *host {
	h := &host{}
	rec := func(a robot.Actuation) {
		h.log = append(h.log, fmt.Sprintf("%s.%s(%g)", a.Subsystem, a.Op, a.Value))
	}
	h.elevator = robot.NewElevator(logging.Discard(), rec)
	h.shooter = robot.NewShooter(logging.Discard(), rec)
	return h
}

func (h *host) Subsystem(name string) (command.Resource, bool) {
	switch name {
	case "elevator":
		return h.elevator, true
	case "shooter":
		return h.shooter, true
	}
	return nil, false
}

const raiseThenLock = `
local n = 0
command = {
  name = "RaiseThree",
  requires = {"elevator"},
  start = function() n = 0 end,
  execute = function()
    n = n + 1
    set_speed("elevator", 0.25)
  end,
  is_finished = function() return n >= 3 end,
  finish = function(interrupted)
    if interrupted then log("interrupted") end
    lock("elevator")
  end,
}
`

func load(t *testing.T, h *host, source string) *Command {
	t.Helper()
	c, err := Load("test.lua", source, h)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestScriptLifecycle(t *testing.T) {
	h := newHost()
	c := load(t, h, raiseThenLock)

	if c.Name() != "RaiseThree" {
		t.Errorf("name = %q", c.Name())
	}
	if reqs := c.Requirements(); len(reqs) != 1 || reqs[0] != command.Resource(h.elevator) {
		t.Errorf("requirements = %v", reqs)
	}

	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cycles := 0
	for !c.IsFinished() {
		if cycles++; cycles > 10 {
			t.Fatal("script never finished")
		}
		if err := c.Execute(); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	}
	if err := c.End(false); err != nil {
		t.Fatalf("End: %v", err)
	}

	want := []string{
		"elevator.setSpeed(0.25)",
		"elevator.setSpeed(0.25)",
		"elevator.setSpeed(0.25)",
		"elevator.lock(0)",
	}
	if strings.Join(h.log, " ") != strings.Join(want, " ") {
		t.Errorf("actuations = %v, want %v", h.log, want)
	}

	// A second activation starts from scratch.
	_ = c.Start()
	_ = c.Execute()
	if c.IsFinished() {
		t.Error("restarted script should not be finished after one cycle")
	}
}

func TestScriptWithoutIsFinishedRunsUntilInterrupted(t *testing.T) {
	h := newHost()
	c := load(t, h, `command = { name = "Spin", execute = function() set_speed("shooter", 1) end }`)

	_ = c.Start()
	for i := 0; i < 5; i++ {
		if err := c.Execute(); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if c.IsFinished() {
			t.Fatal("expected a continuous command")
		}
	}
	if err := c.End(true); err != nil {
		t.Errorf("End without finish: %v", err)
	}
	if h.shooter.Speed() != 1 {
		t.Errorf("shooter speed = %v, want 1", h.shooter.Speed())
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   error
	}{
		{"syntax", "command = {", ErrInvalidScript},
		{"no table", "x = 1", ErrInvalidScript},
		{"no name", "command = { execute = function() end }", ErrInvalidScript},
		{"no execute", `command = { name = "X" }`, ErrInvalidScript},
		{"execute not function", `command = { name = "X", execute = 3 }`, ErrInvalidScript},
		{"requires not list", `command = { name = "X", execute = function() end, requires = "elevator" }`, ErrInvalidScript},
		{"unknown subsystem", `command = { name = "X", execute = function() end, requires = {"arm"} }`, ErrUnknownSubsystem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("bad.lua", tt.source, newHost())
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestHostErrorsSurface(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"unknown subsystem", `command = { name = "X", execute = function() set_speed("arm", 1) end }`, "unknown subsystem"},
		{"unsupported", `command = { name = "X", execute = function() set_angle("shooter", 90) end }`, "unsupported operation"},
		{"lua error", `command = { name = "X", execute = function() error("boom") end }`, "boom"},
		{"bad argument", `command = { name = "X", execute = function() set_speed("elevator", "fast") end }`, "number expected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := load(t, newHost(), tt.source)
			_ = c.Start()
			err := c.Execute()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestSandbox(t *testing.T) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "io", "os"} {
		t.Run(name, func(t *testing.T) {
			src := fmt.Sprintf(`command = { name = "X", execute = function() assert(%s == nil) end }`, name)
			c := load(t, newHost(), src)
			if err := c.Execute(); err != nil {
				t.Errorf("%s should be unavailable: %v", name, err)
			}
		})
	}
}

func TestRunawayScriptTimesOut(t *testing.T) {
	c, err := Load("loop.lua", `command = { name = "X", execute = function() while true do end end }`, newHost())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := c.Execute(); err == nil {
		t.Error("expected the call timeout to stop the loop")
	}
}

func TestLoadDirAndRegister(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"raise.lua": raiseThenLock,
		"spin.lua":  `command = { name = "Spin", requires = {"shooter"}, execute = function() set_speed("shooter", 1) end }`,
		"notes.txt": "ignored",
	}
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cmds, err := LoadDir(dir, newHost())
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	defer CloseAll(cmds)
	if len(cmds) != 2 {
		t.Fatalf("loaded %d commands, want 2", len(cmds))
	}

	reg := command.NewRegistry()
	if err := Register(reg, cmds); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, ok := reg.Get("Spin"); !ok {
		t.Error("Spin not registered")
	}
	if err := Register(reg, cmds); !errors.Is(err, command.ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestClosedScript(t *testing.T) {
	c, err := Load("x.lua", `command = { name = "X", execute = function() end }`, newHost())
	if err != nil {
		t.Fatal(err)
	}
	c.Close()
	c.Close()
	if err := c.Execute(); !errors.Is(err, ErrScriptClosed) {
		t.Errorf("expected ErrScriptClosed, got %v", err)
	}
}
