package config

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dshills/teleop/internal/config/loader"
)

func memConfig(content string) loader.FileSystem {
	memfs := loader.NewMemFS()
	memfs.AddFile("/teleop.toml", content)
	return memfs
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	fsys := memConfig(`
[loop]
period = "10ms"

[robot]
motor_speed = 0.8
elevator_levels = [0, 25, 75]

[robot.bindings]
elevator_up = "Y"

[input.keys]
z = "Back"
`)

	cfg, err := Load("/teleop.toml", WithFileSystem(fsys), WithoutEnv())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Loop.Period.Std() != 10*time.Millisecond {
		t.Errorf("period = %v, want 10ms", cfg.Loop.Period.Std())
	}
	if cfg.Robot.MotorSpeed != 0.8 {
		t.Errorf("motor_speed = %v, want 0.8", cfg.Robot.MotorSpeed)
	}
	if len(cfg.Robot.ElevatorLevels) != 3 || cfg.Robot.ElevatorLevels[1] != 25 {
		t.Errorf("elevator_levels = %v", cfg.Robot.ElevatorLevels)
	}
	if cfg.Robot.Bindings.ElevatorUp != "Y" {
		t.Errorf("elevator_up = %q, want Y", cfg.Robot.Bindings.ElevatorUp)
	}
	if cfg.Robot.Bindings.ElevatorDown != "pov:down" {
		t.Errorf("elevator_down = %q, want default", cfg.Robot.Bindings.ElevatorDown)
	}
	if cfg.Input.Keys["z"] != "Back" || cfg.Input.Keys["a"] != "A" {
		t.Errorf("keys = %v, want file entries merged with defaults", cfg.Input.Keys)
	}
	if cfg.Robot.ServoAngle != 270 {
		t.Errorf("servo_angle = %v, want default 270", cfg.Robot.ServoAngle)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("TELEOP_PERIOD", "5ms")
	t.Setenv("TELEOP_LOG_LEVEL", "debug")
	t.Setenv("TELEOP_JOURNAL_DRIVER", "sqlite")
	fsys := memConfig(`
[loop]
period = "10ms"

[logging]
level = "warn"
`)

	cfg, err := Load("/teleop.toml", WithFileSystem(fsys))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Loop.Period.Std() != 5*time.Millisecond {
		t.Errorf("period = %v, want 5ms from env", cfg.Loop.Period.Std())
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug from env", cfg.Logging.Level)
	}
	if cfg.Journal.Driver != "sqlite" {
		t.Errorf("journal driver = %q, want sqlite", cfg.Journal.Driver)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("", WithoutEnv())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Robot.MotorSpeed != Default().Robot.MotorSpeed {
		t.Error("expected defaults")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/missing.toml", WithFileSystem(loader.NewMemFS()), WithoutEnv())
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	fsys := memConfig(`
[robot]
moter_speed = 0.8
`)
	_, err := Load("/teleop.toml", WithFileSystem(fsys), WithoutEnv())
	var parseErr *loader.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *loader.ParseError, got %v", err)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	fsys := memConfig(`
[loop]
period = "fast"
`)
	if _, err := Load("/teleop.toml", WithFileSystem(fsys), WithoutEnv()); err == nil {
		t.Fatal("expected error for bad duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"negative period", func(c *Config) { c.Loop.Period = Duration(-time.Second) }, "loop.period"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad source", func(c *Config) { c.Input.Source = "joystick" }, "input.source"},
		{"replay without file", func(c *Config) { c.Input.Source = "replay" }, "input.replay"},
		{"gamepad without device", func(c *Config) { c.Input.Source = "gamepad" }, "input.device"},
		{"zero hold window", func(c *Config) { c.Input.HoldWindow = 0 }, "input.hold_window"},
		{"motor speed", func(c *Config) { c.Robot.MotorSpeed = 2 }, "robot.motor_speed"},
		{"no levels", func(c *Config) { c.Robot.ElevatorLevels = nil }, "robot.elevator_levels"},
		{"deadband", func(c *Config) { c.Robot.Deadband = 1 }, "robot.deadband"},
		{"journal driver", func(c *Config) { c.Journal.Driver = "postgres" }, "journal.driver"},
		{"sqlite without path", func(c *Config) { c.Journal.Driver = "sqlite"; c.Journal.Path = "" }, "journal.path"},
		{"buffer", func(c *Config) { c.Journal.Buffer = 0 }, "journal.buffer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Errorf("path = %q, want %q", verr.Path, tt.path)
			}
		})
	}
}

func TestValidateReportsAll(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "loud"
	cfg.Journal.Buffer = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors")
	}
	msg := err.Error()
	if !strings.Contains(msg, "logging.level") || !strings.Contains(msg, "journal.buffer") {
		t.Errorf("expected both problems reported, got %q", msg)
	}
}

func TestCyclesFor(t *testing.T) {
	cfg := Default()
	tests := []struct {
		d    time.Duration
		want int
	}{
		{0, 1},
		{20 * time.Millisecond, 1},
		{21 * time.Millisecond, 2},
		{time.Second, 50},
	}
	for _, tt := range tests {
		if got := cfg.CyclesFor(tt.d); got != tt.want {
			t.Errorf("CyclesFor(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}

	cfg.Loop.Period = 0
	if got := cfg.CyclesFor(5 * time.Millisecond); got != 5 {
		t.Errorf("CyclesFor with zero period = %d, want 5", got)
	}
}

func TestWriteTOMLRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Default().WriteTOML(&buf); err != nil {
		t.Fatalf("WriteTOML failed: %v", err)
	}
	if !strings.Contains(buf.String(), `period = '20ms'`) && !strings.Contains(buf.String(), `period = "20ms"`) {
		t.Errorf("expected duration written as a string, got:\n%s", buf.String())
	}

	memfs := loader.NewMemFS()
	memfs.AddFile("/dump.toml", buf.String())
	cfg, err := Load("/dump.toml", WithFileSystem(memfs), WithoutEnv())
	if err != nil {
		t.Fatalf("reloading written config: %v", err)
	}
	if cfg.Robot.DropTimeout.Std() != 2*time.Second {
		t.Errorf("drop_timeout = %v, want 2s", cfg.Robot.DropTimeout.Std())
	}
}
