package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/teleop/internal/config/loader"
	"github.com/dshills/teleop/internal/logging"
)

// EnvPrefix is the prefix of environment variables that override the file.
const EnvPrefix = "TELEOP_"

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "teleop.toml"

// Duration is a time.Duration written as a string ("20ms") in TOML.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config is the complete controller configuration.
type Config struct {
	Loop    LoopConfig    `toml:"loop"`
	Logging LoggingConfig `toml:"logging"`
	Input   InputConfig   `toml:"input"`
	Robot   RobotConfig   `toml:"robot"`
	Auto    AutoConfig    `toml:"auto"`
	Scripts ScriptConfig  `toml:"scripts"`
	Journal JournalConfig `toml:"journal"`
}

// LoopConfig controls the control cycle.
type LoopConfig struct {
	// Period between cycles. Zero runs cycles back to back.
	Period Duration `toml:"period"`
	// Cycles stops the loop after this many cycles; 0 runs until interrupted.
	Cycles uint64 `toml:"cycles"`
	// Stats prints command metrics on exit.
	Stats bool `toml:"stats"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level string `toml:"level"`
	// File receives log output. Empty means stderr, except with the terminal
	// source, which owns the screen and discards logs unless a file is set.
	File string `toml:"file"`
}

// InputConfig selects and tunes the signal source.
type InputConfig struct {
	// Source is "terminal", "replay" or "gamepad".
	Source string `toml:"source"`
	// Replay is the frame script used by the replay source.
	Replay string `toml:"replay"`
	// Device is the evdev node read by the gamepad source.
	Device string `toml:"device"`
	// HoldWindow is how long a terminal key counts as held after its last
	// key event.
	HoldWindow Duration `toml:"hold_window"`
	// Keys maps terminal keys to button names, e.g. "a" = "A".
	Keys map[string]string `toml:"keys"`
}

// RobotConfig holds the mechanism constants and the operator bindings.
type RobotConfig struct {
	MotorSpeed     float64   `toml:"motor_speed"`
	ServoAngle     float64   `toml:"servo_angle"`
	ElevatorLevels []float64 `toml:"elevator_levels"`
	DropSpeed      float64   `toml:"drop_speed"`
	DropTimeout    Duration  `toml:"drop_timeout"`
	Deadband       float64   `toml:"deadband"`
	MaxDriveSpeed  float64   `toml:"max_drive_speed"`

	Bindings BindingConfig `toml:"bindings"`
}

// BindingConfig names the trigger of each operator action, in the syntax
// accepted by signal.ParseTrigger.
type BindingConfig struct {
	ServoToggle   string `toml:"servo_toggle"`
	ElevatorLimit string `toml:"elevator_limit"`
	ZeroHeading   string `toml:"zero_heading"`
	ElevatorUp    string `toml:"elevator_up"`
	ElevatorDown  string `toml:"elevator_down"`
	RobotRelative string `toml:"robot_relative"`
}

// AutoConfig locates autonomous routines.
type AutoConfig struct {
	Dir string `toml:"dir"`
	// Routine runs before teleop when set.
	Routine string `toml:"routine"`
	// Watch reloads routines when files in Dir change.
	Watch bool `toml:"watch"`
	// Button re-runs Routine during teleop, built from the routines loaded
	// at the time of the press. Empty disables it.
	Button string `toml:"button"`
}

// ScriptConfig locates Lua command scripts.
type ScriptConfig struct {
	Dir string `toml:"dir"`
}

// JournalConfig selects the activation journal store.
type JournalConfig struct {
	// Driver is "memory", "sqlite" or "none".
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
	Buffer int    `toml:"buffer"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Loop: LoopConfig{
			Period: Duration(20 * time.Millisecond),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Input: InputConfig{
			Source:     "terminal",
			HoldWindow: Duration(150 * time.Millisecond),
			Keys: map[string]string{
				"a": "A",
				"b": "B",
				"x": "X",
				"y": "Y",
				"q": "LB",
				"e": "RB",
				"s": "Start",
			},
		},
		Robot: RobotConfig{
			MotorSpeed:     0.5,
			ServoAngle:     270,
			ElevatorLevels: []float64{0, 50, 100},
			DropSpeed:      0.1,
			DropTimeout:    Duration(2 * time.Second),
			Deadband:       0.05,
			MaxDriveSpeed:  1,
			Bindings: BindingConfig{
				ServoToggle:   "A",
				ElevatorLimit: "B",
				ZeroHeading:   "Y",
				ElevatorUp:    "pov:up",
				ElevatorDown:  "pov:down",
				RobotRelative: "LB",
			},
		},
		Auto: AutoConfig{
			Dir:    "autos",
			Button: "Start",
		},
		Scripts: ScriptConfig{
			Dir: "scripts",
		},
		Journal: JournalConfig{
			Driver: "memory",
			Path:   "teleop.db",
			Buffer: 256,
		},
	}
}

// Option configures Load.
type Option func(*options)

type options struct {
	fs  loader.FileSystem
	env *loader.EnvLoader
}

// WithFileSystem reads the file through fsys.
func WithFileSystem(fsys loader.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithEnvLoader replaces the environment overlay.
func WithEnvLoader(env *loader.EnvLoader) Option {
	return func(o *options) {
		o.env = env
	}
}

// WithoutEnv disables the environment overlay.
func WithoutEnv() Option {
	return func(o *options) {
		o.env = nil
	}
}

// Load builds a Config from defaults, the TOML file at path and the
// TELEOP_* environment, in increasing priority, and validates it. An empty
// path skips the file; a missing file is ErrFileNotFound.
func Load(path string, opts ...Option) (*Config, error) {
	o := &options{
		fs:  loader.DefaultFS(),
		env: loader.NewEnvLoader(EnvPrefix),
	}
	for _, opt := range opts {
		opt(o)
	}

	cfg := Default()
	tl := loader.NewTOMLLoaderWithFS(o.fs)

	if path != "" {
		if err := tl.DecodeFile(path, cfg); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
			}
			return nil, err
		}
	}

	if o.env != nil {
		overlay, err := o.env.Load()
		if err != nil {
			return nil, err
		}
		if err := tl.DecodeMap("environment", overlay, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(path, msg string, value any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value})
	}

	if c.Loop.Period < 0 {
		add("loop.period", "must not be negative", c.Loop.Period.Std())
	}
	if !logging.ValidLevel(c.Logging.Level) {
		add("logging.level", "must be debug, info, warn or error", c.Logging.Level)
	}

	switch c.Input.Source {
	case "terminal":
	case "replay":
		if c.Input.Replay == "" {
			add("input.replay", "required by the replay source", c.Input.Replay)
		}
	case "gamepad":
		if c.Input.Device == "" {
			add("input.device", "required by the gamepad source", c.Input.Device)
		}
	default:
		add("input.source", "must be terminal, replay or gamepad", c.Input.Source)
	}
	if c.Input.HoldWindow <= 0 {
		add("input.hold_window", "must be positive", c.Input.HoldWindow.Std())
	}

	r := c.Robot
	if r.MotorSpeed <= 0 || r.MotorSpeed > 1 {
		add("robot.motor_speed", "must be in (0, 1]", r.MotorSpeed)
	}
	if len(r.ElevatorLevels) == 0 {
		add("robot.elevator_levels", "must not be empty", r.ElevatorLevels)
	}
	if r.DropSpeed < -1 || r.DropSpeed > 1 {
		add("robot.drop_speed", "must be in [-1, 1]", r.DropSpeed)
	}
	if r.DropTimeout < 0 {
		add("robot.drop_timeout", "must not be negative", r.DropTimeout.Std())
	}
	if r.Deadband < 0 || r.Deadband >= 1 {
		add("robot.deadband", "must be in [0, 1)", r.Deadband)
	}
	if r.MaxDriveSpeed <= 0 {
		add("robot.max_drive_speed", "must be positive", r.MaxDriveSpeed)
	}

	switch c.Journal.Driver {
	case "none", "memory":
	case "sqlite":
		if c.Journal.Path == "" {
			add("journal.path", "required by the sqlite driver", c.Journal.Path)
		}
	default:
		add("journal.driver", "must be none, memory or sqlite", c.Journal.Driver)
	}
	if c.Journal.Buffer < 1 {
		add("journal.buffer", "must be at least 1", c.Journal.Buffer)
	}

	return errors.Join(errs...)
}

// CyclesFor converts a duration to a whole number of loop cycles, at least
// one. With a zero period one cycle stands for one millisecond.
func (c *Config) CyclesFor(d time.Duration) int {
	period := c.Loop.Period.Std()
	if period <= 0 {
		period = time.Millisecond
	}
	n := int((d + period - 1) / period)
	if n < 1 {
		n = 1
	}
	return n
}

// WriteTOML writes the configuration as a TOML document.
func (c *Config) WriteTOML(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(c)
}
