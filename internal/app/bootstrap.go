package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dshills/teleop/internal/auto"
	"github.com/dshills/teleop/internal/binding"
	"github.com/dshills/teleop/internal/command"
	"github.com/dshills/teleop/internal/config"
	"github.com/dshills/teleop/internal/journal"
	"github.com/dshills/teleop/internal/logging"
	"github.com/dshills/teleop/internal/robot"
	"github.com/dshills/teleop/internal/scheduler"
	"github.com/dshills/teleop/internal/script"
	"github.com/dshills/teleop/internal/signal"
	"github.com/dshills/teleop/internal/signal/gamepad"
	"github.com/dshills/teleop/internal/signal/replay"
	"github.com/dshills/teleop/internal/signal/terminal"
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

func newBootstrapper(app *Application) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      app.opts,
		initOrder: make([]string, 0, 8),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []struct {
		name string
		init func() error
	}{
		{"config", b.initConfig},
		{"logging", b.initLogging},
		{"journal", b.initJournal},
		{"scheduler", b.initScheduler},
		{"source", b.initSource},
		{"robot", b.initRobot},
		{"scripts", b.initScripts},
		{"autos", b.initAutos},
	}
	for _, step := range steps {
		// Recorded first so a half-initialized component is cleaned up too.
		b.initOrder = append(b.initOrder, step.name)
		if err := step.init(); err != nil {
			b.cleanup()
			return &InitError{Component: step.name, Err: err}
		}
	}
	b.app.log.Debug("initialized %v", b.initOrder)
	return nil
}

func (b *bootstrapper) initConfig() error {
	cfg, err := LoadConfig(b.opts)
	if err != nil {
		return err
	}
	b.app.cfg = cfg
	return nil
}

// LoadConfig returns the configuration a run with opts would use: the file
// (teleop.toml when opts names none and it exists), the environment, then
// the option overrides, validated.
func LoadConfig(opts Options) (*config.Config, error) {
	path := opts.ConfigPath
	explicit := path != ""
	if !explicit {
		path = config.DefaultPath
	}

	cfg, err := config.Load(path, opts.ConfigOptions...)
	if errors.Is(err, config.ErrFileNotFound) && !explicit {
		cfg, err = config.Load("", opts.ConfigOptions...)
	}
	if err != nil {
		return nil, err
	}

	if opts.Replay != "" {
		cfg.Input.Source = "replay"
		cfg.Input.Replay = opts.Replay
	}
	if opts.Cycles > 0 {
		cfg.Loop.Cycles = opts.Cycles
	}
	if opts.Auto != "" {
		cfg.Auto.Routine = opts.Auto
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.Stats {
		cfg.Loop.Stats = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (b *bootstrapper) initLogging() error {
	cfg := b.app.cfg
	out := b.opts.LogOutput
	if out == nil {
		switch {
		case cfg.Logging.File != "":
			f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return err
			}
			b.app.logFile = f
			out = f
		case cfg.Input.Source == "terminal":
			// The screen belongs to the terminal source.
			out = io.Discard
		default:
			out = os.Stderr
		}
	}

	b.app.log = logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Output: out,
		Prefix: "teleop",
	})
	logging.SetDefault(b.app.log)
	return nil
}

func (b *bootstrapper) initJournal() error {
	jc := b.app.cfg.Journal
	if jc.Driver == "none" {
		return nil
	}
	store, err := journal.NewStore(jc.Driver, jc.Path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	j, err := journal.New(ctx, store,
		journal.WithBuffer(jc.Buffer),
		journal.WithLogger(b.app.log.WithComponent("journal")))
	if err != nil {
		return err
	}
	b.app.journal = j
	return nil
}

func (b *bootstrapper) initScheduler() error {
	b.app.metrics = scheduler.NewMetrics()
	opts := []scheduler.Option{
		scheduler.WithLogger(b.app.log.WithComponent("scheduler")),
		scheduler.WithMetrics(b.app.metrics),
	}
	if b.app.journal != nil {
		opts = append(opts, scheduler.WithObserver(b.app.journal))
	}
	b.app.sched = scheduler.New(opts...)
	return nil
}

func (b *bootstrapper) initSource() error {
	in := b.app.cfg.Input
	switch in.Source {
	case "replay":
		s, err := replay.LoadFile(in.Replay)
		if err != nil {
			return err
		}
		src, err := replay.NewSource(s, signal.XboxLayout())
		if err != nil {
			return err
		}
		b.app.log.Info("replaying %s (%d cycles)", in.Replay, s.TotalCycles())
		b.app.source = src

	case "gamepad":
		src, err := gamepad.Open(gamepad.Config{Device: in.Device}, b.app.log.WithComponent("gamepad"))
		if err != nil {
			return err
		}
		b.app.pad = src
		b.app.source = src

	default:
		screen := b.opts.Screen
		if screen == nil {
			var err error
			if screen, err = terminal.NewScreen(); err != nil {
				return err
			}
		}
		src, err := terminal.New(screen, terminal.Config{
			Keys:   in.Keys,
			Hold:   in.HoldWindow.Std(),
			OnQuit: b.app.Stop,
		})
		if err != nil {
			screen.Fini()
			return err
		}
		b.app.term = src
		b.app.source = src
	}
	return nil
}

func (b *bootstrapper) initRobot() error {
	b.app.registry = command.NewRegistry()
	opts := []robot.Option{
		robot.WithLogger(b.app.log),
		robot.WithRegistry(b.app.registry),
	}
	if b.opts.Recorder != nil {
		opts = append(opts, robot.WithRecorder(b.opts.Recorder))
	}
	c, err := robot.NewContainer(b.app.cfg, opts...)
	if err != nil {
		return err
	}

	disp, err := scheduler.NewDispatcher(b.app.source, c.Bindings(), b.app.sched,
		b.app.log.WithComponent("loop"))
	if err != nil {
		return err
	}
	if err := c.Install(b.app.sched, disp); err != nil {
		return err
	}
	b.app.robot = c
	b.app.disp = disp
	return nil
}

func dirExists(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

func (b *bootstrapper) initScripts() error {
	dir := b.app.cfg.Scripts.Dir
	if !dirExists(dir) {
		b.app.log.Debug("no script directory %q", dir)
		return nil
	}
	cmds, err := script.LoadDir(dir, b.app.robot, script.WithLogger(b.app.log.WithComponent("script")))
	if err != nil {
		return err
	}
	if err := script.Register(b.app.registry, cmds); err != nil {
		script.CloseAll(cmds)
		return err
	}
	b.app.scripts = cmds
	b.app.log.Info("loaded %d scripted commands from %s", len(cmds), dir)
	return nil
}

func (b *bootstrapper) initAutos() error {
	ac := b.app.cfg.Auto
	b.app.library = auto.NewLibrary(b.app.cfg.CyclesFor)

	if dirExists(ac.Dir) {
		if ac.Watch {
			w, err := auto.Watch(context.Background(), b.app.library, ac.Dir,
				auto.WithLogger(b.app.log.WithComponent("autos")))
			if err != nil {
				return err
			}
			b.app.watcher = w
		} else if err := b.app.library.Load(ac.Dir); err != nil {
			return err
		}
		b.app.log.Info("loaded routines %v", b.app.library.Names())
	}

	if ac.Routine == "" {
		return nil
	}
	if _, err := b.app.library.Build(ac.Routine, b.app.registry); err != nil {
		return err
	}
	if ac.Button != "" {
		return b.bindLauncher(ac.Routine, ac.Button)
	}
	return nil
}

// bindLauncher binds spec to a command that re-runs routine during teleop.
// The routine is built when the button is pressed, so a watched directory
// changes what the next press runs.
func (b *bootstrapper) bindLauncher(routine, spec string) error {
	trig, err := signal.ParseTrigger(spec)
	if err != nil {
		return fmt.Errorf("auto.button: %w", err)
	}
	if err := trig.Validate(b.app.source.Layout()); err != nil {
		return fmt.Errorf("auto.button: %w", err)
	}

	launch, err := b.app.library.Launcher(routine, b.app.registry, b.app.sched,
		b.app.log.WithComponent("autos"))
	if err != nil {
		return err
	}
	bnd, err := binding.Bind("runAuto", trig, launch)
	if err != nil {
		return err
	}
	return b.app.robot.Bindings().Add(bnd)
}

// cleanup releases initialized components in reverse order.
// Called when bootstrap fails partway through.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		b.cleanupComponent(b.initOrder[i])
	}
}

func (b *bootstrapper) cleanupComponent(component string) {
	app := b.app
	switch component {
	case "logging":
		if app.logFile != nil {
			_ = app.logFile.Close()
			app.logFile = nil
		}
	case "journal":
		if app.journal != nil {
			_ = app.journal.Close()
			app.journal = nil
		}
	case "source":
		if app.term != nil {
			_ = app.term.Close()
			app.term = nil
		}
		if app.pad != nil {
			_ = app.pad.Close()
			app.pad = nil
		}
	case "scripts":
		script.CloseAll(app.scripts)
		app.scripts = nil
	case "autos":
		if app.watcher != nil {
			_ = app.watcher.Close()
			app.watcher = nil
		}
	}
}
