// Package app wires the controller together and runs it: configuration,
// logging, the signal source, the scheduler and dispatcher, the robot,
// scripted commands, autonomous routines and the activation journal.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/teleop/internal/auto"
	"github.com/dshills/teleop/internal/command"
	"github.com/dshills/teleop/internal/config"
	"github.com/dshills/teleop/internal/journal"
	"github.com/dshills/teleop/internal/logging"
	"github.com/dshills/teleop/internal/robot"
	"github.com/dshills/teleop/internal/scheduler"
	"github.com/dshills/teleop/internal/script"
	"github.com/dshills/teleop/internal/signal"
	"github.com/dshills/teleop/internal/signal/gamepad"
	"github.com/dshills/teleop/internal/signal/terminal"
)

// Application owns every component of a controller run.
type Application struct {
	mu sync.Mutex

	cfg *config.Config
	log *logging.Logger

	source   signal.Source
	term     *terminal.Source
	pad      *gamepad.Source
	logFile  io.Closer
	metrics  *scheduler.Metrics
	sched    *scheduler.Scheduler
	disp     *scheduler.Dispatcher
	robot    *robot.Container
	registry *command.Registry
	scripts  []*script.Command
	library  *auto.Library
	watcher  *auto.Watcher
	journal  *journal.Journal

	running  atomic.Bool
	cancel   context.CancelFunc
	shutdown sync.Once
	closed   atomic.Bool

	opts Options
}

// Options configures the application. Zero values defer to the
// configuration file.
type Options struct {
	// ConfigPath is the configuration file. Empty reads teleop.toml if it
	// exists.
	ConfigPath string

	// Replay plays this frame script instead of reading the keyboard.
	Replay string

	// Cycles stops the run after this many cycles.
	Cycles uint64

	// Auto runs this routine before teleop.
	Auto string

	// LogLevel overrides logging.level.
	LogLevel string

	// Stats prints command metrics on exit.
	Stats bool

	// ConfigOptions are passed to config.Load.
	ConfigOptions []config.Option

	// Screen replaces the real terminal for the terminal source.
	Screen tcell.Screen

	// LogOutput replaces the configured log destination.
	LogOutput io.Writer

	// Recorder observes every actuation.
	Recorder robot.Recorder
}

// New creates an application with every component initialized. On error,
// whatever was already initialized is released.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts}
	if err := newBootstrapper(app).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Run runs the optional autonomous routine with the bindings disabled, then
// teleop, until ctx is done, the cycle limit is reached, the source ends
// or a command faults. Only a fault is returned as an error.
func (app *Application) Run(ctx context.Context) error {
	if app.closed.Load() {
		return ErrShutdown
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	app.mu.Lock()
	app.cancel = cancel
	app.mu.Unlock()

	if app.term != nil {
		app.term.Start()
	}

	period := app.cfg.Loop.Period.Std()
	limit := app.cfg.Loop.Cycles
	app.log.Info("running at %v per cycle", period)

	if name := app.cfg.Auto.Routine; name != "" {
		if err := app.runAuto(ctx, name, period, limit); err != nil {
			return app.result(err)
		}
	}

	remaining := uint64(0)
	if limit > 0 {
		done := app.disp.Cycle()
		if done >= limit {
			return nil
		}
		remaining = limit - done
	}
	app.log.Info("teleop")
	return app.result(app.disp.RunFor(ctx, period, remaining))
}

// runAuto runs routine name until it ends, with operator bindings ignored.
func (app *Application) runAuto(ctx context.Context, name string, period time.Duration, limit uint64) error {
	cmd, err := app.library.Build(name, app.registry)
	if err != nil {
		return err
	}

	app.log.Info("autonomous: %s", name)
	app.disp.SetBindingsEnabled(false)
	defer app.disp.SetBindingsEnabled(true)

	if err := app.sched.Schedule(cmd); err != nil {
		return err
	}
	for app.sched.IsRunning(cmd) {
		if limit > 0 && app.disp.Cycle() >= limit {
			return nil
		}
		if err := app.disp.RunFor(ctx, period, 1); err != nil {
			return err
		}
	}
	app.log.Info("autonomous %s finished after %d cycles", name, app.disp.Cycle())
	return nil
}

// result maps the ways a run can stop to Run's return value.
func (app *Application) result(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, signal.ErrSourceClosed):
		app.log.Info("input ended after %d cycles", app.disp.Cycle())
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		app.log.Info("stopped after %d cycles", app.disp.Cycle())
		return nil
	default:
		app.log.Error("stopped on cycle %d: %v", app.disp.Cycle(), err)
		return err
	}
}

// Stop asks a running Run to return.
func (app *Application) Stop() {
	app.mu.Lock()
	cancel := app.cancel
	app.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Shutdown interrupts every running command, so subsystems end in their
// safe state, and releases every component. It is safe to call more than
// once.
func (app *Application) Shutdown() error {
	var errs []error
	app.shutdown.Do(func() {
		app.closed.Store(true)
		app.Stop()

		if app.sched != nil {
			if err := app.sched.CancelAll(); err != nil {
				errs = append(errs, &ComponentError{Component: "scheduler", Action: "cancel", Err: err})
			}
		}
		if app.watcher != nil {
			if err := app.watcher.Close(); err != nil {
				errs = append(errs, &ComponentError{Component: "autos", Action: "close", Err: err})
			}
		}
		script.CloseAll(app.scripts)
		if app.journal != nil {
			if err := app.journal.Close(); err != nil {
				errs = append(errs, &ComponentError{Component: "journal", Action: "close", Err: err})
			}
		}
		if app.term != nil {
			_ = app.term.Close()
		}
		if app.pad != nil {
			_ = app.pad.Close()
		}
		if app.logFile != nil {
			_ = app.logFile.Close()
		}
	})
	return errors.Join(errs...)
}

// IsRunning reports whether Run is in progress.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Config returns the effective configuration.
func (app *Application) Config() *config.Config { return app.cfg }

// Scheduler returns the command scheduler.
func (app *Application) Scheduler() *scheduler.Scheduler { return app.sched }

// Dispatcher returns the control loop.
func (app *Application) Dispatcher() *scheduler.Dispatcher { return app.disp }

// Robot returns the robot container.
func (app *Application) Robot() *robot.Container { return app.robot }

// Registry returns the named command registry.
func (app *Application) Registry() *command.Registry { return app.registry }

// Library returns the autonomous routines.
func (app *Application) Library() *auto.Library { return app.library }

// Journal returns the activation journal, or nil when disabled.
func (app *Application) Journal() *journal.Journal { return app.journal }

// Metrics returns the scheduler metrics.
func (app *Application) Metrics() *scheduler.Metrics { return app.metrics }

// WriteStats writes the cycle and per-command metrics as a table.
func (app *Application) WriteStats(w io.Writer) error {
	snap := app.metrics.Snapshot()
	if _, err := fmt.Fprintf(w, "cycles %d  overruns %d  faults %d  avg %v  max %v\n\n",
		snap.Cycles, snap.Overruns, snap.Faults, snap.AverageCycle, snap.MaxCycle); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COMMAND\tSTARTS\tFINISHED\tINTERRUPTED\tEXECUTES\tAVG EXEC")
	for _, cm := range app.metrics.Commands() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%v\n",
			cm.Name, cm.Starts, cm.Finishes, cm.Interrupts, cm.Executes, cm.AverageExecute())
	}
	if app.journal != nil {
		fmt.Fprintf(tw, "\njournal\t%d written\t%d dropped\n", app.journal.Written(), app.journal.Dropped())
	}
	return tw.Flush()
}
