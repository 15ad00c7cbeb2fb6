package robot

import (
	"fmt"

	"github.com/dshills/teleop/internal/binding"
	"github.com/dshills/teleop/internal/command"
	"github.com/dshills/teleop/internal/config"
	"github.com/dshills/teleop/internal/logging"
	"github.com/dshills/teleop/internal/scheduler"
	"github.com/dshills/teleop/internal/signal"
)

// DropCommand is the registry name of the autonomous drop action.
const DropCommand = "Drop"

// Inputs provides the sample of the cycle in progress.
// *scheduler.Dispatcher satisfies it.
type Inputs interface {
	Current() signal.Snapshot
}

// Container builds the robot: subsystems, their default commands, the named
// commands used by autonomous routines and the operator bindings.
type Container struct {
	cfg config.RobotConfig
	log *logging.Logger

	Elevator *Elevator
	Shooter  *Shooter
	Drive    *Drive
	Servo    *Servo

	registry *command.Registry
	bindings *binding.Set
	levels   *binding.LevelSelector
	servo    *binding.Binding

	defaults map[command.Resource]command.Command
	inputs   Inputs
}

// Option configures a Container.
type Option func(*containerOptions)

type containerOptions struct {
	log      *logging.Logger
	recorder Recorder
	registry *command.Registry
}

// WithLogger sets the logger passed to every subsystem.
func WithLogger(l *logging.Logger) Option {
	return func(o *containerOptions) { o.log = l }
}

// WithRecorder reports every actuation to rec.
func WithRecorder(rec Recorder) Option {
	return func(o *containerOptions) { o.recorder = rec }
}

// WithRegistry registers named commands into reg instead of a new registry.
func WithRegistry(reg *command.Registry) Option {
	return func(o *containerOptions) { o.registry = reg }
}

// NewContainer builds the robot from cfg. Joystick suppliers read from the
// Inputs given to Install; until then they read a released gamepad.
func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	o := &containerOptions{log: logging.Discard()}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = command.NewRegistry()
	}

	c := &Container{
		cfg:      cfg.Robot,
		log:      o.log.WithComponent("robot"),
		Elevator: NewElevator(o.log, o.recorder),
		Shooter:  NewShooter(o.log, o.recorder),
		Drive:    NewDrive(o.log, o.recorder),
		Servo:    NewServo(o.log, o.recorder),
		registry: o.registry,
		bindings: binding.NewSet(),
		defaults: make(map[command.Resource]command.Command),
	}

	levels, err := binding.NewLevelSelector(c.cfg.ElevatorLevels...)
	if err != nil {
		return nil, err
	}
	c.levels = levels
	c.Elevator.limit = levels.Current()

	if err := c.configureDefaults(); err != nil {
		return nil, err
	}
	if err := c.configureNamed(cfg); err != nil {
		return nil, err
	}
	if err := c.configureBindings(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) axis(name string) func() float64 {
	return func() float64 {
		if c.inputs == nil {
			return 0
		}
		return c.inputs.Current().Analog(name)
	}
}

func negate(f func() float64) func() float64 {
	return func() float64 { return -f() }
}

func (c *Container) configureDefaults() error {
	fieldDrive, err := JoystickDrive("fieldDrive", c.Drive, DriveInputs{
		X:   c.axis(signal.AxisLeftY),
		Y:   c.axis(signal.AxisLeftX),
		Rot: negate(c.axis(signal.AxisRightX)),
	}, c.cfg.Deadband, c.cfg.MaxDriveSpeed, true)
	if err != nil {
		return err
	}

	manualShoot, err := ShootNote("shootNote", c.Shooter, c.axis(signal.TriggerRight))
	if err != nil {
		return err
	}

	c.defaults[c.Drive] = fieldDrive
	c.defaults[c.Shooter] = manualShoot
	return nil
}

func (c *Container) configureNamed(cfg *config.Config) error {
	speed := c.cfg.DropSpeed
	shoot, err := ShootNote("dropNote", c.Shooter, func() float64 { return speed })
	if err != nil {
		return err
	}
	var drop command.Command = shoot
	if timeout := c.cfg.DropTimeout.Std(); timeout > 0 {
		if drop, err = command.WithTimeout(drop, cfg.CyclesFor(timeout)); err != nil {
			return err
		}
	}
	if drop, err = command.Rename(DropCommand, drop); err != nil {
		return err
	}
	return c.registry.Register(DropCommand, drop)
}

func (c *Container) trigger(action, spec string) (signal.Trigger, error) {
	t, err := signal.ParseTrigger(spec)
	if err != nil {
		return signal.Trigger{}, fmt.Errorf("robot: binding %s: %w", action, err)
	}
	return t, nil
}

func (c *Container) configureBindings() error {
	b := c.cfg.Bindings
	angle := c.cfg.ServoAngle

	trig, err := c.trigger("servo_toggle", b.ServoToggle)
	if err != nil {
		return err
	}
	servo, err := binding.Toggle("servoToggle", trig, func(on bool) error {
		if on {
			return c.Servo.SetAngle(angle)
		}
		return c.Servo.SetAngle(-angle)
	}, c.Servo)
	if err != nil {
		return err
	}
	c.servo = servo

	if trig, err = c.trigger("elevator_limit", b.ElevatorLimit); err != nil {
		return err
	}
	limit, err := binding.CycleLevels("elevatorLimit", trig, c.levels, func(level float64) error {
		c.log.Info("elevator limit %g", level)
		return c.Elevator.SetLimit(level)
	})
	if err != nil {
		return err
	}

	if trig, err = c.trigger("zero_heading", b.ZeroHeading); err != nil {
		return err
	}
	zeroCmd, err := command.NewInstant("zeroHeading", c.Drive.Zero)
	if err != nil {
		return err
	}
	zero, err := binding.Bind("zeroHeading", trig, zeroCmd)
	if err != nil {
		return err
	}

	lock, err := command.NewInstant("elevatorLock", c.Elevator.Lock, c.Elevator)
	if err != nil {
		return err
	}
	elevatorBinding := func(action, spec string, speed float64) (*binding.Binding, error) {
		trig, err := c.trigger(action, spec)
		if err != nil {
			return nil, err
		}
		move, err := command.NewInstant(action, func() error {
			return c.Elevator.SetSpeed(speed)
		}, c.Elevator)
		if err != nil {
			return nil, err
		}
		return binding.Bind(action, trig, move, binding.OnFalse(lock), binding.Repeat())
	}
	up, err := elevatorBinding("elevatorUp", b.ElevatorUp, c.cfg.MotorSpeed)
	if err != nil {
		return err
	}
	down, err := elevatorBinding("elevatorDown", b.ElevatorDown, -c.cfg.MotorSpeed)
	if err != nil {
		return err
	}

	if trig, err = c.trigger("robot_relative", b.RobotRelative); err != nil {
		return err
	}
	robotDrive, err := JoystickDrive("robotDrive", c.Drive, DriveInputs{
		X:   c.axis(signal.AxisLeftY),
		Y:   negate(c.axis(signal.AxisLeftX)),
		Rot: negate(c.axis(signal.AxisRightX)),
	}, c.cfg.Deadband, c.cfg.MaxDriveSpeed, false)
	if err != nil {
		return err
	}
	relative, err := binding.Bind("robotRelative", trig, robotDrive, binding.Hold())
	if err != nil {
		return err
	}

	return c.bindings.Add(servo, limit, zero, up, down, relative)
}

// Install registers the subsystems and their defaults with sched and points
// the joystick suppliers at in.
func (c *Container) Install(sched *scheduler.Scheduler, in Inputs) error {
	c.inputs = in
	sched.Register(c.Subsystems()...)
	for _, r := range c.Subsystems() {
		def, ok := c.defaults[r]
		if !ok {
			continue
		}
		if err := sched.SetDefault(r, def); err != nil {
			return err
		}
	}
	return nil
}

// Subsystems returns every subsystem in registration order.
func (c *Container) Subsystems() []command.Resource {
	return []command.Resource{c.Elevator, c.Shooter, c.Drive, c.Servo}
}

// Subsystem returns the subsystem called name.
func (c *Container) Subsystem(name string) (command.Resource, bool) {
	for _, r := range c.Subsystems() {
		if r.Name() == name {
			return r, true
		}
	}
	return nil, false
}

// Bindings returns the operator bindings in declaration order.
func (c *Container) Bindings() *binding.Set {
	return c.bindings
}

// Registry returns the named command registry.
func (c *Container) Registry() *command.Registry {
	return c.registry
}

// ElevatorLevels returns the elevator limit selector.
func (c *Container) ElevatorLevels() *binding.LevelSelector {
	return c.levels
}

// ServoOn reports the servo toggle latch.
func (c *Container) ServoOn() bool {
	return c.servo.Toggle().On()
}
