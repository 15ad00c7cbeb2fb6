package robot

import (
	"math"
	"sync"

	"github.com/dshills/teleop/internal/logging"
)

// Capabilities consumed by commands and scripts.
type (
	SpeedSetter interface{ SetSpeed(v float64) error }
	Locker      interface{ Lock() error }
	AngleSetter interface{ SetAngle(deg float64) error }
	LimitSetter interface{ SetLimit(v float64) error }
	Zeroer      interface{ Zero() error }
)

// Actuation is one call into a subsystem, as reported to a Recorder.
type Actuation struct {
	Subsystem string
	Op        string
	Value     float64
}

// Recorder receives every actuation. It runs on the control loop.
type Recorder func(Actuation)

// actuator is embedded by every simulated subsystem.
type actuator struct {
	mu     sync.RWMutex
	name   string
	log    *logging.Logger
	record Recorder
}

func newActuator(name string, log *logging.Logger, rec Recorder) actuator {
	if log == nil {
		log = logging.Discard()
	}
	return actuator{name: name, log: log.WithComponent(name), record: rec}
}

// Name implements command.Resource.
func (a *actuator) Name() string { return a.name }

func (a *actuator) actuate(op string, v float64) {
	a.log.Debug("%s %g", op, v)
	if a.record != nil {
		a.record(Actuation{Subsystem: a.name, Op: op, Value: v})
	}
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// Elevator is a two-motor lift with a software upper limit.
type Elevator struct {
	actuator
	speed    float64
	position float64
	limit    float64
	locked   bool
}

// NewElevator creates an elevator at position zero with no limit.
func NewElevator(log *logging.Logger, rec Recorder) *Elevator {
	return &Elevator{actuator: newActuator("elevator", log, rec)}
}

// SetSpeed drives the lift. Upward motion stops at the limit; a limit of
// zero or less means unlimited. Each call advances the simulated position
// by the applied speed.
func (e *Elevator) SetSpeed(v float64) error {
	e.mu.Lock()
	v = clampUnit(v)
	if e.limit > 0 && v > 0 && e.position >= e.limit {
		v = 0
	}
	e.speed = v
	e.locked = false
	e.position += v
	e.mu.Unlock()

	e.actuate("setSpeed", v)
	return nil
}

// Lock stops the lift and holds it in place.
func (e *Elevator) Lock() error {
	e.mu.Lock()
	e.speed = 0
	e.locked = true
	e.mu.Unlock()

	e.actuate("lock", 0)
	return nil
}

// SetLimit sets the upper encoder limit.
func (e *Elevator) SetLimit(v float64) error {
	e.mu.Lock()
	e.limit = v
	e.mu.Unlock()

	e.actuate("setLimit", v)
	return nil
}

// Speed returns the last commanded motor speed.
func (e *Elevator) Speed() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.speed
}

// Position returns the simulated encoder position.
func (e *Elevator) Position() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.position
}

// Limit returns the upper encoder limit; zero or less is unlimited.
func (e *Elevator) Limit() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.limit
}

// Locked reports whether the brake is engaged.
func (e *Elevator) Locked() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.locked
}

// Shooter is the note shooter's flywheel pair.
type Shooter struct {
	actuator
	speed float64
}

// NewShooter creates a stopped shooter.
func NewShooter(log *logging.Logger, rec Recorder) *Shooter {
	return &Shooter{actuator: newActuator("shooter", log, rec)}
}

// SetSpeed sets the flywheel output in [-1, 1].
func (s *Shooter) SetSpeed(v float64) error {
	s.mu.Lock()
	s.speed = clampUnit(v)
	v = s.speed
	s.mu.Unlock()

	s.actuate("setSpeed", v)
	return nil
}

// Speed returns the flywheel speed.
func (s *Shooter) Speed() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.speed
}

// DriveState is the last command sent to the drive base.
type DriveState struct {
	X, Y, Rot     float64
	FieldRelative bool
	Heading       float64
}

// Drive is a swerve drive base with a gyro heading.
type Drive struct {
	actuator
	state DriveState
}

// NewDrive creates a stopped drive base facing heading zero.
func NewDrive(log *logging.Logger, rec Recorder) *Drive {
	return &Drive{actuator: newActuator("drive", log, rec)}
}

// Drive commands a chassis velocity. Rotation turns the simulated heading
// by rot degrees per call.
func (d *Drive) Drive(x, y, rot float64, fieldRelative bool) error {
	d.mu.Lock()
	d.state.X, d.state.Y, d.state.Rot = x, y, rot
	d.state.FieldRelative = fieldRelative
	d.state.Heading = math.Mod(d.state.Heading+rot+360, 360)
	d.mu.Unlock()

	op := "driveRobot"
	if fieldRelative {
		op = "driveField"
	}
	d.actuate(op, math.Hypot(x, y))
	return nil
}

// Stop halts every module.
func (d *Drive) Stop() error {
	d.mu.Lock()
	d.state.X, d.state.Y, d.state.Rot = 0, 0, 0
	d.mu.Unlock()

	d.actuate("stop", 0)
	return nil
}

// Zero resets the gyro heading.
func (d *Drive) Zero() error {
	d.mu.Lock()
	d.state.Heading = 0
	d.mu.Unlock()

	d.actuate("zeroHeading", 0)
	return nil
}

// State returns the last drive command and the heading.
func (d *Drive) State() DriveState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Servo is a positional servo.
type Servo struct {
	actuator
	angle float64
}

// NewServo creates a servo at angle zero.
func NewServo(log *logging.Logger, rec Recorder) *Servo {
	return &Servo{actuator: newActuator("servo", log, rec)}
}

// SetAngle moves the servo.
func (s *Servo) SetAngle(deg float64) error {
	s.mu.Lock()
	s.angle = deg
	s.mu.Unlock()

	s.actuate("setAngle", deg)
	return nil
}

// Angle returns the last commanded angle in degrees.
func (s *Servo) Angle() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.angle
}
