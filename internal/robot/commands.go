package robot

import (
	"github.com/dshills/teleop/internal/command"
	"github.com/dshills/teleop/internal/signal"
)

// SpeedResource is a subsystem that takes a speed set-point.
type SpeedResource interface {
	command.Resource
	SpeedSetter
}

// ShootNote spins the shooter at the supplied speed every cycle and stops
// it when the command ends.
func ShootNote(name string, shooter SpeedResource, speed func() float64) (*command.RunCommand, error) {
	return command.NewRun(name,
		func() error { return shooter.SetSpeed(speed()) },
		func(bool) error { return shooter.SetSpeed(0) },
		shooter)
}

// DriveInputs are the joystick suppliers of a drive command.
type DriveInputs struct {
	X, Y, Rot func() float64
}

// JoystickDrive drives from joystick suppliers, applying the deadband and
// scaling by maxSpeed. The drive stops when the command ends.
func JoystickDrive(name string, drive *Drive, in DriveInputs, deadband, maxSpeed float64, fieldRelative bool) (*command.RunCommand, error) {
	return command.NewRun(name,
		func() error {
			x := signal.ApplyDeadband(in.X(), deadband) * maxSpeed
			y := signal.ApplyDeadband(in.Y(), deadband) * maxSpeed
			rot := signal.ApplyDeadband(in.Rot(), deadband) * maxSpeed
			return drive.Drive(x, y, rot, fieldRelative)
		},
		func(bool) error { return drive.Stop() },
		drive)
}
