// Package robot holds the simulated mechanisms and the operator mapping of
// the competition robot.
//
// Subsystems (Elevator, Shooter, Drive, Servo) are command resources. There
// is no hardware layer: each one keeps its last set-point and reports every
// call to an optional Recorder, which tests and the activation journal use.
//
// Container wires everything together:
//
//	A        toggle the servo between +angle and -angle
//	B        step the elevator limit through the configured levels
//	Y        zero the drive heading
//	POV up   raise the elevator every cycle while held, lock on release
//	POV down lower the elevator every cycle while held, lock on release
//	LB       robot-relative drive while held
//
// The drive base defaults to field-relative joystick drive and the shooter
// to the right trigger. "Drop" is registered for autonomous routines.
// Every trigger can be remapped in the [robot.bindings] config table.
package robot
