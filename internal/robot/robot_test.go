package robot

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dshills/teleop/internal/config"
	"github.com/dshills/teleop/internal/scheduler"
	"github.com/dshills/teleop/internal/signal"
)

// bench runs a Container against a MemorySource and records actuations
// with the cycle they happened in.
type bench struct {
	src   *signal.MemorySource
	sched *scheduler.Scheduler
	disp  *scheduler.Dispatcher
	robot *Container
	calls []string
}

func newBench(t *testing.T, cfg *config.Config) *bench {
	t.Helper()
	b := &bench{
		src:   signal.NewMemorySource(signal.XboxLayout()),
		sched: scheduler.New(),
	}

	c, err := NewContainer(cfg, WithRecorder(func(a Actuation) {
		var cycle uint64
		if b.disp != nil {
			cycle = b.disp.Cycle()
		}
		b.calls = append(b.calls, fmt.Sprintf("%d:%s.%s(%g)", cycle, a.Subsystem, a.Op, a.Value))
	}))
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	b.robot = c

	d, err := scheduler.NewDispatcher(b.src, c.Bindings(), b.sched, nil)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	b.disp = d
	if err := c.Install(b.sched, d); err != nil {
		t.Fatalf("Install: %v", err)
	}
	return b
}

func (b *bench) tick(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := b.disp.Tick(); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
}

// press holds a button for one cycle and releases it on the next.
func (b *bench) press(t *testing.T, button string) {
	t.Helper()
	b.src.Press(button)
	b.tick(t, 1)
	b.src.Release(button)
	b.tick(t, 1)
}

// on returns the recorded calls of one subsystem.
func (b *bench) on(subsystem string) []string {
	var out []string
	for _, c := range b.calls {
		if _, rest, ok := strings.Cut(c, ":"); ok && strings.HasPrefix(rest, subsystem+".") {
			out = append(out, c)
		}
	}
	return out
}

func TestElevatorRepeatsWhileDpadHeld(t *testing.T) {
	b := newBench(t, config.Default())

	b.src.SetPOV(signal.POV, signal.Up)
	b.tick(t, 5)
	b.src.SetPOV(signal.POV, signal.PositionNone)
	b.tick(t, 3)

	expected := []string{
		"1:elevator.setSpeed(0.5)",
		"2:elevator.setSpeed(0.5)",
		"3:elevator.setSpeed(0.5)",
		"4:elevator.setSpeed(0.5)",
		"5:elevator.setSpeed(0.5)",
		"6:elevator.lock(0)",
	}
	if got := b.on("elevator"); !reflect.DeepEqual(got, expected) {
		t.Errorf("got %v, expected %v", got, expected)
	}
	if !b.robot.Elevator.Locked() {
		t.Error("expected elevator locked")
	}
}

func TestElevatorDownUsesNegativeSpeed(t *testing.T) {
	b := newBench(t, config.Default())

	b.src.SetPOV(signal.POV, signal.Down)
	b.tick(t, 2)

	if got := b.robot.Elevator.Speed(); got != -0.5 {
		t.Errorf("speed = %v, want -0.5", got)
	}
	if got := b.robot.Elevator.Position(); got != -1 {
		t.Errorf("position = %v, want -1", got)
	}
}

func TestServoToggleAlternates(t *testing.T) {
	b := newBench(t, config.Default())

	for i := 0; i < 3; i++ {
		b.press(t, signal.ButtonA)
	}

	expected := []string{
		"1:servo.setAngle(270)",
		"3:servo.setAngle(-270)",
		"5:servo.setAngle(270)",
	}
	if got := b.on("servo"); !reflect.DeepEqual(got, expected) {
		t.Errorf("got %v, expected %v", got, expected)
	}
	if !b.robot.ServoOn() {
		t.Error("expected toggle latch on after three presses")
	}
}

func TestHeldToggleButtonFlipsOnce(t *testing.T) {
	b := newBench(t, config.Default())

	b.src.Press(signal.ButtonA)
	b.tick(t, 10)

	if got := len(b.on("servo")); got != 1 {
		t.Errorf("expected one servo move while held, got %d", got)
	}
}

func TestElevatorLimitCyclesLevels(t *testing.T) {
	b := newBench(t, config.Default())

	var limits []float64
	for i := 0; i < 4; i++ {
		b.press(t, signal.ButtonB)
		limits = append(limits, b.robot.Elevator.Limit())
	}

	if !reflect.DeepEqual(limits, []float64{50, 100, 0, 50}) {
		t.Errorf("limits = %v, want [50 100 0 50]", limits)
	}
	if b.robot.ElevatorLevels().Index() != 1 {
		t.Errorf("index = %d, want 1", b.robot.ElevatorLevels().Index())
	}
}

func TestZeroHeading(t *testing.T) {
	b := newBench(t, config.Default())

	b.src.SetAxis(signal.AxisRightX, 0.5)
	b.tick(t, 2)
	if b.robot.Drive.State().Heading == 0 {
		t.Fatal("expected the heading to move")
	}

	b.src.SetAxis(signal.AxisRightX, 0)
	b.press(t, signal.ButtonY)
	if h := b.robot.Drive.State().Heading; h != 0 {
		t.Errorf("heading = %v, want 0", h)
	}
}

func TestRobotRelativeWhileBumperHeld(t *testing.T) {
	b := newBench(t, config.Default())
	b.src.SetAxis(signal.AxisLeftX, 0.6)

	b.tick(t, 1)
	if st := b.robot.Drive.State(); !st.FieldRelative || st.Y != 0.6 {
		t.Errorf("expected field-relative default drive, got %+v", st)
	}

	b.src.Press(signal.BumperLeft)
	b.tick(t, 2)
	if st := b.robot.Drive.State(); st.FieldRelative || st.Y != -0.6 {
		t.Errorf("expected robot-relative drive while held, got %+v", st)
	}

	b.src.Release(signal.BumperLeft)
	b.tick(t, 1)
	if st := b.robot.Drive.State(); !st.FieldRelative {
		t.Errorf("expected default drive to resume, got %+v", st)
	}
}

func TestJoystickDeadband(t *testing.T) {
	b := newBench(t, config.Default())
	b.src.SetAxis(signal.AxisLeftY, 0.03)
	b.src.SetAxis(signal.AxisLeftX, -0.04)

	b.tick(t, 1)
	if st := b.robot.Drive.State(); st.X != 0 || st.Y != 0 {
		t.Errorf("expected deadband to zero small inputs, got %+v", st)
	}
}

func TestDropRunsThenShooterDefaultResumes(t *testing.T) {
	cfg := config.Default()
	cfg.Robot.DropTimeout = config.Duration(60 * time.Millisecond)
	b := newBench(t, cfg)
	b.src.SetAxis(signal.TriggerRight, 0.7)

	drop, err := b.robot.Registry().Lookup(DropCommand)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if drop.Name() != DropCommand {
		t.Errorf("name = %q, want %q", drop.Name(), DropCommand)
	}
	if err := b.sched.Schedule(drop); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	b.tick(t, 4)

	expected := []string{
		"1:shooter.setSpeed(0.1)",
		"2:shooter.setSpeed(0.1)",
		"3:shooter.setSpeed(0.1)",
		"3:shooter.setSpeed(0)",
		"4:shooter.setSpeed(0.7)",
	}
	if got := b.on("shooter"); !reflect.DeepEqual(got, expected) {
		t.Errorf("got %v, expected %v", got, expected)
	}
}

func TestDefaultsOccupySubsystems(t *testing.T) {
	b := newBench(t, config.Default())
	b.tick(t, 1)

	for _, name := range []string{"drive", "shooter"} {
		r, ok := b.robot.Subsystem(name)
		if !ok {
			t.Fatalf("missing subsystem %s", name)
		}
		if _, owned := b.sched.Owner(r); !owned {
			t.Errorf("expected %s to be owned by its default", name)
		}
	}
	if _, owned := b.sched.Owner(b.robot.Elevator); owned {
		t.Error("elevator has no default and should be idle")
	}
}

func TestNewContainerRejectsBadTrigger(t *testing.T) {
	cfg := config.Default()
	cfg.Robot.Bindings.ZeroHeading = "axis:LeftY"

	_, err := NewContainer(cfg)
	if !errors.Is(err, signal.ErrInvalidTrigger) {
		t.Errorf("expected ErrInvalidTrigger, got %v", err)
	}
}

func TestElevatorStopsAtLimit(t *testing.T) {
	e := NewElevator(nil, nil)
	_ = e.SetLimit(1)

	for i := 0; i < 3; i++ {
		_ = e.SetSpeed(0.5)
	}
	if e.Position() != 1 || e.Speed() != 0 {
		t.Errorf("expected to stop at the limit, position %v speed %v", e.Position(), e.Speed())
	}

	_ = e.SetSpeed(-0.5)
	if e.Speed() != -0.5 {
		t.Errorf("downward motion should be allowed at the limit, got %v", e.Speed())
	}
}
