//go:build linux

package gamepad

import (
	"errors"
	"testing"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/dshills/teleop/internal/signal"
)

func event(typ, code uint16, value int32) evdev.InputEvent {
	return evdev.InputEvent{Type: typ, Code: code, Value: value}
}

func sample(t *testing.T, s *Source) signal.Snapshot {
	t.Helper()
	snap, err := s.Sample(1)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	return snap
}

func TestOpenRequiresDevice(t *testing.T) {
	if _, err := Open(Config{}, nil); !errors.Is(err, ErrNoDevice) {
		t.Fatalf("Open() error = %v, want ErrNoDevice", err)
	}
}

func TestOpenMissingNode(t *testing.T) {
	_, err := Open(Config{Device: "/nonexistent/event99"}, nil)
	if err == nil {
		t.Fatal("expected an error opening a missing node")
	}
}

func TestButtons(t *testing.T) {
	tests := []struct {
		name   string
		code   uint16
		value  int32
		button string
		want   bool
	}{
		{"A press", evdev.BTN_A, 1, signal.ButtonA, true},
		{"Y press", evdev.BTN_Y, 1, signal.ButtonY, true},
		{"start press", evdev.BTN_START, 1, signal.ButtonStart, true},
		{"select is back", evdev.BTN_SELECT, 1, signal.ButtonBack, true},
		{"left bumper", evdev.BTN_TL, 1, signal.BumperLeft, true},
		{"right stick click", evdev.BTN_THUMBR, 1, signal.StickRight, true},
		{"auto-repeat still held", evdev.BTN_B, 2, signal.ButtonB, true},
		{"release", evdev.BTN_X, 0, signal.ButtonX, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSource(Config{}, nil)
			s.handle(event(evdev.EV_KEY, tt.code, tt.value))
			if got := sample(t, s).Digital(tt.button); got != tt.want {
				t.Errorf("Digital(%s) = %v, want %v", tt.button, got, tt.want)
			}
		})
	}
}

func TestPressThenRelease(t *testing.T) {
	s := newSource(Config{}, nil)
	s.handle(event(evdev.EV_KEY, evdev.BTN_A, 1))
	s.handle(event(evdev.EV_SYN, 0, 0))
	if !sample(t, s).Digital(signal.ButtonA) {
		t.Fatal("expected A held after press")
	}
	s.handle(event(evdev.EV_KEY, evdev.BTN_A, 0))
	if sample(t, s).Digital(signal.ButtonA) {
		t.Fatal("expected A released")
	}
}

func TestAxes(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		code  uint16
		value int32
		axis  string
		want  float64
	}{
		{"stick full right", Config{}, evdev.ABS_X, 32767, signal.AxisLeftX, 1},
		{"stick full left clamps", Config{}, evdev.ABS_X, -32768, signal.AxisLeftX, -1},
		{"stick centered", Config{}, evdev.ABS_RY, 0, signal.AxisRightY, 0},
		{"custom stick range", Config{StickMax: 100}, evdev.ABS_Y, -50, signal.AxisLeftY, -0.5},
		{"trigger full", Config{}, evdev.ABS_Z, 255, signal.TriggerLeft, 1},
		{"trigger custom range", Config{TriggerMax: 1023}, evdev.ABS_RZ, 1023, signal.TriggerRight, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSource(tt.cfg, nil)
			s.handle(event(evdev.EV_ABS, tt.code, tt.value))
			if got := sample(t, s).Analog(tt.axis); got != tt.want {
				t.Errorf("Analog(%s) = %v, want %v", tt.axis, got, tt.want)
			}
		})
	}
}

func TestHat(t *testing.T) {
	tests := []struct {
		name string
		x, y int32
		want signal.Position
	}{
		{"centered", 0, 0, signal.PositionNone},
		{"up", 0, -1, signal.Up},
		{"down right", 1, 1, signal.DownRight},
		{"left", -1, 0, signal.Left},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSource(Config{}, nil)
			s.handle(event(evdev.EV_ABS, evdev.ABS_HAT0X, tt.x))
			s.handle(event(evdev.EV_ABS, evdev.ABS_HAT0Y, tt.y))
			if got := sample(t, s).Directional(signal.POV); got != tt.want {
				t.Errorf("Directional(POV) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnmappedEventsIgnored(t *testing.T) {
	s := newSource(Config{}, nil)
	s.handle(event(evdev.EV_KEY, evdev.KEY_A, 1))
	s.handle(event(evdev.EV_ABS, evdev.ABS_MISC, 9))
	snap := sample(t, s)
	for _, name := range signal.XboxLayout().Buttons {
		if snap.Digital(name) {
			t.Errorf("%s held after unmapped events", name)
		}
	}
}

func TestReadErrorClosesSource(t *testing.T) {
	s := newSource(Config{Device: "/dev/input/event0"}, nil)
	s.fail(errors.New("no such device"))

	_, err := s.Sample(1)
	if !errors.Is(err, signal.ErrSourceClosed) {
		t.Fatalf("Sample() error = %v, want ErrSourceClosed", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s := newSource(Config{}, nil)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := s.Sample(1); !errors.Is(err, signal.ErrSourceClosed) {
		t.Fatalf("Sample after Close = %v, want ErrSourceClosed", err)
	}
}
