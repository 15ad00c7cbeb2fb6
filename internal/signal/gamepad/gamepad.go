//go:build linux

package gamepad

import (
	"fmt"
	"sync"

	evdev "github.com/gvalkov/golang-evdev"

	"github.com/dshills/teleop/internal/logging"
	"github.com/dshills/teleop/internal/signal"
)

var buttonCodes = map[uint16]string{
	evdev.BTN_A:      signal.ButtonA,
	evdev.BTN_B:      signal.ButtonB,
	evdev.BTN_X:      signal.ButtonX,
	evdev.BTN_Y:      signal.ButtonY,
	evdev.BTN_TL:     signal.BumperLeft,
	evdev.BTN_TR:     signal.BumperRight,
	evdev.BTN_SELECT: signal.ButtonBack,
	evdev.BTN_START:  signal.ButtonStart,
	evdev.BTN_THUMBL: signal.StickLeft,
	evdev.BTN_THUMBR: signal.StickRight,
}

var stickCodes = map[uint16]string{
	evdev.ABS_X:  signal.AxisLeftX,
	evdev.ABS_Y:  signal.AxisLeftY,
	evdev.ABS_RX: signal.AxisRightX,
	evdev.ABS_RY: signal.AxisRightY,
}

var triggerCodes = map[uint16]string{
	evdev.ABS_Z:  signal.TriggerLeft,
	evdev.ABS_RZ: signal.TriggerRight,
}

// Source samples an evdev game controller.
type Source struct {
	mu  sync.Mutex
	cfg Config
	dev *evdev.InputDevice
	log *logging.Logger

	buttons    map[string]bool
	axes       map[string]float64
	hatX, hatY int32

	err    error
	closed bool
	done   chan struct{}
}

// Open opens the device node in cfg and starts reading it.
func Open(cfg Config, log *logging.Logger) (*Source, error) {
	if cfg.Device == "" {
		return nil, ErrNoDevice
	}
	dev, err := evdev.Open(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("gamepad: open %s: %w", cfg.Device, err)
	}

	s := newSource(cfg, log)
	s.dev = dev
	s.log.Info("reading %s (%s)", cfg.Device, dev.Name)
	go s.readLoop()
	return s, nil
}

func newSource(cfg Config, log *logging.Logger) *Source {
	if log == nil {
		log = logging.Discard()
	}
	return &Source{
		cfg:     cfg.withDefaults(),
		log:     log,
		buttons: make(map[string]bool),
		axes:    make(map[string]float64),
		done:    make(chan struct{}),
	}
}

func (s *Source) readLoop() {
	defer close(s.done)
	for {
		events, err := s.dev.Read()
		if err != nil {
			s.fail(err)
			return
		}
		for _, ev := range events {
			s.handle(ev)
		}
	}
}

func (s *Source) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.err = err
	s.log.Error("reading %s: %v", s.cfg.Device, err)
}

// handle applies one input event. Sync and unmapped events are ignored.
func (s *Source) handle(ev evdev.InputEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Type {
	case evdev.EV_KEY:
		if name, ok := buttonCodes[ev.Code]; ok {
			// 2 is a key auto-repeat, still held.
			s.buttons[name] = ev.Value != 0
		}

	case evdev.EV_ABS:
		switch ev.Code {
		case evdev.ABS_HAT0X:
			s.hatX = ev.Value
		case evdev.ABS_HAT0Y:
			s.hatY = ev.Value
		default:
			if name, ok := stickCodes[ev.Code]; ok {
				s.axes[name] = scale(ev.Value, s.cfg.StickMax)
			} else if name, ok := triggerCodes[ev.Code]; ok {
				s.axes[name] = scale(ev.Value, s.cfg.TriggerMax)
			}
		}
	}
}

// scale maps a raw axis value onto [-1, 1]. Sticks report one more step
// negative than positive, so the low end is clamped.
func scale(raw int32, full float64) float64 {
	v := float64(raw) / full
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}

// Layout implements signal.Source.
func (s *Source) Layout() signal.Layout {
	return signal.XboxLayout()
}

// Sample implements signal.Source. A device read error, such as the
// controller being unplugged, ends the source.
func (s *Source) Sample(cycle uint64) (signal.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return signal.Snapshot{}, signal.ErrSourceClosed
	}
	if s.err != nil {
		return signal.Snapshot{}, fmt.Errorf("%w: %v", signal.ErrSourceClosed, s.err)
	}

	layout := signal.XboxLayout()
	snap := signal.NewSnapshot(cycle)
	for _, name := range layout.Buttons {
		snap.SetDigital(name, s.buttons[name])
	}
	for _, name := range layout.Axes {
		snap.SetAnalog(name, s.axes[name])
	}
	snap.SetDirectional(signal.POV, signal.HatPosition(int(s.hatX), int(s.hatY)))
	return snap, nil
}

// Done is closed when the read loop has exited.
func (s *Source) Done() <-chan struct{} {
	return s.done
}

// Close releases the device. It is safe to call more than once.
func (s *Source) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.dev == nil {
		return nil
	}
	return s.dev.File.Close()
}
