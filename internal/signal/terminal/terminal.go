// Package terminal turns a keyboard into a gamepad signal source using a
// tcell screen.
//
// Terminals report key presses and auto-repeats but never releases, so a
// key counts as held for a hold window after its most recent event. Holding
// a key down keeps it held through the terminal's auto-repeat; letting go
// releases it once the window passes.
//
// Fixed keys:
//
//	arrows       POV hat (two arrows together give a diagonal)
//	i j k l      left stick
//	u o          right stick X
//	r t          left / right trigger
//	Esc, Ctrl-C  quit
//
// Buttons are mapped from single characters by configuration.
package terminal

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/teleop/internal/signal"
)

// DefaultHold is the hold window used when none is configured.
const DefaultHold = 150 * time.Millisecond

// axisKey moves one axis to a full-scale value while held.
type axisKey struct {
	axis  string
	value float64
}

var stickKeys = map[rune]axisKey{
	'i': {signal.AxisLeftY, -1},
	'k': {signal.AxisLeftY, 1},
	'j': {signal.AxisLeftX, -1},
	'l': {signal.AxisLeftX, 1},
	'u': {signal.AxisRightX, -1},
	'o': {signal.AxisRightX, 1},
	'r': {signal.TriggerLeft, 1},
	't': {signal.TriggerRight, 1},
}

var arrowKeys = map[tcell.Key]string{
	tcell.KeyUp:    "up",
	tcell.KeyDown:  "down",
	tcell.KeyLeft:  "left",
	tcell.KeyRight: "right",
}

// Config configures a Source.
type Config struct {
	// Keys maps a single character to a button name.
	Keys map[string]string
	// Hold is how long a key counts as held after its last event.
	Hold time.Duration
	// OnQuit runs once when the operator presses Esc or Ctrl-C.
	OnQuit func()
}

// Source samples the keyboard state of a tcell screen.
type Source struct {
	mu     sync.Mutex
	screen tcell.Screen
	layout signal.Layout
	keys   map[rune]string
	hold   time.Duration
	onQuit func()
	now    func() time.Time

	seen   map[string]time.Time // button, arrow or axis-key id -> last event
	closed bool
	done   chan struct{}
}

// New creates a source reading key events from screen. The screen must be
// initialized; Start begins polling it.
func New(screen tcell.Screen, cfg Config) (*Source, error) {
	layout := signal.XboxLayout()
	keys := make(map[rune]string, len(cfg.Keys))
	for k, button := range cfg.Keys {
		r, size := utf8.DecodeRuneInString(k)
		if size == 0 || size != len(k) {
			return nil, fmt.Errorf("terminal: key %q must be a single character", k)
		}
		if _, taken := stickKeys[r]; taken {
			return nil, fmt.Errorf("terminal: key %q is reserved for a stick", k)
		}
		if !layout.Has(signal.Digital, button) {
			return nil, fmt.Errorf("terminal: key %q: %w: %s", k, signal.ErrUnknownSignal, button)
		}
		keys[r] = button
	}

	hold := cfg.Hold
	if hold <= 0 {
		hold = DefaultHold
	}

	return &Source{
		screen: screen,
		layout: layout,
		keys:   keys,
		hold:   hold,
		onQuit: cfg.OnQuit,
		now:    time.Now,
		seen:   make(map[string]time.Time),
		done:   make(chan struct{}),
	}, nil
}

// NewScreen creates and initializes the default terminal screen.
func NewScreen() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return screen, nil
}

// Start draws the key help and polls the screen for events until Close.
func (s *Source) Start() {
	s.drawHelp()
	go func() {
		defer close(s.done)
		for {
			ev := s.screen.PollEvent()
			if ev == nil {
				return
			}
			s.HandleEvent(ev)
		}
	}()
}

// Close releases the screen. It is safe to call more than once.
func (s *Source) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.screen.Fini()
	return nil
}

// Done is closed when the event loop has exited.
func (s *Source) Done() <-chan struct{} {
	return s.done
}

// HandleEvent records a terminal event.
func (s *Source) HandleEvent(ev tcell.Event) {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		if _, resized := ev.(*tcell.EventResize); resized {
			s.drawHelp()
		}
		return
	}

	switch key.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		s.quit()
		return
	case tcell.KeyRune:
		s.mu.Lock()
		defer s.mu.Unlock()
		r := key.Rune()
		if button, ok := s.keys[r]; ok {
			s.seen["button:"+button] = s.now()
		} else if _, ok := stickKeys[r]; ok {
			s.seen["stick:"+string(r)] = s.now()
		}
		return
	}

	if dir, ok := arrowKeys[key.Key()]; ok {
		s.mu.Lock()
		s.seen["arrow:"+dir] = s.now()
		s.mu.Unlock()
	}
}

func (s *Source) quit() {
	s.mu.Lock()
	already := s.closed
	s.closed = true
	onQuit := s.onQuit
	s.onQuit = nil
	s.mu.Unlock()

	if onQuit != nil {
		onQuit()
	}
	if !already {
		s.screen.Fini()
	}
}

// Layout implements signal.Source.
func (s *Source) Layout() signal.Layout {
	return s.layout
}

// Sample implements signal.Source.
func (s *Source) Sample(cycle uint64) (signal.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return signal.Snapshot{}, signal.ErrSourceClosed
	}

	now := s.now()
	held := func(id string) bool {
		t, ok := s.seen[id]
		return ok && now.Sub(t) < s.hold
	}

	snap := signal.NewSnapshot(cycle)
	for _, button := range s.layout.Buttons {
		snap.SetDigital(button, held("button:"+button))
	}

	snap.SetDirectional(signal.POV, povPosition(
		held("arrow:up"), held("arrow:down"), held("arrow:left"), held("arrow:right")))

	axes := make(map[string]float64)
	for r, ak := range stickKeys {
		if held("stick:" + string(r)) {
			axes[ak.axis] += ak.value
		}
	}
	for name, v := range axes {
		snap.SetAnalog(name, v)
	}
	return snap, nil
}

// povPosition combines the held arrows into a hat position. Opposite
// arrows cancel.
func povPosition(up, down, left, right bool) signal.Position {
	vertical := 0
	if up {
		vertical--
	}
	if down {
		vertical++
	}
	horizontal := 0
	if left {
		horizontal--
	}
	if right {
		horizontal++
	}
	return signal.HatPosition(horizontal, vertical)
}

// Help describes the key mapping.
func (s *Source) Help() string {
	pairs := make([]string, 0, len(s.keys))
	for r, button := range s.keys {
		pairs = append(pairs, fmt.Sprintf("%c=%s", r, button))
	}
	sort.Strings(pairs)
	return "teleop  " + strings.Join(pairs, " ") +
		"  arrows=POV ijkl=left stick u/o=turn r/t=triggers esc=quit"
}

func (s *Source) drawHelp() {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	style := tcell.StyleDefault.Reverse(true)
	s.screen.Clear()
	width, _ := s.screen.Size()
	x := 0
	for _, r := range s.Help() {
		if x >= width {
			break
		}
		s.screen.SetContent(x, 0, r, nil, style)
		x++
	}
	s.screen.Show()
}
