// Package replay plays a scripted sequence of gamepad states as a signal
// source, for headless runs and regression scenarios.
//
// A script is YAML:
//
//	name: raise-and-lock
//	frames:
//	  - cycles: 5
//	    pov: up
//	  - cycles: 2
//	  - cycles: 3
//	    buttons: [A, LB]
//	    axes: {LeftY: 0.5}
//
// Each frame describes the complete gamepad state for its cycles: buttons
// not listed are released, hats not listed are centered and axes not listed
// are zero. Once every frame has played the source reports
// signal.ErrSourceClosed.
package replay

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dshills/teleop/internal/signal"
)

// Script is a named list of frames.
type Script struct {
	Name   string  `yaml:"name"`
	Loop   bool    `yaml:"loop"`
	Frames []Frame `yaml:"frames"`
}

// Frame is a gamepad state held for a number of cycles.
type Frame struct {
	Cycles  int                `yaml:"cycles"`
	Buttons []string           `yaml:"buttons"`
	POV     string             `yaml:"pov"`
	Hats    map[string]string  `yaml:"hats"`
	Axes    map[string]float64 `yaml:"axes"`
}

// Parse decodes a script. Unknown keys are errors.
func Parse(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("replay: decoding script: %w", err)
	}
	if len(s.Frames) == 0 {
		return nil, errors.New("replay: script has no frames")
	}
	for i, f := range s.Frames {
		if f.Cycles < 1 {
			return nil, fmt.Errorf("replay: frame %d: cycles must be at least 1", i)
		}
	}
	return &s, nil
}

// LoadFile reads and parses the script at path.
func LoadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// TotalCycles returns the number of cycles one pass of the script covers.
func (s *Script) TotalCycles() int {
	n := 0
	for _, f := range s.Frames {
		n += f.Cycles
	}
	return n
}

// Validate checks every name and position against layout.
func (s *Script) Validate(layout signal.Layout) error {
	var errs []error
	for i, f := range s.Frames {
		if _, err := f.positions(); err != nil {
			errs = append(errs, fmt.Errorf("frame %d: %w", i, err))
		}
		for _, b := range f.Buttons {
			if !layout.Has(signal.Digital, b) {
				errs = append(errs, fmt.Errorf("frame %d: %w: button %s", i, signal.ErrUnknownSignal, b))
			}
		}
		for name := range f.Hats {
			if !layout.Has(signal.Directional, name) {
				errs = append(errs, fmt.Errorf("frame %d: %w: hat %s", i, signal.ErrUnknownSignal, name))
			}
		}
		for name := range f.Axes {
			if !layout.Has(signal.Analog, name) {
				errs = append(errs, fmt.Errorf("frame %d: %w: axis %s", i, signal.ErrUnknownSignal, name))
			}
		}
	}
	return errors.Join(errs...)
}

// positions resolves the pov shorthand and the named hats.
func (f Frame) positions() (map[string]signal.Position, error) {
	out := make(map[string]signal.Position, len(f.Hats)+1)
	if f.POV != "" {
		p, err := signal.ParsePosition(f.POV)
		if err != nil {
			return nil, err
		}
		out[signal.POV] = p
	}
	for name, pos := range f.Hats {
		p, err := signal.ParsePosition(pos)
		if err != nil {
			return nil, err
		}
		out[name] = p
	}
	return out, nil
}

// Source replays a script through a MemorySource.
type Source struct {
	mu     sync.Mutex
	script *Script
	mem    *signal.MemorySource
	frame  int
	left   int
	played int
}

// NewSource validates script against layout and returns a source
// positioned on the first frame.
func NewSource(script *Script, layout signal.Layout) (*Source, error) {
	if err := script.Validate(layout); err != nil {
		return nil, fmt.Errorf("replay: %s: %w", script.Name, err)
	}
	return &Source{
		script: script,
		mem:    signal.NewMemorySource(layout),
		left:   script.Frames[0].Cycles,
	}, nil
}

// Layout implements signal.Source.
func (s *Source) Layout() signal.Layout {
	return s.mem.Layout()
}

// Sample implements signal.Source.
func (s *Source) Sample(cycle uint64) (signal.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.left == 0 {
		s.frame++
		if s.frame == len(s.script.Frames) {
			if !s.script.Loop {
				s.frame--
				return signal.Snapshot{}, signal.ErrSourceClosed
			}
			s.frame = 0
		}
		s.left = s.script.Frames[s.frame].Cycles
	}

	s.apply(s.script.Frames[s.frame])
	s.left--
	s.played++
	return s.mem.Sample(cycle)
}

func (s *Source) apply(f Frame) {
	s.mem.Reset()
	for _, b := range f.Buttons {
		s.mem.Press(b)
	}
	positions, _ := f.positions()
	for name, p := range positions {
		s.mem.SetPOV(name, p)
	}
	for name, v := range f.Axes {
		s.mem.SetAxis(name, v)
	}
}

// Played returns how many cycles have been replayed.
func (s *Source) Played() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.played
}

// Done reports whether a non-looping script has played every frame.
func (s *Source) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.script.Loop && s.frame == len(s.script.Frames)-1 && s.left == 0
}
