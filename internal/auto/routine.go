package auto

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/teleop/internal/command"
)

// Routine is a named list of steps run one after another.
type Routine struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`

	// Path is the file the routine was loaded from, if any.
	Path string `yaml:"-"`
}

// Step either runs a registered command or waits.
type Step struct {
	// Command names a registry entry.
	Command string `yaml:"command"`
	// Timeout ends the command early. Zero lets it run to completion.
	Timeout time.Duration `yaml:"timeout"`
	// Wait pauses the routine.
	Wait time.Duration `yaml:"wait"`
}

func (s Step) validate() error {
	switch {
	case s.Command != "" && s.Wait != 0:
		return errors.New("step has both command and wait")
	case s.Command == "" && s.Wait == 0:
		return errors.New("step needs a command or a wait")
	case s.Timeout < 0 || s.Wait < 0:
		return errors.New("durations must not be negative")
	case s.Command == "" && s.Timeout != 0:
		return errors.New("timeout applies to command steps only")
	}
	return nil
}

// Parse decodes a routine. Unknown keys are errors.
func Parse(data []byte) (*Routine, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var r Routine
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoutine, err)
	}
	if len(r.Steps) == 0 {
		return nil, fmt.Errorf("%w: %s: no steps", ErrInvalidRoutine, r.Name)
	}
	for i, s := range r.Steps {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: step %d: %v", ErrInvalidRoutine, r.Name, i, err)
		}
	}
	return &r, nil
}

// LoadFile reads the routine at path. A routine without a name takes the
// file name without its extension.
func LoadFile(path string) (*Routine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if r.Name == "" {
		r.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	r.Path = path
	return r, nil
}

// LoadDir reads every .yaml and .yml file in dir, in name order. Files that
// fail to load are reported together; the rest are still returned.
func LoadDir(dir string) ([]*Routine, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var (
		routines []*Routine
		errs     []error
		seen     = make(map[string]string)
	)
	for _, e := range entries {
		if e.IsDir() || !isRoutineFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		r, err := LoadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if prev, dup := seen[r.Name]; dup {
			errs = append(errs, fmt.Errorf("%w: %s: name %q already used by %s", ErrInvalidRoutine, path, r.Name, prev))
			continue
		}
		seen[r.Name] = path
		routines = append(routines, r)
	}
	return routines, errors.Join(errs...)
}

func isRoutineFile(name string) bool {
	ext := filepath.Ext(name)
	return (ext == ".yaml" || ext == ".yml") && !strings.HasPrefix(name, ".")
}

// CycleFunc converts a wall-clock duration to loop cycles.
type CycleFunc func(time.Duration) int

// Library holds routines by name. It is safe for concurrent use so a
// watcher can reload it while the application reads it.
type Library struct {
	mu       sync.RWMutex
	routines map[string]*Routine
	cycles   CycleFunc
}

// NewLibrary creates an empty library converting step durations with cycles.
func NewLibrary(cycles CycleFunc) *Library {
	return &Library{
		routines: make(map[string]*Routine),
		cycles:   cycles,
	}
}

// Add stores r, replacing any routine of the same name.
func (l *Library) Add(r *Routine) error {
	if r == nil || r.Name == "" {
		return fmt.Errorf("%w: routine needs a name", ErrInvalidRoutine)
	}
	l.mu.Lock()
	l.routines[r.Name] = r
	l.mu.Unlock()
	return nil
}

// Load replaces the library contents with the routines in dir. If any file
// fails to load the library keeps its previous contents and the error is
// returned, so a half-written file never drops a routine in use.
func (l *Library) Load(dir string) error {
	routines, err := LoadDir(dir)
	if err != nil {
		return err
	}

	next := make(map[string]*Routine, len(routines))
	for _, r := range routines {
		next[r.Name] = r
	}
	l.mu.Lock()
	l.routines = next
	l.mu.Unlock()
	return nil
}

// Get returns the routine called name.
func (l *Library) Get(name string) (*Routine, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.routines[name]
	return r, ok
}

// Names returns the loaded routine names in sorted order.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.routines))
	for name := range l.routines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of loaded routines.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.routines)
}

// Build turns the routine called name into a sequence command whose steps
// resolve against registry. The sequence is named "auto:<name>".
func (l *Library) Build(name string, registry *command.Registry) (command.Command, error) {
	r, ok := l.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoutine, name)
	}

	children := make([]command.Command, 0, len(r.Steps))
	for i, s := range r.Steps {
		child, err := l.step(r.Name, i, s, registry)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return command.NewSequence("auto:"+r.Name, children...)
}

func (l *Library) step(routine string, i int, s Step, registry *command.Registry) (command.Command, error) {
	if s.Wait > 0 {
		return command.NewWait(fmt.Sprintf("%s/wait%d", routine, i), l.toCycles(s.Wait))
	}

	cmd, ok := registry.Get(s.Command)
	if !ok {
		return nil, fmt.Errorf("%w: %s: step %d: %s", ErrUnknownCommand, routine, i, s.Command)
	}
	if s.Timeout > 0 {
		return command.WithTimeout(cmd, l.toCycles(s.Timeout))
	}
	return cmd, nil
}

func (l *Library) toCycles(d time.Duration) int {
	if l.cycles == nil {
		return 1
	}
	if n := l.cycles(d); n > 0 {
		return n
	}
	return 1
}

// Check builds every routine against registry and reports the failures.
func (l *Library) Check(registry *command.Registry) error {
	var errs []error
	for _, name := range l.Names() {
		if _, err := l.Build(name, registry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
