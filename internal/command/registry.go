package command

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps symbolic names to commands so that externally defined
// routines can refer to in-process commands ("Drop" -> fire the shooter once).
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds cmd under name. Registering a taken name is an error.
func (r *Registry) Register(name string, cmd Command) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidCommand)
	}
	if cmd == nil {
		return fmt.Errorf("%w: %s: nil command", ErrInvalidCommand, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	r.commands[name] = cmd
	return nil
}

// Replace adds or overwrites cmd under name. Reloaders use it.
func (r *Registry) Replace(name string, cmd Command) error {
	if name == "" || cmd == nil {
		return fmt.Errorf("%w: replace needs a name and a command", ErrInvalidCommand)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[name] = cmd
	return nil
}

// Unregister removes name. It returns false if the name was not registered.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.commands[name]; !ok {
		return false
	}
	delete(r.commands, name)
	return true
}

// Get returns the command registered under name.
func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmd, ok := r.commands[name]
	return cmd, ok
}

// Lookup is Get with an error for unknown names.
func (r *Registry) Lookup(name string) (Command, error) {
	cmd, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownName, name)
	}
	return cmd, nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}
