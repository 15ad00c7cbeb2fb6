package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/teleop/internal/scheduler"
)

// Journal errors.
var (
	// ErrUnknownDriver indicates a store driver name that is not supported.
	ErrUnknownDriver = errors.New("journal: unknown driver")

	// ErrNotInitialized is returned by a store used before Init.
	ErrNotInitialized = errors.New("journal: store is not initialized")

	// ErrClosed is returned by a journal or store used after Close.
	ErrClosed = errors.New("journal: closed")
)

// Entry is one recorded lifecycle transition.
type Entry struct {
	ActivationID string
	Kind         string
	Command      string
	Resources    []string
	Cycle        uint64
	Default      bool
	Time         time.Time
}

// entryFromEvent converts a scheduler event.
func entryFromEvent(ev scheduler.Event) Entry {
	return Entry{
		ActivationID: ev.ActivationID.String(),
		Kind:         ev.Kind.String(),
		Command:      ev.Command,
		Resources:    append([]string(nil), ev.Resources...),
		Cycle:        ev.Cycle,
		Default:      ev.Default,
		Time:         ev.Time,
	}
}

// Store persists entries.
type Store interface {
	Init(ctx context.Context) error
	Append(ctx context.Context, entries ...Entry) error
	// Recent returns the last n entries, oldest first.
	Recent(ctx context.Context, n int) ([]Entry, error)
	// Activation returns every entry of one activation, oldest first.
	Activation(ctx context.Context, id string) ([]Entry, error)
	Close() error
}

// NewStore creates the store for driver: "memory" or "sqlite". path is the
// database file for sqlite.
func NewStore(driver, path string) (Store, error) {
	switch driver {
	case "memory":
		return NewMemoryStore(0), nil
	case "sqlite":
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
