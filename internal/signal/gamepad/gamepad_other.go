//go:build !linux

package gamepad

import (
	"github.com/dshills/teleop/internal/logging"
	"github.com/dshills/teleop/internal/signal"
)

// Source is unavailable on this platform.
type Source struct{}

// Open always fails off linux.
func Open(cfg Config, log *logging.Logger) (*Source, error) {
	return nil, ErrUnsupported
}

// Layout implements signal.Source.
func (s *Source) Layout() signal.Layout { return signal.XboxLayout() }

// Sample implements signal.Source.
func (s *Source) Sample(cycle uint64) (signal.Snapshot, error) {
	return signal.Snapshot{}, signal.ErrSourceClosed
}

// Close implements io.Closer.
func (s *Source) Close() error { return nil }
