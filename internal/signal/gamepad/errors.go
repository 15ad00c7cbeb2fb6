package gamepad

import "errors"

// Gamepad errors.
var (
	// ErrUnsupported is returned by Open where evdev is unavailable.
	ErrUnsupported = errors.New("gamepad: evdev is only available on linux")

	// ErrNoDevice indicates a missing device path.
	ErrNoDevice = errors.New("gamepad: no device configured")
)
