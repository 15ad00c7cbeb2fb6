// Package gamepad reads a game controller through the Linux evdev
// interface and presents it as a signal source.
//
// A background goroutine reads input events from the device node and keeps
// the latest button, stick, trigger and hat values. Sample copies that state
// into a snapshot, so a cycle always sees one consistent set of values no
// matter how many events arrived since the last one.
//
// Codes follow the kernel's gamepad conventions (BTN_A, ABS_X, ABS_HAT0X
// and so on), which Xbox-style controllers report under the xpad and
// hid-generic drivers. Sticks are scaled by Config.StickMax and triggers by
// Config.TriggerMax.
//
// On other platforms Open returns ErrUnsupported.
package gamepad
