// Package signal samples operator inputs and classifies their edges.
//
// A Source is polled once per control cycle and returns a Snapshot: one
// consistent sample of every button, hat and axis it declares in its Layout.
// Nothing reads the device between samples, so every consumer in a cycle sees
// the same values.
//
// Edges are derived from two consecutive snapshots:
//
//	previous  current  EdgeState
//	false     false    SteadyLow
//	false     true     Rising
//	true      true     SteadyHigh
//	true      false    Falling
//
// There is no debouncing; the cycle period is short and fixed, so a single
// lookback is enough.
//
// A Trigger is the boolean projection a binding watches. Buttons project
// directly, hats project "current position == target", and axes project a
// threshold comparison. All three feed the same Classify function.
package signal
