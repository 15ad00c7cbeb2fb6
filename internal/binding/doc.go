// Package binding turns trigger edges into command scheduling requests.
//
// A Binding watches one signal.Trigger and, every cycle, classifies it against
// the previous cycle. The policy decides what the edge means:
//
//	OneShot          rising: schedule onTrue    falling: schedule onFalse
//	RepeatWhileHeld  high:   schedule onTrue    falling: cancel onTrue, schedule onFalse
//	WhileHeld        rising: schedule onTrue    falling: cancel onTrue, schedule onFalse
//
// Evaluation only produces Requests; the scheduler applies them. Bindings in a
// Set are evaluated in declaration order and the scheduler applies requests in
// the same order, so the later-declared binding wins a contested resource.
//
// Toggle and CycleLevels are one-shot bindings that own a piece of state, a
// ToggleState latch or a LevelSelector. The state changes only in the owning
// binding's rising-edge handler, before its command is requested, and the
// command receives the new value.
package binding
