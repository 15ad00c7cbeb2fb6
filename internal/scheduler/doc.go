// Package scheduler arbitrates subsystem ownership and drives the control cycle.
//
// # Resource ownership
//
// A Scheduler keeps a table from resource to the single command occupying it.
// Scheduling a command claims its requirements in declaration order. If a
// different command holds one of them, that command is ended with
// End(true) and gives up every resource it held before the newcomer's Start
// runs, so two commands never write the same subsystem in the same cycle.
//
// Each resource may have a default command. Whenever a resource becomes free
// (its owner finished, was cancelled, or was preempted by a command that did
// not need that resource) the default is started on the spot, before any
// Execute call of the cycle that follows. A resource without a default may
// stay free; that is an idle subsystem, not an error.
//
// # The cycle
//
// Dispatcher.Tick runs one cycle in a fixed order:
//
//  1. Sample every signal from the source.
//  2. Evaluate all bindings against the previous and current sample.
//  3. Apply the resulting requests in binding declaration order, then arm the
//     defaults of free resources.
//  4. Execute every active command once.
//  5. End commands that report finished and re-arm defaults.
//  6. Remember the sample for the next cycle's edge detection.
//
// Everything runs on one goroutine and nothing blocks. Lifecycle failures are
// returned as *ActionError and end the cycle; the scheduler does not retry.
package scheduler
