// Package auto loads autonomous routines from YAML and turns them into
// sequence commands.
//
// A routine names registered commands and pauses:
//
//	name: drop-and-wait
//	steps:
//	  - command: Drop
//	    timeout: 2s
//	  - wait: 500ms
//	  - command: Drop
//
// Durations become loop cycles through the Library's CycleFunc. Build
// resolves command names against a command.Registry at build time, so a
// routine can refer to commands registered after it was loaded, scripted
// ones included.
//
// Watch keeps a Library in sync with a directory using fsnotify. Bursts of
// file events are debounced into a single reload.
package auto
