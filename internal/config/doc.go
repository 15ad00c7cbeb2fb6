// Package config loads the controller configuration.
//
// Settings are layered, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment (TELEOP_*)  │  ← Highest priority
//	├─────────────────────────────┤
//	│  2. teleop.toml             │
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Command-line flags are applied by the app package on top of the result.
//
// # Basic Usage
//
//	cfg, err := config.Load("teleop.toml")
//	if err != nil {
//	    return err
//	}
//	period := cfg.Loop.Period.Std()
//
// A minimal file:
//
//	[loop]
//	period = "20ms"
//
//	[robot]
//	motor_speed = 0.5
//	elevator_levels = [0, 50, 100]
//
//	[robot.bindings]
//	elevator_up = "pov:up"
//
// Unknown keys in the file are rejected with a *loader.ParseError carrying
// the line and column. Validation problems are returned together, each as a
// *ValidationError.
package config
