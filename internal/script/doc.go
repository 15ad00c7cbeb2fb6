// Package script loads commands written in Lua.
//
// Each script runs in its own gopher-lua state with only the base, table,
// string and math libraries; file loading and require are removed. Scripts
// reach the robot through a small host API:
//
//	set_speed(subsystem, v)
//	lock(subsystem)
//	set_angle(subsystem, degrees)
//	set_limit(subsystem, v)
//	zero(subsystem)
//	log(...)
//
// Subsystems are named ("elevator", "shooter", "drive", "servo") and looked
// up through a Host. A call the subsystem cannot perform raises a Lua error,
// which surfaces as the command's Start, Execute or End error.
//
// Loaded commands go into the command registry under their declared name,
// where autonomous routines can refer to them.
package script
