// Package garage drives the garage door relay, wall button and position
// sensor as a single serialized state machine.
//
// # States
//
//	closed, open, opening, closing, unknown
//
// With a sensor, a trigger moves the door through opening/closing until
// sensor edges confirm the end position. Without one, the state flips
// optimistically after each pulse and survives restarts via a small JSON
// state file.
//
// # Safety
//
// One mutex serializes every hardware-affecting path: software triggers,
// button presses, sensor edges and auto-close expiry. The relay is
// released on every pulse exit path, faults leave the modelled state
// untouched, and triggers closer together than the minimum interval are
// rejected without touching hardware.
//
// # Auto-close
//
// When configured, a one-shot timer arms whenever the door is observed
// open. Expiry re-triggers through the normal path; a closing or closed
// observation, an explicit cancel, or controller shutdown disarms it.
package garage
