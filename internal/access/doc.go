// Package access implements the user registry, blackout schedule and
// access decision engine.
//
// # Data
//
// Users and the schedule live in JSON documents on disk, written with an
// atomic replace so a crash mid-save never corrupts the store. A corrupt
// document on load degrades to an empty dataset with a warning rather
// than refusing to start: a kiosk by the door must come up even if its SD
// card ate a file.
//
// # Decisions
//
// Engine.Decide resolves a scanned identity to a verdict:
//
//	unknown identity        -> Denied(unknown_user)
//	admin user              -> Allowed(admin)
//	inside blackout window  -> Denied(blackout)
//	otherwise               -> Allowed(permitted)
//
// Blackout windows are half-open [start, end) per weekday. Admin users
// bypass them entirely.
//
// Every decision, allowed or denied, is handed to the configured
// DecisionRecorder exactly once.
package access
