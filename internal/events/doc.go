// Package events implements the append-only access and garage event log.
//
// Three pieces cooperate:
//
//   - Repository persists events to SQLite, queryable with pagination
//     and category/kind/identity filters.
//   - Hub fans live events out to subscribers (the kiosk display, the
//     websocket stream) with non-blocking, drop-oldest delivery.
//   - Recorder is the single write path: callers enqueue, one worker
//     persists and fans out.
//
// Nothing in this package ever blocks a caller on I/O. The garage
// controller and access engine record events from timing-sensitive
// paths.
package events
