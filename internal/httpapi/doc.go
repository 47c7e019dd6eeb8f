// Package httpapi provides the HTTP REST API and WebSocket server for
// GateWise.
//
// It exposes access decisions, garage control, roster and schedule
// administration, and the event log to presentation clients (wall
// panels, admin UIs).
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := httpapi.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Admin mutations (users, schedule) require the shared secret in the
// X-Admin-Secret header; failures are uniform 401s. The WebSocket
// endpoint streams live events bridged from the event hub.
package httpapi
