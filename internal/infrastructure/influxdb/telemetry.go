package influxdb

import "github.com/gatewise/gatewise-core/internal/events"

// Telemetry adapts the client to the event recorder's sink interface,
// turning the event stream into time-series points.
type Telemetry struct {
	client *Client
}

// NewTelemetry creates a telemetry sink over a connected client.
func NewTelemetry(client *Client) *Telemetry {
	return &Telemetry{client: client}
}

// Consume writes one event as a point. Unrecognized events are dropped;
// telemetry is derived data, not the system of record.
func (t *Telemetry) Consume(event events.Event) {
	switch {
	case event.Category == events.CategoryAccess && event.Kind == events.KindDecision:
		t.client.WriteAccessDecision(event.Identity, event.Allowed, event.Reason, event.CreatedAt)

	case event.Kind == events.KindStateChanged:
		if to, ok := event.Detail["to"].(string); ok {
			t.client.WriteGarageState(to, event.CreatedAt)
		}

	case event.Category == events.CategoryGarage:
		source, _ := event.Detail["source"].(string)
		t.client.WriteGarageEvent(string(event.Kind), source, event.CreatedAt)
	}
}
