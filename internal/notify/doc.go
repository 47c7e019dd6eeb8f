// Package notify propagates roster and event updates to remote door
// modules over MQTT.
//
// Door modules cache the user roster locally so a door still opens when
// the core is down. The notifier keeps that cache fresh by publishing
// the full roster to a retained topic after every registry mutation, and
// forwards garage and access events for modules that display them.
//
// All delivery is best effort: publish failures are logged and never
// surfaced to callers. Nop stands in when MQTT sync is disabled.
package notify
