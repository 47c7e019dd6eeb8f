// Package mqtt provides the MQTT client used to sync state with remote
// door modules.
//
// This package wraps eclipse/paho.mqtt.golang with connection management,
// automatic reconnection, subscription restoration, and GateWise topic
// builders.
//
// # Topics
//
//	gatewise/door/users         retained user roster for door modules
//	gatewise/door/{id}/status   per-door status from modules
//	gatewise/garage/state       retained current door state
//	gatewise/garage/event/{k}   garage events by kind
//	gatewise/access/decision    access decisions
//	gatewise/system/status      core online/offline (LWT)
//
// # Reliability
//
// Door-module sync is best effort by design: publish failures are logged
// and never surfaced to the person standing at the door. The retained
// roster topic means a door module that reconnects catches up
// immediately without the core doing anything.
package mqtt
