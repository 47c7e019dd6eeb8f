package mqtt

import "fmt"

// Topic prefixes for the GateWise MQTT namespace.
//
// Door modules are remote readers that keep a cached copy of the user
// roster so the door still opens when the core is unreachable.
const (
	// TopicPrefix is the base for all GateWise topics.
	TopicPrefix = "gatewise"

	// TopicPrefixDoor is the base for door-module topics.
	TopicPrefixDoor = "gatewise/door"

	// TopicPrefixGarage is the base for garage topics.
	TopicPrefixGarage = "gatewise/garage"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "gatewise/system"
)

// Topics provides builders for GateWise MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
type Topics struct{}

// DoorUsers returns the retained roster topic consumed by door modules.
//
// Example: gatewise/door/users
func (Topics) DoorUsers() string {
	return TopicPrefixDoor + "/users"
}

// DoorStatus returns the status topic published by one door module.
//
// Example: gatewise/door/front/status
func (Topics) DoorStatus(doorID string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixDoor, doorID)
}

// AllDoorStatuses returns the wildcard pattern matching every door
// module's status topic.
//
// Example: gatewise/door/+/status
func (Topics) AllDoorStatuses() string {
	return TopicPrefixDoor + "/+/status"
}

// GarageEvent returns the topic for one kind of garage event.
//
// Example: gatewise/garage/event/triggered
func (Topics) GarageEvent(kind string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixGarage, kind)
}

// GarageState returns the retained topic carrying the current door state.
//
// Example: gatewise/garage/state
func (Topics) GarageState() string {
	return TopicPrefixGarage + "/state"
}

// AccessDecision returns the topic for access decision events.
//
// Example: gatewise/access/decision
func (Topics) AccessDecision() string {
	return TopicPrefix + "/access/decision"
}

// SystemStatus returns the online/offline status topic.
//
// Example: gatewise/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
