package notify

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gatewise/gatewise-core/internal/access"
	"github.com/gatewise/gatewise-core/internal/events"
	"github.com/gatewise/gatewise-core/internal/infrastructure/mqtt"
)

// Notifier propagates state to remote door modules.
//
// Every method is best effort: failures are logged, never returned, never
// retried synchronously. A dead broker must not make an admin save or a
// garage trigger feel broken.
type Notifier interface {
	// SyncUsers pushes the full user roster after a registry mutation.
	SyncUsers(users []access.User)

	// Consume forwards one event; implements events.Sink.
	Consume(event events.Event)
}

// Logger defines the logging interface for notifiers.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Nop is the notifier used when MQTT sync is disabled.
type Nop struct{}

// SyncUsers does nothing.
func (Nop) SyncUsers([]access.User) {}

// Consume does nothing.
func (Nop) Consume(events.Event) {}

// DoorStatus is the last reported status of one remote door module.
type DoorStatus struct {
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// broker is the subset of the MQTT client the notifier uses.
type broker interface {
	PublishRetained(topic string, payload []byte) error
	PublishEvent(topic string, payload []byte) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// MQTTNotifier syncs the user roster and event stream over MQTT.
//
// The roster goes to a retained topic so a door module that reconnects
// catches up without the core doing anything. Inbound door statuses are
// tracked for the health endpoint.
type MQTTNotifier struct {
	client broker
	topics mqtt.Topics
	logger Logger

	mu    sync.RWMutex
	doors map[string]DoorStatus
}

// NewMQTTNotifier creates a notifier over an already connected client.
func NewMQTTNotifier(client *mqtt.Client) *MQTTNotifier {
	return &MQTTNotifier{
		client: client,
		logger: noopLogger{},
		doors:  make(map[string]DoorStatus),
	}
}

// SetLogger sets the logger for the notifier.
func (n *MQTTNotifier) SetLogger(logger Logger) {
	n.logger = logger
}

// Start subscribes to door-module status topics.
func (n *MQTTNotifier) Start() error {
	return n.client.Subscribe(n.topics.AllDoorStatuses(), 1, n.handleDoorStatus)
}

// SyncUsers publishes the full roster to the retained users topic.
func (n *MQTTNotifier) SyncUsers(users []access.User) {
	payload, err := json.Marshal(users)
	if err != nil {
		n.logger.Error("encoding user roster failed", "error", err)
		return
	}

	// Fire and forget: the admin who just saved a user is not waiting
	// on a broker round trip.
	go func() {
		if err := n.client.PublishRetained(n.topics.DoorUsers(), payload); err != nil {
			n.logger.Warn("user roster sync failed", "users", len(users), "error", err)
			return
		}
		n.logger.Debug("user roster synced", "users", len(users))
	}()
}

// Consume forwards one event to the door modules. Garage state changes
// additionally refresh the retained state topic.
func (n *MQTTNotifier) Consume(event events.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("encoding event failed", "id", event.ID, "error", err)
		return
	}

	var topic string
	switch event.Category {
	case events.CategoryGarage:
		topic = n.topics.GarageEvent(string(event.Kind))
	case events.CategoryAccess:
		topic = n.topics.AccessDecision()
	default:
		return
	}

	if err := n.client.PublishEvent(topic, payload); err != nil {
		n.logger.Warn("event publish failed", "topic", topic, "error", err)
	}

	if event.Kind == events.KindStateChanged {
		if to, ok := event.Detail["to"].(string); ok {
			if err := n.client.PublishRetained(n.topics.GarageState(), []byte(`{"state":"`+to+`"}`)); err != nil {
				n.logger.Warn("garage state publish failed", "error", err)
			}
		}
	}
}

// handleDoorStatus records an inbound door-module status message.
func (n *MQTTNotifier) handleDoorStatus(topic string, payload []byte) error {
	doorID := doorIDFromTopic(topic)
	if doorID == "" {
		return nil
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		n.logger.Warn("malformed door status", "topic", topic, "error", err)
		return nil
	}

	n.mu.Lock()
	n.doors[doorID] = DoorStatus{Status: body.Status, UpdatedAt: time.Now().UTC()}
	n.mu.Unlock()

	n.logger.Debug("door status updated", "door", doorID, "status", body.Status)
	return nil
}

// doorIDFromTopic extracts the door ID from a status topic of the form
// gatewise/door/{id}/status. Returns "" when the topic does not match.
func doorIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != "gatewise" || parts[1] != "door" || parts[3] != "status" {
		return ""
	}
	return parts[2]
}

// DoorStatuses returns the last reported status of every known door.
func (n *MQTTNotifier) DoorStatuses() map[string]DoorStatus {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make(map[string]DoorStatus, len(n.doors))
	for id, status := range n.doors {
		out[id] = status
	}
	return out
}
