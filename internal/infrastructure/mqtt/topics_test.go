package mqtt

import "testing"

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "door users", got: topics.DoorUsers(), want: "gatewise/door/users"},
		{name: "door status", got: topics.DoorStatus("front"), want: "gatewise/door/front/status"},
		{name: "all door statuses", got: topics.AllDoorStatuses(), want: "gatewise/door/+/status"},
		{name: "garage event", got: topics.GarageEvent("triggered"), want: "gatewise/garage/event/triggered"},
		{name: "garage state", got: topics.GarageState(), want: "gatewise/garage/state"},
		{name: "access decision", got: topics.AccessDecision(), want: "gatewise/access/decision"},
		{name: "system status", got: topics.SystemStatus(), want: "gatewise/system/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestPublish_Validation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	if err := c.Publish("", []byte("x"), 0, false); err != ErrInvalidTopic {
		t.Errorf("Publish(empty topic) error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("gatewise/garage/state", []byte("x"), 3, false); err != ErrInvalidQoS {
		t.Errorf("Publish(qos 3) error = %v, want ErrInvalidQoS", err)
	}
}

func TestSubscribe_Validation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	if err := c.Subscribe("", 0, func(string, []byte) error { return nil }); err != ErrInvalidTopic {
		t.Errorf("Subscribe(empty topic) error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Subscribe("gatewise/door/+/status", 3, func(string, []byte) error { return nil }); err != ErrInvalidQoS {
		t.Errorf("Subscribe(qos 3) error = %v, want ErrInvalidQoS", err)
	}
}
