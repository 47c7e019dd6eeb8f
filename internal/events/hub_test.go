package events

import (
	"testing"
	"time"
)

func TestHub_PublishDeliversToSubscribers(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe()
	defer sub.Close()

	hub.Publish(NewGarageEvent(KindTriggered, nil))

	select {
	case event := <-sub.Events():
		if event.Kind != KindTriggered {
			t.Errorf("Kind = %q, want triggered", event.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestHub_SlowSubscriberDropsOldest(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe()
	defer sub.Close()

	// Overfill the buffer without a consumer.
	total := subscriptionBuffer + 5
	for i := 0; i < total; i++ {
		hub.Publish(Event{ID: string(rune('a' + i)), Category: CategoryGarage, Kind: KindTriggered})
	}

	// The first events published must have been dropped; the last one
	// survives.
	var received []Event
	for {
		select {
		case e := <-sub.Events():
			received = append(received, e)
			continue
		default:
		}
		break
	}

	if len(received) != subscriptionBuffer {
		t.Fatalf("received %d events, want buffer size %d", len(received), subscriptionBuffer)
	}
	last := received[len(received)-1]
	if last.ID != string(rune('a'+total-1)) {
		t.Errorf("last event ID = %q, want newest event retained", last.ID)
	}
}

func TestHub_CloseClosesSubscriptions(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe()

	hub.Close()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("expected closed channel after hub Close")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe()

	sub.Close()
	sub.Close()

	// Publishing after the only subscriber left must not panic.
	hub.Publish(NewGarageEvent(KindTriggered, nil))
}
