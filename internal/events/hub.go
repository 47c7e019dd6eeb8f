package events

import "sync"

// subscriptionBuffer is the per-subscriber channel capacity.
const subscriptionBuffer = 32

// Hub fans events out to live subscribers.
//
// Publish never blocks: when a subscriber's buffer is full, its oldest
// pending event is dropped to make room. A stalled display must never
// hold up relay timing.
type Hub struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// Subscription is one subscriber's view of the event stream.
type Subscription struct {
	hub *Hub
	ch  chan Event

	closeOnce sync.Once
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a new subscriber.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		hub: h,
		ch:  make(chan Event, subscriptionBuffer),
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

// Publish delivers event to every subscriber without blocking.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		select {
		case sub.ch <- event:
			continue
		default:
		}
		// Buffer full: drop the oldest pending event and retry once.
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// Close shuts the hub down, closing every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		delete(h.subs, sub)
		sub.closeOnce.Do(func() { close(sub.ch) })
	}
}

// Events returns the subscriber's event channel. It is closed when the
// subscription or the hub is closed.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close removes the subscription from the hub.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()

	if _, ok := s.hub.subs[s]; ok {
		delete(s.hub.subs, s)
		s.closeOnce.Do(func() { close(s.ch) })
	}
}
