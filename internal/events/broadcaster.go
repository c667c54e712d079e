// Package events implements the host's fan-out event broadcaster: an
// unbounded set of subscriber channels fed from a single producer side,
// plus a bounded replay ring so newly attached subscribers (dashboards,
// CLI tails) can catch up on recent history.
package events

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// replayCapacity is the number of most recent events retained for replay.
const replayCapacity = 200

// subscriberBuffer is the per-subscriber channel buffer size. A full
// buffer causes the event to be dropped for that subscriber only.
const subscriberBuffer = 64

// Event is the shape broadcast to every subscriber.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Broadcaster fans out events to subscriber channels with best-effort,
// non-blocking delivery, and keeps a ring of the most recent events
// for replay.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[string]chan Event
	ring        []Event
	ringStart   int // index of the oldest element in ring, once full
}

// New returns an empty Broadcaster.
func New() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]chan Event),
	}
}

// Subscribe registers a new subscriber and returns its id and receive
// channel. The broadcaster does not auto-replay; callers wanting
// history should also call RecentEvents.
func (b *Broadcaster) Subscribe() (string, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)
	b.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Safe to
// call more than once for the same id.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subscribers[id]
	if !ok {
		return
	}
	delete(b.subscribers, id)
	close(ch)
}

// Broadcast appends e to the replay ring and attempts a non-blocking
// send to every subscriber. A subscriber whose buffer is full has the
// event dropped for it alone; it is not evicted. Subscriber channels
// are only ever closed by Unsubscribe, which holds the same lock, so
// a subscriber present in the map always has an open channel.
func (b *Broadcaster) Broadcast(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.appendRing(e)

	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			// buffer full: drop the event for this subscriber only
		}
	}
}

func (b *Broadcaster) appendRing(e Event) {
	if len(b.ring) < replayCapacity {
		b.ring = append(b.ring, e)
		return
	}
	b.ring[b.ringStart] = e
	b.ringStart = (b.ringStart + 1) % replayCapacity
}

// RecentEvents returns up to the last 200 broadcast events, oldest
// first. Callers (typically the dispatcher, on a subscriber's behalf)
// are responsible for delivering this history; Subscribe never does
// so automatically.
func (b *Broadcaster) RecentEvents() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.ring) < replayCapacity {
		out := make([]Event, len(b.ring))
		copy(out, b.ring)
		return out
	}

	out := make([]Event, replayCapacity)
	copy(out, b.ring[b.ringStart:])
	copy(out[replayCapacity-b.ringStart:], b.ring[:b.ringStart])
	return out
}

// SubscriberCount returns the number of currently active subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
