// Package notify carries payload-free "the room directory changed" signals
// between execution contexts.
package notify

import (
	"context"
	"sync"
)

// Event tells a subscriber that the directory changed and should be re-read.
// It carries no description of what changed.
type Event struct {
	ID string `json:"id"` // ULID
	At int64  `json:"at"` // Unix ms
}

// Notifier publishes change events and hands them to subscribers.
type Notifier interface {
	Publish(ctx context.Context, evt Event) error
	// Subscribe returns a channel of events and a function that cancels the
	// subscription and closes the channel.
	Subscribe() (<-chan Event, func())
}

// subscriberBuffer is the per-subscriber queue length. Events that do not fit
// are dropped; a subscriber that misses one still catches up on its next poll.
const subscriberBuffer = 16

// Local is an in-process observer list.
type Local struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

// NewLocal creates an empty observer list.
func NewLocal() *Local {
	return &Local{subs: make(map[int]chan Event)}
}

// Publish delivers evt to every current subscriber without blocking.
func (l *Local) Publish(ctx context.Context, evt Event) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, ch := range l.subs {
		select {
		case ch <- evt:
		default:
			// slow subscriber; drop
		}
	}
	return nil
}

// Subscribe registers a new subscriber.
func (l *Local) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	l.mu.Lock()
	id := l.next
	l.next++
	l.subs[id] = ch
	l.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of active subscriptions.
func (l *Local) Subscribers() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subs)
}
