// Package notify fans committed ledger events out to external observers.
// Delivery is best-effort: a subscriber that stops draining its channel
// loses events rather than blocking settlement.
package notify

import (
	"sync"

	"github.com/mtlprog/taskescrow/internal/domain"
	"github.com/oklog/ulid/v2"
)

// Bus is an in-process publish/subscribe hub for ledger events.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan *domain.TaskEvent
}

// New creates a new Bus.
func New() *Bus {
	return &Bus{
		subscribers: make(map[string]chan *domain.TaskEvent),
	}
}

// Subscribe registers a new observer and returns its id and event channel.
func (b *Bus) Subscribe(bufSize int) (string, <-chan *domain.TaskEvent) {
	id := ulid.Make().String()
	ch := make(chan *domain.TaskEvent, bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

// Unsubscribe removes an observer and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

// Publish delivers events to every subscriber in order.
func (b *Bus) Publish(events ...*domain.TaskEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, event := range events {
		for _, ch := range b.subscribers {
			select {
			case ch <- event:
			default:
				// buffer full, drop event for this subscriber
			}
		}
	}
}
