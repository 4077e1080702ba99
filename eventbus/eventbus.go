/*
Package eventbus delivers the batch notifications of the importer to in
process subscribers.

Two events exist: BatchSaveEvent, published right before a batch is written,
and BatchCleanupEvent, published after the in memory state of a batch has been
cleared, whether the write succeeded or not.  Neither carries batch data.
*/
package eventbus

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrShuttingDown is returned when publishing on a closed bus
var ErrShuttingDown = errors.New("event bus is shutting down")

// Event is a notification published on the bus
type Event interface {
	// EventSource is the pipeline that published the event
	EventSource() interface{}
}

// BatchSaveEvent is published before a batch is persisted
type BatchSaveEvent struct {
	Source  interface{}
	BatchID uuid.UUID
}

// EventSource implements Event
func (e BatchSaveEvent) EventSource() interface{} { return e.Source }

// BatchCleanupEvent is published after the in memory state of a batch has
// been cleared
type BatchCleanupEvent struct {
	Source  interface{}
	BatchID uuid.UUID
}

// EventSource implements Event
func (e BatchCleanupEvent) EventSource() interface{} { return e.Source }

// Publisher publishes events.  Publishing is fire and forget.
type Publisher interface {
	Publish(event Event) error
}

// Subscriber handles an event.  Subscribers run synchronously in the
// publishing goroutine and must not publish on the same bus.
type Subscriber func(event Event)

// Bus is a synchronous Publisher
type Bus struct {
	rw          sync.RWMutex
	subscribers []Subscriber
	closed      bool
}

// NewBus creates an open Bus
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe adds a subscriber to every future event
func (b *Bus) Subscribe(s Subscriber) {
	b.rw.Lock()
	defer b.rw.Unlock()
	b.subscribers = append(b.subscribers, s)
}

// Publish delivers event to every subscriber
func (b *Bus) Publish(event Event) error {
	b.rw.RLock()
	defer b.rw.RUnlock()
	if b.closed {
		return ErrShuttingDown
	}
	for _, s := range b.subscribers {
		s(event)
	}
	return nil
}

// Close the bus.  Later calls to Publish return ErrShuttingDown.
func (b *Bus) Close() {
	b.rw.Lock()
	defer b.rw.Unlock()
	b.closed = true
}
