package tick

import (
	"sync"

	"github.com/btc-vision/opnet-order-book-sub001/internal/event"
)

// Emitter receives events produced by the book.
type Emitter interface {
	Emit(e event.Event)
}

// MemoryEmitter keeps emitted events in order.
type MemoryEmitter struct {
	mu     sync.Mutex
	events []event.Event
}

func NewMemoryEmitter() *MemoryEmitter {
	return &MemoryEmitter{}
}

func (m *MemoryEmitter) Emit(e event.Event) {
	m.mu.Lock()
	m.events = append(m.events, e)
	m.mu.Unlock()
}

// Events returns a copy of the emitted events.
func (m *MemoryEmitter) Events() []event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.Event, len(m.events))
	copy(out, m.events)
	return out
}

// Drain returns the emitted events and clears the buffer.
func (m *MemoryEmitter) Drain() []event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.events
	m.events = nil
	return out
}
