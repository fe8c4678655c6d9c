// Package event builds and parses the order-book contract's named events.
//
// An Event is a name plus a fixed-layout payload of big-endian 256-bit
// words. Concrete events are produced by constructor functions
// (NewLiquidityRemovalBlocked, NewTickFilled) and read back with the
// matching Decode functions.
package event

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Event is a named event with a serialized payload.
type Event struct {
	name string
	data []byte
}

// New wraps a name and payload. The payload is copied.
func New(name string, data []byte) Event {
	buf := make([]byte, len(data))
	copy(buf, data)
	return Event{name: name, data: buf}
}

func (e Event) Name() string {
	return e.name
}

// Data returns a copy of the payload.
func (e Event) Data() []byte {
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out
}

func (e Event) Len() int {
	return len(e.data)
}

// Topic returns the keccak256 topic of the event signature, or the zero hash
// for names without a registered signature.
func (e Event) Topic() common.Hash {
	topic, _ := TopicFor(e.name)
	return topic
}

func (e Event) String() string {
	return fmt.Sprintf("%s(%d bytes)", e.name, len(e.data))
}

func expect(e Event, name string, size int) error {
	if e.name != name {
		return fmt.Errorf("%w: got %q, want %q", ErrUnexpectedEvent, e.name, name)
	}
	if len(e.data) != size {
		return fmt.Errorf("%w: %s payload is %d bytes, want %d", ErrPayloadLength, name, len(e.data), size)
	}
	return nil
}

// mustFinish is used by constructors whose buffer size matches their writes.
func mustFinish(w *Writer) []byte {
	data, err := w.Finish()
	if err != nil {
		panic(fmt.Sprintf("event: %v", err))
	}
	return data
}
