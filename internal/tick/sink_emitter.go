package tick

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/btc-vision/opnet-order-book-sub001/internal/event"
	"github.com/btc-vision/opnet-order-book-sub001/internal/model"
	"github.com/btc-vision/opnet-order-book-sub001/internal/storage"
)

// Source labels the typed events a SinkEmitter publishes.
type Source struct {
	ChainID  uint64
	Contract string
}

// SinkEmitter forwards book events to a storage.EventSink as typed events.
// Emit cannot fail, so the first publish error is kept and reported by Err;
// later events are dropped once an error is set.
type SinkEmitter struct {
	ctx    context.Context
	sink   storage.EventSink
	source Source
	now    func() time.Time

	mu       sync.Mutex
	sequence uint64
	err      error
}

func NewSinkEmitter(ctx context.Context, sink storage.EventSink, source Source) *SinkEmitter {
	if source.Contract != "" && common.IsHexAddress(source.Contract) {
		source.Contract = common.HexToAddress(source.Contract).Hex()
	}
	return &SinkEmitter{ctx: ctx, sink: sink, source: source, now: time.Now}
}

func (s *SinkEmitter) Emit(e event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}

	decoded, err := event.Decode(e)
	if err != nil {
		s.err = fmt.Errorf("decode %s: %w", e.Name(), err)
		return
	}

	ev := model.TypedEvent{
		ChainID:   s.source.ChainID,
		LogIndex:  s.sequence,
		Address:   s.source.Contract,
		EventName: e.Name(),
		Timestamp: uint64(s.now().Unix()),
		Decoded:   decoded,
		Raw: &model.RawLogRef{
			Topic0: strings.ToLower(e.Topic().Hex()),
			Data:   hexutil.Encode(e.Data()),
		},
	}
	if err := s.sink.PutEvents(s.ctx, []model.TypedEvent{ev}); err != nil {
		s.err = fmt.Errorf("publish %s: %w", e.Name(), err)
		return
	}
	s.sequence++
}

// Err returns the first decode or publish error.
func (s *SinkEmitter) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Emitted returns the number of events published.
func (s *SinkEmitter) Emitted() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sequence
}
