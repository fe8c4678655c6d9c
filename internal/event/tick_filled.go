package event

import (
	"github.com/btc-vision/opnet-order-book-sub001/internal/model"
)

// TickFilledByteLength is the payload size of a TickFilled event.
const TickFilledByteLength = 4 * U256ByteLength

// NewTickFilled builds the event carrying a filled tick's detail, in the
// order tickId, amount, level, remainingLiquidity.
func NewTickFilled(detail model.TickFilledDetail) Event {
	w := NewWriter(TickFilledByteLength)
	w.WriteU256(detail.TickID())
	w.WriteU256(detail.Amount())
	w.WriteU256(detail.Level())
	w.WriteU256(detail.RemainingLiquidity())
	return Event{name: model.EventTickFilled, data: mustFinish(w)}
}

// DecodeTickFilled reads the payload of a TickFilled event.
func DecodeTickFilled(e Event) (model.TickFilledDetail, error) {
	if err := expect(e, model.EventTickFilled, TickFilledByteLength); err != nil {
		return model.TickFilledDetail{}, err
	}
	r := NewReader(e.data)
	tickID, err := r.ReadU256()
	if err != nil {
		return model.TickFilledDetail{}, err
	}
	amount, err := r.ReadU256()
	if err != nil {
		return model.TickFilledDetail{}, err
	}
	level, err := r.ReadU256()
	if err != nil {
		return model.TickFilledDetail{}, err
	}
	remaining, err := r.ReadU256()
	if err != nil {
		return model.TickFilledDetail{}, err
	}
	return model.NewTickFilledDetail(tickID, amount, level, remaining), nil
}
