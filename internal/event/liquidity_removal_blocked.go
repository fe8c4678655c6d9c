package event

import (
	"github.com/holiman/uint256"

	"github.com/btc-vision/opnet-order-book-sub001/internal/model"
)

// LiquidityRemovalBlockedByteLength is the payload size: tickId then reservedCount.
const LiquidityRemovalBlockedByteLength = 2 * U256ByteLength

// LiquidityRemovalBlocked is the decoded LiquidityRemovalBlocked payload.
type LiquidityRemovalBlocked struct {
	TickID        *uint256.Int
	ReservedCount *uint256.Int
}

// NewLiquidityRemovalBlocked builds the event emitted when liquidity cannot be
// removed from a tick with open reservations. Nil values encode as zero.
func NewLiquidityRemovalBlocked(tickID, reservedCount *uint256.Int) Event {
	w := NewWriter(LiquidityRemovalBlockedByteLength)
	w.WriteU256(tickID)
	w.WriteU256(reservedCount)
	return Event{name: model.EventLiquidityRemovalBlocked, data: mustFinish(w)}
}

// DecodeLiquidityRemovalBlocked reads the payload of a LiquidityRemovalBlocked event.
func DecodeLiquidityRemovalBlocked(e Event) (LiquidityRemovalBlocked, error) {
	if err := expect(e, model.EventLiquidityRemovalBlocked, LiquidityRemovalBlockedByteLength); err != nil {
		return LiquidityRemovalBlocked{}, err
	}
	r := NewReader(e.data)
	tickID, err := r.ReadU256()
	if err != nil {
		return LiquidityRemovalBlocked{}, err
	}
	reservedCount, err := r.ReadU256()
	if err != nil {
		return LiquidityRemovalBlocked{}, err
	}
	return LiquidityRemovalBlocked{TickID: tickID, ReservedCount: reservedCount}, nil
}

// Data converts the payload into its JSON form.
func (p LiquidityRemovalBlocked) Data() model.LiquidityRemovalBlockedData {
	return model.LiquidityRemovalBlockedData{
		TickID:        model.FormatU256(p.TickID),
		ReservedCount: model.FormatU256(p.ReservedCount),
	}
}
