package model

import "fmt"

// Event names emitted by the order-book contract.
const (
	EventLiquidityRemovalBlocked = "LiquidityRemovalBlocked"
	EventTickFilled              = "TickFilled"
)

// LiquidityRemovalBlockedData is the decoded LiquidityRemovalBlocked payload.
// 256-bit values are kept as decimal strings.
type LiquidityRemovalBlockedData struct {
	TickID        string `json:"tick_id"`
	ReservedCount string `json:"reserved_count"`
}

// TickFilledData is the decoded TickFilled payload.
type TickFilledData struct {
	TickID             string `json:"tick_id"`
	Amount             string `json:"amount"`
	Level              string `json:"level"`
	RemainingLiquidity string `json:"remaining_liquidity"`
}

// Detail parses the decimal fields back into a TickFilledDetail.
func (d TickFilledData) Detail() (TickFilledDetail, error) {
	tickID, err := ParseU256(d.TickID)
	if err != nil {
		return TickFilledDetail{}, fmt.Errorf("tick_id: %w", err)
	}
	amount, err := ParseU256(d.Amount)
	if err != nil {
		return TickFilledDetail{}, fmt.Errorf("amount: %w", err)
	}
	level, err := ParseU256(d.Level)
	if err != nil {
		return TickFilledDetail{}, fmt.Errorf("level: %w", err)
	}
	remaining, err := ParseU256(d.RemainingLiquidity)
	if err != nil {
		return TickFilledDetail{}, fmt.Errorf("remaining_liquidity: %w", err)
	}
	return NewTickFilledDetail(tickID, amount, level, remaining), nil
}
