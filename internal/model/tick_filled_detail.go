package model

import "github.com/holiman/uint256"

// TickFilledDetail describes a filled order-book tick. It is immutable:
// the constructor and every accessor copy the values.
type TickFilledDetail struct {
	tickID             uint256.Int
	amount             uint256.Int
	level              uint256.Int
	remainingLiquidity uint256.Int
}

// NewTickFilledDetail builds a detail record. Nil arguments are read as zero.
func NewTickFilledDetail(tickID, amount, level, remainingLiquidity *uint256.Int) TickFilledDetail {
	return TickFilledDetail{
		tickID:             *cloneU256(tickID),
		amount:             *cloneU256(amount),
		level:              *cloneU256(level),
		remainingLiquidity: *cloneU256(remainingLiquidity),
	}
}

func (d TickFilledDetail) TickID() *uint256.Int {
	return cloneU256(&d.tickID)
}

func (d TickFilledDetail) Amount() *uint256.Int {
	return cloneU256(&d.amount)
}

func (d TickFilledDetail) Level() *uint256.Int {
	return cloneU256(&d.level)
}

func (d TickFilledDetail) RemainingLiquidity() *uint256.Int {
	return cloneU256(&d.remainingLiquidity)
}

// Equal reports whether both records carry the same four values.
func (d TickFilledDetail) Equal(other TickFilledDetail) bool {
	return d.tickID.Eq(&other.tickID) &&
		d.amount.Eq(&other.amount) &&
		d.level.Eq(&other.level) &&
		d.remainingLiquidity.Eq(&other.remainingLiquidity)
}

// Data converts the record into its JSON form.
func (d TickFilledDetail) Data() TickFilledData {
	return TickFilledData{
		TickID:             FormatU256(&d.tickID),
		Amount:             FormatU256(&d.amount),
		Level:              FormatU256(&d.level),
		RemainingLiquidity: FormatU256(&d.remainingLiquidity),
	}
}
