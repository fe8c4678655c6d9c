package aggregate

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"github.com/btc-vision/opnet-order-book-sub001/internal/model"
)

// tickEvent is a typed event record with its payload parsed into 256-bit values.
type tickEvent struct {
	record        model.TypedEventRecord
	tickID        *uint256.Int
	fill          *model.TickFilledDetail
	reservedCount *uint256.Int
}

func parseTickEvent(record model.TypedEventRecord) (tickEvent, error) {
	ev := tickEvent{record: record}
	switch record.EventName {
	case model.EventTickFilled:
		data, err := record.TickFilled()
		if err != nil {
			return ev, err
		}
		detail, err := data.Detail()
		if err != nil {
			return ev, fmt.Errorf("parse %s: %w", record.EventName, err)
		}
		ev.tickID = detail.TickID()
		ev.fill = &detail
	case model.EventLiquidityRemovalBlocked:
		data, err := record.LiquidityRemovalBlocked()
		if err != nil {
			return ev, err
		}
		tickID, err := model.ParseU256(data.TickID)
		if err != nil {
			return ev, fmt.Errorf("parse tick_id: %w", err)
		}
		reserved, err := model.ParseU256(data.ReservedCount)
		if err != nil {
			return ev, fmt.Errorf("parse reserved_count: %w", err)
		}
		ev.tickID = tickID
		ev.reservedCount = reserved
	default:
		return ev, fmt.Errorf("unsupported event: %s", record.EventName)
	}
	return ev, nil
}

func (e tickEvent) key() string {
	return tickKey(e.record.ChainID, e.record.Address, model.FormatU256(e.tickID))
}

// Accumulator holds aggregate values for one tick window.
type Accumulator struct {
	ChainID             uint64
	ContractAddress     string
	TickID              string
	WindowStart         uint64
	WindowEnd           uint64
	FillCount           uint64
	FilledAmount        *uint256.Int
	Level               *uint256.Int
	RemainingLiquidity  *uint256.Int
	BlockedRemovalCount uint64
	MaxReservedCount    *uint256.Int
	FirstBlock          uint64
	LastBlock           uint64
	LastTS              uint64

	lastFillBlock    uint64
	lastFillLogIndex uint64
}

func NewAccumulator(record model.TypedEventRecord, tickID string, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		ChainID:         record.ChainID,
		ContractAddress: strings.ToLower(record.Address),
		TickID:          tickID,
		WindowStart:     windowStart,
		WindowEnd:       windowEnd,
		FilledAmount:    new(uint256.Int),
		FirstBlock:      record.BlockNumber,
		LastBlock:       record.BlockNumber,
		LastTS:          record.Timestamp,
	}
}

// AddEvent folds one event into the window. A failed event leaves the
// accumulator unchanged.
func (a *Accumulator) AddEvent(ev tickEvent) error {
	switch {
	case ev.fill != nil:
		if err := a.applyFill(ev); err != nil {
			return err
		}
	case ev.reservedCount != nil:
		a.applyRemovalBlocked(ev.reservedCount)
	default:
		return fmt.Errorf("empty event payload")
	}

	record := ev.record
	if record.Timestamp >= a.LastTS {
		a.LastTS = record.Timestamp
	}
	if record.BlockNumber > a.LastBlock {
		a.LastBlock = record.BlockNumber
	}
	if record.BlockNumber < a.FirstBlock {
		a.FirstBlock = record.BlockNumber
	}
	return nil
}

func (a *Accumulator) applyFill(ev tickEvent) error {
	amount := ev.fill.Amount()
	sum := new(uint256.Int).Add(a.FilledAmount, amount)
	if sum.Lt(a.FilledAmount) {
		return fmt.Errorf("filled amount overflow for tick %s", a.TickID)
	}
	a.FilledAmount = sum
	a.FillCount++

	block, logIndex := ev.record.BlockNumber, ev.record.LogIndex
	later := a.Level == nil || block > a.lastFillBlock || (block == a.lastFillBlock && logIndex >= a.lastFillLogIndex)
	if later {
		a.Level = ev.fill.Level()
		a.RemainingLiquidity = ev.fill.RemainingLiquidity()
		a.lastFillBlock = block
		a.lastFillLogIndex = logIndex
	}
	return nil
}

func (a *Accumulator) applyRemovalBlocked(reserved *uint256.Int) {
	a.BlockedRemovalCount++
	if a.MaxReservedCount == nil || reserved.Gt(a.MaxReservedCount) {
		a.MaxReservedCount = new(uint256.Int).Set(reserved)
	}
}

// Metrics renders the window for storage.
func (a *Accumulator) Metrics(windowSeconds uint64) model.TickWindowMetrics {
	return model.TickWindowMetrics{
		ChainID:             a.ChainID,
		ContractAddress:     a.ContractAddress,
		TickID:              a.TickID,
		WindowSizeSecs:      int64(windowSeconds),
		WindowStart:         unixTime(a.WindowStart),
		WindowEnd:           unixTime(a.WindowEnd),
		FillCount:           a.FillCount,
		FilledAmount:        model.FormatU256(a.FilledAmount),
		Level:               optionalU256(a.Level),
		RemainingLiquidity:  optionalU256(a.RemainingLiquidity),
		FillRatio:           fillRatio(a.FilledAmount, a.RemainingLiquidity),
		BlockedRemovalCount: a.BlockedRemovalCount,
		MaxReservedCount:    optionalU256(a.MaxReservedCount),
		FirstBlock:          a.FirstBlock,
		LastBlock:           a.LastBlock,
	}
}
