// Package tick keeps per-tick liquidity and reservations and emits the
// TickFilled and LiquidityRemovalBlocked events as state changes.
package tick

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/btc-vision/opnet-order-book-sub001/internal/event"
	"github.com/btc-vision/opnet-order-book-sub001/internal/model"
)

var (
	ErrUnknownTick           = errors.New("unknown tick")
	ErrLevelMismatch         = errors.New("tick level mismatch")
	ErrInsufficientLiquidity = errors.New("insufficient tick liquidity")
	ErrNoReservation         = errors.New("tick has no reservation")
	ErrRemovalBlocked        = errors.New("liquidity removal blocked by reservations")
	ErrOverflow              = errors.New("uint256 overflow")
)

// Tick is the liquidity held at one price level. Reserved is part of
// Liquidity and cannot be removed while ReservationCount is non-zero.
type Tick struct {
	ID               *uint256.Int
	Level            *uint256.Int
	Liquidity        *uint256.Int
	Reserved         *uint256.Int
	ReservationCount *uint256.Int
}

// Free returns the liquidity not held by reservations.
func (t Tick) Free() *uint256.Int {
	return new(uint256.Int).Sub(t.Liquidity, t.Reserved)
}

func (t Tick) clone() Tick {
	return Tick{
		ID:               new(uint256.Int).Set(t.ID),
		Level:            new(uint256.Int).Set(t.Level),
		Liquidity:        new(uint256.Int).Set(t.Liquidity),
		Reserved:         new(uint256.Int).Set(t.Reserved),
		ReservationCount: new(uint256.Int).Set(t.ReservationCount),
	}
}

// Book holds ticks by id. It is safe for concurrent use.
type Book struct {
	mu      sync.Mutex
	ticks   map[uint256.Int]*Tick
	emitter Emitter
	logger  *zap.Logger
}

// NewBook builds a Book that sends events to emitter.
func NewBook(emitter Emitter, logger *zap.Logger) *Book {
	if logger == nil {
		logger = zap.NewNop()
	}
	if emitter == nil {
		emitter = NewMemoryEmitter()
	}
	return &Book{
		ticks:   make(map[uint256.Int]*Tick),
		emitter: emitter,
		logger:  logger,
	}
}

// AddLiquidity creates the tick at level or grows an existing one.
func (b *Book) AddLiquidity(tickID, level, amount *uint256.Int) (Tick, error) {
	tickID, level, amount = orZero(tickID), orZero(level), orZero(amount)
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.ticks[*tickID]
	if !ok {
		t = &Tick{
			ID:               new(uint256.Int).Set(tickID),
			Level:            new(uint256.Int).Set(level),
			Liquidity:        new(uint256.Int),
			Reserved:         new(uint256.Int),
			ReservationCount: new(uint256.Int),
		}
	} else if !t.Level.Eq(level) {
		return Tick{}, fmt.Errorf("%w: tick %s is at level %s, not %s", ErrLevelMismatch, model.FormatU256(tickID), model.FormatU256(t.Level), model.FormatU256(level))
	}

	sum, overflow := new(uint256.Int).AddOverflow(t.Liquidity, amount)
	if overflow {
		return Tick{}, fmt.Errorf("add liquidity to tick %s: %w", model.FormatU256(tickID), ErrOverflow)
	}
	t.Liquidity = sum
	b.ticks[*tickID] = t

	b.logger.Debug("liquidity added", zap.String("tick_id", model.FormatU256(tickID)), zap.String("amount", model.FormatU256(amount)))
	return t.clone(), nil
}

// Reserve locks amount of free liquidity for a pending order.
func (b *Book) Reserve(tickID, amount *uint256.Int) (Tick, error) {
	tickID, amount = orZero(tickID), orZero(amount)
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.get(tickID)
	if err != nil {
		return Tick{}, err
	}
	if amount.Gt(t.Free()) {
		return Tick{}, fmt.Errorf("%w: reserve %s, free %s", ErrInsufficientLiquidity, model.FormatU256(amount), model.FormatU256(t.Free()))
	}

	count, overflow := new(uint256.Int).AddOverflow(t.ReservationCount, uint256.NewInt(1))
	if overflow {
		return Tick{}, fmt.Errorf("reserve tick %s: %w", model.FormatU256(tickID), ErrOverflow)
	}
	t.Reserved = new(uint256.Int).Add(t.Reserved, amount)
	t.ReservationCount = count
	return t.clone(), nil
}

// Release drops one reservation and returns amount to free liquidity.
func (b *Book) Release(tickID, amount *uint256.Int) (Tick, error) {
	tickID, amount = orZero(tickID), orZero(amount)
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.get(tickID)
	if err != nil {
		return Tick{}, err
	}
	if t.ReservationCount.IsZero() {
		return Tick{}, fmt.Errorf("release tick %s: %w", model.FormatU256(tickID), ErrNoReservation)
	}
	if amount.Gt(t.Reserved) {
		amount = t.Reserved
	}

	t.Reserved = new(uint256.Int).Sub(t.Reserved, amount)
	t.ReservationCount = new(uint256.Int).Sub(t.ReservationCount, uint256.NewInt(1))
	return t.clone(), nil
}

// Fill consumes amount from the tick, reserved liquidity first, and emits
// TickFilled with the liquidity left afterwards.
func (b *Book) Fill(tickID, amount *uint256.Int) (model.TickFilledDetail, error) {
	tickID, amount = orZero(tickID), orZero(amount)
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.get(tickID)
	if err != nil {
		return model.TickFilledDetail{}, err
	}
	if amount.Gt(t.Liquidity) {
		return model.TickFilledDetail{}, fmt.Errorf("%w: fill %s, liquidity %s", ErrInsufficientLiquidity, model.FormatU256(amount), model.FormatU256(t.Liquidity))
	}

	fromReserved := amount
	if fromReserved.Gt(t.Reserved) {
		fromReserved = t.Reserved
	}
	t.Reserved = new(uint256.Int).Sub(t.Reserved, fromReserved)
	if t.Reserved.IsZero() {
		t.ReservationCount = new(uint256.Int)
	}
	t.Liquidity = new(uint256.Int).Sub(t.Liquidity, amount)

	detail := model.NewTickFilledDetail(t.ID, amount, t.Level, t.Liquidity)
	b.emitter.Emit(event.NewTickFilled(detail))

	b.logger.Debug("tick filled",
		zap.String("tick_id", model.FormatU256(tickID)),
		zap.String("amount", model.FormatU256(amount)),
		zap.String("remaining", model.FormatU256(t.Liquidity)),
	)
	return detail, nil
}

// RemoveLiquidity takes amount out of the tick. While reservations are open
// it emits LiquidityRemovalBlocked and returns ErrRemovalBlocked; the tick is
// left unchanged and can be read with Snapshot.
func (b *Book) RemoveLiquidity(tickID, amount *uint256.Int) (Tick, error) {
	tickID, amount = orZero(tickID), orZero(amount)
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.get(tickID)
	if err != nil {
		return Tick{}, err
	}
	if !t.ReservationCount.IsZero() {
		b.emitter.Emit(event.NewLiquidityRemovalBlocked(t.ID, t.ReservationCount))
		b.logger.Info("liquidity removal blocked",
			zap.String("tick_id", model.FormatU256(tickID)),
			zap.String("reserved_count", model.FormatU256(t.ReservationCount)),
		)
		return Tick{}, fmt.Errorf("remove from tick %s: %w", model.FormatU256(tickID), ErrRemovalBlocked)
	}
	if amount.Gt(t.Liquidity) {
		return Tick{}, fmt.Errorf("%w: remove %s, liquidity %s", ErrInsufficientLiquidity, model.FormatU256(amount), model.FormatU256(t.Liquidity))
	}

	t.Liquidity = new(uint256.Int).Sub(t.Liquidity, amount)
	snapshot := t.clone()
	if t.Liquidity.IsZero() {
		delete(b.ticks, *tickID)
	}
	return snapshot, nil
}

// Snapshot returns a copy of the tick.
func (b *Book) Snapshot(tickID *uint256.Int) (Tick, bool) {
	tickID = orZero(tickID)
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.ticks[*tickID]
	if !ok {
		return Tick{}, false
	}
	return t.clone(), true
}

// Ticks returns copies of all ticks ordered by id.
func (b *Book) Ticks() []Tick {
	b.mu.Lock()
	out := make([]Tick, 0, len(b.ticks))
	for _, t := range b.ticks {
		out = append(out, t.clone())
	}
	b.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.Lt(out[j].ID)
	})
	return out
}

// orZero reads a nil value as zero.
func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

func (b *Book) get(tickID *uint256.Int) (*Tick, error) {
	t, ok := b.ticks[*tickID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTick, model.FormatU256(tickID))
	}
	return t, nil
}
