package tick

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"github.com/btc-vision/opnet-order-book-sub001/internal/model"
)

// Operation names accepted by Apply.
const (
	OpAdd     = "add"
	OpReserve = "reserve"
	OpRelease = "release"
	OpFill    = "fill"
	OpRemove  = "remove"
)

// Operation is one book call read from a JSONL script. Values are decimal
// or 0x hex strings; Level is only read by "add".
type Operation struct {
	Op     string `json:"op"`
	TickID string `json:"tick_id"`
	Level  string `json:"level,omitempty"`
	Amount string `json:"amount"`
}

// Apply runs op against the book.
func (b *Book) Apply(op Operation) error {
	tickID, err := model.ParseU256(op.TickID)
	if err != nil {
		return fmt.Errorf("tick_id: %w", err)
	}
	amount, err := model.ParseU256(op.Amount)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(op.Op)) {
	case OpAdd:
		var level *uint256.Int
		if level, err = model.ParseU256(op.Level); err != nil {
			return fmt.Errorf("level: %w", err)
		}
		_, err = b.AddLiquidity(tickID, level, amount)
	case OpReserve:
		_, err = b.Reserve(tickID, amount)
	case OpRelease:
		_, err = b.Release(tickID, amount)
	case OpFill:
		_, err = b.Fill(tickID, amount)
	case OpRemove:
		_, err = b.RemoveLiquidity(tickID, amount)
	default:
		return fmt.Errorf("unsupported op: %q", op.Op)
	}
	return err
}
