package aggregate

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/holiman/uint256"

	"github.com/btc-vision/opnet-order-book-sub001/internal/model"
)

const ratioScale = 18

// fillRatio returns filled/(filled+remaining), or nil when nothing is known.
func fillRatio(filled, remaining *uint256.Int) *string {
	if filled == nil || remaining == nil {
		return nil
	}
	total := new(big.Int).Add(filled.ToBig(), remaining.ToBig())
	if total.Sign() == 0 {
		return nil
	}
	ratio := new(big.Rat).SetFrac(filled.ToBig(), total).FloatString(ratioScale)
	return &ratio
}

func optionalU256(value *uint256.Int) *string {
	if value == nil {
		return nil
	}
	text := model.FormatU256(value)
	return &text
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func tickKey(chainID uint64, contract, tickID string) string {
	return fmt.Sprintf("%d:%s:%s", chainID, strings.ToLower(contract), tickID)
}

func unixTime(ts uint64) time.Time {
	return time.Unix(int64(ts), 0).UTC()
}

func minOpenWindowStart(acc map[string]*Accumulator) uint64 {
	var min uint64
	for _, entry := range acc {
		if entry == nil {
			continue
		}
		if min == 0 || entry.WindowStart < min {
			min = entry.WindowStart
		}
	}
	return min
}
