package model

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// ParseU256 parses a decimal or 0x-prefixed hex string into a 256-bit value.
func ParseU256(input string) (*uint256.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return new(uint256.Int), nil
	}

	base := 10
	digits := input
	if strings.HasPrefix(input, "0x") || strings.HasPrefix(input, "0X") {
		base = 16
		digits = input[2:]
	}
	parsed, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, fmt.Errorf("invalid uint256: %s", input)
	}
	if parsed.Sign() < 0 {
		return nil, fmt.Errorf("negative uint256: %s", input)
	}
	value, overflow := uint256.FromBig(parsed)
	if overflow {
		return nil, fmt.Errorf("uint256 overflow: %s", input)
	}
	return value, nil
}

// FormatU256 renders a 256-bit value as a decimal string. Nil is "0".
func FormatU256(value *uint256.Int) string {
	if value == nil {
		return "0"
	}
	return value.ToBig().String()
}

func cloneU256(value *uint256.Int) *uint256.Int {
	if value == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(value)
}
