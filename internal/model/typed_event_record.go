package model

import (
	"encoding/json"
	"fmt"
)

// TypedEventRecord is the JSON representation read back for aggregation.
type TypedEventRecord struct {
	ChainID     uint64          `json:"chain_id"`
	BlockNumber uint64          `json:"block_number"`
	BlockHash   string          `json:"block_hash"`
	TxHash      string          `json:"tx_hash"`
	LogIndex    uint64          `json:"log_index"`
	Address     string          `json:"address"`
	EventName   string          `json:"event_name"`
	Timestamp   uint64          `json:"timestamp"`
	Decoded     json.RawMessage `json:"decoded"`
	Raw         *RawLogRef      `json:"raw,omitempty"`
}

// LiquidityRemovalBlocked decodes the payload of a LiquidityRemovalBlocked record.
func (r TypedEventRecord) LiquidityRemovalBlocked() (LiquidityRemovalBlockedData, error) {
	var data LiquidityRemovalBlockedData
	if r.EventName != EventLiquidityRemovalBlocked {
		return data, fmt.Errorf("event %s is not %s", r.EventName, EventLiquidityRemovalBlocked)
	}
	if err := json.Unmarshal(r.Decoded, &data); err != nil {
		return data, fmt.Errorf("decode %s: %w", r.EventName, err)
	}
	return data, nil
}

// TickFilled decodes the payload of a TickFilled record.
func (r TypedEventRecord) TickFilled() (TickFilledData, error) {
	var data TickFilledData
	if r.EventName != EventTickFilled {
		return data, fmt.Errorf("event %s is not %s", r.EventName, EventTickFilled)
	}
	if err := json.Unmarshal(r.Decoded, &data); err != nil {
		return data, fmt.Errorf("decode %s: %w", r.EventName, err)
	}
	return data, nil
}
