package model

// TypedEvent is a decoded contract event with its chain position.
type TypedEvent struct {
	ChainID     uint64      `json:"chain_id"`
	BlockNumber uint64      `json:"block_number"`
	BlockHash   string      `json:"block_hash"`
	TxHash      string      `json:"tx_hash"`
	LogIndex    uint64      `json:"log_index"`
	Address     string      `json:"address"`
	EventName   string      `json:"event_name"`
	Timestamp   uint64      `json:"timestamp"`
	Decoded     interface{} `json:"decoded"`
	Raw         *RawLogRef  `json:"raw,omitempty"`
}

// RawLogRef keeps the raw topic and payload for traceability.
type RawLogRef struct {
	Topic0 string `json:"topic0"`
	Data   string `json:"data"`
}

// TickID returns the decoded tick id, or "" for unknown payloads.
func (e TypedEvent) TickID() string {
	switch decoded := e.Decoded.(type) {
	case LiquidityRemovalBlockedData:
		return decoded.TickID
	case *LiquidityRemovalBlockedData:
		return decoded.TickID
	case TickFilledData:
		return decoded.TickID
	case *TickFilledData:
		return decoded.TickID
	default:
		return ""
	}
}
