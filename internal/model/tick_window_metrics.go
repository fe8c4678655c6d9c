package model

import "time"

// TickWindowMetrics stores aggregated metrics for a tick window.
type TickWindowMetrics struct {
	ChainID             uint64
	ContractAddress     string
	TickID              string
	WindowSizeSecs      int64
	WindowStart         time.Time
	WindowEnd           time.Time
	FillCount           uint64
	FilledAmount        string
	Level               *string
	RemainingLiquidity  *string
	FillRatio           *string
	BlockedRemovalCount uint64
	MaxReservedCount    *string
	FirstBlock          uint64
	LastBlock           uint64
}
