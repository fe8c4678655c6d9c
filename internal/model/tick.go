package model

// Tick is a tick registry record for storage. Level is taken from the fill
// at (LevelBlock, LevelLogIndex).
type Tick struct {
	ChainID         uint64 `json:"chain_id"`
	ContractAddress string `json:"contract_address"`
	TickID          string `json:"tick_id"`
	Level           string `json:"level"`
	LevelBlock      uint64 `json:"level_block"`
	LevelLogIndex   uint64 `json:"level_log_index"`
	FirstSeenBlock  uint64 `json:"first_seen_block"`
}

// NewerLevelThan reports whether t's level comes from a later log than other's.
func (t Tick) NewerLevelThan(other Tick) bool {
	if t.LevelBlock != other.LevelBlock {
		return t.LevelBlock > other.LevelBlock
	}
	return t.LevelLogIndex > other.LevelLogIndex
}

// TickFill is one TickFilled event row.
type TickFill struct {
	ChainID            uint64
	ContractAddress    string
	BlockNumber        uint64
	TxHash             string
	LogIndex           uint64
	Timestamp          uint64
	TickID             string
	Amount             string
	Level              string
	RemainingLiquidity string
}

// RemovalBlock is one LiquidityRemovalBlocked event row.
type RemovalBlock struct {
	ChainID         uint64
	ContractAddress string
	BlockNumber     uint64
	TxHash          string
	LogIndex        uint64
	Timestamp       uint64
	TickID          string
	ReservedCount   string
}
