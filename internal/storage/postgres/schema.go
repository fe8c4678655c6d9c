package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS ticks (
		chain_id BIGINT NOT NULL,
		contract_address TEXT NOT NULL,
		tick_id NUMERIC(78,0) NOT NULL,
		level NUMERIC(78,0) NOT NULL,
		level_block BIGINT NOT NULL DEFAULT 0,
		level_log_index BIGINT NOT NULL DEFAULT 0,
		first_seen_block BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (chain_id, contract_address, tick_id)
	)`,
	`CREATE TABLE IF NOT EXISTS tick_fills (
		chain_id BIGINT NOT NULL,
		contract_address TEXT NOT NULL,
		block_number BIGINT NOT NULL,
		tx_hash TEXT NOT NULL,
		log_index BIGINT NOT NULL,
		block_ts TIMESTAMPTZ NOT NULL,
		tick_id NUMERIC(78,0) NOT NULL,
		amount NUMERIC(78,0) NOT NULL,
		level NUMERIC(78,0) NOT NULL,
		remaining_liquidity NUMERIC(78,0) NOT NULL,
		PRIMARY KEY (chain_id, tx_hash, log_index)
	)`,
	`CREATE TABLE IF NOT EXISTS liquidity_removal_blocks (
		chain_id BIGINT NOT NULL,
		contract_address TEXT NOT NULL,
		block_number BIGINT NOT NULL,
		tx_hash TEXT NOT NULL,
		log_index BIGINT NOT NULL,
		block_ts TIMESTAMPTZ NOT NULL,
		tick_id NUMERIC(78,0) NOT NULL,
		reserved_count NUMERIC(78,0) NOT NULL,
		PRIMARY KEY (chain_id, tx_hash, log_index)
	)`,
	`CREATE TABLE IF NOT EXISTS tick_window_metrics (
		chain_id BIGINT NOT NULL,
		contract_address TEXT NOT NULL,
		tick_id NUMERIC(78,0) NOT NULL,
		window_size_seconds BIGINT NOT NULL,
		window_start_ts TIMESTAMPTZ NOT NULL,
		window_end_ts TIMESTAMPTZ NOT NULL,
		fill_count BIGINT NOT NULL,
		filled_amount NUMERIC(78,0) NOT NULL,
		level NUMERIC(78,0),
		remaining_liquidity NUMERIC(78,0),
		fill_ratio NUMERIC,
		blocked_removal_count BIGINT NOT NULL,
		max_reserved_count NUMERIC(78,0),
		first_block BIGINT NOT NULL,
		last_block BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (chain_id, contract_address, tick_id, window_size_seconds, window_start_ts)
	)`,
	`CREATE TABLE IF NOT EXISTS indexer_state (
		name TEXT PRIMARY KEY,
		last_processed_ts BIGINT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate creates the tables used by the store when they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
