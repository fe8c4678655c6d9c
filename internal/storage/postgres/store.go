package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/btc-vision/opnet-order-book-sub001/internal/model"
)

// Store provides Postgres persistence for tick events and metrics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertTicks inserts or updates the tick registry. The stored level only
// moves forward in (level_block, level_log_index) order.
func (s *Store) UpsertTicks(ctx context.Context, ticks []model.Tick) error {
	if len(ticks) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, tick := range ticks {
		batch.Queue(`
			INSERT INTO ticks (
				chain_id, contract_address, tick_id, level, level_block, level_log_index,
				first_seen_block, created_at, updated_at
			) VALUES ($1, $2, $3::numeric, $4::numeric, $5, $6, $7, now(), now())
			ON CONFLICT (chain_id, contract_address, tick_id)
			DO UPDATE SET
				level = CASE
					WHEN (EXCLUDED.level_block, EXCLUDED.level_log_index) >= (ticks.level_block, ticks.level_log_index)
					THEN EXCLUDED.level ELSE ticks.level END,
				level_block = GREATEST(ticks.level_block, EXCLUDED.level_block),
				level_log_index = CASE
					WHEN (EXCLUDED.level_block, EXCLUDED.level_log_index) >= (ticks.level_block, ticks.level_log_index)
					THEN EXCLUDED.level_log_index ELSE ticks.level_log_index END,
				first_seen_block = LEAST(ticks.first_seen_block, EXCLUDED.first_seen_block),
				updated_at = now()
		`,
			int64(tick.ChainID),
			tick.ContractAddress,
			tick.TickID,
			tick.Level,
			int64(tick.LevelBlock),
			int64(tick.LevelLogIndex),
			int64(tick.FirstSeenBlock),
		)
	}
	return s.sendBatch(ctx, batch)
}

// InsertTickFills stores TickFilled rows, ignoring ones already present.
func (s *Store) InsertTickFills(ctx context.Context, fills []model.TickFill) error {
	if len(fills) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, f := range fills {
		batch.Queue(`
			INSERT INTO tick_fills (
				chain_id, contract_address, block_number, tx_hash, log_index, block_ts,
				tick_id, amount, level, remaining_liquidity
			) VALUES ($1,$2,$3,$4,$5,$6,$7::numeric,$8::numeric,$9::numeric,$10::numeric)
			ON CONFLICT (chain_id, tx_hash, log_index) DO NOTHING
		`,
			int64(f.ChainID),
			f.ContractAddress,
			int64(f.BlockNumber),
			f.TxHash,
			int64(f.LogIndex),
			unixTime(f.Timestamp),
			f.TickID,
			f.Amount,
			f.Level,
			f.RemainingLiquidity,
		)
	}
	return s.sendBatch(ctx, batch)
}

// InsertRemovalBlocks stores LiquidityRemovalBlocked rows, ignoring ones already present.
func (s *Store) InsertRemovalBlocks(ctx context.Context, blocks []model.RemovalBlock) error {
	if len(blocks) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, b := range blocks {
		batch.Queue(`
			INSERT INTO liquidity_removal_blocks (
				chain_id, contract_address, block_number, tx_hash, log_index, block_ts,
				tick_id, reserved_count
			) VALUES ($1,$2,$3,$4,$5,$6,$7::numeric,$8::numeric)
			ON CONFLICT (chain_id, tx_hash, log_index) DO NOTHING
		`,
			int64(b.ChainID),
			b.ContractAddress,
			int64(b.BlockNumber),
			b.TxHash,
			int64(b.LogIndex),
			unixTime(b.Timestamp),
			b.TickID,
			b.ReservedCount,
		)
	}
	return s.sendBatch(ctx, batch)
}

// UpsertTickWindowMetrics inserts or updates window metrics.
func (s *Store) UpsertTickWindowMetrics(ctx context.Context, metrics []model.TickWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO tick_window_metrics (
				chain_id, contract_address, tick_id, window_size_seconds, window_start_ts, window_end_ts,
				fill_count, filled_amount, level, remaining_liquidity, fill_ratio,
				blocked_removal_count, max_reserved_count, first_block, last_block, created_at, updated_at
			) VALUES ($1,$2,$3::numeric,$4,$5,$6,$7,$8::numeric,$9::numeric,$10::numeric,$11::numeric,$12,$13::numeric,$14,$15,now(),now())
			ON CONFLICT (chain_id, contract_address, tick_id, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				fill_count = EXCLUDED.fill_count,
				filled_amount = EXCLUDED.filled_amount,
				level = EXCLUDED.level,
				remaining_liquidity = EXCLUDED.remaining_liquidity,
				fill_ratio = EXCLUDED.fill_ratio,
				blocked_removal_count = EXCLUDED.blocked_removal_count,
				max_reserved_count = EXCLUDED.max_reserved_count,
				first_block = EXCLUDED.first_block,
				last_block = EXCLUDED.last_block,
				updated_at = now()
		`,
			int64(m.ChainID),
			m.ContractAddress,
			m.TickID,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.FillCount),
			m.FilledAmount,
			m.Level,
			m.RemainingLiquidity,
			m.FillRatio,
			int64(m.BlockedRemovalCount),
			m.MaxReservedCount,
			int64(m.FirstBlock),
			int64(m.LastBlock),
		)
	}
	return s.sendBatch(ctx, batch)
}

// LoadState returns last_processed_ts for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var ts int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_ts FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(ts), true, nil
}

// SaveState upserts last_processed_ts for a name.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_ts = EXCLUDED.last_processed_ts, updated_at = now()
	`, name, int64(ts))
	return err
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func unixTime(ts uint64) time.Time {
	return time.Unix(int64(ts), 0).UTC()
}
