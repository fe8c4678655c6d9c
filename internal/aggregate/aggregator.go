package aggregate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/btc-vision/opnet-order-book-sub001/internal/model"
)

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	StateStore    StateStore
}

// MetricsStore receives tick rows and window metrics.
type MetricsStore interface {
	UpsertTicks(ctx context.Context, ticks []model.Tick) error
	InsertTickFills(ctx context.Context, fills []model.TickFill) error
	InsertRemovalBlocks(ctx context.Context, blocks []model.RemovalBlock) error
	UpsertTickWindowMetrics(ctx context.Context, metrics []model.TickWindowMetrics) error
}

// Aggregator aggregates typed events into tick window metrics.
type Aggregator struct {
	cfg          Config
	store        MetricsStore
	logger       *zap.Logger
	accumulators map[string]*Accumulator
	tickSeen     map[string]model.Tick
	pending      pending
}

type pending struct {
	metrics []model.TickWindowMetrics
	ticks   []model.Tick
	fills   []model.TickFill
	blocks  []model.RemovalBlock
}

func (p *pending) size() int {
	return len(p.metrics) + len(p.ticks) + len(p.fills) + len(p.blocks)
}

func (p *pending) reset() {
	p.metrics = p.metrics[:0]
	p.ticks = p.ticks[:0]
	p.fills = p.fills[:0]
	p.blocks = p.blocks[:0]
}

func NewAggregator(cfg Config, store MetricsStore, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
		tickSeen:     make(map[string]model.Tick),
	}
}

// Run executes aggregation over a typed events JSONL file.
func (a *Aggregator) Run(ctx context.Context, inputPath string) error {
	if a.store == nil {
		return fmt.Errorf("store is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	startTs, err := a.loadStartTimestamp(ctx)
	if err != nil {
		return err
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	maxTs := startTs
	var total, decoded, skipped, failed, windows int

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var record model.TypedEventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			a.logger.Warn("decode typed event", zap.Error(err))
			continue
		}

		if record.Timestamp <= startTs {
			skipped++
			continue
		}

		ev, err := parseTickEvent(record)
		if err != nil {
			failed++
			a.logger.Warn("parse typed event", zap.Error(err), zap.String("contract", record.Address), zap.String("event", record.EventName))
			continue
		}

		start := windowStart(record.Timestamp, a.cfg.WindowSeconds)
		key := ev.key()
		acc := a.accumulators[key]
		if acc != nil && acc.WindowStart != start {
			a.pending.metrics = append(a.pending.metrics, acc.Metrics(a.cfg.WindowSeconds))
			windows++
			acc = nil
		}
		if acc == nil {
			acc = NewAccumulator(record, model.FormatU256(ev.tickID), start, start+a.cfg.WindowSeconds)
			a.accumulators[key] = acc
		}

		if err := acc.AddEvent(ev); err != nil {
			failed++
			a.logger.Warn("aggregate event", zap.Error(err), zap.String("contract", record.Address), zap.String("event", record.EventName))
			continue
		}
		a.queueEventRows(ev)
		decoded++

		if record.Timestamp > maxTs {
			maxTs = record.Timestamp
		}

		if a.pending.size() >= a.cfg.BatchSize {
			if err := a.flush(ctx); err != nil {
				return err
			}
			if err := a.saveState(ctx); err != nil {
				return err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	for _, acc := range a.accumulators {
		a.pending.metrics = append(a.pending.metrics, acc.Metrics(a.cfg.WindowSeconds))
		windows++
	}
	a.accumulators = make(map[string]*Accumulator)

	if err := a.flush(ctx); err != nil {
		return err
	}

	a.cfg.RecomputeFrom = maxTs
	if err := a.saveState(ctx); err != nil {
		return err
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("decoded", decoded),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Int("windows", windows),
	)

	return nil
}

func (a *Aggregator) queueEventRows(ev tickEvent) {
	record := ev.record
	tickID := model.FormatU256(ev.tickID)
	contract := strings.ToLower(record.Address)

	if ev.fill != nil {
		detail := ev.fill
		a.pending.fills = append(a.pending.fills, model.TickFill{
			ChainID:            record.ChainID,
			ContractAddress:    contract,
			BlockNumber:        record.BlockNumber,
			TxHash:             record.TxHash,
			LogIndex:           record.LogIndex,
			Timestamp:          record.Timestamp,
			TickID:             tickID,
			Amount:             model.FormatU256(detail.Amount()),
			Level:              model.FormatU256(detail.Level()),
			RemainingLiquidity: model.FormatU256(detail.RemainingLiquidity()),
		})
		a.registerTick(model.Tick{
			ChainID:         record.ChainID,
			ContractAddress: contract,
			TickID:          tickID,
			Level:           model.FormatU256(detail.Level()),
			LevelBlock:      record.BlockNumber,
			LevelLogIndex:   record.LogIndex,
			FirstSeenBlock:  record.BlockNumber,
		})
		return
	}

	a.pending.blocks = append(a.pending.blocks, model.RemovalBlock{
		ChainID:         record.ChainID,
		ContractAddress: contract,
		BlockNumber:     record.BlockNumber,
		TxHash:          record.TxHash,
		LogIndex:        record.LogIndex,
		Timestamp:       record.Timestamp,
		TickID:          tickID,
		ReservedCount:   model.FormatU256(ev.reservedCount),
	})
}

// registerTick merges a fill into the tick registry: the level follows the
// latest fill and first_seen_block the earliest. A row is queued when the
// tick is new or either of them changes.
func (a *Aggregator) registerTick(tick model.Tick) {
	key := tickKey(tick.ChainID, tick.ContractAddress, tick.TickID)
	existing, ok := a.tickSeen[key]
	if ok {
		merged := existing
		changed := false
		if tick.FirstSeenBlock < merged.FirstSeenBlock {
			merged.FirstSeenBlock = tick.FirstSeenBlock
			changed = true
		}
		if tick.NewerLevelThan(merged) {
			changed = changed || tick.Level != merged.Level
			merged.Level = tick.Level
			merged.LevelBlock = tick.LevelBlock
			merged.LevelLogIndex = tick.LevelLogIndex
		}
		a.tickSeen[key] = merged
		if !changed {
			return
		}
		tick = merged
	}
	a.tickSeen[key] = tick
	a.pending.ticks = append(a.pending.ticks, tick)
}

func (a *Aggregator) flush(ctx context.Context) error {
	if a.pending.size() == 0 {
		return nil
	}
	if err := a.store.UpsertTicks(ctx, a.pending.ticks); err != nil {
		return fmt.Errorf("upsert ticks: %w", err)
	}
	if err := a.store.InsertTickFills(ctx, a.pending.fills); err != nil {
		return fmt.Errorf("insert tick fills: %w", err)
	}
	if err := a.store.InsertRemovalBlocks(ctx, a.pending.blocks); err != nil {
		return fmt.Errorf("insert removal blocks: %w", err)
	}
	if err := a.store.UpsertTickWindowMetrics(ctx, a.pending.metrics); err != nil {
		return fmt.Errorf("upsert window metrics: %w", err)
	}
	a.pending.reset()
	return nil
}

func (a *Aggregator) loadStartTimestamp(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

func (a *Aggregator) saveState(ctx context.Context) error {
	if a.cfg.StateStore == nil {
		return nil
	}

	if len(a.accumulators) == 0 {
		return a.cfg.StateStore.Save(ctx, a.cfg.RecomputeFrom)
	}

	safeTs := minOpenWindowStart(a.accumulators)
	if safeTs > 0 {
		safeTs = safeTs - 1
	}
	if safeTs == 0 {
		safeTs = a.cfg.RecomputeFrom
	}
	return a.cfg.StateStore.Save(ctx, safeTs)
}
