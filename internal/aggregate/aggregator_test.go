package aggregate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/btc-vision/opnet-order-book-sub001/internal/model"
)

type memoryStore struct {
	ticks   []model.Tick
	fills   []model.TickFill
	blocks  []model.RemovalBlock
	metrics []model.TickWindowMetrics
	flushes int
}

func (s *memoryStore) UpsertTicks(_ context.Context, ticks []model.Tick) error {
	s.flushes++
	s.ticks = append(s.ticks, ticks...)
	return nil
}

func (s *memoryStore) InsertTickFills(_ context.Context, fills []model.TickFill) error {
	s.fills = append(s.fills, fills...)
	return nil
}

func (s *memoryStore) InsertRemovalBlocks(_ context.Context, blocks []model.RemovalBlock) error {
	s.blocks = append(s.blocks, blocks...)
	return nil
}

func (s *memoryStore) UpsertTickWindowMetrics(_ context.Context, metrics []model.TickWindowMetrics) error {
	s.metrics = append(s.metrics, metrics...)
	return nil
}

func (s *memoryStore) window(tickID string, start int64) *model.TickWindowMetrics {
	for i := range s.metrics {
		if s.metrics[i].TickID == tickID && s.metrics[i].WindowStart.Unix() == start {
			return &s.metrics[i]
		}
	}
	return nil
}

func writeRecords(t *testing.T, records ...model.TypedEventRecord) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "typed.jsonl")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	enc := json.NewEncoder(file)
	for _, rec := range records {
		require.NoError(t, enc.Encode(rec))
	}
	_, err = file.WriteString("not json\n\n")
	require.NoError(t, err)
	return path
}

func TestAggregatorRun(t *testing.T) {
	input := writeRecords(t,
		fillRecord(t, 10, 0, 1000, model.TickFilledData{TickID: "7", Amount: "100", Level: "2", RemainingLiquidity: "300"}),
		blockedRecord(t, 11, 0, 1010, model.LiquidityRemovalBlockedData{TickID: "7", ReservedCount: "2"}),
		fillRecord(t, 12, 0, 1020, model.TickFilledData{TickID: "8", Amount: "5", Level: "3", RemainingLiquidity: "5"}),
		fillRecord(t, 20, 0, 1080, model.TickFilledData{TickID: "7", Amount: "300", Level: "2", RemainingLiquidity: "0"}),
		typedRecord(t, "Swap", 21, 0, 1090, map[string]string{}),
	)

	statePath := filepath.Join(t.TempDir(), "state.json")
	state := &FileStateStore{Path: statePath}
	store := &memoryStore{}
	agg := NewAggregator(Config{WindowSeconds: 60, BatchSize: 100, StateStore: state}, store, zaptest.NewLogger(t))
	require.NoError(t, agg.Run(context.Background(), input))

	require.Len(t, store.metrics, 3)
	first := store.window("7", 960)
	require.NotNil(t, first)
	require.Equal(t, uint64(1), first.FillCount)
	require.Equal(t, uint64(1), first.BlockedRemovalCount)
	require.Equal(t, "0.250000000000000000", *first.FillRatio)
	require.Equal(t, testContract, first.ContractAddress)

	second := store.window("7", 1080)
	require.NotNil(t, second)
	require.Equal(t, "300", second.FilledAmount)
	require.Equal(t, "1.000000000000000000", *second.FillRatio)
	require.Nil(t, second.MaxReservedCount)

	require.NotNil(t, store.window("8", 960))
	require.Len(t, store.fills, 3)
	require.Len(t, store.blocks, 1)
	require.Len(t, store.ticks, 2)

	last, ok, err := state.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1080), last)

	// A second run resumes after the saved timestamp and finds nothing new.
	again := &memoryStore{}
	agg = NewAggregator(Config{WindowSeconds: 60, StateStore: state}, again, nil)
	require.NoError(t, agg.Run(context.Background(), input))
	require.Empty(t, again.metrics)
	require.Empty(t, again.fills)
}

func TestAggregatorRecomputeFrom(t *testing.T) {
	input := writeRecords(t,
		fillRecord(t, 10, 0, 1000, model.TickFilledData{TickID: "7", Amount: "100", Level: "2", RemainingLiquidity: "300"}),
		fillRecord(t, 20, 0, 1080, model.TickFilledData{TickID: "7", Amount: "300", Level: "2", RemainingLiquidity: "0"}),
	)

	store := &memoryStore{}
	agg := NewAggregator(Config{WindowSeconds: 60, RecomputeFrom: 1080}, store, nil)
	require.NoError(t, agg.Run(context.Background(), input))
	require.Len(t, store.metrics, 1)
	require.Equal(t, int64(1080), store.metrics[0].WindowStart.Unix())
}

func TestAggregatorBatchFlush(t *testing.T) {
	input := writeRecords(t,
		blockedRecord(t, 1, 0, 10, model.LiquidityRemovalBlockedData{TickID: "1", ReservedCount: "1"}),
		blockedRecord(t, 2, 0, 20, model.LiquidityRemovalBlockedData{TickID: "1", ReservedCount: "3"}),
		blockedRecord(t, 3, 0, 30, model.LiquidityRemovalBlockedData{TickID: "1", ReservedCount: "2"}),
	)

	store := &memoryStore{}
	agg := NewAggregator(Config{WindowSeconds: 3600, BatchSize: 1}, store, nil)
	require.NoError(t, agg.Run(context.Background(), input))
	require.Equal(t, 4, store.flushes)
	require.Len(t, store.blocks, 3)
	require.Len(t, store.metrics, 1)
	require.Equal(t, "3", *store.metrics[0].MaxReservedCount)
}

func TestAggregatorValidation(t *testing.T) {
	require.Error(t, NewAggregator(Config{WindowSeconds: 60}, nil, nil).Run(context.Background(), "x"))
	require.Error(t, NewAggregator(Config{}, &memoryStore{}, nil).Run(context.Background(), "x"))
	require.Error(t, NewAggregator(Config{WindowSeconds: 60}, &memoryStore{}, nil).Run(context.Background(), filepath.Join(t.TempDir(), "missing")))
}

type memoryBackend map[string]uint64

func (b memoryBackend) LoadState(_ context.Context, name string) (uint64, bool, error) {
	ts, ok := b[name]
	return ts, ok, nil
}

func (b memoryBackend) SaveState(_ context.Context, name string, ts uint64) error {
	b[name] = ts
	return nil
}

func TestDBStateStore(t *testing.T) {
	backend := memoryBackend{}
	store := &DBStateStore{Backend: backend, Name: "aggregate"}

	_, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Save(context.Background(), 42))
	ts, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(42), ts)

	var empty *DBStateStore
	_, ok, err = empty.Load(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

func (s *memoryStore) lastTick(tickID string) *model.Tick {
	for i := len(s.ticks) - 1; i >= 0; i-- {
		if s.ticks[i].TickID == tickID {
			return &s.ticks[i]
		}
	}
	return nil
}

func TestAggregatorTickKeepsLatestLevel(t *testing.T) {
	input := writeRecords(t,
		fillRecord(t, 10, 0, 1000, model.TickFilledData{TickID: "7", Amount: "1", Level: "2", RemainingLiquidity: "9"}),
		fillRecord(t, 20, 0, 1100, model.TickFilledData{TickID: "7", Amount: "1", Level: "3", RemainingLiquidity: "8"}),
	)

	store := &memoryStore{}
	require.NoError(t, NewAggregator(Config{WindowSeconds: 60}, store, nil).Run(context.Background(), input))

	tick := store.lastTick("7")
	require.NotNil(t, tick)
	require.Equal(t, "3", tick.Level)
	require.Equal(t, uint64(20), tick.LevelBlock)
	require.Equal(t, uint64(10), tick.FirstSeenBlock)
	require.Len(t, store.ticks, 2)
}

func TestAggregatorTickEarlierFillKeepsLevel(t *testing.T) {
	input := writeRecords(t,
		fillRecord(t, 20, 1, 1000, model.TickFilledData{TickID: "7", Amount: "1", Level: "3", RemainingLiquidity: "8"}),
		fillRecord(t, 10, 0, 1010, model.TickFilledData{TickID: "7", Amount: "1", Level: "2", RemainingLiquidity: "9"}),
		fillRecord(t, 20, 0, 1020, model.TickFilledData{TickID: "7", Amount: "1", Level: "4", RemainingLiquidity: "7"}),
	)

	store := &memoryStore{}
	require.NoError(t, NewAggregator(Config{WindowSeconds: 60}, store, nil).Run(context.Background(), input))

	tick := store.lastTick("7")
	require.NotNil(t, tick)
	require.Equal(t, "3", tick.Level)
	require.Equal(t, uint64(20), tick.LevelBlock)
	require.Equal(t, uint64(1), tick.LevelLogIndex)
	require.Equal(t, uint64(10), tick.FirstSeenBlock)
	require.Len(t, store.ticks, 2)
}
