package aggregate

import (
	"encoding/json"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/btc-vision/opnet-order-book-sub001/internal/model"
)

const testContract = "0x1111111111111111111111111111111111111111"

func fillRecord(t *testing.T, block, logIndex, ts uint64, data model.TickFilledData) model.TypedEventRecord {
	t.Helper()
	return typedRecord(t, model.EventTickFilled, block, logIndex, ts, data)
}

func blockedRecord(t *testing.T, block, logIndex, ts uint64, data model.LiquidityRemovalBlockedData) model.TypedEventRecord {
	t.Helper()
	return typedRecord(t, model.EventLiquidityRemovalBlocked, block, logIndex, ts, data)
}

func typedRecord(t *testing.T, name string, block, logIndex, ts uint64, decoded interface{}) model.TypedEventRecord {
	t.Helper()
	raw, err := json.Marshal(decoded)
	require.NoError(t, err)
	return model.TypedEventRecord{
		ChainID:     56,
		BlockNumber: block,
		TxHash:      "0xtx",
		LogIndex:    logIndex,
		Address:     testContract,
		EventName:   name,
		Timestamp:   ts,
		Decoded:     raw,
	}
}

func TestAccumulatorFillsAndBlocks(t *testing.T) {
	first, err := parseTickEvent(fillRecord(t, 10, 0, 1000, model.TickFilledData{
		TickID: "7", Amount: "100", Level: "2", RemainingLiquidity: "900",
	}))
	require.NoError(t, err)

	acc := NewAccumulator(first.record, "7", 900, 1200)
	require.NoError(t, acc.AddEvent(first))

	later, err := parseTickEvent(fillRecord(t, 12, 3, 1100, model.TickFilledData{
		TickID: "7", Amount: "0x64", Level: "2", RemainingLiquidity: "800",
	}))
	require.NoError(t, err)
	earlier, err := parseTickEvent(fillRecord(t, 11, 0, 1050, model.TickFilledData{
		TickID: "7", Amount: "50", Level: "3", RemainingLiquidity: "850",
	}))
	require.NoError(t, err)
	require.NoError(t, acc.AddEvent(later))
	require.NoError(t, acc.AddEvent(earlier))

	for _, reserved := range []string{"4", "9", "2"} {
		ev, err := parseTickEvent(blockedRecord(t, 13, 0, 1150, model.LiquidityRemovalBlockedData{
			TickID: "7", ReservedCount: reserved,
		}))
		require.NoError(t, err)
		require.NoError(t, acc.AddEvent(ev))
	}

	m := acc.Metrics(300)
	require.Equal(t, uint64(3), m.FillCount)
	require.Equal(t, "250", m.FilledAmount)
	require.NotNil(t, m.Level)
	require.Equal(t, "2", *m.Level)
	require.Equal(t, "800", *m.RemainingLiquidity)
	require.Equal(t, uint64(3), m.BlockedRemovalCount)
	require.Equal(t, "9", *m.MaxReservedCount)
	require.Equal(t, uint64(10), m.FirstBlock)
	require.Equal(t, uint64(13), m.LastBlock)
	require.Equal(t, "0.238095238095238095", *m.FillRatio)
	require.Equal(t, int64(300), m.WindowSizeSecs)
	require.Equal(t, int64(900), m.WindowStart.Unix())
}

func TestAccumulatorOverflowLeavesWindowUnchanged(t *testing.T) {
	maxU256 := new(uint256.Int).Not(new(uint256.Int))
	large, err := parseTickEvent(fillRecord(t, 1, 0, 10, model.TickFilledData{
		TickID: "1", Amount: model.FormatU256(maxU256), Level: "1", RemainingLiquidity: "0",
	}))
	require.NoError(t, err)
	one, err := parseTickEvent(fillRecord(t, 2, 0, 11, model.TickFilledData{
		TickID: "1", Amount: "1", Level: "5", RemainingLiquidity: "3",
	}))
	require.NoError(t, err)

	acc := NewAccumulator(large.record, "1", 0, 60)
	require.NoError(t, acc.AddEvent(large))
	require.Error(t, acc.AddEvent(one))

	m := acc.Metrics(60)
	require.Equal(t, uint64(1), m.FillCount)
	require.Equal(t, model.FormatU256(maxU256), m.FilledAmount)
	require.Equal(t, "1", *m.Level)
	require.Equal(t, uint64(1), m.LastBlock)
}

func TestAccumulatorBlockedOnlyHasNoRatio(t *testing.T) {
	ev, err := parseTickEvent(blockedRecord(t, 5, 0, 10, model.LiquidityRemovalBlockedData{
		TickID: "3", ReservedCount: "1",
	}))
	require.NoError(t, err)

	acc := NewAccumulator(ev.record, "3", 0, 60)
	require.NoError(t, acc.AddEvent(ev))

	m := acc.Metrics(60)
	require.Equal(t, "0", m.FilledAmount)
	require.Nil(t, m.Level)
	require.Nil(t, m.FillRatio)
	require.Equal(t, "1", *m.MaxReservedCount)
}

func TestParseTickEventErrors(t *testing.T) {
	_, err := parseTickEvent(typedRecord(t, "Swap", 1, 0, 1, map[string]string{}))
	require.Error(t, err)

	_, err = parseTickEvent(fillRecord(t, 1, 0, 1, model.TickFilledData{TickID: "-1"}))
	require.Error(t, err)

	_, err = parseTickEvent(blockedRecord(t, 1, 0, 1, model.LiquidityRemovalBlockedData{TickID: "1", ReservedCount: "abc"}))
	require.Error(t, err)
}

func TestFillRatio(t *testing.T) {
	require.Nil(t, fillRatio(uint256.NewInt(0), uint256.NewInt(0)))
	require.Nil(t, fillRatio(uint256.NewInt(1), nil))
	require.Equal(t, "1.000000000000000000", *fillRatio(uint256.NewInt(5), uint256.NewInt(0)))
	require.Equal(t, "0.500000000000000000", *fillRatio(uint256.NewInt(5), uint256.NewInt(5)))

	maxU256 := new(uint256.Int).Not(new(uint256.Int))
	require.Equal(t, "0.500000000000000000", *fillRatio(maxU256, maxU256))
}
