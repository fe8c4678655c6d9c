package orderbook

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/btc-vision/opnet-order-book-sub001/internal/event"
	"github.com/btc-vision/opnet-order-book-sub001/internal/model"
)

var contract = common.HexToAddress("0x1111111111111111111111111111111111111111")

func TestEventDecoderLiquidityRemovalBlocked(t *testing.T) {
	contractABI, err := event.ABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewEventDecoder(DecoderConfig{})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	abiEvent := contractABI.Events[model.EventLiquidityRemovalBlocked]
	data, err := abiEvent.Inputs.NonIndexed().Pack(big.NewInt(42), big.NewInt(3))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	log := buildLogRecord(abiEvent.ID, data)
	if !decoder.CanDecode(log.Topics[0]) {
		t.Fatalf("expected topic to be decodable")
	}
	ev, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	blocked, ok := ev.Decoded.(model.LiquidityRemovalBlockedData)
	if !ok {
		t.Fatalf("decoded type mismatch: %T", ev.Decoded)
	}
	if blocked.TickID != "42" || blocked.ReservedCount != "3" {
		t.Fatalf("payload mismatch: %+v", blocked)
	}
	if ev.EventName != model.EventLiquidityRemovalBlocked {
		t.Fatalf("event name mismatch: %s", ev.EventName)
	}
	if ev.Address != contract.Hex() || ev.Raw == nil || ev.Raw.Data != log.Data {
		t.Fatalf("log reference mismatch: %+v", ev)
	}
	if ev.TickID() != "42" {
		t.Fatalf("tick id mismatch: %s", ev.TickID())
	}
}

func TestEventDecoderTickFilled(t *testing.T) {
	contractABI, err := event.ABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewEventDecoder(DecoderConfig{})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	maxU256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	abiEvent := contractABI.Events[model.EventTickFilled]
	data, err := abiEvent.Inputs.NonIndexed().Pack(
		big.NewInt(7),
		big.NewInt(1000),
		big.NewInt(2),
		maxU256,
	)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	ev, err := decoder.Decode(buildLogRecord(abiEvent.ID, data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	filled, ok := ev.Decoded.(model.TickFilledData)
	if !ok {
		t.Fatalf("decoded type mismatch: %T", ev.Decoded)
	}
	if filled.TickID != "7" || filled.Amount != "1000" || filled.Level != "2" {
		t.Fatalf("payload mismatch: %+v", filled)
	}
	if filled.RemainingLiquidity != maxU256.String() {
		t.Fatalf("remaining mismatch: %s", filled.RemainingLiquidity)
	}
}

func TestEventDecoderTopicAlias(t *testing.T) {
	alias := common.HexToHash("0x00000000000000000000000000000000000000000000000000000000000000aa")
	decoder, err := NewEventDecoder(DecoderConfig{
		Topic0Map: map[string]string{alias.Hex(): "tickfilled"},
	})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	if !decoder.CanDecode("0x" + strings.ToUpper(alias.Hex()[2:])) {
		t.Fatalf("alias not registered")
	}
	name, ok := decoder.EventName(alias.Hex())
	if !ok || name != model.EventTickFilled {
		t.Fatalf("alias name mismatch: %q", name)
	}

	data := event.NewTickFilled(model.NewTickFilledDetail(nil, nil, nil, nil)).Data()
	ev, err := decoder.Decode(buildLogRecord(alias, data))
	if err != nil {
		t.Fatalf("decode alias: %v", err)
	}
	if ev.EventName != model.EventTickFilled {
		t.Fatalf("event name mismatch: %s", ev.EventName)
	}

	if _, err := NewEventDecoder(DecoderConfig{Topic0Map: map[string]string{alias.Hex(): "Swap"}}); err == nil {
		t.Fatalf("expected error for unsupported alias name")
	}
}

func TestEventDecoderErrors(t *testing.T) {
	decoder, err := NewEventDecoder(DecoderConfig{})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	topic, _ := event.TopicFor(model.EventLiquidityRemovalBlocked)
	valid := event.NewLiquidityRemovalBlocked(nil, nil).Data()

	cases := map[string]model.LogRecord{
		"no topics":     {Address: contract.Hex(), Data: hexutil.Encode(valid)},
		"unknown topic": buildLogRecord(common.HexToHash("0x01"), valid),
		"short payload": buildLogRecord(topic, valid[:63]),
		"long payload":  buildLogRecord(topic, append(valid, 0)),
		"bad hex":       func() model.LogRecord { l := buildLogRecord(topic, valid); l.Data = "0xzz"; return l }(),
		"bad address":   func() model.LogRecord { l := buildLogRecord(topic, valid); l.Address = "pool"; return l }(),
		"extra topic": func() model.LogRecord {
			l := buildLogRecord(topic, valid)
			l.Topics = append(l.Topics, common.HexToHash("0x02").Hex())
			return l
		}(),
	}
	for name, log := range cases {
		if _, err := decoder.Decode(log); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	if decoder.CanDecode("") {
		t.Fatalf("empty topic should not be decodable")
	}
}

func buildLogRecord(topic0 common.Hash, data []byte) model.LogRecord {
	return model.LogRecord{
		ChainID:     56,
		BlockNumber: 12345,
		BlockHash:   "0xabc",
		TxHash:      "0xdef",
		LogIndex:    1,
		Address:     strings.ToLower(contract.Hex()),
		Topics:      []string{topic0.Hex()},
		Data:        hexutil.Encode(data),
		Timestamp:   1700000000,
	}
}
