// Package orderbook turns raw order-book contract logs into typed events.
package orderbook

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/btc-vision/opnet-order-book-sub001/internal/event"
	"github.com/btc-vision/opnet-order-book-sub001/internal/model"
)

// Decoder defines a log decoder.
type Decoder interface {
	CanDecode(topic0 string) bool
	Decode(log model.LogRecord) (*model.TypedEvent, error)
}

// DecoderConfig configures decoder behavior.
type DecoderConfig struct {
	// Topic0Map adds topic0 aliases, mapping a topic hash to an event name.
	Topic0Map map[string]string
}

// EventDecoder decodes LiquidityRemovalBlocked and TickFilled logs.
type EventDecoder struct {
	topicToName map[string]string
}

// NewEventDecoder builds a decoder for the order-book events.
func NewEventDecoder(cfg DecoderConfig) (*EventDecoder, error) {
	contractABI, err := event.ABI()
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}

	topicToName := make(map[string]string, len(contractABI.Events)+len(cfg.Topic0Map))
	for _, name := range event.Names() {
		abiEvent, ok := contractABI.Events[name]
		if !ok {
			return nil, fmt.Errorf("abi missing event %s", name)
		}
		topicToName[strings.ToLower(abiEvent.ID.Hex())] = name
	}

	for topic0, name := range cfg.Topic0Map {
		original := name
		name = event.NormalizeName(name)
		if name == "" {
			return nil, fmt.Errorf("unsupported event name in topic0 map: %s", original)
		}
		if topic0 == "" {
			continue
		}
		topicToName[strings.ToLower(strings.TrimSpace(topic0))] = name
	}

	return &EventDecoder{topicToName: topicToName}, nil
}

// CanDecode checks if the topic0 is supported.
func (d *EventDecoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// EventName returns the event name mapped to topic0.
func (d *EventDecoder) EventName(topic0 string) (string, bool) {
	name, ok := d.topicToName[strings.ToLower(topic0)]
	return name, ok
}

// Decode converts a LogRecord into a TypedEvent.
func (d *EventDecoder) Decode(log model.LogRecord) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}
	// Neither event has indexed arguments.
	if len(log.Topics) != 1 {
		return nil, fmt.Errorf("expected 1 topic, got %d", len(log.Topics))
	}
	if !common.IsHexAddress(log.Address) {
		return nil, fmt.Errorf("invalid contract address: %s", log.Address)
	}

	data, err := hexutil.Decode(log.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	decoded, err := event.Decode(event.New(name, data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return buildTypedEvent(log, name, decoded), nil
}

func buildTypedEvent(log model.LogRecord, name string, decoded interface{}) *model.TypedEvent {
	return &model.TypedEvent{
		ChainID:     log.ChainID,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash,
		TxHash:      log.TxHash,
		LogIndex:    log.LogIndex,
		Address:     common.HexToAddress(log.Address).Hex(),
		EventName:   name,
		Timestamp:   log.Timestamp,
		Decoded:     decoded,
		Raw:         &model.RawLogRef{Topic0: log.Topics[0], Data: log.Data},
	}
}
