package event

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/btc-vision/opnet-order-book-sub001/internal/model"
)

var (
	ErrUnknownEvent    = errors.New("unknown event")
	ErrUnexpectedEvent = errors.New("unexpected event name")
	ErrPayloadLength   = errors.New("unexpected payload length")
)

// Canonical event signatures.
const (
	SignatureLiquidityRemovalBlocked = "LiquidityRemovalBlocked(uint256,uint256)"
	SignatureTickFilled              = "TickFilled(uint256,uint256,uint256,uint256)"
)

var signatures = map[string]string{
	model.EventLiquidityRemovalBlocked: SignatureLiquidityRemovalBlocked,
	model.EventTickFilled:              SignatureTickFilled,
}

var (
	topicsOnce  sync.Once
	nameToTopic map[string]common.Hash
	topicToName map[common.Hash]string
)

func loadTopics() {
	topicsOnce.Do(func() {
		nameToTopic = make(map[string]common.Hash, len(signatures))
		topicToName = make(map[common.Hash]string, len(signatures))
		for name, sig := range signatures {
			topic := crypto.Keccak256Hash([]byte(sig))
			nameToTopic[name] = topic
			topicToName[topic] = name
		}
	})
}

// Names lists the known event names.
func Names() []string {
	return []string{model.EventLiquidityRemovalBlocked, model.EventTickFilled}
}

// Topics lists the topic0 hashes of the known events.
func Topics() []common.Hash {
	loadTopics()
	out := make([]common.Hash, 0, len(nameToTopic))
	for _, name := range Names() {
		out = append(out, nameToTopic[name])
	}
	return out
}

// TopicFor returns the topic0 hash of a known event name.
func TopicFor(name string) (common.Hash, bool) {
	loadTopics()
	topic, ok := nameToTopic[name]
	return topic, ok
}

// NameForTopic returns the event name for a topic0 hash.
func NameForTopic(topic common.Hash) (string, bool) {
	loadTopics()
	name, ok := topicToName[topic]
	return name, ok
}

// NormalizeName maps a case-insensitive event name onto its canonical form.
func NormalizeName(name string) string {
	trimmed := strings.TrimSpace(name)
	for _, known := range Names() {
		if strings.EqualFold(trimmed, known) {
			return known
		}
	}
	return ""
}

// Decode parses a known event into its JSON payload type.
func Decode(e Event) (interface{}, error) {
	switch e.Name() {
	case model.EventLiquidityRemovalBlocked:
		payload, err := DecodeLiquidityRemovalBlocked(e)
		if err != nil {
			return nil, err
		}
		return payload.Data(), nil
	case model.EventTickFilled:
		detail, err := DecodeTickFilled(e)
		if err != nil {
			return nil, err
		}
		return detail.Data(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, e.Name())
	}
}

const eventsABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint256", "name": "tickId", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "reservedCount", "type": "uint256"}
    ],
    "name": "LiquidityRemovalBlocked",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint256", "name": "tickId", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "level", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "remainingLiquidity", "type": "uint256"}
    ],
    "name": "TickFilled",
    "type": "event"
  }
]`

var (
	eventsABI     abi.ABI
	eventsABIOnce sync.Once
	eventsABIErr  error
)

// ABI returns the parsed event ABI of the order-book contract.
func ABI() (abi.ABI, error) {
	eventsABIOnce.Do(func() {
		eventsABI, eventsABIErr = abi.JSON(strings.NewReader(eventsABIJSON))
	})
	return eventsABI, eventsABIErr
}
