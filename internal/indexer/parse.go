package indexer

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/btc-vision/opnet-order-book-sub001/internal/event"
)

// ParseAddresses converts string addresses into common.Address.
func ParseAddresses(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid address: %s", input)
		}
		addresses = append(addresses, common.HexToAddress(input))
	}
	return addresses, nil
}

// ParseTopic0 converts topic0 filters into hashes. Each input is either a
// 32-byte hex hash or a known event name such as "TickFilled".
func ParseTopic0(inputs []string) ([]common.Hash, error) {
	topics := make([]common.Hash, 0, len(inputs))
	seen := make(map[common.Hash]struct{}, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		var topic common.Hash
		if name := event.NormalizeName(input); name != "" {
			topic, _ = event.TopicFor(name)
		} else {
			data, err := hexutil.Decode(input)
			if err != nil {
				return nil, fmt.Errorf("invalid topic0: %s", input)
			}
			if len(data) != common.HashLength {
				return nil, fmt.Errorf("invalid topic0 length: %s", input)
			}
			topic = common.BytesToHash(data)
		}

		if _, ok := seen[topic]; ok {
			continue
		}
		seen[topic] = struct{}{}
		topics = append(topics, topic)
	}
	return topics, nil
}
