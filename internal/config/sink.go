package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sink names accepted by commands that publish typed events.
const (
	SinkJSONL = "jsonl"
	SinkKafka = "kafka"
)

// SinkConfig selects where typed events go.
type SinkConfig struct {
	Sink              string
	Out               string
	KafkaBrokers      []string
	KafkaTopic        string
	KafkaBatchTimeout time.Duration
	KafkaRequiredAcks int
}

func sinkDefaults(out string) map[string]interface{} {
	return map[string]interface{}{
		"out":                 out,
		"sink":                SinkJSONL,
		"kafka-topic":         "orderbook.events",
		"kafka-batch-timeout": 50 * time.Millisecond,
		"kafka-required-acks": -1,
	}
}

func loadSinkConfig(v *viper.Viper) SinkConfig {
	return SinkConfig{
		Sink:              strings.ToLower(strings.TrimSpace(v.GetString("sink"))),
		Out:               v.GetString("out"),
		KafkaBrokers:      getStringSlice(v, "kafka-brokers"),
		KafkaTopic:        v.GetString("kafka-topic"),
		KafkaBatchTimeout: v.GetDuration("kafka-batch-timeout"),
		KafkaRequiredAcks: v.GetInt("kafka-required-acks"),
	}
}

// Validate checks the sink selection and its required settings.
func (c SinkConfig) Validate() error {
	switch c.Sink {
	case SinkJSONL:
		if c.Out == "" {
			return fmt.Errorf("output path is required")
		}
	case SinkKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("kafka brokers are required")
		}
		if c.KafkaTopic == "" {
			return fmt.Errorf("kafka topic is required")
		}
	default:
		return fmt.Errorf("unsupported sink: %s", c.Sink)
	}
	return nil
}
