package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/btc-vision/opnet-order-book-sub001/internal/model"
)

// Config configures the Kafka event publisher.
type Config struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	RequiredAcks int
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher publishes typed events to a Kafka topic, keyed by tick id so
// events of one tick stay ordered within a partition.
type Publisher struct {
	writer messageWriter
	logger *zap.Logger
}

// NewPublisher builds a publisher writing to cfg.Topic.
func NewPublisher(cfg Config, logger *zap.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafkago.RequiredAcks(cfg.RequiredAcks),
	}
	return newPublisher(writer, logger), nil
}

func newPublisher(writer messageWriter, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{writer: writer, logger: logger}
}

// PutEvents publishes events in one write.
func (p *Publisher) PutEvents(ctx context.Context, events []model.TypedEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, 0, len(events))
	for _, ev := range events {
		msg, err := BuildMessage(ev)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Error("publish events failed", zap.Error(err), zap.Int("events", len(events)))
		return fmt.Errorf("publish events: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// BuildMessage converts a typed event into a Kafka message.
func BuildMessage(ev model.TypedEvent) (kafkago.Message, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("marshal event: %w", err)
	}

	key := ev.TickID()
	if key == "" {
		key = ev.Address
	}

	headers := []kafkago.Header{
		{Key: "event_name", Value: []byte(ev.EventName)},
		{Key: "chain_id", Value: []byte(strconv.FormatUint(ev.ChainID, 10))},
	}
	if ev.Raw != nil && ev.Raw.Topic0 != "" {
		headers = append(headers, kafkago.Header{Key: "topic0", Value: []byte(ev.Raw.Topic0)})
	}

	msg := kafkago.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: headers,
	}
	if ev.Timestamp > 0 {
		msg.Time = time.Unix(int64(ev.Timestamp), 0).UTC()
	}
	return msg, nil
}
