package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/btc-vision/opnet-order-book-sub001/internal/config"
	"github.com/btc-vision/opnet-order-book-sub001/internal/model"
	"github.com/btc-vision/opnet-order-book-sub001/internal/orderbook"
	"github.com/btc-vision/opnet-order-book-sub001/internal/storage"
	"github.com/btc-vision/opnet-order-book-sub001/internal/storage/kafka"
)

func newDecodeCmd() *cobra.Command {
	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode raw logs into typed order-book events",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("in", "", "input raw logs JSONL")
	decodeCmd.Flags().String("out", "./data/typed_events.jsonl", "output typed events JSONL (jsonl sink)")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("topic0-map", "", "extra topic0->event mappings (comma-separated key=value)")
	decodeCmd.Flags().String("sink", config.SinkJSONL, "typed event sink (jsonl, kafka)")
	decodeCmd.Flags().Int("batch-size", 500, "events per sink write")
	decodeCmd.Flags().StringSlice("kafka-brokers", nil, "Kafka brokers (comma-separated)")
	decodeCmd.Flags().String("kafka-topic", "orderbook.events", "Kafka topic")
	decodeCmd.Flags().Int("kafka-required-acks", -1, "Kafka required acks (-1 all, 0 none, 1 leader)")
	decodeCmd.Flags().Duration("kafka-batch-timeout", 50*time.Millisecond, "Kafka writer batch timeout")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	return decodeCmd
}

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	decoder, err := orderbook.NewEventDecoder(orderbook.DecoderConfig{Topic0Map: cfg.Topic0Map})
	if err != nil {
		return err
	}

	inputFile, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	sink, err := newEventSink(cfg.SinkConfig, logger)
	if err != nil {
		return err
	}
	defer sink.Close()

	errWriter, err := storage.NewJSONLWriter(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	logger.Info("decode start",
		zap.String("in", cfg.In),
		zap.String("sink", cfg.Sink),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.Int("topic0_aliases", len(cfg.Topic0Map)),
	)

	stats, err := decodeStream(ctx, inputFile, decoder, sink, errWriter, cfg.BatchSize)
	if err != nil {
		return err
	}

	logger.Info("decode complete",
		zap.Int("total", stats.total),
		zap.Int("decoded", stats.decoded),
		zap.Int("skipped", stats.skipped),
		zap.Int("failed", stats.failed),
	)

	return nil
}

func newEventSink(cfg config.SinkConfig, logger *zap.Logger) (storage.EventSink, error) {
	switch cfg.Sink {
	case config.SinkKafka:
		publisher, err := kafka.NewPublisher(kafka.Config{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaTopic,
			BatchTimeout: cfg.KafkaBatchTimeout,
			RequiredAcks: cfg.KafkaRequiredAcks,
		}, logger)
		if err != nil {
			return nil, err
		}
		return publisher, nil
	default:
		sink, err := storage.NewJSONLEventSink(cfg.Out)
		if err != nil {
			return nil, err
		}
		return sink, nil
	}
}

type decodeStats struct {
	total, decoded, skipped, failed int
}

// decodeStream decodes every raw log line of r. Records with unknown topics
// are skipped; malformed records go to errWriter.
func decodeStream(ctx context.Context, r io.Reader, decoder orderbook.Decoder, sink storage.EventSink, errWriter *storage.JSONLWriter, batchSize int) (decodeStats, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var stats decodeStats
	batch := make([]model.TypedEvent, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := sink.PutEvents(ctx, batch); err != nil {
			return fmt.Errorf("put events: %w", err)
		}
		stats.decoded += len(batch)
		batch = batch[:0]
		return nil
	}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.total++

		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			stats.failed++
			writeDecodeError(errWriter, model.DecodeError{Error: err.Error()})
			continue
		}
		if record.Topic0() == "" {
			stats.failed++
			writeDecodeError(errWriter, record.DecodeErrorFor("", fmt.Errorf("missing topic0")))
			continue
		}
		if record.Removed {
			stats.skipped++
			continue
		}

		if !decoder.CanDecode(record.Topic0()) {
			stats.skipped++
			continue
		}

		ev, err := decoder.Decode(record)
		if err != nil {
			stats.failed++
			writeDecodeError(errWriter, record.DecodeErrorFor(eventNameFor(decoder, record.Topic0()), err))
			continue
		}

		batch = append(batch, *ev)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan input: %w", err)
	}
	if err := flush(); err != nil {
		return stats, err
	}
	return stats, nil
}

func eventNameFor(decoder orderbook.Decoder, topic0 string) string {
	named, ok := decoder.(interface {
		EventName(topic0 string) (string, bool)
	})
	if !ok {
		return ""
	}
	name, _ := named.EventName(topic0)
	return name
}

func writeDecodeError(writer *storage.JSONLWriter, errRecord model.DecodeError) {
	if writer == nil {
		return
	}
	_ = writer.Write(errRecord)
}
