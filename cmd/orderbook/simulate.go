package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/btc-vision/opnet-order-book-sub001/internal/config"
	"github.com/btc-vision/opnet-order-book-sub001/internal/tick"
)

func newSimulateCmd() *cobra.Command {
	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay tick book operations and publish the events they emit",
		RunE:  runSimulate,
	}

	simulateCmd.Flags().String("in", "", "input tick operations JSONL")
	simulateCmd.Flags().String("out", "./data/simulated_events.jsonl", "output typed events JSONL (jsonl sink)")
	simulateCmd.Flags().String("sink", config.SinkJSONL, "typed event sink (jsonl, kafka)")
	simulateCmd.Flags().StringSlice("kafka-brokers", nil, "Kafka brokers (comma-separated)")
	simulateCmd.Flags().String("kafka-topic", "orderbook.events", "Kafka topic")
	simulateCmd.Flags().Int("kafka-required-acks", -1, "Kafka required acks (-1 all, 0 none, 1 leader)")
	simulateCmd.Flags().Duration("kafka-batch-timeout", 50*time.Millisecond, "Kafka writer batch timeout")
	simulateCmd.Flags().Uint64("chain-id", 0, "chain id stamped on emitted events")
	simulateCmd.Flags().String("contract", "", "contract address stamped on emitted events")
	simulateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	return simulateCmd
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSimulate(cfgFile, cmd.Flags())
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

	emitter := tick.NewSinkEmitter(ctx, sink, tick.Source{ChainID: cfg.ChainID, Contract: cfg.Contract})
	book := tick.NewBook(emitter, logger)

	logger.Info("simulate start",
		zap.String("in", cfg.In),
		zap.String("sink", cfg.Sink),
		zap.String("out", cfg.Out),
	)

	stats, err := simulateStream(ctx, inputFile, book, emitter, logger)
	if err != nil {
		return err
	}

	logger.Info("simulate complete",
		zap.Int("total", stats.total),
		zap.Int("applied", stats.applied),
		zap.Int("blocked", stats.blocked),
		zap.Int("failed", stats.failed),
		zap.Uint64("events", emitter.Emitted()),
		zap.Int("ticks", len(book.Ticks())),
	)

	return nil
}

type simulateStats struct {
	total, applied, blocked, failed int
}

// simulateStream applies every operation line of r to the book. Rejected
// operations are logged and counted; a sink failure stops the replay.
func simulateStream(ctx context.Context, r io.Reader, book *tick.Book, emitter *tick.SinkEmitter, logger *zap.Logger) (simulateStats, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var stats simulateStats
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		stats.total++

		var op tick.Operation
		if err := json.Unmarshal(raw, &op); err != nil {
			stats.failed++
			logger.Warn("invalid operation", zap.Int("line", line), zap.Error(err))
			continue
		}

		err := book.Apply(op)
		switch {
		case err == nil:
			stats.applied++
		case errors.Is(err, tick.ErrRemovalBlocked):
			stats.blocked++
		default:
			stats.failed++
			logger.Warn("operation rejected",
				zap.Int("line", line),
				zap.String("op", op.Op),
				zap.String("tick_id", op.TickID),
				zap.Error(err),
			)
		}

		if err := emitter.Err(); err != nil {
			return stats, err
		}
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan input: %w", err)
	}
	return stats, nil
}
