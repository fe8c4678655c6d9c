package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, `
rpc: http://file:8545
address:
  - "0x1111111111111111111111111111111111111111"
batch-size: 100
confirmations: 3
`)
	t.Setenv("ORDERBOOK_BATCH_SIZE", "250")
	t.Setenv("ORDERBOOK_TOPIC0", "TickFilled, LiquidityRemovalBlocked")

	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.Bool("follow", false, "")
	require.NoError(t, flags.Parse([]string{"--rpc", "http://flag:8545", "--follow"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	require.Equal(t, "http://flag:8545", cfg.RPCURL)
	require.Equal(t, uint64(250), cfg.BatchSize)
	require.Equal(t, uint64(3), cfg.Confirmations)
	require.True(t, cfg.Follow)
	require.Equal(t, []string{"0x1111111111111111111111111111111111111111"}, cfg.Addresses)
	require.Equal(t, []string{"TickFilled", "LiquidityRemovalBlocked"}, cfg.Topic0)
	require.Equal(t, 5*time.Second, cfg.PollInterval)
	require.Equal(t, "./data/checkpoint.json", cfg.Checkpoint)
	require.True(t, cfg.CheckpointEnabled)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}

func TestLoadDecode(t *testing.T) {
	path := writeConfig(t, `
in: ./data/logs.jsonl
topic0-map: "0xaa=TickFilled, 0xbb=liquidityremovalblocked"
`)
	t.Setenv("ORDERBOOK_SINK", "Kafka")
	t.Setenv("ORDERBOOK_KAFKA_BROKERS", "localhost:9092,localhost:9093")

	cfg, err := LoadDecode(path, nil)
	require.NoError(t, err)
	require.Equal(t, SinkKafka, cfg.Sink)
	require.Equal(t, []string{"localhost:9092", "localhost:9093"}, cfg.KafkaBrokers)
	require.Equal(t, "orderbook.events", cfg.KafkaTopic)
	require.Equal(t, map[string]string{"0xaa": "TickFilled", "0xbb": "liquidityremovalblocked"}, cfg.Topic0Map)
	require.NoError(t, cfg.Validate())

	cfg.KafkaBrokers = nil
	require.Error(t, cfg.Validate())

	cfg.Sink = "stdout"
	require.Error(t, cfg.Validate())

	cfg.Sink = SinkJSONL
	require.NoError(t, cfg.Validate())
	require.Equal(t, -1, cfg.KafkaRequiredAcks)
	require.Equal(t, 50*time.Millisecond, cfg.KafkaBatchTimeout)
	cfg.In = ""
	require.Error(t, cfg.Validate())
}

func TestLoadAggregate(t *testing.T) {
	path := writeConfig(t, `
in: ./data/typed_events.jsonl
window: 1h
pg-dsn: postgres://localhost/orderbook
`)
	cfg, err := LoadAggregate(path, nil)
	require.NoError(t, err)
	require.Equal(t, 1000, cfg.BatchSize)
	require.False(t, cfg.Migrate)

	secs, err := cfg.WindowSeconds()
	require.NoError(t, err)
	require.Equal(t, uint64(3600), secs)

	for _, window := range []string{"", "-1m", "500ms", "soon"} {
		cfg.Window = window
		_, err := cfg.WindowSeconds()
		require.Error(t, err, window)
	}
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("")
	require.NoError(t, err)
	require.Zero(t, ts)

	ts, err = ParseTimestamp("1700000000")
	require.NoError(t, err)
	require.Equal(t, uint64(1700000000), ts)

	ts, err = ParseTimestamp("2023-11-14T22:13:20Z")
	require.NoError(t, err)
	require.Equal(t, uint64(1700000000), ts)

	_, err = ParseTimestamp("yesterday")
	require.Error(t, err)
}

func TestLoadDecodeKafkaFlags(t *testing.T) {
	path := writeConfig(t, "in: ./data/logs.jsonl\n")

	flags := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	flags.String("sink", SinkJSONL, "")
	flags.StringSlice("kafka-brokers", nil, "")
	flags.Int("kafka-required-acks", -1, "")
	flags.Duration("kafka-batch-timeout", 50*time.Millisecond, "")
	require.NoError(t, flags.Parse([]string{
		"--sink", "kafka",
		"--kafka-brokers", "broker:9092",
		"--kafka-required-acks", "1",
		"--kafka-batch-timeout", "250ms",
	}))

	cfg, err := LoadDecode(path, flags)
	require.NoError(t, err)
	require.Equal(t, SinkKafka, cfg.Sink)
	require.Equal(t, []string{"broker:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 1, cfg.KafkaRequiredAcks)
	require.Equal(t, 250*time.Millisecond, cfg.KafkaBatchTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoadSimulate(t *testing.T) {
	path := writeConfig(t, "in: ./ops.jsonl\nchain-id: 56\n")

	flags := pflag.NewFlagSet("simulate", pflag.ContinueOnError)
	flags.String("contract", "", "")
	require.NoError(t, flags.Parse([]string{"--contract", "0x1111111111111111111111111111111111111111"}))

	cfg, err := LoadSimulate(path, flags)
	require.NoError(t, err)
	require.Equal(t, "./ops.jsonl", cfg.In)
	require.Equal(t, uint64(56), cfg.ChainID)
	require.Equal(t, SinkJSONL, cfg.Sink)
	require.Equal(t, "./data/simulated_events.jsonl", cfg.Out)
	require.Equal(t, -1, cfg.KafkaRequiredAcks)
	require.NoError(t, cfg.Validate())

	cfg.Contract = "nope"
	require.ErrorContains(t, cfg.Validate(), "invalid contract address")

	cfg.Contract = ""
	cfg.Sink = SinkKafka
	require.Error(t, cfg.Validate())
}
