package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
)

// SimulateConfig holds configuration for the simulate command.
type SimulateConfig struct {
	SinkConfig
	In       string
	ChainID  uint64
	Contract string
	LogLevel string
}

// LoadSimulate merges config file, environment variables, and flags into SimulateConfig.
func LoadSimulate(cfgFile string, flags *pflag.FlagSet) (SimulateConfig, error) {
	defaults := sinkDefaults("./data/simulated_events.jsonl")
	defaults["log-level"] = "info"

	v, err := newViper(cfgFile, flags, defaults)
	if err != nil {
		return SimulateConfig{}, err
	}

	cfg := SimulateConfig{
		SinkConfig: loadSinkConfig(v),
		In:         v.GetString("in"),
		ChainID:    v.GetUint64("chain-id"),
		Contract:   v.GetString("contract"),
		LogLevel:   v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks the input path, the contract address and the sink settings.
func (c SimulateConfig) Validate() error {
	if c.In == "" {
		return fmt.Errorf("input path is required")
	}
	if c.Contract != "" && !common.IsHexAddress(c.Contract) {
		return fmt.Errorf("invalid contract address: %s", c.Contract)
	}
	return c.SinkConfig.Validate()
}
