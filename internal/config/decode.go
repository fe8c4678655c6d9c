package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DecodeConfig holds configuration for the decode command.
type DecodeConfig struct {
	SinkConfig
	In        string
	Errors    string
	LogLevel  string
	Topic0Map map[string]string
	BatchSize int
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	defaults := sinkDefaults("./data/typed_events.jsonl")
	defaults["errors"] = "./data/decode_errors.jsonl"
	defaults["batch-size"] = 500
	defaults["log-level"] = "info"

	v, err := newViper(cfgFile, flags, defaults)
	if err != nil {
		return DecodeConfig{}, err
	}

	cfg := DecodeConfig{
		SinkConfig: loadSinkConfig(v),
		In:         v.GetString("in"),
		Errors:     v.GetString("errors"),
		LogLevel:   v.GetString("log-level"),
		Topic0Map:  getStringMap(v, "topic0-map"),
		BatchSize:  v.GetInt("batch-size"),
	}

	return cfg, nil
}

// Validate checks the input paths and the sink settings.
func (c DecodeConfig) Validate() error {
	if c.In == "" {
		return fmt.Errorf("input path is required")
	}
	if c.Errors == "" {
		return fmt.Errorf("errors path is required")
	}
	return c.SinkConfig.Validate()
}

func getStringMap(v *viper.Viper, key string) map[string]string {
	if !v.IsSet(key) {
		return map[string]string{}
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case map[string]string:
		return typed
	case map[string]interface{}:
		out := make(map[string]string, len(typed))
		for k, v := range typed {
			out[k] = fmt.Sprintf("%v", v)
		}
		return out
	case string:
		return parseStringMap(typed)
	default:
		return map[string]string{}
	}
}

func parseStringMap(input string) map[string]string {
	out := make(map[string]string)
	if strings.TrimSpace(input) == "" {
		return out
	}
	pairs := strings.Split(input, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}
