// Package config holds the partbench settings: defaults, a JSON file and PARTBENCH_* variables.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aglyzov/go-part/internal/xlog"
	"github.com/aglyzov/go-part/part"
	"github.com/mitchellh/mapstructure"
)

// EnvPrefix prefixes every environment variable LoadFromEnv reads.
const EnvPrefix = "PARTBENCH_"

// Config holds the benchmark harness settings.
type Config struct {
	Keys      int         `json:"keys" mapstructure:"keys"`               // number of random keys
	KeySize   int         `json:"key_size" mapstructure:"key_size"`       // bytes per key
	Seed      int64       `json:"seed" mapstructure:"seed"`               // key generator seed
	Baseline  bool        `json:"baseline" mapstructure:"baseline"`       // also time a Go map + sorted slice
	Readers   int         `json:"readers" mapstructure:"readers"`         // concurrent snapshot readers, 0 skips the phase
	Node16    string      `json:"node16" mapstructure:"node16"`           // auto, scalar or swar
	MaxKeyLen int         `json:"max_key_len" mapstructure:"max_key_len"` // tree key limit
	Log       xlog.Config `json:"log" mapstructure:"log"`
}

// Default returns a default config.
func Default() *Config {
	return &Config{
		Keys:      1_000_000,
		KeySize:   100,
		Seed:      1234567890,
		Baseline:  false,
		Readers:   0,
		Node16:    "auto",
		MaxKeyLen: part.DefaultMaxKeyLen,
		Log:       xlog.DefaultConfig(),
	}
}

// Load reads a JSON config file over the defaults. Unknown keys are errors.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config json: %w", err)
	}

	cfg := Default()
	if err := decode(raw, cfg, true); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv reads prefix+KEYS, prefix+KEY_SIZE, ..., prefix+LOG_LEVEL over base (the
// defaults when nil). Variables that are not set leave the value alone.
func LoadFromEnv(prefix string, base *Config) (*Config, error) {
	cfg := Default()
	if base != nil {
		c := *base
		cfg = &c
	}

	var (
		raw = make(map[string]any)
		log = make(map[string]any)
	)
	for _, key := range []string{"keys", "key_size", "seed", "baseline", "readers", "node16", "max_key_len"} {
		if v, ok := os.LookupEnv(prefix + strings.ToUpper(key)); ok {
			raw[key] = v
		}
	}
	for _, key := range []string{"level", "format", "style", "file", "max_size", "max_backups", "max_age", "compress"} {
		if v, ok := os.LookupEnv(prefix + "LOG_" + strings.ToUpper(key)); ok {
			log[key] = v
		}
	}
	if len(log) > 0 {
		raw["log"] = log
	}

	if err := decode(raw, cfg, false); err != nil {
		return nil, fmt.Errorf("decode %s* environment: %w", prefix, err)
	}
	return cfg, nil
}

func decode(raw map[string]any, cfg *Config, strict bool) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      strict,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// Validate checks every field and reports all the invalid ones at once.
func (cfg *Config) Validate() error {
	var invalid []string

	if cfg.Keys <= 0 {
		invalid = append(invalid, fmt.Sprintf("keys(%d)", cfg.Keys))
	}
	if cfg.KeySize <= 0 {
		invalid = append(invalid, fmt.Sprintf("key_size(%d)", cfg.KeySize))
	}
	if cfg.MaxKeyLen <= 0 || cfg.KeySize > cfg.MaxKeyLen {
		invalid = append(invalid, fmt.Sprintf("max_key_len(%d)", cfg.MaxKeyLen))
	}
	if cfg.Readers < 0 {
		invalid = append(invalid, fmt.Sprintf("readers(%d)", cfg.Readers))
	}
	if _, ok := part.ParseKernel(cfg.Node16); !ok {
		invalid = append(invalid, fmt.Sprintf("node16(%q)", cfg.Node16))
	}
	if _, err := xlog.ParseLevel(cfg.Log.Level); err != nil {
		invalid = append(invalid, fmt.Sprintf("log.level(%q)", cfg.Log.Level))
	}
	if _, err := xlog.ParseFormat(cfg.Log.Format); err != nil {
		invalid = append(invalid, fmt.Sprintf("log.format(%q)", cfg.Log.Format))
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// Kernel returns the Node16 kernel named by the config.
func (cfg *Config) Kernel() part.Kernel {
	k, _ := part.ParseKernel(cfg.Node16)
	return k
}

func (cfg *Config) String() string {
	data, _ := json.MarshalIndent(cfg, "", "  ")
	return string(data)
}

func (cfg *Config) Dump(w io.Writer) {
	data, _ := json.MarshalIndent(cfg, "", "  ")
	_, _ = w.Write(data)
}
