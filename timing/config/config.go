// Package config loads, validates and saves temporal-stream predictor
// configurations, and builds predictors from them.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/tspred/timing/bpred"
	"github.com/sarchlab/tspred/timing/temporal"
)

// HeadTableConfig sizes the context table. Zero sets and ways mean an
// unbounded table.
type HeadTableConfig struct {
	Sets int `json:"sets" yaml:"sets"`
	Ways int `json:"ways" yaml:"ways"`
}

// Config holds the full predictor configuration.
type Config struct {
	// Base names the wrapped base predictor ("bimode" or "bimodal").
	// Default: "bimode".
	Base string `json:"base" yaml:"base"`

	// BufferCapacity is the number of cells in the correctness stream.
	// Default: 8192.
	BufferCapacity int `json:"buffer_capacity" yaml:"buffer_capacity"`

	// HistoryBits is the width of the per-thread global history register.
	// Default: 140.
	HistoryBits uint `json:"history_bits" yaml:"history_bits"`

	// Threads is the number of hardware thread contexts. Default: 1.
	Threads int `json:"threads" yaml:"threads"`

	// HeadTable bounds the context table. Default: unbounded.
	HeadTable HeadTableConfig `json:"head_table" yaml:"head_table"`

	// Bimodal configures the bimodal base predictor.
	Bimodal bpred.BimodalConfig `json:"bimodal" yaml:"bimodal"`

	// BiMode configures the bi-mode base predictor.
	BiMode bpred.BiModeConfig `json:"bimode" yaml:"bimode"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Base:           "bimode",
		BufferCapacity: 8192,
		HistoryBits:    140,
		Threads:        1,
		Bimodal:        bpred.DefaultBimodalConfig(),
		BiMode:         bpred.DefaultBiModeConfig(),
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Load reads a Config from a JSON or YAML file, chosen by extension.
// Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read predictor config file: %w", err)
	}

	config := Default()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse predictor config: %w", err)
	}

	return config, nil
}

// Save writes the Config to a JSON or YAML file, chosen by extension.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize predictor config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write predictor config file: %w", err)
	}

	return nil
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if _, err := bpred.LookupFactory(c.Base); err != nil {
		return err
	}
	if c.BufferCapacity <= 0 {
		return fmt.Errorf("buffer_capacity must be > 0")
	}
	if c.HistoryBits == 0 || c.HistoryBits > temporal.MaxHistoryBits {
		return fmt.Errorf("history_bits must be in [1, %d]", temporal.MaxHistoryBits)
	}
	if c.Threads <= 0 || c.Threads > bpred.MaxThreads {
		return fmt.Errorf("threads must be in [1, %d]", bpred.MaxThreads)
	}
	if c.HeadTable.Sets < 0 || c.HeadTable.Ways < 0 {
		return fmt.Errorf("head_table sets and ways must be >= 0")
	}
	if (c.HeadTable.Sets == 0) != (c.HeadTable.Ways == 0) {
		return fmt.Errorf("head_table sets and ways must both be set or both be 0")
	}
	if !powerOfTwo(c.Bimodal.BHTSize) || !powerOfTwo(c.Bimodal.BTBSize) {
		return fmt.Errorf("bimodal bht_size and btb_size must be powers of 2")
	}
	if !powerOfTwo(c.BiMode.GlobalSize) || !powerOfTwo(c.BiMode.ChoiceSize) {
		return fmt.Errorf("bimode global_size and choice_size must be powers of 2")
	}
	return nil
}

func powerOfTwo(n uint32) bool {
	return n != 0 && n&(n-1) == 0
}

// BaseFactory returns the factory for the configured base predictor, sized
// from this Config.
func (c *Config) BaseFactory() (bpred.Factory, error) {
	switch c.Base {
	case "bimodal":
		bimodal := c.Bimodal
		return func(int) bpred.Predictor {
			return bpred.NewBimodal(bimodal)
		}, nil
	case "bimode":
		bimode := c.BiMode
		return func(threads int) bpred.Predictor {
			return bpred.NewBiMode(bimode, threads)
		}, nil
	default:
		return bpred.LookupFactory(c.Base)
	}
}

// Temporal converts the Config into the predictor's own configuration.
func (c *Config) Temporal() (temporal.Config, error) {
	factory, err := c.BaseFactory()
	if err != nil {
		return temporal.Config{}, err
	}

	return temporal.Config{
		BufferCapacity: c.BufferCapacity,
		HistoryBits:    c.HistoryBits,
		Threads:        c.Threads,
		HeadTableSets:  c.HeadTable.Sets,
		HeadTableWays:  c.HeadTable.Ways,
		Base:           factory,
	}, nil
}

// Build validates the Config and builds the predictor.
func (c *Config) Build() (*temporal.Predictor, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid predictor config: %w", err)
	}

	tc, err := c.Temporal()
	if err != nil {
		return nil, err
	}

	return temporal.New(tc)
}
