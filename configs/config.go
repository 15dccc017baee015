// Package configs loads and validates the application configuration. The
// pipeline itself never reads viper; it receives the explicit Config structs
// assembled here.
package configs

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/brainart/eeg-pipeline/pkg/eeg/common"
)

// Config represents the application configuration.
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose"`
	LogLevel     string `mapstructure:"log_level"`
	OutputFormat string `mapstructure:"output_format"`

	// Pipeline holds every tunable of the signal core.
	Pipeline common.Config `mapstructure:"pipeline"`
}

// LoadConfig loads configuration from viper into an explicit Config.
func LoadConfig() (*Config, error) {
	return Load(viper.GetViper())
}

// Load unmarshals the given viper instance, applies defaults for anything
// unset, and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	// The band table and channel names are structured values that viper
	// defaults handle poorly; fill them in code when absent.
	if len(config.Pipeline.Bands) == 0 {
		config.Pipeline.Bands = common.DefaultBands()
	}
	if len(config.Pipeline.ChannelNames) == 0 {
		config.Pipeline.ChannelNames = common.DefaultConfig().ChannelNames
	}

	if err := ValidateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// ValidateConfig validates the configuration. Errors here are intentionally
// fatal: they indicate a reasoning error in system setup, and a silent
// fallback would hide it.
func ValidateConfig(config *Config) error {
	switch config.OutputFormat {
	case "", "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q", config.OutputFormat)
	}

	if err := config.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline configuration: %w", err)
	}
	return nil
}
