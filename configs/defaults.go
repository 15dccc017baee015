package configs

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets default configuration values for all components. Values
// already present (from file, env, or flags) are left untouched.
func setDefaults(v *viper.Viper) {
	// Application defaults
	if !v.IsSet("verbose") {
		v.Set("verbose", false)
	}
	if !v.IsSet("log_level") {
		v.Set("log_level", "info")
	}
	if !v.IsSet("output_format") {
		v.Set("output_format", "table")
	}

	// Signal acquisition defaults (Muse S headband)
	if !v.IsSet("pipeline.sample_rate") {
		v.Set("pipeline.sample_rate", 256)
	}
	if !v.IsSet("pipeline.window_size") {
		v.Set("pipeline.window_size", 64)
	}
	if !v.IsSet("pipeline.channels") {
		v.Set("pipeline.channels", 4)
	}
	if !v.IsSet("pipeline.buffer_capacity") {
		v.Set("pipeline.buffer_capacity", 0) // 0 = 3x window size
	}

	// Power-line interference: 50 Hz in Europe, 60 Hz in the US.
	if !v.IsSet("pipeline.line_freq") {
		v.Set("pipeline.line_freq", 50.0)
	}
	if !v.IsSet("pipeline.notch_q") {
		v.Set("pipeline.notch_q", 30.0)
	}

	if !v.IsSet("pipeline.calibration_duration") {
		v.Set("pipeline.calibration_duration", 5*time.Second)
	}

	// Composite index defaults. These weights are empirically chosen; they
	// are configuration, not derived constants.
	if !v.IsSet("pipeline.metrics.attention_beta_weight") {
		v.Set("pipeline.metrics.attention_beta_weight", 0.7)
	}
	if !v.IsSet("pipeline.metrics.attention_gamma_weight") {
		v.Set("pipeline.metrics.attention_gamma_weight", 0.3)
	}
	if !v.IsSet("pipeline.metrics.relaxation_alpha_weight") {
		v.Set("pipeline.metrics.relaxation_alpha_weight", 0.8)
	}
	if !v.IsSet("pipeline.metrics.relaxation_theta_weight") {
		v.Set("pipeline.metrics.relaxation_theta_weight", 0.2)
	}
	if !v.IsSet("pipeline.metrics.smoothing_length") {
		v.Set("pipeline.metrics.smoothing_length", 5)
	}
	if !v.IsSet("pipeline.metrics.clip_max") {
		v.Set("pipeline.metrics.clip_max", 2.0)
	}

	// FFT cache defaults
	if !v.IsSet("pipeline.cache.enabled") {
		v.Set("pipeline.cache.enabled", false)
	}
	if !v.IsSet("pipeline.cache.capacity") {
		v.Set("pipeline.cache.capacity", 100)
	}

	// Signal quality thresholds
	if !v.IsSet("pipeline.quality.variance_min") {
		v.Set("pipeline.quality.variance_min", 10.0)
	}
	if !v.IsSet("pipeline.quality.variance_max") {
		v.Set("pipeline.quality.variance_max", 10000.0)
	}
	if !v.IsSet("pipeline.quality.amplitude_max") {
		v.Set("pipeline.quality.amplitude_max", 500.0)
	}
	if !v.IsSet("pipeline.quality.alpha_power_min") {
		v.Set("pipeline.quality.alpha_power_min", 0.1)
	}
	if !v.IsSet("pipeline.quality.line_noise_max") {
		v.Set("pipeline.quality.line_noise_max", 0.3)
	}

	// Quality sub-score weights
	if !v.IsSet("pipeline.quality.variance_weight") {
		v.Set("pipeline.quality.variance_weight", 0.30)
	}
	if !v.IsSet("pipeline.quality.amplitude_weight") {
		v.Set("pipeline.quality.amplitude_weight", 0.20)
	}
	if !v.IsSet("pipeline.quality.alpha_power_weight") {
		v.Set("pipeline.quality.alpha_power_weight", 0.15)
	}
	if !v.IsSet("pipeline.quality.line_noise_weight") {
		v.Set("pipeline.quality.line_noise_weight", 0.15)
	}
	if !v.IsSet("pipeline.quality.artifacts_weight") {
		v.Set("pipeline.quality.artifacts_weight", 0.15)
	}
	if !v.IsSet("pipeline.quality.stationarity_weight") {
		v.Set("pipeline.quality.stationarity_weight", 0.05)
	}
}
