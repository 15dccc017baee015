package common

import (
	"fmt"
	"math"
	"time"
)

// Band names used throughout the pipeline.
const (
	BandDelta = "delta"
	BandTheta = "theta"
	BandAlpha = "alpha"
	BandBeta  = "beta"
	BandGamma = "gamma"
)

// Band defines a named frequency range. Bins with low <= f < high belong to
// the band.
type Band struct {
	Name string  `mapstructure:"name" json:"name"`
	Low  float64 `mapstructure:"low" json:"low"`
	High float64 `mapstructure:"high" json:"high"`
}

// Config carries every tunable of the signal pipeline. Components receive it
// (or a sub-struct) explicitly at construction; nothing reads global state.
type Config struct {
	SampleRate   int      `mapstructure:"sample_rate"`
	WindowSize   int      `mapstructure:"window_size"`
	Channels     int      `mapstructure:"channels"`
	ChannelNames []string `mapstructure:"channel_names"`

	// LineFreq is the power-line interference frequency (50 or 60 Hz).
	LineFreq float64 `mapstructure:"line_freq"`
	// NotchQ is the notch filter quality factor.
	NotchQ float64 `mapstructure:"notch_q"`

	// BufferCapacity is the ring capacity in samples per channel. Zero means
	// 3x the window size.
	BufferCapacity int `mapstructure:"buffer_capacity"`

	CalibrationDuration time.Duration `mapstructure:"calibration_duration"`

	Bands   []Band        `mapstructure:"bands"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Quality QualityConfig `mapstructure:"quality"`
}

// MetricsConfig holds the composite index weights and smoothing parameters.
// The weights are empirically chosen configuration defaults, not derived
// constants.
type MetricsConfig struct {
	AttentionBetaWeight   float64 `mapstructure:"attention_beta_weight"`
	AttentionGammaWeight  float64 `mapstructure:"attention_gamma_weight"`
	RelaxationAlphaWeight float64 `mapstructure:"relaxation_alpha_weight"`
	RelaxationThetaWeight float64 `mapstructure:"relaxation_theta_weight"`
	SmoothingLength       int     `mapstructure:"smoothing_length"`
	ClipMax               float64 `mapstructure:"clip_max"`
}

// CacheConfig controls the optional FFT result cache.
type CacheConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Capacity int  `mapstructure:"capacity"`
}

// QualityConfig holds the signal-quality thresholds and sub-score weights.
// The weights are empirically chosen defaults.
type QualityConfig struct {
	VarianceMin   float64 `mapstructure:"variance_min"`  // µV², below = poor contact
	VarianceMax   float64 `mapstructure:"variance_max"`  // µV², above = artifacts
	AmplitudeMax  float64 `mapstructure:"amplitude_max"` // µV peak-to-peak
	AlphaPowerMin float64 `mapstructure:"alpha_power_min"`
	LineNoiseMax  float64 `mapstructure:"line_noise_max"`

	VarianceWeight     float64 `mapstructure:"variance_weight"`
	AmplitudeWeight    float64 `mapstructure:"amplitude_weight"`
	AlphaPowerWeight   float64 `mapstructure:"alpha_power_weight"`
	LineNoiseWeight    float64 `mapstructure:"line_noise_weight"`
	ArtifactsWeight    float64 `mapstructure:"artifacts_weight"`
	StationarityWeight float64 `mapstructure:"stationarity_weight"`
}

// DefaultBands returns the standard EEG band table.
func DefaultBands() []Band {
	return []Band{
		{Name: BandDelta, Low: 1, High: 4},
		{Name: BandTheta, Low: 4, High: 8},
		{Name: BandAlpha, Low: 8, High: 13},
		{Name: BandBeta, Low: 13, High: 30},
		{Name: BandGamma, Low: 30, High: 44},
	}
}

// DefaultConfig returns the pipeline defaults for a Muse S headband.
func DefaultConfig() *Config {
	return &Config{
		SampleRate:          256,
		WindowSize:          64,
		Channels:            4,
		ChannelNames:        []string{"TP9", "AF7", "AF8", "TP10"},
		LineFreq:            50,
		NotchQ:              30,
		BufferCapacity:      0,
		CalibrationDuration: 5 * time.Second,
		Bands:               DefaultBands(),
		Metrics: MetricsConfig{
			AttentionBetaWeight:   0.7,
			AttentionGammaWeight:  0.3,
			RelaxationAlphaWeight: 0.8,
			RelaxationThetaWeight: 0.2,
			SmoothingLength:       5,
			ClipMax:               2.0,
		},
		Cache: CacheConfig{
			Enabled:  false,
			Capacity: 100,
		},
		Quality: QualityConfig{
			VarianceMin:   10,
			VarianceMax:   10000,
			AmplitudeMax:  500,
			AlphaPowerMin: 0.1,
			LineNoiseMax:  0.3,

			VarianceWeight:     0.30,
			AmplitudeWeight:    0.20,
			AlphaPowerWeight:   0.15,
			LineNoiseWeight:    0.15,
			ArtifactsWeight:    0.15,
			StationarityWeight: 0.05,
		},
	}
}

// Nyquist returns half the sample rate.
func (c *Config) Nyquist() float64 {
	return float64(c.SampleRate) / 2
}

// RingCapacity resolves the effective buffer capacity.
func (c *Config) RingCapacity() int {
	if c.BufferCapacity > 0 {
		return c.BufferCapacity
	}
	return c.WindowSize * 3
}

// ChannelName returns the electrode name for a channel index.
func (c *Config) ChannelName(ch int) string {
	if ch >= 0 && ch < len(c.ChannelNames) {
		return c.ChannelNames[ch]
	}
	return fmt.Sprintf("CH%d", ch)
}

// Validate rejects configurations the pipeline cannot run with. These are
// setup errors and intentionally fatal; there is no silent fallback.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("window size must be positive, got %d", c.WindowSize)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channel count must be positive, got %d", c.Channels)
	}
	if c.LineFreq != 50 && c.LineFreq != 60 {
		return fmt.Errorf("line frequency must be 50 or 60 Hz, got %g", c.LineFreq)
	}
	if c.NotchQ <= 0 {
		return fmt.Errorf("notch quality factor must be positive, got %g", c.NotchQ)
	}
	if c.BufferCapacity < 0 {
		return fmt.Errorf("buffer capacity cannot be negative, got %d", c.BufferCapacity)
	}
	if c.RingCapacity() < c.WindowSize {
		return fmt.Errorf("buffer capacity %d is smaller than window size %d",
			c.RingCapacity(), c.WindowSize)
	}
	if len(c.Bands) == 0 {
		return fmt.Errorf("band table is empty")
	}
	for _, b := range c.Bands {
		if b.Name == "" {
			return fmt.Errorf("band with range [%g, %g) has no name", b.Low, b.High)
		}
		if b.Low < 0 || b.High <= b.Low {
			return fmt.Errorf("band %s has invalid range [%g, %g)", b.Name, b.Low, b.High)
		}
	}
	if c.Metrics.SmoothingLength <= 0 {
		return fmt.Errorf("smoothing length must be positive, got %d", c.Metrics.SmoothingLength)
	}
	if c.Metrics.ClipMax <= 0 || math.IsInf(c.Metrics.ClipMax, 0) {
		return fmt.Errorf("clip max must be positive and finite, got %g", c.Metrics.ClipMax)
	}
	if c.Cache.Enabled && c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache capacity must be positive when the cache is enabled, got %d",
			c.Cache.Capacity)
	}
	if c.Quality.VarianceMin < 0 || c.Quality.VarianceMax <= c.Quality.VarianceMin {
		return fmt.Errorf("quality variance thresholds are invalid: min %g max %g",
			c.Quality.VarianceMin, c.Quality.VarianceMax)
	}
	weightSum := c.Quality.VarianceWeight + c.Quality.AmplitudeWeight +
		c.Quality.AlphaPowerWeight + c.Quality.LineNoiseWeight +
		c.Quality.ArtifactsWeight + c.Quality.StationarityWeight
	if math.Abs(weightSum-1) > 1e-6 {
		return fmt.Errorf("quality metric weights must sum to 1, got %g", weightSum)
	}
	return nil
}
