package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSampleWindowTransposesToChannelMajor(t *testing.T) {
	samples := [][]float64{
		{1, 10},
		{2, 20},
		{3, 30},
	}
	w, err := NewSampleWindow(samples, 2, 256)
	require.NoError(t, err)

	assert.Equal(t, 2, w.Channels())
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, []float64{1, 2, 3}, w.Data[0])
	assert.Equal(t, []float64{10, 20, 30}, w.Data[1])
}

func TestNewSampleWindowValidation(t *testing.T) {
	_, err := NewSampleWindow(nil, 2, 256)
	assert.True(t, IsCode(err, ErrCodeShape))

	_, err = NewSampleWindow([][]float64{{1, 2}, {3}}, 2, 256)
	assert.True(t, IsCode(err, ErrCodeShape))

	_, err = NewSampleWindow([][]float64{{1, math.NaN()}}, 2, 256)
	assert.True(t, IsCode(err, ErrCodeNonFiniteValue))

	_, err = NewSampleWindow([][]float64{{1, math.Inf(-1)}}, 2, 256)
	assert.True(t, IsCode(err, ErrCodeNonFiniteValue))
}

func TestNewSampleWindowFromChannelsValidation(t *testing.T) {
	_, err := NewSampleWindowFromChannels([][]float64{}, 256)
	assert.True(t, IsCode(err, ErrCodeShape))

	_, err = NewSampleWindowFromChannels([][]float64{{1, 2}, {3}}, 256)
	assert.True(t, IsCode(err, ErrCodeShape))

	w, err := NewSampleWindowFromChannels([][]float64{{1, 2}, {3, 4}}, 256)
	require.NoError(t, err)
	assert.Equal(t, 2, w.Channels())
	assert.Equal(t, 2, w.Len())
}

func TestCloneIsDeep(t *testing.T) {
	w, err := NewSampleWindowFromChannels([][]float64{{1, 2}}, 256)
	require.NoError(t, err)

	clone := w.Clone()
	clone.Data[0][0] = 99
	assert.Equal(t, 1.0, w.Data[0][0])
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"zero window", func(c *Config) { c.WindowSize = 0 }},
		{"zero channels", func(c *Config) { c.Channels = 0 }},
		{"line freq 55", func(c *Config) { c.LineFreq = 55 }},
		{"negative notch q", func(c *Config) { c.NotchQ = -1 }},
		{"buffer smaller than window", func(c *Config) { c.BufferCapacity = 32 }},
		{"empty bands", func(c *Config) { c.Bands = nil }},
		{"unnamed band", func(c *Config) { c.Bands = []Band{{Low: 1, High: 4}} }},
		{"inverted band", func(c *Config) { c.Bands = []Band{{Name: "x", Low: 4, High: 4}} }},
		{"zero smoothing", func(c *Config) { c.Metrics.SmoothingLength = 0 }},
		{"zero clip max", func(c *Config) { c.Metrics.ClipMax = 0 }},
		{"cache without capacity", func(c *Config) {
			c.Cache.Enabled = true
			c.Cache.Capacity = 0
		}},
		{"quality weights off", func(c *Config) { c.Quality.ArtifactsWeight = 0.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRingCapacityDefault(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg.WindowSize*3, cfg.RingCapacity())

	cfg.BufferCapacity = 1024
	assert.Equal(t, 1024, cfg.RingCapacity())
}

func TestChannelName(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "TP9", cfg.ChannelName(0))
	assert.Equal(t, "TP10", cfg.ChannelName(3))
	assert.Equal(t, "CH7", cfg.ChannelName(7))
}
