package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brainart/eeg-pipeline/pkg/eeg/common"
	"github.com/brainart/eeg-pipeline/pkg/logging"
)

func testMetricsConfig() common.MetricsConfig {
	return common.DefaultConfig().Metrics
}

func newTestComputer() *Computer {
	return NewComputer(testMetricsConfig(), logging.NewNopLogger())
}

func TestIndicesStayInUnitRange(t *testing.T) {
	c := newTestComputer()

	extremes := []map[string]float64{
		{"alpha": 1000, "theta": 1000, "beta": 1000, "gamma": 1000},
		{"alpha": 0, "theta": 0, "beta": 0, "gamma": 0},
		{"alpha": -5, "theta": -5, "beta": -5, "gamma": -5},
	}
	for _, normalized := range extremes {
		att := c.Attention(normalized)
		rel := c.Relaxation(normalized)
		assert.GreaterOrEqual(t, att, 0.0)
		assert.LessOrEqual(t, att, 1.0)
		assert.GreaterOrEqual(t, rel, 0.0)
		assert.LessOrEqual(t, rel, 1.0)
	}
}

func TestBaselineRatiosYieldMidpoint(t *testing.T) {
	c := newTestComputer()

	// All ratios at 1.0 mean "at baseline": weighted sum 1.0, clipped to
	// [0, 2] and halved, giving exactly 0.5.
	normalized := map[string]float64{"alpha": 1, "theta": 1, "beta": 1, "gamma": 1}
	assert.InDelta(t, 0.5, c.Attention(normalized), 1e-12)
	assert.InDelta(t, 0.5, c.Relaxation(normalized), 1e-12)
}

func TestSmoothingIsRollingMean(t *testing.T) {
	cfg := testMetricsConfig()
	cfg.SmoothingLength = 3
	c := NewComputer(cfg, logging.NewNopLogger())

	// Raw values map to 1, 0, 0 after clipping; rolling means 1, 0.5, 1/3.
	high := map[string]float64{"alpha": 2.5, "theta": 2.5} // raw 2.5 clips to 2, maps to 1
	zero := map[string]float64{"alpha": 0, "theta": 0}

	assert.InDelta(t, 1.0, c.Relaxation(high), 1e-12)
	assert.InDelta(t, 0.5, c.Relaxation(zero), 1e-12)
	assert.InDelta(t, 1.0/3.0, c.Relaxation(zero), 1e-12)

	// Fourth push evicts the first value: history is {0, 0, 0}.
	assert.InDelta(t, 0.0, c.Relaxation(zero), 1e-12)
}

func TestAttentionAndRelaxationAreIndependent(t *testing.T) {
	c := newTestComputer()

	// Pushing attention values must not advance the relaxation history.
	focus := map[string]float64{"beta": 2, "gamma": 2, "alpha": 0, "theta": 0}
	for loopIter := 0; loopIter < 5; loopIter++ {
		c.Attention(focus)
	}

	calm := map[string]float64{"alpha": 2.5, "theta": 2.5}
	assert.InDelta(t, 1.0, c.Relaxation(calm), 1e-12,
		"first relaxation sample should not be diluted by attention history")
}

func TestMissingBandsCountAsZero(t *testing.T) {
	c := newTestComputer()

	att := c.Attention(map[string]float64{})
	assert.InDelta(t, 0.0, att, 1e-12)
}

func TestReset(t *testing.T) {
	c := newTestComputer()

	zero := map[string]float64{"alpha": 0, "theta": 0}
	for loopIter := 0; loopIter < 4; loopIter++ {
		c.Relaxation(zero)
	}

	c.Reset()

	calm := map[string]float64{"alpha": 2.5, "theta": 2.5}
	assert.InDelta(t, 1.0, c.Relaxation(calm), 1e-12,
		"history should be empty after Reset")
}

func TestClip(t *testing.T) {
	assert.Equal(t, 0.0, clip(-1, 0, 2))
	assert.Equal(t, 2.0, clip(3, 0, 2))
	assert.Equal(t, 1.5, clip(1.5, 0, 2))
}
