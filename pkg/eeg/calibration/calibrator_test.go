package calibration

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainart/eeg-pipeline/pkg/eeg/common"
	"github.com/brainart/eeg-pipeline/pkg/logging"
)

func newTestCalibrator() *Calibrator {
	return New(logging.NewNopLogger())
}

func TestStateMachine(t *testing.T) {
	c := newTestCalibrator()
	assert.Equal(t, Uncalibrated, c.State())
	assert.False(t, c.IsCalibrated())

	c.BeginCalibration()
	assert.Equal(t, Calibrating, c.State())
	assert.False(t, c.IsCalibrated())

	require.NoError(t, c.SetBaseline(map[string]float64{"alpha": 2}))
	assert.Equal(t, Calibrated, c.State())
	assert.True(t, c.IsCalibrated())

	c.Reset()
	assert.Equal(t, Uncalibrated, c.State())
	assert.Nil(t, c.Baseline())
}

func TestNormalizeBeforeCalibrationFailsEveryTime(t *testing.T) {
	c := newTestCalibrator()
	current := map[string]float64{"alpha": 1}

	for loopIter := 0; loopIter < 3; loopIter++ {
		_, err := c.Normalize(current)
		require.Error(t, err)
		assert.True(t, common.IsCode(err, common.ErrCodeNotCalibrated))
	}

	// Calibrating is not enough either.
	c.BeginCalibration()
	_, err := c.Normalize(current)
	assert.True(t, common.IsCode(err, common.ErrCodeNotCalibrated))
}

func TestSetBaselineRequiresBegin(t *testing.T) {
	c := newTestCalibrator()

	err := c.SetBaseline(map[string]float64{"alpha": 2})
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.ErrCodeNotCalibrated))
}

func TestSetBaselineValidation(t *testing.T) {
	tests := []struct {
		name     string
		baseline map[string]float64
		code     string
	}{
		{"empty", map[string]float64{}, common.ErrCodeShape},
		{"negative", map[string]float64{"alpha": -1}, common.ErrCodeShape},
		{"nan", map[string]float64{"alpha": math.NaN()}, common.ErrCodeNonFiniteValue},
		{"inf", map[string]float64{"alpha": math.Inf(1)}, common.ErrCodeNonFiniteValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCalibrator()
			c.BeginCalibration()

			err := c.SetBaseline(tt.baseline)
			require.Error(t, err)
			assert.True(t, common.IsCode(err, tt.code))
			assert.Equal(t, Calibrating, c.State(), "failed SetBaseline must not calibrate")
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	c := newTestCalibrator()
	c.BeginCalibration()
	require.NoError(t, c.SetBaseline(map[string]float64{"alpha": 4, "beta": 2}))

	current := map[string]float64{"alpha": 8, "beta": 1}
	first, err := c.Normalize(current)
	require.NoError(t, err)
	second, err := c.Normalize(current)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.InDelta(t, 2.0, first["alpha"], 1e-12)
	assert.InDelta(t, 0.5, first["beta"], 1e-12)
}

func TestNormalizeFloorsZeroBaseline(t *testing.T) {
	c := newTestCalibrator()
	c.BeginCalibration()
	require.NoError(t, c.SetBaseline(map[string]float64{"alpha": 0}))

	ratios, err := c.Normalize(map[string]float64{"alpha": 1e-3})
	require.NoError(t, err)
	assert.False(t, math.IsInf(ratios["alpha"], 0))
	assert.InDelta(t, 1e-3/1e-9, ratios["alpha"], 1)
}

func TestBeginCalibrationDiscardsBaseline(t *testing.T) {
	c := newTestCalibrator()
	c.BeginCalibration()
	require.NoError(t, c.SetBaseline(map[string]float64{"alpha": 2}))

	c.BeginCalibration()
	assert.Nil(t, c.Baseline())
	_, err := c.Normalize(map[string]float64{"alpha": 1})
	assert.True(t, common.IsCode(err, common.ErrCodeNotCalibrated))
}

func TestBaselineReturnsCopy(t *testing.T) {
	c := newTestCalibrator()
	c.BeginCalibration()
	require.NoError(t, c.SetBaseline(map[string]float64{"alpha": 2}))

	snap := c.Baseline()
	snap["alpha"] = 99

	ratios, err := c.Normalize(map[string]float64{"alpha": 2})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ratios["alpha"], 1e-12)
}
