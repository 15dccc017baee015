package eeg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainart/eeg-pipeline/pkg/eeg/calibration"
	"github.com/brainart/eeg-pipeline/pkg/eeg/common"
	"github.com/brainart/eeg-pipeline/pkg/logging"
)

func testProcessor(t *testing.T) *Processor {
	t.Helper()
	p, err := NewProcessor(common.DefaultConfig(), logging.NewNopLogger())
	require.NoError(t, err)
	return p
}

// toneWindow builds one window with the same sine on every channel.
func toneWindow(t *testing.T, cfg *common.Config, n int, freq, amplitude float64) *common.SampleWindow {
	t.Helper()
	data := make([][]float64, cfg.Channels)
	for ch := range data {
		data[ch] = make([]float64, n)
		for i := 0; i < n; i++ {
			data[ch][i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(cfg.SampleRate))
		}
	}
	w, err := common.NewSampleWindowFromChannels(data, cfg.SampleRate)
	require.NoError(t, err)
	return w
}

func TestNewProcessorRejectsInvalidConfig(t *testing.T) {
	cfg := common.DefaultConfig()
	cfg.LineFreq = 55

	_, err := NewProcessor(cfg, logging.NewNopLogger())
	require.Error(t, err)
}

func TestNewProcessorRejectsUnfilterableLineFreq(t *testing.T) {
	cfg := common.DefaultConfig()
	cfg.SampleRate = 60 // Nyquist 30 Hz, below the 50 Hz notch

	_, err := NewProcessor(cfg, logging.NewNopLogger())
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.ErrCodeFilterState))
}

func TestAnalyzeBeforeDataFails(t *testing.T) {
	p := testProcessor(t)

	_, err := p.Analyze()
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.ErrCodeInsufficientData))
	assert.Nil(t, p.Current())
}

func TestAnalyzeUncalibratedReportsNeutralIndices(t *testing.T) {
	p := testProcessor(t)
	cfg := p.Config()

	require.NoError(t, p.Push(toneWindow(t, cfg, cfg.WindowSize, 10, 50)))
	snap, err := p.Analyze()
	require.NoError(t, err)

	assert.False(t, snap.Calibrated)
	assert.Nil(t, snap.Normalized)
	assert.Equal(t, 0.5, snap.Attention)
	assert.Equal(t, 0.5, snap.Relaxation)
	assert.Equal(t, snap, p.Current())
}

func TestAnalyzeAlphaDominantEndToEnd(t *testing.T) {
	p := testProcessor(t)
	cfg := p.Config()

	// 8 Hz lies in alpha [8, 13); no power-line content to filter out.
	require.NoError(t, p.Push(toneWindow(t, cfg, cfg.WindowSize, 8, 50)))
	snap, err := p.Analyze()
	require.NoError(t, err)

	alpha := snap.Bands[common.BandAlpha]
	for _, name := range []string{common.BandDelta, common.BandBeta, common.BandGamma} {
		assert.Less(t, snap.Bands[name], alpha, "%s should be below alpha", name)
	}
	require.Len(t, snap.PerChannel[common.BandAlpha], cfg.Channels)
}

func TestCalibrationYieldsMidpointAtBaseline(t *testing.T) {
	p := testProcessor(t)
	cfg := p.Config()

	w := toneWindow(t, cfg, cfg.WindowSize, 8, 50)
	require.NoError(t, p.Push(w))

	first, err := p.Analyze()
	require.NoError(t, err)

	p.BeginCalibration()
	assert.Equal(t, calibration.Calibrating, p.CalibrationState())
	require.NoError(t, p.SetBaseline(first.Bands))
	assert.Equal(t, calibration.Calibrated, p.CalibrationState())

	// Same signal as the baseline: every ratio is 1 and both indices sit at
	// the 0.5 midpoint.
	require.NoError(t, p.Push(w))
	snap, err := p.Analyze()
	require.NoError(t, err)

	assert.True(t, snap.Calibrated)
	require.NotNil(t, snap.Normalized)
	// Delta is excluded: at 64 samples the 4 Hz bin spacing leaves [1, 4)
	// without bins, so its power (and ratio) is zero.
	for _, name := range []string{common.BandTheta, common.BandAlpha, common.BandBeta, common.BandGamma} {
		assert.InDelta(t, 1.0, snap.Normalized[name], 1e-9, "band %s", name)
	}
	assert.InDelta(t, 0.5, snap.Attention, 0.05)
	assert.InDelta(t, 0.5, snap.Relaxation, 0.05)
}

func TestRelaxationRisesWithAlpha(t *testing.T) {
	p := testProcessor(t)
	cfg := p.Config()

	quiet := toneWindow(t, cfg, cfg.WindowSize, 8, 20)
	loud := toneWindow(t, cfg, cfg.WindowSize, 8, 60)

	require.NoError(t, p.Push(quiet))
	base, err := p.Analyze()
	require.NoError(t, err)

	p.BeginCalibration()
	require.NoError(t, p.SetBaseline(base.Bands))

	// 3x the amplitude means 9x the alpha power relative to baseline.
	var snap *Snapshot
	for loopIter := 0; loopIter < cfg.Metrics.SmoothingLength; loopIter++ {
		require.NoError(t, p.Push(loud))
		snap, err = p.Analyze()
		require.NoError(t, err)
	}
	assert.Greater(t, snap.Relaxation, 0.9)
}

func TestRejectedWindowLeavesStateIntact(t *testing.T) {
	p := testProcessor(t)
	cfg := p.Config()

	require.NoError(t, p.Push(toneWindow(t, cfg, cfg.WindowSize, 8, 50)))
	before, err := p.Analyze()
	require.NoError(t, err)

	// Wrong channel count.
	bad := &common.SampleWindow{
		Data:       [][]float64{make([]float64, cfg.WindowSize)},
		SampleRate: cfg.SampleRate,
	}
	err = p.Push(bad)
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.ErrCodeShape))

	// Non-finite transport data.
	samples := make([][]float64, 1)
	samples[0] = []float64{math.NaN(), 0, 0, 0}
	err = p.PushSamples(samples)
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.ErrCodeNonFiniteValue))

	after, err := p.Analyze()
	require.NoError(t, err)
	assert.Equal(t, before.Bands, after.Bands, "rejected pushes must not alter the buffer")
}

func TestPushSamplesTransportLayout(t *testing.T) {
	p := testProcessor(t)
	cfg := p.Config()

	samples := make([][]float64, cfg.WindowSize)
	for i := range samples {
		samples[i] = []float64{1, 2, 3, 4}
	}
	require.NoError(t, p.PushSamples(samples))
	assert.Equal(t, cfg.WindowSize, p.BufferedSamples())

	raw, err := p.RawWindow()
	require.NoError(t, err)
	assert.Equal(t, 1.0, raw.Data[0][0])
	assert.Equal(t, 4.0, raw.Data[3][0])
}

func TestResetClearsEverything(t *testing.T) {
	p := testProcessor(t)
	cfg := p.Config()

	require.NoError(t, p.Push(toneWindow(t, cfg, cfg.WindowSize, 8, 50)))
	snap, err := p.Analyze()
	require.NoError(t, err)

	p.BeginCalibration()
	require.NoError(t, p.SetBaseline(snap.Bands))

	p.Reset()

	assert.Equal(t, 0, p.BufferedSamples())
	assert.Nil(t, p.Current())
	assert.Nil(t, p.Baseline())
	assert.Equal(t, calibration.Uncalibrated, p.CalibrationState())

	_, err = p.Analyze()
	assert.True(t, common.IsCode(err, common.ErrCodeInsufficientData))
}

func TestCacheEnabledMatchesDisabled(t *testing.T) {
	cached := common.DefaultConfig()
	cached.Cache.Enabled = true

	pc, err := NewProcessor(cached, logging.NewNopLogger())
	require.NoError(t, err)
	pp := testProcessor(t)

	w := toneWindow(t, pp.Config(), pp.Config().WindowSize, 8, 50)
	require.NoError(t, pc.Push(w))
	require.NoError(t, pp.Push(w))

	for loopIter := 0; loopIter < 3; loopIter++ {
		sc, err := pc.Analyze()
		require.NoError(t, err)
		sp, err := pp.Analyze()
		require.NoError(t, err)
		for name, power := range sp.Bands {
			assert.InDelta(t, power, sc.Bands[name], 1e-12, "band %s", name)
		}
	}
}
