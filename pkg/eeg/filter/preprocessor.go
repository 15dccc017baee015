// Package filter implements the per-window preprocessing stage: linear
// detrending followed by zero-phase power-line notch filtering.
package filter

import (
	"fmt"

	"github.com/brainart/eeg-pipeline/pkg/eeg/common"
	"github.com/brainart/eeg-pipeline/pkg/logging"
)

// Preprocessor removes DC drift and power-line interference from sample
// windows before spectral analysis. The filter coefficients are fixed at
// construction; Process itself never fails on valid windows.
type Preprocessor struct {
	notch  biquad
	logger logging.Logger
}

// NewPreprocessor designs the notch filter for the configured line frequency
// and sample rate. It returns a FILTER_STATE error when the coefficients
// cannot be computed (line frequency at or above Nyquist); this is a fatal
// configuration error, by contract raised here and never per-window.
func NewPreprocessor(cfg *common.Config, logger logging.Logger) (*Preprocessor, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if cfg.SampleRate <= 0 {
		return nil, common.NewFilterStateError(
			fmt.Sprintf("sample rate %d is not positive", cfg.SampleRate), nil)
	}
	if cfg.LineFreq <= 0 || cfg.LineFreq >= cfg.Nyquist() {
		return nil, common.NewFilterStateError(fmt.Sprintf(
			"line frequency %g Hz outside (0, %g) for sample rate %d",
			cfg.LineFreq, cfg.Nyquist(), cfg.SampleRate), nil)
	}
	if cfg.NotchQ <= 0 {
		return nil, common.NewFilterStateError(
			fmt.Sprintf("notch quality factor %g is not positive", cfg.NotchQ), nil)
	}

	return &Preprocessor{
		notch: newNotch(cfg.LineFreq, cfg.NotchQ, float64(cfg.SampleRate)),
		logger: logger.WithFields(logging.Fields{
			"component": "preprocessor",
			"line_freq": cfg.LineFreq,
			"notch_q":   cfg.NotchQ,
		}),
	}, nil
}

// Process returns a new window with each channel detrended and notch
// filtered. Output shape is identical to the input; the input is not
// mutated.
func (p *Preprocessor) Process(w *common.SampleWindow) (*common.SampleWindow, error) {
	if w.Len() == 0 {
		return nil, common.NewShapeError("cannot preprocess an empty window")
	}

	out := make([][]float64, w.Channels())
	for ch, channel := range w.Data {
		detrended := detrend(channel)
		out[ch] = p.notch.applyZeroPhase(detrended)
	}

	p.logger.Debug("window preprocessed", logging.Fields{
		"samples":  w.Len(),
		"channels": w.Channels(),
	})
	return &common.SampleWindow{Data: out, SampleRate: w.SampleRate}, nil
}

// detrend subtracts the least-squares line from x, removing DC offset and
// linear drift.
func detrend(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	if n == 1 {
		return out // single sample: the best-fit line is the sample itself
	}

	// Fit y = a + b*t over t = 0..n-1.
	var sumT, sumY, sumTY, sumTT float64
	for i, y := range x {
		t := float64(i)
		sumT += t
		sumY += y
		sumTY += t * y
		sumTT += t * t
	}
	fn := float64(n)
	denom := fn*sumTT - sumT*sumT
	b := (fn*sumTY - sumT*sumY) / denom
	a := (sumY - b*sumT) / fn

	for i, y := range x {
		out[i] = y - (a + b*float64(i))
	}
	return out
}
