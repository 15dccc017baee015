// Package eeg wires the signal pipeline together: ring buffer, preprocessor,
// spectral analyzer, calibrator, and metric computer. The visualization
// collaborator pulls Snapshots from a Processor once per update cycle.
package eeg

import (
	"time"

	"github.com/brainart/eeg-pipeline/pkg/eeg/buffer"
	"github.com/brainart/eeg-pipeline/pkg/eeg/calibration"
	"github.com/brainart/eeg-pipeline/pkg/eeg/common"
	"github.com/brainart/eeg-pipeline/pkg/eeg/filter"
	"github.com/brainart/eeg-pipeline/pkg/eeg/metrics"
	"github.com/brainart/eeg-pipeline/pkg/eeg/spectral"
	"github.com/brainart/eeg-pipeline/pkg/logging"
)

// neutralIndex is reported for attention/relaxation before calibration.
const neutralIndex = 0.5

// Snapshot is the derived output of one analysis cycle. Only these derived
// scalars are shared with the visualization layer; the pipeline's internal
// state (baseline, histories, buffers) is never exposed as mutable state.
type Snapshot struct {
	// Bands maps band name to channel-averaged power in µV².
	Bands map[string]float64 `json:"bands"`
	// PerChannel maps band name to one power value per channel.
	PerChannel map[string][]float64 `json:"per_channel"`
	// Normalized holds baseline-relative ratios; nil before calibration.
	Normalized map[string]float64 `json:"normalized,omitempty"`

	Attention  float64 `json:"attention"`
	Relaxation float64 `json:"relaxation"`
	Calibrated bool    `json:"calibrated"`

	Timestamp time.Time `json:"timestamp"`
}

// Processor owns one device's pipeline end to end. Instances are not safe
// for concurrent writers; the caller (or the pipeline engine) serializes
// access.
type Processor struct {
	cfg        *common.Config
	buf        *buffer.SampleBuffer
	pre        *filter.Preprocessor
	analyzer   *spectral.Analyzer
	calibrator *calibration.Calibrator
	computer   *metrics.Computer
	logger     logging.Logger

	last *Snapshot
}

// NewProcessor validates the configuration and constructs every stage.
// Configuration problems (including an unfilterable line frequency) are
// fatal here, never downstream.
func NewProcessor(cfg *common.Config, logger logging.Logger) (*Processor, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pre, err := filter.NewPreprocessor(cfg, logger)
	if err != nil {
		return nil, err
	}

	var cache *spectral.Cache
	if cfg.Cache.Enabled {
		cache = spectral.NewCache(cfg.Cache.Capacity)
	}

	return &Processor{
		cfg:        cfg,
		buf:        buffer.New(cfg),
		pre:        pre,
		analyzer:   spectral.NewAnalyzer(cfg, cache, logger),
		calibrator: calibration.New(logger),
		computer:   metrics.NewComputer(cfg.Metrics, logger),
		logger:     logger.WithFields(logging.Fields{"component": "processor"}),
	}, nil
}

// Config returns the processor's configuration.
func (p *Processor) Config() *common.Config {
	return p.cfg
}

// Push validates and buffers an incoming raw window. Invalid windows are
// rejected without touching pipeline state; previously smoothed metrics
// remain unchanged.
func (p *Processor) Push(w *common.SampleWindow) error {
	return p.buf.Add(w)
}

// PushSamples ingests sample-major transport data, validating shape and
// finiteness on the way in.
func (p *Processor) PushSamples(samples [][]float64) error {
	w, err := common.NewSampleWindow(samples, p.cfg.Channels, p.cfg.SampleRate)
	if err != nil {
		return err
	}
	return p.buf.Add(w)
}

// BufferedSamples reports how many samples per channel are available.
func (p *Processor) BufferedSamples() int {
	return p.buf.Len()
}

// RawWindow returns the newest analysis-sized span of unfiltered samples,
// for the quality path.
func (p *Processor) RawWindow() (*common.SampleWindow, error) {
	return p.buf.LatestSamples(p.cfg.WindowSize)
}

// RawSpan returns the newest unfiltered span covering at least d.
func (p *Processor) RawSpan(d time.Duration) (*common.SampleWindow, error) {
	return p.buf.Latest(d)
}

// Analyze runs one analysis cycle over the newest window: preprocess,
// band-power decomposition, and, once calibrated, normalization and
// composite metric computation. Before calibration the indices read as the
// neutral 0.5.
func (p *Processor) Analyze() (*Snapshot, error) {
	raw, err := p.buf.LatestSamples(p.cfg.WindowSize)
	if err != nil {
		return nil, err
	}

	filtered, err := p.pre.Process(raw)
	if err != nil {
		return nil, err
	}

	powers, err := p.analyzer.BandPowers(filtered)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Bands:      powers.Average,
		PerChannel: powers.PerChannel,
		Attention:  neutralIndex,
		Relaxation: neutralIndex,
		Calibrated: p.calibrator.IsCalibrated(),
		Timestamp:  time.Now(),
	}

	if snap.Calibrated {
		normalized, err := p.calibrator.Normalize(powers.Average)
		if err != nil {
			return nil, err
		}
		snap.Normalized = normalized
		snap.Attention = p.computer.Attention(normalized)
		snap.Relaxation = p.computer.Relaxation(normalized)
	}

	p.last = snap
	return snap, nil
}

// Current returns the most recent successful Snapshot, or nil when nothing
// has been analyzed yet.
func (p *Processor) Current() *Snapshot {
	return p.last
}

// BeginCalibration starts a calibration cycle, discarding any baseline.
func (p *Processor) BeginCalibration() {
	p.calibrator.BeginCalibration()
}

// SetBaseline stores the externally averaged baseline snapshot.
func (p *Processor) SetBaseline(baseline map[string]float64) error {
	return p.calibrator.SetBaseline(baseline)
}

// CalibrationState exposes the calibrator phase.
func (p *Processor) CalibrationState() calibration.State {
	return p.calibrator.State()
}

// Baseline returns a copy of the stored baseline, nil when uncalibrated.
func (p *Processor) Baseline() map[string]float64 {
	return p.calibrator.Baseline()
}

// Reset clears buffers, histories, calibration state, and the FFT cache.
// Calibration is process-lifetime state only, so it does not survive reset.
func (p *Processor) Reset() {
	p.buf.Reset()
	p.computer.Reset()
	p.calibrator.Reset()
	p.analyzer.Reset()
	p.last = nil
	p.logger.Debug("processor reset")
}
