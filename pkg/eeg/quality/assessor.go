// Package quality evaluates raw, unfiltered EEG signal health. It runs on a
// separate path from the metric pipeline on purpose: the notch filter and
// detrending would mask exactly the problems (line noise, drift, artifacts)
// that operators need to see.
package quality

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/brainart/eeg-pipeline/pkg/eeg/common"
	"github.com/brainart/eeg-pipeline/pkg/logging"
)

// Metric is one scored sub-assessment of a channel.
type Metric struct {
	Value float64 `json:"value"`
	Score int     `json:"score"`
	Unit  string  `json:"unit,omitempty"`
}

// ArtifactsMetric combines kurtosis and gradient spike detection.
type ArtifactsMetric struct {
	Kurtosis    float64 `json:"kurtosis"`
	MaxGradient float64 `json:"max_gradient"`
	Score       int     `json:"score"`
}

// ChannelMetrics is the full per-channel breakdown.
type ChannelMetrics struct {
	Variance     Metric          `json:"variance"`
	Amplitude    Metric          `json:"amplitude"`
	AlphaPower   Metric          `json:"alpha_power"`
	LineNoise    Metric          `json:"line_noise"`
	Artifacts    ArtifactsMetric `json:"artifacts"`
	Stationarity Metric          `json:"stationarity"`
}

// Report is the outcome of one assessment. It is recomputed wholesale on
// every Assess call; poor signal is a valid, reportable outcome, never an
// error.
type Report struct {
	Overall        int              `json:"overall_quality"`
	ChannelScores  []int            `json:"channel_quality"`
	ChannelMetrics []ChannelMetrics `json:"channel_metrics"`
	Warnings       []string         `json:"warnings"`
	Status         string           `json:"status"`
}

// Assessor scores raw windows against six weighted metrics.
type Assessor struct {
	sampleRate   int
	lineFreq     float64
	channelNames []string
	cfg          common.QualityConfig
	logger       logging.Logger
}

// NewAssessor creates an Assessor with the configured thresholds and
// weights.
func NewAssessor(cfg *common.Config, logger logging.Logger) *Assessor {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	names := make([]string, cfg.Channels)
	for ch := range names {
		names[ch] = cfg.ChannelName(ch)
	}
	return &Assessor{
		sampleRate:   cfg.SampleRate,
		lineFreq:     cfg.LineFreq,
		channelNames: names,
		cfg:          cfg.Quality,
		logger:       logger.WithFields(logging.Fields{"component": "quality_assessor"}),
	}
}

// Assess scores every channel of the raw window and aggregates an overall
// 0-100 quality score with warnings.
func (a *Assessor) Assess(w *common.SampleWindow) *Report {
	if w == nil || w.Len() == 0 {
		return &Report{
			ChannelScores: make([]int, len(a.channelNames)),
			Warnings:      []string{"no data"},
			Status:        "not connected",
		}
	}

	report := &Report{
		ChannelScores:  make([]int, 0, w.Channels()),
		ChannelMetrics: make([]ChannelMetrics, 0, w.Channels()),
	}

	sum := 0
	for ch, data := range w.Data {
		m := ChannelMetrics{
			Variance:     a.checkVariance(data),
			Amplitude:    a.checkAmplitude(data),
			AlphaPower:   a.checkAlphaPower(data),
			LineNoise:    a.checkLineNoise(data),
			Artifacts:    a.checkArtifacts(data),
			Stationarity: a.checkStationarity(data),
		}
		score := a.channelScore(m)
		sum += score

		report.ChannelScores = append(report.ChannelScores, score)
		report.ChannelMetrics = append(report.ChannelMetrics, m)
		report.Warnings = append(report.Warnings, a.warnings(ch, m)...)
	}

	report.Overall = sum / w.Channels()
	report.Status = statusText(report.Overall)

	a.logger.Debug("quality assessed", logging.Fields{
		"overall":  report.Overall,
		"warnings": len(report.Warnings),
	})
	return report
}

// checkVariance scores signal variance: very low means poor electrode
// contact, very high means motion artifacts. The optimal range is
// 50-500 µV².
func (a *Assessor) checkVariance(data []float64) Metric {
	v := stat.Variance(data, nil)

	const optLow, optHigh = 50.0, 500.0
	var score float64
	switch {
	case v < a.cfg.VarianceMin:
		score = 20
	case v > a.cfg.VarianceMax:
		score = 30
	case v >= optLow && v <= optHigh:
		score = 100
	case v < optLow:
		score = 50 + 50*(v-a.cfg.VarianceMin)/(optLow-a.cfg.VarianceMin)
	default:
		score = 100 - 70*(v-optHigh)/(a.cfg.VarianceMax-optHigh)
	}

	return Metric{Value: v, Score: clampScore(score), Unit: "µV²"}
}

// checkAmplitude scores peak-to-peak range: above AmplitudeMax indicates
// EMG/movement artifacts, below 10 µV indicates poor contact.
func (a *Assessor) checkAmplitude(data []float64) Metric {
	lo, hi := data[0], data[0]
	for _, v := range data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	ptp := hi - lo

	var score float64
	switch {
	case ptp > a.cfg.AmplitudeMax:
		score = 20
	case ptp < 10:
		score = 30
	case ptp >= 50 && ptp <= 200:
		score = 100
	default:
		score = 70
	}

	return Metric{Value: ptp, Score: clampScore(score), Unit: "µV"}
}

// checkAlphaPower scores the fraction of 1-40 Hz power in the alpha band.
// Low alpha is tolerated (eyes may be open), hence the soft floor of 40.
func (a *Assessor) checkAlphaPower(data []float64) Metric {
	if len(data) < 128 {
		return Metric{Value: 0, Score: 50, Unit: "relative"}
	}

	freqs, psd := welchPSD(data, a.sampleRate, 256)
	alpha := bandMeanPSD(freqs, psd, 8, 13)
	total := bandMeanPSD(freqs, psd, 1, 40)

	relative := 0.0
	if total > 0 {
		relative = alpha / total
	}

	var score float64
	switch {
	case relative > 0.2:
		score = 100
	case relative > a.cfg.AlphaPowerMin:
		score = 80
	case relative > 0.05:
		score = 60
	default:
		score = 40
	}

	return Metric{Value: relative, Score: clampScore(score), Unit: "relative"}
}

// checkLineNoise scores power concentrated within ±1 Hz of the line
// frequency relative to total 1-40 Hz power.
func (a *Assessor) checkLineNoise(data []float64) Metric {
	if len(data) < 128 {
		return Metric{Value: 0, Score: 50, Unit: "relative"}
	}

	freqs, psd := welchPSD(data, a.sampleRate, 256)
	noise := bandMeanPSD(freqs, psd, a.lineFreq-1, a.lineFreq+1)
	total := bandMeanPSD(freqs, psd, 1, 40)

	relative := 0.0
	if total > 0 {
		relative = noise / total
	}

	var score float64
	switch {
	case relative > a.cfg.LineNoiseMax:
		score = 30
	case relative > 0.15:
		score = 60
	default:
		score = 100
	}

	return Metric{Value: relative, Score: clampScore(score), Unit: "relative"}
}

// checkArtifacts detects spikes and blinks via excess kurtosis and the
// maximum sample-to-sample gradient.
func (a *Assessor) checkArtifacts(data []float64) ArtifactsMetric {
	kurt := stat.ExKurtosis(data, nil)

	maxGradient := 0.0
	for i := 1; i < len(data); i++ {
		if g := math.Abs(data[i] - data[i-1]); g > maxGradient {
			maxGradient = g
		}
	}

	var score float64
	switch {
	case kurt > 10 || maxGradient > 100:
		score = 20
	case kurt > 5 || maxGradient > 50:
		score = 50
	default:
		score = 100
	}

	return ArtifactsMetric{Kurtosis: kurt, MaxGradient: maxGradient, Score: clampScore(score)}
}

// checkStationarity scores the coefficient of variation of variance across
// four equal sub-segments; a drifting variance means unstable contact.
func (a *Assessor) checkStationarity(data []float64) Metric {
	if len(data) < 256 {
		return Metric{Value: 0, Score: 50, Unit: "CV"}
	}

	const parts = 4
	size := len(data) / parts
	variances := make([]float64, parts)
	for i := 0; i < parts; i++ {
		variances[i] = stat.Variance(data[i*size:(i+1)*size], nil)
	}

	mean := stat.Mean(variances, nil)
	cv := 0.0
	if mean > 0 {
		cv = stat.PopStdDev(variances, nil) / mean
	}

	var score float64
	switch {
	case cv < 0.3:
		score = 100
	case cv < 0.5:
		score = 80
	case cv < 0.8:
		score = 60
	default:
		score = 40
	}

	return Metric{Value: cv, Score: clampScore(score), Unit: "CV"}
}

// channelScore is the weighted sum of sub-scores.
func (a *Assessor) channelScore(m ChannelMetrics) int {
	total := float64(m.Variance.Score)*a.cfg.VarianceWeight +
		float64(m.Amplitude.Score)*a.cfg.AmplitudeWeight +
		float64(m.AlphaPower.Score)*a.cfg.AlphaPowerWeight +
		float64(m.LineNoise.Score)*a.cfg.LineNoiseWeight +
		float64(m.Artifacts.Score)*a.cfg.ArtifactsWeight +
		float64(m.Stationarity.Score)*a.cfg.StationarityWeight
	return int(total)
}

// warnings emits human-readable causes for each threshold crossing on a
// channel.
func (a *Assessor) warnings(ch int, m ChannelMetrics) []string {
	name := fmt.Sprintf("CH%d", ch)
	if ch < len(a.channelNames) {
		name = a.channelNames[ch]
	}

	var out []string
	if m.Variance.Score <= 30 {
		if m.Variance.Value < a.cfg.VarianceMin {
			out = append(out, fmt.Sprintf("%s: very low signal - check sensor contact", name))
		} else {
			out = append(out, fmt.Sprintf("%s: very high noise - check contact", name))
		}
	}
	if m.Amplitude.Score < 30 {
		out = append(out, fmt.Sprintf("%s: movement artifacts", name))
	}
	if m.LineNoise.Score < 50 {
		out = append(out, fmt.Sprintf("%s: electrical interference (%g Hz)", name, a.lineFreq))
	}
	if m.Artifacts.Score < 40 {
		out = append(out, fmt.Sprintf("%s: artifacts detected - minimize movement", name))
	}
	return out
}

func statusText(overall int) string {
	switch {
	case overall >= 80:
		return "excellent"
	case overall >= 60:
		return "good"
	case overall >= 40:
		return "acceptable"
	default:
		return "poor"
	}
}

func clampScore(s float64) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return int(s)
}
