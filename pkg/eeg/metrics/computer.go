// Package metrics combines normalized band powers into the smoothed
// attention and relaxation indices consumed by the visualization layer.
package metrics

import (
	"github.com/brainart/eeg-pipeline/pkg/eeg/common"
	"github.com/brainart/eeg-pipeline/pkg/logging"
)

// history is a bounded FIFO of recent raw index values; the oldest value is
// evicted when a push exceeds capacity.
type history struct {
	values []float64
	max    int
}

func newHistory(max int) *history {
	return &history{values: make([]float64, 0, max), max: max}
}

func (h *history) push(v float64) {
	if len(h.values) >= h.max {
		h.values = h.values[1:]
	}
	h.values = append(h.values, v)
}

func (h *history) mean() float64 {
	if len(h.values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range h.values {
		sum += v
	}
	return sum / float64(len(h.values))
}

func (h *history) clear() {
	h.values = h.values[:0]
}

// Computer derives the attention and relaxation composite indices from
// normalized band-power ratios. Each raw value is clipped, mapped to [0, 1],
// pushed onto a bounded rolling history, and the history mean is returned.
// That rolling mean is the sole smoothing mechanism, applied identically to
// both metrics.
// Delta-band power is intentionally excluded from both composites.
type Computer struct {
	cfg        common.MetricsConfig
	attention  *history
	relaxation *history
	logger     logging.Logger
}

// NewComputer creates a Computer with the configured weights and smoothing
// window.
func NewComputer(cfg common.MetricsConfig, logger logging.Logger) *Computer {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Computer{
		cfg:        cfg,
		attention:  newHistory(cfg.SmoothingLength),
		relaxation: newHistory(cfg.SmoothingLength),
		logger:     logger.WithFields(logging.Fields{"component": "metric_computer"}),
	}
}

// Attention returns the smoothed attention index in [0, 1]. High beta and
// gamma activity relative to baseline raises it.
func (c *Computer) Attention(normalized map[string]float64) float64 {
	raw := c.cfg.AttentionBetaWeight*normalized[common.BandBeta] +
		c.cfg.AttentionGammaWeight*normalized[common.BandGamma]
	return c.smooth(c.attention, raw)
}

// Relaxation returns the smoothed relaxation index in [0, 1]. High alpha and
// theta activity relative to baseline raises it.
func (c *Computer) Relaxation(normalized map[string]float64) float64 {
	raw := c.cfg.RelaxationAlphaWeight*normalized[common.BandAlpha] +
		c.cfg.RelaxationThetaWeight*normalized[common.BandTheta]
	return c.smooth(c.relaxation, raw)
}

func (c *Computer) smooth(h *history, raw float64) float64 {
	clipped := clip(raw, 0, c.cfg.ClipMax) / c.cfg.ClipMax
	h.push(clipped)
	return h.mean()
}

// Reset clears both metric histories.
func (c *Computer) Reset() {
	c.attention.clear()
	c.relaxation.clear()
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
