// Package calibration owns the baseline band-power snapshot and the
// calibrated/uncalibrated state used to normalize live band powers.
package calibration

import (
	"fmt"
	"math"

	"github.com/brainart/eeg-pipeline/pkg/logging"

	"github.com/brainart/eeg-pipeline/pkg/eeg/common"
)

// State is the calibration lifecycle phase.
type State int

const (
	Uncalibrated State = iota
	Calibrating
	Calibrated
)

func (s State) String() string {
	switch s {
	case Calibrating:
		return "calibrating"
	case Calibrated:
		return "calibrated"
	default:
		return "uncalibrated"
	}
}

// epsilonFloor is the minimum baseline divisor; zero baselines are clamped
// here so normalization never produces infinite ratios.
const epsilonFloor = 1e-9

// Calibrator captures a one-time baseline snapshot of aggregate band powers
// and normalizes subsequent powers against it. State transitions are not
// reentrant; callers serialize access per instance. The averaging loop that
// produces the baseline value lives in the driver, not here; the Calibrator
// only validates and stores the final snapshot.
type Calibrator struct {
	state    State
	baseline map[string]float64
	logger   logging.Logger
}

// New creates an uncalibrated Calibrator.
func New(logger logging.Logger) *Calibrator {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Calibrator{
		state:  Uncalibrated,
		logger: logger.WithFields(logging.Fields{"component": "calibrator"}),
	}
}

// State returns the current calibration phase.
func (c *Calibrator) State() State {
	return c.state
}

// IsCalibrated reports whether a baseline is available.
func (c *Calibrator) IsCalibrated() bool {
	return c.state == Calibrated
}

// BeginCalibration transitions to Calibrating and discards any prior
// baseline. During this phase the driver accumulates band powers and finally
// calls SetBaseline.
func (c *Calibrator) BeginCalibration() {
	c.state = Calibrating
	c.baseline = nil
	c.logger.Debug("calibration started")
}

// SetBaseline validates and stores the averaged baseline snapshot,
// transitioning to Calibrated. It fails unless BeginCalibration was called
// first, so baselines cannot be assigned ad hoc.
func (c *Calibrator) SetBaseline(baseline map[string]float64) error {
	if c.state != Calibrating {
		return common.NewNotCalibratedError(fmt.Sprintf(
			"baseline set in state %q, call BeginCalibration first", c.state))
	}
	if len(baseline) == 0 {
		return common.NewShapeError("baseline snapshot is empty")
	}
	stored := make(map[string]float64, len(baseline))
	for band, power := range baseline {
		if math.IsNaN(power) || math.IsInf(power, 0) {
			return common.NewNonFiniteValueError(fmt.Sprintf(
				"baseline power for band %s is non-finite", band))
		}
		if power < 0 {
			return common.NewShapeError(fmt.Sprintf(
				"baseline power for band %s is negative: %g", band, power))
		}
		stored[band] = power
	}

	c.baseline = stored
	c.state = Calibrated
	c.logger.Debug("baseline stored", logging.Fields{"bands": len(stored)})
	return nil
}

// Normalize divides each current band power by the stored baseline power,
// flooring zero baselines at epsilon. It returns NOT_CALIBRATED before a
// baseline is set and performs no partial computation in that case.
func (c *Calibrator) Normalize(current map[string]float64) (map[string]float64, error) {
	if c.state != Calibrated {
		return nil, common.NewNotCalibratedError(fmt.Sprintf(
			"normalize requested in state %q", c.state))
	}

	ratios := make(map[string]float64, len(current))
	for band, power := range current {
		divisor := c.baseline[band]
		if divisor < epsilonFloor {
			divisor = epsilonFloor
		}
		ratios[band] = power / divisor
	}
	return ratios, nil
}

// Baseline returns a copy of the stored snapshot, or nil when uncalibrated.
// The baseline itself is immutable once set; only Reset or a new calibration
// cycle replaces it.
func (c *Calibrator) Baseline() map[string]float64 {
	if c.baseline == nil {
		return nil
	}
	out := make(map[string]float64, len(c.baseline))
	for band, power := range c.baseline {
		out[band] = power
	}
	return out
}

// Reset discards the baseline and returns to Uncalibrated.
func (c *Calibrator) Reset() {
	c.state = Uncalibrated
	c.baseline = nil
}
