package pipeline

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/brainart/eeg-pipeline/pkg/eeg"
	"github.com/brainart/eeg-pipeline/pkg/eeg/common"
	"github.com/brainart/eeg-pipeline/pkg/logging"
)

// WindowSource produces the next raw window from the transport layer. It may
// block until data is available; pacing is the transport's concern.
type WindowSource func(ctx context.Context) (*common.SampleWindow, error)

// RunCalibration drives one calibration cycle: it feeds windows through the
// processor for the configured duration, collects the aggregate band powers
// of each cycle, and stores the per-band median as the baseline. The
// averaging deliberately lives here in the driver; the Calibrator itself
// only validates and stores the final snapshot.
//
// The subject should be relaxed with eyes closed while this runs.
func RunCalibration(ctx context.Context, proc *eeg.Processor, source WindowSource, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	logger = logger.WithFields(logging.Fields{"component": "calibration_runner"})

	cfg := proc.Config()
	// ~2 samples per second of calibration time, minimum 5.
	cycles := int(cfg.CalibrationDuration.Seconds() * 2)
	if cycles < 5 {
		cycles = 5
	}

	proc.BeginCalibration()

	samples := make(map[string][]float64, len(cfg.Bands))
	collected := 0
	for i := 0; i < cycles; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		w, err := source(ctx)
		if err != nil {
			return fmt.Errorf("calibration source: %w", err)
		}
		if err := proc.Push(w); err != nil {
			// A bad window is dropped, not fatal to the whole cycle.
			logger.Warn("calibration window rejected", logging.Fields{"error": err.Error()})
			continue
		}

		snap, err := proc.Analyze()
		if err != nil {
			if common.IsCode(err, common.ErrCodeInsufficientData) {
				continue // keep feeding until the buffer fills
			}
			return err
		}

		for band, power := range snap.Bands {
			if power > 0 {
				samples[band] = append(samples[band], power)
			}
		}
		collected++
	}

	if collected == 0 {
		return common.NewInsufficientDataError("no usable windows collected during calibration")
	}

	baseline := make(map[string]float64, len(cfg.Bands))
	for _, band := range cfg.Bands {
		values := samples[band.Name]
		if len(values) == 0 {
			baseline[band.Name] = 0
			continue
		}
		sort.Float64s(values)
		baseline[band.Name] = stat.Quantile(0.5, stat.Empirical, values, nil)
	}

	logger.Debug("calibration cycle complete", logging.Fields{
		"cycles_run":    cycles,
		"cycles_usable": collected,
	})
	return proc.SetBaseline(baseline)
}
