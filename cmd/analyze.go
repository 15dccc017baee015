package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/brainart/eeg-pipeline/configs"
	"github.com/brainart/eeg-pipeline/internal/pipeline"
	"github.com/brainart/eeg-pipeline/internal/synth"
	"github.com/brainart/eeg-pipeline/pkg/eeg"
	"github.com/brainart/eeg-pipeline/pkg/eeg/common"
	"github.com/brainart/eeg-pipeline/pkg/eeg/quality"
	"github.com/brainart/eeg-pipeline/pkg/logging"
)

var (
	azCycles    int
	azAsync     bool
	azCache     bool
	azToneFreq  float64
	azToneAmp   float64
	azNoise     float64
	azSeed      int64
	azLineNoise float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full pipeline on a synthetic EEG stream",
	Long: `Drives the complete pipeline with a synthetic multi-channel signal:
calibrates a baseline, then runs analysis cycles and reports band powers,
attention/relaxation indices, and signal quality.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().IntVarP(&azCycles, "cycles", "n", 20,
		"number of analysis cycles to run after calibration")
	analyzeCmd.Flags().BoolVar(&azAsync, "async", false,
		"process windows on the background engine instead of inline")
	analyzeCmd.Flags().BoolVar(&azCache, "fft-cache", false,
		"enable the FFT result cache")
	analyzeCmd.Flags().Float64Var(&azToneFreq, "tone-freq", 10,
		"dominant tone frequency in Hz")
	analyzeCmd.Flags().Float64Var(&azToneAmp, "tone-amp", 50,
		"dominant tone amplitude in µV")
	analyzeCmd.Flags().Float64Var(&azNoise, "noise", 5,
		"Gaussian noise standard deviation in µV")
	analyzeCmd.Flags().Float64Var(&azLineNoise, "line-noise", 0,
		"injected power-line interference amplitude in µV")
	analyzeCmd.Flags().Int64Var(&azSeed, "seed", 42,
		"random seed for the synthetic stream")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := configs.LoadConfig()
	if err != nil {
		return err
	}
	if azCache {
		cfg.Pipeline.Cache.Enabled = true
	}

	level := cfg.LogLevel
	if cfg.Verbose {
		level = "debug"
	}
	logger := logging.NewLogger(level)

	proc, err := eeg.NewProcessor(&cfg.Pipeline, logger)
	if err != nil {
		return fmt.Errorf("failed to construct processor: %w", err)
	}
	assessor := quality.NewAssessor(&cfg.Pipeline, logger)

	tones := []synth.Tone{
		{Freq: azToneFreq, Amplitude: azToneAmp},
		{Freq: 20, Amplitude: azToneAmp * 0.4},
	}
	if azLineNoise > 0 {
		tones = append(tones, synth.Tone{Freq: cfg.Pipeline.LineFreq, Amplitude: azLineNoise})
	}
	gen := synth.NewGenerator(cfg.Pipeline.SampleRate, cfg.Pipeline.Channels, tones, azNoise, azSeed)

	ctx := context.Background()
	source := func(context.Context) (*common.SampleWindow, error) {
		return gen.Next(cfg.Pipeline.WindowSize), nil
	}

	logger.Info("calibrating baseline", logging.Fields{
		"duration": cfg.Pipeline.CalibrationDuration.String(),
	})
	if err := pipeline.RunCalibration(ctx, proc, source, logger); err != nil {
		return fmt.Errorf("calibration failed: %w", err)
	}

	var snap *eeg.Snapshot
	var report *quality.Report

	if azAsync {
		snap, report, err = runAsyncCycles(proc, assessor, gen, cfg, logger)
	} else {
		snap, report, err = runInlineCycles(proc, assessor, gen, cfg)
	}
	if err != nil {
		return err
	}

	if cfg.OutputFormat == "json" || cfg.OutputFormat == "yaml" {
		return emit(map[string]any{
			"snapshot": snap,
			"quality":  report,
			"baseline": proc.Baseline(),
		}, cfg.OutputFormat)
	}
	printSnapshot(snap, report)
	return nil
}

func runInlineCycles(proc *eeg.Processor, assessor *quality.Assessor, gen *synth.Generator, cfg *configs.Config) (*eeg.Snapshot, *quality.Report, error) {
	var snap *eeg.Snapshot
	var report *quality.Report
	for loopIter := 0; loopIter < azCycles; loopIter++ {
		if err := proc.Push(gen.Next(cfg.Pipeline.WindowSize)); err != nil {
			return nil, nil, err
		}
		s, err := proc.Analyze()
		if err != nil {
			return nil, nil, err
		}
		snap = s

		raw, err := proc.RawWindow()
		if err != nil {
			return nil, nil, err
		}
		report = assessor.Assess(raw)
	}
	return snap, report, nil
}

func runAsyncCycles(proc *eeg.Processor, assessor *quality.Assessor, gen *synth.Generator, cfg *configs.Config, logger logging.Logger) (*eeg.Snapshot, *quality.Report, error) {
	engine := pipeline.NewEngine(proc, assessor, logger)
	defer engine.Close()

	interval := time.Duration(float64(cfg.Pipeline.WindowSize) /
		float64(cfg.Pipeline.SampleRate) * float64(time.Second))

	var last *pipeline.Result
	for loopIter := 0; loopIter < azCycles; loopIter++ {
		engine.Submit(gen.Next(cfg.Pipeline.WindowSize))
		time.Sleep(interval)
		if res, _ := engine.Poll(); res != nil {
			last = res
		}
	}

	// Drain the final pending result.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		res, fresh := engine.Poll()
		if res != nil {
			last = res
		}
		if fresh {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if last == nil {
		return nil, nil, fmt.Errorf("engine produced no result")
	}
	if last.Err != nil {
		return nil, nil, last.Err
	}
	return last.Snapshot, last.Quality, nil
}

func printSnapshot(snap *eeg.Snapshot, report *quality.Report) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "attention\t%.3f\n", snap.Attention)
	fmt.Fprintf(w, "relaxation\t%.3f\n", snap.Relaxation)
	fmt.Fprintf(w, "calibrated\t%v\n", snap.Calibrated)
	fmt.Fprintln(w)

	bands := make([]string, 0, len(snap.Bands))
	for name := range snap.Bands {
		bands = append(bands, name)
	}
	sort.Strings(bands)

	fmt.Fprintln(w, "band\tpower (µV²)\tnormalized")
	for _, name := range bands {
		ratio := "-"
		if snap.Normalized != nil {
			ratio = fmt.Sprintf("%.3f", snap.Normalized[name])
		}
		fmt.Fprintf(w, "%s\t%.4f\t%s\n", name, snap.Bands[name], ratio)
	}

	if report != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "signal quality\t%d/100 (%s)\n", report.Overall, report.Status)
		for i, score := range report.ChannelScores {
			fmt.Fprintf(w, "  channel %d\t%d/100\n", i, score)
		}
		for _, warning := range report.Warnings {
			fmt.Fprintf(w, "  warning\t%s\n", warning)
		}
	}
}
