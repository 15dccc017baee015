// Package pipeline contains the driver-side machinery around the core
// processor: the background compute engine that keeps heavy spectral work
// off a rendering loop, and the calibration runner.
package pipeline

import (
	"sync"

	"github.com/brainart/eeg-pipeline/pkg/eeg"
	"github.com/brainart/eeg-pipeline/pkg/eeg/common"
	"github.com/brainart/eeg-pipeline/pkg/eeg/quality"
	"github.com/brainart/eeg-pipeline/pkg/logging"
)

// Result is one completed analysis cycle.
type Result struct {
	Seq      uint64
	Snapshot *eeg.Snapshot
	Quality  *quality.Report
	Err      error
}

type job struct {
	seq    uint64
	window *common.SampleWindow
}

// Engine runs the processor on a single background goroutine. Submit never
// blocks: a newer window replaces a still-pending one (best-effort
// cancellation of its result). Poll never blocks either and serves the most
// recently completed result; completed results overwrite a single slot, so
// they are always consumed in submission order.
//
// The Engine owns its Processor and Assessor exclusively, which satisfies
// the pipeline's single-writer contract.
type Engine struct {
	proc     *eeg.Processor
	assessor *quality.Assessor
	logger   logging.Logger

	jobs chan job
	quit chan struct{}
	wg   sync.WaitGroup

	mu        sync.Mutex
	latest    *Result
	consumed  bool
	submitSeq uint64
}

// NewEngine wraps the processor and quality assessor in a background worker.
func NewEngine(proc *eeg.Processor, assessor *quality.Assessor, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	e := &Engine{
		proc:     proc,
		assessor: assessor,
		logger:   logger.WithFields(logging.Fields{"component": "pipeline_engine"}),
		jobs:     make(chan job, 1),
		quit:     make(chan struct{}),
	}
	e.wg.Add(1)
	go e.run()
	return e
}

// Submit queues a window for asynchronous processing without blocking. When
// a prior window is still pending it is discarded in favor of the newer one.
func (e *Engine) Submit(w *common.SampleWindow) {
	e.mu.Lock()
	e.submitSeq++
	j := job{seq: e.submitSeq, window: w}
	e.mu.Unlock()

	for {
		select {
		case e.jobs <- j:
			return
		default:
		}
		// Queue full: drop the stale pending job and retry.
		select {
		case stale := <-e.jobs:
			e.logger.Debug("pending window discarded", logging.Fields{"seq": stale.seq})
		default:
		}
	}
}

// Poll returns the most recently completed result and whether it is fresh
// (completed since the previous Poll). It never blocks; a stale result stays
// available so the renderer always has something to draw.
func (e *Engine) Poll() (*Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.latest == nil {
		return nil, false
	}
	fresh := !e.consumed
	e.consumed = true
	return e.latest, fresh
}

// Close stops the worker and waits for it to drain.
func (e *Engine) Close() {
	close(e.quit)
	e.wg.Wait()
}

func (e *Engine) run() {
	defer e.wg.Done()
	for {
		select {
		case <-e.quit:
			return
		case j := <-e.jobs:
			e.process(j)
		}
	}
}

func (e *Engine) process(j job) {
	res := &Result{Seq: j.seq}

	if err := e.proc.Push(j.window); err != nil {
		res.Err = err
	} else {
		snap, err := e.proc.Analyze()
		res.Snapshot, res.Err = snap, err
		if raw, rawErr := e.proc.RawWindow(); rawErr == nil {
			res.Quality = e.assessor.Assess(raw)
		}
	}

	e.mu.Lock()
	// Results only ever move forward in submission order.
	if e.latest == nil || j.seq > e.latest.Seq {
		e.latest = res
		e.consumed = false
	}
	e.mu.Unlock()

	if res.Err != nil {
		e.logger.Debug("analysis cycle failed", logging.Fields{
			"seq":   j.seq,
			"error": res.Err.Error(),
		})
	}
}
