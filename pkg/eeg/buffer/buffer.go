// Package buffer implements the fixed-capacity multi-channel ring buffer
// that accumulates incoming EEG samples and serves analysis windows.
package buffer

import (
	"fmt"
	"math"
	"time"

	"github.com/brainart/eeg-pipeline/pkg/eeg/common"
)

// SampleBuffer is a fixed-size ring over per-channel sample streams. Add is
// non-blocking and discards the oldest samples once capacity is exceeded.
// Instances assume a single writer; callers serialize concurrent access.
type SampleBuffer struct {
	channels   int
	capacity   int
	sampleRate int

	data  [][]float64 // ring storage, one slice per channel
	head  int         // next write position
	count int         // valid samples, <= capacity
}

// New creates a buffer with cfg.Channels rings of cfg.RingCapacity() samples.
func New(cfg *common.Config) *SampleBuffer {
	data := make([][]float64, cfg.Channels)
	for ch := range data {
		data[ch] = make([]float64, cfg.RingCapacity())
	}
	return &SampleBuffer{
		channels:   cfg.Channels,
		capacity:   cfg.RingCapacity(),
		sampleRate: cfg.SampleRate,
		data:       data,
	}
}

// Add appends the window's samples, overwriting the oldest once full. The
// window must match the buffer's channel count.
func (b *SampleBuffer) Add(w *common.SampleWindow) error {
	if w.Channels() != b.channels {
		return common.NewShapeError(fmt.Sprintf(
			"window has %d channels, buffer expects %d", w.Channels(), b.channels))
	}

	n := w.Len()
	for i := 0; i < n; i++ {
		for ch := 0; ch < b.channels; ch++ {
			b.data[ch][b.head] = w.Data[ch][i]
		}
		b.head = (b.head + 1) % b.capacity
	}
	b.count += n
	if b.count > b.capacity {
		b.count = b.capacity
	}
	return nil
}

// Len returns the number of buffered samples per channel.
func (b *SampleBuffer) Len() int {
	return b.count
}

// Latest returns the most recent contiguous span covering at least d of
// signal, or an INSUFFICIENT_DATA error when the buffer has not accumulated
// enough samples yet.
func (b *SampleBuffer) Latest(d time.Duration) (*common.SampleWindow, error) {
	n := int(math.Ceil(d.Seconds() * float64(b.sampleRate)))
	if n <= 0 {
		n = 1
	}
	return b.LatestSamples(n)
}

// LatestSamples returns the newest n samples per channel.
func (b *SampleBuffer) LatestSamples(n int) (*common.SampleWindow, error) {
	if n <= 0 {
		return nil, common.NewShapeError(fmt.Sprintf("requested %d samples", n))
	}
	if n > b.count {
		return nil, common.NewInsufficientDataError(fmt.Sprintf(
			"buffer holds %d samples, %d requested", b.count, n))
	}

	data := make([][]float64, b.channels)
	start := (b.head - n + b.capacity*2) % b.capacity
	for ch := 0; ch < b.channels; ch++ {
		data[ch] = make([]float64, n)
		for i := 0; i < n; i++ {
			data[ch][i] = b.data[ch][(start+i)%b.capacity]
		}
	}
	return &common.SampleWindow{Data: data, SampleRate: b.sampleRate}, nil
}

// Reset discards all buffered samples.
func (b *SampleBuffer) Reset() {
	b.head = 0
	b.count = 0
}
