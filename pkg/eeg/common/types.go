// Package common holds the shared data types, configuration structs, and
// error taxonomy used by every stage of the EEG pipeline.
package common

import (
	"fmt"
	"math"
)

// SampleWindow is an ordered span of EEG samples in channel-major layout:
// Data[ch][i] is sample i of channel ch, in microvolts. Windows are treated
// as read-only once constructed; stages copy before mutating.
type SampleWindow struct {
	Data       [][]float64
	SampleRate int
}

// NewSampleWindow builds a window from sample-major input (rows are time
// samples, columns are channels), the layout delivered by the transport
// layer. It validates shape and finiteness.
func NewSampleWindow(samples [][]float64, channels, sampleRate int) (*SampleWindow, error) {
	if len(samples) == 0 {
		return nil, NewShapeError("window has zero length")
	}
	for i, row := range samples {
		if len(row) != channels {
			return nil, NewShapeError(fmt.Sprintf(
				"sample %d has %d channels, want %d", i, len(row), channels))
		}
	}

	data := make([][]float64, channels)
	for ch := 0; ch < channels; ch++ {
		data[ch] = make([]float64, len(samples))
	}
	for i, row := range samples {
		for ch, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, NewNonFiniteValueError(fmt.Sprintf(
					"non-finite sample at index %d channel %d", i, ch))
			}
			data[ch][i] = v
		}
	}

	return &SampleWindow{Data: data, SampleRate: sampleRate}, nil
}

// NewSampleWindowFromChannels wraps already channel-major data, validating
// shape and finiteness. All channels must have equal, non-zero length.
func NewSampleWindowFromChannels(data [][]float64, sampleRate int) (*SampleWindow, error) {
	if len(data) == 0 || len(data[0]) == 0 {
		return nil, NewShapeError("window has zero length")
	}
	n := len(data[0])
	for ch, channel := range data {
		if len(channel) != n {
			return nil, NewShapeError(fmt.Sprintf(
				"channel %d has %d samples, want %d", ch, len(channel), n))
		}
		for i, v := range channel {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, NewNonFiniteValueError(fmt.Sprintf(
					"non-finite sample at index %d channel %d", i, ch))
			}
		}
	}
	return &SampleWindow{Data: data, SampleRate: sampleRate}, nil
}

// Channels returns the channel count.
func (w *SampleWindow) Channels() int {
	return len(w.Data)
}

// Len returns the number of time samples per channel.
func (w *SampleWindow) Len() int {
	if len(w.Data) == 0 {
		return 0
	}
	return len(w.Data[0])
}

// Clone returns a deep copy, for stages that need to mutate in place.
func (w *SampleWindow) Clone() *SampleWindow {
	data := make([][]float64, len(w.Data))
	for ch, channel := range w.Data {
		data[ch] = make([]float64, len(channel))
		copy(data[ch], channel)
	}
	return &SampleWindow{Data: data, SampleRate: w.SampleRate}
}

// ChannelBandPowers holds banded spectral power for one processed window, in
// microvolts squared. Created fresh per window and never mutated afterwards.
type ChannelBandPowers struct {
	// PerChannel maps band name to one power value per channel.
	PerChannel map[string][]float64 `json:"per_channel"`
	// Average maps band name to the arithmetic mean across channels.
	Average map[string]float64 `json:"average"`
}
