// Package synth generates deterministic synthetic EEG windows for the demo
// commands and for exercising the pipeline without a headband attached.
package synth

import (
	"math"
	"math/rand"

	"github.com/brainart/eeg-pipeline/pkg/eeg/common"
)

// Tone is one sinusoidal component of the synthetic signal.
type Tone struct {
	Freq      float64 // Hz
	Amplitude float64 // µV
}

// Generator produces phase-continuous multi-channel windows composed of
// tones plus Gaussian noise. Channels carry slightly different gains so the
// per-channel outputs are distinguishable, like a real headband's
// electrodes.
type Generator struct {
	sampleRate int
	channels   int
	tones      []Tone
	noise      float64 // standard deviation, µV
	gains      []float64
	rng        *rand.Rand
	t          int // global sample index, keeps phase continuous
}

// NewGenerator creates a generator with per-channel gains spread around 1.0.
func NewGenerator(sampleRate, channels int, tones []Tone, noise float64, seed int64) *Generator {
	gains := make([]float64, channels)
	for ch := range gains {
		gains[ch] = 1.0 + 0.1*float64(ch%2*2-1)*float64(ch/2+1)/2
	}
	return &Generator{
		sampleRate: sampleRate,
		channels:   channels,
		tones:      tones,
		noise:      noise,
		gains:      gains,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Next produces the next n samples on all channels.
func (g *Generator) Next(n int) *common.SampleWindow {
	data := make([][]float64, g.channels)
	for ch := range data {
		data[ch] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		t := float64(g.t+i) / float64(g.sampleRate)
		base := 0.0
		for _, tone := range g.tones {
			base += tone.Amplitude * math.Sin(2*math.Pi*tone.Freq*t)
		}
		for ch := range data {
			v := base * g.gains[ch]
			if g.noise > 0 {
				v += g.rng.NormFloat64() * g.noise
			}
			data[ch][i] = v
		}
	}
	g.t += n

	w, err := common.NewSampleWindowFromChannels(data, g.sampleRate)
	if err != nil {
		// Generated data is finite and rectangular by construction.
		panic(err)
	}
	return w
}

// Sine returns a single-channel sinusoid, handy for tests and fixtures.
func Sine(n, sampleRate int, freq, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}
