// Package spectral decomposes preprocessed sample windows into named
// frequency-band powers via a Hann taper and discrete Fourier transform.
package spectral

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/brainart/eeg-pipeline/pkg/eeg/common"
	"github.com/brainart/eeg-pipeline/pkg/logging"
)

// Analyzer computes per-channel and channel-averaged band powers. An
// optional injected Cache memoizes power spectra by window content; enabling
// it never changes returned values, only latency.
type Analyzer struct {
	sampleRate int
	bands      []common.Band
	cache      *Cache
	hann       map[int][]float64 // taper coefficients by window length
	logger     logging.Logger
}

// NewAnalyzer creates an analyzer for the configured sample rate and band
// table. cache may be nil (or disabled via cfg.Cache.Enabled=false upstream)
// to compute every spectrum directly.
func NewAnalyzer(cfg *common.Config, cache *Cache, logger logging.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	bands := make([]common.Band, len(cfg.Bands))
	copy(bands, cfg.Bands)

	return &Analyzer{
		sampleRate: cfg.SampleRate,
		bands:      bands,
		cache:      cache,
		hann:       make(map[int][]float64),
		logger: logger.WithFields(logging.Fields{
			"component":   "spectral_analyzer",
			"sample_rate": cfg.SampleRate,
		}),
	}
}

// BandPowers computes the power in each configured band for every channel of
// the window, plus the arithmetic mean across channels. Bands whose range
// contains no frequency bin at the current resolution report zero power.
func (a *Analyzer) BandPowers(w *common.SampleWindow) (*common.ChannelBandPowers, error) {
	if w.Len() == 0 || w.Channels() == 0 {
		return nil, common.NewShapeError("cannot analyze an empty window")
	}

	n := w.Len()
	freqs := a.Frequencies(n)

	perChannel := make(map[string][]float64, len(a.bands))
	for _, band := range a.bands {
		perChannel[band.Name] = make([]float64, w.Channels())
	}

	for ch, samples := range w.Data {
		spectrum := a.powerSpectrum(ch, samples)
		for _, band := range a.bands {
			perChannel[band.Name][ch] = bandMean(spectrum, freqs, band)
		}
	}

	average := make(map[string]float64, len(a.bands))
	for name, powers := range perChannel {
		sum := 0.0
		for _, p := range powers {
			sum += p
		}
		average[name] = sum / float64(len(powers))
	}

	a.logger.Debug("band powers computed", logging.Fields{
		"samples":  n,
		"channels": w.Channels(),
		"bins":     len(freqs),
	})
	return &common.ChannelBandPowers{PerChannel: perChannel, Average: average}, nil
}

// powerSpectrum returns the positive-frequency power spectrum of one
// channel, consulting the cache when present. Power is the squared FFT
// magnitude normalized by window length, yielding µV² for µV input.
func (a *Analyzer) powerSpectrum(channel int, samples []float64) []float64 {
	var key cacheKey
	if a.cache != nil {
		key = cacheKey{channel: channel, hash: hashSamples(samples)}
		if spectrum, ok := a.cache.get(key); ok {
			return spectrum
		}
	}

	n := len(samples)
	tapered := make([]float64, n)
	taper := a.taper(n)
	for i, v := range samples {
		tapered[i] = v * taper[i]
	}

	coeffs := fft.FFTReal(tapered)

	// Positive frequencies only: DC and (for even n) the Nyquist bin are
	// excluded, matching fftfreq's freq > 0 mask.
	bins := (n - 1) / 2
	spectrum := make([]float64, bins)
	fn := float64(n)
	for i := 0; i < bins; i++ {
		mag := cmplx.Abs(coeffs[i+1]) / fn
		spectrum[i] = mag * mag
	}

	if a.cache != nil {
		a.cache.put(key, spectrum)
	}
	return spectrum
}

// Frequencies returns the frequency in Hz of each positive bin for a window
// of n samples.
func (a *Analyzer) Frequencies(n int) []float64 {
	bins := (n - 1) / 2
	freqs := make([]float64, bins)
	for i := 0; i < bins; i++ {
		freqs[i] = float64(i+1) * float64(a.sampleRate) / float64(n)
	}
	return freqs
}

// Reset invalidates all memoized spectra.
func (a *Analyzer) Reset() {
	if a.cache != nil {
		a.cache.Clear()
	}
}

// taper returns Hann coefficients for a window of length n, memoized per
// length since windows are fixed-size in steady state.
func (a *Analyzer) taper(n int) []float64 {
	if w, ok := a.hann[n]; ok {
		return w
	}
	w := hannWindow(n)
	a.hann[n] = w
	return w
}

// hannWindow generates the symmetric Hann (raised cosine) taper.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// bandMean averages spectrum power over bins with band.Low <= f < band.High.
// An empty band reports zero rather than failing.
func bandMean(spectrum, freqs []float64, band common.Band) float64 {
	sum := 0.0
	count := 0
	for i, f := range freqs {
		if f >= band.Low && f < band.High {
			sum += spectrum[i]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
