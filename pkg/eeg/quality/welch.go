package quality

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// welchPSD estimates the one-sided power spectral density of x via Welch's
// method: Hann-tapered segments with 50% overlap, mean-detrended per
// segment, periodograms averaged. Returns bin frequencies and density in
// µV²/Hz. Kept separate from the metric path's FFT stack so quality
// assessment stays independent of the filtering pipeline.
func welchPSD(x []float64, sampleRate, nperseg int) (freqs, psd []float64) {
	if nperseg > len(x) {
		nperseg = len(x)
	}
	if nperseg < 2 {
		return nil, nil
	}

	window := make([]float64, nperseg)
	windowPower := 0.0
	for i := 0; i < nperseg; i++ {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(nperseg-1)))
		window[i] = w
		windowPower += w * w
	}

	fft := fourier.NewFFT(nperseg)
	bins := nperseg/2 + 1
	psd = make([]float64, bins)

	step := nperseg / 2
	if step == 0 {
		step = 1
	}

	segment := make([]float64, nperseg)
	coeffs := make([]complex128, bins)
	segments := 0
	for start := 0; start+nperseg <= len(x); start += step {
		// Remove the segment mean before tapering.
		mean := 0.0
		for _, v := range x[start : start+nperseg] {
			mean += v
		}
		mean /= float64(nperseg)
		for i := 0; i < nperseg; i++ {
			segment[i] = (x[start+i] - mean) * window[i]
		}

		coeffs = fft.Coefficients(coeffs, segment)
		scale := 1.0 / (float64(sampleRate) * windowPower)
		for i, c := range coeffs {
			p := (real(c)*real(c) + imag(c)*imag(c)) * scale
			// One-sided: double everything except DC and Nyquist.
			if i != 0 && !(nperseg%2 == 0 && i == bins-1) {
				p *= 2
			}
			psd[i] += p
		}
		segments++
	}
	if segments == 0 {
		return nil, nil
	}
	for i := range psd {
		psd[i] /= float64(segments)
	}

	freqs = make([]float64, bins)
	for i := 0; i < bins; i++ {
		freqs[i] = float64(i) * float64(sampleRate) / float64(nperseg)
	}
	return freqs, psd
}

// bandMeanPSD averages psd over bins with low <= f <= high (inclusive on
// both ends, matching the band masks quality scoring was tuned against).
func bandMeanPSD(freqs, psd []float64, low, high float64) float64 {
	sum := 0.0
	count := 0
	for i, f := range freqs {
		if f >= low && f <= high {
			sum += psd[i]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
