// Package photometry converts between magnitudes, limiting depths and
// signal-to-noise.
package photometry

import "math"

// SNRFunc computes the signal-to-noise of a source of magnitude mag observed
// with five-sigma limiting depth m5.
type SNRFunc func(mag, m5 float64) float64

// M5ToSNR is the flux-ratio SNR: a source at the five-sigma depth has SNR 5,
// and every magnitude brighter multiplies flux by 10^0.4.
func M5ToSNR(mag, m5 float64) float64 {
	return 5.0 * math.Pow(10, -0.4*(mag-m5))
}

// SNRToMagErr converts SNR to a magnitude uncertainty, 2.5*log10(1 + 1/snr).
// Non-positive SNR yields NaN or Inf.
func SNRToMagErr(snr float64) float64 {
	return 2.5 * math.Log10(1+1/snr)
}
