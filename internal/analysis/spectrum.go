package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultPowerShare is the share of spectral power used to define the
// excitation bandwidth.
const DefaultPowerShare = 0.9

// PowerSpectrum returns |X(f)|^2 for f = 0, 1/n, ..., 1/2 after removing the
// signal mean. Signals shorter than two samples have no spectrum.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n < 2 {
		return nil
	}
	if floats.Min(data) == floats.Max(data) {
		return make([]float64, n/2+1)
	}

	mean := stat.Mean(data, nil)
	centered := make([]float64, n)
	copy(centered, data)
	floats.AddConst(-mean, centered)

	coeffs := fourier.NewFFT(n).Coefficients(nil, centered)
	ps := make([]float64, len(coeffs))
	for i, c := range coeffs {
		a := cmplx.Abs(c)
		ps[i] = a * a
	}
	return ps
}

// Bandwidth returns the smallest normalized frequency below which share of
// the total power lies. A spectrum with no power has zero bandwidth.
func Bandwidth(ps []float64, share float64) float64 {
	total := floats.Sum(ps)
	if len(ps) < 2 || total == 0 {
		return 0
	}

	n := 2 * (len(ps) - 1)
	target := share * total
	acc := 0.0
	for i, p := range ps {
		acc += p
		if acc >= target {
			return float64(i) / float64(n)
		}
	}
	return 0.5
}

// InputBandwidths maps each named channel to its excitation bandwidth.
func InputBandwidths(names []string, channels [][]float64, share float64) map[string]float64 {
	out := make(map[string]float64, len(names))
	for i, name := range names {
		if i >= len(channels) {
			break
		}
		out[name] = Bandwidth(PowerSpectrum(channels[i]), share)
	}
	return out
}
