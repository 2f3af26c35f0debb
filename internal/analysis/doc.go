// Package analysis characterizes the excitation signals fed to the plant.
//
// Identification needs inputs that are persistently exciting over the band
// the model should capture. The package estimates that band from the input
// sequence:
//
//   - [PowerSpectrum]: one-sided power spectrum of a mean-removed signal
//   - [Bandwidth]: normalized frequency below which a given share of the
//     power lies
//
// Frequencies are normalized to the sampling rate, so 0.5 is Nyquist.
//
//	ps := analysis.PowerSpectrum(flow)
//	bw := analysis.Bandwidth(ps, 0.9)
package analysis
