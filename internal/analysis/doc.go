// Package analysis provides spectral measurements of inverter output windows.
//
//   - [FFT] and [PowerSpectrum]: radix-2 transform of a zero-padded window
//   - [DominantFrequency]: strongest non-DC bin of the spectrum
//   - [RMS]: root mean square of a window
//   - [Harmonics] and [THD]: per-harmonic amplitudes, taken from an
//     arbitrary-length transform over whole fundamental periods, and total
//     harmonic distortion relative to the fundamental
//
// # Power Quality
//
// Grid codes commonly cap voltage THD at 5 percent:
//
//	thd, err := analysis.THD(phase.Voltage, 1/timeStep, 50)
//	if err == nil && thd > 0.05 {
//	    // output needs more filtering or more levels
//	}
package analysis
