package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// MaxHarmonic bounds the harmonic orders considered by THD.
const MaxHarmonic = 50

var ErrNotEnoughSamples = errors.New("analysis: window shorter than one fundamental period")

func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range data {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(data)))
}

// Harmonics returns peak amplitudes of orders 1..maxOrder (index 0 is the
// fundamental). The window is truncated to a whole number of fundamental
// periods so each order falls exactly on a DFT bin.
func Harmonics(data []float64, sampleRate, fundamental float64, maxOrder int) ([]float64, error) {
	if sampleRate <= 0 || fundamental <= 0 {
		return nil, fmt.Errorf("analysis: sample rate %g and fundamental %g must be positive", sampleRate, fundamental)
	}
	perPeriod := sampleRate / fundamental
	periods := int(float64(len(data)) / perPeriod)
	if periods < 1 {
		return nil, ErrNotEnoughSamples
	}
	n := int(math.Round(float64(periods) * perPeriod))
	if n > len(data) {
		n = len(data)
	}
	spectrum := fft.FFTReal(data[:n])

	if nyquist := n / (2 * periods); maxOrder > nyquist {
		maxOrder = nyquist
	}
	amps := make([]float64, 0, maxOrder)
	for k := 1; k <= maxOrder; k++ {
		amps = append(amps, 2*cmplx.Abs(spectrum[k*periods])/float64(n))
	}
	return amps, nil
}

// THD returns total harmonic distortion as a fraction of the fundamental.
func THD(data []float64, sampleRate, fundamental float64) (float64, error) {
	amps, err := Harmonics(data, sampleRate, fundamental, MaxHarmonic)
	if err != nil {
		return 0, err
	}
	if len(amps) == 0 || amps[0] == 0 {
		return 0, nil
	}
	var sum float64
	for _, a := range amps[1:] {
		sum += a * a
	}
	return math.Sqrt(sum) / amps[0], nil
}
