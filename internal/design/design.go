package design

import (
	"math"

	"github.com/san-kum/invsim/internal/wave"
)

const (
	// DefaultCutoffRatio places the output filter corner at this multiple of the fundamental.
	DefaultCutoffRatio = 40.0
	DefaultTurnsRatio  = 1.5
	DefaultEfficiency  = 0.97
)

// Transformerless models a filter-only output stage. Without galvanic
// isolation any DC component reaches the grid, so it is removed here, and the
// output cannot exceed the DC link.
type Transformerless struct {
	CutoffRatio float64
}

func NewTransformerless() *Transformerless {
	return &Transformerless{CutoffRatio: DefaultCutoffRatio}
}

func (d *Transformerless) ApplyDesign(w wave.Waveform, dcVoltage, frequency, timeStep float64) wave.Waveform {
	out := w.Clone()
	alpha := smoothing(d.CutoffRatio*frequency, timeStep)
	for i := range out.Phases {
		v := out.Phases[i].Voltage
		removeMean(v)
		lowPass(v, alpha)
		clip(v, dcVoltage)
	}
	return out
}

// TransformerBased models a line-frequency transformer after the filter:
// voltage scales by the turns ratio, current by its inverse, both derated by
// Efficiency.
type TransformerBased struct {
	CutoffRatio float64
	TurnsRatio  float64
	Efficiency  float64
}

func NewTransformerBased() *TransformerBased {
	return &TransformerBased{
		CutoffRatio: DefaultCutoffRatio,
		TurnsRatio:  DefaultTurnsRatio,
		Efficiency:  DefaultEfficiency,
	}
}

func (d *TransformerBased) ApplyDesign(w wave.Waveform, dcVoltage, frequency, timeStep float64) wave.Waveform {
	out := w.Clone()
	alpha := smoothing(d.CutoffRatio*frequency, timeStep)
	loss := math.Sqrt(d.Efficiency)
	for i := range out.Phases {
		v := out.Phases[i].Voltage
		lowPass(v, alpha)
		// transformers do not pass DC
		removeMean(v)
		scale(v, d.TurnsRatio*loss)
		clip(v, dcVoltage*d.TurnsRatio)

		if d.TurnsRatio != 0 {
			scale(out.Phases[i].Current, loss/d.TurnsRatio)
		}
	}
	return out
}

// smoothing returns the coefficient of a discrete first order low-pass with
// corner fc sampled every dt. Non-positive inputs disable filtering.
func smoothing(fc, dt float64) float64 {
	if fc <= 0 || dt <= 0 {
		return 1
	}
	rc := 1 / (2 * math.Pi * fc)
	return dt / (rc + dt)
}

func lowPass(v []float64, alpha float64) {
	if len(v) == 0 || alpha >= 1 {
		return
	}
	y := v[0]
	for i := range v {
		y += alpha * (v[i] - y)
		v[i] = y
	}
}

func removeMean(v []float64) {
	if len(v) == 0 {
		return
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	mean := sum / float64(len(v))
	for i := range v {
		v[i] -= mean
	}
}

func clip(v []float64, limit float64) {
	if limit <= 0 {
		return
	}
	for i := range v {
		v[i] = math.Max(-limit, math.Min(limit, v[i]))
	}
}

func scale(v []float64, k float64) {
	for i := range v {
		v[i] *= k
	}
}
