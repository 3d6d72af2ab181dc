package wave

import (
	"math"
)

type Params struct {
	DCVoltage       float64 `yaml:"dc_voltage"`
	Frequency       float64 `yaml:"frequency"`
	ModulationIndex float64 `yaml:"modulation_index"`
}

type Timing struct {
	Window float64 `yaml:"time_window"`
	Step   float64 `yaml:"time_step"`
}

// SampleCount is the number of points produced per window.
func (t Timing) SampleCount() int {
	if t.Step <= 0 {
		return 0
	}
	// guard against 0.04/0.0001 = 399.99999...
	return int(math.Floor(t.Window/t.Step + 1e-9))
}

type Phase struct {
	Name    string
	Voltage []float64
	Current []float64
}

func (p Phase) Clone() Phase {
	c := Phase{Name: p.Name}
	c.Voltage = append([]float64(nil), p.Voltage...)
	c.Current = append([]float64(nil), p.Current...)
	return c
}

type Waveform struct {
	Times  []float64
	Phases []Phase
	Levels int
}

func (w Waveform) Clone() Waveform {
	c := Waveform{Levels: w.Levels}
	c.Times = append([]float64(nil), w.Times...)
	c.Phases = make([]Phase, len(w.Phases))
	for i, p := range w.Phases {
		c.Phases[i] = p.Clone()
	}
	return c
}

func (w Waveform) Len() int { return len(w.Times) }

func (w Waveform) Phase(name string) (Phase, bool) {
	for _, p := range w.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return Phase{}, false
}

// MPPTState is shared bookkeeping between the orchestrator and the active tracker.
// Trackers may write Power and Current; Voltage is owned by the orchestrator.
type MPPTState struct {
	Voltage float64
	Power   float64
	Current float64
}

type PhaseTopology interface {
	UpdateParameters(p Params)
	GenerateWaveforms(t float64) Waveform
	Reset()
}

type MultilevelTopology interface {
	UpdateParameters(p Params)
	GenerateWaveforms(t float64, phase PhaseTopology, pwm string) Waveform
	Reset()
}

type Design interface {
	ApplyDesign(w Waveform, dcVoltage, frequency, timeStep float64) Waveform
}

type Tracker interface {
	Update(state *MPPTState, timeStep, t float64) float64
}
