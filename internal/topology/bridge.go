package topology

import (
	"math"

	"github.com/san-kum/invsim/internal/wave"
)

const (
	DefaultLoadResistance = 10.0
	DefaultLoadInductance = 0.01
)

// Load is the series RL load seen by each output phase.
type Load struct {
	Resistance float64
	Inductance float64
}

func DefaultLoad() Load {
	return Load{Resistance: DefaultLoadResistance, Inductance: DefaultLoadInductance}
}

// bridge holds what single and three phase inverters share: parameters, timing
// and the inductor current carried from one window into the next.
type bridge struct {
	params wave.Params
	timing wave.Timing
	load   Load
	carry  []float64
}

func newBridge(p wave.Params, tm wave.Timing, phases int) bridge {
	return bridge{
		params: p,
		timing: tm,
		load:   DefaultLoad(),
		carry:  make([]float64, phases),
	}
}

func (b *bridge) UpdateParameters(p wave.Params) { b.params = p }

func (b *bridge) Reset() {
	for i := range b.carry {
		b.carry[i] = 0
	}
}

// synthesize samples one window starting at t. Consecutive windows overlap by
// half, so the inductor current at the window midpoint seeds the next call.
func (b *bridge) synthesize(t, amplitude float64, names []string, offsets []float64) wave.Waveform {
	n := b.timing.SampleCount()
	dt := b.timing.Step
	omega := 2 * math.Pi * b.params.Frequency

	w := wave.Waveform{
		Times:  make([]float64, n),
		Phases: make([]wave.Phase, len(names)),
		Levels: 2,
	}
	for i := 0; i < n; i++ {
		w.Times[i] = t + float64(i)*dt
	}

	r, l := b.load.Resistance, b.load.Inductance
	mid := n / 2
	for p, name := range names {
		v := make([]float64, n)
		cur := make([]float64, n)
		prev := b.carry[p]
		for i, ti := range w.Times {
			v[i] = amplitude * math.Sin(omega*ti+offsets[p])
			// backward Euler on L di/dt = v - R i
			prev = (v[i]*dt + l*prev) / (l + r*dt)
			cur[i] = prev
		}
		if n > 0 {
			b.carry[p] = cur[mid]
		}
		w.Phases[p] = wave.Phase{Name: name, Voltage: v, Current: cur}
	}
	return w
}

type SinglePhase struct {
	bridge
}

func NewSinglePhase(p wave.Params, tm wave.Timing) *SinglePhase {
	return &SinglePhase{bridge: newBridge(p, tm, 1)}
}

// GenerateWaveforms produces the full-bridge output, peak m*Vdc.
func (s *SinglePhase) GenerateWaveforms(t float64) wave.Waveform {
	amp := s.params.ModulationIndex * s.params.DCVoltage
	return s.synthesize(t, amp, []string{"a"}, []float64{0})
}

const TwoPiOverThree = 2 * math.Pi / 3

type ThreePhase struct {
	bridge
}

func NewThreePhase(p wave.Params, tm wave.Timing) *ThreePhase {
	return &ThreePhase{bridge: newBridge(p, tm, 3)}
}

// GenerateWaveforms produces phase-to-midpoint voltages, peak m*Vdc/2.
func (s *ThreePhase) GenerateWaveforms(t float64) wave.Waveform {
	amp := s.params.ModulationIndex * s.params.DCVoltage / 2
	return s.synthesize(t, amp,
		[]string{"a", "b", "c"},
		[]float64{0, -TwoPiOverThree, TwoPiOverThree},
	)
}
