package topology

import (
	"math"

	"github.com/san-kum/invsim/internal/wave"
)

// CarrierRatio is the carrier to fundamental frequency ratio for carrier based PWM.
const CarrierRatio = 21

// Multilevel reshapes a phase topology's output into a staircase of Levels
// voltage levels spanning [-Vdc, +Vdc].
type Multilevel struct {
	Name   string
	Levels int

	params wave.Params
	timing wave.Timing

	last       []int
	Switchings int

	she map[float64][]float64
}

func newMultilevel(name string, levels int, p wave.Params, tm wave.Timing) *Multilevel {
	return &Multilevel{Name: name, Levels: levels, params: p, timing: tm}
}

func NewNPC(p wave.Params, tm wave.Timing) *Multilevel {
	return newMultilevel("NPC", 3, p, tm)
}

func NewFlyingCapacitor(p wave.Params, tm wave.Timing) *Multilevel {
	return newMultilevel("Flying Capacitor", 5, p, tm)
}

func NewCascadedHBridge(p wave.Params, tm wave.Timing) *Multilevel {
	return newMultilevel("Cascaded H-Bridge", 7, p, tm)
}

func NewMMC(p wave.Params, tm wave.Timing) *Multilevel {
	return newMultilevel("MMC", 9, p, tm)
}

func NewReducedSwitchCount(p wave.Params, tm wave.Timing) *Multilevel {
	return newMultilevel("Reduced Switch Count", 7, p, tm)
}

func NewHybridCHBPlusNPC(p wave.Params, tm wave.Timing) *Multilevel {
	return newMultilevel("Hybrid CHB+NPC", 9, p, tm)
}

func (m *Multilevel) UpdateParameters(p wave.Params) { m.params = p }

func (m *Multilevel) Reset() {
	m.last = nil
	m.Switchings = 0
}

func (m *Multilevel) GenerateWaveforms(t float64, phase wave.PhaseTopology, pwm string) wave.Waveform {
	w := phase.GenerateWaveforms(t)
	w.Levels = m.Levels

	vdc := m.params.DCVoltage
	steps := m.Levels - 1
	if vdc <= 0 || steps < 1 {
		return w
	}

	if len(m.last) != len(w.Phases) {
		m.last = make([]int, len(w.Phases))
		for i := range m.last {
			m.last[i] = -1
		}
	}

	refs := make([][]float64, len(w.Phases))
	for p, ph := range w.Phases {
		refs[p] = make([]float64, len(ph.Voltage))
		for i, v := range ph.Voltage {
			refs[p][i] = clamp(v/vdc, -1, 1)
		}
	}
	if pwm == wave.PWMSpaceVector && len(refs) > 1 {
		injectCommonMode(refs)
	}

	fc := CarrierRatio * m.params.Frequency
	for p := range w.Phases {
		var peak float64
		var angles []float64
		if pwm == wave.PWMSelectiveHarm && steps%2 == 0 {
			for _, r := range refs[p] {
				peak = math.Max(peak, math.Abs(r))
			}
			if peak > 0 {
				angles = m.sheAngles(steps/2, peak)
			}
		}

		out := make([]float64, len(refs[p]))
		for i, r := range refs[p] {
			x := (r + 1) / 2 * float64(steps)
			var k int
			switch {
			case angles != nil:
				k = selectiveHarmonic(r, peak, angles)
			case pwm == wave.PWMNearestLevel, pwm == wave.PWMSelectiveHarm:
				k = int(math.Round(x))
			case pwm == wave.PWMPhaseShifted:
				k = phaseShifted(x/float64(steps), steps, fc, w.Times[i])
			case pwm == wave.PWMLevelShifted:
				k = levelShifted(x, steps, fc, w.Times[i], true)
			default:
				k = levelShifted(x, steps, fc, w.Times[i], false)
			}
			if m.last[p] >= 0 && k != m.last[p] {
				m.Switchings++
			}
			m.last[p] = k
			out[i] = vdc * (2*float64(k)/float64(steps) - 1)
		}
		w.Phases[p].Voltage = out
	}
	return w
}

// triangle returns a unit triangular carrier in [0, 1].
func triangle(fc, t, shift float64) float64 {
	ph := math.Mod(fc*t+shift, 1)
	if ph < 0 {
		ph++
	}
	if ph < 0.5 {
		return 2 * ph
	}
	return 2 - 2*ph
}

// levelShifted stacks steps carriers, all in phase (phase disposition) or,
// with alternate set, every other carrier inverted (alternate phase
// opposition disposition).
func levelShifted(x float64, steps int, fc, t float64, alternate bool) int {
	tri := triangle(fc, t, 0)
	k := 0
	for j := 0; j < steps; j++ {
		c := tri
		if alternate && j%2 == 1 {
			c = 1 - tri
		}
		if x > float64(j)+c {
			k++
		}
	}
	return k
}

// phaseShifted compares a unit reference against steps full range carriers
// shifted by 1/steps of a carrier period.
func phaseShifted(r float64, steps int, fc, t float64) int {
	k := 0
	for j := 0; j < steps; j++ {
		if r > triangle(fc, t, float64(j)/float64(steps)) {
			k++
		}
	}
	return k
}

// injectCommonMode applies min-max injection, the carrier based equivalent of
// space vector modulation.
func injectCommonMode(refs [][]float64) {
	n := len(refs[0])
	for i := 0; i < n; i++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for p := range refs {
			lo = math.Min(lo, refs[p][i])
			hi = math.Max(hi, refs[p][i])
		}
		cm := (lo + hi) / 2
		for p := range refs {
			refs[p][i] = clamp(refs[p][i]-cm, -1, 1)
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
