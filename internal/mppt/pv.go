package mppt

import "math"

const (
	DefaultOpenCircuitVoltage  = 480.0
	DefaultShortCircuitCurrent = 10.0
	DefaultThermalVoltage      = 24.0
	StandardIrradiance         = 1000.0
)

// PVArray is an exponential approximation of a PV string's I-V curve.
// Irradiance, when set, returns W/m^2 at simulated time t.
type PVArray struct {
	Voc        float64
	Isc        float64
	Vt         float64
	Irradiance func(t float64) float64
}

func NewPVArray() *PVArray {
	return &PVArray{
		Voc: DefaultOpenCircuitVoltage,
		Isc: DefaultShortCircuitCurrent,
		Vt:  DefaultThermalVoltage,
	}
}

func (pv *PVArray) shortCircuit(t float64) float64 {
	g := StandardIrradiance
	if pv.Irradiance != nil {
		g = pv.Irradiance(t)
	}
	return pv.Isc * math.Max(g, 0) / StandardIrradiance
}

// Current returns the string current at terminal voltage v.
func (pv *PVArray) Current(v, t float64) float64 {
	isc := pv.shortCircuit(t)
	if isc == 0 || v >= pv.Voc {
		return 0
	}
	i := isc * (1 - math.Exp((v-pv.Voc)/pv.Vt))
	return math.Max(i, 0)
}

func (pv *PVArray) Power(v, t float64) float64 {
	return v * pv.Current(v, t)
}

// MaximumPowerPoint scans the curve on a 0.1 V grid.
func (pv *PVArray) MaximumPowerPoint(t float64) (v, p float64) {
	for x := 0.0; x <= pv.Voc; x += 0.1 {
		if px := pv.Power(x, t); px > p {
			v, p = x, px
		}
	}
	return v, p
}

// ConstantIrradiance returns an irradiance profile fixed at g W/m^2.
func ConstantIrradiance(g float64) func(float64) float64 {
	return func(float64) float64 { return g }
}
