package mppt

import (
	"math"

	"github.com/san-kum/invsim/internal/wave"
)

const (
	DefaultStepSize   = 2.0
	DefaultMinVoltage = 50.0
	DefaultTolerance  = 1e-3
)

// tracker is the measurement and limiting logic common to every algorithm.
type tracker struct {
	PV         *PVArray
	StepSize   float64
	MinVoltage float64

	started bool
	prevV   float64
	prevI   float64
	prevP   float64
}

func newTracker() tracker {
	return tracker{
		PV:         NewPVArray(),
		StepSize:   DefaultStepSize,
		MinVoltage: DefaultMinVoltage,
	}
}

// measure samples the source at the operating voltage and records the result
// into state.
func (tr *tracker) measure(state *wave.MPPTState, t float64) (v, i, p float64) {
	v = state.Voltage
	i = tr.PV.Current(v, t)
	p = v * i
	state.Current = i
	state.Power = p
	return v, i, p
}

func (tr *tracker) remember(v, i, p float64) {
	tr.started = true
	tr.prevV, tr.prevI, tr.prevP = v, i, p
}

// Source exposes the array a tracker measures, so callers can reconfigure it.
func (tr *tracker) Source() *PVArray { return tr.PV }

func (tr *tracker) limit(v float64) float64 {
	return math.Max(tr.MinVoltage, math.Min(tr.PV.Voc, v))
}

type PerturbAndObserve struct {
	tracker
	direction float64
}

func NewPerturbAndObserve() *PerturbAndObserve {
	return &PerturbAndObserve{tracker: newTracker(), direction: 1}
}

func (po *PerturbAndObserve) Update(state *wave.MPPTState, timeStep, t float64) float64 {
	v, i, p := po.measure(state, t)
	if po.started && p < po.prevP {
		po.direction = -po.direction
	}
	po.remember(v, i, p)
	return po.limit(v + po.direction*po.StepSize)
}

// IncrementalConductance climbs until dI/dV equals -I/V, where dP/dV is zero.
type IncrementalConductance struct {
	tracker
	Tolerance float64
}

func NewIncrementalConductance() *IncrementalConductance {
	return &IncrementalConductance{tracker: newTracker(), Tolerance: DefaultTolerance}
}

func (ic *IncrementalConductance) Update(state *wave.MPPTState, timeStep, t float64) float64 {
	v, i, p := ic.measure(state, t)
	defer ic.remember(v, i, p)

	if !ic.started {
		return ic.limit(v + ic.StepSize)
	}

	dv, di := v-ic.prevV, i-ic.prevI
	next := v
	switch {
	case dv == 0:
		if di > 0 {
			next += ic.StepSize
		} else if di < 0 {
			next -= ic.StepSize
		}
	case v > 0:
		g, inc := di/dv, -i/v
		if math.Abs(g-inc) <= ic.Tolerance {
			break
		}
		if g > inc {
			next += ic.StepSize
		} else {
			next -= ic.StepSize
		}
	}
	return ic.limit(next)
}

// ConstantVoltage holds the array at a fixed fraction of open-circuit voltage.
type ConstantVoltage struct {
	tracker
	Fraction float64
}

func NewConstantVoltage() *ConstantVoltage {
	return &ConstantVoltage{tracker: newTracker(), Fraction: 0.78}
}

func (cv *ConstantVoltage) Update(state *wave.MPPTState, timeStep, t float64) float64 {
	v, i, p := cv.measure(state, t)
	cv.remember(v, i, p)
	return cv.limit(cv.Fraction * cv.PV.Voc)
}

// ConstantCurrent regulates string current to a fraction of short-circuit current.
type ConstantCurrent struct {
	tracker
	Fraction float64
}

func NewConstantCurrent() *ConstantCurrent {
	return &ConstantCurrent{tracker: newTracker(), Fraction: 0.9}
}

func (cc *ConstantCurrent) Update(state *wave.MPPTState, timeStep, t float64) float64 {
	v, i, p := cc.measure(state, t)
	cc.remember(v, i, p)

	target := cc.Fraction * cc.PV.shortCircuit(t)
	switch {
	case i > target:
		v += cc.StepSize
	case i < target:
		v -= cc.StepSize
	}
	return cc.limit(v)
}

// RippleCorrelationControl drives voltage along the sign of dP/dt * dV/dt.
type RippleCorrelationControl struct {
	tracker
	Gain    float64
	MaxStep float64
}

func NewRippleCorrelationControl() *RippleCorrelationControl {
	return &RippleCorrelationControl{
		tracker: newTracker(),
		Gain:    1e-4,
		MaxStep: 4 * DefaultStepSize,
	}
}

func (rc *RippleCorrelationControl) Update(state *wave.MPPTState, timeStep, t float64) float64 {
	v, i, p := rc.measure(state, t)
	defer rc.remember(v, i, p)

	if !rc.started || timeStep <= 0 {
		return rc.limit(v + rc.StepSize)
	}

	dvdt := (v - rc.prevV) / timeStep
	dpdt := (p - rc.prevP) / timeStep
	delta := rc.Gain * dvdt * dpdt * timeStep
	if delta == 0 {
		// no ripple to correlate against, inject one
		delta = rc.StepSize
	}
	delta = math.Max(-rc.MaxStep, math.Min(rc.MaxStep, delta))
	return rc.limit(v + delta)
}
