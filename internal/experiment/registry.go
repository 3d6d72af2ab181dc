package experiment

import (
	"github.com/san-kum/invsim/internal/config"
	"github.com/san-kum/invsim/internal/inverter"
	"github.com/san-kum/invsim/internal/mppt"
	"github.com/san-kum/invsim/internal/wave"
)

// sourced is implemented by every tracker in the mppt package.
type sourced interface {
	wave.Tracker
	Source() *mppt.PVArray
}

// NewRegistry returns the default registry with tracker factories that harvest
// from the array described by pv.
func NewRegistry(pv config.PVConfig) *inverter.Registry {
	r := inverter.DefaultRegistry()

	trackers := map[inverter.MPPTKind]func() sourced{
		inverter.PerturbAndObserve:        func() sourced { return mppt.NewPerturbAndObserve() },
		inverter.IncrementalConductance:   func() sourced { return mppt.NewIncrementalConductance() },
		inverter.ConstantVoltage:          func() sourced { return mppt.NewConstantVoltage() },
		inverter.ConstantCurrent:          func() sourced { return mppt.NewConstantCurrent() },
		inverter.RippleCorrelationControl: func() sourced { return mppt.NewRippleCorrelationControl() },
	}
	for k, ctor := range trackers {
		ctor := ctor
		r.RegisterTracker(k, func() wave.Tracker {
			tr := ctor()
			applyPV(tr.Source(), pv)
			return tr
		})
	}
	return r
}

func applyPV(arr *mppt.PVArray, pv config.PVConfig) {
	if pv.OpenCircuitVoltage > 0 {
		arr.Voc = pv.OpenCircuitVoltage
	}
	if pv.ShortCircuitCurrent > 0 {
		arr.Isc = pv.ShortCircuitCurrent
	}
	if pv.Irradiance > 0 {
		arr.Irradiance = mppt.ConstantIrradiance(pv.Irradiance)
	}
}
