package inverter

import (
	"fmt"

	"github.com/san-kum/invsim/internal/design"
	"github.com/san-kum/invsim/internal/mppt"
	"github.com/san-kum/invsim/internal/topology"
	"github.com/san-kum/invsim/internal/wave"
)

type (
	PhaseFactory      func(p wave.Params, tm wave.Timing) wave.PhaseTopology
	MultilevelFactory func(p wave.Params, tm wave.Timing) wave.MultilevelTopology
	DesignFactory     func() wave.Design
	TrackerFactory    func() wave.Tracker
)

// Registry maps each strategy kind to the constructor used when a slot is
// replaced. MultilevelNone and MPPTNone are never looked up.
type Registry struct {
	phases      map[PhaseKind]PhaseFactory
	multilevels map[MultilevelKind]MultilevelFactory
	designs     map[DesignKind]DesignFactory
	trackers    map[MPPTKind]TrackerFactory
}

func NewRegistry() *Registry {
	return &Registry{
		phases:      make(map[PhaseKind]PhaseFactory),
		multilevels: make(map[MultilevelKind]MultilevelFactory),
		designs:     make(map[DesignKind]DesignFactory),
		trackers:    make(map[MPPTKind]TrackerFactory),
	}
}

// DefaultRegistry wires the reference strategies for every kind.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.RegisterPhase(SinglePhase, func(p wave.Params, tm wave.Timing) wave.PhaseTopology { return topology.NewSinglePhase(p, tm) })
	r.RegisterPhase(ThreePhase, func(p wave.Params, tm wave.Timing) wave.PhaseTopology { return topology.NewThreePhase(p, tm) })

	multilevel := func(ctor func(wave.Params, wave.Timing) *topology.Multilevel) MultilevelFactory {
		return func(p wave.Params, tm wave.Timing) wave.MultilevelTopology { return ctor(p, tm) }
	}
	r.RegisterMultilevel(NPC, multilevel(topology.NewNPC))
	r.RegisterMultilevel(FlyingCapacitor, multilevel(topology.NewFlyingCapacitor))
	r.RegisterMultilevel(CascadedHBridge, multilevel(topology.NewCascadedHBridge))
	r.RegisterMultilevel(MMC, multilevel(topology.NewMMC))
	r.RegisterMultilevel(ReducedSwitchCount, multilevel(topology.NewReducedSwitchCount))
	r.RegisterMultilevel(HybridCHBPlusNPC, multilevel(topology.NewHybridCHBPlusNPC))

	r.RegisterDesign(Transformerless, func() wave.Design { return design.NewTransformerless() })
	r.RegisterDesign(TransformerBased, func() wave.Design { return design.NewTransformerBased() })

	r.RegisterTracker(PerturbAndObserve, func() wave.Tracker { return mppt.NewPerturbAndObserve() })
	r.RegisterTracker(IncrementalConductance, func() wave.Tracker { return mppt.NewIncrementalConductance() })
	r.RegisterTracker(ConstantVoltage, func() wave.Tracker { return mppt.NewConstantVoltage() })
	r.RegisterTracker(ConstantCurrent, func() wave.Tracker { return mppt.NewConstantCurrent() })
	r.RegisterTracker(RippleCorrelationControl, func() wave.Tracker { return mppt.NewRippleCorrelationControl() })

	return r
}

func (r *Registry) RegisterPhase(k PhaseKind, fn PhaseFactory)                { r.phases[k] = fn }
func (r *Registry) RegisterMultilevel(k MultilevelKind, fn MultilevelFactory) { r.multilevels[k] = fn }
func (r *Registry) RegisterDesign(k DesignKind, fn DesignFactory)             { r.designs[k] = fn }
func (r *Registry) RegisterTracker(k MPPTKind, fn TrackerFactory)             { r.trackers[k] = fn }

func (r *Registry) NewPhase(k PhaseKind, p wave.Params, tm wave.Timing) (wave.PhaseTopology, error) {
	fn, ok := r.phases[k]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrNotRegistered, SlotPhase, k)
	}
	return fn(p, tm), nil
}

// NewMultilevel returns nil for MultilevelNone.
func (r *Registry) NewMultilevel(k MultilevelKind, p wave.Params, tm wave.Timing) (wave.MultilevelTopology, error) {
	if k == MultilevelNone {
		return nil, nil
	}
	fn, ok := r.multilevels[k]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrNotRegistered, SlotMultilevel, k)
	}
	return fn(p, tm), nil
}

func (r *Registry) NewDesign(k DesignKind) (wave.Design, error) {
	fn, ok := r.designs[k]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrNotRegistered, SlotDesign, k)
	}
	return fn(), nil
}

// NewTracker returns nil for MPPTNone.
func (r *Registry) NewTracker(k MPPTKind) (wave.Tracker, error) {
	if k == MPPTNone {
		return nil, nil
	}
	fn, ok := r.trackers[k]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrNotRegistered, SlotMPPT, k)
	}
	return fn(), nil
}
