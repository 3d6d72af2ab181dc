package inverter

import (
	"github.com/san-kum/invsim/internal/wave"
)

type PhaseKind int

const (
	SinglePhase PhaseKind = iota
	ThreePhase
	phaseKindCount
)

var phaseNames = [...]string{
	SinglePhase: "Single-Phase",
	ThreePhase:  "Three-Phase",
}

func (k PhaseKind) String() string {
	if !k.IsValid() {
		return "unknown"
	}
	return phaseNames[k]
}

func (k PhaseKind) IsValid() bool { return k >= SinglePhase && k < phaseKindCount }

func ParsePhaseKind(name string) (PhaseKind, error) {
	for k, n := range phaseNames {
		if n == name {
			return PhaseKind(k), nil
		}
	}
	return 0, &VariantError{Slot: SlotPhase, Name: name}
}

// MultilevelKind selects the multilevel stage. MultilevelNone bypasses it.
type MultilevelKind int

const (
	MultilevelNone MultilevelKind = iota
	NPC
	FlyingCapacitor
	CascadedHBridge
	MMC
	ReducedSwitchCount
	HybridCHBPlusNPC
	multilevelKindCount
)

var multilevelNames = [...]string{
	MultilevelNone:     "None",
	NPC:                "NPC",
	FlyingCapacitor:    "Flying Capacitor",
	CascadedHBridge:    "Cascaded H-Bridge",
	MMC:                "MMC",
	ReducedSwitchCount: "Reduced Switch Count",
	HybridCHBPlusNPC:   "Hybrid CHB+NPC",
}

func (k MultilevelKind) String() string {
	if !k.IsValid() {
		return "unknown"
	}
	return multilevelNames[k]
}

func (k MultilevelKind) IsValid() bool { return k >= MultilevelNone && k < multilevelKindCount }

func ParseMultilevelKind(name string) (MultilevelKind, error) {
	for k, n := range multilevelNames {
		if n == name {
			return MultilevelKind(k), nil
		}
	}
	return 0, &VariantError{Slot: SlotMultilevel, Name: name}
}

type DesignKind int

const (
	Transformerless DesignKind = iota
	TransformerBased
	designKindCount
)

var designNames = [...]string{
	Transformerless:  "Transformerless",
	TransformerBased: "Transformer-Based",
}

func (k DesignKind) String() string {
	if !k.IsValid() {
		return "unknown"
	}
	return designNames[k]
}

func (k DesignKind) IsValid() bool { return k >= Transformerless && k < designKindCount }

func ParseDesignKind(name string) (DesignKind, error) {
	for k, n := range designNames {
		if n == name {
			return DesignKind(k), nil
		}
	}
	return 0, &VariantError{Slot: SlotDesign, Name: name}
}

// MPPTKind selects the tracker. MPPTNone leaves the DC voltage under caller control.
type MPPTKind int

const (
	MPPTNone MPPTKind = iota
	PerturbAndObserve
	IncrementalConductance
	ConstantVoltage
	ConstantCurrent
	RippleCorrelationControl
	mpptKindCount
)

var mpptNames = [...]string{
	MPPTNone:                 "None",
	PerturbAndObserve:        "Perturb & Observe",
	IncrementalConductance:   "Incremental Conductance",
	ConstantVoltage:          "Constant Voltage",
	ConstantCurrent:          "Constant Current",
	RippleCorrelationControl: "Ripple Correlation Control",
}

func (k MPPTKind) String() string {
	if !k.IsValid() {
		return "unknown"
	}
	return mpptNames[k]
}

func (k MPPTKind) IsValid() bool { return k >= MPPTNone && k < mpptKindCount }

func ParseMPPTKind(name string) (MPPTKind, error) {
	for k, n := range mpptNames {
		if n == name {
			return MPPTKind(k), nil
		}
	}
	return 0, &VariantError{Slot: SlotMPPT, Name: name}
}

func ParsePWMTechnique(name string) (string, error) {
	if !wave.IsPWMTechnique(name) {
		return "", &VariantError{Slot: SlotPWM, Name: name}
	}
	return name, nil
}

// PhaseNames and its siblings return copies; the lookup tables stay fixed.
func PhaseNames() []string      { return append([]string(nil), phaseNames[:]...) }
func MultilevelNames() []string { return append([]string(nil), multilevelNames[:]...) }
func DesignNames() []string     { return append([]string(nil), designNames[:]...) }
func MPPTNames() []string       { return append([]string(nil), mpptNames[:]...) }
