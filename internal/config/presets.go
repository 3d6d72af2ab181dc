package config

import "sort"

var Presets = map[string]*Config{
	"residential": {
		Name: "residential", DCVoltage: 400, Frequency: 50, ModulationIndex: 0.8,
		TimeWindow: 0.04, TimeStep: 0.0001, Steps: 50,
		Topology: "Single-Phase", Multilevel: "None", PWM: "Multicarrier",
		Design: "Transformerless", MPPT: "None",
	},
	"utility-npc": {
		Name: "utility-npc", DCVoltage: 800, Frequency: 50, ModulationIndex: 0.9,
		TimeWindow: 0.04, TimeStep: 0.00005, Steps: 100,
		Topology: "Three-Phase", Multilevel: "NPC", PWM: "Space Vector",
		Design: "Transformer-Based", MPPT: "None",
	},
	"mppt-tracking": {
		Name: "mppt-tracking", DCVoltage: 300, Frequency: 60, ModulationIndex: 0.8,
		TimeWindow: 0.05, TimeStep: 0.0001, Steps: 200,
		Topology: "Single-Phase", Multilevel: "None", PWM: "Multicarrier",
		Design: "Transformerless", MPPT: "Perturb & Observe",
		PV: PVConfig{OpenCircuitVoltage: 480, ShortCircuitCurrent: 10, Irradiance: 850},
	},
	"isolated-chb": {
		Name: "isolated-chb", DCVoltage: 600, Frequency: 50, ModulationIndex: 0.95,
		TimeWindow: 0.04, TimeStep: 0.0001, Steps: 50,
		Topology: "Three-Phase", Multilevel: "Cascaded H-Bridge", PWM: "Phase-Shifted",
		Design: "Transformer-Based", MPPT: "Incremental Conductance",
	},
}

// GetPreset returns a copy so callers may edit it freely.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
