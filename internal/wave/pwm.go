package wave

// PWM technique labels understood by the multilevel topologies.
const (
	PWMMulticarrier  = "Multicarrier"
	PWMPhaseShifted  = "Phase-Shifted"
	PWMLevelShifted  = "Level-Shifted"
	PWMSpaceVector   = "Space Vector"
	PWMSelectiveHarm = "Selective Harmonic Elimination"
	PWMNearestLevel  = "Nearest Level"
)

var pwmTechniques = []string{
	PWMMulticarrier,
	PWMPhaseShifted,
	PWMLevelShifted,
	PWMSpaceVector,
	PWMSelectiveHarm,
	PWMNearestLevel,
}

func PWMTechniques() []string {
	return append([]string(nil), pwmTechniques...)
}

func IsPWMTechnique(name string) bool {
	for _, p := range pwmTechniques {
		if p == name {
			return true
		}
	}
	return false
}
