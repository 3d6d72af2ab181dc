package inverter

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownVariant indicates a name outside a slot's vocabulary.
	ErrUnknownVariant = errors.New("inverter: unknown variant")

	// ErrNotRegistered indicates a valid kind with no constructor in the registry.
	ErrNotRegistered = errors.New("inverter: variant not registered")

	// ErrInvalidTiming indicates a non-positive window or step, or a step longer than the window.
	ErrInvalidTiming = errors.New("inverter: invalid timing")
)

type Slot string

const (
	SlotPhase      Slot = "phase topology"
	SlotMultilevel Slot = "multilevel topology"
	SlotPWM        Slot = "pwm technique"
	SlotDesign     Slot = "design"
	SlotMPPT       Slot = "mppt"
	SlotTiming     Slot = "timing"
)

// VariantError reports a name that does not belong to Slot.
type VariantError struct {
	Slot Slot
	Name string
}

func (e *VariantError) Error() string {
	return fmt.Sprintf("%s: %s %q", ErrUnknownVariant, e.Slot, e.Name)
}

func (e *VariantError) Unwrap() error {
	return ErrUnknownVariant
}
