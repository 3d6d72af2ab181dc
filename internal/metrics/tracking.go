package metrics

import (
	"math"

	"github.com/san-kum/invsim/internal/wave"
)

// TrackingEffort is the mean absolute change of the MPPT operating voltage
// between consecutive windows.
type TrackingEffort struct {
	name    string
	started bool
	last    float64
	sum     float64
	samples int
}

func NewTrackingEffort() *TrackingEffort {
	return &TrackingEffort{
		name: "tracking_effort",
	}
}

func (te *TrackingEffort) Name() string {
	return te.name
}

func (te *TrackingEffort) Observe(_ wave.Waveform, state wave.MPPTState) {
	if te.started {
		te.sum += math.Abs(state.Voltage - te.last)
		te.samples++
	}
	te.started = true
	te.last = state.Voltage
}

func (te *TrackingEffort) Value() float64 {
	if te.samples == 0 {
		return 0
	}
	return te.sum / float64(te.samples)
}

func (te *TrackingEffort) Reset() {
	te.started = false
	te.last = 0
	te.sum = 0
	te.samples = 0
}
