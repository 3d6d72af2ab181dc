package metrics

import "github.com/san-kum/invsim/internal/wave"

// OutputPower is the mean instantaneous power v*i delivered across all phases.
type OutputPower struct {
	name    string
	samples int
	total   float64
}

func NewOutputPower() *OutputPower {
	return &OutputPower{name: "output_power"}
}

func (o *OutputPower) Name() string { return o.name }

func (o *OutputPower) Observe(w wave.Waveform, _ wave.MPPTState) {
	for i := range w.Times {
		var p float64
		for _, ph := range w.Phases {
			if i < len(ph.Voltage) && i < len(ph.Current) {
				p += ph.Voltage[i] * ph.Current[i]
			}
		}
		o.total += p
		o.samples++
	}
}

func (o *OutputPower) Value() float64 {
	if o.samples == 0 {
		return 0
	}
	return o.total / float64(o.samples)
}

func (o *OutputPower) Reset() {
	o.total = 0
	o.samples = 0
}
