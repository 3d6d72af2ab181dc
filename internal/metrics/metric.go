package metrics

import "github.com/san-kum/invsim/internal/wave"

// Metric accumulates a figure of merit over successive output windows.
type Metric interface {
	Name() string
	Observe(w wave.Waveform, state wave.MPPTState)
	Value() float64
	Reset()
}
