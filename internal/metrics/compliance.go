package metrics

import (
	"github.com/san-kum/invsim/internal/analysis"
	"github.com/san-kum/invsim/internal/wave"
)

// DefaultTHDLimit is the usual grid-code ceiling on voltage THD.
const DefaultTHDLimit = 0.05

// Compliance is the fraction of windows whose phase voltages all stay within
// the THD limit. Windows too short to analyse are not counted.
type Compliance struct {
	name        string
	limit       float64
	sampleRate  float64
	fundamental float64
	violations  int
	samples     int
}

func NewCompliance(limit, sampleRate, fundamental float64) *Compliance {
	return &Compliance{
		name:        "thd_compliance",
		limit:       limit,
		sampleRate:  sampleRate,
		fundamental: fundamental,
	}
}

func (c *Compliance) Name() string {
	return c.name
}

func (c *Compliance) Observe(w wave.Waveform, _ wave.MPPTState) {
	counted := false
	for _, ph := range w.Phases {
		thd, err := analysis.THD(ph.Voltage, c.sampleRate, c.fundamental)
		if err != nil {
			continue
		}
		if !counted {
			c.samples++
			counted = true
		}
		if thd > c.limit {
			c.violations++
			break
		}
	}
}

func (c *Compliance) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Compliance) Reset() {
	c.violations = 0
	c.samples = 0
}
