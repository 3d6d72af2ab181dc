package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/san-kum/invsim/internal/analysis"
	"github.com/san-kum/invsim/internal/config"
	"github.com/san-kum/invsim/internal/inverter"
	"github.com/san-kum/invsim/internal/log"
	"github.com/san-kum/invsim/internal/metrics"
	"github.com/san-kum/invsim/internal/wave"
)

var ErrNotSetup = errors.New("experiment: not setup")

// Summary describes the last window produced by a run.
type Summary struct {
	Name              string
	Steps             int
	FinalTime         float64
	DCVoltage         float64
	MPPT              wave.MPPTState
	Levels            int
	RMS               float64
	THD               float64
	DominantFrequency float64
	Metrics           map[string]float64
}

type Experiment struct {
	cfg       *config.Config
	simulator *inverter.Simulation
	metrics   []metrics.Metric
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

func (e *Experiment) Setup(opts ...inverter.Option) error {
	sim, err := Build(e.cfg, opts...)
	if err != nil {
		return err
	}
	e.simulator = sim
	return nil
}

func (e *Experiment) AddMetric(m metrics.Metric) {
	e.metrics = append(e.metrics, m)
}

// DefaultMetrics returns fresh instances of the standard metrics for cfg.
func DefaultMetrics(cfg *config.Config) []metrics.Metric {
	return []metrics.Metric{
		metrics.NewOutputPower(),
		metrics.NewCompliance(metrics.DefaultTHDLimit, 1/cfg.TimeStep, cfg.Frequency),
		metrics.NewTrackingEffort(),
	}
}

// Run rewinds the simulation and the attached metrics, steps cfg.Steps times
// and summarises the final window. ctx is checked between steps. Strategy
// selection, the DC voltage and tracker memory carry over between runs.
func (e *Experiment) Run(ctx context.Context) (*Summary, error) {
	if e.simulator == nil {
		return nil, ErrNotSetup
	}
	logger := log.Ctx(ctx).With(slog.String("experiment", e.cfg.Name))

	e.simulator.Reset()
	for _, m := range e.metrics {
		m.Reset()
	}

	var last wave.Waveform
	for i := 0; i < e.cfg.Steps; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		last = e.simulator.GenerateWaveforms()
		state := e.simulator.MPPTState()
		for _, m := range e.metrics {
			m.Observe(last, state)
		}
	}

	s := &Summary{
		Name:      e.cfg.Name,
		Steps:     e.cfg.Steps,
		FinalTime: e.simulator.CurrentTime(),
		DCVoltage: e.simulator.Config().DCVoltage,
		MPPT:      e.simulator.MPPTState(),
		Levels:    last.Levels,
		Metrics:   make(map[string]float64, len(e.metrics)),
	}
	for _, m := range e.metrics {
		s.Metrics[m.Name()] = m.Value()
	}
	if a, ok := last.Phase("a"); ok && len(a.Voltage) > 0 {
		fs := 1 / e.cfg.TimeStep
		s.RMS = analysis.RMS(a.Voltage)
		s.DominantFrequency = analysis.DominantFrequency(a.Voltage, fs)
		thd, err := analysis.THD(a.Voltage, fs, e.cfg.Frequency)
		switch {
		case errors.Is(err, analysis.ErrNotEnoughSamples):
			logger.Warn("window too short for thd", slog.Float64("window", e.cfg.TimeWindow))
		case err != nil:
			return nil, err
		default:
			s.THD = thd
		}
	}

	logger.Info("experiment finished",
		slog.Int("steps", s.Steps),
		slog.Float64("dc_voltage", s.DCVoltage),
		slog.Float64("rms", s.RMS),
		slog.Float64("thd", s.THD),
	)
	return s, nil
}

// GetSimulator returns the underlying simulation, nil before Setup.
func (e *Experiment) GetSimulator() *inverter.Simulation {
	return e.simulator
}

// Build applies cfg to a fresh simulation through its mutators. The registry
// is derived from cfg.PV unless opts supply one.
func Build(cfg *config.Config, opts ...inverter.Option) (*inverter.Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts = append([]inverter.Option{inverter.WithRegistry(NewRegistry(cfg.PV))}, opts...)
	sim, err := inverter.New(opts...)
	if err != nil {
		return nil, err
	}

	if err := sim.UpdateTiming(cfg.TimeWindow, cfg.TimeStep); err != nil {
		return nil, fmt.Errorf("experiment %q: %w", cfg.Name, err)
	}
	sim.UpdateParameters(cfg.Params())

	steps := []struct {
		name string
		fn   func(string) error
	}{
		{cfg.Topology, sim.UpdatePhaseTopology},
		{cfg.Multilevel, sim.UpdateMultilevelTopology},
		{cfg.PWM, sim.UpdatePWMTechnique},
		{cfg.Design, sim.UpdateDesign},
		{cfg.MPPT, sim.UpdateMPPT},
	}
	for _, st := range steps {
		if err := st.fn(st.name); err != nil {
			return nil, fmt.Errorf("experiment %q: %w", cfg.Name, err)
		}
	}
	return sim, nil
}

// Run builds and runs cfg in one call with the default metrics attached.
func Run(ctx context.Context, cfg *config.Config, opts ...inverter.Option) (*Summary, error) {
	e := New(cfg)
	if err := e.Setup(opts...); err != nil {
		return nil, err
	}
	for _, m := range DefaultMetrics(cfg) {
		e.AddMetric(m)
	}
	return e.Run(ctx)
}
