package inverter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/invsim/internal/log"
	"github.com/san-kum/invsim/internal/wave"
)

const (
	DefaultDCVoltage       = 400.0
	DefaultFrequency       = 50.0
	DefaultModulationIndex = 0.8
	DefaultTimeWindow      = 0.04
	DefaultTimeStep        = 0.0001
	DefaultPWMTechnique    = wave.PWMMulticarrier
)

type SimulationConfig struct {
	wave.Params
	wave.Timing
}

func DefaultConfig() SimulationConfig {
	return SimulationConfig{
		Params: wave.Params{
			DCVoltage:       DefaultDCVoltage,
			Frequency:       DefaultFrequency,
			ModulationIndex: DefaultModulationIndex,
		},
		Timing: wave.Timing{
			Window: DefaultTimeWindow,
			Step:   DefaultTimeStep,
		},
	}
}

// Simulation steps an inverter model through overlapping time windows.
//
// Each GenerateWaveforms call runs MPPT feedback, waveform synthesis through
// the phase (and optional multilevel) topology, and design post-processing,
// then advances the time cursor by half a window. Replacing any strategy slot
// restarts the cursor at zero. A Simulation is not safe for concurrent use.
type Simulation struct {
	cfg         SimulationConfig
	sampleCount int
	currentTime float64
	mpptState   wave.MPPTState

	phaseKind      PhaseKind
	phase          wave.PhaseTopology
	multilevelKind MultilevelKind
	multilevel     wave.MultilevelTopology
	pwm            string
	designKind     DesignKind
	design         wave.Design
	mpptKind       MPPTKind
	tracker        wave.Tracker

	registry *Registry
	logger   *slog.Logger
}

type Option func(*Simulation)

func WithRegistry(r *Registry) Option {
	return func(s *Simulation) { s.registry = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) { s.logger = l }
}

// New builds a simulation with the default configuration: 400 V, 50 Hz,
// m=0.8, a 40 ms window at 0.1 ms resolution, single-phase, no multilevel
// stage, multicarrier PWM, transformerless, no MPPT.
func New(opts ...Option) (*Simulation, error) {
	s := &Simulation{
		cfg:            DefaultConfig(),
		phaseKind:      SinglePhase,
		multilevelKind: MultilevelNone,
		pwm:            DefaultPWMTechnique,
		designKind:     Transformerless,
		mpptKind:       MPPTNone,
		registry:       DefaultRegistry(),
		logger:         log.Ctx(context.Background()),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.sampleCount = s.cfg.SampleCount()
	s.mpptState = wave.MPPTState{Voltage: s.cfg.DCVoltage}

	var err error
	if s.phase, err = s.registry.NewPhase(s.phaseKind, s.cfg.Params, s.cfg.Timing); err != nil {
		return nil, err
	}
	if s.design, err = s.registry.NewDesign(s.designKind); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Simulation) Config() SimulationConfig       { return s.cfg }
func (s *Simulation) CurrentTime() float64           { return s.currentTime }
func (s *Simulation) MPPTState() wave.MPPTState      { return s.mpptState }
func (s *Simulation) SampleCount() int               { return s.sampleCount }
func (s *Simulation) PhaseKind() PhaseKind           { return s.phaseKind }
func (s *Simulation) MultilevelKind() MultilevelKind { return s.multilevelKind }
func (s *Simulation) PWMTechnique() string           { return s.pwm }
func (s *Simulation) DesignKind() DesignKind         { return s.designKind }
func (s *Simulation) MPPTKind() MPPTKind             { return s.mpptKind }

// UpdateParameters retunes the running model. It is the only mutator that
// keeps the time cursor, so a live run stays phase continuous.
func (s *Simulation) UpdateParameters(p wave.Params) {
	s.cfg.Params = p
	s.mpptState.Voltage = p.DCVoltage
	s.propagate()
}

func (s *Simulation) propagate() {
	s.phase.UpdateParameters(s.cfg.Params)
	if s.multilevel != nil {
		s.multilevel.UpdateParameters(s.cfg.Params)
	}
}

// reconfigure is the single transition for replacing strategy state. apply
// must either fully succeed or leave s untouched; on success the time cursor
// restarts.
func (s *Simulation) reconfigure(slot Slot, name string, apply func() error) error {
	if err := apply(); err != nil {
		return err
	}
	s.currentTime = 0
	s.logger.Debug("reconfigured", slog.String("slot", string(slot)), slog.String("name", name))
	return nil
}

func (s *Simulation) UpdatePhaseTopology(name string) error {
	k, err := ParsePhaseKind(name)
	if err != nil {
		return err
	}
	return s.SetPhaseTopology(k)
}

func (s *Simulation) SetPhaseTopology(k PhaseKind) error {
	if !k.IsValid() {
		return &VariantError{Slot: SlotPhase, Name: k.String()}
	}
	return s.reconfigure(SlotPhase, k.String(), func() error {
		phase, err := s.registry.NewPhase(k, s.cfg.Params, s.cfg.Timing)
		if err != nil {
			return err
		}
		s.phaseKind, s.phase = k, phase
		return nil
	})
}

func (s *Simulation) UpdateMultilevelTopology(name string) error {
	k, err := ParseMultilevelKind(name)
	if err != nil {
		return err
	}
	return s.SetMultilevelTopology(k)
}

func (s *Simulation) SetMultilevelTopology(k MultilevelKind) error {
	if !k.IsValid() {
		return &VariantError{Slot: SlotMultilevel, Name: k.String()}
	}
	return s.reconfigure(SlotMultilevel, k.String(), func() error {
		ml, err := s.registry.NewMultilevel(k, s.cfg.Params, s.cfg.Timing)
		if err != nil {
			return err
		}
		s.multilevelKind, s.multilevel = k, ml
		return nil
	})
}

func (s *Simulation) UpdatePWMTechnique(name string) error {
	pwm, err := ParsePWMTechnique(name)
	if err != nil {
		return err
	}
	return s.reconfigure(SlotPWM, pwm, func() error {
		s.pwm = pwm
		return nil
	})
}

func (s *Simulation) UpdateDesign(name string) error {
	k, err := ParseDesignKind(name)
	if err != nil {
		return err
	}
	return s.SetDesign(k)
}

func (s *Simulation) SetDesign(k DesignKind) error {
	if !k.IsValid() {
		return &VariantError{Slot: SlotDesign, Name: k.String()}
	}
	return s.reconfigure(SlotDesign, k.String(), func() error {
		d, err := s.registry.NewDesign(k)
		if err != nil {
			return err
		}
		s.designKind, s.design = k, d
		return nil
	})
}

// UpdateMPPT replaces the tracker. Power and current bookkeeping survive the
// swap; only Reset clears them.
func (s *Simulation) UpdateMPPT(name string) error {
	k, err := ParseMPPTKind(name)
	if err != nil {
		return err
	}
	return s.SetMPPT(k)
}

func (s *Simulation) SetMPPT(k MPPTKind) error {
	if !k.IsValid() {
		return &VariantError{Slot: SlotMPPT, Name: k.String()}
	}
	return s.reconfigure(SlotMPPT, k.String(), func() error {
		tr, err := s.registry.NewTracker(k)
		if err != nil {
			return err
		}
		s.mpptKind, s.tracker = k, tr
		return nil
	})
}

// UpdateTiming changes the window and step. Topologies sample at construction
// time resolution, so both are rebuilt and the sample count is recomputed.
func (s *Simulation) UpdateTiming(window, step float64) error {
	if window <= 0 || step <= 0 || step > window {
		return fmt.Errorf("%w: window %g, step %g", ErrInvalidTiming, window, step)
	}
	tm := wave.Timing{Window: window, Step: step}
	return s.reconfigure(SlotTiming, fmt.Sprintf("%g/%g", window, step), func() error {
		phase, err := s.registry.NewPhase(s.phaseKind, s.cfg.Params, tm)
		if err != nil {
			return err
		}
		ml, err := s.registry.NewMultilevel(s.multilevelKind, s.cfg.Params, tm)
		if err != nil {
			return err
		}
		s.cfg.Timing = tm
		s.sampleCount = tm.SampleCount()
		s.phase, s.multilevel = phase, ml
		return nil
	})
}

// GenerateWaveforms produces one window of output starting at CurrentTime and
// advances the cursor by half a window.
func (s *Simulation) GenerateWaveforms() wave.Waveform {
	if s.tracker != nil {
		v := s.tracker.Update(&s.mpptState, s.cfg.Step, s.currentTime)
		if v != s.cfg.DCVoltage {
			s.logger.Debug("mppt moved dc voltage",
				slog.String("tracker", s.mpptKind.String()),
				slog.Float64("from", s.cfg.DCVoltage),
				slog.Float64("to", v),
			)
		}
		s.cfg.DCVoltage = v
		s.mpptState.Voltage = v
		s.propagate()
	}

	var data wave.Waveform
	if s.multilevel != nil {
		data = s.multilevel.GenerateWaveforms(s.currentTime, s.phase, s.pwm)
	} else {
		data = s.phase.GenerateWaveforms(s.currentTime)
	}
	data = s.design.ApplyDesign(data, s.cfg.DCVoltage, s.cfg.Frequency, s.cfg.Step)

	s.currentTime += s.cfg.Window / 2
	return data
}

// Reset rewinds time and MPPT bookkeeping. Strategy selection, PWM technique
// and the tracker's own internal state are kept.
func (s *Simulation) Reset() {
	s.currentTime = 0
	s.mpptState = wave.MPPTState{Voltage: s.cfg.DCVoltage}
	s.phase.Reset()
	if s.multilevel != nil {
		s.multilevel.Reset()
	}
}
