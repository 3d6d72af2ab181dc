package inverter_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/invsim/internal/design"
	"github.com/san-kum/invsim/internal/inverter"
	"github.com/san-kum/invsim/internal/log"
	"github.com/san-kum/invsim/internal/topology"
	"github.com/san-kum/invsim/internal/wave"
)

var _ = Describe("Simulation", func() {
	var (
		f   *fakes
		sim *inverter.Simulation
	)

	BeforeEach(func() {
		f = &fakes{voltages: []float64{380, 360, 340}}
		var err error
		sim, err = inverter.New(inverter.WithRegistry(f.registry()), inverter.WithLogger(log.Discard()))
		Expect(err).NotTo(HaveOccurred())
	})

	step := func(n int) {
		for i := 0; i < n; i++ {
			sim.GenerateWaveforms()
		}
	}

	Describe("construction", func() {
		It("starts from the documented defaults", func() {
			cfg := sim.Config()
			Expect(cfg.DCVoltage).To(Equal(400.0))
			Expect(cfg.Frequency).To(Equal(50.0))
			Expect(cfg.ModulationIndex).To(Equal(0.8))
			Expect(cfg.Window).To(Equal(0.04))
			Expect(cfg.Step).To(Equal(0.0001))
			Expect(sim.SampleCount()).To(Equal(400))
			Expect(sim.CurrentTime()).To(BeZero())
			Expect(sim.MPPTState()).To(Equal(wave.MPPTState{Voltage: 400}))

			Expect(sim.PhaseKind()).To(Equal(inverter.SinglePhase))
			Expect(sim.MultilevelKind()).To(Equal(inverter.MultilevelNone))
			Expect(sim.PWMTechnique()).To(Equal("Multicarrier"))
			Expect(sim.DesignKind()).To(Equal(inverter.Transformerless))
			Expect(sim.MPPTKind()).To(Equal(inverter.MPPTNone))
		})

		It("builds the phase topology from the current configuration", func() {
			Expect(f.phases).To(HaveLen(1))
			Expect(f.phase().kind).To(Equal(inverter.SinglePhase))
			Expect(f.phase().params).To(Equal(sim.Config().Params))
			Expect(f.phase().timing).To(Equal(sim.Config().Timing))
			Expect(f.designs).To(HaveLen(1))
			Expect(f.multilevels).To(BeEmpty())
			Expect(f.trackers).To(BeEmpty())
		})

		It("fails when a default strategy is not registered", func() {
			_, err := inverter.New(inverter.WithRegistry(inverter.NewRegistry()))
			Expect(err).To(MatchError(inverter.ErrNotRegistered))
		})
	})

	Describe("GenerateWaveforms", func() {
		It("advances the cursor by half a window per call", func() {
			sim.GenerateWaveforms()
			Expect(sim.CurrentTime()).To(Equal(0.02))
			sim.GenerateWaveforms()
			Expect(sim.CurrentTime()).To(Equal(0.04))
		})

		It("samples the phase topology at the cursor", func() {
			step(3)
			Expect(f.phase().generated).To(Equal([]float64{0, 0.02, 0.04}))
		})

		It("passes the phase output through the design untouched otherwise", func() {
			out := sim.GenerateWaveforms()

			Expect(f.design().calls).To(HaveLen(1))
			call := f.design().calls[0]
			Expect(call.dcVoltage).To(Equal(400.0))
			Expect(call.frequency).To(Equal(50.0))
			Expect(call.timeStep).To(Equal(0.0001))

			fresh := &fakePhase{kind: inverter.SinglePhase, params: sim.Config().Params, timing: sim.Config().Timing}
			want := (&fakeDesign{}).ApplyDesign(fresh.GenerateWaveforms(0), 400, 50, 0.0001)
			Expect(call.in).To(Equal(fresh.GenerateWaveforms(0)))
			Expect(out).To(Equal(want))
		})

		It("does not reset the cursor on its own", func() {
			step(5)
			Expect(sim.CurrentTime()).To(BeNumerically("~", 0.1, 1e-12))
		})
	})

	Describe("reconfiguration", func() {
		DescribeTable("restarts the cursor",
			func(mutate func(*inverter.Simulation) error) {
				step(3)
				Expect(sim.CurrentTime()).NotTo(BeZero())

				Expect(mutate(sim)).To(Succeed())
				Expect(sim.CurrentTime()).To(BeZero())
			},
			Entry("phase topology", func(s *inverter.Simulation) error { return s.UpdatePhaseTopology("Three-Phase") }),
			Entry("same phase topology", func(s *inverter.Simulation) error { return s.UpdatePhaseTopology("Single-Phase") }),
			Entry("multilevel topology", func(s *inverter.Simulation) error { return s.UpdateMultilevelTopology("NPC") }),
			Entry("clearing multilevel", func(s *inverter.Simulation) error { return s.UpdateMultilevelTopology("None") }),
			Entry("pwm technique", func(s *inverter.Simulation) error { return s.UpdatePWMTechnique("Space Vector") }),
			Entry("design", func(s *inverter.Simulation) error { return s.UpdateDesign("Transformer-Based") }),
			Entry("mppt", func(s *inverter.Simulation) error { return s.UpdateMPPT("Perturb & Observe") }),
			Entry("clearing mppt", func(s *inverter.Simulation) error { return s.UpdateMPPT("None") }),
			Entry("timing", func(s *inverter.Simulation) error { return s.UpdateTiming(0.02, 0.0001) }),
		)

		DescribeTable("rejects unknown names without touching state",
			func(slot inverter.Slot, mutate func(*inverter.Simulation) error) {
				step(2)
				before := sim.CurrentTime()

				err := mutate(sim)
				Expect(err).To(MatchError(inverter.ErrUnknownVariant))
				var verr *inverter.VariantError
				Expect(errors.As(err, &verr)).To(BeTrue())
				Expect(verr.Slot).To(Equal(slot))

				Expect(sim.CurrentTime()).To(Equal(before))
				Expect(sim.PhaseKind()).To(Equal(inverter.SinglePhase))
				Expect(sim.MultilevelKind()).To(Equal(inverter.MultilevelNone))
				Expect(sim.PWMTechnique()).To(Equal("Multicarrier"))
				Expect(sim.DesignKind()).To(Equal(inverter.Transformerless))
				Expect(sim.MPPTKind()).To(Equal(inverter.MPPTNone))
			},
			Entry("phase typo", inverter.SlotPhase, func(s *inverter.Simulation) error { return s.UpdatePhaseTopology("Three Phase") }),
			Entry("multilevel", inverter.SlotMultilevel, func(s *inverter.Simulation) error { return s.UpdateMultilevelTopology("T-Type") }),
			Entry("pwm", inverter.SlotPWM, func(s *inverter.Simulation) error { return s.UpdatePWMTechnique("Hysteresis") }),
			Entry("design typo", inverter.SlotDesign, func(s *inverter.Simulation) error { return s.UpdateDesign("transformerless") }),
			Entry("mppt", inverter.SlotMPPT, func(s *inverter.Simulation) error { return s.UpdateMPPT("Fuzzy Logic") }),
			Entry("out of range phase kind", inverter.SlotPhase, func(s *inverter.Simulation) error { return s.SetPhaseTopology(inverter.PhaseKind(7)) }),
			Entry("out of range multilevel kind", inverter.SlotMultilevel, func(s *inverter.Simulation) error { return s.SetMultilevelTopology(inverter.MultilevelKind(-1)) }),
			Entry("out of range design kind", inverter.SlotDesign, func(s *inverter.Simulation) error { return s.SetDesign(inverter.DesignKind(2)) }),
			Entry("out of range mppt kind", inverter.SlotMPPT, func(s *inverter.Simulation) error { return s.SetMPPT(inverter.MPPTKind(-3)) }),
		)

		It("reports unregistered kinds and keeps the previous slot", func() {
			r := inverter.NewRegistry()
			r.RegisterPhase(inverter.SinglePhase, func(p wave.Params, tm wave.Timing) wave.PhaseTopology {
				return &fakePhase{params: p, timing: tm}
			})
			r.RegisterDesign(inverter.Transformerless, func() wave.Design { return &fakeDesign{} })
			s, err := inverter.New(inverter.WithRegistry(r), inverter.WithLogger(log.Discard()))
			Expect(err).NotTo(HaveOccurred())
			s.GenerateWaveforms()

			Expect(s.UpdateMultilevelTopology("NPC")).To(MatchError(inverter.ErrNotRegistered))
			Expect(s.MultilevelKind()).To(Equal(inverter.MultilevelNone))
			Expect(s.CurrentTime()).To(Equal(0.02))
		})

		It("builds replacement topologies from the live parameters", func() {
			p := wave.Params{DCVoltage: 600, Frequency: 60, ModulationIndex: 0.9}
			sim.UpdateParameters(p)

			Expect(sim.UpdatePhaseTopology("Three-Phase")).To(Succeed())
			Expect(sim.UpdateMultilevelTopology("Flying Capacitor")).To(Succeed())

			Expect(f.phase().kind).To(Equal(inverter.ThreePhase))
			Expect(f.phase().params).To(Equal(p))
			Expect(f.multilevel().kind).To(Equal(inverter.FlyingCapacitor))
			Expect(f.multilevel().params).To(Equal(p))
			Expect(f.multilevel().timing).To(Equal(sim.Config().Timing))
		})

		It("selects designs by kind", func() {
			Expect(sim.UpdateDesign("Transformer-Based")).To(Succeed())
			Expect(sim.DesignKind()).To(Equal(inverter.TransformerBased))
			Expect(f.design().kind).To(Equal(inverter.TransformerBased))

			Expect(sim.SetDesign(inverter.Transformerless)).To(Succeed())
			Expect(f.design().kind).To(Equal(inverter.Transformerless))
		})

		It("stores the pwm technique and forwards it", func() {
			Expect(sim.UpdateMultilevelTopology("MMC")).To(Succeed())
			Expect(sim.UpdatePWMTechnique("Nearest Level")).To(Succeed())
			sim.GenerateWaveforms()

			Expect(sim.PWMTechnique()).To(Equal("Nearest Level"))
			Expect(f.multilevel().calls[0].pwm).To(Equal("Nearest Level"))
		})
	})

	Describe("UpdateParameters", func() {
		It("keeps the cursor", func() {
			step(4)
			sim.UpdateParameters(wave.Params{DCVoltage: 350, Frequency: 50, ModulationIndex: 0.7})
			Expect(sim.CurrentTime()).To(BeNumerically("~", 0.08, 1e-12))
		})

		It("synchronizes mppt voltage and propagates to both topologies", func() {
			Expect(sim.UpdateMultilevelTopology("Cascaded H-Bridge")).To(Succeed())
			p := wave.Params{DCVoltage: 320, Frequency: 60, ModulationIndex: 0.5}
			sim.UpdateParameters(p)

			Expect(sim.Config().Params).To(Equal(p))
			Expect(sim.MPPTState().Voltage).To(Equal(320.0))
			Expect(f.phase().updates).To(Equal([]wave.Params{p}))
			Expect(f.multilevel().updates).To(Equal([]wave.Params{p}))
		})
	})

	Describe("multilevel path", func() {
		It("delegates synthesis to the multilevel strategy", func() {
			Expect(sim.UpdateMultilevelTopology("NPC")).To(Succeed())
			out := sim.GenerateWaveforms()

			Expect(f.multilevel().kind).To(Equal(inverter.NPC))
			Expect(f.multilevel().calls).To(HaveLen(1))
			call := f.multilevel().calls[0]
			Expect(call.t).To(BeZero())
			Expect(call.pwm).To(Equal("Multicarrier"))
			Expect(call.phase).To(BeIdenticalTo(f.phase()))

			// the phase topology is reached only through the multilevel stage
			Expect(f.phase().generated).To(Equal([]float64{0}))
			Expect(f.design().calls[0].in.Levels).To(Equal(3))
			Expect(out.Levels).To(Equal(3))
		})

		It("bypasses the stage again once cleared", func() {
			Expect(sim.UpdateMultilevelTopology("MMC")).To(Succeed())
			ml := f.multilevel()
			Expect(sim.UpdateMultilevelTopology("None")).To(Succeed())

			out := sim.GenerateWaveforms()
			Expect(ml.calls).To(BeEmpty())
			Expect(out.Levels).To(Equal(2))
		})
	})

	Describe("MPPT feedback", func() {
		BeforeEach(func() {
			Expect(sim.UpdateMPPT("Constant Voltage")).To(Succeed())
		})

		It("adopts the tracker voltage on every step", func() {
			sim.GenerateWaveforms()
			Expect(sim.Config().DCVoltage).To(Equal(380.0))
			Expect(sim.MPPTState().Voltage).To(Equal(380.0))

			sim.GenerateWaveforms()
			Expect(sim.Config().DCVoltage).To(Equal(360.0))
			Expect(sim.MPPTState().Voltage).To(Equal(360.0))
		})

		It("feeds the tracker the bookkeeping, step and cursor", func() {
			step(2)
			tr := f.tracker()
			Expect(tr.kind).To(Equal(inverter.ConstantVoltage))
			Expect(tr.calls).To(HaveLen(2))
			Expect(tr.calls[0].state.Voltage).To(Equal(400.0))
			Expect(tr.calls[0].timeStep).To(Equal(0.0001))
			Expect(tr.calls[0].t).To(BeZero())
			Expect(tr.calls[1].state.Voltage).To(Equal(380.0))
			Expect(tr.calls[1].t).To(Equal(0.02))
		})

		It("propagates the new voltage before synthesis and design", func() {
			Expect(sim.UpdateMultilevelTopology("NPC")).To(Succeed())
			sim.GenerateWaveforms()

			Expect(f.phase().updates).To(HaveLen(1))
			Expect(f.phase().updates[0].DCVoltage).To(Equal(380.0))
			Expect(f.multilevel().updates[0].DCVoltage).To(Equal(380.0))
			Expect(f.design().calls[0].dcVoltage).To(Equal(380.0))
			Expect(f.design().calls[0].in.Phases[0].Voltage[0]).To(Equal(380.0))
		})

		It("keeps power and current across tracker swaps", func() {
			sim.GenerateWaveforms()
			Expect(sim.MPPTState().Power).To(Equal(400.0 * 8))

			Expect(sim.UpdateMPPT("Incremental Conductance")).To(Succeed())
			Expect(sim.MPPTState()).To(Equal(wave.MPPTState{Voltage: 380, Power: 3200, Current: 8}))

			Expect(sim.UpdateMPPT("None")).To(Succeed())
			Expect(sim.MPPTState().Power).To(Equal(3200.0))
			sim.GenerateWaveforms()
			Expect(sim.Config().DCVoltage).To(Equal(380.0))
		})

		It("holds mppt voltage equal to dc voltage after UpdateParameters", func() {
			sim.GenerateWaveforms()
			sim.UpdateParameters(wave.Params{DCVoltage: 410, Frequency: 50, ModulationIndex: 0.8})
			Expect(sim.MPPTState().Voltage).To(Equal(sim.Config().DCVoltage))

			sim.GenerateWaveforms()
			Expect(f.tracker().calls[1].state.Voltage).To(Equal(410.0))
		})
	})

	Describe("Reset", func() {
		It("rewinds time and bookkeeping but keeps the selection", func() {
			Expect(sim.UpdatePhaseTopology("Three-Phase")).To(Succeed())
			Expect(sim.UpdateMultilevelTopology("Hybrid CHB+NPC")).To(Succeed())
			Expect(sim.UpdatePWMTechnique("Phase-Shifted")).To(Succeed())
			Expect(sim.UpdateDesign("Transformer-Based")).To(Succeed())
			Expect(sim.UpdateMPPT("Ripple Correlation Control")).To(Succeed())
			step(3)

			sim.Reset()

			Expect(sim.CurrentTime()).To(BeZero())
			Expect(sim.MPPTState()).To(Equal(wave.MPPTState{Voltage: sim.Config().DCVoltage}))
			Expect(sim.Config().DCVoltage).To(Equal(340.0))
			Expect(f.phase().resets).To(Equal(1))
			Expect(f.multilevel().resets).To(Equal(1))

			Expect(sim.PhaseKind()).To(Equal(inverter.ThreePhase))
			Expect(sim.MultilevelKind()).To(Equal(inverter.HybridCHBPlusNPC))
			Expect(sim.PWMTechnique()).To(Equal("Phase-Shifted"))
			Expect(sim.DesignKind()).To(Equal(inverter.TransformerBased))
			Expect(sim.MPPTKind()).To(Equal(inverter.RippleCorrelationControl))

			// the tracker is kept as is, so its script continues
			sim.GenerateWaveforms()
			Expect(f.tracker().calls).To(HaveLen(4))
			Expect(sim.Config().DCVoltage).To(Equal(380.0))
		})

		It("holds from any history", func() {
			sim.UpdateParameters(wave.Params{DCVoltage: 200, Frequency: 60, ModulationIndex: 0.3})
			step(7)
			sim.Reset()
			Expect(sim.CurrentTime()).To(BeZero())
			Expect(sim.MPPTState()).To(Equal(wave.MPPTState{Voltage: 200}))
		})
	})

	Describe("UpdateTiming", func() {
		It("recomputes the sample count and rebuilds topologies", func() {
			Expect(sim.UpdateMultilevelTopology("NPC")).To(Succeed())
			phases, multilevels := len(f.phases), len(f.multilevels)

			Expect(sim.UpdateTiming(0.02, 0.0001)).To(Succeed())
			Expect(sim.SampleCount()).To(Equal(200))
			Expect(sim.Config().Window).To(Equal(0.02))

			Expect(f.phases).To(HaveLen(phases + 1))
			Expect(f.multilevels).To(HaveLen(multilevels + 1))
			Expect(f.phase().timing).To(Equal(wave.Timing{Window: 0.02, Step: 0.0001}))
			Expect(f.multilevel().kind).To(Equal(inverter.NPC))

			sim.GenerateWaveforms()
			Expect(sim.CurrentTime()).To(Equal(0.01))
		})

		DescribeTable("rejects invalid timing",
			func(window, step float64) {
				sim.GenerateWaveforms()
				Expect(sim.UpdateTiming(window, step)).To(MatchError(inverter.ErrInvalidTiming))
				Expect(sim.SampleCount()).To(Equal(400))
				Expect(sim.CurrentTime()).To(Equal(0.02))
			},
			Entry("zero window", 0.0, 0.0001),
			Entry("negative step", 0.04, -0.0001),
			Entry("step longer than window", 0.001, 0.01),
		)
	})
})

var _ = Describe("Simulation with reference strategies", func() {
	It("matches the design applied to the phase output", func() {
		sim, err := inverter.New(inverter.WithLogger(log.Discard()))
		Expect(err).NotTo(HaveOccurred())
		out := sim.GenerateWaveforms()

		cfg := inverter.DefaultConfig()
		want := design.NewTransformerless().ApplyDesign(
			topology.NewSinglePhase(cfg.Params, cfg.Timing).GenerateWaveforms(0),
			cfg.DCVoltage, cfg.Frequency, cfg.Step,
		)
		Expect(out).To(Equal(want))
		Expect(out.Len()).To(Equal(400))
	})

	It("runs every multilevel and tracker combination", func() {
		for _, ml := range inverter.MultilevelNames() {
			for _, tr := range inverter.MPPTNames() {
				sim, err := inverter.New(inverter.WithLogger(log.Discard()))
				Expect(err).NotTo(HaveOccurred())
				Expect(sim.UpdatePhaseTopology("Three-Phase")).To(Succeed())
				Expect(sim.UpdateMultilevelTopology(ml)).To(Succeed())
				Expect(sim.UpdateMPPT(tr)).To(Succeed())
				Expect(sim.UpdateDesign("Transformer-Based")).To(Succeed())

				var out wave.Waveform
				for i := 0; i < 4; i++ {
					out = sim.GenerateWaveforms()
				}
				Expect(out.Phases).To(HaveLen(3), "%s/%s", ml, tr)
				for _, ph := range out.Phases {
					for _, v := range ph.Voltage {
						Expect(math.IsNaN(v) || math.IsInf(v, 0)).To(BeFalse(), "%s/%s", ml, tr)
					}
				}
				Expect(sim.MPPTState().Voltage).To(Equal(sim.Config().DCVoltage))
			}
		}
	})
})

var _ = Describe("variant names", func() {
	It("round-trips every documented name", func() {
		for _, n := range inverter.PhaseNames() {
			k, err := inverter.ParsePhaseKind(n)
			Expect(err).NotTo(HaveOccurred())
			Expect(k.String()).To(Equal(n))
		}
		for _, n := range inverter.MultilevelNames() {
			k, err := inverter.ParseMultilevelKind(n)
			Expect(err).NotTo(HaveOccurred())
			Expect(k.String()).To(Equal(n))
		}
		for _, n := range inverter.DesignNames() {
			k, err := inverter.ParseDesignKind(n)
			Expect(err).NotTo(HaveOccurred())
			Expect(k.String()).To(Equal(n))
		}
		for _, n := range inverter.MPPTNames() {
			k, err := inverter.ParseMPPTKind(n)
			Expect(err).NotTo(HaveOccurred())
			Expect(k.String()).To(Equal(n))
		}
		for _, n := range wave.PWMTechniques() {
			Expect(inverter.ParsePWMTechnique(n)).To(Equal(n))
		}
	})

	It("names out of range kinds unknown", func() {
		Expect(inverter.PhaseKind(9).String()).To(Equal("unknown"))
		Expect(inverter.MultilevelKind(-1).IsValid()).To(BeFalse())
		Expect(inverter.MPPTKind(42).String()).To(Equal("unknown"))
		Expect(inverter.DesignKind(2).IsValid()).To(BeFalse())
	})

	It("hands out copies of the name tables", func() {
		inverter.PhaseNames()[1] = "Hacked"
		inverter.MultilevelNames()[1] = "Hacked"
		inverter.DesignNames()[0] = "Hacked"
		inverter.MPPTNames()[1] = "Hacked"

		k, err := inverter.ParsePhaseKind("Three-Phase")
		Expect(err).NotTo(HaveOccurred())
		Expect(k).To(Equal(inverter.ThreePhase))
		Expect(inverter.ThreePhase.String()).To(Equal("Three-Phase"))
		Expect(inverter.NPC.String()).To(Equal("NPC"))
		Expect(inverter.Transformerless.String()).To(Equal("Transformerless"))
		Expect(inverter.PerturbAndObserve.String()).To(Equal("Perturb & Observe"))
	})

	It("formats variant errors with slot and name", func() {
		_, err := inverter.ParseMPPTKind("Fuzzy")
		Expect(err).To(MatchError(`inverter: unknown variant: mppt "Fuzzy"`))
	})
})
