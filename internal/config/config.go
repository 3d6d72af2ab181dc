package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/invsim/internal/inverter"
	"github.com/san-kum/invsim/internal/wave"
)

const (
	DefaultSteps = 50
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Name            string   `yaml:"name,omitempty"`
	DCVoltage       float64  `yaml:"dc_voltage"`
	Frequency       float64  `yaml:"frequency"`
	ModulationIndex float64  `yaml:"modulation_index"`
	TimeWindow      float64  `yaml:"time_window"`
	TimeStep        float64  `yaml:"time_step"`
	Topology        string   `yaml:"topology"`
	Multilevel      string   `yaml:"multilevel"`
	PWM             string   `yaml:"pwm"`
	Design          string   `yaml:"design"`
	MPPT            string   `yaml:"mppt"`
	Steps           int      `yaml:"steps"`
	PV              PVConfig `yaml:"pv"`
}

// PVConfig describes the array the MPPT trackers harvest from. Zero values
// keep the tracker defaults.
type PVConfig struct {
	OpenCircuitVoltage  float64 `yaml:"open_circuit_voltage,omitempty"`
	ShortCircuitCurrent float64 `yaml:"short_circuit_current,omitempty"`
	Irradiance          float64 `yaml:"irradiance,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		DCVoltage:       inverter.DefaultDCVoltage,
		Frequency:       inverter.DefaultFrequency,
		ModulationIndex: inverter.DefaultModulationIndex,
		TimeWindow:      inverter.DefaultTimeWindow,
		TimeStep:        inverter.DefaultTimeStep,
		Topology:        inverter.SinglePhase.String(),
		Multilevel:      inverter.MultilevelNone.String(),
		PWM:             inverter.DefaultPWMTechnique,
		Design:          inverter.Transformerless.String(),
		MPPT:            inverter.MPPTNone.String(),
		Steps:           DefaultSteps,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Params() wave.Params {
	return wave.Params{
		DCVoltage:       c.DCVoltage,
		Frequency:       c.Frequency,
		ModulationIndex: c.ModulationIndex,
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.DCVoltage <= 0 {
		errs = append(errs, fmt.Errorf("dc_voltage must be positive, got %g", c.DCVoltage))
	}
	if c.Frequency <= 0 {
		errs = append(errs, fmt.Errorf("frequency must be positive, got %g", c.Frequency))
	}
	if c.TimeWindow <= 0 {
		errs = append(errs, fmt.Errorf("time_window must be positive, got %g", c.TimeWindow))
	}
	if c.TimeStep <= 0 || c.TimeStep > c.TimeWindow {
		errs = append(errs, fmt.Errorf("time_step must be in (0, time_window], got %g", c.TimeStep))
	}
	if c.Steps < 0 {
		errs = append(errs, fmt.Errorf("steps must not be negative, got %d", c.Steps))
	}
	if _, err := inverter.ParsePhaseKind(c.Topology); err != nil {
		errs = append(errs, err)
	}
	if _, err := inverter.ParseMultilevelKind(c.Multilevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := inverter.ParsePWMTechnique(c.PWM); err != nil {
		errs = append(errs, err)
	}
	if _, err := inverter.ParseDesignKind(c.Design); err != nil {
		errs = append(errs, err)
	}
	if _, err := inverter.ParseMPPTKind(c.MPPT); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
