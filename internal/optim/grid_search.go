package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/invsim/internal/config"
	"github.com/san-kum/invsim/internal/experiment"
	"github.com/san-kum/invsim/internal/inverter"
)

var (
	ErrUnknownParameter = errors.New("optim: unknown parameter")
	ErrEmptyRange       = errors.New("optim: empty range")
)

// setters maps each sweepable parameter to the config field it drives.
var setters = map[string]func(*config.Config, float64){
	"dc_voltage":       func(c *config.Config, v float64) { c.DCVoltage = v },
	"frequency":        func(c *config.Config, v float64) { c.Frequency = v },
	"modulation_index": func(c *config.Config, v float64) { c.ModulationIndex = v },
	"irradiance":       func(c *config.Config, v float64) { c.PV.Irradiance = v },
}

// Objective scores a run; lower is better.
type Objective func(*experiment.Summary) float64

func MinimizeTHD(s *experiment.Summary) float64 { return s.THD }

// Metric scores a run by a named metric from its summary.
func Metric(name string) Objective {
	return func(s *experiment.Summary) float64 { return s.Metrics[name] }
}

// Maximize turns obj into a maximisation.
func Maximize(obj Objective) Objective {
	return func(s *experiment.Summary) float64 { return -obj(s) }
}

type Result struct {
	Params  map[string]float64
	Score   float64
	Summary *experiment.Summary
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	opts       []inverter.Option
}

func NewGridSearch(params []string, ranges [][]float64, opts ...inverter.Option) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, opts: opts}
}

// Search runs base once per grid point and returns the best scoring point.
// Any failing run aborts the search.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, objective Objective) (*Result, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}
	for i, name := range g.paramNames {
		if _, ok := setters[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParameter, name)
		}
		if len(g.ranges[i]) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyRange, name)
		}
	}

	best := &Result{Score: math.Inf(1)}
	if err := g.searchRecursive(ctx, 0, base, make(map[string]float64), objective, best); err != nil {
		return nil, err
	}
	return best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	base *config.Config,
	current map[string]float64,
	objective Objective,
	best *Result,
) error {
	if depth == len(g.paramNames) {
		cfg := *base
		for name, v := range current {
			setters[name](&cfg, v)
		}

		summary, err := experiment.Run(ctx, &cfg, g.opts...)
		if err != nil {
			return fmt.Errorf("optim %v: %w", current, err)
		}

		if score := objective(summary); score < best.Score || best.Params == nil {
			best.Score = score
			best.Summary = summary
			best.Params = make(map[string]float64, len(current))
			for k, v := range current {
				best.Params[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[paramName] = val
		if err := g.searchRecursive(ctx, depth+1, base, current, objective, best); err != nil {
			return err
		}
	}
	return nil
}
