package experiment

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/invsim/internal/config"
	"github.com/san-kum/invsim/internal/inverter"
	"github.com/san-kum/invsim/internal/log"
)

// Ensemble runs independent experiments concurrently. Each config gets its
// own simulation; nothing is shared between runs.
type Ensemble struct {
	workers int
	opts    []inverter.Option
}

// NewEnsemble limits concurrency to workers; zero or less means unbounded.
func NewEnsemble(workers int, opts ...inverter.Option) *Ensemble {
	return &Ensemble{workers: workers, opts: opts}
}

// Run returns summaries in the order of cfgs. The first failure cancels the
// remaining runs.
func (e *Ensemble) Run(ctx context.Context, cfgs []*config.Config) ([]*Summary, error) {
	results := make([]*Summary, len(cfgs))

	g, ctx := errgroup.WithContext(ctx)
	if e.workers > 0 {
		g.SetLimit(e.workers)
	}
	for i, cfg := range cfgs {
		i, cfg := i, cfg
		g.Go(func() error {
			s, err := Run(ctx, cfg, e.opts...)
			if err != nil {
				return err
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Ctx(ctx).Debug("ensemble finished", slog.Int("runs", len(cfgs)))
	return results, nil
}
