package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/opensea-data/odv-etl/internal/domain"
	"github.com/opensea-data/odv-etl/internal/observability"
	"github.com/opensea-data/odv-etl/internal/table"
	"golang.org/x/sync/errgroup"
)

// Aggregator transforms units with one FieldSpec and stacks the results.
type Aggregator struct {
	spec     *domain.FieldSpec
	workers  int
	logger   *slog.Logger
	metrics  *observability.Metrics
	draining atomic.Bool
}

// NewAggregator creates an Aggregator that transforms up to workers units
// concurrently. Values below one are treated as one.
func NewAggregator(spec *domain.FieldSpec, workers int, logger *slog.Logger, metrics *observability.Metrics) *Aggregator {
	if workers < 1 {
		workers = 1
	}
	return &Aggregator{spec: spec, workers: workers, logger: logger, metrics: metrics}
}

// Columns returns the output column names in order.
func (a *Aggregator) Columns() []string { return a.spec.Names() }

// Aggregate transforms every unit and concatenates the results in unit
// order. The first failing unit cancels the rest and its error is returned.
func (a *Aggregator) Aggregate(ctx context.Context, units []domain.Unit) (*table.Table, error) {
	if len(units) == 0 {
		return table.Empty(a.spec.Names())
	}

	results := make([]*table.Table, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for i, u := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := domain.Transform(u, a.spec)
			if err != nil {
				a.metrics.TransformErrors.Inc()
				a.logger.Error("unit transform failed", "unit", u.Label, "error", err)
				return err
			}
			a.observe(u, out)
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return table.Concat(results...)
}

func (a *Aggregator) observe(u domain.Unit, out *table.Table) {
	rows := out.Len()
	a.metrics.UnitsTransformed.Inc()
	a.metrics.RowsRead.Add(float64(rows))
	a.metrics.UnitRows.Observe(float64(rows))

	for _, name := range out.Columns() {
		col, _ := out.Column(name)
		missing := 0
		for _, v := range col {
			if v.IsMissing() {
				missing++
			}
		}
		if missing > 0 {
			a.metrics.MissingCells.WithLabelValues(name).Add(float64(missing))
		}
	}
	a.logger.Debug("unit transformed", "unit", u.Label, "rows", rows)
}

// Drain marks the aggregator as shutting down; readiness fails afterwards.
func (a *Aggregator) Drain() { a.draining.Store(true) }

// CheckReadiness reports an error once Drain has been called.
func (a *Aggregator) CheckReadiness(_ context.Context) error {
	if a.draining.Load() {
		return errors.New("converter is shutting down")
	}
	return nil
}
