package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/opensea-data/odv-etl/internal/domain"
	"github.com/opensea-data/odv-etl/internal/observability"
	"github.com/opensea-data/odv-etl/internal/table"
)

// previewRows is how many output rows are logged at debug level after a run.
const previewRows = 5

// UnitExtractor reads the input units of one run.
type UnitExtractor interface {
	ExtractUnits(ctx context.Context) ([]domain.Unit, error)
}

// Loader writes the aggregated output table to a destination.
type Loader interface {
	Name() string
	Load(ctx context.Context, tbl *table.Table) error
}

// Pipeline orchestrates a single extract-transform-load run.
type Pipeline struct {
	extractor  UnitExtractor
	aggregator *Aggregator
	loaders    []Loader
	logger     *slog.Logger
	metrics    *observability.Metrics
	clock      clockwork.Clock
	ready      atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(e UnitExtractor, a *Aggregator, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Pipeline {
	return &Pipeline{
		extractor:  e,
		aggregator: a,
		loaders:    loaders,
		logger:     logger,
		metrics:    metrics,
		clock:      clock,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Ready reports whether a run has completed successfully.
func (p *Pipeline) Ready() bool { return p.ready.Load() }

// Run extracts all units, transforms and concatenates them, and hands the
// result to every loader in order. Any stage error aborts the run.
func (p *Pipeline) Run(ctx context.Context) error {
	start := p.clock.Now()
	logger := p.logger.With("run_id", uuid.NewString())
	logger.Info("pipeline started", "loaders", len(p.loaders))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	units, err := p.extractor.ExtractUnits(ctx)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	out, err := p.aggregator.Aggregate(ctx, units)
	if err != nil {
		return fmt.Errorf("transform: %w", err)
	}
	preview(logger, out)

	for _, l := range p.loaders {
		if err := l.Load(ctx, out); err != nil {
			return fmt.Errorf("load %s: %w", l.Name(), err)
		}
	}

	end := p.clock.Now()
	p.metrics.RowsWritten.Add(float64(out.Len()))
	p.metrics.RunDuration.Observe(end.Sub(start).Seconds())
	p.metrics.LastSuccess.Set(float64(end.Unix()))
	p.ready.Store(true)

	logger.Info("pipeline finished", "units", len(units), "rows", out.Len(), "duration", end.Sub(start))
	return nil
}

func preview(logger *slog.Logger, out *table.Table) {
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	n := min(out.Len(), previewRows)
	for r := 0; r < n; r++ {
		vals := out.Values(r)
		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = v.String()
		}
		logger.Debug("output preview", "row", r, "values", row)
	}
}
