// Command odv-etl converts every spreadsheet matching INPUT_GLOB in DATA_DIR
// into one ODV Generic Spreadsheet file, and optionally publishes the rows to
// Kafka. With WATCH or SCHEDULE set it keeps running and converts again
// whenever inputs change or the schedule fires.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	httpadapter "github.com/opensea-data/odv-etl/internal/adapter/http"
	kafkaadapter "github.com/opensea-data/odv-etl/internal/adapter/kafka"
	"github.com/opensea-data/odv-etl/internal/adapter/odv"
	"github.com/opensea-data/odv-etl/internal/adapter/spreadsheet"
	"github.com/opensea-data/odv-etl/internal/config"
	"github.com/opensea-data/odv-etl/internal/domain"
	"github.com/opensea-data/odv-etl/internal/observability"
	"github.com/opensea-data/odv-etl/internal/pipeline"
	"github.com/opensea-data/odv-etl/internal/trigger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	if err := run(cfg, logger); err != nil {
		logger.Error("conversion failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	spec, err := domain.HelgolandSpec(cfg.Station, cfg.DatePrecision)
	if err != nil {
		return err
	}
	tmpl, err := odv.LoadTemplate(cfg.HeaderFile)
	if err != nil {
		return err
	}
	if labels := tmpl.ColumnLabels(); len(labels) != spec.Len() {
		logger.Warn("header column labels do not match field spec",
			"labels", len(labels), "fields", spec.Len())
	}

	reader := spreadsheet.NewDirReader(cfg.DataDir, cfg.InputGlob, spreadsheet.Options{
		AllSheets:    cfg.AllSheets,
		CSVDelimiter: cfg.CSVDelimiter,
		CSVEncoding:  cfg.CSVEncoding,
	}, logger)

	loaders := []pipeline.Loader{odv.NewFileWriter(cfg.OutputFile, tmpl, logger)}
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, clock, metrics, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, writer)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	agg := pipeline.NewAggregator(spec, cfg.Workers, logger, metrics)
	p := pipeline.New(reader, agg, loaders, logger, metrics, clock)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Continuous() {
		return serve(ctx, cfg, p, clock, logger)
	}

	runErr := p.Run(ctx)
	if cfg.MetricsFile != "" {
		if err := observability.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("write metrics textfile failed", "path", cfg.MetricsFile, "error", err)
		}
	}
	return runErr
}

// serve converts once, then again on every input change or schedule tick,
// until ctx is cancelled. Health and metrics are served on HTTP_ADDR.
func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, clock clockwork.Clock, logger *slog.Logger) error {
	loop := trigger.NewLoop(p, logger)

	if cfg.Schedule != "" {
		sched, err := trigger.Schedule(cfg.Schedule, loop)
		if err != nil {
			return err
		}
		defer sched.Stop()
		logger.Info("schedule enabled", "schedule", cfg.Schedule)
	}
	if cfg.Watch {
		w, err := trigger.NewWatcher(cfg.DataDir, cfg.InputGlob, cfg.WatchDebounce, clock, loop, logger)
		if err != nil {
			return err
		}
		defer w.Close()
		go w.Run(ctx)
		logger.Info("watching inputs", "dir", cfg.DataDir, "glob", cfg.InputGlob, "debounce", cfg.WatchDebounce)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, nil, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	loop.Request("startup")
	loop.Serve(ctx)
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
