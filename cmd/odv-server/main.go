// Command odv-server serves spreadsheet to ODV conversion over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/opensea-data/odv-etl/internal/adapter/http"
	"github.com/opensea-data/odv-etl/internal/adapter/odv"
	"github.com/opensea-data/odv-etl/internal/adapter/spreadsheet"
	"github.com/opensea-data/odv-etl/internal/config"
	"github.com/opensea-data/odv-etl/internal/domain"
	"github.com/opensea-data/odv-etl/internal/observability"
	"github.com/opensea-data/odv-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	spec, err := domain.HelgolandSpec(cfg.Station, cfg.DatePrecision)
	if err != nil {
		logger.Error("invalid field spec", "error", err)
		os.Exit(1)
	}
	tmpl, err := odv.LoadTemplate(cfg.HeaderFile)
	if err != nil {
		logger.Error("failed to load header template", "error", err)
		os.Exit(1)
	}

	agg := pipeline.NewAggregator(spec, cfg.Workers, logger, metrics)
	convert := httpadapter.NewConvertHandler(agg, tmpl, spreadsheet.Options{
		CSVDelimiter: cfg.CSVDelimiter,
		CSVEncoding:  cfg.CSVEncoding,
	}, cfg.MaxUploadBytes, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, agg, convert, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	agg.Drain()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
