package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/storm-data-rainsim/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-data-rainsim/internal/adapter/kafka"
	"github.com/couchcryptid/storm-data-rainsim/internal/adapter/ndjson"
	"github.com/couchcryptid/storm-data-rainsim/internal/config"
	"github.com/couchcryptid/storm-data-rainsim/internal/observability"
	"github.com/couchcryptid/storm-data-rainsim/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	scenario, err := config.LoadScenario(cfg.StationsFile)
	if err != nil {
		logger.Error("failed to load stations", "path", cfg.StationsFile, "error", err)
		os.Exit(1)
	}
	if cfg.LegacyLonFromLat {
		logger.Warn("legacy longitude enabled: samples carry latitude as longitude")
		scenario = config.WithLegacyLon(scenario)
	}
	logger.Info("stations loaded", "path", cfg.StationsFile, "stations", len(scenario.Devices), "samples_per_station", scenario.Window.Steps())

	var sink pipeline.Sink
	var closeSink func() error
	if cfg.Sink == config.SinkKafka {
		ks := kafkaadapter.NewSink(cfg, logger)
		sink, closeSink = ks, ks.Close
	} else {
		sink = ndjson.NewSink(cfg.OutputDir)
	}
	runner := pipeline.New(sink, logger, metrics)

	api := httpadapter.NewAPI(scenario, cfg.SeriesCacheSize, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Write the configured series once; /readyz reports ready when it succeeds.
	svc := &service{
		srv: httpadapter.NewServer(cfg.HTTPAddr, runner, api, logger),
		generate: func(ctx context.Context) error {
			_, err := runner.Run(ctx, scenario)
			return err
		},
		closeSink:       closeSink,
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
	}
	svc.run(ctx)
}
