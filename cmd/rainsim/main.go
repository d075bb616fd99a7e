// Command rainsim generates synthetic accumulated-rain series for the stations
// in a stations file and writes them to NDJSON files or a Kafka topic.
//
// Settings come from the environment (see internal/config); flags override
// them.
//
// Usage:
//
//	go run ./cmd/rainsim --stations stations.example.yaml --out data
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	kafkaadapter "github.com/couchcryptid/storm-data-rainsim/internal/adapter/kafka"
	"github.com/couchcryptid/storm-data-rainsim/internal/adapter/ndjson"
	"github.com/couchcryptid/storm-data-rainsim/internal/config"
	"github.com/couchcryptid/storm-data-rainsim/internal/domain"
	"github.com/couchcryptid/storm-data-rainsim/internal/observability"
	"github.com/couchcryptid/storm-data-rainsim/internal/pipeline"
	"github.com/jessevdk/go-flags"
)

type Options struct {
	Stations  string        `short:"s" long:"stations"   description:"Stations file (YAML or JSON). Overrides STATIONS_FILE"`
	Out       string        `short:"o" long:"out"        description:"Output directory for the file sink. Overrides OUTPUT_DIR"`
	Sink      string        `long:"sink"                 description:"Where samples go. Overrides SINK" choice:"file" choice:"kafka"`
	Start     string        `long:"start"                description:"Window start, ISO-8601 date or date-time (UTC when no zone)"`
	End       string        `long:"end"                  description:"Window end, inclusive"`
	Step      time.Duration `long:"step"                 description:"Sampling step, e.g. 1m or 1h"`
	LegacyLon bool          `long:"legacy-lon-from-lat"  description:"Emit each station's latitude as its longitude"`
	Quiet     bool          `short:"q" long:"quiet"      description:"Do not print the run summary"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		slog.Error("rainsim failed", "error", err)
		var cfgErr *domain.ConfigError
		if errors.As(err, &cfgErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(opts Options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := observability.NewStderrLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	scenario, err := config.LoadScenario(cfg.StationsFile)
	if err != nil {
		return err
	}
	if scenario, err = applyWindow(scenario, opts); err != nil {
		return err
	}
	if cfg.LegacyLonFromLat {
		logger.Warn("legacy longitude enabled: samples carry latitude as longitude")
		scenario = config.WithLegacyLon(scenario)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sink pipeline.Sink
	switch cfg.Sink {
	case config.SinkKafka:
		ks := kafkaadapter.NewSink(cfg, logger)
		defer func() {
			if err := ks.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		sink = ks
	default:
		sink = ndjson.NewSink(cfg.OutputDir)
	}

	summary, runErr := pipeline.New(sink, logger, metrics).Run(ctx, scenario)

	pushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := metrics.Push(pushCtx, cfg.PushgatewayURL, "rainsim"); err != nil {
		logger.Warn("metrics push failed", "error", err)
	}

	if runErr != nil {
		return runErr
	}
	if !opts.Quiet {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	return nil
}

func applyFlags(cfg *config.Config, opts Options) {
	if opts.Stations != "" {
		cfg.StationsFile = opts.Stations
	}
	if opts.Out != "" {
		cfg.OutputDir = opts.Out
	}
	if opts.Sink != "" {
		cfg.Sink = opts.Sink
	}
	if opts.LegacyLon {
		cfg.LegacyLonFromLat = true
	}
}

// applyWindow overrides the scenario window with any of --start, --end and
// --step that were given, then revalidates.
func applyWindow(s domain.Scenario, opts Options) (domain.Scenario, error) {
	if opts.Start == "" && opts.End == "" && opts.Step == 0 {
		return s, nil
	}
	if opts.Start != "" {
		t, err := config.ParseTimestamp(opts.Start)
		if err != nil {
			return s, &domain.ConfigError{Field: "window.start", Reason: err.Error(), Err: err}
		}
		s.Window.Start = t
	}
	if opts.End != "" {
		t, err := config.ParseTimestamp(opts.End)
		if err != nil {
			return s, &domain.ConfigError{Field: "window.end", Reason: err.Error(), Err: err}
		}
		s.Window.End = t
	}
	if opts.Step != 0 {
		s.Window.Step = opts.Step
	}
	return s, s.Validate()
}
