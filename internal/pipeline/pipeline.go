package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/couchcryptid/storm-data-rainsim/internal/domain"
	"github.com/couchcryptid/storm-data-rainsim/internal/observability"
	"github.com/google/uuid"
)

// SeriesWriter receives the samples of one device in time order.
type SeriesWriter interface {
	Write(ctx context.Context, s domain.Sample) error
	// Destination names where the samples go, e.g. a file path or topic.
	Destination() string
	Close() error
}

// Sink opens a SeriesWriter per device.
type Sink interface {
	Open(ctx context.Context, runID string, d domain.Device) (SeriesWriter, error)
}

// Runner drives the generator: it validates a scenario, then writes every
// device's series to the sink, one device at a time.
type Runner struct {
	sink    Sink
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Runner writing to the given sink.
func New(sink Sink, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		sink:    sink,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no generator run has completed yet")
	}
	return nil
}

// Run generates and writes every device of the scenario. It stops at the
// first error; writers already opened are closed before returning.
func (r *Runner) Run(ctx context.Context, s domain.Scenario) (*domain.RunSummary, error) {
	if err := s.Validate(); err != nil {
		r.metrics.LastRunSuccess.Set(0)
		return nil, err
	}

	summary := domain.NewRunSummary(uuid.NewString())
	logger := r.logger.With("run_id", summary.RunID)
	logger.Info("generator run started",
		"devices", len(s.Devices),
		"start", s.Window.Start,
		"end", s.Window.End,
		"step", s.Window.Step,
	)

	r.metrics.GeneratorRunning.Set(1)
	defer r.metrics.GeneratorRunning.Set(0)

	for _, d := range s.Devices {
		ds, err := r.runDevice(ctx, summary.RunID, d, s.Window)
		if err != nil {
			r.metrics.LastRunSuccess.Set(0)
			logger.Error("device series failed", "device", d.Name, "samples", ds.Samples, "error", err)
			return nil, fmt.Errorf("device %s: %w", d.Name, err)
		}
		summary.Add(ds)
		r.metrics.DevicesProcessed.Inc()
		r.metrics.SamplesWritten.Add(float64(ds.Samples))
		logger.Info("device series written",
			"device", d.Name,
			"destination", ds.Destination,
			"samples", ds.Samples,
			"final_mm", ds.FinalMM,
		)
	}

	summary.Finish()
	r.metrics.RunDuration.Observe(summary.Duration().Seconds())
	r.metrics.LastRunSuccess.Set(1)
	r.ready.Store(true)
	logger.Info("generator run finished", "samples", summary.SampleTotal, "duration", summary.Duration())
	return summary, nil
}

// runDevice writes a single device series. The writer is closed on every
// path; a close failure is reported when nothing else failed first.
func (r *Runner) runDevice(ctx context.Context, runID string, d domain.Device, w domain.Window) (ds domain.DeviceSummary, err error) {
	ds.Name = d.Name

	sw, err := r.sink.Open(ctx, runID, d)
	if err != nil {
		return ds, err
	}
	ds.Destination = sw.Destination()
	defer func() {
		if cerr := sw.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	err = domain.GenerateSeries(d, w, func(s domain.Sample) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sw.Write(ctx, s); err != nil {
			return err
		}
		ds.Samples++
		ds.FinalMM = s.PrecipitationAccumulated
		ds.LastEvent = s.EventTime
		return nil
	})
	return ds, err
}
