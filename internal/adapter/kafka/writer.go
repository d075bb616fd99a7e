package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-rainsim/internal/config"
	"github.com/couchcryptid/storm-data-rainsim/internal/domain"
	"github.com/couchcryptid/storm-data-rainsim/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Sink publishes samples to a Kafka topic, one message per sample keyed by
// device name so each device's series stays ordered within a partition.
// It implements pipeline.Sink.
type Sink struct {
	writer    messageWriter
	topic     string
	batchSize int
	logger    *slog.Logger
}

// NewSink creates a Kafka producer for the configured sample topic.
func NewSink(cfg *config.Config, logger *slog.Logger) *Sink {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
	}
	return newSink(w, cfg.KafkaTopic, cfg.BatchSize, logger)
}

func newSink(w messageWriter, topic string, batchSize int, logger *slog.Logger) *Sink {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Sink{writer: w, topic: topic, batchSize: batchSize, logger: logger}
}

func (s *Sink) Open(_ context.Context, runID string, d domain.Device) (pipeline.SeriesWriter, error) {
	return &seriesWriter{
		sink:   s,
		device: d.Name,
		runID:  runID,
		batch:  make([]kafkago.Message, 0, s.batchSize),
	}, nil
}

// Close closes the underlying producer.
func (s *Sink) Close() error {
	return s.writer.Close()
}

// seriesWriter buffers one device's messages and publishes them in batches.
type seriesWriter struct {
	sink   *Sink
	device string
	runID  string
	batch  []kafkago.Message
}

func (w *seriesWriter) Write(ctx context.Context, s domain.Sample) error {
	msg, err := serializeToMessage(w.device, w.runID, s)
	if err != nil {
		return err
	}
	w.batch = append(w.batch, msg)
	if len(w.batch) >= w.sink.batchSize {
		return w.flush(ctx)
	}
	return nil
}

func (w *seriesWriter) Destination() string { return "kafka://" + w.sink.topic }

// Close publishes any buffered messages. It does not take the run context so
// samples produced before a cancellation are still delivered; the producer's
// write timeout bounds the call.
func (w *seriesWriter) Close() error {
	return w.flush(context.Background())
}

func (w *seriesWriter) flush(ctx context.Context) error {
	if len(w.batch) == 0 {
		return nil
	}
	if err := w.sink.writer.WriteMessages(ctx, w.batch...); err != nil {
		return &domain.IOError{Op: "publish", Path: w.Destination(), Err: err}
	}
	w.sink.logger.Debug("published samples", "device", w.device, "count", len(w.batch))
	w.batch = w.batch[:0]
	return nil
}

// serializeToMessage marshals a Sample into a Kafka message.
func serializeToMessage(device, runID string, s domain.Sample) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize sample: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(device),
		Value: data,
		Time:  s.EventTime,
		Headers: []kafkago.Header{
			{Key: "device", Value: []byte(device)},
			{Key: "run_id", Value: []byte(runID)},
			{Key: "event_time", Value: []byte(s.EventTime.Format(time.RFC3339))},
		},
	}, nil
}
