//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/storm-data-rainsim/internal/adapter/kafka"
	"github.com/couchcryptid/storm-data-rainsim/internal/config"
	"github.com/couchcryptid/storm-data-rainsim/internal/domain"
	"github.com/couchcryptid/storm-data-rainsim/internal/observability"
	"github.com/couchcryptid/storm-data-rainsim/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testSampleTopic = "test-rain-samples"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker for the test and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("rainsim-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     2,
		ReplicationFactor: 1,
	}))
}

// sampleMessage holds a deserialized message read from the sample topic.
type sampleMessage struct {
	Sample  domain.Sample
	Key     string
	Headers map[string]string
}

func readSample(ctx context.Context, t *testing.T, consumer *kafkago.Reader) sampleMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sample topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var s domain.Sample
	require.NoError(t, json.Unmarshal(msg.Value, &s), "unmarshal sample message")

	return sampleMessage{Sample: s, Key: string(msg.Key), Headers: headers}
}

// TestKafkaSinkEndToEnd runs the generator against a real broker and checks
// that every sample arrives keyed by device with per-device order intact.
func TestKafkaSinkEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSampleTopic)

	cfg := &config.Config{
		KafkaBrokers: []string{broker},
		KafkaTopic:   testSampleTopic,
		BatchSize:    10,
	}
	sink := kafka.NewSink(cfg, discardLogger())
	t.Cleanup(func() { _ = sink.Close() })

	jan1 := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	scenario := domain.Scenario{
		Window: domain.Window{Start: jan1, End: jan1.Add(24 * time.Hour), Step: time.Hour},
		Devices: []domain.Device{
			{
				Name: "weather-station-001", Lat: 30.30, Lon: -97.69,
				Rain: []domain.RainEvent{{Start: jan1, Duration: 24 * time.Hour, MM: 24}},
			},
			{
				Name: "weather-station-002", Lat: 28.48, Lon: -98.34,
				Rain: []domain.RainEvent{{Start: jan1.Add(6 * time.Hour), Duration: 6 * time.Hour, MM: 3}},
			},
		},
	}

	runner := pipeline.New(sink, discardLogger(), observability.NewMetricsForTesting())
	summary, err := runner.Run(ctx, scenario)
	require.NoError(t, err)
	require.Equal(t, 50, summary.SampleTotal)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSampleTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	byDevice := map[string][]sampleMessage{}
	for range summary.SampleTotal {
		m := readSample(ctx, t, consumer)
		byDevice[m.Key] = append(byDevice[m.Key], m)
	}

	require.Len(t, byDevice["weather-station-001"], 25)
	require.Len(t, byDevice["weather-station-002"], 25)

	for name, msgs := range byDevice {
		for i, m := range msgs {
			assert.Equal(t, name, m.Headers["device"])
			assert.Equal(t, summary.RunID, m.Headers["run_id"])
			assert.Equal(t, jan1.Add(time.Duration(i)*time.Hour), m.Sample.EventTime.UTC(), "%s sample %d out of order", name, i)
		}
	}

	first := byDevice["weather-station-001"]
	assert.InDelta(t, 0.0, first[0].Sample.PrecipitationAccumulated, 1e-9)
	assert.InDelta(t, 24.0, first[24].Sample.PrecipitationAccumulated, 1e-9)
	assert.Equal(t, -97.69, first[0].Sample.Lon)

	second := byDevice["weather-station-002"]
	assert.InDelta(t, 3.0, second[24].Sample.PrecipitationAccumulated, 1e-9)
}
