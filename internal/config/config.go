package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Sink names accepted by SINK.
const (
	SinkFile  = "file"
	SinkKafka = "kafka"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	StationsFile     string
	OutputDir        string
	Sink             string
	LegacyLonFromLat bool

	KafkaBrokers []string
	KafkaTopic   string
	BatchSize    int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	SeriesCacheSize int

	// PushgatewayURL enables pushing batch metrics when set.
	PushgatewayURL string
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first if present;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	legacyLon, err := parseBool("LEGACY_LON_FROM_LAT")
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("SERIES_CACHE_SIZE", 16)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		StationsFile:     sharedcfg.EnvOrDefault("STATIONS_FILE", "stations.yaml"),
		OutputDir:        sharedcfg.EnvOrDefault("OUTPUT_DIR", "data"),
		Sink:             sharedcfg.EnvOrDefault("SINK", SinkFile),
		LegacyLonFromLat: legacyLon,

		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "synthetic-rain-samples"),
		BatchSize:    batchSize,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		SeriesCacheSize: cacheSize,

		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints. Commands call it again after
// applying flag overrides.
func (c *Config) Validate() error {
	switch c.Sink {
	case SinkFile:
		if c.OutputDir == "" {
			return errors.New("OUTPUT_DIR is required for the file sink")
		}
	case SinkKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required for the kafka sink")
		}
		if c.KafkaTopic == "" {
			return errors.New("KAFKA_TOPIC is required for the kafka sink")
		}
	default:
		return fmt.Errorf("invalid SINK %q: must be %q or %q", c.Sink, SinkFile, SinkKafka)
	}
	return nil
}

func parseBool(key string) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}
