package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/couchcryptid/storm-data-rainsim/internal/domain"
	"gopkg.in/yaml.v3"
)

// DefaultWindow is January 2024 at one-minute resolution, used when a stations
// file does not declare a window.
var DefaultWindow = domain.Window{
	Start: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2024, time.January, 31, 23, 59, 59, 0, time.UTC),
	Step:  time.Minute,
}

// timestampLayouts are tried in order. Values without a zone are UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp is an ISO-8601 date or date-time accepted in stations files.
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses an ISO-8601 date or date-time.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: want ISO-8601 date or date-time", s)
}

func (t *Timestamp) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseTimestamp(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	t.Time = parsed
	return nil
}

type stationsFile struct {
	LegacyLonFromLat bool          `yaml:"legacy_lon_from_lat"`
	Window           *windowSpec   `yaml:"window"`
	Stations         []stationSpec `yaml:"stations"`
}

type windowSpec struct {
	Start Timestamp     `yaml:"start"`
	End   Timestamp     `yaml:"end"`
	Step  time.Duration `yaml:"step"`
}

type stationSpec struct {
	Name string     `yaml:"name"`
	Lat  float64    `yaml:"lat"`
	Lon  float64    `yaml:"lon"`
	Rain []rainSpec `yaml:"rain"`
}

type rainSpec struct {
	T  Timestamp     `yaml:"t"`
	D  time.Duration `yaml:"d"`
	MM float64       `yaml:"mm"`
}

// LoadScenario reads a YAML (or JSON) stations file and returns a validated
// scenario. Definition problems are reported as *domain.ConfigError.
func LoadScenario(path string) (domain.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Scenario{}, fmt.Errorf("read stations file: %w", err)
	}
	s, err := ParseScenario(bytes.NewReader(data))
	if err != nil {
		return domain.Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScenario decodes and validates a stations document.
func ParseScenario(r io.Reader) (domain.Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f stationsFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Scenario{}, &domain.ConfigError{Reason: "stations file is empty"}
		}
		return domain.Scenario{}, &domain.ConfigError{Reason: err.Error(), Err: err}
	}

	s := domain.Scenario{Window: DefaultWindow}
	if f.Window != nil {
		s.Window = domain.Window{Start: f.Window.Start.Time, End: f.Window.End.Time, Step: f.Window.Step}
	}

	s.Devices = make([]domain.Device, 0, len(f.Stations))
	for _, st := range f.Stations {
		d := domain.Device{
			Name:             st.Name,
			Lat:              st.Lat,
			Lon:              st.Lon,
			LegacyLonFromLat: f.LegacyLonFromLat,
		}
		for _, r := range st.Rain {
			d.Rain = append(d.Rain, domain.RainEvent{Start: r.T.Time, Duration: r.D, MM: r.MM})
		}
		s.Devices = append(s.Devices, d)
	}

	if err := s.Validate(); err != nil {
		return domain.Scenario{}, err
	}
	return s, nil
}

// WithLegacyLon returns a copy of the scenario with LegacyLonFromLat set on
// every device.
func WithLegacyLon(s domain.Scenario) domain.Scenario {
	devices := make([]domain.Device, len(s.Devices))
	for i, d := range s.Devices {
		d.LegacyLonFromLat = true
		devices[i] = d
	}
	s.Devices = devices
	return s
}
