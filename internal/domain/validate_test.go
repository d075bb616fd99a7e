package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validScenario() Scenario {
	return Scenario{
		Window: hourlyWindow(24),
		Devices: []Device{
			{
				Name: "weather-station-001",
				Lat:  30.30,
				Lon:  -97.69,
				Rain: []RainEvent{{Start: jan1, Duration: 24 * time.Hour, MM: 15}},
			},
			{Name: "weather-station-002", Lat: 28.48, Lon: -98.34},
		},
	}
}

func TestScenario_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Scenario)
		wantField string
	}{
		{
			name:      "zero duration",
			mutate:    func(s *Scenario) { s.Devices[0].Rain[0].Duration = 0 },
			wantField: "Duration",
		},
		{
			name:      "negative duration",
			mutate:    func(s *Scenario) { s.Devices[0].Rain[0].Duration = -time.Hour },
			wantField: "Duration",
		},
		{
			name:      "negative millimeters",
			mutate:    func(s *Scenario) { s.Devices[0].Rain[0].MM = -1 },
			wantField: "MM",
		},
		{
			name:      "missing event start",
			mutate:    func(s *Scenario) { s.Devices[0].Rain[0].Start = time.Time{} },
			wantField: "Start",
		},
		{
			name:      "empty name",
			mutate:    func(s *Scenario) { s.Devices[1].Name = "" },
			wantField: "Name",
		},
		{
			name:      "name with separator",
			mutate:    func(s *Scenario) { s.Devices[1].Name = "../etc" },
			wantField: "Name",
		},
		{
			name:      "dot name",
			mutate:    func(s *Scenario) { s.Devices[1].Name = ".." },
			wantField: "Name",
		},
		{
			name:      "duplicate names",
			mutate:    func(s *Scenario) { s.Devices[1].Name = s.Devices[0].Name },
			wantField: "Devices",
		},
		{
			name:      "latitude out of range",
			mutate:    func(s *Scenario) { s.Devices[0].Lat = 91 },
			wantField: "Lat",
		},
		{
			name:      "longitude out of range",
			mutate:    func(s *Scenario) { s.Devices[0].Lon = -181 },
			wantField: "Lon",
		},
		{
			name:      "no devices",
			mutate:    func(s *Scenario) { s.Devices = nil },
			wantField: "Devices",
		},
		{
			name:      "zero step",
			mutate:    func(s *Scenario) { s.Window.Step = 0 },
			wantField: "Step",
		},
		{
			name:      "end before start",
			mutate:    func(s *Scenario) { s.Window.End = s.Window.Start.Add(-time.Minute) },
			wantField: "End",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validScenario()
			tt.mutate(&s)

			err := s.Validate()

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, cfgErr.Field, tt.wantField)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}

func TestScenario_ValidateAccepts(t *testing.T) {
	require.NoError(t, validScenario().Validate())

	s := validScenario()
	s.Window.End = s.Window.Start
	require.NoError(t, s.Validate(), "single-sample window")
}

func TestScenario_Device(t *testing.T) {
	s := validScenario()

	d, ok := s.Device("weather-station-002")
	require.True(t, ok)
	assert.Equal(t, 28.48, d.Lat)

	_, ok = s.Device("missing")
	assert.False(t, ok)
}

func TestRunSummary(t *testing.T) {
	fc := clockwork.NewFakeClockAt(time.Date(2024, time.February, 1, 6, 0, 0, 0, time.UTC))
	SetClock(fc)
	t.Cleanup(func() { SetClock(nil) })

	s := NewRunSummary("run-1")
	s.Add(DeviceSummary{Name: "a", Samples: 10, FinalMM: 1.5})
	s.Add(DeviceSummary{Name: "b", Samples: 5})
	fc.Advance(3 * time.Second)
	s.Finish()

	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, 15, s.SampleTotal)
	assert.Len(t, s.Devices, 2)
	assert.Equal(t, 3*time.Second, s.Duration())
}
