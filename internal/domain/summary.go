package domain

import "time"

// DeviceSummary describes the series written for one device.
type DeviceSummary struct {
	Name        string    `json:"name"`
	Destination string    `json:"destination"`
	Samples     int       `json:"samples"`
	FinalMM     float64   `json:"final_mm"`
	LastEvent   time.Time `json:"last_event_time"`
}

// RunSummary describes a complete generator run.
type RunSummary struct {
	RunID       string          `json:"run_id"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at"`
	Devices     []DeviceSummary `json:"devices"`
	SampleTotal int             `json:"sample_total"`
}

// NewRunSummary starts a summary stamped with the current time.
func NewRunSummary(runID string) *RunSummary {
	return &RunSummary{RunID: runID, StartedAt: clock.Now().UTC()}
}

// Add records a finished device.
func (s *RunSummary) Add(d DeviceSummary) {
	s.Devices = append(s.Devices, d)
	s.SampleTotal += d.Samples
}

// Finish stamps the completion time.
func (s *RunSummary) Finish() {
	s.FinishedAt = clock.Now().UTC()
}

// Duration returns how long the run took.
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
