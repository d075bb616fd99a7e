package domain

import "time"

// RainEvent is a modeled rainfall occurrence: MM millimeters spread evenly
// over Duration, beginning at Start.
type RainEvent struct {
	Start    time.Time     `json:"t" validate:"required"`
	Duration time.Duration `json:"d" validate:"gt=0"`
	MM       float64       `json:"mm" validate:"gte=0"`
}

// End returns the first instant at which the event is no longer active.
func (r RainEvent) End() time.Time {
	return r.Start.Add(r.Duration)
}

// ActiveAt reports whether t falls within [Start, Start+Duration).
func (r RainEvent) ActiveAt(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End())
}

// StepContribution returns the millimeters the event delivers per step.
func (r RainEvent) StepContribution(step time.Duration) float64 {
	return r.MM / (r.Duration.Seconds() / step.Seconds())
}

// Device is a simulated weather station at a fixed location.
type Device struct {
	Name string      `json:"name" validate:"required,excludesall=/\\"`
	Lat  float64     `json:"lat" validate:"gte=-90,lte=90"`
	Lon  float64     `json:"lon" validate:"gte=-180,lte=180"`
	Rain []RainEvent `json:"rain" validate:"dive"`

	// LegacyLonFromLat writes the latitude into the lon field of every sample.
	LegacyLonFromLat bool `json:"-"`
}

// Window is the closed sampling range [Start, End] at a fixed step.
type Window struct {
	Start time.Time     `json:"start" validate:"required"`
	End   time.Time     `json:"end" validate:"required,gtefield=Start"`
	Step  time.Duration `json:"step" validate:"gt=0"`
}

// Steps returns the number of samples the window produces.
func (w Window) Steps() int {
	if w.Step <= 0 || w.End.Before(w.Start) {
		return 0
	}
	return int(w.End.Sub(w.Start)/w.Step) + 1
}

// Scenario is the complete generator input: the devices and the window they
// are sampled over.
type Scenario struct {
	Window  Window   `json:"window"`
	Devices []Device `json:"devices" validate:"min=1,unique=Name,dive"`
}

// Device returns the device with the given name.
func (s Scenario) Device(name string) (Device, bool) {
	for _, d := range s.Devices {
		if d.Name == name {
			return d, true
		}
	}
	return Device{}, false
}

// Sample is one emitted record of a device's series.
type Sample struct {
	EventTime                time.Time `json:"event_time"`
	Lat                      float64   `json:"lat"`
	Lon                      float64   `json:"lon"`
	PrecipitationAccumulated float64   `json:"precipitation_accumulated"`
}
