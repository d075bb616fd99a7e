package domain

import "time"

// EmitFunc receives each sample of a series in time order. Returning an error
// stops generation and the error is passed back to the caller.
type EmitFunc func(Sample) error

// GenerateSeries walks the window for a single device and emits one sample per
// step, starting at w.Start and ending at the last step not after w.End.
// The device and window are assumed valid; see [Scenario.Validate].
func GenerateSeries(d Device, w Window, emit EmitFunc) error {
	lon := d.Lon
	if d.LegacyLonFromLat {
		lon = d.Lat
	}

	precip := 0.0
	for t := w.Start; !t.After(w.End); t = t.Add(w.Step) {
		if err := emit(Sample{
			EventTime:                t,
			Lat:                      d.Lat,
			Lon:                      lon,
			PrecipitationAccumulated: precip,
		}); err != nil {
			return err
		}
		precip += stepRainfall(d.Rain, t, w.Step)
	}
	return nil
}

// Series collects a device's full series into a slice.
func Series(d Device, w Window) []Sample {
	out := make([]Sample, 0, w.Steps())
	_ = GenerateSeries(d, w, func(s Sample) error {
		out = append(out, s)
		return nil
	})
	return out
}

// stepRainfall sums the contributions of every event active at the start of
// the step beginning at t.
func stepRainfall(events []RainEvent, t time.Time, step time.Duration) float64 {
	var mm float64
	for _, r := range events {
		if r.ActiveAt(t) {
			mm += r.StepContribution(step)
		}
	}
	return mm
}
