// Package domain models synthetic weather-station precipitation series.
//
// # Scenario
//
// A [Scenario] is a fixed list of [Device] definitions plus the [Window] over
// which they are sampled. Each device has a fixed location and an ordered list
// of [RainEvent] records. Scenarios are built by the caller (usually from a
// stations file, see the config package) and handed to the generator; there is
// no package-level device list.
//
// # Rain Model
//
// A rain event delivers MM millimeters linearly over its duration D. Sampling
// at step S, the event contributes
//
//	MM / (D / S)
//
// millimeters for every step whose start time t satisfies
//
//	Start <= t < Start + D
//
// Overlapping events on the same device add. Because every contribution is
// non-negative, the accumulated total of a device never decreases.
//
// # Sample Timing
//
// The window is closed: both Start and End produce a sample. A sample at t
// carries the rain that fell before t, i.e. the contributions of all steps
// that started strictly before t. A 24 mm event over 24 h sampled hourly
// therefore reports 0 at the event start and 24 at the event end.
//
// # Output Format
//
//	{"event_time":"2024-01-01T00:00:00Z","lat":30.3,"lon":-97.69,"precipitation_accumulated":0}
//
// event_time is RFC 3339. Older data sets carried the latitude in the lon
// field; [Device.LegacyLonFromLat] reproduces that for downstream consumers
// that were built against it.
package domain
