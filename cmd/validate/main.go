// Command validate checks the NDJSON series in an output directory against the
// stations file that produced them: one file per station, one sample per step,
// coordinates, timestamps, and accumulated totals recomputed from the rain
// definitions.
//
// Usage:
//
//	go run ./cmd/validate --stations stations.example.yaml --dir data
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/storm-data-rainsim/internal/adapter/ndjson"
	"github.com/couchcryptid/storm-data-rainsim/internal/config"
	"github.com/couchcryptid/storm-data-rainsim/internal/domain"
	"github.com/jessevdk/go-flags"
)

type Options struct {
	Stations  string `short:"s" long:"stations" description:"Stations file the series were generated from" required:"true"`
	Dir       string `short:"d" long:"dir"      description:"Directory holding <station>.ndjson files" default:"data"`
	LegacyLon bool   `long:"legacy-lon-from-lat" description:"Expect latitude in the lon field"`
	MaxErrors int    `long:"max-errors"          description:"Errors reported per phase" default:"20"`
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	limit  int
	total  int
}

func (p *phase) errorf(format string, args ...any) {
	p.total++
	if p.limit > 0 && len(p.errors) >= p.limit {
		return
	}
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return p.total == 0 }

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if code := run(opts); code != 0 {
		os.Exit(code)
	}
}

func run(opts Options) int {
	fmt.Println("=== Rain Series Integrity Validation ===")
	fmt.Println()

	scenario, err := config.LoadScenario(opts.Stations)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load stations: %v\n", err)
		return 1
	}
	if opts.LegacyLon {
		scenario = config.WithLegacyLon(scenario)
	}

	sink := ndjson.NewSink(opts.Dir)
	series := make(map[string][]domain.Sample, len(scenario.Devices))

	presence := &phase{name: "Phase 1: Output Presence (one file per station)", limit: opts.MaxErrors}
	for _, d := range scenario.Devices {
		samples, err := loadSeries(sink.Path(d.Name))
		if err != nil {
			presence.errorf("%s: %v", d.Name, err)
			continue
		}
		series[d.Name] = samples
	}

	phases := []*phase{
		presence,
		validateShape(scenario, series, opts.MaxErrors),
		validateAccumulation(scenario, series, opts.MaxErrors),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", p.total)
			allPassed = false
		}
		fmt.Printf("  %-52s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Stations: %d configured, %d files read, %d samples expected per station\n",
		len(scenario.Devices), len(series), scenario.Window.Steps())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		if hidden := p.total - len(p.errors); hidden > 0 {
			fmt.Printf("  ... %d more\n", hidden)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadSeries(path string) ([]domain.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var samples []domain.Sample
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		var s domain.Sample
		if err := json.Unmarshal(scanner.Bytes(), &s); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

// ── Phase 2: Series Shape ──
// Sample count, timestamps, and coordinates.

func validateShape(s domain.Scenario, series map[string][]domain.Sample, limit int) *phase {
	p := &phase{name: "Phase 2: Series Shape (count, timestamps, coords)", limit: limit}
	want := s.Window.Steps()

	for _, d := range s.Devices {
		samples, ok := series[d.Name]
		if !ok {
			continue
		}
		if len(samples) != want {
			p.errorf("%s: expected %d samples, got %d", d.Name, want, len(samples))
		}

		wantLon := d.Lon
		if d.LegacyLonFromLat {
			wantLon = d.Lat
		}
		for i, sample := range samples {
			expected := s.Window.Start.Add(time.Duration(i) * s.Window.Step)
			if !sample.EventTime.Equal(expected) {
				p.errorf("%s sample %d: event_time %s, expected %s", d.Name, i,
					sample.EventTime.Format(time.RFC3339), expected.Format(time.RFC3339))
			}
			if sample.Lat != d.Lat || sample.Lon != wantLon {
				p.errorf("%s sample %d: coords (%g, %g), expected (%g, %g)", d.Name, i,
					sample.Lat, sample.Lon, d.Lat, wantLon)
			}
		}
	}
	return p
}

// ── Phase 3: Accumulation ──
// Totals never decrease and match a fresh generation.

func validateAccumulation(s domain.Scenario, series map[string][]domain.Sample, limit int) *phase {
	p := &phase{name: "Phase 3: Accumulation (monotonic, recomputed)", limit: limit}

	for _, d := range s.Devices {
		samples, ok := series[d.Name]
		if !ok {
			continue
		}
		expected := domain.Series(d, s.Window)

		prev := 0.0
		for i, sample := range samples {
			if sample.PrecipitationAccumulated < prev {
				p.errorf("%s sample %d: total decreased from %g to %g", d.Name, i, prev, sample.PrecipitationAccumulated)
			}
			prev = sample.PrecipitationAccumulated

			if i < len(expected) && !floatEq(sample.PrecipitationAccumulated, expected[i].PrecipitationAccumulated) {
				p.errorf("%s sample %d: total %g, expected %g", d.Name, i,
					sample.PrecipitationAccumulated, expected[i].PrecipitationAccumulated)
			}
		}
	}
	return p
}

// ── Helpers ──

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
