package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/couchcryptid/storm-data-rainsim/internal/domain"
	"github.com/couchcryptid/storm-data-rainsim/internal/geo"
	"github.com/couchcryptid/storm-data-rainsim/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"gopkg.in/yaml.v3"
)

const maxTableBytes = 10 << 20

// API serves the configured stations, their generated series, and the
// table-to-GeoJSON converter.
type API struct {
	scenario domain.Scenario
	series   *seriesCache
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewAPI creates the API for a validated scenario. cacheSize bounds the number
// of rendered series kept in memory.
func NewAPI(s domain.Scenario, cacheSize int, metrics *observability.Metrics, logger *slog.Logger) *API {
	if cacheSize <= 0 {
		cacheSize = 1
	}
	return &API{
		scenario: s,
		series:   newSeriesCache(s, cacheSize),
		metrics:  metrics,
		logger:   logger,
	}
}

// Register mounts the API routes on mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/stations", a.handleStations)
	mux.HandleFunc("GET /v1/stations/{name}/series", a.handleSeries)
	mux.HandleFunc("POST /v1/geojson", a.handleGeoJSON)
}

type stationResponse struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	RainEvents int     `json:"rain_events"`
	Samples    int     `json:"samples"`
}

func (a *API) handleStations(w http.ResponseWriter, _ *http.Request) {
	steps := a.scenario.Window.Steps()
	out := make([]stationResponse, 0, len(a.scenario.Devices))
	for _, d := range a.scenario.Devices {
		out = append(out, stationResponse{
			Name:       d.Name,
			Lat:        d.Lat,
			Lon:        d.Lon,
			RainEvents: len(d.Rain),
			Samples:    steps,
		})
	}
	sharedobs.WriteJSON(w, http.StatusOK, out)
}

func (a *API) handleSeries(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	body, ok, err := a.series.render(name)
	if err != nil {
		a.logger.Error("render series", "station", name, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "unknown station: " + name})
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		a.logger.Warn("write series response", "station", name, "error", err)
	}
}

func (a *API) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	table, err := readTable(w, r)
	if err != nil {
		a.convertFailed(w, err)
		return
	}

	q := r.URL.Query()
	opts := geo.Options{
		GeometryColumn: q.Get("geometry"),
		StripQuotes:    q.Get("strict") == "true" || q.Get("strict") == "1",
	}
	if q.Has("props") {
		opts.Properties = splitList(q.Get("props"))
	}

	fc, err := geo.Convert(table, opts)
	if err != nil {
		a.convertFailed(w, err)
		return
	}
	a.metrics.FeaturesConverted.Add(float64(len(fc.Features)))

	contentType := "application/geo+json"
	var data []byte
	if wantsYAML(r) {
		contentType = "application/yaml"
		data, err = yaml.Marshal(fc)
	} else {
		data, err = json.Marshal(fc)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		a.logger.Warn("write geojson response", "error", err)
	}
}

func (a *API) convertFailed(w http.ResponseWriter, err error) {
	var parseErr *geo.ParseError
	if errors.As(err, &parseErr) {
		a.metrics.ConvertErrors.WithLabelValues("parse").Inc()
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	a.metrics.ConvertErrors.WithLabelValues("io").Inc()
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	writeError(w, http.StatusBadRequest, err)
}

// readTable decodes the request body as NDJSON when the format query
// parameter or Content-Type says so, and as CSV otherwise.
func readTable(w http.ResponseWriter, r *http.Request) (*geo.Table, error) {
	body := http.MaxBytesReader(w, r.Body, maxTableBytes)
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		switch mediaType {
		case "application/x-ndjson", "application/jsonl", "application/json":
			format = "ndjson"
		default:
			format = "csv"
		}
	}

	rd := bytes.NewReader(data)
	if format == "ndjson" {
		return geo.ReadNDJSON(rd)
	}
	return geo.ReadCSV(rd)
}

func wantsYAML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/yaml") || strings.Contains(accept, "text/yaml")
}

// splitList splits a comma-separated list. An empty string yields an empty,
// non-nil list.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
