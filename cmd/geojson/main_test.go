package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/storm-data-rainsim/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stationsCSV = `name,geometry,elevation
O'Brien,"{""type"":""Point"",""coordinates"":[-97.69,30.3]}",149.5
`

func TestRun_CSVToStdout(t *testing.T) {
	var out bytes.Buffer
	n, err := run(Options{Format: "json", Geometry: "geometry", Strict: true}, strings.NewReader(stationsCSV), &out)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Equal(t, map[string]any{"name": "OBrien", "elevation": 149.5}, fc.Features[0].Properties)
}

func TestRun_NDJSONFileToYAMLFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "stations.ndjson")
	out := filepath.Join(dir, "stations.yaml")
	line := `{"name":"a","geometry":"{\"type\":\"Point\",\"coordinates\":[1,2]}"}` + "\n"
	require.NoError(t, os.WriteFile(in, []byte(line), 0o600))

	props := "name"
	n, err := run(Options{Input: in, Output: out, Format: "yaml", Geometry: "geometry", Props: &props}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "type: FeatureCollection")
	assert.Contains(t, string(data), "name: a")
}

func TestRun_EmptyProps(t *testing.T) {
	var out bytes.Buffer
	props := ""
	_, err := run(Options{Format: "json", Geometry: "geometry", Props: &props}, strings.NewReader(stationsCSV), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"properties": {}`)
}

func TestRun_ParseError(t *testing.T) {
	var out bytes.Buffer
	_, err := run(Options{Format: "json", Geometry: "shape"}, strings.NewReader(stationsCSV), &out)

	var parseErr *geo.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "shape", parseErr.Column)
	assert.Zero(t, out.Len())
}

func TestInputFormat(t *testing.T) {
	assert.Equal(t, "ndjson", inputFormat(Options{Input: "x.jsonl"}))
	assert.Equal(t, "csv", inputFormat(Options{Input: "x.csv"}))
	assert.Equal(t, "csv", inputFormat(Options{}))
	assert.Equal(t, "ndjson", inputFormat(Options{Input: "x.csv", InputFormat: "ndjson"}))
}
