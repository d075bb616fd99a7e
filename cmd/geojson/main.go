// Command geojson converts a CSV or NDJSON table whose geometry column holds
// serialized GeoJSON geometries into a GeoJSON FeatureCollection.
//
// Usage:
//
//	go run ./cmd/geojson --in stations.csv --props name,elevation --strict
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/storm-data-rainsim/internal/geo"
	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Input       string  `short:"i" long:"in"           description:"Input file path. Reads from stdin if empty"`
	Output      string  `short:"o" long:"out"          description:"Output file path. Writes to stdout if empty"`
	Format      string  `short:"f" long:"format"       description:"Output format" choice:"json" choice:"yaml" default:"json"`
	InputFormat string  `long:"input-format"           description:"Input format. Guessed from the --in extension when empty" choice:"csv" choice:"ndjson"`
	Geometry    string  `short:"g" long:"geometry"     description:"Column holding the serialized geometry" default:"geometry"`
	Props       *string `short:"p" long:"props"        description:"Comma-separated property columns in output order. All but the geometry column when omitted"`
	Strict      bool    `long:"strict"                 description:"Remove single quotes from text property values"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	n, err := run(opts, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var parseErr *geo.ParseError
		if errors.As(err, &parseErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
	if opts.Output != "" {
		fmt.Fprintf(os.Stderr, "Converted %d features to %s (format: %s)\n", n, opts.Output, opts.Format)
	}
}

// run converts the input and writes the collection to opts.Output or stdout.
// It returns the number of features written.
func run(opts Options, stdin io.Reader, stdout io.Writer) (int, error) {
	var input []byte
	var err error
	if opts.Input != "" {
		input, err = os.ReadFile(opts.Input)
	} else {
		input, err = io.ReadAll(stdin)
	}
	if err != nil {
		return 0, fmt.Errorf("read input: %w", err)
	}

	var table *geo.Table
	if inputFormat(opts) == "ndjson" {
		table, err = geo.ReadNDJSON(bytes.NewReader(input))
	} else {
		table, err = geo.ReadCSV(bytes.NewReader(input))
	}
	if err != nil {
		return 0, err
	}

	convOpts := geo.Options{GeometryColumn: opts.Geometry, StripQuotes: opts.Strict}
	if opts.Props != nil {
		convOpts.Properties = splitList(*opts.Props)
	}
	fc, err := geo.Convert(table, convOpts)
	if err != nil {
		return 0, err
	}

	var out []byte
	if opts.Format == "yaml" {
		out, err = yaml.Marshal(fc)
	} else {
		out, err = json.MarshalIndent(fc, "", "  ")
		out = append(out, '\n')
	}
	if err != nil {
		return 0, fmt.Errorf("marshal output: %w", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, out, 0o644); err != nil {
			return 0, fmt.Errorf("write output: %w", err)
		}
	} else if _, err := stdout.Write(out); err != nil {
		return 0, fmt.Errorf("write output: %w", err)
	}
	return len(fc.Features), nil
}

func inputFormat(opts Options) string {
	if opts.InputFormat != "" {
		return opts.InputFormat
	}
	switch strings.ToLower(filepath.Ext(opts.Input)) {
	case ".ndjson", ".jsonl":
		return "ndjson"
	default:
		return "csv"
	}
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
