package geo

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb/geojson"
)

// DefaultGeometryColumn is used when Options.GeometryColumn is empty.
const DefaultGeometryColumn = "geometry"

// ParseError reports table input that cannot be converted. Row is the 1-based
// data row; 0 means the problem is with the table as a whole.
type ParseError struct {
	Row    int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Row > 0 && e.Column != "":
		return fmt.Sprintf("row %d: column %q: %v", e.Row, e.Column, e.Err)
	case e.Row > 0:
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	case e.Column != "":
		return fmt.Sprintf("column %q: %v", e.Column, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// Options controls column selection and value normalization.
type Options struct {
	// GeometryColumn holds serialized GeoJSON geometry. Defaults to "geometry".
	GeometryColumn string
	// Properties lists the property columns in output order. When nil, every
	// column except the geometry column is used, in table order.
	Properties []string
	// StripQuotes removes single quotes from string property values.
	StripQuotes bool
}

func (o Options) geometryColumn() string {
	if o.GeometryColumn == "" {
		return DefaultGeometryColumn
	}
	return o.GeometryColumn
}

// PropertyColumns resolves the property columns for a table.
func (o Options) PropertyColumns(t *Table) []string {
	if o.Properties != nil {
		return o.Properties
	}
	geom := o.geometryColumn()
	props := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c != geom {
			props = append(props, c)
		}
	}
	return props
}

// Convert builds a FeatureCollection with one Feature per table row.
func Convert(t *Table, opts Options) (*FeatureCollection, error) {
	geom := opts.geometryColumn()
	if !t.HasColumn(geom) {
		return nil, &ParseError{Column: geom, Err: errors.New("geometry column not found")}
	}

	props := opts.PropertyColumns(t)
	for _, p := range props {
		if !t.HasColumn(p) {
			return nil, &ParseError{Column: p, Err: errors.New("property column not found")}
		}
	}

	fc := NewFeatureCollection(len(t.Rows))
	for i, row := range t.Rows {
		g, err := ParseGeometry(row[geom])
		if err != nil {
			return nil, &ParseError{Row: i + 1, Column: geom, Err: err}
		}

		properties := make(Properties, 0, len(props))
		for _, p := range props {
			v := row[p]
			if opts.StripQuotes {
				properties = append(properties, Property{Key: p, Value: v.StrictPlain()})
			} else {
				properties = append(properties, Property{Key: p, Value: v.Plain()})
			}
		}

		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			Geometry:   g,
			Properties: properties,
		})
	}
	return fc, nil
}

// ParseGeometry decodes a serialized GeoJSON geometry held by a cell.
func ParseGeometry(v Value) (*geojson.Geometry, error) {
	if v.Kind() == KindNumeric {
		return nil, errors.New("geometry must be a GeoJSON object, got a number")
	}
	raw := v.String()
	if raw == "" {
		return nil, errors.New("geometry is empty")
	}
	g, err := geojson.UnmarshalGeometry([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("parse geometry: %w", err)
	}
	// An empty GeometryCollection is valid GeoJSON; other types need coordinates.
	if g.Type != "GeometryCollection" && g.Coordinates == nil {
		return nil, errors.New("parse geometry: no coordinates")
	}
	return g, nil
}
