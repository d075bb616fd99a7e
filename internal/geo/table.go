package geo

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Row maps column names to cell values.
type Row map[string]Value

// Table is an ordered set of columns and the rows that fill them.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// HasColumn reports whether the table declares the column.
func (t *Table) HasColumn(name string) bool {
	return slices.Contains(t.Columns, name)
}

// Append adds a row given positionally in column order.
func (t *Table) Append(values ...Value) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.Columns))
	}
	row := make(Row, len(values))
	for i, v := range values {
		row[t.Columns[i]] = v
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// ReadCSV reads a table with a header row. Numeric-looking cells become
// Numeric values, the rest Text.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: errors.New("empty input: missing header row")}
	}
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("read csv header: %w", err)}
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}
	t := NewTable(columns...)

	for n := 1; ; n++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Row: n, Err: fmt.Errorf("read csv: %w", err)}
		}
		values := make([]Value, len(rec))
		for i, cell := range rec {
			values[i] = InferValue(cell)
		}
		if err := t.Append(values...); err != nil {
			return nil, &ParseError{Row: n, Err: err}
		}
	}
	return t, nil
}

// ReadNDJSON reads one JSON object per line. Columns are ordered by first
// appearance across all lines. Numbers become Numeric, strings Text, and
// anything else Other holding its raw JSON text. Blank lines are skipped.
func ReadNDJSON(r io.Reader) (*Table, error) {
	t := NewTable()
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for n := 1; scanner.Scan(); n++ {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		keys, row, err := decodeObject(line)
		if err != nil {
			return nil, &ParseError{Row: n, Err: err}
		}
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				t.Columns = append(t.Columns, k)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Err: fmt.Errorf("read ndjson: %w", err)}
	}
	return t, nil
}

// decodeObject decodes a JSON object keeping key order.
func decodeObject(line []byte) ([]string, Row, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("decode json: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, errors.New("decode json: expected object")
	}

	var keys []string
	row := make(Row)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("decode json: %w", err)
		}
		key, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("decode json %q: %w", key, err)
		}
		if _, dup := row[key]; !dup {
			keys = append(keys, key)
		}
		row[key] = valueFromJSON(raw)
	}
	return keys, row, nil
}

func valueFromJSON(raw json.RawMessage) Value {
	switch {
	case len(raw) > 0 && raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return Text(s)
		}
	case len(raw) > 0 && (raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')):
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			if f, err := n.Float64(); err == nil {
				return Numeric(f)
			}
		}
	}
	return Other(string(raw))
}
