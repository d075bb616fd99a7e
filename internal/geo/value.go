package geo

import (
	"math"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value. The zero Value is an empty Other,
// which is what a missing cell reads as.
type Kind int

const (
	KindOther Kind = iota
	KindNumeric
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	default:
		return "other"
	}
}

// Value is one cell of a table: a number, a string, or anything else carried
// by its textual form (booleans, nulls, nested JSON, dates).
type Value struct {
	kind Kind
	num  float64
	text string
}

// Numeric wraps a number.
func Numeric(f float64) Value { return Value{kind: KindNumeric, num: f} }

// Text wraps a string.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Other wraps a non-scalar value by its textual representation.
func Other(repr string) Value { return Value{kind: KindOther, text: repr} }

// InferValue classifies a raw cell: finite numbers become Numeric, everything
// else Text.
func InferValue(raw string) Value {
	s := strings.TrimSpace(raw)
	if s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return Numeric(f)
		}
	}
	return Text(raw)
}

func (v Value) Kind() Kind { return v.kind }

// String returns the textual form of the value.
func (v Value) String() string {
	if v.kind == KindNumeric {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.text
}

// Plain maps the value to a JSON scalar: numbers and strings pass through,
// other values become their textual form.
func (v Value) Plain() any {
	if v.kind == KindNumeric {
		return v.num
	}
	return v.text
}

// StrictPlain is Plain with single quotes removed from string results, for
// consumers that cannot handle escaped quotes.
func (v Value) StrictPlain() any {
	p := v.Plain()
	if s, ok := p.(string); ok {
		return strings.ReplaceAll(s, "'", "")
	}
	return p
}
