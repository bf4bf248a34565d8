package ingest

import (
	"math"
	"strconv"
	"strings"
)

const (
	// Field index of the measurement within a record.
	valueField = 2

	// Lines are split into at most this many fields. Commas beyond the last
	// split stay inside the final field.
	maxFields = 4

	missing = "NA"
)

// SkipReason says why a record contributed no value to the dataset.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipTooFewFields
	SkipMissing
	SkipNotNumeric
	SkipOutOfRange
)

func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "none"
	case SkipTooFewFields:
		return "too_few_fields"
	case SkipMissing:
		return "missing"
	case SkipNotNumeric:
		return "not_numeric"
	case SkipOutOfRange:
		return "out_of_range"
	default:
		return "unknown"
	}
}

// Bounds is the closed range of raw values that are kept. Values inside it are
// rescaled linearly onto [0, 1].
type Bounds struct {
	Min float64
	Max float64
}

// Normalize rescales v onto [0, 1]. It returns false if v lies outside the bounds.
func (b Bounds) Normalize(v float64) (float64, bool) {
	// NaN fails both comparisons and is rejected here.
	if !(v >= b.Min && v <= b.Max) {
		return 0, false
	}
	return (v - b.Min) / (b.Max - b.Min), true
}

// Options controls how lines are turned into normalized values.
type Options struct {
	Bounds           Bounds
	AnomalyThreshold float64
}

func DefaultOptions() Options {
	return Options{
		Bounds:           Bounds{Min: 1.0, Max: 99.0},
		AnomalyThreshold: 0.9,
	}
}

// Record is the outcome of parsing a single line: either a normalized value or
// the reason the line was skipped.
type Record struct {
	Value float64
	Skip  SkipReason
}

func (r Record) OK() bool {
	return r.Skip == SkipNone
}

// ParseRecord extracts, validates, and normalizes the measurement in line.
// It never fails; malformed lines come back with a non-zero Skip.
func ParseRecord(line string, opts Options) Record {
	parts := strings.SplitN(strings.TrimRight(line, " \t\r\n"), ",", maxFields)
	if len(parts) <= valueField {
		return Record{Skip: SkipTooFewFields}
	}

	field := strings.TrimSpace(parts[valueField])
	if field == missing {
		return Record{Skip: SkipMissing}
	}

	v, err := strconv.ParseFloat(field, 64)
	if err != nil || math.IsNaN(v) {
		return Record{Skip: SkipNotNumeric}
	}

	norm, ok := opts.Bounds.Normalize(v)
	if !ok {
		return Record{Skip: SkipOutOfRange}
	}
	return Record{Value: norm}
}
