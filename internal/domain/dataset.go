package domain

import (
	"context"
	"math"
	"time"
)

// Field names a scalar variable of the wave product.
type Field string

const (
	FieldWaveHeight    Field = "VHM0"
	FieldWaveDirection Field = "VMDR"
	FieldMaxWaveHeight Field = "VCMX"
)

// WaveFields is the field set requested for every incident lookup.
var WaveFields = []Field{FieldWaveHeight, FieldWaveDirection, FieldMaxWaveHeight}

// Range is a closed interval [Min, Max] of degrees.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies in the range, endpoints included.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// TimeRange is a closed interval [Start, End].
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies in the range, endpoints included.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// IsZero reports whether neither bound is set.
func (r TimeRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Window is the box in space and time searched for grid cells.
type Window struct {
	Lat  Range     `json:"lat"`
	Lon  Range     `json:"lon"`
	Time TimeRange `json:"time"`
}

// Contains reports whether the cell's coordinates fall inside the window.
func (w Window) Contains(c Cell) bool {
	return w.Lat.Contains(c.Lat) && w.Lon.Contains(c.Lon) && w.Time.Contains(c.Time)
}

// Cell is one (time, latitude, longitude) sample with the requested field values.
type Cell struct {
	Time   time.Time
	Lat    float64
	Lon    float64
	Values map[Field]float64
}

// Value returns the field's value. Missing fields and NaN fill both report false.
func (c Cell) Value(f Field) (float64, bool) {
	v, ok := c.Values[f]
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Selection is the ordered result of a dataset range query, in the dataset's
// native storage order.
type Selection []Cell

// Dataset is read-only access to a gridded environmental field. Implementations
// must be safe for concurrent use once opened.
type Dataset interface {
	// Validity is the interval for which the dataset has any data at all.
	Validity() TimeRange

	// Select returns every cell whose coordinates lie inside w (bounds
	// inclusive), carrying the requested fields. An empty selection is not an
	// error. Backend failures wrap ErrDataUnavailable.
	Select(ctx context.Context, fields []Field, w Window) (Selection, error)
}
