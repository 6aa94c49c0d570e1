// Package netcdf loads a downloaded wave product file into an in-memory grid.
// Reading the file needs the C netCDF library and is behind the netcdf build
// tag; unit parsing and unpacking are plain Go.
package netcdf

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// CF time units: "<unit> since <reference>".
var timeUnits = map[string]time.Duration{
	"seconds": time.Second,
	"second":  time.Second,
	"minutes": time.Minute,
	"minute":  time.Minute,
	"hours":   time.Hour,
	"hour":    time.Hour,
	"days":    24 * time.Hour,
	"day":     24 * time.Hour,
}

var referenceLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// TimeAxis converts offsets from a CF-style reference into UTC timestamps.
type TimeAxis struct {
	Unit      time.Duration
	Reference time.Time
}

// ParseTimeUnits parses a CF units attribute such as "hours since 1950-01-01".
func ParseTimeUnits(s string) (TimeAxis, error) {
	unit, ref, ok := strings.Cut(strings.TrimSpace(s), " since ")
	if !ok {
		return TimeAxis{}, fmt.Errorf("time units %q: missing \"since\"", s)
	}
	d, ok := timeUnits[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		return TimeAxis{}, fmt.Errorf("time units %q: unsupported unit %q", s, unit)
	}
	ref = strings.TrimSuffix(strings.TrimSpace(ref), " UTC")
	for _, layout := range referenceLayouts {
		if t, err := time.Parse(layout, ref); err == nil {
			return TimeAxis{Unit: d, Reference: t.UTC()}, nil
		}
	}
	return TimeAxis{}, fmt.Errorf("time units %q: unparseable reference %q", s, ref)
}

// At returns the timestamp for an offset, rounded to the nearest second.
func (a TimeAxis) At(offset float64) time.Time {
	d := time.Duration(math.Round(offset * float64(a.Unit) / float64(time.Second)))
	return a.Reference.Add(d * time.Second)
}

// Packing holds the CF packing attributes of a variable.
type Packing struct {
	Scale   float64
	Offset  float64
	Fill    float64
	HasFill bool
}

// Unpack applies fill, scale, and offset in place. Fill values become NaN.
func (p Packing) Unpack(raw []float64) []float64 {
	scale := p.Scale
	if scale == 0 {
		scale = 1
	}
	for i, v := range raw {
		if math.IsNaN(v) || (p.HasFill && v == p.Fill) {
			raw[i] = math.NaN()
			continue
		}
		raw[i] = v*scale + p.Offset
	}
	return raw
}
