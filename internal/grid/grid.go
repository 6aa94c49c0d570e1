// Package grid holds a gridded environmental product in memory: ascending
// time, latitude, and longitude axes with dense field arrays laid out
// [time][lat][lon]. A Dataset is immutable after New and safe for concurrent
// Select calls.
package grid

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
)

// ErrUnknownField is returned when a selection names a field the dataset does not hold.
var ErrUnknownField = errors.New("unknown field")

// Spec describes the contents of a Dataset.
type Spec struct {
	Times  []time.Time
	Lats   []float64
	Lons   []float64
	Fields map[domain.Field][]float64 // each of length len(Times)*len(Lats)*len(Lons)

	// Validity defaults to [first time, last time] when zero.
	Validity domain.TimeRange
}

// Dataset is an in-memory gridded product implementing domain.Dataset.
type Dataset struct {
	times    []time.Time
	lats     []float64
	lons     []float64
	fields   map[domain.Field][]float64
	validity domain.TimeRange
}

// New validates spec and copies it into a read-only Dataset.
func New(spec Spec) (*Dataset, error) {
	if err := checkAscendingTimes(spec.Times); err != nil {
		return nil, fmt.Errorf("time axis: %w", err)
	}
	if err := checkAscending(spec.Lats); err != nil {
		return nil, fmt.Errorf("latitude axis: %w", err)
	}
	if err := checkAscending(spec.Lons); err != nil {
		return nil, fmt.Errorf("longitude axis: %w", err)
	}

	size := len(spec.Times) * len(spec.Lats) * len(spec.Lons)
	fields := make(map[domain.Field][]float64, len(spec.Fields))
	for f, values := range spec.Fields {
		if len(values) != size {
			return nil, fmt.Errorf("field %s: expected %d values, got %d", f, size, len(values))
		}
		fields[f] = append([]float64(nil), values...)
	}

	validity := spec.Validity
	if validity.IsZero() && len(spec.Times) > 0 {
		validity = domain.TimeRange{Start: spec.Times[0], End: spec.Times[len(spec.Times)-1]}
	}

	return &Dataset{
		times:    append([]time.Time(nil), spec.Times...),
		lats:     append([]float64(nil), spec.Lats...),
		lons:     append([]float64(nil), spec.Lons...),
		fields:   fields,
		validity: validity,
	}, nil
}

// Validity returns the interval for which the dataset has data.
func (d *Dataset) Validity() domain.TimeRange {
	return d.validity
}

// Shape returns the axis lengths (time, lat, lon).
func (d *Dataset) Shape() (nt, nlat, nlon int) {
	return len(d.times), len(d.lats), len(d.lons)
}

// Fields lists the fields held by the dataset in sorted order.
func (d *Dataset) Fields() []domain.Field {
	out := make([]domain.Field, 0, len(d.fields))
	for f := range d.fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Select returns the cells inside w in storage order (time, then latitude,
// then longitude, all ascending). Bounds are inclusive on every axis.
func (d *Dataset) Select(ctx context.Context, fields []domain.Field, w domain.Window) (domain.Selection, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Unavailable("select", err)
	}

	arrays := make([][]float64, len(fields))
	for i, f := range fields {
		values, ok := d.fields[f]
		if !ok {
			return nil, fmt.Errorf("select %s: %w", f, ErrUnknownField)
		}
		arrays[i] = values
	}

	t0, t1 := timeSpan(d.times, w.Time)
	y0, y1 := span(d.lats, w.Lat)
	x0, x1 := span(d.lons, w.Lon)
	if t0 >= t1 || y0 >= y1 || x0 >= x1 {
		return nil, nil
	}

	nlat, nlon := len(d.lats), len(d.lons)
	sel := make(domain.Selection, 0, (t1-t0)*(y1-y0)*(x1-x0))
	for ti := t0; ti < t1; ti++ {
		for yi := y0; yi < y1; yi++ {
			for xi := x0; xi < x1; xi++ {
				idx := (ti*nlat+yi)*nlon + xi
				values := make(map[domain.Field]float64, len(fields))
				for i, f := range fields {
					values[f] = arrays[i][idx]
				}
				sel = append(sel, domain.Cell{
					Time:   d.times[ti],
					Lat:    d.lats[yi],
					Lon:    d.lons[xi],
					Values: values,
				})
			}
		}
	}
	return sel, nil
}

// Cells returns every grid cell in storage order with all fields.
func (d *Dataset) Cells() domain.Selection {
	all := domain.Window{
		Lat:  domain.Range{Min: negInf, Max: posInf},
		Lon:  domain.Range{Min: negInf, Max: posInf},
		Time: domain.TimeRange{Start: minTime, End: maxTime},
	}
	sel, _ := d.Select(context.Background(), d.Fields(), all)
	return sel
}

// span returns the half-open index range [lo, hi) of axis values inside r.
func span(axis []float64, r domain.Range) (int, int) {
	lo := sort.Search(len(axis), func(i int) bool { return axis[i] >= r.Min })
	hi := sort.Search(len(axis), func(i int) bool { return axis[i] > r.Max })
	return lo, hi
}

func timeSpan(axis []time.Time, r domain.TimeRange) (int, int) {
	lo := sort.Search(len(axis), func(i int) bool { return !axis[i].Before(r.Start) })
	hi := sort.Search(len(axis), func(i int) bool { return axis[i].After(r.End) })
	return lo, hi
}

func checkAscending(axis []float64) error {
	for i := 1; i < len(axis); i++ {
		if !(axis[i] > axis[i-1]) {
			return fmt.Errorf("not strictly ascending at index %d", i)
		}
	}
	return nil
}

func checkAscendingTimes(axis []time.Time) error {
	for i := 1; i < len(axis); i++ {
		if !axis[i].After(axis[i-1]) {
			return fmt.Errorf("not strictly ascending at index %d", i)
		}
	}
	return nil
}
