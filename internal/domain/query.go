package domain

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

// WindowConfig holds the spatial and temporal buffers applied around an incident.
type WindowConfig struct {
	SpatialBuffer float64       // degrees, applied to latitude and longitude
	TimeBuffer    time.Duration // applied before and after the incident time
}

// DefaultWindowConfig returns δ = 0.05 degrees and τ = 30 minutes.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		SpatialBuffer: 0.05,
		TimeBuffer:    30 * time.Minute,
	}
}

// WindowAround builds the query window centred on p at t.
func (c WindowConfig) WindowAround(p GeoPoint, t time.Time) Window {
	return Window{
		Lat:  Range{Min: p.Lat - c.SpatialBuffer, Max: p.Lat + c.SpatialBuffer},
		Lon:  Range{Min: p.Lon - c.SpatialBuffer, Max: p.Lon + c.SpatialBuffer},
		Time: TimeRange{Start: t.Add(-c.TimeBuffer), End: t.Add(c.TimeBuffer)},
	}
}

// WaveHeight is an optional significant wave height in metres.
type WaveHeight struct {
	Meters float64
	Valid  bool
}

// SomeWaveHeight returns a present wave height.
func SomeWaveHeight(m float64) WaveHeight {
	return WaveHeight{Meters: m, Valid: true}
}

// String formats the height for CSV output; absent heights are empty.
func (w WaveHeight) String() string {
	if !w.Valid {
		return ""
	}
	return strconv.FormatFloat(w.Meters, 'f', -1, 64)
}

func (w WaveHeight) MarshalJSON() ([]byte, error) {
	if !w.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(w.Meters)
}

func (w *WaveHeight) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*w = WaveHeight{}
		return nil
	}
	var m float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*w = SomeWaveHeight(m)
	return nil
}

// AbsenceReason explains why a lookup produced no wave height.
type AbsenceReason string

const (
	ReasonNone           AbsenceReason = ""
	ReasonBeforeValidity AbsenceReason = "before_validity"
	ReasonNoCell         AbsenceReason = "no_cell"
	ReasonMissingValue   AbsenceReason = "missing_value"
)

// Lookup is the outcome of one incident query.
type Lookup struct {
	Height WaveHeight
	Reason AbsenceReason
	Cells  int // cells returned by the dataset; 0 when the dataset was not queried
}

// QueryWaveHeight looks up the significant wave height at p and t.
//
// Incidents before the dataset's validity start return absent without issuing
// a query. There is no matching guard on the end of the interval: later
// incidents are queried and come back empty. Otherwise the VHM0 of the first
// selected cell is returned. Dataset errors are returned unchanged and never
// retried.
func QueryWaveHeight(ctx context.Context, ds Dataset, cfg WindowConfig, p GeoPoint, t time.Time) (Lookup, error) {
	if t.Before(ds.Validity().Start) {
		return Lookup{Reason: ReasonBeforeValidity}, nil
	}

	sel, err := ds.Select(ctx, WaveFields, cfg.WindowAround(p, t))
	if err != nil {
		return Lookup{}, err
	}
	if len(sel) == 0 {
		return Lookup{Reason: ReasonNoCell}, nil
	}

	v, ok := sel[0].Value(FieldWaveHeight)
	if !ok {
		return Lookup{Reason: ReasonMissingValue, Cells: len(sel)}, nil
	}
	return Lookup{Height: SomeWaveHeight(v), Cells: len(sel)}, nil
}
