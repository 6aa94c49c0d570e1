// Package geojson exports incident locations as a GeoJSON FeatureCollection
// for display on a base map.
package geojson

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
)

// FeatureCollection is a standard GeoJSON feature collection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single point feature with incident properties.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry is a GeoJSON point.
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [lon, lat]
}

// NewFeatureCollection builds one point feature per record. Properties carry
// the row, the incident date, the ship name when known, and the wave height
// when present.
func NewFeatureCollection(records []domain.IncidentRecord) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(records))}
	for _, r := range records {
		props := map[string]any{
			"row":           r.Row,
			"incident_date": r.Time.Format(time.RFC3339),
		}
		if name, ok := r.Fields.Get(domain.ColumnShipName); ok && name != "" {
			props["ship_name"] = name
		}
		if r.WaveHeight.Valid {
			props["wave_height"] = r.WaveHeight.Meters
		}
		if r.Features != nil {
			props["boarded"] = r.Features.Boarded
			props["hijacked"] = r.Features.Hijacked
			props["hostages_taken"] = r.Features.HostagesTaken
			props["crew_assaulted"] = r.Features.CrewAssaulted
		}
		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			Geometry:   Geometry{Type: "Point", Coordinates: []float64{r.Point.Lon, r.Point.Lat}},
			Properties: props,
		})
	}
	return fc
}

// Write encodes records as an indented FeatureCollection.
func Write(w io.Writer, records []domain.IncidentRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewFeatureCollection(records)); err != nil {
		return fmt.Errorf("encode feature collection: %w", err)
	}
	return nil
}

// Sink writes the incident map to a file.
type Sink struct {
	path   string
	logger *slog.Logger
}

// NewSink creates a Sink writing to path.
func NewSink(path string, logger *slog.Logger) *Sink {
	return &Sink{path: path, logger: logger}
}

// Name identifies the sink in logs.
func (s *Sink) Name() string { return "geojson" }

// LoadBatch writes all records to the map file, replacing any previous one.
func (s *Sink) LoadBatch(_ context.Context, records []domain.IncidentRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create map dir: %w", err)
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create map file: %w", err)
	}
	if err := Write(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close map file: %w", err)
	}
	s.logger.Info("incident map written", "path", s.path, "features", len(records))
	return nil
}
