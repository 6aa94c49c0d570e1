package geojson

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"Incident Date", "Ship Name", "Latitude", "Longitude"}

func testRecords() []domain.IncidentRecord {
	return []domain.IncidentRecord{
		{
			Row:        0,
			Point:      domain.NewGeoPoint(12.5, 47.25),
			Time:       time.Date(2022, time.January, 5, 0, 0, 0, 0, time.UTC),
			Fields:     domain.RawFields{Columns: columns, Values: []string{"2022-01-05", "OCEAN STAR", "12.5", "47.25"}},
			WaveHeight: domain.SomeWaveHeight(1.25),
			Features:   &domain.AttackFeatures{Boarded: true},
		},
		{
			Row:    3,
			Point:  domain.NewGeoPoint(-3.1, 105.75),
			Time:   time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC),
			Fields: domain.RawFields{Columns: columns, Values: []string{"1/15/2023", "", "-3.1", "105.75"}},
		},
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testRecords()))

	var fc FeatureCollection
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)

	first := fc.Features[0]
	assert.Equal(t, "Point", first.Geometry.Type)
	assert.Equal(t, []float64{47.25, 12.5}, first.Geometry.Coordinates, "GeoJSON is [lon, lat]")
	assert.Equal(t, "OCEAN STAR", first.Properties["ship_name"])
	assert.InDelta(t, 1.25, first.Properties["wave_height"], 0)
	assert.Equal(t, true, first.Properties["boarded"])
	assert.Equal(t, "2022-01-05T00:00:00Z", first.Properties["incident_date"])

	second := fc.Features[1]
	assert.NotContains(t, second.Properties, "ship_name")
	assert.NotContains(t, second.Properties, "wave_height")
	assert.NotContains(t, second.Properties, "boarded")
	assert.InDelta(t, 3, second.Properties["row"], 0)
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, buf.String())
}

func TestSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maps", "incidents.geojson")
	sink := NewSink(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, "geojson", sink.Name())

	require.NoError(t, sink.LoadBatch(context.Background(), testRecords()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var fc FeatureCollection
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Len(t, fc.Features, 2)
}
