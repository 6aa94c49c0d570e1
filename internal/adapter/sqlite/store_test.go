package sqlite

import (
	"context"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
	"github.com/couchcryptid/piracy-data-etl-service/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2023, time.May, 14, 0, 0, 0, 0, time.UTC)

func testGrid(t *testing.T) *grid.Dataset {
	t.Helper()
	lats := []float64{10, 10 + 1.0/12}
	lons := []float64{50, 50 + 1.0/12}
	times := []time.Time{t0, t0.Add(3 * time.Hour)}
	vhm0 := []float64{0, 1, 2, 3, 4, 5, math.NaN(), 7}
	vmdr := make([]float64, len(vhm0))
	vcmx := make([]float64, len(vhm0))
	for i := range vhm0 {
		vmdr[i] = 90
		vcmx[i] = float64(i) * 2
	}
	ds, err := grid.New(grid.Spec{
		Times: times, Lats: lats, Lons: lons,
		Fields: map[domain.Field][]float64{
			domain.FieldWaveHeight:    vhm0,
			domain.FieldWaveDirection: vmdr,
			domain.FieldMaxWaveHeight: vcmx,
		},
		Validity: domain.TimeRange{Start: t0.Add(-24 * time.Hour), End: t0.Add(24 * time.Hour)},
	})
	require.NoError(t, err)
	return ds
}

func openStore(t *testing.T) (*GridStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "waves.db")
	s, err := Create(context.Background(), path, domain.TimeRange{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func importedStore(t *testing.T) (*GridStore, string) {
	t.Helper()
	s, path := openStore(t)
	require.NoError(t, s.Import(context.Background(), "test-waves", testGrid(t)))
	return s, path
}

func TestOpen_EmptyStore(t *testing.T) {
	s, _ := openStore(t)
	assert.True(t, s.Validity().IsZero())
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImport_CountAndValidity(t *testing.T) {
	s, path := importedStore(t)
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, t0.Add(-24*time.Hour), s.Validity().Start)

	require.NoError(t, s.Close())
	reopened, err := Open(context.Background(), path, domain.TimeRange{})
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, t0.Add(-24*time.Hour), reopened.Validity().Start)
	assert.Equal(t, t0.Add(24*time.Hour), reopened.Validity().End)
}

func TestOpen_ValidityFromTimeSpan(t *testing.T) {
	s, path := openStore(t)
	require.NoError(t, s.ImportCells(context.Background(), testGrid(t).Cells()))
	require.NoError(t, s.Close())

	reopened, err := Open(context.Background(), path, domain.TimeRange{})
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, t0, reopened.Validity().Start)
	assert.Equal(t, t0.Add(3*time.Hour), reopened.Validity().End)
}

func TestOpen_ExplicitValidity(t *testing.T) {
	_, path := importedStore(t)
	want := domain.TimeRange{Start: t0, End: t0.Add(time.Hour)}
	s, err := Open(context.Background(), path, want)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, want, s.Validity())
}

func TestSelect_MatchesInMemoryGrid(t *testing.T) {
	s, _ := importedStore(t)
	mem := testGrid(t)
	w := domain.Window{
		Lat:  domain.Range{Min: 9, Max: 11},
		Lon:  domain.Range{Min: 49, Max: 51},
		Time: domain.TimeRange{Start: t0.Add(-time.Hour), End: t0.Add(4 * time.Hour)},
	}

	got, err := s.Select(context.Background(), domain.WaveFields, w)
	require.NoError(t, err)
	want, err := mem.Select(context.Background(), domain.WaveFields, w)
	require.NoError(t, err)

	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Time, got[i].Time, "cell %d", i)
		assert.Equal(t, want[i].Lat, got[i].Lat, "cell %d", i)
		assert.Equal(t, want[i].Lon, got[i].Lon, "cell %d", i)
		wv, wok := want[i].Value(domain.FieldWaveHeight)
		gv, gok := got[i].Value(domain.FieldWaveHeight)
		assert.Equal(t, wok, gok, "cell %d", i)
		assert.InDelta(t, wv, gv, 0, "cell %d", i)
	}
}

func TestSelect_NullIsNaN(t *testing.T) {
	s, _ := importedStore(t)
	w := domain.Window{
		Lat:  domain.Range{Min: 10 + 1.0/12, Max: 10 + 1.0/12},
		Lon:  domain.Range{Min: 50, Max: 50},
		Time: domain.TimeRange{Start: t0.Add(3 * time.Hour), End: t0.Add(3 * time.Hour)},
	}
	sel, err := s.Select(context.Background(), domain.WaveFields, w)
	require.NoError(t, err)
	require.Len(t, sel, 1)
	assert.True(t, math.IsNaN(sel[0].Values[domain.FieldWaveHeight]))
	assert.InDelta(t, 12, sel[0].Values[domain.FieldMaxWaveHeight], 0)
}

func TestSelect_InclusiveBoundary(t *testing.T) {
	s, _ := openStore(t)
	cfg := domain.DefaultWindowConfig()
	incident := time.Date(2023, time.May, 14, 3, 0, 0, 0, time.UTC)
	w := cfg.WindowAround(domain.NewGeoPoint(12.5, 47.0), incident)

	cell := func(tm time.Time, lat, lon, vhm0 float64) domain.Cell {
		return domain.Cell{Time: tm, Lat: lat, Lon: lon, Values: map[domain.Field]float64{domain.FieldWaveHeight: vhm0}}
	}
	// Corner cells sit exactly on the window edges; the rest are one ulp or
	// one second outside.
	require.NoError(t, s.ImportCells(context.Background(), domain.Selection{
		cell(w.Time.Start, w.Lat.Min, w.Lon.Min, 1),
		cell(w.Time.End, w.Lat.Max, w.Lon.Max, 2),
		cell(w.Time.Start.Add(-time.Second), w.Lat.Min, w.Lon.Min, 3),
		cell(w.Time.End.Add(time.Second), w.Lat.Max, w.Lon.Max, 4),
		cell(incident, math.Nextafter(w.Lat.Min, math.Inf(-1)), 47.0, 5),
		cell(incident, 12.5, math.Nextafter(w.Lon.Max, math.Inf(1)), 6),
	}))

	sel, err := s.Select(context.Background(), domain.WaveFields, w)
	require.NoError(t, err)
	require.Len(t, sel, 2)
	assert.InDelta(t, 1, sel[0].Values[domain.FieldWaveHeight], 0)
	assert.InDelta(t, 2, sel[1].Values[domain.FieldWaveHeight], 0)
}

func TestSelect_SubSecondBounds(t *testing.T) {
	s, _ := importedStore(t)
	w := domain.Window{
		Lat:  domain.Range{Min: 10, Max: 10},
		Lon:  domain.Range{Min: 50, Max: 50},
		Time: domain.TimeRange{Start: t0.Add(time.Millisecond), End: t0.Add(3*time.Hour - time.Millisecond)},
	}
	sel, err := s.Select(context.Background(), domain.WaveFields, w)
	require.NoError(t, err)
	assert.Empty(t, sel, "cells just outside a sub-second window edge are excluded")
}

func TestSelect_UnknownField(t *testing.T) {
	s, _ := importedStore(t)
	_, err := s.Select(context.Background(), []domain.Field{"VTPK"}, domain.Window{})
	require.ErrorIs(t, err, grid.ErrUnknownField)
}

func TestSelect_AfterClose(t *testing.T) {
	s, _ := importedStore(t)
	require.NoError(t, s.Close())
	_, err := s.Select(context.Background(), domain.WaveFields, domain.Window{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestImportCells_Upsert(t *testing.T) {
	s, _ := importedStore(t)
	updated := domain.Selection{{Time: t0, Lat: 10, Lon: 50, Values: map[domain.Field]float64{
		domain.FieldWaveHeight: 9.5,
	}}}
	require.NoError(t, s.ImportCells(context.Background(), updated))

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	lookup, err := domain.QueryWaveHeight(context.Background(), s, domain.DefaultWindowConfig(), domain.NewGeoPoint(10, 50), t0)
	require.NoError(t, err)
	assert.Equal(t, domain.SomeWaveHeight(9.5), lookup.Height)
}

func TestOpen_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo-waves.db")
	_, err := Open(context.Background(), path, domain.TimeRange{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, fs.ErrNotExist, "Open must not create the store")
}

func TestCreate_BadPath(t *testing.T) {
	_, err := Create(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "waves.db"), domain.TimeRange{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "waves.db"), domain.TimeRange{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}
