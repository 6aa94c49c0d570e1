// Command genmock writes a synthetic wave grid to a SQLite store and a matching
// incident CSV, so the enrich job can run offline against known data. The grid
// covers the Gulf of Aden at 0.25 degrees every 3 hours; incidents are drawn
// inside it, outside it, and before its validity start.
//
// Usage:
//
//	go run ./cmd/genmock -db data/mock/waves.db -csv data/mock/incidents.csv -incidents 200
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/piracy-data-etl-service/internal/adapter/sqlite"
	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
	"github.com/couchcryptid/piracy-data-etl-service/internal/grid"
)

var (
	gridStart = time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)
	gridSteps = 8 * 7 // one week at 3h
	gridStep  = 3 * time.Hour
)

const (
	latMin, latMax = 10.0, 15.0
	lonMin, lonMax = 43.0, 53.0
	resolution     = 0.25
)

var narratives = []string{
	"Four robbers armed with knives boarded the tanker and stole ship stores.",
	"Pirates hijacked the vessel and took the crew hostage.",
	"Coast guard officers boarded the vessel for inspection.",
	"Duty crew spotted 2 pirates approaching in a skiff. Alarm raised and the skiff moved away.",
	"Robbers assaulted the duty watchman and escaped with stolen mooring ropes.",
	"Unknown persons escaped after the alarm was raised.",
}

var shipTypes = []string{"Tanker", "Bulk carrier", "Container ship", "Fishing vessel", "Tug"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dbPath := flag.String("db", "", "output SQLite grid store")
	csvPath := flag.String("csv", "", "output incident CSV")
	n := flag.Int("incidents", 200, "number of incidents to generate")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *dbPath == "" || *csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	ds, err := buildGrid()
	if err != nil {
		return fmt.Errorf("build grid: %w", err)
	}

	ctx := context.Background()
	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		return err
	}
	store, err := sqlite.Create(ctx, *dbPath, ds.Validity())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Import(ctx, "genmock", ds); err != nil {
		return fmt.Errorf("import grid: %w", err)
	}
	count, err := store.Count(ctx)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	inside, err := writeIncidents(*csvPath, *n, rng)
	if err != nil {
		return fmt.Errorf("write incidents: %w", err)
	}

	t, y, x := ds.Shape()
	fmt.Printf("Grid: %d times x %d lats x %d lons = %d cells stored in %s\n", t, y, x, count, *dbPath)
	fmt.Printf("Validity: %s to %s\n", ds.Validity().Start.Format(time.RFC3339), ds.Validity().End.Format(time.RFC3339))
	fmt.Printf("Incidents: %d written to %s (%d inside the grid)\n", *n, *csvPath, inside)
	return nil
}

// buildGrid produces a smooth swell field with a NaN land mask over the
// north-west corner.
func buildGrid() (*grid.Dataset, error) {
	times := make([]time.Time, gridSteps)
	for i := range times {
		times[i] = gridStart.Add(time.Duration(i) * gridStep)
	}
	lats := axis(latMin, latMax)
	lons := axis(lonMin, lonMax)

	size := len(times) * len(lats) * len(lons)
	hs := make([]float64, 0, size)
	dir := make([]float64, 0, size)
	hmax := make([]float64, 0, size)
	for ti := range times {
		phase := float64(ti) * gridStep.Hours() / 24 * 2 * math.Pi
		for _, lat := range lats {
			for _, lon := range lons {
				if lat > 14 && lon < 45 {
					hs = append(hs, math.NaN())
					dir = append(dir, math.NaN())
					hmax = append(hmax, math.NaN())
					continue
				}
				h := 1.2 + 0.6*math.Sin(phase+lon/3) + 0.3*math.Cos(lat)
				hs = append(hs, round2(h))
				dir = append(dir, math.Mod(200+10*lat+lon, 360))
				hmax = append(hmax, round2(1.8*h))
			}
		}
	}

	return grid.New(grid.Spec{
		Times: times,
		Lats:  lats,
		Lons:  lons,
		Fields: map[domain.Field][]float64{
			domain.FieldWaveHeight:    hs,
			domain.FieldWaveDirection: dir,
			domain.FieldMaxWaveHeight: hmax,
		},
	})
}

func axis(lo, hi float64) []float64 {
	var out []float64
	for i := 0; ; i++ {
		v := lo + float64(i)*resolution
		if v > hi {
			return out
		}
		out = append(out, v)
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// writeIncidents writes n incidents: most inside the grid, some at sea outside
// it, and some dated before the grid starts. It returns how many fall inside.
func writeIncidents(path string, n int, rng *rand.Rand) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		domain.ColumnIncidentDate, domain.ColumnShipName, "Ship Flag", "Ship Type",
		domain.ColumnLatitude, domain.ColumnLongitude, "Description",
	}); err != nil {
		return 0, err
	}

	inside := 0
	span := time.Duration(gridSteps-1) * gridStep
	for i := range n {
		lat := latMin + rng.Float64()*(latMax-latMin)
		lon := lonMin + rng.Float64()*(lonMax-lonMin)
		at := gridStart.Add(time.Duration(rng.Int64N(int64(span/time.Hour))) * time.Hour)

		switch roll := rng.IntN(10); {
		case roll == 0:
			lat, lon = -5+rng.Float64()*3, 60+rng.Float64()*5
		case roll == 1:
			at = at.AddDate(-3, 0, 0)
		default:
			inside++
		}

		row := []string{
			at.Format("01/02/2006 15:04"),
			fmt.Sprintf("MOCK VESSEL %03d", i%40),
			"Panama",
			shipTypes[rng.IntN(len(shipTypes))],
			strconv.FormatFloat(lat, 'f', 4, 64),
			strconv.FormatFloat(lon, 'f', 4, 64),
			narratives[rng.IntN(len(narratives))],
		}
		if err := w.Write(row); err != nil {
			return 0, err
		}
	}
	w.Flush()
	return inside, w.Error()
}
