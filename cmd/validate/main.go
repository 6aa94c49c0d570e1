// Command validate audits an enriched results CSV against the grid store it
// was produced from. It re-runs the wave-height query for every output row and
// checks that the output is an order-preserving subset of the input.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -incidents data/mock/incidents.csv \
//	  -results Results/piracy_df_waves1.csv \
//	  -db data/mock/waves.db
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"

	"github.com/couchcryptid/piracy-data-etl-service/internal/adapter/csvfile"
	"github.com/couchcryptid/piracy-data-etl-service/internal/adapter/sqlite"
	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	incidents := flag.String("incidents", "", "input incident CSV")
	results := flag.String("results", "", "enriched results CSV")
	db := flag.String("db", "", "SQLite grid store used for the run")
	buffer := flag.Float64("spatial-buffer", 0.05, "spatial buffer in degrees")
	window := flag.Duration("time-buffer", domain.DefaultWindowConfig().TimeBuffer, "time buffer")
	flag.Parse()

	if *incidents == "" || *results == "" || *db == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg := domain.WindowConfig{SpatialBuffer: *buffer, TimeBuffer: *window}
	if code := run(context.Background(), *incidents, *results, *db, cfg); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context, incidentsPath, resultsPath, dbPath string, cfg domain.WindowConfig) int {
	fmt.Println("=== Wave Height Enrichment Validation ===")
	fmt.Println()

	input, err := load(incidentsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load incidents: %v\n", err)
		return 1
	}
	output, err := load(resultsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load results: %v\n", err)
		return 1
	}
	store, err := sqlite.Open(ctx, dbPath, domain.TimeRange{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open grid store: %v\n", err)
		return 1
	}
	defer store.Close()

	phases := []*phase{
		validateSchema(input, output),
		validateSubsequence(input.Records, output.Records),
		validateHeights(ctx, store, cfg, output.Records),
		validateCompleteness(ctx, store, cfg, input.Records, output.Records),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d input, %d enriched\n", len(input.Records), len(output.Records))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-i)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

func load(path string) (csvfile.ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return csvfile.ParseResult{}, err
	}
	defer f.Close()
	return csvfile.ParseIncidents(f)
}

func validateSchema(input, output csvfile.ParseResult) *phase {
	p := &phase{name: "Output columns extend input columns"}
	if len(output.Columns) < len(input.Columns)+1 {
		p.errorf("output has %d columns, input %d", len(output.Columns), len(input.Columns))
		return p
	}
	if !slices.Equal(output.Columns[:len(input.Columns)], input.Columns) {
		p.errorf("output column prefix %v differs from input %v", output.Columns[:len(input.Columns)], input.Columns)
	}
	if output.Columns[len(input.Columns)] != csvfile.ColumnWaveHeight {
		p.errorf("column %d is %q, want %q", len(input.Columns), output.Columns[len(input.Columns)], csvfile.ColumnWaveHeight)
	}
	return p
}

// validateSubsequence checks that every output row appears in the input, in
// the same relative order.
func validateSubsequence(input, output []domain.IncidentRecord) *phase {
	p := &phase{name: "Output preserves input order"}
	j := 0
	for i, out := range output {
		for j < len(input) && !sameIncident(input[j], out) {
			j++
		}
		if j == len(input) {
			p.errorf("output row %d (%s at %s) not found after previous match", i, out.Point, out.Time.Format("2006-01-02 15:04"))
			return p
		}
		j++
	}
	return p
}

func validateHeights(ctx context.Context, ds domain.Dataset, cfg domain.WindowConfig, output []domain.IncidentRecord) *phase {
	p := &phase{name: "Wave heights match the grid store"}
	for i, rec := range output {
		got, err := writtenHeight(rec)
		if err != nil {
			p.errorf("row %d: %v", i, err)
			continue
		}
		lookup, err := domain.QueryWaveHeight(ctx, ds, cfg, rec.Point, rec.Time)
		if err != nil {
			p.errorf("row %d: query: %v", i, err)
			continue
		}
		if !lookup.Height.Valid {
			p.errorf("row %d: written %.3f but store has none (%s)", i, got, lookup.Reason)
			continue
		}
		if !floatEq(got, lookup.Height.Meters) {
			p.errorf("row %d: written %.3f, store %.3f", i, got, lookup.Height.Meters)
		}
	}
	return p
}

// validateCompleteness checks that the number of enriched rows equals the
// number of input incidents the store can answer.
func validateCompleteness(ctx context.Context, ds domain.Dataset, cfg domain.WindowConfig, input, output []domain.IncidentRecord) *phase {
	p := &phase{name: "Every answerable incident was enriched"}
	want := 0
	for _, rec := range input {
		lookup, err := domain.QueryWaveHeight(ctx, ds, cfg, rec.Point, rec.Time)
		if err != nil {
			p.errorf("input row %d: query: %v", rec.Row, err)
			return p
		}
		if lookup.Height.Valid {
			want++
		}
	}
	if want != len(output) {
		p.errorf("store answers %d incidents, results hold %d", want, len(output))
	}
	return p
}

func writtenHeight(rec domain.IncidentRecord) (float64, error) {
	s, ok := rec.Fields.Get(csvfile.ColumnWaveHeight)
	if !ok || s == "" {
		return 0, fmt.Errorf("missing %s", csvfile.ColumnWaveHeight)
	}
	return strconv.ParseFloat(s, 64)
}

func sameIncident(a, b domain.IncidentRecord) bool {
	an, _ := a.Fields.Get(domain.ColumnShipName)
	bn, _ := b.Fields.Get(domain.ColumnShipName)
	return a.Time.Equal(b.Time) && floatEq(a.Point.Lat, b.Point.Lat) && floatEq(a.Point.Lon, b.Point.Lon) && an == bn
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
