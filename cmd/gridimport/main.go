//go:build netcdf

// Command gridimport copies the wave fields of a downloaded NetCDF product file
// into a SQLite grid store for offline enrichment runs.
//
// Usage:
//
//	go run -tags netcdf ./cmd/gridimport -in cmems_wav.nc -db Data_Files/waves.db
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/couchcryptid/piracy-data-etl-service/internal/adapter/netcdf"
	"github.com/couchcryptid/piracy-data-etl-service/internal/adapter/sqlite"
	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "NetCDF product file")
	db := flag.String("db", "", "SQLite grid store to create or extend")
	id := flag.String("dataset", "cmems_mod_glo_wav_anfc_0.083deg_PT3H-i", "product identifier recorded in the store")
	flag.Parse()

	if *in == "" || *db == "" {
		flag.Usage()
		os.Exit(1)
	}

	start := time.Now()
	ds, err := netcdf.LoadFile(*in, domain.WaveFields, domain.TimeRange{})
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := sqlite.Create(ctx, *db, ds.Validity())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Import(ctx, *id, ds); err != nil {
		return fmt.Errorf("import %s: %w", *in, err)
	}
	n, err := store.Count(ctx)
	if err != nil {
		return err
	}

	nt, nlat, nlon := ds.Shape()
	fmt.Printf("Imported %d x %d x %d grid from %s in %s\n", nt, nlat, nlon, *in, time.Since(start).Round(time.Millisecond))
	fmt.Printf("Store %s holds %d cells, valid %s to %s\n", *db, n,
		ds.Validity().Start.Format(time.RFC3339), ds.Validity().End.Format(time.RFC3339))
	return nil
}
