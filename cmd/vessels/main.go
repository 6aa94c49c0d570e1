// Command vessels groups the raw IMO piracy export by ship name and reports
// how many vessels it contains.
//
// Usage:
//
//	go run ./cmd/vessels -in "Data_Files/IMO Piracy - 2000 to 2022 (PDV 01-2023).csv" -list
package main

import (
	"cmp"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"slices"

	"github.com/couchcryptid/piracy-data-etl-service/internal/adapter/csvfile"
	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
)

func main() {
	if err := run(os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(out io.Writer) error {
	in := flag.String("in", "Data_Files/IMO Piracy - 2000 to 2022 (PDV 01-2023).csv", "raw IMO piracy export")
	list := flag.Bool("list", false, "print every vessel, most incidents first")
	flag.Parse()

	f, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("open %s: %w", *in, err)
	}
	defer f.Close()

	_, rows, err := csvfile.ReadRecords(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", *in, err)
	}
	registry, err := domain.BuildVesselRegistry(rows)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Read %d lines.\n", len(rows))
	fmt.Fprintf(out, "Dictionary has %d vessels.\n", len(registry))
	if !*list {
		return nil
	}

	vessels := make([]*domain.Vessel, 0, len(registry))
	for _, v := range registry {
		vessels = append(vessels, v)
	}
	slices.SortFunc(vessels, func(a, b *domain.Vessel) int {
		if n := b.NumIncidents() - a.NumIncidents(); n != 0 {
			return n
		}
		return cmp.Compare(a.Name, b.Name)
	})
	for _, v := range vessels {
		fmt.Fprintln(out, v)
	}
	return nil
}
