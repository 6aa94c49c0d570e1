//go:build netcdf

package main

import (
	"github.com/couchcryptid/piracy-data-etl-service/internal/adapter/netcdf"
	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
)

func loadNetCDF(path string, validity domain.TimeRange) (domain.Dataset, error) {
	return netcdf.LoadFile(path, domain.WaveFields, validity)
}
