//go:build !netcdf

package main

import (
	"errors"

	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
)

func loadNetCDF(string, domain.TimeRange) (domain.Dataset, error) {
	return nil, errors.New("netcdf backend not compiled in: rebuild with -tags netcdf")
}
