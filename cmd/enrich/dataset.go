package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/couchcryptid/piracy-data-etl-service/internal/adapter/copernicus"
	"github.com/couchcryptid/piracy-data-etl-service/internal/adapter/sqlite"
	"github.com/couchcryptid/piracy-data-etl-service/internal/config"
	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
	"github.com/couchcryptid/piracy-data-etl-service/internal/observability"
)

// openDataset opens the configured wave dataset backend. The returned closer
// releases it.
func openDataset(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (domain.Dataset, io.Closer, error) {
	validity := domain.TimeRange{Start: cfg.DatasetStart, End: cfg.DatasetEnd}

	switch cfg.DatasetBackend {
	case config.BackendCopernicus:
		creds, err := config.LoadCredentials(cfg.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		if creds.Empty() {
			logger.Warn("no dataset credentials configured", "credentials_file", cfg.CredentialsFile)
		}
		client := copernicus.NewClient(cfg.DatasetURL, creds, cfg.DatasetTimeout, metrics, logger)
		remote, err := client.Open(ctx, cfg.DatasetID, validity)
		if err != nil {
			return nil, nil, err
		}
		if cfg.DatasetCacheSize > 0 {
			logger.Info("selection cache enabled", "max_entries", cfg.DatasetCacheSize)
			return copernicus.NewCachedDataset(remote, cfg.DatasetCacheSize, metrics), remote, nil
		}
		return remote, remote, nil

	case config.BackendSQLite:
		store, err := sqlite.Open(ctx, cfg.DatasetPath, validity)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil

	case config.BackendNetCDF:
		ds, err := loadNetCDF(cfg.DatasetPath, validity)
		if err != nil {
			return nil, nil, err
		}
		return ds, nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf("unknown dataset backend %q", cfg.DatasetBackend)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
