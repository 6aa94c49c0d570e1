// Command enrich joins piracy incidents with modelled significant wave height
// and writes the enriched rows to CSV, plus optional GeoJSON map and Kafka
// outputs. All settings come from the environment; see internal/config.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/piracy-data-etl-service/internal/adapter/http"
	"github.com/couchcryptid/piracy-data-etl-service/internal/adapter/csvfile"
	"github.com/couchcryptid/piracy-data-etl-service/internal/adapter/geojson"
	kafkaadapter "github.com/couchcryptid/piracy-data-etl-service/internal/adapter/kafka"
	"github.com/couchcryptid/piracy-data-etl-service/internal/config"
	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
	"github.com/couchcryptid/piracy-data-etl-service/internal/narrative"
	"github.com/couchcryptid/piracy-data-etl-service/internal/observability"
	"github.com/couchcryptid/piracy-data-etl-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, metrics); err != nil {
		logger.Error("enrichment failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	ds, closer, err := openDataset(ctx, cfg, metrics, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	window := domain.WindowConfig{SpatialBuffer: cfg.SpatialBuffer, TimeBuffer: cfg.TimeBuffer}
	logger.Info("dataset opened",
		"backend", cfg.DatasetBackend,
		"dataset", cfg.DatasetID,
		"validity_start", ds.Validity().Start,
		"validity_end", ds.Validity().End,
		"spatial_buffer_deg", window.SpatialBuffer,
		"time_buffer", window.TimeBuffer,
	)

	var classifier *narrative.Classifier
	if cfg.ClassifyNarratives {
		classifier = narrative.NewClassifier(nil, nil)
	}

	source := csvfile.NewSource(cfg.IncidentsPath, logger)
	targets := []pipeline.Target{
		{Loader: csvfile.NewSink(cfg.ResultsPath, source.Columns, cfg.ClassifyNarratives, logger), Filtered: true},
	}
	if cfg.MapPath != "" {
		targets = append(targets, pipeline.Target{Loader: geojson.NewSink(cfg.MapPath, logger)})
	}
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, metrics, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		targets = append(targets, pipeline.Target{Loader: writer, Filtered: true})
	}

	p := pipeline.New(
		source,
		pipeline.NewEnricher(ds, window, cfg.Workers, metrics, logger),
		pipeline.NewTransformer(classifier, cfg.NarrativeColumn, metrics, logger),
		targets,
		logger,
		metrics,
	)

	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	sum, err := p.Run(ctx)
	logger.Info("run summary",
		"read", sum.Read,
		"enriched", sum.Enriched,
		"absent", sum.Absent,
		"loaded", sum.Loaded,
		"duration", sum.Duration,
	)
	return err
}
