package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
	"github.com/couchcryptid/piracy-data-etl-service/internal/observability"
)

// Enricher attaches wave heights to incidents by querying a shared dataset
// from a bounded pool of workers.
type Enricher struct {
	dataset domain.Dataset
	window  domain.WindowConfig
	workers int
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewEnricher creates an Enricher running at most workers queries at once.
func NewEnricher(ds domain.Dataset, window domain.WindowConfig, workers int, metrics *observability.Metrics, logger *slog.Logger) *Enricher {
	return &Enricher{
		dataset: ds,
		window:  window,
		workers: max(1, workers),
		metrics: metrics,
		logger:  logger,
	}
}

// Enrich returns a copy of records, in input order, with WaveHeight set where
// the dataset has a value. The input slice is not modified.
//
// The first dataset error cancels the remaining queries and is returned
// together with the records enriched so far; records never queried keep an
// absent wave height. If ctx itself is cancelled, ctx.Err() is returned as is
// rather than as domain.ErrDataUnavailable.
func (e *Enricher) Enrich(ctx context.Context, records []domain.IncidentRecord) ([]domain.IncidentRecord, error) {
	out := make([]domain.IncidentRecord, len(records))
	copy(out, records)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range out {
		g.Go(func() error {
			// Caller cancellation is not a dataset failure.
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := gctx.Err(); err != nil {
				return domain.Unavailable("query wave height", err)
			}
			rec := &out[i]
			lookup, err := domain.QueryWaveHeight(gctx, e.dataset, e.window, rec.Point, rec.Time)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				e.logger.Error("wave height query failed", "row", rec.Row, "error", err)
				return err
			}
			rec.WaveHeight = lookup.Height
			e.record(*rec, lookup)
			return nil
		})
	}
	return out, g.Wait()
}

func (e *Enricher) record(rec domain.IncidentRecord, lookup domain.Lookup) {
	if lookup.Height.Valid {
		e.metrics.IncidentsEnriched.Inc()
		return
	}
	e.metrics.IncidentsAbsent.WithLabelValues(string(lookup.Reason)).Inc()
	e.logger.Debug("no wave height",
		"row", rec.Row,
		"point", rec.Point.String(),
		"time", rec.Time,
		"reason", lookup.Reason,
		"cells", lookup.Cells,
	)
}

// FilterEnriched returns the records that carry a wave height, preserving order.
func FilterEnriched(records []domain.IncidentRecord) []domain.IncidentRecord {
	out := make([]domain.IncidentRecord, 0, len(records))
	for _, r := range records {
		if r.WaveHeight.Valid {
			out = append(out, r)
		}
	}
	return out
}
