package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
	"github.com/couchcryptid/piracy-data-etl-service/internal/observability"
)

// Extractor reads the full incident set from the source.
type Extractor interface {
	Extract(ctx context.Context) ([]domain.IncidentRecord, error)
}

// BatchLoader writes multiple records to a destination.
type BatchLoader interface {
	Name() string
	LoadBatch(ctx context.Context, records []domain.IncidentRecord) error
}

// Target is a loader plus the record set it receives. Filtered targets get
// only records with a wave height; the rest get every record.
type Target struct {
	Loader   BatchLoader
	Filtered bool
}

// Summary reports the outcome of one run.
type Summary struct {
	Read     int
	Enriched int
	Absent   int
	Loaded   map[string]int
	Duration time.Duration
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
	loadAttempts   = 3
)

// Pipeline orchestrates one extract-enrich-transform-load run.
type Pipeline struct {
	extractor   Extractor
	enricher    *Enricher
	transformer Transformer
	targets     []Target
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, en *Enricher, t Transformer, targets []Target, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor:   e,
		enricher:    en,
		transformer: t,
		targets:     targets,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once a run has completed, or an error describing
// why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("enrichment run has not completed yet")
	}
	return nil
}

// Run executes the run once. A dataset failure stops enrichment; the records
// enriched before it are still transformed and loaded, and the dataset error
// is returned.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	p.logger.Info("pipeline started", "targets", len(p.targets))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	sum := Summary{Loaded: make(map[string]int, len(p.targets))}

	records, err := p.extractor.Extract(ctx)
	if err != nil {
		return sum, fmt.Errorf("extract incidents: %w", err)
	}
	sum.Read = len(records)
	p.metrics.IncidentsRead.Add(float64(len(records)))

	enriched, enrichErr := p.enricher.Enrich(ctx, records)
	if enrichErr != nil {
		p.logger.Error("enrichment aborted, loading partial results", "error", enrichErr)
	}

	all := make([]domain.IncidentRecord, 0, len(enriched))
	for _, rec := range enriched {
		out, err := p.transformer.Transform(ctx, rec)
		if err != nil {
			p.logger.Warn("transform failed, skipping record", "row", rec.Row, "error", err)
			continue
		}
		all = append(all, out)
	}
	filtered := FilterEnriched(all)
	sum.Enriched = len(filtered)
	sum.Absent = len(all) - len(filtered)

	var loadErrs []error
	for _, tgt := range p.targets {
		batch := all
		if tgt.Filtered {
			batch = filtered
		}
		if err := p.load(ctx, tgt.Loader, batch); err != nil {
			loadErrs = append(loadErrs, err)
			continue
		}
		sum.Loaded[tgt.Loader.Name()] = len(batch)
	}

	sum.Duration = time.Since(start)
	p.metrics.RunDuration.Observe(sum.Duration.Seconds())

	if err := errors.Join(enrichErr, errors.Join(loadErrs...)); err != nil {
		return sum, err
	}
	p.ready.Store(true)
	p.logger.Info("pipeline finished",
		"read", sum.Read,
		"enriched", sum.Enriched,
		"absent", sum.Absent,
		"duration", sum.Duration,
	)
	return sum, nil
}

// load writes batch to l, retrying with exponential backoff.
func (p *Pipeline) load(ctx context.Context, l BatchLoader, batch []domain.IncidentRecord) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= loadAttempts; attempt++ {
		if err = l.LoadBatch(ctx, batch); err == nil {
			return nil
		}
		p.logger.Error("load batch failed",
			"loader", l.Name(),
			"attempt", attempt,
			"batch_size", len(batch),
			"error", err,
		)
		if attempt == loadAttempts || !sleepWithContext(ctx, backoff) {
			break
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
	return fmt.Errorf("load %s: %w", l.Name(), err)
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
