package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
	"github.com/couchcryptid/piracy-data-etl-service/internal/narrative"
	"github.com/couchcryptid/piracy-data-etl-service/internal/observability"
)

// Transformer finalises an enriched record before it is loaded.
type Transformer interface {
	Transform(ctx context.Context, rec domain.IncidentRecord) (domain.IncidentRecord, error)
}

// IncidentTransformer stamps EnrichedAt and, when a classifier is set, derives
// attack features from the narrative column.
type IncidentTransformer struct {
	classifier *narrative.Classifier
	column     string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewTransformer creates an IncidentTransformer. Pass a nil classifier to
// disable narrative features.
func NewTransformer(classifier *narrative.Classifier, column string, metrics *observability.Metrics, logger *slog.Logger) *IncidentTransformer {
	return &IncidentTransformer{
		classifier: classifier,
		column:     column,
		metrics:    metrics,
		logger:     logger,
	}
}

func (t *IncidentTransformer) Transform(_ context.Context, rec domain.IncidentRecord) (domain.IncidentRecord, error) {
	rec.EnrichedAt = domain.Now()
	if t.classifier == nil {
		return rec, nil
	}

	text, ok := rec.Fields.Get(t.column)
	if !ok {
		t.logger.Debug("narrative column missing", "row", rec.Row, "column", t.column)
	}
	features := t.classifier.Classify(text)
	rec.Features = &features
	for _, label := range narrative.Labels(features) {
		t.metrics.NarrativeLabels.WithLabelValues(label).Inc()
	}
	return rec, nil
}
