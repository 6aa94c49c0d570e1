package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/piracy-data-etl-service/internal/config"
	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
	"github.com/couchcryptid/piracy-data-etl-service/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes enriched incidents to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer    messageWriter
	batchSize int
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, batchSize: cfg.BatchSize, metrics: metrics, logger: logger}
}

// Name identifies the sink in logs.
func (w *Writer) Name() string { return "kafka" }

// LoadBatch publishes incidents in chunks of at most batchSize messages, one
// WriteMessages call per chunk. Chunks already written stay published if a
// later chunk fails.
func (w *Writer) LoadBatch(ctx context.Context, incidents []domain.IncidentRecord) error {
	size := w.batchSize
	if size <= 0 {
		size = len(incidents)
	}
	for start := 0; start < len(incidents); start += size {
		end := min(start+size, len(incidents))
		msgs := make([]kafkago.Message, 0, end-start)
		for i := start; i < end; i++ {
			msg, err := serializeToMessage(incidents[i])
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("publish incidents %d-%d: %w", start, end-1, err)
		}
		w.metrics.IncidentsPublished.Add(float64(len(msgs)))
		w.logger.Debug("incident batch published", "from_row", incidents[start].Row, "count", len(msgs))
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// incidentMessage is the wire form of an enriched incident. Raw CSV fields are
// carried as a column -> value map.
type incidentMessage struct {
	domain.IncidentRecord
	Fields map[string]string `json:"fields"`
}

// serializeToMessage marshals an incident into a Kafka message keyed by its row.
func serializeToMessage(rec domain.IncidentRecord) (kafkago.Message, error) {
	data, err := json.Marshal(incidentMessage{IncidentRecord: rec, Fields: rec.Fields.Map()})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize incident row %d: %w", rec.Row, err)
	}
	headers := []kafkago.Header{
		{Key: "wave_height_present", Value: []byte(strconv.FormatBool(rec.WaveHeight.Valid))},
	}
	if !rec.EnrichedAt.IsZero() {
		headers = append(headers, kafkago.Header{Key: "enriched_at", Value: []byte(rec.EnrichedAt.Format(time.RFC3339))})
	}
	return kafkago.Message{
		Key:     []byte(strconv.Itoa(rec.Row)),
		Value:   data,
		Headers: headers,
	}, nil
}
