package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
	"github.com/couchcryptid/piracy-data-etl-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock writer ---

type recordingWriter struct {
	calls  [][]kafkago.Message
	failAt int // 1-based call number that fails; 0 never fails
	closed bool
}

func (m *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	m.calls = append(m.calls, msgs)
	if m.failAt == len(m.calls) {
		return errors.New("broker unavailable")
	}
	return nil
}

func (m *recordingWriter) Close() error {
	m.closed = true
	return nil
}

func testWriter(mw messageWriter, batchSize int) (*Writer, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	return &Writer{
		writer:    mw,
		batchSize: batchSize,
		metrics:   metrics,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, metrics
}

var enrichedAt = time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)

func testIncident(row int) domain.IncidentRecord {
	return domain.IncidentRecord{
		Row:   row,
		Point: domain.NewGeoPoint(12.5, 47.25),
		Time:  time.Date(2023, time.May, 14, 3, 0, 0, 0, time.UTC),
		Fields: domain.RawFields{
			Columns: []string{"Incident Date", "Ship Name"},
			Values:  []string{"2023-05-14", "OCEAN STAR"},
		},
		WaveHeight: domain.SomeWaveHeight(1.25),
		EnrichedAt: enrichedAt,
	}
}

func TestSerializeToMessage(t *testing.T) {
	msg, err := serializeToMessage(testIncident(7))
	require.NoError(t, err)

	assert.Equal(t, []byte("7"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "wave_height_present", msg.Headers[0].Key)
	assert.Equal(t, []byte("true"), msg.Headers[0].Value)
	assert.Equal(t, "enriched_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(enrichedAt.Format(time.RFC3339)), msg.Headers[1].Value)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.InDelta(t, 1.25, body["wave_height"], 0)
	assert.InDelta(t, 7, body["row"], 0)
	assert.Equal(t, "2023-05-14T03:00:00Z", body["incident_date"])
	assert.Equal(t, map[string]any{"Incident Date": "2023-05-14", "Ship Name": "OCEAN STAR"}, body["fields"])
	assert.Equal(t, map[string]any{"lat": 12.5, "lon": 47.25}, body["point"])
	assert.NotContains(t, body, "features")
}

func TestSerializeToMessage_AbsentHeight(t *testing.T) {
	rec := testIncident(1)
	rec.WaveHeight = domain.WaveHeight{}
	rec.EnrichedAt = time.Time{}

	msg, err := serializeToMessage(rec)
	require.NoError(t, err)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, []byte("false"), msg.Headers[0].Value)
	assert.Contains(t, string(msg.Value), `"wave_height":null`)
	assert.NotContains(t, string(msg.Value), "enriched_at")
}

func TestWriter_LoadBatch_Chunks(t *testing.T) {
	mw := &recordingWriter{}
	w, metrics := testWriter(mw, 2)

	incidents := []domain.IncidentRecord{testIncident(0), testIncident(1), testIncident(2), testIncident(3), testIncident(4)}
	require.NoError(t, w.LoadBatch(context.Background(), incidents))

	require.Len(t, mw.calls, 3)
	assert.Len(t, mw.calls[0], 2)
	assert.Len(t, mw.calls[1], 2)
	assert.Len(t, mw.calls[2], 1)
	assert.Equal(t, []byte("4"), mw.calls[2][0].Key)
	assert.InDelta(t, 5, testutil.ToFloat64(metrics.IncidentsPublished), 0)
}

func TestWriter_LoadBatch_Empty(t *testing.T) {
	mw := &recordingWriter{}
	w, _ := testWriter(mw, 50)
	require.NoError(t, w.LoadBatch(context.Background(), nil))
	assert.Empty(t, mw.calls)
}

func TestWriter_LoadBatch_FailureKeepsEarlierChunks(t *testing.T) {
	mw := &recordingWriter{failAt: 2}
	w, metrics := testWriter(mw, 1)

	err := w.LoadBatch(context.Background(), []domain.IncidentRecord{testIncident(0), testIncident(1), testIncident(2)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish incidents 1-1")
	assert.Len(t, mw.calls, 2)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.IncidentsPublished), 0)
}

func TestWriter_Close(t *testing.T) {
	mw := &recordingWriter{}
	w, _ := testWriter(mw, 1)
	require.NoError(t, w.Close())
	assert.True(t, mw.closed)
	assert.Equal(t, "kafka", w.Name())
}
