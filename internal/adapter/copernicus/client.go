// Package copernicus reads the gridded wave product through a self-hosted
// subsetting gateway placed in front of the Copernicus Marine store (for
// example a thin service wrapping the copernicusmarine toolbox). It is not a
// client for a public Copernicus endpoint; the base URL must be configured.
//
// The gateway contract, relative to the base URL:
//
//	GET /datasets/{id}
//	    {"dataset_id": "...", "variables": ["VHM0", ...],
//	     "time_coverage": {"start": RFC3339, "end": RFC3339}}
//	GET /datasets/{id}/subset?variables=VHM0,...&minimum_latitude=..
//	    &maximum_latitude=..&minimum_longitude=..&maximum_longitude=..
//	    &start_datetime=RFC3339&end_datetime=RFC3339
//	    {"time": [...], "latitude": [...], "longitude": [...],
//	     "variables": {"VHM0": [flat time-major values, null for fill]}}
//
// Requests carry HTTP basic auth from the toolbox credentials. Unknown
// datasets answer 404 and any non-200 status fails the request. Open resolves
// the metadata once; Select issues one subset request per query window.
package copernicus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/piracy-data-etl-service/internal/config"
	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
	"github.com/couchcryptid/piracy-data-etl-service/internal/observability"
)

// Client opens datasets on a subsetting gateway.
type Client struct {
	baseURL    string
	creds      config.Credentials
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a client for the store at baseURL.
func NewClient(baseURL string, creds config.Credentials, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Open fetches the product's metadata and returns a handle for range queries.
// A zero validity falls back to the time coverage the store reports. Unknown
// identifiers, rejected credentials, and unreachable stores all fail with
// domain.ErrDataUnavailable.
func (c *Client) Open(ctx context.Context, datasetID string, validity domain.TimeRange) (*Dataset, error) {
	u := fmt.Sprintf("%s/datasets/%s", c.baseURL, url.PathEscape(datasetID))

	var meta metadataResponse
	if err := c.getJSON(ctx, u, &meta); err != nil {
		return nil, domain.Unavailable("open "+datasetID, err)
	}

	if validity.IsZero() {
		validity = domain.TimeRange{Start: meta.TimeCoverage.Start, End: meta.TimeCoverage.End}
	}

	c.logger.Info("dataset opened",
		"dataset_id", datasetID,
		"variables", meta.Variables,
		"validity_start", validity.Start,
		"validity_end", validity.End,
	)

	return &Dataset{
		client:    c,
		id:        datasetID,
		validity:  validity,
		variables: meta.Variables,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, fullURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if !c.creds.Empty() {
		req.SetBasicAuth(c.creds.Username, c.creds.Password)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func subsetParams(fields []domain.Field, w domain.Window) url.Values {
	vars := make([]string, len(fields))
	for i, f := range fields {
		vars[i] = string(f)
	}
	return url.Values{
		"minimum_latitude":  {formatCoord(w.Lat.Min)},
		"maximum_latitude":  {formatCoord(w.Lat.Max)},
		"minimum_longitude": {formatCoord(w.Lon.Min)},
		"maximum_longitude": {formatCoord(w.Lon.Max)},
		"start_datetime":    {w.Time.Start.UTC().Format(time.RFC3339)},
		"end_datetime":      {w.Time.End.UTC().Format(time.RFC3339)},
		"variables":         {strings.Join(vars, ",")},
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Gateway response types.

type metadataResponse struct {
	DatasetID    string   `json:"dataset_id"`
	Variables    []string `json:"variables"`
	TimeCoverage struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	} `json:"time_coverage"`
}

// subsetResponse holds the coordinate axes of the returned block and one flat
// [time][latitude][longitude] array per variable. Fill values arrive as null.
type subsetResponse struct {
	Time      []time.Time           `json:"time"`
	Latitude  []float64             `json:"latitude"`
	Longitude []float64             `json:"longitude"`
	Variables map[string][]*float64 `json:"variables"`
}
