package copernicus

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
)

var errClosed = errors.New("dataset closed")

// Dataset is an open handle on a remote product. It holds no mutable state
// besides the closed flag and is safe for concurrent Select calls.
type Dataset struct {
	client    *Client
	id        string
	validity  domain.TimeRange
	variables []string
	closed    atomic.Bool
}

// ID returns the product identifier.
func (d *Dataset) ID() string { return d.id }

// Validity returns the configured validity interval.
func (d *Dataset) Validity() domain.TimeRange { return d.validity }

// Close releases the handle. Later queries fail with domain.ErrDataUnavailable.
func (d *Dataset) Close() error {
	d.closed.Store(true)
	return nil
}

// Select requests a subset covering w and returns the cells inside it in the
// store's order (time, latitude, longitude ascending). The store snaps subset
// bounds outward to the grid, so cells outside w are dropped here.
func (d *Dataset) Select(ctx context.Context, fields []domain.Field, w domain.Window) (domain.Selection, error) {
	if d.closed.Load() {
		d.client.metrics.DatasetQueries.WithLabelValues("error").Inc()
		return nil, domain.Unavailable("select "+d.id, errClosed)
	}

	start := time.Now()
	u := fmt.Sprintf("%s/datasets/%s/subset?%s", d.client.baseURL, url.PathEscape(d.id), subsetParams(fields, w).Encode())

	var resp subsetResponse
	err := d.client.getJSON(ctx, u, &resp)
	d.client.metrics.DatasetQueryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		d.client.metrics.DatasetQueries.WithLabelValues("error").Inc()
		return nil, domain.Unavailable("select "+d.id, err)
	}

	sel, err := resp.cells(fields, w)
	if err != nil {
		d.client.metrics.DatasetQueries.WithLabelValues("error").Inc()
		return nil, domain.Unavailable("select "+d.id, err)
	}

	outcome := "success"
	if len(sel) == 0 {
		outcome = "empty"
	}
	d.client.metrics.DatasetQueries.WithLabelValues(outcome).Inc()
	return sel, nil
}

func (r *subsetResponse) cells(fields []domain.Field, w domain.Window) (domain.Selection, error) {
	size := len(r.Time) * len(r.Latitude) * len(r.Longitude)
	arrays := make([][]*float64, len(fields))
	for i, f := range fields {
		values, ok := r.Variables[string(f)]
		if !ok {
			return nil, fmt.Errorf("variable %s missing from subset", f)
		}
		if len(values) != size {
			return nil, fmt.Errorf("variable %s: expected %d values, got %d", f, size, len(values))
		}
		arrays[i] = values
	}

	nlat, nlon := len(r.Latitude), len(r.Longitude)
	var sel domain.Selection
	for ti, t := range r.Time {
		for yi, lat := range r.Latitude {
			for xi, lon := range r.Longitude {
				c := domain.Cell{Time: t, Lat: lat, Lon: lon}
				if !w.Contains(c) {
					continue
				}
				idx := (ti*nlat+yi)*nlon + xi
				c.Values = make(map[domain.Field]float64, len(fields))
				for i, f := range fields {
					if p := arrays[i][idx]; p != nil {
						c.Values[f] = *p
					} else {
						c.Values[f] = math.NaN()
					}
				}
				sel = append(sel, c)
			}
		}
	}
	return sel, nil
}
