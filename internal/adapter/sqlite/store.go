// Package sqlite persists a gridded wave product in a local SQLite database so
// enrichment runs can work offline. Range queries use inclusive BETWEEN bounds
// and return cells in (time, latitude, longitude) order, matching the
// in-memory grid.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
	"github.com/couchcryptid/piracy-data-etl-service/internal/grid"

	_ "modernc.org/sqlite"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS grid_cells (
	time_unix INTEGER NOT NULL,
	lat       REAL    NOT NULL,
	lon       REAL    NOT NULL,
	vhm0      REAL,
	vmdr      REAL,
	vcmx      REAL,
	PRIMARY KEY (time_unix, lat, lon)
) WITHOUT ROWID`, `
CREATE TABLE IF NOT EXISTS dataset_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`}

const (
	metaValidityStart = "validity_start"
	metaValidityEnd   = "validity_end"
	metaDatasetID     = "dataset_id"
)

var columns = map[domain.Field]string{
	domain.FieldWaveHeight:    "vhm0",
	domain.FieldWaveDirection: "vmdr",
	domain.FieldMaxWaveHeight: "vcmx",
}

// GridStore is a SQLite-backed dataset. It is safe for concurrent use.
type GridStore struct {
	db       *sql.DB
	validity domain.TimeRange
}

// Open opens an existing store at path. A missing file is reported as
// domain.ErrDataUnavailable instead of being created empty. A zero validity is
// read from the store's metadata, falling back to the span of stored times.
func Open(ctx context.Context, path string, validity domain.TimeRange) (*GridStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, domain.Unavailable("open "+path, err)
	}
	return open(ctx, path, validity)
}

// Create opens the store at path, creating the file and schema if needed.
// Importers use it; readers use Open.
func Create(ctx context.Context, path string, validity domain.TimeRange) (*GridStore, error) {
	return open(ctx, path, validity)
}

func open(ctx context.Context, path string, validity domain.TimeRange) (*GridStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, domain.Unavailable("open "+path, err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, domain.Unavailable("open "+path, err)
		}
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, domain.Unavailable("open "+path, fmt.Errorf("create schema: %w", err))
		}
	}

	s := &GridStore{db: db, validity: validity}
	if validity.IsZero() {
		if s.validity, err = s.storedValidity(ctx); err != nil {
			db.Close()
			return nil, domain.Unavailable("open "+path, err)
		}
	}
	return s, nil
}

// Close closes the database. Later queries fail with domain.ErrDataUnavailable.
func (s *GridStore) Close() error {
	return s.db.Close()
}

// Validity returns the interval for which the store has data.
func (s *GridStore) Validity() domain.TimeRange {
	return s.validity
}

// Select returns the stored cells inside w. Times are stored at whole-second
// resolution, so the window's start is rounded up and its end rounded down.
func (s *GridStore) Select(ctx context.Context, fields []domain.Field, w domain.Window) (domain.Selection, error) {
	cols := make([]string, len(fields))
	for i, f := range fields {
		col, ok := columns[f]
		if !ok {
			return nil, fmt.Errorf("select %s: %w", f, grid.ErrUnknownField)
		}
		cols[i] = col
	}

	query := fmt.Sprintf(`SELECT time_unix, lat, lon, %s FROM grid_cells
		WHERE time_unix BETWEEN ? AND ?
		  AND lat BETWEEN ? AND ?
		  AND lon BETWEEN ? AND ?
		ORDER BY time_unix, lat, lon`, strings.Join(cols, ", "))

	rows, err := s.db.QueryContext(ctx, query,
		ceilUnix(w.Time.Start), floorUnix(w.Time.End),
		w.Lat.Min, w.Lat.Max,
		w.Lon.Min, w.Lon.Max,
	)
	if err != nil {
		return nil, domain.Unavailable("select", err)
	}
	defer rows.Close()

	var sel domain.Selection
	values := make([]sql.NullFloat64, len(fields))
	dest := make([]any, 3+len(fields))
	var unix int64
	var lat, lon float64
	dest[0], dest[1], dest[2] = &unix, &lat, &lon
	for i := range values {
		dest[3+i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, domain.Unavailable("select", fmt.Errorf("scan cell: %w", err))
		}
		c := domain.Cell{
			Time:   time.Unix(unix, 0).UTC(),
			Lat:    lat,
			Lon:    lon,
			Values: make(map[domain.Field]float64, len(fields)),
		}
		for i, f := range fields {
			if values[i].Valid {
				c.Values[f] = values[i].Float64
			} else {
				c.Values[f] = math.NaN()
			}
		}
		sel = append(sel, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable("select", err)
	}
	return sel, nil
}

// ImportCells upserts cells in a single transaction. NaN values are stored as NULL.
func (s *GridStore) ImportCells(ctx context.Context, cells domain.Selection) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO grid_cells
		(time_unix, lat, lon, vhm0, vmdr, vcmx) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range cells {
		if _, err = stmt.ExecContext(ctx, c.Time.Unix(), c.Lat, c.Lon,
			nullable(c, domain.FieldWaveHeight),
			nullable(c, domain.FieldWaveDirection),
			nullable(c, domain.FieldMaxWaveHeight),
		); err != nil {
			return fmt.Errorf("insert cell %s (%v, %v): %w", c.Time.Format(time.RFC3339), c.Lat, c.Lon, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Import copies every cell of ds into the store and records its validity and id.
func (s *GridStore) Import(ctx context.Context, datasetID string, ds *grid.Dataset) error {
	if err := s.ImportCells(ctx, ds.Cells()); err != nil {
		return err
	}
	if err := s.setMeta(ctx, metaDatasetID, datasetID); err != nil {
		return err
	}
	return s.SetValidity(ctx, ds.Validity())
}

// SetValidity records the validity interval in the store's metadata.
func (s *GridStore) SetValidity(ctx context.Context, r domain.TimeRange) error {
	if err := s.setMeta(ctx, metaValidityStart, r.Start.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	if err := s.setMeta(ctx, metaValidityEnd, r.End.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	s.validity = r
	return nil
}

// Count returns the number of stored cells.
func (s *GridStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM grid_cells").Scan(&n); err != nil {
		return 0, fmt.Errorf("count cells: %w", err)
	}
	return n, nil
}

func (s *GridStore) setMeta(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO dataset_meta (key, value) VALUES (?, ?)", key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *GridStore) storedValidity(ctx context.Context) (domain.TimeRange, error) {
	start, errStart := s.meta(ctx, metaValidityStart)
	end, errEnd := s.meta(ctx, metaValidityEnd)
	if errStart == nil && errEnd == nil {
		var r domain.TimeRange
		var err error
		if r.Start, err = time.Parse(time.RFC3339, start); err != nil {
			return r, fmt.Errorf("parse %s: %w", metaValidityStart, err)
		}
		if r.End, err = time.Parse(time.RFC3339, end); err != nil {
			return r, fmt.Errorf("parse %s: %w", metaValidityEnd, err)
		}
		return r, nil
	}
	if !errors.Is(errStart, sql.ErrNoRows) && errStart != nil {
		return domain.TimeRange{}, errStart
	}

	var lo, hi sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MIN(time_unix), MAX(time_unix) FROM grid_cells").Scan(&lo, &hi); err != nil {
		return domain.TimeRange{}, fmt.Errorf("time span: %w", err)
	}
	if !lo.Valid {
		return domain.TimeRange{}, nil
	}
	return domain.TimeRange{Start: time.Unix(lo.Int64, 0).UTC(), End: time.Unix(hi.Int64, 0).UTC()}, nil
}

func (s *GridStore) meta(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM dataset_meta WHERE key = ?", key).Scan(&v)
	return v, err
}

func nullable(c domain.Cell, f domain.Field) any {
	v, ok := c.Value(f)
	if !ok {
		return nil
	}
	return v
}

func ceilUnix(t time.Time) int64 {
	u := t.Unix()
	if t.Nanosecond() > 0 {
		u++
	}
	return u
}

func floorUnix(t time.Time) int64 {
	return t.Unix()
}
