// Package csvfile reads incident exports and writes enriched results as CSV.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
)

// Layouts accepted for the incident date column, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2 Jan 2006",
	"02-Jan-2006",
}

// ParseDate parses an incident date in any of the supported layouts as UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// ReadRecords reads a CSV file and returns its header and data rows. Rows may
// have differing field counts.
func ReadRecords(r io.Reader) ([]string, [][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errors.New("empty file: missing header")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	var rows [][]string
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", len(rows), err)
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// ParseResult is the outcome of reading an incident file.
type ParseResult struct {
	Columns []string
	Records []domain.IncidentRecord
	Rows    int // data rows in the file
	Skipped int // rows dropped for a missing latitude or longitude
}

// ParseIncidents reads an incident export. Rows with an empty latitude or
// longitude are dropped; every other row must carry a parseable date and
// coordinates. Record.Row is the zero-based data row in the file.
func ParseIncidents(r io.Reader) (ParseResult, error) {
	header, rows, err := ReadRecords(r)
	if err != nil {
		return ParseResult{}, err
	}

	idx := make(map[string]int, len(header))
	for i, c := range header {
		idx[strings.TrimSpace(c)] = i
	}
	dateCol, latCol, lonCol, err := requiredColumns(idx)
	if err != nil {
		return ParseResult{}, err
	}

	res := ParseResult{Columns: header, Rows: len(rows)}
	for i, row := range rows {
		lat, lon := field(row, latCol), field(row, lonCol)
		if lat == "" || lon == "" {
			res.Skipped++
			continue
		}

		rec, err := parseIncident(header, row, i, field(row, dateCol), lat, lon)
		if err != nil {
			return ParseResult{}, fmt.Errorf("row %d: %w", i, err)
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func requiredColumns(idx map[string]int) (date, lat, lon int, err error) {
	var ok bool
	if date, ok = idx[domain.ColumnIncidentDate]; !ok {
		return 0, 0, 0, fmt.Errorf("missing column %q", domain.ColumnIncidentDate)
	}
	if lat, ok = idx[domain.ColumnLatitude]; !ok {
		return 0, 0, 0, fmt.Errorf("missing column %q", domain.ColumnLatitude)
	}
	if lon, ok = idx[domain.ColumnLongitude]; !ok {
		return 0, 0, 0, fmt.Errorf("missing column %q", domain.ColumnLongitude)
	}
	return date, lat, lon, nil
}

func parseIncident(header, row []string, i int, date, lat, lon string) (domain.IncidentRecord, error) {
	t, err := ParseDate(date)
	if err != nil {
		return domain.IncidentRecord{}, fmt.Errorf("parse %s: %w", domain.ColumnIncidentDate, err)
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return domain.IncidentRecord{}, fmt.Errorf("parse %s: %w", domain.ColumnLatitude, err)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return domain.IncidentRecord{}, fmt.Errorf("parse %s: %w", domain.ColumnLongitude, err)
	}
	return domain.IncidentRecord{
		Row:    i,
		Point:  domain.NewGeoPoint(la, lo),
		Time:   t,
		Fields: domain.RawFields{Columns: header, Values: row},
	}, nil
}

func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
