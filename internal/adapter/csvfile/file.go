package csvfile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
)

// Source extracts incident records from a CSV file on disk.
type Source struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	columns []string
}

// NewSource creates a Source reading path.
func NewSource(path string, logger *slog.Logger) *Source {
	return &Source{path: path, logger: logger}
}

// Extract reads and parses the whole file.
func (s *Source) Extract(_ context.Context) ([]domain.IncidentRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open incidents: %w", err)
	}
	defer f.Close()

	res, err := ParseIncidents(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.columns = res.Columns
	s.mu.Unlock()

	s.logger.Info("incidents read",
		"path", s.path,
		"rows", res.Rows,
		"records", len(res.Records),
		"skipped_no_position", res.Skipped,
	)
	return res.Records, nil
}

// Columns returns the header of the last file read.
func (s *Source) Columns() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.columns
}

// Sink writes enriched records to a CSV file, replacing it atomically.
type Sink struct {
	path         string
	columns      func() []string
	withFeatures bool
	logger       *slog.Logger
}

// NewSink creates a Sink writing to path with the header reported by columns.
func NewSink(path string, columns func() []string, withFeatures bool, logger *slog.Logger) *Sink {
	return &Sink{path: path, columns: columns, withFeatures: withFeatures, logger: logger}
}

// Name identifies the sink in logs.
func (s *Sink) Name() string { return "csv" }

// LoadBatch writes all records to the output file.
func (s *Sink) LoadBatch(_ context.Context, records []domain.IncidentRecord) error {
	err := writeAtomic(s.path, func(f *os.File) error {
		return WriteEnriched(f, s.columns(), records, s.withFeatures)
	})
	if err != nil {
		return err
	}
	s.logger.Info("enriched incidents written", "path", s.path, "records", len(records))
	return nil
}

// writeAtomic writes through a temp file in the target directory and renames
// it into place.
func writeAtomic(path string, write func(*os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
