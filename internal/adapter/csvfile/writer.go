package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
)

// ColumnWaveHeight is appended to every enriched row.
const ColumnWaveHeight = "wave_height"

// FeatureColumns are appended when narrative features are written.
var FeatureColumns = []string{"boarded", "hijacked", "hostages_taken", "crew_assaulted"}

// WriteEnriched writes records with their original columns followed by
// wave_height and, when withFeatures is set, the four attack feature flags.
func WriteEnriched(w io.Writer, columns []string, records []domain.IncidentRecord, withFeatures bool) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(columns)+1+len(FeatureColumns))
	header = append(header, columns...)
	header = append(header, ColumnWaveHeight)
	if withFeatures {
		header = append(header, FeatureColumns...)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	out := make([]string, len(header))
	for _, rec := range records {
		n := copy(out, rec.Fields.Values[:min(len(rec.Fields.Values), len(columns))])
		for i := n; i < len(columns); i++ {
			out[i] = ""
		}
		out[len(columns)] = rec.WaveHeight.String()
		if withFeatures {
			writeFeatures(out[len(columns)+1:], rec.Features)
		}
		if err := cw.Write(out); err != nil {
			return fmt.Errorf("write row %d: %w", rec.Row, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeFeatures(dst []string, f *domain.AttackFeatures) {
	if f == nil {
		for i := range dst {
			dst[i] = ""
		}
		return
	}
	for i, v := range []bool{f.Boarded, f.Hijacked, f.HostagesTaken, f.CrewAssaulted} {
		dst[i] = flag(v)
	}
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
