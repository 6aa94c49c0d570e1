package domain

import "time"

// Column names in the cleaned IMO piracy export.
const (
	ColumnIncidentDate = "Incident Date"
	ColumnLatitude     = "Latitude"
	ColumnLongitude    = "Longitude"
	ColumnShipName     = "Ship Name"
)

// RawFields holds one CSV row's cells alongside the file's header. Columns is
// shared by every record read from the same file and must not be modified.
type RawFields struct {
	Columns []string
	Values  []string
}

// Get returns the value of the named column.
func (f RawFields) Get(column string) (string, bool) {
	for i, c := range f.Columns {
		if c == column {
			if i < len(f.Values) {
				return f.Values[i], true
			}
			return "", true
		}
	}
	return "", false
}

// Map returns the row as a column -> value map.
func (f RawFields) Map() map[string]string {
	m := make(map[string]string, len(f.Columns))
	for i, c := range f.Columns {
		if i < len(f.Values) {
			m[c] = f.Values[i]
		}
	}
	return m
}

// AttackFeatures are the categorical features derived from an incident narrative.
type AttackFeatures struct {
	Boarded       bool `json:"boarded"`
	Hijacked      bool `json:"hijacked"`
	HostagesTaken bool `json:"hostages_taken"`
	CrewAssaulted bool `json:"crew_assaulted"`
}

// IncidentRecord is one reported piracy event. Identity is positional: Row is
// the zero-based data row in the source file.
type IncidentRecord struct {
	Row        int             `json:"row"`
	Point      GeoPoint        `json:"point"`
	Time       time.Time       `json:"incident_date"`
	Fields     RawFields       `json:"-"`
	WaveHeight WaveHeight      `json:"wave_height"`
	Features   *AttackFeatures `json:"features,omitempty"`
	EnrichedAt time.Time       `json:"enriched_at,omitzero"`
}
