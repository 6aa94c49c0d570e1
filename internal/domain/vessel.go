package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// VesselDateLayout is the incident date format of the raw IMO export (%m/%d/%Y).
const VesselDateLayout = "1/2/2006"

// vesselColumns is the positional layout of the raw IMO export.
const vesselColumns = 16

// Incident is one event in a vessel's history.
type Incident struct {
	Coord         *GeoPoint // nil when the report has no position
	Area          string
	Consequence   string
	Part          string
	ShipStatus    string
	Weapon        string
	CrewInjured   string
	CrewHostage   string
	CrewMissing   string
	CrewDeath     string
	CrewAssaulted string
}

func (i Incident) String() string {
	coord := "None"
	if i.Coord != nil {
		coord = i.Coord.String()
	}
	return fmt.Sprintf("Incident Summary: coord=%s, area=%s, consequence=%s, part=%s, ship_status=%s, weapon=%s, "+
		"crew_inj=%s, crew_hostage=%s, crew_missing=%s, crew_death=%s, crew_assaulted=%s",
		coord, i.Area, i.Consequence, i.Part, i.ShipStatus, i.Weapon,
		i.CrewInjured, i.CrewHostage, i.CrewMissing, i.CrewDeath, i.CrewAssaulted)
}

// Vessel is a ship and its incident history, keyed by incident date. The name
// is assumed unique and permanent; a second incident on the same date
// replaces the first.
type Vessel struct {
	Name      string
	Flag      string
	Type      string
	Incidents map[time.Time]Incident
}

// NewVessel returns a vessel with an empty history.
func NewVessel(name, flag, shipType string) *Vessel {
	return &Vessel{
		Name:      name,
		Flag:      flag,
		Type:      shipType,
		Incidents: make(map[time.Time]Incident),
	}
}

// AddIncident records an incident on date (VesselDateLayout). The position is
// attached only when both lat and lon are non-empty.
func (v *Vessel) AddIncident(date, lat, lon string, inc Incident) error {
	stamp, err := time.Parse(VesselDateLayout, strings.TrimSpace(date))
	if err != nil {
		return fmt.Errorf("parse incident date %q: %w", date, err)
	}

	inc.Coord = nil
	if lat != "" && lon != "" {
		la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
		if err != nil {
			return fmt.Errorf("parse latitude %q: %w", lat, err)
		}
		lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
		if err != nil {
			return fmt.Errorf("parse longitude %q: %w", lon, err)
		}
		p := NewGeoPoint(la, lo)
		inc.Coord = &p
	}

	v.Incidents[stamp] = inc
	return nil
}

// NumIncidents returns the number of distinct incident dates recorded.
func (v *Vessel) NumIncidents() int {
	return len(v.Incidents)
}

func (v *Vessel) String() string {
	var b strings.Builder
	b.WriteString(v.Name)
	b.WriteString("(")
	if v.Name != "" {
		fmt.Fprintf(&b, "name='%s'", v.Name)
		if v.Type != "" {
			b.WriteString(",type=" + v.Type)
		} else {
			b.WriteString(",type=None")
		}
		if v.Flag != "" {
			b.WriteString(",flag=" + v.Flag)
		}
	}
	fmt.Fprintf(&b, ",%d incidents)", v.NumIncidents())
	return b.String()
}

// BuildVesselRegistry groups raw export rows (header already removed) into
// vessels keyed by ship name.
func BuildVesselRegistry(rows [][]string) (map[string]*Vessel, error) {
	registry := make(map[string]*Vessel)
	for i, row := range rows {
		if len(row) < vesselColumns {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", i+1, vesselColumns, len(row))
		}

		name := row[1]
		v, ok := registry[name]
		if !ok {
			v = NewVessel(name, row[2], row[3])
			registry[name] = v
		}

		inc := Incident{
			Area:          row[4],
			Consequence:   row[7],
			Part:          row[8],
			ShipStatus:    row[9],
			Weapon:        row[10],
			CrewInjured:   row[11],
			CrewHostage:   row[12],
			CrewMissing:   row[13],
			CrewDeath:     row[14],
			CrewAssaulted: row[15],
		}
		if err := v.AddIncident(row[0], row[5], row[6], inc); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return registry, nil
}
