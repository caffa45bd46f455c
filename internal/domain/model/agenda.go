package model

import (
	"fmt"
	"strings"
	"time"
)

// Location classifies where a job's work happens.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type Location string

const (
	// LocationAll disables location filtering.
	LocationAll Location = "All"
	// LocationInHouse means no part is flagged off-site.
	LocationInHouse Location = "In-House"
	// LocationOffSite means every part is flagged off-site.
	LocationOffSite Location = "Off-Site"
	// LocationMixed means some, but not all, parts are off-site.
	LocationMixed Location = "Mixed"
)

// Valid reports whether l is a known location value.
func (l Location) Valid() bool {
	switch l {
	case LocationAll, LocationInHouse, LocationOffSite, LocationMixed:
		return true
	default:
		return false
	}
}

// ParseLocation accepts the canonical labels case-insensitively, with or without the hyphen.
// An empty value parses as LocationAll.
func ParseLocation(value string) (Location, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.NewReplacer("-", "", "_", "", " ", "").Replace(v)
	switch v {
	case "", "all":
		return LocationAll, nil
	case "inhouse":
		return LocationInHouse, nil
	case "offsite":
		return LocationOffSite, nil
	case "mixed":
		return LocationMixed, nil
	default:
		return "", fmt.Errorf("invalid location: %q", value)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Location) UnmarshalText(text []byte) error {
	v, err := ParseLocation(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// AgendaItem is a display-ready job for one render/query cycle. Nothing here is persisted.
type AgendaItem struct {
	Job             Job       `json:"job"`
	EffectiveStatus JobStatus `json:"effective_status"`
	DateKey         string    `json:"date_key"`
	DisplayDate     string    `json:"display_date,omitempty"`
	TimeWindow      string    `json:"time_window,omitempty"`
	Start           time.Time `json:"start,omitzero"`
	AllDay          bool      `json:"all_day"`
	Conflict        bool      `json:"conflict"`
	Location        Location  `json:"location"`
}

// AgendaDay groups agenda items sharing a canonical date key.
type AgendaDay struct {
	DateKey string       `json:"date_key"`
	Items   []AgendaItem `json:"items"`
}

// AgendaView is the response of an agenda query.
type AgendaView struct {
	Range       string       `json:"range"`
	Start       time.Time    `json:"start"`
	End         time.Time    `json:"end"`
	GeneratedAt time.Time    `json:"generated_at"`
	Items       []AgendaItem `json:"items"`
	Days        []AgendaDay  `json:"days"`
	Conflicts   []string     `json:"conflicts"`
}
