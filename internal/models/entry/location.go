package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

var ErrInvalidLocation = errors.New("location must be an object with numeric lat and lng")

// Location is a geographic point. When a client sent something that could
// not be parsed, Raw keeps the value verbatim and Lat/Lng are zero.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
	Raw string  `json:"-"`
}

type point struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (l Location) IsRaw() bool {
	return l.Raw != ""
}

func (l Location) MarshalJSON() ([]byte, error) {
	if l.IsRaw() {
		return json.Marshal(l.Raw)
	}
	return json.Marshal(struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	}{l.Lat, l.Lng})
}

func (l *Location) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Location{Raw: s}
		return nil
	}
	var p point
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Lat == nil || p.Lng == nil {
		return ErrInvalidLocation
	}
	*l = Location{Lat: *p.Lat, Lng: *p.Lng}
	return nil
}

// ParseLocation parses the structured {"lat":..,"lng":..} form.
// An empty input means no location.
func ParseLocation(raw string) (*Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var p point
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, ErrInvalidLocation
	}
	if p.Lat == nil || p.Lng == nil {
		return nil, ErrInvalidLocation
	}
	return &Location{Lat: *p.Lat, Lng: *p.Lng}, nil
}

// ParseLocationLenient behaves like ParseLocation but keeps unparseable
// input verbatim instead of failing.
func ParseLocationLenient(raw string) *Location {
	loc, err := ParseLocation(raw)
	if err != nil {
		return &Location{Raw: raw}
	}
	return loc
}
