// internal/geo/zipcode.go

// Package geo maintains the ZIP code geo index: per-ZIP records with
// coordinates plus state and city membership indexes, and radius
// searches over them.
package geo

import (
	"math"
	"strconv"
	"strings"
)

// ZipRecord is the stored form of one ZIP code.
type ZipRecord struct {
	Zip       string  `json:"zip"`
	City      string  `json:"city,omitempty"`
	State     string  `json:"state,omitempty"`
	County    string  `json:"county,omitempty"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Distance is set on radius search results, in miles from the center.
	Distance float64 `json:"distance,omitempty"`
}

// HasValidCoordinates reports whether the record's coordinates are in range.
func (z ZipRecord) HasValidCoordinates() bool {
	return !math.IsNaN(z.Latitude) && !math.IsNaN(z.Longitude) &&
		z.Latitude >= -90 && z.Latitude <= 90 &&
		z.Longitude >= -180 && z.Longitude <= 180
}

// Sanitize builds a ZipRecord from a loosely shaped document. Imports
// arrive from several sources that disagree on field names (zip vs
// zipCode, latitude vs lat, state vs state_name) and on whether
// coordinates are numbers or strings. Unparseable coordinates become 0.
func Sanitize(raw map[string]interface{}) ZipRecord {
	rec := ZipRecord{
		Zip:     firstString(raw, "zip", "zipCode"),
		City:    firstString(raw, "city"),
		State:   firstString(raw, "state", "state_name"),
		County:  firstString(raw, "county"),
		Country: firstString(raw, "country"),
	}
	rec.Latitude = firstNumber(raw, "latitude", "lat")
	rec.Longitude = firstNumber(raw, "longitude", "lng")
	return rec
}

func firstString(raw map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			switch s := v.(type) {
			case string:
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					return trimmed
				}
			case float64:
				return strconv.FormatFloat(s, 'f', -1, 64)
			}
		}
	}
	return ""
}

func firstNumber(raw map[string]interface{}, keys ...string) float64 {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			if !math.IsNaN(n) {
				return n
			}
		case string:
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil && !math.IsNaN(parsed) {
				return parsed
			}
		}
	}
	return 0
}
