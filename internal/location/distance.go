// Package location provides great-circle distance and proximity lookups
package location

import (
	"math"

	"github.com/velivert/velivert/internal/models"
)

const earthRadiusMeters = 6371000

// Haversine calculates the distance in meters between two lat/lon points.
// Inputs are not checked; use Distance for untrusted coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	// rounding can push a just past 1 near antipodes
	a = math.Min(math.Max(a, 0), 1)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Distance returns the haversine distance in meters, or false when either
// point is not a finite coordinate within [-90,90] x [-180,180].
func Distance(lat1, lon1, lat2, lon2 float64) (float64, bool) {
	if !Valid(lat1, lon1) || !Valid(lat2, lon2) {
		return 0, false
	}
	return Haversine(lat1, lon1, lat2, lon2), true
}

// Between is Distance for two coordinates
func Between(a, b models.Coord) (float64, bool) {
	return Distance(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Valid reports whether lat/lon is a usable coordinate
func Valid(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Area is a lat/lon bounding box. The zero Area contains every valid point.
type Area struct {
	MinLat float64 `json:"min_lat" yaml:"min_lat"`
	MaxLat float64 `json:"max_lat" yaml:"max_lat"`
	MinLon float64 `json:"min_lon" yaml:"min_lon"`
	MaxLon float64 `json:"max_lon" yaml:"max_lon"`
}

// IsZero reports whether no bounds are set
func (a Area) IsZero() bool {
	return a == Area{}
}

// Contains reports whether c is valid and inside the box
func (a Area) Contains(c models.Coord) bool {
	if !Valid(c.Lat, c.Lon) {
		return false
	}
	if a.IsZero() {
		return true
	}
	return c.Lat >= a.MinLat && c.Lat <= a.MaxLat && c.Lon >= a.MinLon && c.Lon <= a.MaxLon
}
