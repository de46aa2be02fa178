package location

import (
	"slices"

	"github.com/velivert/velivert/internal/models"
)

// Default focus point, used when neither the user nor any station is known.
const (
	DefaultLat = 45.4397
	DefaultLon = 4.3872
)

// NearestStation returns the station closest to user.
// Ties go to the first station in input order. Without a usable user
// position it falls back to the first station. It returns false only when
// stations is empty.
func NearestStation(stations []models.Station, user *models.Coord) (models.Station, bool) {
	if len(stations) == 0 {
		return models.Station{}, false
	}
	if user == nil || !Valid(user.Lat, user.Lon) {
		return stations[0], true
	}

	best := -1
	bestDist := 0.0
	for i, station := range stations {
		dist, ok := Distance(user.Lat, user.Lon, station.Lat, station.Lon)
		if !ok {
			continue
		}
		if best < 0 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}

	if best < 0 {
		return stations[0], true
	}
	return stations[best], true
}

// FocusPoint picks where a map view should center: the nearest station,
// else the first station, else fallback.
func FocusPoint(stations []models.Station, user *models.Coord, fallback models.Coord) models.Coord {
	if station, ok := NearestStation(stations, user); ok {
		return station.Coord()
	}
	return fallback
}

// RankStations returns stations ordered by distance from user, closest
// first. Stations with unusable coordinates are skipped. A limit <= 0
// returns all of them.
func RankStations(stations []models.Station, user models.Coord, limit int) []models.StationWithDistance {
	results := make([]models.StationWithDistance, 0, len(stations))

	for _, station := range stations {
		dist, ok := Distance(user.Lat, user.Lon, station.Lat, station.Lon)
		if !ok {
			continue
		}
		results = append(results, models.StationWithDistance{
			Station:        station,
			DistanceMeters: dist,
		})
	}

	slices.SortStableFunc(results, func(a, b models.StationWithDistance) int {
		switch {
		case a.DistanceMeters < b.DistanceMeters:
			return -1
		case a.DistanceMeters > b.DistanceMeters:
			return 1
		}
		return 0
	})

	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}

	return results
}

// AnnotateDistances computes each bike's distance from user. The distance
// is nil when user is nil, or when the bike has no position or one outside
// area.
func AnnotateDistances(bikes []models.Bike, user *models.Coord, area Area) []models.BikeWithDistance {
	out := make([]models.BikeWithDistance, len(bikes))

	for i, bike := range bikes {
		out[i] = models.BikeWithDistance{Bike: bike}
		if user == nil || bike.Position == nil || !area.Contains(*bike.Position) {
			continue
		}
		if dist, ok := Between(*user, *bike.Position); ok {
			d := dist
			out[i].DistanceMeters = &d
		}
	}

	return out
}

// StationsWithin returns the stations within radiusMeters of user, closest
// first.
func StationsWithin(stations []models.Station, user models.Coord, radiusMeters float64) []models.StationWithDistance {
	ranked := RankStations(stations, user, 0)
	for i, s := range ranked {
		if s.DistanceMeters > radiusMeters {
			return ranked[:i]
		}
	}
	return ranked
}
