// Package fleet joins the station feeds and derives bike listings from the
// merged view. Everything here is pure and safe to call on every request.
package fleet

import "github.com/velivert/velivert/internal/models"

// MergeStations joins station metadata with occupancy counts.
//
// Output follows infos order with one Station per id (first occurrence
// wins). Statuses are looked up by id, last write wins on duplicates.
// Stations without a status get zero counts; statuses without a station
// are dropped. Negative counts are clamped to zero.
func MergeStations(infos []models.StationInfo, statuses []models.StationStatus) []models.Station {
	byID := make(map[string]models.StationStatus, len(statuses))
	for _, status := range statuses {
		byID[status.ID] = status
	}

	seen := make(map[string]struct{}, len(infos))
	merged := make([]models.Station, 0, len(infos))

	for _, info := range infos {
		if _, dup := seen[info.ID]; dup {
			continue
		}
		seen[info.ID] = struct{}{}

		station := models.Station{StationInfo: info}
		if status, ok := byID[info.ID]; ok {
			station.BikesAvailable = max(status.BikesAvailable, 0)
			station.DocksAvailable = max(status.DocksAvailable, 0)
		}
		merged = append(merged, station)
	}

	return merged
}

// StationIndex looks up merged stations by id
type StationIndex map[string]models.Station

// IndexStations builds a StationIndex. The first station with an id wins.
func IndexStations(stations []models.Station) StationIndex {
	idx := make(StationIndex, len(stations))
	for _, s := range stations {
		if _, ok := idx[s.ID]; !ok {
			idx[s.ID] = s
		}
	}
	return idx
}

// StationName returns the name of the station a bike is docked at, or ""
// when the bike has no station or references an unknown one.
func (idx StationIndex) StationName(bike models.Bike) string {
	if bike.StationID == "" {
		return ""
	}
	if s, ok := idx[bike.StationID]; ok {
		return s.Name
	}
	return ""
}

// CountBikes tallies bikes by availability. The counts partition the fleet:
// Free+Reserved+Disabled == Total, and a bike that is both reserved and
// disabled counts only as disabled.
func CountBikes(bikes []models.Bike) models.FleetCounts {
	counts := models.FleetCounts{Total: len(bikes)}
	for _, b := range bikes {
		switch b.Availability() {
		case models.Free:
			counts.Free++
		case models.Reserved:
			counts.Reserved++
		case models.Disabled:
			counts.Disabled++
		}
	}
	return counts
}
