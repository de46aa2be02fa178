// Package models defines shared data types
package models

import "time"

// Coord is a WGS84 position in decimal degrees
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// StationInfo is static station metadata from the information feed
type StationInfo struct {
	ID      string  `json:"station_id"`
	Name    string  `json:"name"`
	Address string  `json:"address,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// StationStatus holds the volatile occupancy counts of a station
type StationStatus struct {
	ID             string `json:"station_id"`
	BikesAvailable int    `json:"num_bikes_available"`
	DocksAvailable int    `json:"num_docks_available"`
}

// Station is a StationInfo joined with its latest status
type Station struct {
	StationInfo
	BikesAvailable int `json:"num_bikes_available"`
	DocksAvailable int `json:"num_docks_available"`
}

// Coord returns the station position
func (s Station) Coord() Coord {
	return Coord{Lat: s.Lat, Lon: s.Lon}
}

// StationWithDistance is a Station with distance from a reference point
type StationWithDistance struct {
	Station
	DistanceMeters float64 `json:"distance_meters"`
}

// Bike is a vehicle from the free-floating feed.
// Position is nil when the feed did not report one.
type Bike struct {
	ID            string `json:"bike_id"`
	Position      *Coord `json:"position,omitempty"`
	IsReserved    bool   `json:"is_reserved"`
	IsDisabled    bool   `json:"is_disabled"`
	VehicleTypeID string `json:"vehicle_type_id,omitempty"`
	StationID     string `json:"station_id,omitempty"`
}

// Availability ranks bikes for display: free first, disabled last
type Availability int

const (
	Free Availability = iota
	Reserved
	Disabled
)

func (a Availability) String() string {
	switch a {
	case Reserved:
		return "reserved"
	case Disabled:
		return "disabled"
	default:
		return "free"
	}
}

// Availability classifies the bike. Disabled wins over reserved.
func (b Bike) Availability() Availability {
	switch {
	case b.IsDisabled:
		return Disabled
	case b.IsReserved:
		return Reserved
	default:
		return Free
	}
}

// BikeWithDistance is a Bike with distance from a reference point
type BikeWithDistance struct {
	Bike
	DistanceMeters *float64 `json:"distance_meters"`
}

// FleetCounts summarises bikes by availability
type FleetCounts struct {
	Total    int `json:"total"`
	Free     int `json:"free"`
	Reserved int `json:"reserved"`
	Disabled int `json:"disabled"`
}

// Snapshot is one published, immutable view of all three feeds.
// Err is set when the latest cycle failed; the data then belongs to the
// last successful cycle (or is empty if none has succeeded yet).
type Snapshot struct {
	CycleID   string      `json:"cycle_id,omitempty"`
	Stations  []Station   `json:"stations"`
	Bikes     []Bike      `json:"bikes"`
	Counts    FleetCounts `json:"counts"`
	FetchedAt time.Time   `json:"fetched_at"`
	Err       error       `json:"-"`
}

// Degraded reports whether the latest cycle failed
func (s Snapshot) Degraded() bool {
	return s.Err != nil
}
