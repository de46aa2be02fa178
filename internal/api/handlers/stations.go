package handlers

import (
	"net/http"
	"strings"

	"github.com/velivert/velivert/internal/location"
	"github.com/velivert/velivert/internal/models"
)

const (
	maxRadius           = 8000
	minRadius           = 50
	defaultNearestLimit = 5
	maxNearestLimit     = 20
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

type StationHandler struct {
	snapshots SnapshotProvider
	history   HistoryProvider
	focus     models.Coord
}

func NewStationHandler(snapshots SnapshotProvider, history HistoryProvider, focus models.Coord) *StationHandler {
	return &StationHandler{
		snapshots: snapshots,
		history:   history,
		focus:     focus,
	}
}

// List returns merged stations, optionally filtered by name or id
func (h *StationHandler) List(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshots.Current()
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))

	stations := snap.Stations
	if q != "" {
		stations = make([]models.Station, 0, len(snap.Stations))
		for _, s := range snap.Stations {
			if strings.Contains(strings.ToLower(s.Name), q) || strings.Contains(strings.ToLower(s.ID), q) {
				stations = append(stations, s)
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"count":    len(stations),
		"stations": stations,
		"metadata": snapshotMeta(snap),
	})
}

// Nearest returns the closest station to lat/lon, the map focus point and,
// when located, the closest stations ranked by distance. An optional radius
// restricts the ranking to stations within that many meters.
func (h *StationHandler) Nearest(w http.ResponseWriter, r *http.Request) {
	user, err := parseCoords(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid coordinates", err)
		return
	}

	snap := h.snapshots.Current()
	body := map[string]any{
		"success":  true,
		"focus":    location.FocusPoint(snap.Stations, user, h.focus),
		"metadata": snapshotMeta(snap),
	}

	station, ok := location.NearestStation(snap.Stations, user)
	if ok {
		body["station"] = station
		if user != nil {
			if dist, ok := location.Between(*user, station.Coord()); ok {
				body["distance_meters"] = dist
			}
		}
	} else {
		body["station"] = nil
	}

	if user != nil {
		limit := parseIntParam(r, "limit", defaultNearestLimit, 1, maxNearestLimit)
		var ranked []models.StationWithDistance
		if r.URL.Query().Get("radius") != "" {
			radius := parseIntParam(r, "radius", maxRadius, minRadius, maxRadius)
			ranked = location.StationsWithin(snap.Stations, *user, float64(radius))
			ranked = ranked[:min(limit, len(ranked))]
			body["radius_meters"] = radius
		} else {
			ranked = location.RankStations(snap.Stations, *user, limit)
		}
		body["stations"] = ranked
	}

	writeJSON(w, http.StatusOK, body)
}

// History returns archived occupancy samples for a station
func (h *StationHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":   "History unavailable",
			"message": "DATABASE_URL not configured",
		})
		return
	}

	stationID := r.PathValue("id")
	limit := parseIntParam(r, "limit", defaultHistoryLimit, 1, maxHistoryLimit)

	samples, err := h.history.History(r.Context(), stationID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load history", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"station_id": stationID,
		"count":      len(samples),
		"samples":    samples,
	})
}
