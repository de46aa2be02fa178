package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/velivert/velivert/internal/location"
	"github.com/velivert/velivert/internal/models"
)

var errCoordsIncomplete = errors.New("lat and lon must be provided together")

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	body := map[string]any{"error": msg}
	if err != nil {
		body["message"] = err.Error()
	}
	writeJSON(w, status, body)
}

// snapshotMeta is attached to every response built from a snapshot
func snapshotMeta(snap models.Snapshot) map[string]any {
	meta := map[string]any{
		"cycle_id":   snap.CycleID,
		"fetched_at": snap.FetchedAt,
		"degraded":   snap.Degraded(),
	}
	if snap.Err != nil {
		meta["last_error"] = snap.Err.Error()
	}
	return meta
}

func parseIntParam(r *http.Request, name string, defaultVal, min, max int) int {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}

	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func parseBoolParam(r *http.Request, name string) (bool, error) {
	str := r.URL.Query().Get(name)
	if str == "" {
		return false, nil
	}
	return strconv.ParseBool(str)
}

// parseCoords reads an optional lat/lon pair. It returns nil when both are
// absent and an error when only one is set or either is out of range.
func parseCoords(r *http.Request) (*models.Coord, error) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")

	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, errCoordsIncomplete
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, errors.New("invalid lat parameter")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, errors.New("invalid lon parameter")
	}
	if !location.Valid(lat, lon) {
		return nil, errors.New("coordinates out of range")
	}

	return &models.Coord{Lat: lat, Lon: lon}, nil
}
