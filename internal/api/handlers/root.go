package handlers

import (
	"net/http"
)

type RootHandler struct{}

func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

func (h *RootHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "velivert",
		"description": "Live bike-share availability for the Vélivert network",
		"version":     version,
		"endpoints": map[string]string{
			"GET /":                          "API information",
			"GET /health":                    "Health check and feed freshness",
			"GET /api/stations":              "Stations with live counts (?q=)",
			"GET /api/stations/nearest":      "Nearest station and map focus (?lat=&lon=&limit=&radius=)",
			"GET /api/stations/{id}/history": "Archived occupancy of a station (?limit=)",
			"GET /api/bikes":                 "Bikes (?q=&station=&sort=availability|distance|name&lat=&lon=&disabled=)",
			"GET /api/bikes/{id}":            "Single bike",
			"GET /api/summary":               "Fleet counts by availability (free + reserved + disabled = total)",
			"GET /gtfs-rt/vehicle-positions": "GTFS-Realtime vehicle positions (?format=json&include_disabled=)",
			"GET /metrics":                   "Prometheus metrics",
		},
	})
}

func (h *RootHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error":   "Route not found",
		"message": "Check the root endpoint (/) for available routes",
	})
}
