// Package handlers contains HTTP request handlers
package handlers

import (
	"net/http"
	"time"
)

const version = "1.0.0"

type HealthHandler struct {
	startTime time.Time
	snapshots SnapshotProvider
	status    StatusProvider
	names     NameStats
	views     CacheStats
}

func NewHealthHandler(snapshots SnapshotProvider, status StatusProvider, names NameStats, views CacheStats) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		snapshots: snapshots,
		status:    status,
		names:     names,
		views:     views,
	}
}

// Health reports liveness and feed freshness. A degraded feed still
// answers 200: stale data is served, not withheld.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshots.Current()

	status := "OK"
	if snap.Degraded() {
		status = "DEGRADED"
	}

	body := map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   version,
		"uptime":    time.Since(h.startTime).String(),
		"feed":      snapshotMeta(snap),
		"stations":  len(snap.Stations),
		"bikes":     len(snap.Bikes),
	}
	if h.status != nil {
		body["poller"] = map[string]any{
			"state":        h.status.State().String(),
			"last_attempt": h.status.LastAttempt(),
		}
	}
	if h.names != nil {
		body["names"] = map[string]any{
			"loaded": h.names.IsLoaded(),
			"count":  h.names.Count(),
		}
	}
	if h.views != nil {
		body["view_cache"] = map[string]any{
			"entries":  h.views.Size(),
			"hit_rate": h.views.HitRate(),
		}
	}

	writeJSON(w, http.StatusOK, body)
}
