package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/velivert/velivert/internal/transit"
)

type FeedHandler struct {
	snapshots SnapshotProvider
	names     transit.Labeler
	maxAge    time.Duration
}

// NewFeedHandler creates the export handler. maxAge is advertised to
// clients as the refresh period, normally the poll interval.
func NewFeedHandler(snapshots SnapshotProvider, names transit.Labeler, maxAge time.Duration) *FeedHandler {
	return &FeedHandler{snapshots: snapshots, names: names, maxAge: maxAge}
}

// VehiclePositions exports the current bikes as a GTFS-Realtime feed
func (h *FeedHandler) VehiclePositions(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")

	includeDisabled, err := parseBoolParam(r, "include_disabled")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid include_disabled parameter", err)
		return
	}

	snap := h.snapshots.Current()
	feed := transit.BuildVehicleFeed(snap, h.names, transit.VehicleFeedOptions{IncludeDisabled: includeDisabled})

	body, contentType, err := transit.EncodeFeed(feed, format)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unsupported format", err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	if !snap.FetchedAt.IsZero() {
		w.Header().Set("Last-Modified", snap.FetchedAt.UTC().Format(http.TimeFormat))
	}
	w.Header().Set("X-Feed-Degraded", strconv.FormatBool(snap.Degraded()))
	if h.maxAge > 0 {
		w.Header().Set("Cache-Control", "max-age="+strconv.Itoa(int(h.maxAge.Seconds())))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
