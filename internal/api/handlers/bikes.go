package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/text/language"

	"github.com/velivert/velivert/internal/cache"
	"github.com/velivert/velivert/internal/fleet"
	"github.com/velivert/velivert/internal/location"
	"github.com/velivert/velivert/internal/models"
)

type BikeHandler struct {
	snapshots SnapshotProvider
	names     fleet.Resolver
	area      location.Area
	lang      language.Tag
	views     *cache.Cache[[]fleet.BikeView]

	mu        sync.Mutex
	lastCycle string
}

func NewBikeHandler(
	snapshots SnapshotProvider,
	names fleet.Resolver,
	area location.Area,
	lang language.Tag,
	views *cache.Cache[[]fleet.BikeView],
) *BikeHandler {
	return &BikeHandler{
		snapshots: snapshots,
		names:     names,
		area:      area,
		lang:      lang,
		views:     views,
	}
}

// List returns the derived bike list: distances, sort order and filters
// applied, each bike labelled with its name, status and station.
func (h *BikeHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	mode, ok := fleet.ParseSortMode(query.Get("sort"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Invalid sort parameter",
			"message": "sort must be one of availability, distance, name",
		})
		return
	}

	user, err := parseCoords(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid coordinates", err)
		return
	}

	disabledOnly, err := parseBoolParam(r, "disabled")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid disabled parameter", err)
		return
	}

	opts := fleet.QueryOptions{
		User: user,
		Area: h.area,
		Sort: mode,
		Filter: fleet.Filter{
			Query:        strings.TrimSpace(query.Get("q")),
			StationID:    query.Get("station"),
			DisabledOnly: disabledOnly,
		},
		Language: h.lang,
	}

	snap := h.snapshots.Current()
	views := h.derive(snap, opts)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"count":    len(views),
		"sort":     mode,
		"bikes":    views,
		"metadata": snapshotMeta(snap),
	})
}

// derive runs the query, memoised per cycle and query
func (h *BikeHandler) derive(snap models.Snapshot, opts fleet.QueryOptions) []fleet.BikeView {
	compute := func() []fleet.BikeView {
		bikes := fleet.Query(snap.Bikes, opts, h.names)
		return fleet.Describe(bikes, h.names, fleet.IndexStations(snap.Stations))
	}
	if h.views == nil || snap.CycleID == "" {
		return compute()
	}

	// views from earlier cycles can never be hit again
	h.mu.Lock()
	if snap.CycleID != h.lastCycle {
		h.views.Clear()
		h.lastCycle = snap.CycleID
	}
	h.mu.Unlock()

	return h.views.GetOrCompute(cacheKey(snap.CycleID, opts), compute)
}

func cacheKey(cycleID string, opts fleet.QueryOptions) string {
	user := "-"
	if opts.User != nil {
		user = fmt.Sprintf("%.6f,%.6f", opts.User.Lat, opts.User.Lon)
	}
	return fmt.Sprintf("%s|%s|%s|%q|%q|%t",
		cycleID, opts.Sort, user,
		strings.ToLower(opts.Filter.Query), opts.Filter.StationID, opts.Filter.DisabledOnly)
}

// Get returns a single bike by id
func (h *BikeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "Bike ID is required",
		})
		return
	}

	user, err := parseCoords(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid coordinates", err)
		return
	}

	snap := h.snapshots.Current()
	for _, bike := range snap.Bikes {
		if bike.ID != id {
			continue
		}
		annotated := location.AnnotateDistances([]models.Bike{bike}, user, h.area)
		view := fleet.Describe(annotated, h.names, fleet.IndexStations(snap.Stations))[0]

		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"bike":     view,
			"metadata": snapshotMeta(snap),
		})
		return
	}

	writeJSON(w, http.StatusNotFound, map[string]any{
		"error":   "Bike not found",
		"message": "Bike " + id + " is not in the current feed",
	})
}

// Summary returns fleet and dock totals. Fleet counts partition the bikes
// by availability, so a reserved and disabled bike is only counted disabled.
func (h *BikeHandler) Summary(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshots.Current()

	docked, docks := 0, 0
	for _, s := range snap.Stations {
		docked += s.BikesAvailable
		docks += s.DocksAvailable
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"counts":          snap.Counts,
		"stations":        len(snap.Stations),
		"bikes_at_docks":  docked,
		"docks_available": docks,
		"metadata":        snapshotMeta(snap),
	})
}
