package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/text/language"

	"github.com/velivert/velivert/internal/api/handlers"
	"github.com/velivert/velivert/internal/cache"
	"github.com/velivert/velivert/internal/config"
	"github.com/velivert/velivert/internal/fleet"
	"github.com/velivert/velivert/internal/metrics"
	"github.com/velivert/velivert/internal/models"
	"github.com/velivert/velivert/internal/names"
)

// Services are the data sources behind the routes. History, Metrics and
// Gatherer are optional.
type Services struct {
	Snapshots handlers.SnapshotProvider
	Status    handlers.StatusProvider
	Names     *names.Table
	History   handlers.HistoryProvider
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
}

// NewRouter creates and configures the HTTP router with all routes and middleware
func NewRouter(cfg *config.Config, svc Services) http.Handler {
	mux := http.NewServeMux()

	lang := language.Make(cfg.Locale)
	focus := models.Coord{Lat: cfg.DefaultLat, Lon: cfg.DefaultLon}
	views := cache.New[[]fleet.BikeView](cfg.CacheSize, cfg.CacheTTL)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(svc.Snapshots, svc.Status, svc.Names, views)
	rootHandler := handlers.NewRootHandler()
	stationHandler := handlers.NewStationHandler(svc.Snapshots, svc.History, focus)
	bikeHandler := handlers.NewBikeHandler(svc.Snapshots, svc.Names, cfg.ServiceArea(), lang, views)
	feedHandler := handlers.NewFeedHandler(svc.Snapshots, svc.Names, cfg.PollInterval)

	// Core routes
	mux.HandleFunc("GET /{$}", rootHandler.Index)
	mux.HandleFunc("GET /api", rootHandler.Index)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("/", rootHandler.NotFound)

	// Station routes
	mux.HandleFunc("GET /api/stations", stationHandler.List)
	mux.HandleFunc("GET /api/stations/nearest", stationHandler.Nearest)
	mux.HandleFunc("GET /api/stations/{id}/history", stationHandler.History)

	// Bike routes
	mux.HandleFunc("GET /api/bikes", bikeHandler.List)
	mux.HandleFunc("GET /api/bikes/{id}", bikeHandler.Get)
	mux.HandleFunc("GET /api/summary", bikeHandler.Summary)

	// Export routes
	mux.HandleFunc("GET /gtfs-rt/vehicle-positions", feedHandler.VehiclePositions)

	if svc.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(svc.Gatherer, promhttp.HandlerOpts{}))
	}

	// Apply middleware stack
	handler := Chain(mux,
		Recovery,
		Logging,
		CORS,
		Timeout(timeoutOrDefault(cfg.HTTPTimeout)),
		Instrument(svc.Metrics),
	)

	return handler
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 15 * time.Second
	}
	return d
}
