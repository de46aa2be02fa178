// Package main is the entry point for the velivert server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/velivert/velivert/internal/api"
	"github.com/velivert/velivert/internal/config"
	"github.com/velivert/velivert/internal/metrics"
	"github.com/velivert/velivert/internal/names"
	"github.com/velivert/velivert/internal/poller"
	"github.com/velivert/velivert/internal/store"
	"github.com/velivert/velivert/internal/transit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Configuration error: ", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Configuration error: ", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	bikeNames := names.NewTable()
	if err := bikeNames.Load(cfg.BikeNamesFile); err != nil {
		logger.Warn("bike names unavailable, showing raw ids", "file", cfg.BikeNamesFile, "error", err)
	} else {
		logger.Info("loaded bike names", "count", bikeNames.Count())
	}

	client := transit.NewGBFSClient(transit.FeedURLs{
		StationInformation: cfg.StationInformationURL,
		StationStatus:      cfg.StationStatusURL,
		FreeBikeStatus:     cfg.FreeBikeStatusURL,
	}, cfg.HTTPTimeout, transit.WithLogger(logger))

	opts := []poller.Option{
		poller.WithInterval(cfg.PollInterval),
		poller.WithTimeout(cfg.FetchTimeout),
		poller.WithLogger(logger),
		poller.WithMetrics(m),
	}

	svc := api.Services{
		Names:    bikeNames,
		Metrics:  m,
		Gatherer: reg,
	}

	if cfg.DatabaseURL != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to archive: %w", err)
		}
		defer db.Close()

		repo := store.NewOccupancyRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		opts = append(opts, poller.WithRecorder(repo))
		svc.History = repo
		logger.Info("occupancy archive enabled")
	}

	p := poller.New(client, opts...)
	svc.Snapshots = p
	svc.Status = p

	if err := p.Start(ctx); err != nil {
		return err
	}
	defer p.Stop()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(cfg, svc),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.IsDevelopment() {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts)).With("service", "velivert")
}
