// Command bikenames fetches the free-bike feed and writes a bike name table.
//
// Names are assigned by feed position: the first bike gets the first pool
// name, and so on. Bikes beyond the pool are labelled Name<n>.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/velivert/velivert/internal/config"
	"github.com/velivert/velivert/internal/names"
	"github.com/velivert/velivert/internal/transit"
)

func main() {
	defaults := config.Defaults()

	url := flag.String("url", envOr("FREE_BIKE_STATUS_URL", defaults.FreeBikeStatusURL), "free_bike_status feed URL")
	out := flag.String("out", envOr("BIKE_NAMES_FILE", defaults.BikeNamesFile), "output file")
	timeout := flag.Duration("timeout", 15*time.Second, "request timeout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := transit.NewGBFSClient(transit.FeedURLs{FreeBikeStatus: *url}, *timeout, transit.WithLogger(logger))
	bikes, err := client.FetchBikes(ctx)
	if err != nil {
		logger.Error("fetching bikes", "url", *url, "error", err)
		os.Exit(1)
	}

	ids := make([]string, len(bikes))
	for i, b := range bikes {
		ids[i] = b.ID
	}

	mapping := names.Assign(ids, names.DefaultPool)
	if err := names.WriteFile(*out, mapping); err != nil {
		logger.Error("writing bike names", "file", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("bike names generated", "bikes", len(ids), "names", len(mapping), "file", *out)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
