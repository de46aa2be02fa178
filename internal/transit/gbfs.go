// Package transit fetches the GBFS feeds and exports fleet state as GTFS-Realtime
package transit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/velivert/velivert/internal/location"
	"github.com/velivert/velivert/internal/models"
)

// Feed names, used in errors, logs and metric labels
const (
	FeedStationInformation = "station_information"
	FeedStationStatus      = "station_status"
	FeedFreeBikeStatus     = "free_bike_status"
)

const maxFeedBytes = 16 << 20

// FeedURLs locates the three upstream feeds
type FeedURLs struct {
	StationInformation string
	StationStatus      string
	FreeBikeStatus     string
}

// Feeds is the normalized result of one successful FetchAll.
// Slices are never nil.
type Feeds struct {
	StationInfos    []models.StationInfo
	StationStatuses []models.StationStatus
	Bikes           []models.Bike
	LastUpdated     time.Time
}

// GBFSClient fetches and decodes the station and free-bike feeds
type GBFSClient struct {
	urls     FeedURLs
	client   *http.Client
	validate *validator.Validate
	logger   *slog.Logger
}

// ClientOption configures a GBFSClient
type ClientOption func(*GBFSClient)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *GBFSClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithLogger sets the logger used for dropped-record diagnostics
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *GBFSClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewGBFSClient creates a feed client. timeout bounds each request.
func NewGBFSClient(urls FeedURLs, timeout time.Duration, opts ...ClientOption) *GBFSClient {
	c := &GBFSClient{
		urls:     urls,
		client:   &http.Client{Timeout: timeout},
		validate: validator.New(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchAll fetches the three feeds concurrently. Either all three decode
// or the call fails with a *FetchError; partial results are never returned.
func (c *GBFSClient) FetchAll(ctx context.Context) (Feeds, error) {
	var (
		infos     []models.StationInfo
		statuses  []models.StationStatus
		bikes     []models.Bike
		updated   [3]time.Time
		succeeded atomic.Int32
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		v, ts, err := c.fetchStationInformation(gctx)
		if err != nil {
			return err
		}
		infos, updated[0] = v, ts
		succeeded.Add(1)
		return nil
	})
	g.Go(func() error {
		v, ts, err := c.fetchStationStatus(gctx)
		if err != nil {
			return err
		}
		statuses, updated[1] = v, ts
		succeeded.Add(1)
		return nil
	})
	g.Go(func() error {
		v, ts, err := c.fetchFreeBikeStatus(gctx)
		if err != nil {
			return err
		}
		bikes, updated[2] = v, ts
		succeeded.Add(1)
		return nil
	})

	if err := g.Wait(); err != nil {
		if succeeded.Load() > 0 {
			return Feeds{}, partialError(err)
		}
		return Feeds{}, err
	}

	feeds := Feeds{
		StationInfos:    infos,
		StationStatuses: statuses,
		Bikes:           bikes,
	}
	for _, ts := range updated {
		if ts.After(feeds.LastUpdated) {
			feeds.LastUpdated = ts
		}
	}
	return feeds, nil
}

// FetchBikes fetches only the free-bike feed
func (c *GBFSClient) FetchBikes(ctx context.Context) ([]models.Bike, error) {
	bikes, _, err := c.fetchFreeBikeStatus(ctx)
	return bikes, err
}

func (c *GBFSClient) fetchStationInformation(ctx context.Context) ([]models.StationInfo, time.Time, error) {
	var result stationInformationResponse
	if err := c.get(ctx, FeedStationInformation, c.urls.StationInformation, &result); err != nil {
		return nil, time.Time{}, err
	}

	infos := make([]models.StationInfo, 0, len(result.Data.Stations))
	dropped := 0
	for _, rec := range result.Data.Stations {
		if err := c.validate.Struct(rec); err != nil {
			dropped++
			continue
		}
		infos = append(infos, models.StationInfo{
			ID:      string(rec.StationID),
			Name:    rec.Name,
			Address: rec.Address,
			Lat:     *rec.Lat,
			Lon:     *rec.Lon,
		})
	}
	c.logDropped(FeedStationInformation, dropped)

	return infos, unixTime(result.LastUpdated), nil
}

func (c *GBFSClient) fetchStationStatus(ctx context.Context) ([]models.StationStatus, time.Time, error) {
	var result stationStatusResponse
	if err := c.get(ctx, FeedStationStatus, c.urls.StationStatus, &result); err != nil {
		return nil, time.Time{}, err
	}

	statuses := make([]models.StationStatus, 0, len(result.Data.Stations))
	dropped := 0
	for _, rec := range result.Data.Stations {
		if err := c.validate.Struct(rec); err != nil {
			dropped++
			continue
		}
		statuses = append(statuses, models.StationStatus{
			ID:             string(rec.StationID),
			BikesAvailable: rec.NumBikesAvailable,
			DocksAvailable: rec.NumDocksAvailable,
		})
	}
	c.logDropped(FeedStationStatus, dropped)

	return statuses, unixTime(result.LastUpdated), nil
}

func (c *GBFSClient) fetchFreeBikeStatus(ctx context.Context) ([]models.Bike, time.Time, error) {
	var result freeBikeStatusResponse
	if err := c.get(ctx, FeedFreeBikeStatus, c.urls.FreeBikeStatus, &result); err != nil {
		return nil, time.Time{}, err
	}

	bikes := make([]models.Bike, 0, len(result.Data.Bikes))
	dropped := 0
	for _, rec := range result.Data.Bikes {
		if err := c.validate.Struct(rec); err != nil {
			dropped++
			continue
		}
		bike := models.Bike{
			ID:            string(rec.BikeID),
			IsReserved:    bool(rec.IsReserved),
			IsDisabled:    bool(rec.IsDisabled),
			VehicleTypeID: string(rec.VehicleTypeID),
			StationID:     string(rec.StationID),
		}
		// a bike without a usable position is still part of the fleet
		if rec.Lat != nil && rec.Lon != nil && location.Valid(*rec.Lat, *rec.Lon) {
			bike.Position = &models.Coord{Lat: *rec.Lat, Lon: *rec.Lon}
		}
		bikes = append(bikes, bike)
	}
	c.logDropped(FeedFreeBikeStatus, dropped)

	return bikes, unixTime(result.LastUpdated), nil
}

// get performs the request and decodes a validated envelope into dst
func (c *GBFSClient) get(ctx context.Context, feed, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return networkError(feed, fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return networkError(feed, fmt.Errorf("fetching feed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return networkError(feed, fmt.Errorf("feed returned status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedBytes)).Decode(dst); err != nil {
		if ctx.Err() != nil {
			return networkError(feed, fmt.Errorf("reading response: %w", err))
		}
		return decodeError(feed, fmt.Errorf("parsing response: %w", err))
	}
	if err := c.validate.Struct(dst); err != nil {
		return decodeError(feed, fmt.Errorf("invalid envelope: %w", err))
	}
	return nil
}

func (c *GBFSClient) logDropped(feed string, n int) {
	if n == 0 {
		return
	}
	c.logger.Warn("dropped invalid feed records", "feed", feed, "count", n)
}

func unixTime(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// API response structures
type stationInformationResponse struct {
	LastUpdated int64 `json:"last_updated"`
	Data        *struct {
		Stations []stationInformationRecord `json:"stations"`
	} `json:"data" validate:"required"`
}

type stationInformationRecord struct {
	StationID flexString `json:"station_id" validate:"required"`
	Name      string     `json:"name"`
	Address   string     `json:"address"`
	Lat       *float64   `json:"lat" validate:"required,latitude"`
	Lon       *float64   `json:"lon" validate:"required,longitude"`
}

type stationStatusResponse struct {
	LastUpdated int64 `json:"last_updated"`
	Data        *struct {
		Stations []stationStatusRecord `json:"stations"`
	} `json:"data" validate:"required"`
}

type stationStatusRecord struct {
	StationID         flexString `json:"station_id" validate:"required"`
	NumBikesAvailable int        `json:"num_bikes_available"`
	NumDocksAvailable int        `json:"num_docks_available"`
}

type freeBikeStatusResponse struct {
	LastUpdated int64 `json:"last_updated"`
	Data        *struct {
		Bikes []freeBikeRecord `json:"bikes"`
	} `json:"data" validate:"required"`
}

type freeBikeRecord struct {
	BikeID        flexString `json:"bike_id" validate:"required"`
	Lat           *float64   `json:"lat"`
	Lon           *float64   `json:"lon"`
	IsReserved    flexBool   `json:"is_reserved"`
	IsDisabled    flexBool   `json:"is_disabled"`
	VehicleTypeID flexString `json:"vehicle_type_id"`
	StationID     flexString `json:"station_id"`
}
