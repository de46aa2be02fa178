package handlers

import (
	"context"
	"time"

	"github.com/velivert/velivert/internal/models"
	"github.com/velivert/velivert/internal/poller"
	"github.com/velivert/velivert/internal/store"
)

// SnapshotProvider abstracts the poller's published snapshot for testability.
type SnapshotProvider interface {
	Current() models.Snapshot
}

// StatusProvider exposes the poller lifecycle for health checks.
type StatusProvider interface {
	State() poller.State
	LastAttempt() time.Time
}

// NameStats describes the loaded bike name table.
type NameStats interface {
	IsLoaded() bool
	Count() int
}

// CacheStats describes the derived-view cache.
type CacheStats interface {
	Size() int
	HitRate() float64
}

// HistoryProvider abstracts the occupancy archive. It is optional.
type HistoryProvider interface {
	History(ctx context.Context, stationID string, limit int) ([]store.OccupancySample, error)
}
