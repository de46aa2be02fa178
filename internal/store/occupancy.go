// Package store archives station occupancy to Postgres
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/velivert/velivert/internal/models"
)

const defaultOccupancyTable = "station_occupancy"

// ErrNilDB is returned when the repository has no database handle
var ErrNilDB = errors.New("occupancy repo: nil db")

// OccupancySample is one archived station count
type OccupancySample struct {
	CycleID        string    `json:"cycle_id"`
	StationID      string    `json:"station_id"`
	BikesAvailable int       `json:"num_bikes_available"`
	DocksAvailable int       `json:"num_docks_available"`
	FetchedAt      time.Time `json:"fetched_at"`
}

// OccupancyRepository appends snapshot station counts to a Postgres table
type OccupancyRepository struct {
	db    *sql.DB
	table string
}

// RepositoryOption configures the repository
type RepositoryOption func(*OccupancyRepository)

// WithTable overrides the default table name
func WithTable(table string) RepositoryOption {
	return func(repo *OccupancyRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Open connects to Postgres through the pgx stdlib driver and pings it
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// NewOccupancyRepository constructs a repository with the default table name
func NewOccupancyRepository(db *sql.DB, opts ...RepositoryOption) *OccupancyRepository {
	repo := &OccupancyRepository{db: db, table: defaultOccupancyTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// EnsureSchema creates the archive table if it does not exist
func (r *OccupancyRepository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return ErrNilDB
	}

	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	cycle_id TEXT NOT NULL,
	station_id TEXT NOT NULL,
	bikes_available INTEGER NOT NULL,
	docks_available INTEGER NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (cycle_id, station_id)
)`, r.table)

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", r.table, err)
	}
	return nil
}

// RecordSnapshot appends the station counts of snap. Re-recording the same
// cycle is a no-op.
func (r *OccupancyRepository) RecordSnapshot(ctx context.Context, snap models.Snapshot) error {
	if r == nil || r.db == nil {
		return ErrNilDB
	}
	if snap.CycleID == "" {
		return errors.New("occupancy repo: snapshot without cycle id")
	}
	if len(snap.Stations) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	cycle_id,
	station_id,
	bikes_available,
	docks_available,
	fetched_at
) VALUES (
	$1, $2, $3, $4, $5
)
ON CONFLICT (cycle_id, station_id) DO NOTHING`, r.table)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, s := range snap.Stations {
		if _, err := stmt.ExecContext(
			ctx,
			snap.CycleID,
			s.ID,
			s.BikesAvailable,
			s.DocksAvailable,
			snap.FetchedAt,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// History returns the most recent samples of a station, newest first
func (r *OccupancyRepository) History(ctx context.Context, stationID string, limit int) ([]OccupancySample, error) {
	if r == nil || r.db == nil {
		return nil, ErrNilDB
	}
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
SELECT cycle_id, station_id, bikes_available, docks_available, fetched_at
FROM %s
WHERE station_id = $1
ORDER BY fetched_at DESC
LIMIT $2`, r.table)

	rows, err := r.db.QueryContext(ctx, query, stationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := make([]OccupancySample, 0, limit)
	for rows.Next() {
		var s OccupancySample
		if err := rows.Scan(&s.CycleID, &s.StationID, &s.BikesAvailable, &s.DocksAvailable, &s.FetchedAt); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}
