package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/trailpost/trailpost/pkg/geo"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock
// satisfies it in tests.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool creates a PostgresStore around an existing pool.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: func() {}}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS places (
	id         UUID PRIMARY KEY,
	label      TEXT NOT NULL UNIQUE,
	lat        DOUBLE PRECISION NOT NULL,
	lon        DOUBLE PRECISION NOT NULL,
	history    BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_places_label ON places(label);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.closeFn()
	return nil
}

func (s *PostgresStore) GetPlace(ctx context.Context, label string) (*Place, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, label, lat, lon, history, created_at, updated_at FROM places WHERE label = $1`,
		label,
	)
	place, err := scanPlace(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get place")
	}
	return place, nil
}

func (s *PostgresStore) SavePlace(ctx context.Context, place *Place) error {
	if place.ID == "" {
		place.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if place.CreatedAt.IsZero() {
		place.CreatedAt = now
	}
	place.UpdatedAt = now

	history, err := encodeHistory(place.History)
	if err != nil {
		return eris.Wrap(err, "postgres: encode history")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO places (id, label, lat, lon, history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (label) DO UPDATE SET
			lat        = EXCLUDED.lat,
			lon        = EXCLUDED.lon,
			history    = EXCLUDED.history,
			updated_at = EXCLUDED.updated_at`,
		place.ID, place.Label, place.Centroid.Lat, place.Centroid.Lon, history,
		place.CreatedAt, place.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: save place")
}

func (s *PostgresStore) ListPlaces(ctx context.Context) ([]Place, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, label, lat, lon, history, created_at, updated_at FROM places ORDER BY label`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list places")
	}
	defer rows.Close()

	var out []Place
	for rows.Next() {
		place, err := scanPlace(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan place")
		}
		out = append(out, *place)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate places")
	}
	return out, nil
}

func (s *PostgresStore) QueryNearby(ctx context.Context, point geo.Point, maxDistance float64) ([]Place, error) {
	all, err := s.ListPlaces(ctx)
	if err != nil {
		return nil, err
	}
	return filterNearby(all, point, maxDistance), nil
}

// Verify at compile time that *PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
