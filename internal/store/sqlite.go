package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/trailpost/trailpost/pkg/geo"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS places (
	id         TEXT PRIMARY KEY,
	label      TEXT NOT NULL UNIQUE,
	lat        REAL NOT NULL,
	lon        REAL NOT NULL,
	history    BLOB NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_places_label ON places(label);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetPlace(ctx context.Context, label string) (*Place, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, label, lat, lon, history, created_at, updated_at FROM places WHERE label = ?`,
		label,
	)
	place, err := scanPlace(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get place")
	}
	return place, nil
}

func (s *SQLiteStore) SavePlace(ctx context.Context, place *Place) error {
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
		return eris.Wrap(err, "sqlite: encode history")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO places (id, label, lat, lon, history, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (label) DO UPDATE SET
			lat        = excluded.lat,
			lon        = excluded.lon,
			history    = excluded.history,
			updated_at = excluded.updated_at`,
		place.ID, place.Label, place.Centroid.Lat, place.Centroid.Lon, history,
		place.CreatedAt, place.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: save place")
}

func (s *SQLiteStore) ListPlaces(ctx context.Context) ([]Place, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, lat, lon, history, created_at, updated_at FROM places ORDER BY label`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list places")
	}
	defer rows.Close()

	var out []Place
	for rows.Next() {
		place, err := scanPlace(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan place")
		}
		out = append(out, *place)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate places")
	}
	return out, nil
}

func (s *SQLiteStore) QueryNearby(ctx context.Context, point geo.Point, maxDistance float64) ([]Place, error) {
	all, err := s.ListPlaces(ctx)
	if err != nil {
		return nil, err
	}
	return filterNearby(all, point, maxDistance), nil
}

// scanPlace reads one place row via the given scan function.
func scanPlace(scan func(dest ...any) error) (*Place, error) {
	var p Place
	var history []byte
	if err := scan(&p.ID, &p.Label, &p.Centroid.Lat, &p.Centroid.Lon, &history, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	decoded, err := decodeHistory(history)
	if err != nil {
		return nil, err
	}
	p.History = decoded
	return &p, nil
}

// Verify at compile time that *SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
