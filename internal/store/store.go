// Package store persists the knowledge base: named places, their
// best-estimate centroids and the point histories backing them.
package store

import (
	"context"
	"sort"
	"time"

	geomlib "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"

	"github.com/trailpost/trailpost/pkg/geo"
)

// Place is a named location with its accumulated point cluster.
type Place struct {
	ID        string
	Label     string
	Centroid  geo.Point
	History   []geo.Point
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store defines the knowledge-base persistence interface.
type Store interface {
	// GetPlace returns the place with the given label, or (nil, nil) when
	// no such place exists.
	GetPlace(ctx context.Context, label string) (*Place, error)

	// SavePlace inserts or updates a place keyed by label.
	SavePlace(ctx context.Context, place *Place) error

	// ListPlaces returns all places ordered by label.
	ListPlaces(ctx context.Context) ([]Place, error)

	// QueryNearby returns the places whose centroid lies within maxDistance
	// meters of point, closest first. No matches is an empty slice.
	QueryNearby(ctx context.Context, point geo.Point, maxDistance float64) ([]Place, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// filterNearby keeps places whose centroid is within maxDistance meters of
// point and orders them closest first. Shared by both backends so their
// query semantics cannot drift apart.
func filterNearby(all []Place, point geo.Point, maxDistance float64) []Place {
	nearby := make([]Place, 0)
	for _, p := range all {
		if p.Centroid.Distance(point) <= maxDistance {
			nearby = append(nearby, p)
		}
	}
	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].Centroid.Distance(point) < nearby[j].Centroid.Distance(point)
	})
	return nearby
}

// encodeHistory packs a point history into a WKB MultiPoint. Timestamps are
// not part of the geometry and are not persisted.
func encodeHistory(history []geo.Point) ([]byte, error) {
	coords := make([]geomlib.Coord, len(history))
	for i, p := range history {
		coords[i] = geomlib.Coord{p.Lon, p.Lat}
	}
	mp := geomlib.NewMultiPoint(geomlib.XY)
	if _, err := mp.SetCoords(coords); err != nil {
		return nil, err
	}
	return wkb.Marshal(mp, wkb.NDR)
}

// decodeHistory unpacks a WKB MultiPoint into a point history.
func decodeHistory(data []byte) ([]geo.Point, error) {
	if len(data) == 0 {
		return nil, nil
	}
	g, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	mp, ok := g.(*geomlib.MultiPoint)
	if !ok {
		return nil, nil
	}
	coords := mp.Coords()
	history := make([]geo.Point, len(coords))
	for i, c := range coords {
		history[i] = geo.NewPoint(c[1], c[0])
	}
	return history, nil
}
