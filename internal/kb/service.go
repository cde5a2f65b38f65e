// Package kb maintains the knowledge base of confirmed places: each
// confirmed GPS fix refines the place's centroid through the cluster engine,
// and nearby lookups back the resolver's knowledge-base capability.
package kb

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/trailpost/trailpost/internal/cluster"
	"github.com/trailpost/trailpost/internal/resolve"
	"github.com/trailpost/trailpost/internal/store"
	"github.com/trailpost/trailpost/pkg/geo"
)

// Service owns observation confirmation and knowledge-base queries.
type Service struct {
	store      store.Store
	engine     *cluster.Engine
	maxHistory int // 0 = unbounded
}

// NewService creates a Service. maxHistory caps each place's stored point
// history; zero keeps every point ever observed.
func NewService(st store.Store, engine *cluster.Engine, maxHistory int) *Service {
	return &Service{store: st, engine: engine, maxHistory: maxHistory}
}

// AddObservation records a confirmed fix at the named place, re-estimates
// the centroid over the extended history and persists the result.
func (s *Service) AddObservation(ctx context.Context, label string, point geo.Point) (*store.Place, error) {
	place, err := s.store.GetPlace(ctx, label)
	if err != nil {
		return nil, err
	}
	if place == nil {
		place = &store.Place{Label: label}
	}

	centroid, history := s.engine.UpdateCentroid(point, place.History)

	// The retention cap applies to what is persisted, after the centroid
	// has been computed over the full extended history.
	if s.maxHistory > 0 && len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}

	place.Centroid = centroid
	place.History = history
	if err := s.store.SavePlace(ctx, place); err != nil {
		return nil, err
	}

	zap.L().Debug("observation recorded",
		zap.String("label", label),
		zap.Int("history", len(history)),
		zap.Float64("centroid_lat", centroid.Lat),
		zap.Float64("centroid_lon", centroid.Lon),
	)
	return place, nil
}

// Query is the resolver's knowledge-base capability: places whose centroid
// lies within maxDistance meters of point, closest first.
func (s *Service) Query(ctx context.Context, point geo.Point, maxDistance float64) ([]resolve.Match, error) {
	nearby, err := s.store.QueryNearby(ctx, point, maxDistance)
	if err != nil {
		return nil, err
	}
	matches := make([]resolve.Match, len(nearby))
	for i, p := range nearby {
		matches[i] = resolve.Match{Label: p.Label, Centroid: p.Centroid}
	}
	return matches, nil
}

// List returns every known place ordered by label.
func (s *Service) List(ctx context.Context) ([]store.Place, error) {
	return s.store.ListPlaces(ctx)
}

// seedEntry is one place in a YAML seed file.
type seedEntry struct {
	Label string  `yaml:"label"`
	Lat   float64 `yaml:"lat"`
	Lon   float64 `yaml:"lon"`
}

// ImportSeed loads places from a YAML document of the form
//
//	- label: Coffee house
//	  lat: 38.7223
//	  lon: -9.1393
//
// recording each entry as one observation. Returns the number imported.
func (s *Service) ImportSeed(ctx context.Context, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, eris.Wrap(err, "kb: read seed")
	}

	var entries []seedEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return 0, eris.Wrap(err, "kb: parse seed")
	}

	for i, e := range entries {
		if e.Label == "" {
			return i, eris.Errorf("kb: seed entry %d has no label", i)
		}
		if _, err := s.AddObservation(ctx, e.Label, geo.NewPoint(e.Lat, e.Lon)); err != nil {
			return i, eris.Wrapf(err, "kb: import %q", e.Label)
		}
	}
	return len(entries), nil
}
