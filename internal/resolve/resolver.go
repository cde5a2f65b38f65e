// Package resolve merges knowledge-base matches and provider candidates into
// a single ranked Location for a query point.
package resolve

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/trailpost/trailpost/internal/model"
	"github.com/trailpost/trailpost/pkg/geo"
	"github.com/trailpost/trailpost/pkg/places"
)

// Match is a single knowledge-base result: a confirmed label and the
// centroid of its point cluster.
type Match struct {
	Label    string
	Centroid geo.Point
}

// KBQuery is the knowledge-base lookup capability. It returns the places
// whose centroid lies within maxDistance meters of point; no matches is an
// empty slice, never an error.
type KBQuery func(ctx context.Context, point geo.Point, maxDistance float64) ([]Match, error)

// Resolver infers the semantic location of a point. Knowledge-base matches
// are authoritative: they are ranked first and providers are only consulted
// when the knowledge base alone does not fill the result limit.
type Resolver struct {
	kb          KBQuery
	providers   []places.Provider
	maxDistance float64
	limit       int
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithKB supplies the knowledge-base query capability.
func WithKB(kb KBQuery) Option {
	return func(r *Resolver) {
		r.kb = kb
	}
}

// WithProviders sets the external providers, queried in the given order.
func WithProviders(providers ...places.Provider) Option {
	return func(r *Resolver) {
		r.providers = providers
	}
}

// NewResolver creates a Resolver with the given search radius (meters) and
// result limit.
func NewResolver(maxDistance float64, limit int, opts ...Option) *Resolver {
	r := &Resolver{maxDistance: maxDistance, limit: limit}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Infer resolves point to a Location. Provider failures degrade to missing
// candidates; only a knowledge-base failure is returned as an error.
func (r *Resolver) Infer(ctx context.Context, point geo.Point) (model.Location, error) {
	var kbCandidates []places.Candidate
	if r.kb != nil {
		matches, err := r.kb(ctx, point, r.maxDistance)
		if err != nil {
			return model.Location{}, eris.Wrap(err, "resolve: knowledge base query")
		}
		for _, m := range matches {
			kbCandidates = append(kbCandidates, places.Candidate{
				Label:          m.Label,
				Distance:       m.Centroid.Distance(point),
				SuggestionType: places.SuggestionKB,
			})
		}
	}

	// Providers only supplement sparse local knowledge: skip them entirely
	// once the knowledge base already fills the result budget.
	var apiCandidates []places.Candidate
	if len(kbCandidates) <= r.limit {
		for _, p := range r.providers {
			candidates, err := p.Nearby(ctx, point, r.maxDistance)
			if err != nil {
				zap.L().Warn("provider query failed",
					zap.String("provider", p.Name()),
					zap.Error(err),
				)
				continue
			}
			apiCandidates = append(apiCandidates, candidates...)
		}
	}

	sortByDistance(apiCandidates)

	if len(kbCandidates) == 0 {
		// No truncation on this branch: without local knowledge every
		// provider suggestion is kept.
		return model.Location{
			Label:        model.UnknownLabel,
			Centroid:     point,
			Alternatives: apiCandidates,
		}, nil
	}

	sortByDistance(kbCandidates)
	merged := append(kbCandidates, apiCandidates...)
	if len(merged) > r.limit {
		merged = merged[:r.limit]
	}

	label := model.UnknownLabel
	if len(merged) > 0 {
		label = merged[0].Label
	}
	return model.Location{
		Label:        label,
		Centroid:     point,
		Alternatives: merged,
	}, nil
}

// sortByDistance sorts candidates ascending by distance, keeping the
// incoming order of equal-distance entries.
func sortByDistance(candidates []places.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
}
