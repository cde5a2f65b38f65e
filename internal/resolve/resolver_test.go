package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailpost/trailpost/internal/model"
	"github.com/trailpost/trailpost/pkg/geo"
	"github.com/trailpost/trailpost/pkg/places"
)

// stubProvider returns canned candidates and records whether it was called.
type stubProvider struct {
	name       string
	candidates []places.Candidate
	err        error
	calls      int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Nearby(context.Context, geo.Point, float64) ([]places.Candidate, error) {
	s.calls++
	return s.candidates, s.err
}

// kbAt builds a KBQuery returning matches at fixed distances north of the
// query point, labeled by the given names.
func kbReturning(matches []Match) KBQuery {
	return func(context.Context, geo.Point, float64) ([]Match, error) {
		return matches, nil
	}
}

// pointAtMeters returns a point approximately the given number of meters
// north of the origin.
func pointAtMeters(meters float64) geo.Point {
	return geo.NewPoint(meters/111320.0, 0)
}

func TestInfer_MergeOrdering(t *testing.T) {
	origin := geo.NewPoint(0, 0)
	kb := kbReturning([]Match{
		{Label: "kb-far", Centroid: pointAtMeters(50)},
		{Label: "kb-near", Centroid: pointAtMeters(10)},
	})
	api := &stubProvider{name: "google", candidates: []places.Candidate{
		{Label: "api-5", Distance: 5, SuggestionType: places.SuggestionGoogle},
		{Label: "api-30", Distance: 30, SuggestionType: places.SuggestionGoogle},
	}}

	r := NewResolver(100, 3, WithKB(kb), WithProviders(api))
	loc, err := r.Infer(context.Background(), origin)
	require.NoError(t, err)

	// KB candidates rank first regardless of distance; API candidates
	// follow, and the merged list is truncated to the limit.
	require.Len(t, loc.Alternatives, 3)
	assert.Equal(t, "kb-near", loc.Alternatives[0].Label)
	assert.Equal(t, "kb-far", loc.Alternatives[1].Label)
	assert.Equal(t, "api-5", loc.Alternatives[2].Label)
	assert.Equal(t, "kb-near", loc.Label)
	assert.Equal(t, origin, loc.Centroid)
}

func TestInfer_EmptyKBBranchUntruncated(t *testing.T) {
	api := &stubProvider{name: "google", candidates: []places.Candidate{
		{Label: "c", Distance: 40},
		{Label: "a", Distance: 5},
		{Label: "b", Distance: 20},
	}}

	r := NewResolver(100, 1, WithProviders(api))
	loc, err := r.Infer(context.Background(), geo.NewPoint(0, 0))
	require.NoError(t, err)

	assert.Equal(t, model.UnknownLabel, loc.Label)
	require.Len(t, loc.Alternatives, 3)
	assert.Equal(t, "a", loc.Alternatives[0].Label)
	assert.Equal(t, "b", loc.Alternatives[1].Label)
	assert.Equal(t, "c", loc.Alternatives[2].Label)
}

func TestInfer_KBFillsBudgetSkipsProviders(t *testing.T) {
	kb := kbReturning([]Match{
		{Label: "one", Centroid: pointAtMeters(10)},
		{Label: "two", Centroid: pointAtMeters(20)},
		{Label: "three", Centroid: pointAtMeters(30)},
	})
	api := &stubProvider{name: "google", candidates: []places.Candidate{{Label: "never", Distance: 1}}}

	r := NewResolver(100, 2, WithKB(kb), WithProviders(api))
	loc, err := r.Infer(context.Background(), geo.NewPoint(0, 0))
	require.NoError(t, err)

	assert.Zero(t, api.calls)
	require.Len(t, loc.Alternatives, 2)
	assert.Equal(t, "one", loc.Label)
}

func TestInfer_ProvidersQueriedInOrder(t *testing.T) {
	google := &stubProvider{name: "google", candidates: []places.Candidate{
		{Label: "g", Distance: 10, SuggestionType: places.SuggestionGoogle},
	}}
	foursquare := &stubProvider{name: "foursquare", candidates: []places.Candidate{
		{Label: "f", Distance: 10, SuggestionType: places.SuggestionFoursquare},
	}}

	r := NewResolver(100, 5, WithProviders(google, foursquare))
	loc, err := r.Infer(context.Background(), geo.NewPoint(0, 0))
	require.NoError(t, err)

	// Equal distances: the stable sort keeps Google's entry ahead.
	require.Len(t, loc.Alternatives, 2)
	assert.Equal(t, places.SuggestionGoogle, loc.Alternatives[0].SuggestionType)
	assert.Equal(t, places.SuggestionFoursquare, loc.Alternatives[1].SuggestionType)
}

func TestInfer_ProviderErrorDegrades(t *testing.T) {
	failing := &stubProvider{name: "google", err: context.Canceled}
	working := &stubProvider{name: "foursquare", candidates: []places.Candidate{
		{Label: "ok", Distance: 7},
	}}

	r := NewResolver(100, 5, WithProviders(failing, working))
	loc, err := r.Infer(context.Background(), geo.NewPoint(0, 0))
	require.NoError(t, err)

	require.Len(t, loc.Alternatives, 1)
	assert.Equal(t, "ok", loc.Alternatives[0].Label)
}

func TestInfer_NoSourcesAtAll(t *testing.T) {
	r := NewResolver(100, 3)
	loc, err := r.Infer(context.Background(), geo.NewPoint(1, 2))
	require.NoError(t, err)

	assert.Equal(t, model.UnknownLabel, loc.Label)
	assert.Empty(t, loc.Alternatives)
	assert.Equal(t, 1.0, loc.Centroid.Lat)
}

func TestInfer_ZeroLimitWithKB(t *testing.T) {
	kb := kbReturning([]Match{{Label: "somewhere", Centroid: pointAtMeters(10)}})

	r := NewResolver(100, 0, WithKB(kb))
	loc, err := r.Infer(context.Background(), geo.NewPoint(0, 0))
	require.NoError(t, err)

	// Truncation to zero leaves no alternatives; the label falls back to
	// the unknown sentinel rather than pointing at a dropped entry.
	assert.Equal(t, model.UnknownLabel, loc.Label)
	assert.Empty(t, loc.Alternatives)
}
