package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailpost/trailpost/pkg/geo"
)

func TestUpdateCentroid_DominantCluster(t *testing.T) {
	// Two confirmed fixes at the place plus two stray fixes elsewhere;
	// the new observation makes the near group three strong.
	history := []geo.Point{
		geo.NewPoint(0, 0),
		geo.NewPoint(0.00001, 0),
		geo.NewPoint(0.01, 0.01),
		geo.NewPoint(0.01001, 0.01),
	}
	newPoint := geo.NewPoint(0.00002, 0)

	engine := NewEngine(10, 2)
	centroid, updated := engine.UpdateCentroid(newPoint, history)

	require.Len(t, updated, 5)
	assert.Equal(t, newPoint, updated[4])

	// Centroid of the three-point group, not of everything.
	assert.InDelta(t, 0.00001, centroid.Lat, 1e-9)
	assert.InDelta(t, 0.0, centroid.Lon, 1e-9)
}

func TestUpdateCentroid_AllNoiseFallsBackToFullMean(t *testing.T) {
	// Every point is mutually farther apart than a 1 m radius allows.
	history := []geo.Point{
		geo.NewPoint(0, 0),
		geo.NewPoint(0.001, 0),
	}
	newPoint := geo.NewPoint(0.002, 0)

	engine := NewEngine(1, 2)
	centroid, updated := engine.UpdateCentroid(newPoint, history)

	require.Len(t, updated, 3)
	assert.InDelta(t, 0.001, centroid.Lat, 1e-9)
	assert.InDelta(t, 0.0, centroid.Lon, 1e-9)
}

func TestUpdateCentroid_SinglePointHistory(t *testing.T) {
	engine := NewEngine(30, 2)
	centroid, updated := engine.UpdateCentroid(geo.NewPoint(38.7223, -9.1393), nil)

	require.Len(t, updated, 1)
	assert.InDelta(t, 38.7223, centroid.Lat, 1e-9)
	assert.InDelta(t, -9.1393, centroid.Lon, 1e-9)
}

// stubClusterer returns a fixed label assignment.
type stubClusterer struct {
	labels []int
}

func (s stubClusterer) Cluster([][2]float64, float64, int) []int {
	return s.labels
}

func TestUpdateCentroid_TieBreakPrefersLowestLabel(t *testing.T) {
	history := []geo.Point{
		geo.NewPoint(10, 10),
		geo.NewPoint(20, 20),
		geo.NewPoint(30, 30),
	}
	newPoint := geo.NewPoint(40, 40)

	// Two clusters of equal size; label 0 must win regardless of the
	// order labels appear in.
	engine := NewEngine(10, 2, WithClusterer(stubClusterer{labels: []int{1, 1, 0, 0}}))
	centroid, _ := engine.UpdateCentroid(newPoint, history)

	assert.InDelta(t, 35, centroid.Lat, 1e-9)
	assert.InDelta(t, 35, centroid.Lon, 1e-9)
}

func TestUpdateCentroid_NoiseExcludedFromCentroid(t *testing.T) {
	history := []geo.Point{
		geo.NewPoint(0, 0),
		geo.NewPoint(0.0002, 0),
	}
	newPoint := geo.NewPoint(100, 100)

	engine := NewEngine(10, 2, WithClusterer(stubClusterer{labels: []int{0, 0, -1}}))
	centroid, updated := engine.UpdateCentroid(newPoint, history)

	// The stray point stays in the history but not in the centroid.
	require.Len(t, updated, 3)
	assert.InDelta(t, 0.0001, centroid.Lat, 1e-9)
	assert.InDelta(t, 0.0, centroid.Lon, 1e-9)
}

func TestUpdateCentroid_BadClustererLengthTreatedAsNoise(t *testing.T) {
	history := []geo.Point{geo.NewPoint(0, 0)}
	newPoint := geo.NewPoint(0.002, 0)

	engine := NewEngine(10, 2, WithClusterer(stubClusterer{labels: []int{0}}))
	centroid, _ := engine.UpdateCentroid(newPoint, history)

	// Label count mismatch degrades to the all-points fallback.
	assert.InDelta(t, 0.001, centroid.Lat, 1e-9)
}
