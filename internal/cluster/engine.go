package cluster

import (
	"sort"

	"github.com/trailpost/trailpost/pkg/geo"
)

// epsilonPrecision is the number of decimal digits the meters-to-degrees
// epsilon estimate is rounded to.
const epsilonPrecision = 6

// Engine re-estimates a place's centroid from its accumulated point history.
// It performs no I/O and is safe to use concurrently across distinct places;
// a single place's history must not be updated concurrently.
type Engine struct {
	clusterer   Clusterer
	maxDistance float64 // max neighbor distance, meters
	minSamples  int
}

// Option configures the Engine.
type Option func(*Engine)

// WithClusterer replaces the default DBSCAN clusterer.
func WithClusterer(c Clusterer) Option {
	return func(e *Engine) {
		e.clusterer = c
	}
}

// NewEngine creates an Engine with the given density parameters.
func NewEngine(maxDistance float64, minSamples int, opts ...Option) *Engine {
	e := &Engine{
		clusterer:   DBSCANClusterer{},
		maxDistance: maxDistance,
		minSamples:  minSamples,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// UpdateCentroid appends point to history, re-clusters the extended history
// and returns the best-estimate centroid together with the updated history.
// The centroid is the mean of the largest density cluster; when every point
// is classified as noise the mean of the whole history is used instead, so
// a centroid is always produced. The history is never shrunk here.
func (e *Engine) UpdateCentroid(point geo.Point, history []geo.Point) (geo.Point, []geo.Point) {
	history = append(history, point)

	coords := make([][2]float64, len(history))
	for i, p := range history {
		coords[i] = p.LonLat()
	}

	eps := geo.MetersToDegrees(e.maxDistance, point.Lat, epsilonPrecision)
	labels := e.clusterer.Cluster(coords, eps, e.minSamples)
	if len(labels) != len(coords) {
		// A degenerate clusterer result is treated as all-noise.
		labels = nil
	}

	groups := make(map[int][][2]float64)
	for i, label := range labels {
		groups[label] = append(groups[label], coords[i])
	}

	// Largest non-noise cluster wins; on equal sizes the lowest label does.
	clusterLabels := make([]int, 0, len(groups))
	for label := range groups {
		if label >= 0 {
			clusterLabels = append(clusterLabels, label)
		}
	}
	sort.Ints(clusterLabels)

	bestSize := 0
	best := -1
	for _, label := range clusterLabels {
		if len(groups[label]) > bestSize {
			bestSize = len(groups[label])
			best = label
		}
	}

	if best < 0 {
		return meanCenter(coords), history
	}
	return meanCenter(groups[best]), history
}

// meanCenter returns the arithmetic mean of (lon, lat) coordinates as a
// Point. A planar approximation, fine at meters-scale cluster radii.
func meanCenter(coords [][2]float64) geo.Point {
	var sumLon, sumLat float64
	for _, c := range coords {
		sumLon += c[0]
		sumLat += c[1]
	}
	n := float64(len(coords))
	return geo.NewPoint(sumLat/n, sumLon/n)
}
