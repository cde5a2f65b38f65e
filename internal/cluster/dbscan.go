// Package cluster maintains per-place point clusters and re-estimates their
// centroids as new GPS fixes are confirmed.
package cluster

// Clusterer labels points by density. Implementations return one label per
// input point: -1 for noise, 0..k-1 for cluster membership.
type Clusterer interface {
	Cluster(points [][2]float64, eps float64, minPts int) []int
}

// DBSCANClusterer implements Clusterer with the DBSCAN algorithm using a
// plain pairwise region query. Point histories are small (one per confirmed
// visit), so no spatial index is needed.
type DBSCANClusterer struct{}

// Cluster implements Clusterer.
func (DBSCANClusterer) Cluster(points [][2]float64, eps float64, minPts int) []int {
	n := len(points)
	if n == 0 {
		return nil
	}

	// 0=unvisited, -1=noise, >0=cluster id.
	labels := make([]int, n)
	clusterID := 0

	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}

		neighbors := regionQuery(points, i, eps)
		if len(neighbors) < minPts {
			labels[i] = -1
			continue
		}

		clusterID++
		expandCluster(points, labels, i, neighbors, clusterID, eps, minPts)
	}

	// Shift cluster ids to start at 0, keeping -1 for noise.
	out := make([]int, n)
	for i, label := range labels {
		if label > 0 {
			out[i] = label - 1
		} else {
			out[i] = -1
		}
	}
	return out
}

// regionQuery returns the indices of all points within eps of points[idx],
// including idx itself.
func regionQuery(points [][2]float64, idx int, eps float64) []int {
	eps2 := eps * eps
	p := points[idx]

	var neighbors []int
	for i, q := range points {
		dx := q[0] - p[0]
		dy := q[1] - p[1]
		if dx*dx+dy*dy <= eps2 {
			neighbors = append(neighbors, i)
		}
	}
	return neighbors
}

// expandCluster expands a cluster from a core point using a queue of
// reachable neighbors.
func expandCluster(points [][2]float64, labels []int, seedIdx int, neighbors []int, clusterID int, eps float64, minPts int) {
	labels[seedIdx] = clusterID

	for j := 0; j < len(neighbors); j++ {
		idx := neighbors[j]

		if labels[idx] == -1 {
			labels[idx] = clusterID // noise becomes a border point
		}
		if labels[idx] != 0 {
			continue
		}

		labels[idx] = clusterID
		newNeighbors := regionQuery(points, idx, eps)
		if len(newNeighbors) >= minPts {
			neighbors = append(neighbors, newNeighbors...)
		}
	}
}

// Verify at compile time that DBSCANClusterer implements Clusterer.
var _ Clusterer = DBSCANClusterer{}
