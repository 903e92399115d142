package location

import (
	"math/rand/v2"
	"time"

	"github.com/kosarica/network-optimizer/internal/geo"
)

const (
	DefaultClusterIterations  = 100
	DefaultCentroidIterations = 100
	// DefaultCentroidToleranceKm stops the Weiszfeld iteration once the center
	// moves less than this between steps.
	DefaultCentroidToleranceKm = 1e-4
	// DefaultMoveThresholdKm ends clustering once no center moves further.
	DefaultMoveThresholdKm = 0.01

	coincidenceKm = 1e-9
)

// ClusterStatus reports how a clustering run ended.
type ClusterStatus string

const (
	StatusConverged           ClusterStatus = "converged"
	StatusIterationCapReached ClusterStatus = "iteration_cap_reached"
)

// ClusterOptions tunes the clusterer. Zero values take the defaults.
type ClusterOptions struct {
	MaxIterations         int
	CentroidMaxIterations int
	CentroidToleranceKm   float64
	MoveThresholdKm       float64
	// Rand drives the initial center selection. Nil seeds from the clock.
	Rand *rand.Rand
}

func (o ClusterOptions) withDefaults() ClusterOptions {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultClusterIterations
	}
	if o.CentroidMaxIterations <= 0 {
		o.CentroidMaxIterations = DefaultCentroidIterations
	}
	if o.CentroidToleranceKm <= 0 {
		o.CentroidToleranceKm = DefaultCentroidToleranceKm
	}
	if o.MoveThresholdKm <= 0 {
		o.MoveThresholdKm = DefaultMoveThresholdKm
	}
	if o.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		o.Rand = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return o
}

// Cluster is a group of customers around a center.
type Cluster struct {
	Center      geo.Coordinate
	Members     []int // indexes into the clustered customers
	TotalDemand float64
}

// ClusterResult is the output of ClusterCustomers.
type ClusterResult struct {
	Clusters   []Cluster
	Iterations int
	Status     ClusterStatus
}

// ClusterCustomers partitions customers into at most k demand-weighted clusters.
// Initial centers are k distinct customer locations drawn from opts.Rand,
// so k is capped by the number of distinct locations. Each round
// assigns every customer to its nearest center and moves each center to the
// geodesic median of its members. Clusters that end up empty are dropped, so
// fewer than k clusters may be returned.
func ClusterCustomers(customers []Customer, k int, opts ClusterOptions) (*ClusterResult, error) {
	if len(customers) == 0 {
		return nil, ErrNoCustomers
	}
	if k < 1 {
		return nil, ErrInvalidSiteCount
	}
	opts = opts.withDefaults()

	points := make([]geo.Coordinate, len(customers))
	weights := make([]float64, len(customers))
	for i, c := range customers {
		points[i] = c.Location
		weights[i] = c.TotalDemand()
	}

	// colocated customers must not seed twin centers
	distinct := distinctCoordinates(points)
	if k > len(distinct) {
		k = len(distinct)
	}
	centers := make([]geo.Coordinate, k)
	for i, idx := range opts.Rand.Perm(len(distinct))[:k] {
		centers[i] = distinct[idx]
	}

	res := &ClusterResult{Status: StatusIterationCapReached}
	var members [][]int
	for res.Iterations < opts.MaxIterations {
		res.Iterations++

		members = make([][]int, k)
		for i, p := range points {
			nearest, _ := geo.Nearest(p, centers)
			members[nearest] = append(members[nearest], i)
		}

		var maxMove float64
		for c := range centers {
			if len(members[c]) == 0 {
				continue
			}
			pts := make([]geo.Coordinate, len(members[c]))
			ws := make([]float64, len(members[c]))
			for j, idx := range members[c] {
				pts[j] = points[idx]
				ws[j] = weights[idx]
			}
			next := GeodesicCentroid(pts, ws, opts.CentroidMaxIterations, opts.CentroidToleranceKm)
			if move := geo.DistanceKm(centers[c], next); move > maxMove {
				maxMove = move
			}
			centers[c] = next
		}

		if maxMove <= opts.MoveThresholdKm {
			res.Status = StatusConverged
			break
		}
	}

	for c := range centers {
		if len(members[c]) == 0 {
			continue
		}
		cl := Cluster{Center: centers[c], Members: members[c]}
		for _, idx := range members[c] {
			cl.TotalDemand += weights[idx]
		}
		res.Clusters = append(res.Clusters, cl)
	}
	return res, nil
}

// distinctCoordinates returns the unique points in first-seen order.
func distinctCoordinates(points []geo.Coordinate) []geo.Coordinate {
	seen := make(map[geo.Coordinate]struct{}, len(points))
	out := make([]geo.Coordinate, 0, len(points))
	for _, p := range points {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// GeodesicCentroid approximates the weighted geometric median of points under
// haversine distance with Weiszfeld's iteration, starting from the weighted
// mean of the coordinates. When the current estimate coincides with a point
// that point is returned. All-zero weights are treated as equal weights.
func GeodesicCentroid(points []geo.Coordinate, weights []float64, maxIterations int, toleranceKm float64) geo.Coordinate {
	if len(points) == 0 {
		return geo.Coordinate{}
	}
	if len(points) == 1 {
		return points[0]
	}
	w := normalizeWeights(points, weights)

	var center geo.Coordinate
	var total float64
	for i, p := range points {
		center.Latitude += w[i] * p.Latitude
		center.Longitude += w[i] * p.Longitude
		total += w[i]
	}
	center.Latitude /= total
	center.Longitude /= total

	for iter := 0; iter < maxIterations; iter++ {
		var lat, lon, denom float64
		for i, p := range points {
			if w[i] == 0 {
				continue
			}
			d := geo.DistanceKm(center, p)
			if d < coincidenceKm {
				return p
			}
			lat += w[i] * p.Latitude / d
			lon += w[i] * p.Longitude / d
			denom += w[i] / d
		}
		next := geo.Coordinate{Latitude: lat / denom, Longitude: lon / denom}
		move := geo.DistanceKm(center, next)
		center = next
		if move < toleranceKm {
			break
		}
	}
	return center
}

func normalizeWeights(points []geo.Coordinate, weights []float64) []float64 {
	w := make([]float64, len(points))
	var sum float64
	for i := range points {
		if i < len(weights) && weights[i] > 0 {
			w[i] = weights[i]
			sum += w[i]
		}
	}
	if sum == 0 {
		for i := range w {
			w[i] = 1
		}
	}
	return w
}
