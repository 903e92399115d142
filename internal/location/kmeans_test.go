package location

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/network-optimizer/internal/geo"
)

func twoTowns() []Customer {
	return []Customer{
		{ID: "zg-1", Location: coord(45.80, 15.97), Demand: map[string]float64{"p": 100}},
		{ID: "st-1", Location: coord(43.51, 16.44), Demand: map[string]float64{"p": 100}},
		{ID: "zg-2", Location: coord(45.81, 15.98), Demand: map[string]float64{"p": 100}},
		{ID: "st-2", Location: coord(43.52, 16.45), Demand: map[string]float64{"p": 100}},
	}
}

func seeded(seed uint64) ClusterOptions {
	return ClusterOptions{Rand: rand.New(rand.NewPCG(seed, seed))}
}

func TestGeodesicCentroidSymmetric(t *testing.T) {
	center := coord(10, 20)
	points := []geo.Coordinate{coord(11, 20), coord(9, 20), coord(10, 21), coord(10, 19)}
	weights := []float64{5, 5, 5, 5}

	got := GeodesicCentroid(points, weights, DefaultCentroidIterations, DefaultCentroidToleranceKm)
	assert.InDelta(t, center.Latitude, got.Latitude, 1e-6)
	assert.InDelta(t, center.Longitude, got.Longitude, 1e-6)
}

func TestGeodesicCentroidDominantWeight(t *testing.T) {
	points := []geo.Coordinate{coord(45, 15), coord(46, 15), coord(45, 16)}

	got := GeodesicCentroid(points, []float64{10, 1, 1}, DefaultCentroidIterations, 1e-9)
	assert.InDelta(t, 0, geo.DistanceKm(points[0], got), 1e-3)
}

func TestGeodesicCentroidEdgeCases(t *testing.T) {
	assert.Equal(t, geo.Coordinate{}, GeodesicCentroid(nil, nil, 10, 1e-6))
	assert.Equal(t, coord(1, 2), GeodesicCentroid([]geo.Coordinate{coord(1, 2)}, nil, 10, 1e-6))

	// zero weights fall back to equal weights
	got := GeodesicCentroid([]geo.Coordinate{coord(0, 0), coord(0, 2)}, []float64{0, 0}, 10, 1e-6)
	assert.InDelta(t, 1.0, got.Longitude, 1e-6)
}

func TestClusterCustomersSeparatesTowns(t *testing.T) {
	customers := twoTowns()

	res, err := ClusterCustomers(customers, 2, seeded(1))
	require.NoError(t, err)
	assert.Equal(t, StatusConverged, res.Status)
	require.Len(t, res.Clusters, 2)

	for _, cl := range res.Clusters {
		require.Len(t, cl.Members, 2)
		a, b := customers[cl.Members[0]], customers[cl.Members[1]]
		assert.Equal(t, a.ID[:2], b.ID[:2], "cluster mixes towns")
		assert.Equal(t, 200.0, cl.TotalDemand)
		assert.Less(t, geo.DistanceKm(cl.Center, a.Location), 2.0)
	}
}

func TestClusterCustomersClampsK(t *testing.T) {
	customers := twoTowns()[:2]

	res, err := ClusterCustomers(customers, 5, seeded(2))
	require.NoError(t, err)
	assert.Len(t, res.Clusters, 2)
	for _, cl := range res.Clusters {
		assert.Equal(t, customers[cl.Members[0]].Location, cl.Center)
	}
}

func TestClusterCustomersIterationCap(t *testing.T) {
	opts := seeded(3)
	opts.MaxIterations = 1
	opts.MoveThresholdKm = 1e-12

	res, err := ClusterCustomers(twoTowns(), 1, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, StatusIterationCapReached, res.Status)
}

func TestClusterCustomersDeterministicWithSeed(t *testing.T) {
	customers := twoTowns()
	for i := 0; i < 10; i++ {
		customers = append(customers, Customer{
			ID:       string(rune('a' + i)),
			Location: coord(43+float64(i)*0.3, 14+float64(i%4)*0.5),
			Demand:   map[string]float64{"p": float64(10 + i)},
		})
	}

	first, err := ClusterCustomers(customers, 3, seeded(99))
	require.NoError(t, err)
	second, err := ClusterCustomers(customers, 3, seeded(99))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestClusterCustomersPreconditions(t *testing.T) {
	_, err := ClusterCustomers(nil, 1, ClusterOptions{})
	assert.ErrorIs(t, err, ErrNoCustomers)

	_, err = ClusterCustomers(twoTowns(), 0, ClusterOptions{})
	assert.ErrorIs(t, err, ErrInvalidSiteCount)
}

func TestClusterCustomersColocatedSeeds(t *testing.T) {
	customers := []Customer{
		{ID: "a", Location: coord(45, 15), Demand: map[string]float64{"p": 10}},
		{ID: "b", Location: coord(45, 15), Demand: map[string]float64{"p": 10}},
		{ID: "c", Location: coord(45, 15), Demand: map[string]float64{"p": 10}},
		{ID: "d", Location: coord(46, 16), Demand: map[string]float64{"p": 10}},
	}

	for seed := uint64(0); seed < 200; seed++ {
		res, err := ClusterCustomers(customers, 2, seeded(seed))
		require.NoError(t, err)
		require.Len(t, res.Clusters, 2, "seed %d", seed)
	}

	// k is capped by the number of distinct locations
	res, err := ClusterCustomers(customers, 4, seeded(5))
	require.NoError(t, err)
	assert.Len(t, res.Clusters, 2)
}
