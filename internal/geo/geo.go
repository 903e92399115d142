package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used for all great-circle distances.
const EarthRadiusKm = 6371.0

// KmPerMile converts statute miles to kilometers.
const KmPerMile = 1.609344

// Coordinate is a point on the globe in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate reports whether the coordinate is inside the valid latitude/longitude ranges.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %v must be between -90 and 90", c.Latitude)
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %v must be between -180 and 180", c.Longitude)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.Latitude, c.Longitude)
}

// HaversineKm calculates the great-circle distance between two points in kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// DistanceKm is HaversineKm over two coordinates.
func DistanceKm(a, b Coordinate) float64 {
	return HaversineKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// Distance returns the great-circle distance between a and b expressed in unit.
func Distance(a, b Coordinate, unit Unit) float64 {
	return unit.FromKm(DistanceKm(a, b))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Nearest returns the index of the coordinate in candidates closest to p and its
// distance in kilometers. Ties resolve to the lowest index. It returns -1 for an
// empty candidate list.
func Nearest(p Coordinate, candidates []Coordinate) (int, float64) {
	best := -1
	bestDist := math.Inf(1)
	for i, c := range candidates {
		d := DistanceKm(p, c)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best, bestDist
}
