// Package location places and allocates facilities: a gravity-score greedy
// allocator over a fixed site list, a demand-weighted geodesic k-means
// clusterer that proposes new sites, and a reconciler choosing between new and
// existing sites by total cost.
package location

import (
	"errors"
	"math"
	"sort"

	"github.com/kosarica/network-optimizer/internal/geo"
)

var (
	ErrNoCustomers      = errors.New("location: no customers")
	ErrNoFacilities     = errors.New("location: no facilities")
	ErrInvalidSiteCount = errors.New("location: site count must be at least 1")
)

// Customer is a demand point. Demand is keyed by product.
type Customer struct {
	ID       string
	Location geo.Coordinate
	Demand   map[string]float64
	// ConversionFactor scales every demand quantity; zero means 1.
	ConversionFactor float64
}

// DemandFor returns the converted demand for product.
func (c Customer) DemandFor(product string) float64 {
	return c.Demand[product] * c.factor()
}

// TotalDemand returns the converted demand summed over all products.
func (c Customer) TotalDemand() float64 {
	var total float64
	for _, d := range c.Demand {
		total += d
	}
	return total * c.factor()
}

func (c Customer) factor() float64 {
	if c.ConversionFactor <= 0 {
		return 1
	}
	return c.ConversionFactor
}

// Site is an existing or candidate facility.
type Site struct {
	ID       string
	Location geo.Coordinate
	// Capacity is keyed by product; an absent product is unbounded.
	Capacity map[string]float64
	// TotalCapacity bounds the sum over products; zero is unbounded.
	TotalCapacity float64
	Existing      bool
}

// CapacityFor returns the capacity of the site for product.
func (s Site) CapacityFor(product string) float64 {
	if c, ok := s.Capacity[product]; ok {
		return c
	}
	return math.Inf(1)
}

// AggregateCapacity bounds the total quantity the site can serve: TotalCapacity
// when set, else the sum of the declared per-product capacities. Zero is
// unbounded.
func (s Site) AggregateCapacity() float64 {
	if s.TotalCapacity > 0 || len(s.Capacity) == 0 {
		return s.TotalCapacity
	}
	var sum float64
	for _, c := range s.Capacity {
		sum += c
	}
	return sum
}

// Assignment is a quantity of one product served to a customer from a facility.
type Assignment struct {
	CustomerID string
	FacilityID string
	Product    string
	Quantity   float64
	Distance   float64
}

// productsOf returns the products demanded by customers in a stable order.
func productsOf(customers []Customer) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range customers {
		for p := range c.Demand {
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out
}
