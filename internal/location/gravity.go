package location

import (
	"math"

	"github.com/kosarica/network-optimizer/internal/costmodel"
	"github.com/kosarica/network-optimizer/internal/geo"
)

const allocEpsilon = 1e-9

// GravitySettings are the cost parameters of a gravity allocation.
type GravitySettings struct {
	TransportCostPerDistanceUnit float64
	FixedCostPerFacility         float64
	Unit                         geo.Unit
}

// FacilityLoad reports how much of a facility's capacity one product consumed.
type FacilityLoad struct {
	FacilityID string
	Product    string
	Allocated  float64
	Capacity   float64 // +Inf when unbounded
}

// AllocationResult is the output of the gravity allocator.
type AllocationResult struct {
	Assignments []Assignment
	Loads       []FacilityLoad
	Cost        costmodel.Breakdown
	KPIs        costmodel.KPIs
}

// GravityScore is capacity × demand / distance², +Inf when the distance is zero.
func GravityScore(capacity, demand, distance float64) float64 {
	if distance == 0 {
		return math.Inf(1)
	}
	return capacity * demand / (distance * distance)
}

// AllocateGravity assigns demand greedily. Customers are visited in input order
// and products in the given order (all demanded products, sorted, when empty).
// Each (customer, product) demand goes to the facility with the highest gravity
// score among those with capacity left, min(remaining demand, remaining
// capacity) at a time, until the demand is met or capacity runs out. Unmet
// demand is left unallocated.
func AllocateGravity(customers []Customer, facilities []Site, products []string, s GravitySettings) (*AllocationResult, error) {
	if len(customers) == 0 {
		return nil, ErrNoCustomers
	}
	if len(facilities) == 0 {
		return nil, ErrNoFacilities
	}
	if len(products) == 0 {
		products = productsOf(customers)
	}
	unit := s.Unit
	if unit == "" {
		unit = geo.Kilometers
	}

	remaining := make([]map[string]float64, len(facilities))
	allocated := make([]map[string]float64, len(facilities))
	for i, f := range facilities {
		remaining[i] = make(map[string]float64, len(products))
		allocated[i] = make(map[string]float64, len(products))
		for _, p := range products {
			remaining[i][p] = f.CapacityFor(p)
		}
	}

	var totalDemand float64
	productDemand := make(map[string]float64, len(products))
	for _, c := range customers {
		for _, p := range products {
			d := c.DemandFor(p)
			productDemand[p] += d
			totalDemand += d
		}
	}
	scoreCap := scoringCapacities(facilities, products, productDemand)

	res := &AllocationResult{Assignments: make([]Assignment, 0)}
	acc := costmodel.NewAccumulator(totalDemand)
	var transport float64

	for _, c := range customers {
		distances := make([]float64, len(facilities))
		for i, f := range facilities {
			distances[i] = geo.Distance(c.Location, f.Location, unit)
		}

		for _, p := range products {
			left := c.DemandFor(p)
			for left > allocEpsilon {
				best := pickFacility(facilities, scoreCap, remaining, distances, p, left)
				if best < 0 {
					break
				}
				q := math.Min(left, remaining[best][p])
				left -= q
				remaining[best][p] -= q
				allocated[best][p] += q

				d := distances[best]
				res.Assignments = append(res.Assignments, Assignment{
					CustomerID: c.ID,
					FacilityID: facilities[best].ID,
					Product:    p,
					Quantity:   q,
					Distance:   d,
				})
				transport += costmodel.TransportCost(d, q, s.TransportCostPerDistanceUnit)
				acc.Add(facilities[best].ID, q, d)
			}
		}
	}

	used := acc.FacilitiesUsed()
	newSites := 0
	for _, f := range facilities {
		if _, ok := used[f.ID]; ok && !f.Existing {
			newSites++
		}
	}
	res.Cost = costmodel.NewBreakdown(transport, newSites, s.FixedCostPerFacility)
	res.KPIs = acc.KPIs()

	for i, f := range facilities {
		for _, p := range products {
			res.Loads = append(res.Loads, FacilityLoad{
				FacilityID: f.ID,
				Product:    p,
				Allocated:  allocated[i][p],
				Capacity:   f.CapacityFor(p),
			})
		}
	}
	return res, nil
}

// scoringCapacities returns the capacity each facility scores with. An unbounded
// facility scores as the larger of the biggest bounded capacity and the total
// demand for the product, so distance still ranks it.
func scoringCapacities(facilities []Site, products []string, demand map[string]float64) []map[string]float64 {
	out := make([]map[string]float64, len(facilities))
	for i := range out {
		out[i] = make(map[string]float64, len(products))
	}
	for _, p := range products {
		largest := demand[p]
		for _, f := range facilities {
			if c := f.CapacityFor(p); !math.IsInf(c, 1) && c > largest {
				largest = c
			}
		}
		for i, f := range facilities {
			c := f.CapacityFor(p)
			if math.IsInf(c, 1) {
				c = largest
			}
			out[i][p] = c
		}
	}
	return out
}

// pickFacility returns the facility with the highest gravity score that still has
// capacity for product. Ties go to the shorter distance, then to the lower id.
func pickFacility(facilities []Site, scoreCap []map[string]float64, remaining []map[string]float64, distances []float64, product string, demand float64) int {
	best := -1
	var bestScore float64
	for i, f := range facilities {
		if remaining[i][product] <= allocEpsilon {
			continue
		}
		score := GravityScore(scoreCap[i][product], demand, distances[i])
		if best < 0 || score > bestScore ||
			(score == bestScore && (distances[i] < distances[best] ||
				(distances[i] == distances[best] && f.ID < facilities[best].ID))) {
			best = i
			bestScore = score
		}
	}
	return best
}
