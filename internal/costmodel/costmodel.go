// Package costmodel scores network plans: transportation cost, fixed facility
// cost for newly opened sites, and the service KPIs reported alongside them.
package costmodel

import (
	"math"

	"github.com/kosarica/network-optimizer/internal/geo"
)

// DefaultSiteMatchKm is the proximity under which a proposed site is considered
// to be an existing one.
const DefaultSiteMatchKm = 1.0

// TransportCost returns distance × demand × rate. The distance must already be
// expressed in the rate's unit.
func TransportCost(distance, demand, rate float64) float64 {
	return distance * demand * rate
}

// Breakdown is the read-only cost aggregate of a plan.
type Breakdown struct {
	TotalCost          float64 `json:"totalCost"`
	TransportationCost float64 `json:"transportationCost"`
	FacilityCost       float64 `json:"facilityCost"`
	NumSites           int     `json:"numSites"` // newly opened sites only
}

// NewBreakdown composes a breakdown from transport cost and the number of new sites.
func NewBreakdown(transport float64, newSites int, fixedPerFacility float64) Breakdown {
	fixed := float64(newSites) * fixedPerFacility
	return Breakdown{
		TotalCost:          transport + fixed,
		TransportationCost: transport,
		FacilityCost:       fixed,
		NumSites:           newSites,
	}
}

// MatchesExisting reports whether site lies within thresholdKm of any existing site.
func MatchesExisting(site geo.Coordinate, existing []geo.Coordinate, thresholdKm float64) bool {
	for _, e := range existing {
		if geo.DistanceKm(site, e) <= thresholdKm {
			return true
		}
	}
	return false
}

// CountNewSites counts the sites that do not match any existing site.
func CountNewSites(sites, existing []geo.Coordinate, thresholdKm float64) int {
	n := 0
	for _, s := range sites {
		if !MatchesExisting(s, existing, thresholdKm) {
			n++
		}
	}
	return n
}

// KPIs aggregates the service metrics of a plan.
type KPIs struct {
	TotalDemand     float64 `json:"totalDemand"`
	FulfilledDemand float64 `json:"fulfilledDemand"`
	UnmetDemand     float64 `json:"unmetDemand"`
	ServiceLevel    float64 `json:"serviceLevel"` // percent
	AverageDistance float64 `json:"averageDistance"`
	FacilitiesUsed  int     `json:"facilitiesUsed"`
}

// Accumulator collects shipped quantities and distances into KPIs.
// The average distance is weighted by shipped quantity.
type Accumulator struct {
	totalDemand    float64
	fulfilled      float64
	weightedDist   float64
	facilitiesUsed map[string]struct{}
}

// NewAccumulator creates an accumulator for a plan with the given total demand.
func NewAccumulator(totalDemand float64) *Accumulator {
	return &Accumulator{
		totalDemand:    totalDemand,
		facilitiesUsed: make(map[string]struct{}),
	}
}

// Add records quantity shipped from facilityID over distance.
func (a *Accumulator) Add(facilityID string, quantity, distance float64) {
	if quantity <= 0 {
		return
	}
	a.fulfilled += quantity
	a.weightedDist += quantity * distance
	a.facilitiesUsed[facilityID] = struct{}{}
}

// KPIs returns the aggregated metrics.
func (a *Accumulator) KPIs() KPIs {
	k := KPIs{
		TotalDemand:     a.totalDemand,
		FulfilledDemand: a.fulfilled,
		UnmetDemand:     math.Max(0, a.totalDemand-a.fulfilled),
		FacilitiesUsed:  len(a.facilitiesUsed),
	}
	if a.totalDemand > 0 {
		k.ServiceLevel = a.fulfilled / a.totalDemand * 100
	}
	if a.fulfilled > 0 {
		k.AverageDistance = a.weightedDist / a.fulfilled
	}
	return k
}

// FacilitiesUsed returns the ids of facilities that shipped anything.
func (a *Accumulator) FacilitiesUsed() map[string]struct{} {
	return a.facilitiesUsed
}
