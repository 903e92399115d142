package location

import (
	"fmt"

	"github.com/kosarica/network-optimizer/internal/costmodel"
	"github.com/kosarica/network-optimizer/internal/geo"
)

// Mode selects how many sites the planner opens.
type Mode string

const (
	// ModeSites opens exactly NumDCs sites.
	ModeSites Mode = "sites"
	// ModeCost evaluates 1..NumDCs sites and keeps the cheapest plan.
	ModeCost Mode = "cost"
)

// Strategy selects how customers are assigned to the chosen sites.
type Strategy string

const (
	// StrategyCluster serves each customer from its nearest site.
	StrategyCluster Strategy = "cluster"
	// StrategyGravity serves customers with the capacity-aware gravity allocator.
	StrategyGravity Strategy = "gravity"
)

// ExistingSitesMode selects how existing sites take part in a plan.
type ExistingSitesMode string

const (
	// ExistingAlways keeps every existing site and adds new ones up to NumDCs.
	ExistingAlways ExistingSitesMode = "always"
	// ExistingPotential compares an all-new plan with an existing-only plan.
	ExistingPotential ExistingSitesMode = "potential"
	// ExistingSubset uses up to NumDCs existing sites only.
	ExistingSubset ExistingSitesMode = "use-existing-subset"
)

// Settings configure a planning run.
type Settings struct {
	Mode                 Mode
	Strategy             Strategy
	NumDCs               int
	DCCapacity           float64 // zero is unbounded
	TransportCostPerUnit float64
	FacilityCost         float64
	Unit                 geo.Unit
	IncludeExistingSites bool
	ExistingSitesMode    ExistingSitesMode
	SiteMatchKm          float64
}

// ParseMode maps user input to a Mode. Empty input means ModeSites.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeSites, nil
	case ModeSites, ModeCost:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown location mode %q", s)
}

// ParseStrategy maps user input to a Strategy. Empty input means StrategyCluster.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "":
		return StrategyCluster, nil
	case StrategyCluster, StrategyGravity:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown location strategy %q", s)
}

// ParseExistingSitesMode maps user input to an ExistingSitesMode. Empty input
// means ExistingPotential.
func ParseExistingSitesMode(s string) (ExistingSitesMode, error) {
	switch ExistingSitesMode(s) {
	case "":
		return ExistingPotential, nil
	case ExistingAlways, ExistingPotential, ExistingSubset:
		return ExistingSitesMode(s), nil
	}
	return "", fmt.Errorf("unknown existing sites mode %q", s)
}

// DC is a distribution center in a plan.
type DC struct {
	ID                string
	Location          geo.Coordinate
	Existing          bool
	Capacity          float64 // zero is unbounded
	AssignedCustomers []string
	TotalDemand       float64
}

// Plan is the output of the planner.
type Plan struct {
	DCs         []DC
	Assignments []Assignment
	Cost        costmodel.Breakdown
	KPIs        costmodel.KPIs
	Feasible    bool
	Warnings    []string
	// Source is "new", "existing" or "blend".
	Source     string
	Status     ClusterStatus
	Iterations int
	// Evaluated lists the total cost per site count in cost mode.
	Evaluated map[int]float64
}

// Planner chooses distribution center sites for a set of customers.
type Planner struct {
	settings Settings
	cluster  ClusterOptions
}

// NewPlanner creates a planner. Unset enums take their defaults.
func NewPlanner(s Settings, opts ClusterOptions) *Planner {
	if s.Mode == "" {
		s.Mode = ModeSites
	}
	if s.Strategy == "" {
		s.Strategy = StrategyCluster
	}
	if s.ExistingSitesMode == "" {
		s.ExistingSitesMode = ExistingPotential
	}
	if s.Unit == "" {
		s.Unit = geo.Kilometers
	}
	if s.SiteMatchKm <= 0 {
		s.SiteMatchKm = costmodel.DefaultSiteMatchKm
	}
	return &Planner{settings: s, cluster: opts.withDefaults()}
}

// Plan picks sites and assigns customers. In ModeCost every site count from 1
// to NumDCs is evaluated and the cheapest plan wins, the smaller count on ties.
func (p *Planner) Plan(customers []Customer, existing []Site) (*Plan, error) {
	if len(customers) == 0 {
		return nil, ErrNoCustomers
	}
	if p.settings.NumDCs < 1 {
		return nil, ErrInvalidSiteCount
	}
	existing = markExisting(existing)

	if p.settings.Mode != ModeCost {
		return p.evaluate(customers, existing, p.settings.NumDCs)
	}

	var best *Plan
	evaluated := make(map[int]float64, p.settings.NumDCs)
	for k := 1; k <= p.settings.NumDCs; k++ {
		plan, err := p.evaluate(customers, existing, k)
		if err != nil {
			return nil, err
		}
		evaluated[k] = plan.Cost.TotalCost
		if best == nil || plan.Cost.TotalCost < best.Cost.TotalCost {
			best = plan
		}
	}
	best.Evaluated = evaluated
	return best, nil
}

func (p *Planner) evaluate(customers []Customer, existing []Site, k int) (*Plan, error) {
	cands, err := p.candidates(customers, existing, k)
	if err != nil {
		return nil, err
	}

	var best *Plan
	for _, c := range cands {
		plan, err := p.assign(customers, existing, c)
		if err != nil {
			return nil, err
		}
		// strict comparison keeps the earlier candidate, the all-new one, on ties
		if best == nil || plan.Cost.TotalCost < best.Cost.TotalCost {
			best = plan
		}
	}
	return best, nil
}

// assign serves customers from the candidate's sites and scores the result.
func (p *Planner) assign(customers []Customer, existing []Site, c candidate) (*Plan, error) {
	plan := &Plan{
		Source:      c.source,
		Status:      StatusConverged,
		Feasible:    true,
		Assignments: make([]Assignment, 0, len(customers)),
	}
	if c.clustering != nil {
		plan.Status = c.clustering.Status
		plan.Iterations = c.clustering.Iterations
	}

	sites := c.sites
	for i := range sites {
		sites[i].TotalCapacity = sites[i].AggregateCapacity()
		if sites[i].TotalCapacity <= 0 {
			sites[i].TotalCapacity = p.settings.DCCapacity
		}
	}

	switch p.settings.Strategy {
	case StrategyGravity:
		if err := p.assignGravity(plan, customers, sites); err != nil {
			return nil, err
		}
	default:
		p.assignNearest(plan, customers, sites)
	}

	dcs := make([]DC, 0, len(sites))
	byID := make(map[string]int, len(sites))
	for _, s := range sites {
		byID[s.ID] = len(dcs)
		dcs = append(dcs, DC{ID: s.ID, Location: s.Location, Existing: s.Existing, Capacity: s.TotalCapacity})
	}
	var transport, totalDemand float64
	for _, c := range customers {
		totalDemand += c.TotalDemand()
	}
	acc := costmodel.NewAccumulator(totalDemand)
	for _, a := range plan.Assignments {
		dc := &dcs[byID[a.FacilityID]]
		if n := len(dc.AssignedCustomers); n == 0 || dc.AssignedCustomers[n-1] != a.CustomerID {
			dc.AssignedCustomers = append(dc.AssignedCustomers, a.CustomerID)
		}
		dc.TotalDemand += a.Quantity
		transport += costmodel.TransportCost(a.Distance, a.Quantity, p.settings.TransportCostPerUnit)
		acc.Add(a.FacilityID, a.Quantity, a.Distance)
	}

	existingLocs := make([]geo.Coordinate, len(existing))
	for i, s := range existing {
		existingLocs[i] = s.Location
	}
	var opened []geo.Coordinate
	for _, dc := range dcs {
		if len(dc.AssignedCustomers) == 0 && !dc.Existing {
			continue
		}
		plan.DCs = append(plan.DCs, dc)
		if !dc.Existing && len(dc.AssignedCustomers) > 0 {
			opened = append(opened, dc.Location)
		}
		if dc.Capacity > 0 && dc.TotalDemand > dc.Capacity+allocEpsilon {
			plan.Feasible = false
			plan.Warnings = append(plan.Warnings, fmt.Sprintf(
				"%s assigned demand %.2f exceeds capacity %.2f", dc.ID, dc.TotalDemand, dc.Capacity))
		}
	}

	newSites := costmodel.CountNewSites(opened, existingLocs, p.settings.SiteMatchKm)
	plan.Cost = costmodel.NewBreakdown(transport, newSites, p.settings.FacilityCost)
	plan.KPIs = acc.KPIs()
	if plan.KPIs.UnmetDemand > allocEpsilon {
		plan.Feasible = false
		plan.Warnings = append(plan.Warnings, fmt.Sprintf("%.2f units of demand could not be served", plan.KPIs.UnmetDemand))
	}
	return plan, nil
}

func (p *Planner) assignNearest(plan *Plan, customers []Customer, sites []Site) {
	locs := make([]geo.Coordinate, len(sites))
	for i, s := range sites {
		locs[i] = s.Location
	}
	for _, c := range customers {
		idx, km := geo.Nearest(c.Location, locs)
		plan.Assignments = append(plan.Assignments, Assignment{
			CustomerID: c.ID,
			FacilityID: sites[idx].ID,
			Quantity:   c.TotalDemand(),
			Distance:   p.settings.Unit.FromKm(km),
		})
	}
}

const aggregateProduct = "total"

// assignGravity runs the gravity allocator on aggregate demand so site capacity
// is respected. Customers may be split across sites.
func (p *Planner) assignGravity(plan *Plan, customers []Customer, sites []Site) error {
	agg := make([]Customer, len(customers))
	for i, c := range customers {
		agg[i] = Customer{ID: c.ID, Location: c.Location, Demand: map[string]float64{aggregateProduct: c.TotalDemand()}}
	}
	facilities := make([]Site, len(sites))
	for i, s := range sites {
		facilities[i] = Site{ID: s.ID, Location: s.Location, Existing: s.Existing}
		if s.TotalCapacity > 0 {
			facilities[i].Capacity = map[string]float64{aggregateProduct: s.TotalCapacity}
		}
	}
	res, err := AllocateGravity(agg, facilities, []string{aggregateProduct}, GravitySettings{
		TransportCostPerDistanceUnit: p.settings.TransportCostPerUnit,
		Unit:                         p.settings.Unit,
	})
	if err != nil {
		return err
	}
	for _, a := range res.Assignments {
		a.Product = ""
		plan.Assignments = append(plan.Assignments, a)
	}
	return nil
}
