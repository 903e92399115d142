package optimizer

import (
	"fmt"
	"math"

	"github.com/kosarica/network-optimizer/internal/costmodel"
	"github.com/kosarica/network-optimizer/internal/geo"
	"github.com/kosarica/network-optimizer/internal/location"
	"github.com/kosarica/network-optimizer/internal/lp"
)

// SupplierInput is an upstream node of a flow network.
type SupplierInput struct {
	ID       string             `json:"id" jsonschema:"required"`
	Location *geo.Coordinate    `json:"location,omitempty"`
	Supply   map[string]float64 `json:"supply,omitempty"`
}

// FacilityInput is a facility or site. Capacity is keyed by product.
type FacilityInput struct {
	ID       string             `json:"id" jsonschema:"required"`
	Location *geo.Coordinate    `json:"location,omitempty"`
	Capacity map[string]float64 `json:"capacity,omitempty"`
	// TotalCapacity bounds the sum over products (location planning only).
	TotalCapacity float64 `json:"totalCapacity,omitempty"`
	Existing      bool    `json:"existing,omitempty"`
}

// CustomerInput is a demand point. Demand is keyed by product.
type CustomerInput struct {
	ID               string             `json:"id" jsonschema:"required"`
	Location         *geo.Coordinate    `json:"location,omitempty"`
	Demand           map[string]float64 `json:"demand,omitempty"`
	ConversionFactor float64            `json:"conversionFactor,omitempty"`
}

// DistanceInput is one entry of the distance table.
type DistanceInput struct {
	From     string  `json:"from" jsonschema:"required"`
	To       string  `json:"to" jsonschema:"required"`
	Distance float64 `json:"distance" jsonschema:"minimum=0"`
}

// Costs holds the rates of a flow solve.
type Costs struct {
	Transportation float64 `json:"transportation"`
}

// SolveSettings tunes a flow solve. Zero values take the configured defaults.
type SolveSettings struct {
	ObjectiveType  string  `json:"objectiveType,omitempty" jsonschema:"enum=cost,enum=time"`
	ModelInbound   bool    `json:"modelInbound,omitempty"`
	MissingData    string  `json:"missingData,omitempty" jsonschema:"enum=default,enum=reject"`
	ServicePremium float64 `json:"servicePremium,omitempty"`
	MaxIterations  int     `json:"maxIterations,omitempty"`
}

// SolveRequest is the input of a flow solve.
type SolveRequest struct {
	Suppliers  []SupplierInput `json:"suppliers"`
	Facilities []FacilityInput `json:"facilities"`
	Customers  []CustomerInput `json:"customers"`
	Products   []string        `json:"products"`
	Distances  []DistanceInput `json:"distances"`
	Costs      Costs           `json:"costs"`
	Settings   SolveSettings   `json:"settings"`
}

// SolveResponse is the output of a flow solve.
type SolveResponse struct {
	Flows           []lp.Flow           `json:"flows"`
	ObjectiveValue  float64             `json:"objectiveValue"`
	SolverObjective float64             `json:"solverObjective"`
	Iterations      int                 `json:"iterations"`
	Status          string              `json:"status"`
	Products        []lp.ProductSummary `json:"products"`
	Warnings        []string            `json:"warnings"`
	Variables       int                 `json:"variables"`
	Constraints     int                 `json:"constraints"`
}

// AllocateSettings are the cost parameters of a gravity allocation.
type AllocateSettings struct {
	TransportCostPerDistanceUnit float64 `json:"transportCostPerDistanceUnit"`
	FixedCostPerFacility         float64 `json:"fixedCostPerFacility"`
	DistanceUnit                 string  `json:"distanceUnit,omitempty" jsonschema:"enum=km,enum=mile"`
}

// AllocateRequest is the input of a gravity allocation.
type AllocateRequest struct {
	Customers  []CustomerInput  `json:"customers"`
	Facilities []FacilityInput  `json:"facilities"`
	Products   []string         `json:"products,omitempty"`
	Settings   AllocateSettings `json:"settings"`
}

// AssignmentOutput is one allocated quantity.
type AssignmentOutput struct {
	CustomerID string  `json:"customerId"`
	FacilityID string  `json:"facilityId"`
	Product    string  `json:"product,omitempty"`
	Quantity   float64 `json:"quantity"`
	Distance   float64 `json:"distance"`
}

// FacilityLoadOutput reports per-product usage of a facility. A nil capacity is unbounded.
type FacilityLoadOutput struct {
	FacilityID string   `json:"facilityId"`
	Product    string   `json:"product"`
	Allocated  float64  `json:"allocated"`
	Capacity   *float64 `json:"capacity,omitempty"`
}

// AllocateResponse is the output of a gravity allocation.
type AllocateResponse struct {
	Assignments   []AssignmentOutput   `json:"assignments"`
	Loads         []FacilityLoadOutput `json:"loads"`
	CostBreakdown costmodel.Breakdown  `json:"costBreakdown"`
	KPIs          costmodel.KPIs       `json:"kpis"`
}

// LocateSettings configure facility location planning.
type LocateSettings struct {
	Mode                             string  `json:"mode,omitempty" jsonschema:"enum=sites,enum=cost"`
	Strategy                         string  `json:"strategy,omitempty" jsonschema:"enum=cluster,enum=gravity"`
	NumDCs                           int     `json:"numDCs" jsonschema:"minimum=1"`
	DCCapacity                       float64 `json:"dcCapacity,omitempty"`
	TransportationCostPerMilePerUnit float64 `json:"transportationCostPerMilePerUnit"`
	FacilityCost                     float64 `json:"facilityCost"`
	DistanceUnit                     string  `json:"distanceUnit,omitempty" jsonschema:"enum=km,enum=mile"`
	IncludeExistingSites             bool    `json:"includeExistingSites,omitempty"`
	ExistingSitesMode                string  `json:"existingSitesMode,omitempty" jsonschema:"enum=always,enum=potential,enum=use-existing-subset"`
	SiteMatchKm                      float64 `json:"siteMatchKm,omitempty"`
	Seed                             *uint64 `json:"seed,omitempty"`
}

// LocateRequest is the input of facility location planning.
type LocateRequest struct {
	Customers     []CustomerInput `json:"customers"`
	ExistingSites []FacilityInput `json:"existingSites,omitempty"`
	Settings      LocateSettings  `json:"settings"`
}

// DCOutput is a chosen distribution center.
type DCOutput struct {
	ID                string   `json:"id"`
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	Existing          bool     `json:"existing"`
	AssignedCustomers []string `json:"assignedCustomers"`
	TotalDemand       float64  `json:"totalDemand"`
	Capacity          float64  `json:"capacity,omitempty"`
}

// LocateResponse is the output of facility location planning.
type LocateResponse struct {
	DCs             []DCOutput          `json:"dcs"`
	Feasible        bool                `json:"feasible"`
	Warnings        []string            `json:"warnings"`
	CostBreakdown   costmodel.Breakdown `json:"costBreakdown"`
	Assignments     []AssignmentOutput  `json:"assignments"`
	ServiceLevel    float64             `json:"serviceLevel"`
	AverageDistance float64             `json:"averageDistance"`
	Strategy        string              `json:"strategy"`
	Status          string              `json:"status"`
	Iterations      int                 `json:"iterations"`
	Evaluated       map[int]float64     `json:"evaluated,omitempty"`
}

// Validate checks a flow solve request against the configured limits.
func (r *SolveRequest) Validate(cfg *Config) error {
	if len(r.Facilities) == 0 {
		return ErrInvalidRequest{Field: "facilities", Reason: "must have at least one facility", Index: -1}
	}
	if len(r.Customers) == 0 {
		return ErrInvalidRequest{Field: "customers", Reason: "must have at least one customer", Index: -1}
	}
	if len(r.Products) == 0 {
		return ErrInvalidRequest{Field: "products", Reason: "must have at least one product", Index: -1}
	}
	seen := make(map[string]struct{}, len(r.Products))
	for i, p := range r.Products {
		if p == "" {
			return ErrInvalidRequest{Field: "products", Reason: fmt.Sprintf("entry at index %d is empty", i), Index: i}
		}
		if _, dup := seen[p]; dup {
			return ErrInvalidRequest{Field: "products", Reason: fmt.Sprintf("duplicate product %q", p), Index: i}
		}
		seen[p] = struct{}{}
	}
	vars := len(r.Products) * len(r.Facilities) * len(r.Customers)
	if r.Settings.ModelInbound {
		vars += len(r.Products) * len(r.Suppliers) * len(r.Facilities)
	}
	if vars > cfg.Solver.MaxVariables {
		return ErrInvalidRequest{Field: "customers", Reason: fmt.Sprintf("network has %d flow variables, limit is %d", vars, cfg.Solver.MaxVariables), Index: -1}
	}
	if err := validateIDs("suppliers", len(r.Suppliers), func(i int) (string, *geo.Coordinate) { return r.Suppliers[i].ID, r.Suppliers[i].Location }); err != nil {
		return err
	}
	if err := validateIDs("facilities", len(r.Facilities), func(i int) (string, *geo.Coordinate) { return r.Facilities[i].ID, r.Facilities[i].Location }); err != nil {
		return err
	}
	if err := validateIDs("customers", len(r.Customers), func(i int) (string, *geo.Coordinate) { return r.Customers[i].ID, r.Customers[i].Location }); err != nil {
		return err
	}
	for i, d := range r.Distances {
		if d.From == "" || d.To == "" {
			return ErrInvalidRequest{Field: "distances", Reason: fmt.Sprintf("entry at index %d needs from and to", i), Index: i}
		}
		if d.Distance < 0 || math.IsNaN(d.Distance) || math.IsInf(d.Distance, 0) {
			return ErrInvalidRequest{Field: "distances", Reason: fmt.Sprintf("entry at index %d has invalid distance", i), Index: i}
		}
	}
	if r.Costs.Transportation < 0 {
		return ErrInvalidRequest{Field: "costs.transportation", Reason: "must be non-negative", Index: -1}
	}
	if _, err := lp.ParseObjective(r.Settings.ObjectiveType); err != nil {
		return ErrInvalidRequest{Field: "settings.objectiveType", Reason: err.Error(), Index: -1}
	}
	switch r.Settings.MissingData {
	case "", string(lp.PolicyDefault), string(lp.PolicyReject):
	default:
		return ErrInvalidRequest{Field: "settings.missingData", Reason: "must be default or reject", Index: -1}
	}
	if r.Settings.MaxIterations < 0 {
		return ErrInvalidRequest{Field: "settings.maxIterations", Reason: "must be non-negative", Index: -1}
	}
	return nil
}

// Validate checks a gravity allocation request.
func (r *AllocateRequest) Validate(cfg *Config) error {
	if len(r.Customers) == 0 {
		return ErrInvalidRequest{Field: "customers", Reason: "must have at least one customer", Index: -1}
	}
	if len(r.Facilities) == 0 {
		return ErrInvalidRequest{Field: "facilities", Reason: "must have at least one facility", Index: -1}
	}
	if len(r.Customers) > cfg.MaxCustomers {
		return ErrInvalidRequest{Field: "customers", Reason: "exceeds maximum allowed", Index: -1}
	}
	if err := validateLocated("customers", len(r.Customers), func(i int) (string, *geo.Coordinate, map[string]float64) {
		return r.Customers[i].ID, r.Customers[i].Location, r.Customers[i].Demand
	}); err != nil {
		return err
	}
	if err := validateLocated("facilities", len(r.Facilities), func(i int) (string, *geo.Coordinate, map[string]float64) {
		return r.Facilities[i].ID, r.Facilities[i].Location, r.Facilities[i].Capacity
	}); err != nil {
		return err
	}
	if r.Settings.TransportCostPerDistanceUnit < 0 || r.Settings.FixedCostPerFacility < 0 {
		return ErrInvalidRequest{Field: "settings", Reason: "costs must be non-negative", Index: -1}
	}
	if _, err := geo.ParseUnit(r.Settings.DistanceUnit); err != nil {
		return ErrInvalidRequest{Field: "settings.distanceUnit", Reason: err.Error(), Index: -1}
	}
	return nil
}

// Validate checks a location planning request.
func (r *LocateRequest) Validate(cfg *Config) error {
	if len(r.Customers) == 0 {
		return ErrInvalidRequest{Field: "customers", Reason: "must have at least one customer", Index: -1}
	}
	if len(r.Customers) > cfg.MaxCustomers {
		return ErrInvalidRequest{Field: "customers", Reason: "exceeds maximum allowed", Index: -1}
	}
	s := r.Settings
	if s.NumDCs < 1 {
		return ErrInvalidRequest{Field: "settings.numDCs", Reason: "must be at least 1", Index: -1}
	}
	if s.NumDCs > cfg.Location.MaxSites {
		return ErrInvalidRequest{Field: "settings.numDCs", Reason: fmt.Sprintf("must be at most %d", cfg.Location.MaxSites), Index: -1}
	}
	if s.DCCapacity < 0 || s.TransportationCostPerMilePerUnit < 0 || s.FacilityCost < 0 || s.SiteMatchKm < 0 {
		return ErrInvalidRequest{Field: "settings", Reason: "capacity, costs and site match distance must be non-negative", Index: -1}
	}
	if err := validateLocated("customers", len(r.Customers), func(i int) (string, *geo.Coordinate, map[string]float64) {
		return r.Customers[i].ID, r.Customers[i].Location, r.Customers[i].Demand
	}); err != nil {
		return err
	}
	if err := validateLocated("existingSites", len(r.ExistingSites), func(i int) (string, *geo.Coordinate, map[string]float64) {
		return r.ExistingSites[i].ID, r.ExistingSites[i].Location, r.ExistingSites[i].Capacity
	}); err != nil {
		return err
	}
	checks := []struct {
		field string
		parse func() error
	}{
		{"settings.mode", func() error { _, err := location.ParseMode(s.Mode); return err }},
		{"settings.strategy", func() error { _, err := location.ParseStrategy(s.Strategy); return err }},
		{"settings.existingSitesMode", func() error { _, err := location.ParseExistingSitesMode(s.ExistingSitesMode); return err }},
		{"settings.distanceUnit", func() error { _, err := geo.ParseUnit(s.DistanceUnit); return err }},
	}
	for _, c := range checks {
		if err := c.parse(); err != nil {
			return ErrInvalidRequest{Field: c.field, Reason: err.Error(), Index: -1}
		}
	}
	return nil
}

// validateIDs requires unique non-empty ids and valid optional coordinates.
func validateIDs(field string, n int, at func(int) (string, *geo.Coordinate)) error {
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id, loc := at(i)
		if id == "" {
			return ErrInvalidRequest{Field: field, Reason: fmt.Sprintf("item at index %d has empty id", i), Index: i}
		}
		if _, dup := seen[id]; dup {
			return ErrInvalidRequest{Field: field, Reason: fmt.Sprintf("duplicate id %q", id), Index: i}
		}
		seen[id] = struct{}{}
		if loc != nil {
			if err := loc.Validate(); err != nil {
				return ErrInvalidRequest{Field: field, Reason: fmt.Sprintf("item at index %d: %v", i, err), Index: i}
			}
		}
	}
	return nil
}

// validateLocated additionally requires a location and non-negative quantities.
func validateLocated(field string, n int, at func(int) (string, *geo.Coordinate, map[string]float64)) error {
	if err := validateIDs(field, n, func(i int) (string, *geo.Coordinate) {
		id, loc, _ := at(i)
		return id, loc
	}); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		_, loc, quantities := at(i)
		if loc == nil {
			return ErrInvalidRequest{Field: field, Reason: fmt.Sprintf("item at index %d has no location", i), Index: i}
		}
		for product, q := range quantities {
			if q < 0 || math.IsNaN(q) || math.IsInf(q, 0) {
				return ErrInvalidRequest{Field: field, Reason: fmt.Sprintf("item at index %d has invalid quantity for %q", i, product), Index: i}
			}
		}
	}
	return nil
}

// ErrInvalidRequest is returned when an optimization request is invalid.
type ErrInvalidRequest struct {
	Field  string
	Reason string
	Index  int
}

func (e ErrInvalidRequest) Error() string {
	return e.Field + ": " + e.Reason
}
