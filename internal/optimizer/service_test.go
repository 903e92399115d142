package optimizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/network-optimizer/internal/geo"
	"github.com/kosarica/network-optimizer/internal/lp"
)

func at(lat, lon float64) *geo.Coordinate {
	return &geo.Coordinate{Latitude: lat, Longitude: lon}
}

func singleArcRequest() *SolveRequest {
	return &SolveRequest{
		Suppliers:  []SupplierInput{{ID: "S", Supply: map[string]float64{"p": 500}}},
		Facilities: []FacilityInput{{ID: "F", Capacity: map[string]float64{"p": 80}}},
		Customers:  []CustomerInput{{ID: "C", Demand: map[string]float64{"p": 100}}},
		Products:   []string{"p"},
		Distances:  []DistanceInput{{From: "F", To: "C", Distance: 12}},
		Costs:      Costs{Transportation: 2},
	}
}

func TestSolveSingleArc(t *testing.T) {
	svc := NewService(nil)

	resp, err := svc.Solve(context.Background(), singleArcRequest())
	require.NoError(t, err)
	require.Len(t, resp.Flows, 1)
	assert.Equal(t, lp.Flow{Product: "p", From: "F", To: "C", Quantity: 80}, resp.Flows[0])
	assert.InDelta(t, 2*12*80.0, resp.ObjectiveValue, 1e-6)
	assert.Equal(t, "optimal", resp.Status)
	assert.NotNil(t, resp.Warnings)
}

func TestSolveAppliesConversionFactor(t *testing.T) {
	req := singleArcRequest()
	req.Customers[0].Demand = map[string]float64{"p": 10}
	req.Customers[0].ConversionFactor = 3

	resp, err := NewService(nil).Solve(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Flows, 1)
	assert.InDelta(t, 30, resp.Flows[0].Quantity, 1e-9)
}

func TestSolveMissingDataPolicy(t *testing.T) {
	req := singleArcRequest()
	req.Customers[0].Demand = nil

	resp, err := NewService(nil).Solve(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, resp.Warnings, 1)
	assert.InDelta(t, 80, resp.Flows[0].Quantity, 1e-9)

	req.Settings.MissingData = "reject"
	_, err = NewService(nil).Solve(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, lp.ErrMissingValue)
	assert.True(t, IsPrecondition(err))
}

func TestSolveValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SolveRequest)
		field  string
	}{
		{"no facilities", func(r *SolveRequest) { r.Facilities = nil }, "facilities"},
		{"no customers", func(r *SolveRequest) { r.Customers = nil }, "customers"},
		{"no products", func(r *SolveRequest) { r.Products = nil }, "products"},
		{"duplicate product", func(r *SolveRequest) { r.Products = []string{"p", "p"} }, "products"},
		{"empty product", func(r *SolveRequest) { r.Products = []string{""} }, "products"},
		{"duplicate customer", func(r *SolveRequest) { r.Customers = append(r.Customers, r.Customers[0]) }, "customers"},
		{"bad coordinate", func(r *SolveRequest) { r.Facilities[0].Location = at(120, 0) }, "facilities"},
		{"negative distance", func(r *SolveRequest) { r.Distances[0].Distance = -1 }, "distances"},
		{"unknown objective", func(r *SolveRequest) { r.Settings.ObjectiveType = "speed" }, "settings.objectiveType"},
		{"unknown policy", func(r *SolveRequest) { r.Settings.MissingData = "maybe" }, "settings.missingData"},
	}

	svc := NewService(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := singleArcRequest()
			tt.mutate(req)
			_, err := svc.Solve(context.Background(), req)
			var invalid ErrInvalidRequest
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.field, invalid.Field)
			assert.True(t, IsPrecondition(err))
		})
	}
}

func TestSolveVariableLimit(t *testing.T) {
	cfg := Defaults()
	cfg.Solver.MaxVariables = 1
	req := singleArcRequest()
	req.Products = []string{"p", "q"}

	_, err := NewService(cfg).Solve(context.Background(), req)
	var invalid ErrInvalidRequest
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "limit is 1")
}

func TestSolveCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewService(nil).Solve(ctx, singleArcRequest())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsPrecondition(err))
}

func TestAllocate(t *testing.T) {
	req := &AllocateRequest{
		Customers: []CustomerInput{
			{ID: "c1", Location: at(45.0, 15.0), Demand: map[string]float64{"p": 100}},
			{ID: "c2", Location: at(45.0, 16.0), Demand: map[string]float64{"p": 50}},
		},
		Facilities: []FacilityInput{
			{ID: "west", Location: at(45.0, 15.05), Capacity: map[string]float64{"p": 500}},
			{ID: "east", Location: at(45.0, 15.95)},
		},
		Settings: AllocateSettings{TransportCostPerDistanceUnit: 1, FixedCostPerFacility: 10},
	}

	resp, err := NewService(nil).Allocate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Assignments, 2)
	assert.Equal(t, "west", resp.Assignments[0].FacilityID)
	assert.Equal(t, "east", resp.Assignments[1].FacilityID)
	assert.Equal(t, 150.0, resp.KPIs.FulfilledDemand)
	assert.Equal(t, 20.0, resp.CostBreakdown.FacilityCost)

	require.Len(t, resp.Loads, 2)
	require.NotNil(t, resp.Loads[0].Capacity)
	assert.Equal(t, 500.0, *resp.Loads[0].Capacity)
	assert.Nil(t, resp.Loads[1].Capacity)
}

func TestAllocateRequiresLocations(t *testing.T) {
	req := &AllocateRequest{
		Customers:  []CustomerInput{{ID: "c1", Demand: map[string]float64{"p": 1}}},
		Facilities: []FacilityInput{{ID: "f", Location: at(45, 15)}},
	}
	_, err := NewService(nil).Allocate(context.Background(), req)
	var invalid ErrInvalidRequest
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "customers", invalid.Field)
}

func towns() []CustomerInput {
	return []CustomerInput{
		{ID: "zg-1", Location: at(45.80, 15.97), Demand: map[string]float64{"p": 100}},
		{ID: "st-1", Location: at(43.51, 16.44), Demand: map[string]float64{"p": 100}},
		{ID: "zg-2", Location: at(45.81, 15.98), Demand: map[string]float64{"p": 100}},
		{ID: "st-2", Location: at(43.52, 16.45), Demand: map[string]float64{"p": 100}},
	}
}

func TestLocate(t *testing.T) {
	seed := uint64(42)
	req := &LocateRequest{
		Customers: towns(),
		Settings: LocateSettings{
			NumDCs:                           2,
			DCCapacity:                       150,
			TransportationCostPerMilePerUnit: 1,
			FacilityCost:                     1000,
			DistanceUnit:                     "mile",
			Seed:                             &seed,
		},
	}

	resp, err := NewService(nil).Locate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.DCs, 2)
	assert.False(t, resp.Feasible)
	assert.Len(t, resp.Warnings, 2)
	assert.Equal(t, 2, resp.CostBreakdown.NumSites)
	assert.Equal(t, 2000.0, resp.CostBreakdown.FacilityCost)
	assert.Equal(t, "new", resp.Strategy)
	assert.Equal(t, "converged", resp.Status)
	for _, dc := range resp.DCs {
		assert.Len(t, dc.AssignedCustomers, 2)
		assert.Equal(t, 200.0, dc.TotalDemand)
	}

	again, err := NewService(nil).Locate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, resp, again)
}

func TestLocateHonoursExistingSiteCapacity(t *testing.T) {
	req := &LocateRequest{
		Customers:     []CustomerInput{{ID: "c", Location: at(45, 15), Demand: map[string]float64{"A": 100}}},
		ExistingSites: []FacilityInput{{ID: "E1", Location: at(45, 15), Capacity: map[string]float64{"A": 10}}},
		Settings: LocateSettings{
			NumDCs:               1,
			IncludeExistingSites: true,
			ExistingSitesMode:    "use-existing-subset",
		},
	}

	resp, err := NewService(nil).Locate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.DCs, 1)
	assert.Equal(t, "E1", resp.DCs[0].ID)
	assert.Equal(t, 10.0, resp.DCs[0].Capacity)
	assert.False(t, resp.Feasible)
	assert.NotEmpty(t, resp.Warnings)
}

func TestLocateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*LocateRequest)
		field  string
	}{
		{"no customers", func(r *LocateRequest) { r.Customers = nil }, "customers"},
		{"zero sites", func(r *LocateRequest) { r.Settings.NumDCs = 0 }, "settings.numDCs"},
		{"too many sites", func(r *LocateRequest) { r.Settings.NumDCs = 1000 }, "settings.numDCs"},
		{"unknown mode", func(r *LocateRequest) { r.Settings.Mode = "fast" }, "settings.mode"},
		{"unknown strategy", func(r *LocateRequest) { r.Settings.Strategy = "random" }, "settings.strategy"},
		{"unknown existing mode", func(r *LocateRequest) { r.Settings.ExistingSitesMode = "never" }, "settings.existingSitesMode"},
		{"unknown unit", func(r *LocateRequest) { r.Settings.DistanceUnit = "parsec" }, "settings.distanceUnit"},
		{"negative demand", func(r *LocateRequest) { r.Customers[0].Demand["p"] = -1 }, "customers"},
		{"site without location", func(r *LocateRequest) { r.ExistingSites = []FacilityInput{{ID: "x"}} }, "existingSites"},
	}

	svc := NewService(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &LocateRequest{Customers: towns(), Settings: LocateSettings{NumDCs: 2}}
			tt.mutate(req)
			_, err := svc.Locate(context.Background(), req)
			var invalid ErrInvalidRequest
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

func TestIsPrecondition(t *testing.T) {
	assert.True(t, IsPrecondition(ErrInvalidRequest{Field: "x"}))
	assert.True(t, IsPrecondition(lp.ErrNoFacilities))
	assert.False(t, IsPrecondition(errors.New("boom")))
	assert.False(t, IsPrecondition(nil))
}
