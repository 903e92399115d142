package optimizer

import (
	"github.com/kosarica/network-optimizer/internal/location"
	"github.com/kosarica/network-optimizer/internal/lp"
)

func toNetwork(req *SolveRequest, objective lp.Objective) lp.Network {
	net := lp.Network{
		Suppliers:     make([]lp.Supplier, len(req.Suppliers)),
		Facilities:    make([]lp.Facility, len(req.Facilities)),
		Customers:     make([]lp.Customer, len(req.Customers)),
		Products:      req.Products,
		Distances:     make([]lp.Arc, len(req.Distances)),
		TransportRate: req.Costs.Transportation,
		Objective:     objective,
		ModelInbound:  req.Settings.ModelInbound,
	}
	for i, s := range req.Suppliers {
		net.Suppliers[i] = lp.Supplier{ID: s.ID, Location: s.Location, Supply: s.Supply}
	}
	for i, f := range req.Facilities {
		net.Facilities[i] = lp.Facility{ID: f.ID, Location: f.Location, Capacity: f.Capacity}
	}
	for i, c := range req.Customers {
		net.Customers[i] = lp.Customer{ID: c.ID, Location: c.Location, Demand: scaled(c.Demand, c.ConversionFactor)}
	}
	for i, d := range req.Distances {
		net.Distances[i] = lp.Arc{From: d.From, To: d.To, Distance: d.Distance}
	}
	return net
}

// scaled applies a conversion factor, keeping absent keys absent.
func scaled(demand map[string]float64, factor float64) map[string]float64 {
	if factor <= 0 || factor == 1 || demand == nil {
		return demand
	}
	out := make(map[string]float64, len(demand))
	for p, d := range demand {
		out[p] = d * factor
	}
	return out
}

func toCustomers(in []CustomerInput) []location.Customer {
	out := make([]location.Customer, len(in))
	for i, c := range in {
		out[i] = location.Customer{ID: c.ID, Demand: c.Demand, ConversionFactor: c.ConversionFactor}
		if c.Location != nil {
			out[i].Location = *c.Location
		}
	}
	return out
}

func toSites(in []FacilityInput) []location.Site {
	out := make([]location.Site, len(in))
	for i, f := range in {
		out[i] = location.Site{
			ID:            f.ID,
			Capacity:      f.Capacity,
			TotalCapacity: f.TotalCapacity,
			Existing:      f.Existing,
		}
		if f.Location != nil {
			out[i].Location = *f.Location
		}
	}
	return out
}

func toAssignments(in []location.Assignment) []AssignmentOutput {
	out := make([]AssignmentOutput, len(in))
	for i, a := range in {
		out[i] = AssignmentOutput{
			CustomerID: a.CustomerID,
			FacilityID: a.FacilityID,
			Product:    a.Product,
			Quantity:   a.Quantity,
			Distance:   a.Distance,
		}
	}
	return out
}
