package lp

import (
	"errors"
	"fmt"
	"math"

	"github.com/kosarica/network-optimizer/internal/geo"
)

// Objective selects what an arc coefficient measures.
type Objective string

const (
	ObjectiveCost Objective = "cost"
	ObjectiveTime Objective = "time"
)

// ParseObjective maps user input to an Objective. Empty input means cost.
func ParseObjective(s string) (Objective, error) {
	switch Objective(s) {
	case "", ObjectiveCost:
		return ObjectiveCost, nil
	case ObjectiveTime:
		return ObjectiveTime, nil
	default:
		return "", fmt.Errorf("unknown objective type %q", s)
	}
}

// Placeholder values substituted for missing data under PolicyDefault.
const (
	DefaultPlaceholderDemand   = 100.0
	DefaultPlaceholderCapacity = 10000.0
	DefaultPlaceholderDistance = 1000.0
	DefaultAssumedSpeedKmh     = 60.0
)

var (
	ErrNoFacilities    = errors.New("lp: network has no facilities")
	ErrNoCustomers     = errors.New("lp: network has no customers")
	ErrNoProducts      = errors.New("lp: network has no products")
	ErrMissingValue    = errors.New("lp: missing value")
	ErrInvalidQuantity = errors.New("lp: invalid quantity")
	ErrDuplicateID     = errors.New("lp: duplicate id")
)

// PolicyMode decides what happens when demand, capacity or distance is missing.
type PolicyMode string

const (
	PolicyDefault PolicyMode = "default"
	PolicyReject  PolicyMode = "reject"
)

// MissingDataPolicy replaces the placeholder constants of the network with an
// explicit caller decision.
type MissingDataPolicy struct {
	Mode     PolicyMode
	Demand   float64
	Capacity float64
	Distance float64
}

// DefaultMissingDataPolicy substitutes the package placeholders.
func DefaultMissingDataPolicy() MissingDataPolicy {
	return MissingDataPolicy{
		Mode:     PolicyDefault,
		Demand:   DefaultPlaceholderDemand,
		Capacity: DefaultPlaceholderCapacity,
		Distance: DefaultPlaceholderDistance,
	}
}

// Supplier is an upstream source. Supply is keyed by product; an absent key is missing data.
type Supplier struct {
	ID       string
	Location *geo.Coordinate
	Supply   map[string]float64
}

// Facility is an intermediate node shipping to customers. Capacity is keyed by product.
type Facility struct {
	ID       string
	Location *geo.Coordinate
	Capacity map[string]float64
}

// Customer is a demand point. Demand is keyed by product.
type Customer struct {
	ID       string
	Location *geo.Coordinate
	Demand   map[string]float64
}

// Arc is one entry of the inter-node distance table.
type Arc struct {
	From     string
	To       string
	Distance float64
}

// Network is the topology and cost input of a flow solve.
type Network struct {
	Suppliers     []Supplier
	Facilities    []Facility
	Customers     []Customer
	Products      []string
	Distances     []Arc
	TransportRate float64
	Objective     Objective
	// ModelInbound adds supplier→facility flows with conservation and supply rows.
	ModelInbound bool
}

// BuildOptions tunes model construction.
type BuildOptions struct {
	Policy          MissingDataPolicy
	AssumedSpeedKmh float64
	// ServicePremium is the reward per delivered unit. Zero derives it from the
	// largest arc coefficient so every delivery is profitable.
	ServicePremium float64
}

// ArcKind tells inbound from outbound flow variables.
type ArcKind string

const (
	ArcInbound  ArcKind = "supplier_facility"
	ArcOutbound ArcKind = "facility_customer"
)

// Variable describes one flow variable of the model.
type Variable struct {
	Product     string
	From        string
	To          string
	Kind        ArcKind
	Distance    float64
	Coefficient float64 // cost or time per unit shipped
}

// RowKind names a constraint family.
type RowKind string

const (
	RowDemand       RowKind = "demand"
	RowCapacity     RowKind = "capacity"
	RowConservation RowKind = "conservation"
	RowSupply       RowKind = "supply"
)

// Row describes one constraint row of the model.
type Row struct {
	Kind    RowKind
	Product string
	Node    string
}

// Model is a built program plus the bookkeeping needed to read its solution back.
type Model struct {
	Problem   Problem
	Variables []Variable
	Rows      []Row
	Premium   float64
	Warnings  []string
}

type arcKey struct{ from, to string }

type builder struct {
	net       Network
	opts      BuildOptions
	distances map[arcKey]float64
	locations map[string]*geo.Coordinate
	missing   map[string]int
}

// BuildModel translates a network into a linear program. Outbound flow variables
// are ordered product, facility, customer; inbound ones follow, ordered product,
// supplier, facility.
func BuildModel(net Network, opts BuildOptions) (*Model, error) {
	if len(net.Facilities) == 0 {
		return nil, ErrNoFacilities
	}
	if len(net.Customers) == 0 {
		return nil, ErrNoCustomers
	}
	if len(net.Products) == 0 {
		return nil, ErrNoProducts
	}
	seen := make(map[string]struct{}, len(net.Products))
	for _, p := range net.Products {
		if _, dup := seen[p]; dup {
			return nil, fmt.Errorf("%w: product %q", ErrDuplicateID, p)
		}
		seen[p] = struct{}{}
	}
	if opts.Policy.Mode == "" {
		opts.Policy = DefaultMissingDataPolicy()
	}
	if opts.AssumedSpeedKmh <= 0 {
		opts.AssumedSpeedKmh = DefaultAssumedSpeedKmh
	}
	if net.Objective == "" {
		net.Objective = ObjectiveCost
	}
	if net.ModelInbound && len(net.Suppliers) == 0 {
		return nil, fmt.Errorf("lp: inbound modelling requested without suppliers")
	}

	b := &builder{
		net:       net,
		opts:      opts,
		distances: make(map[arcKey]float64, len(net.Distances)),
		locations: make(map[string]*geo.Coordinate),
		missing:   make(map[string]int),
	}
	for _, a := range net.Distances {
		b.distances[arcKey{a.From, a.To}] = a.Distance
	}
	for _, s := range net.Suppliers {
		b.locations[s.ID] = s.Location
	}
	for _, f := range net.Facilities {
		b.locations[f.ID] = f.Location
	}
	for _, c := range net.Customers {
		b.locations[c.ID] = c.Location
	}

	return b.build()
}

func (b *builder) build() (*Model, error) {
	net := b.net
	model := &Model{}

	// Flow variables
	outIdx := make(map[[3]string]int)
	for _, p := range net.Products {
		for _, f := range net.Facilities {
			for _, c := range net.Customers {
				d, err := b.distance(f.ID, c.ID)
				if err != nil {
					return nil, err
				}
				outIdx[[3]string{p, f.ID, c.ID}] = len(model.Variables)
				model.Variables = append(model.Variables, Variable{
					Product: p, From: f.ID, To: c.ID, Kind: ArcOutbound,
					Distance: d, Coefficient: b.coefficient(d),
				})
			}
		}
	}
	inIdx := make(map[[3]string]int)
	if net.ModelInbound {
		for _, p := range net.Products {
			for _, s := range net.Suppliers {
				for _, f := range net.Facilities {
					d, err := b.distance(s.ID, f.ID)
					if err != nil {
						return nil, err
					}
					inIdx[[3]string{p, s.ID, f.ID}] = len(model.Variables)
					model.Variables = append(model.Variables, Variable{
						Product: p, From: s.ID, To: f.ID, Kind: ArcInbound,
						Distance: d, Coefficient: b.coefficient(d),
					})
				}
			}
		}
	}

	nv := len(model.Variables)
	addRow := func(kind RowKind, product, node string, rhs float64, coeffs map[int]float64) {
		row := make([]float64, nv)
		for j, v := range coeffs {
			row[j] = v
		}
		model.Problem.A = append(model.Problem.A, row)
		model.Problem.B = append(model.Problem.B, rhs)
		model.Rows = append(model.Rows, Row{Kind: kind, Product: product, Node: node})
	}

	// Demand rows: inbound to each customer cannot exceed its demand.
	for _, p := range net.Products {
		for _, c := range net.Customers {
			demand, err := b.quantity("demand", c.ID, p, c.Demand, b.opts.Policy.Demand)
			if err != nil {
				return nil, err
			}
			coeffs := make(map[int]float64, len(net.Facilities))
			for _, f := range net.Facilities {
				coeffs[outIdx[[3]string{p, f.ID, c.ID}]] = 1
			}
			addRow(RowDemand, p, c.ID, demand, coeffs)
		}
	}

	// Capacity rows: outbound from each facility cannot exceed its capacity.
	for _, p := range net.Products {
		for _, f := range net.Facilities {
			capacity, err := b.quantity("capacity", f.ID, p, f.Capacity, b.opts.Policy.Capacity)
			if err != nil {
				return nil, err
			}
			coeffs := make(map[int]float64, len(net.Customers))
			for _, c := range net.Customers {
				coeffs[outIdx[[3]string{p, f.ID, c.ID}]] = 1
			}
			addRow(RowCapacity, p, f.ID, capacity, coeffs)
		}
	}

	if net.ModelInbound {
		for _, p := range net.Products {
			for _, f := range net.Facilities {
				coeffs := make(map[int]float64, len(net.Customers)+len(net.Suppliers))
				for _, c := range net.Customers {
					coeffs[outIdx[[3]string{p, f.ID, c.ID}]] = 1
				}
				for _, s := range net.Suppliers {
					coeffs[inIdx[[3]string{p, s.ID, f.ID}]] = -1
				}
				addRow(RowConservation, p, f.ID, 0, coeffs)
			}
		}
		for _, p := range net.Products {
			for _, s := range net.Suppliers {
				supply, err := b.quantity("supply", s.ID, p, s.Supply, b.opts.Policy.Capacity)
				if err != nil {
					return nil, err
				}
				coeffs := make(map[int]float64, len(net.Facilities))
				for _, f := range net.Facilities {
					coeffs[inIdx[[3]string{p, s.ID, f.ID}]] = 1
				}
				addRow(RowSupply, p, s.ID, supply, coeffs)
			}
		}
	}

	model.Premium = b.premium(model.Variables)
	model.Problem.C = make([]float64, nv)
	for j, v := range model.Variables {
		if v.Kind == ArcOutbound {
			model.Problem.C[j] = model.Premium - v.Coefficient
		} else {
			model.Problem.C[j] = -v.Coefficient
		}
	}

	model.Warnings = b.warnings()
	return model, nil
}

func (b *builder) coefficient(distance float64) float64 {
	if b.net.Objective == ObjectiveTime {
		return distance / b.opts.AssumedSpeedKmh
	}
	return b.net.TransportRate * distance
}

// distance resolves an arc length: directed table entry, reverse entry, great-circle
// distance between known coordinates, then the policy placeholder.
func (b *builder) distance(from, to string) (float64, error) {
	if d, ok := b.distances[arcKey{from, to}]; ok {
		if d < 0 {
			return 0, fmt.Errorf("%w: distance %s→%s is %v", ErrInvalidQuantity, from, to, d)
		}
		return d, nil
	}
	if d, ok := b.distances[arcKey{to, from}]; ok && d >= 0 {
		return d, nil
	}
	if a, c := b.locations[from], b.locations[to]; a != nil && c != nil {
		return geo.DistanceKm(*a, *c), nil
	}
	if b.opts.Policy.Mode == PolicyReject {
		return 0, fmt.Errorf("%w: distance %s→%s", ErrMissingValue, from, to)
	}
	b.missing["distance"]++
	return b.opts.Policy.Distance, nil
}

func (b *builder) quantity(kind, node, product string, values map[string]float64, placeholder float64) (float64, error) {
	if v, ok := values[product]; ok {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: %s of %s for product %s is %v", ErrInvalidQuantity, kind, node, product, v)
		}
		return v, nil
	}
	if b.opts.Policy.Mode == PolicyReject {
		return 0, fmt.Errorf("%w: %s of %s for product %s", ErrMissingValue, kind, node, product)
	}
	b.missing[kind]++
	return placeholder, nil
}

func (b *builder) premium(vars []Variable) float64 {
	if b.opts.ServicePremium > 0 {
		return b.opts.ServicePremium
	}
	var maxOut, maxIn float64
	for _, v := range vars {
		if v.Kind == ArcOutbound {
			maxOut = math.Max(maxOut, v.Coefficient)
		} else {
			maxIn = math.Max(maxIn, v.Coefficient)
		}
	}
	return 2*(maxOut+maxIn) + 1
}

func (b *builder) warnings() []string {
	var out []string
	placeholders := map[string]float64{
		"demand":   b.opts.Policy.Demand,
		"capacity": b.opts.Policy.Capacity,
		"supply":   b.opts.Policy.Capacity,
		"distance": b.opts.Policy.Distance,
	}
	for _, kind := range []string{"demand", "capacity", "supply", "distance"} {
		if n := b.missing[kind]; n > 0 {
			out = append(out, fmt.Sprintf("%d missing %s value(s) replaced with %g", n, kind, placeholders[kind]))
		}
	}
	return out
}
