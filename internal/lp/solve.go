package lp

import "math"

// DefaultNoiseThreshold drops solved flows below this quantity.
const DefaultNoiseThreshold = 0.01

// Flow is one reported arc flow.
type Flow struct {
	Product  string  `json:"product"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Quantity float64 `json:"quantity"`
}

// ProductSummary compares delivered quantity against demand for one product.
type ProductSummary struct {
	Product      string  `json:"product"`
	Demand       float64 `json:"demand"`
	Delivered    float64 `json:"delivered"`
	ServiceLevel float64 `json:"serviceLevel"`
}

// Result is a solved flow plan.
type Result struct {
	Flows []Flow
	// ObjectiveValue is the cost (or time) of the reported flows.
	ObjectiveValue float64
	// SolverObjective is c·x of the program actually maximised.
	SolverObjective float64
	Iterations      int
	Status          Status
	Products        []ProductSummary
	Warnings        []string
	Variables       int
	Constraints     int
}

// Solver runs BuildModel and Simplex with fixed limits.
type Solver struct {
	MaxIterations  int
	NoiseThreshold float64
	Build          BuildOptions
}

// NewSolver returns a solver with the package defaults.
func NewSolver() *Solver {
	return &Solver{
		MaxIterations:  DefaultMaxIterations,
		NoiseThreshold: DefaultNoiseThreshold,
		Build: BuildOptions{
			Policy:          DefaultMissingDataPolicy(),
			AssumedSpeedKmh: DefaultAssumedSpeedKmh,
		},
	}
}

// Solve builds and solves the network. It is a pure function of its input.
func (s *Solver) Solve(net Network) (*Result, error) {
	model, err := BuildModel(net, s.Build)
	if err != nil {
		return nil, err
	}
	sol, err := Simplex(model.Problem, s.MaxIterations)
	if err != nil {
		return nil, err
	}
	return s.extract(model, sol), nil
}

func (s *Solver) extract(model *Model, sol *Solution) *Result {
	threshold := s.NoiseThreshold
	if threshold < 0 {
		threshold = 0
	}

	res := &Result{
		Flows:           make([]Flow, 0),
		SolverObjective: sol.Objective,
		Iterations:      sol.Iterations,
		Status:          sol.Status,
		Warnings:        model.Warnings,
		Variables:       len(model.Variables),
		Constraints:     len(model.Rows),
	}

	delivered := make(map[string]float64)
	for j, v := range model.Variables {
		q := sol.X[j]
		if q < threshold || q == 0 {
			continue
		}
		res.Flows = append(res.Flows, Flow{Product: v.Product, From: v.From, To: v.To, Quantity: q})
		res.ObjectiveValue += v.Coefficient * q
		if v.Kind == ArcOutbound {
			delivered[v.Product] += q
		}
	}

	demand := make(map[string]float64)
	var order []string
	for i, row := range model.Rows {
		if row.Kind != RowDemand {
			continue
		}
		if _, seen := demand[row.Product]; !seen {
			order = append(order, row.Product)
		}
		demand[row.Product] += model.Problem.B[i]
	}
	for _, p := range order {
		ps := ProductSummary{Product: p, Demand: demand[p], Delivered: delivered[p]}
		if ps.Demand > 0 {
			ps.ServiceLevel = math.Min(100, ps.Delivered/ps.Demand*100)
		}
		res.Products = append(res.Products, ps)
	}
	return res
}
