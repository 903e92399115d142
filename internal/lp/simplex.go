// Package lp builds flow linear programs from a supply network and solves them
// with a dense-tableau simplex method.
//
// The solver handles programs of the form
//
//	maximize  c·x
//	subject to A·x ≤ b, x ≥ 0, b ≥ 0
//
// starting from the all-slack basis. There is no phase one: a negative right-hand
// side is reported as StatusInfeasible instead of being repaired.
package lp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultMaxIterations caps the number of pivots per solve.
const DefaultMaxIterations = 1000

const (
	// pivotTol is the magnitude under which tableau entries are treated as zero
	// when choosing entering columns and ratio-test rows.
	pivotTol = 1e-9
	// unitTol is the tolerance used when recognising unit columns in the final tableau.
	unitTol = 1e-9
	// feasTol is how negative a right-hand side may be before the origin is infeasible.
	feasTol = 1e-12
)

var (
	ErrShape = errors.New("lp: size mismatch")
	ErrNaN   = errors.New("lp: problem contains NaN or Inf")
)

// Status describes how a simplex run ended.
type Status int

const (
	StatusOptimal Status = iota
	StatusIterationCapReached
	StatusUnbounded
	StatusInfeasible
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusIterationCapReached:
		return "iteration_cap_reached"
	case StatusUnbounded:
		return "unbounded"
	case StatusInfeasible:
		return "infeasible"
	default:
		return "unknown"
	}
}

// MarshalText renders the status as its string form.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Problem is a linear program in the solver's standard form.
type Problem struct {
	C []float64   // objective coefficients, one per variable
	A [][]float64 // constraint rows
	B []float64   // right-hand sides
}

// Validate checks dimensions and finiteness.
func (p Problem) Validate() error {
	if len(p.A) != len(p.B) {
		return fmt.Errorf("%w: %d constraint rows, %d right-hand sides", ErrShape, len(p.A), len(p.B))
	}
	if !finite(p.C) || !finite(p.B) {
		return ErrNaN
	}
	for i, row := range p.A {
		if len(row) != len(p.C) {
			return fmt.Errorf("%w: row %d has %d coefficients, want %d", ErrShape, i, len(row), len(p.C))
		}
		if !finite(row) {
			return ErrNaN
		}
	}
	return nil
}

// Solution is the outcome of a simplex run.
type Solution struct {
	X          []float64
	Objective  float64
	Iterations int
	Status     Status
}

// Simplex solves p with at most maxIterations pivots (DefaultMaxIterations when
// maxIterations <= 0). The entering column is the most negative entry of the
// objective row and the leaving row is picked by the minimum ratio test; ties go
// to the lowest index. Variable values are read from unit columns of the final
// tableau, so a run stopped at the cap returns the current basic solution.
func Simplex(p Problem, maxIterations int) (*Solution, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	n := len(p.C)
	sol := &Solution{X: make([]float64, n)}

	for _, b := range p.B {
		if b < -feasTol {
			sol.Status = StatusInfeasible
			return sol, nil
		}
	}
	if n == 0 {
		sol.Status = StatusOptimal
		return sol, nil
	}

	t := newTableau(p)

	sol.Status = StatusIterationCapReached
	for sol.Iterations < maxIterations {
		col := t.enteringColumn()
		if col < 0 {
			sol.Status = StatusOptimal
			break
		}
		row := t.leavingRow(col)
		if row < 0 {
			sol.Status = StatusUnbounded
			break
		}
		t.pivot(row, col)
		sol.Iterations++
	}
	if sol.Status == StatusIterationCapReached && t.enteringColumn() < 0 {
		sol.Status = StatusOptimal
	}

	t.extract(sol.X)
	sol.Objective = floats.Dot(p.C, sol.X)
	return sol, nil
}

// tableau is the augmented matrix [A | I | b] with the objective row [-c | 0 | z]
// appended as the last row.
type tableau struct {
	m, n int
	d    *mat.Dense
}

func newTableau(p Problem) *tableau {
	m, n := len(p.B), len(p.C)
	cols := n + m + 1
	d := mat.NewDense(m+1, cols, nil)
	for i := 0; i < m; i++ {
		row := d.RawRowView(i)
		copy(row, p.A[i])
		row[n+i] = 1
		row[cols-1] = p.B[i]
	}
	obj := d.RawRowView(m)
	for j, c := range p.C {
		obj[j] = -c
	}
	return &tableau{m: m, n: n, d: d}
}

func (t *tableau) rhs() int { return t.n + t.m }

func (t *tableau) enteringColumn() int {
	obj := t.d.RawRowView(t.m)
	best := -1
	bestVal := -pivotTol
	for j := 0; j < t.rhs(); j++ {
		if obj[j] < bestVal {
			bestVal = obj[j]
			best = j
		}
	}
	return best
}

func (t *tableau) leavingRow(col int) int {
	best := -1
	bestRatio := math.Inf(1)
	rhs := t.rhs()
	for i := 0; i < t.m; i++ {
		a := t.d.At(i, col)
		if a <= pivotTol {
			continue
		}
		ratio := t.d.At(i, rhs) / a
		if ratio < bestRatio {
			bestRatio = ratio
			best = i
		}
	}
	return best
}

func (t *tableau) pivot(row, col int) {
	pr := t.d.RawRowView(row)
	floats.Scale(1/pr[col], pr)
	pr[col] = 1
	for i := 0; i <= t.m; i++ {
		if i == row {
			continue
		}
		r := t.d.RawRowView(i)
		factor := r[col]
		if factor == 0 {
			continue
		}
		floats.AddScaled(r, -factor, pr)
		r[col] = 0
	}
}

// extract writes the value of every decision variable whose column is a unit
// vector. Each constraint row is claimed by at most one column.
func (t *tableau) extract(x []float64) {
	rhs := t.rhs()
	claimed := make([]bool, t.m)
	for j := 0; j < t.n; j++ {
		x[j] = 0
		one := -1
		unit := true
		for i := 0; i <= t.m; i++ {
			v := t.d.At(i, j)
			switch {
			case math.Abs(v-1) <= unitTol && one < 0 && i < t.m:
				one = i
			case math.Abs(v) <= unitTol:
			default:
				unit = false
			}
			if !unit {
				break
			}
		}
		if !unit || one < 0 || claimed[one] {
			continue
		}
		claimed[one] = true
		x[j] = math.Max(0, t.d.At(one, rhs))
	}
}

func finite(v []float64) bool {
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
