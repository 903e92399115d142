package lp

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestSimplexTextbookProblem(t *testing.T) {
	// maximize 3x + 5y s.t. x <= 4, 2y <= 12, 3x + 2y <= 18
	p := Problem{
		C: []float64{3, 5},
		A: [][]float64{
			{1, 0},
			{0, 2},
			{3, 2},
		},
		B: []float64{4, 12, 18},
	}

	sol, err := Simplex(p, 0)
	require.NoError(t, err)

	assert.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 2.0, sol.X[0], 1e-9)
	assert.InDelta(t, 6.0, sol.X[1], 1e-9)
	assert.InDelta(t, 36.0, sol.Objective, 1e-9)
	assert.Equal(t, 2, sol.Iterations)
}

func TestSimplexUnbounded(t *testing.T) {
	p := Problem{
		C: []float64{1, 1},
		A: [][]float64{{-1, 1}},
		B: []float64{1},
	}

	sol, err := Simplex(p, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusUnbounded, sol.Status)
}

func TestSimplexInfeasibleOrigin(t *testing.T) {
	p := Problem{
		C: []float64{1},
		A: [][]float64{{1}},
		B: []float64{-5},
	}

	sol, err := Simplex(p, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, sol.Status)
	assert.Equal(t, []float64{0}, sol.X)
	assert.Equal(t, 0, sol.Iterations)
}

func TestSimplexIterationCap(t *testing.T) {
	p := Problem{
		C: []float64{3, 5},
		A: [][]float64{{1, 0}, {0, 2}, {3, 2}},
		B: []float64{4, 12, 18},
	}

	sol, err := Simplex(p, 1)
	require.NoError(t, err)

	assert.Equal(t, StatusIterationCapReached, sol.Status)
	assert.Equal(t, 1, sol.Iterations)
	// First pivot brings y in at 6.
	assert.InDelta(t, 0.0, sol.X[0], 1e-9)
	assert.InDelta(t, 6.0, sol.X[1], 1e-9)
	assert.InDelta(t, 30.0, sol.Objective, 1e-9)
}

func TestSimplexAlreadyOptimalAtOrigin(t *testing.T) {
	p := Problem{
		C: []float64{-1, -2},
		A: [][]float64{{1, 1}},
		B: []float64{10},
	}

	sol, err := Simplex(p, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.Equal(t, 0, sol.Iterations)
	assert.Equal(t, []float64{0, 0}, sol.X)
}

func TestSimplexShapeErrors(t *testing.T) {
	_, err := Simplex(Problem{C: []float64{1, 2}, A: [][]float64{{1}}, B: []float64{1}}, 0)
	assert.ErrorIs(t, err, ErrShape)

	_, err = Simplex(Problem{C: []float64{1}, A: [][]float64{{1}}, B: nil}, 0)
	assert.ErrorIs(t, err, ErrShape)
}

func TestSimplexDeterministic(t *testing.T) {
	p := randomProblem(rand.New(rand.NewPCG(7, 11)), 6, 4)

	first, err := Simplex(p, 0)
	require.NoError(t, err)
	second, err := Simplex(p, 0)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// TestSimplexFeasibilityProperty checks, over random problems with a feasible
// origin, that the reported objective is c·x and that no constraint is violated.
func TestSimplexFeasibilityProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 1))

	for i := 0; i < 200; i++ {
		n := 1 + rng.IntN(8)
		m := 1 + rng.IntN(8)
		p := randomProblem(rng, n, m)

		sol, err := Simplex(p, 0)
		require.NoError(t, err)
		require.Equal(t, StatusOptimal, sol.Status, "problem %d", i)

		assert.InDelta(t, floats.Dot(p.C, sol.X), sol.Objective, 1e-9)
		for j, x := range sol.X {
			assert.GreaterOrEqual(t, x, 0.0, "x[%d]", j)
		}
		for r, row := range p.A {
			assert.LessOrEqual(t, floats.Dot(row, sol.X), p.B[r]+1e-7, "problem %d row %d", i, r)
		}
	}
}

// randomProblem returns a bounded program: every coefficient of A is positive.
func randomProblem(rng *rand.Rand, n, m int) Problem {
	p := Problem{C: make([]float64, n), A: make([][]float64, m), B: make([]float64, m)}
	for j := range p.C {
		p.C[j] = rng.Float64()*6 - 1
	}
	for i := range p.A {
		p.A[i] = make([]float64, n)
		for j := range p.A[i] {
			p.A[i][j] = 0.1 + rng.Float64()
		}
		p.B[i] = 1 + rng.Float64()*9
	}
	return p
}

func TestStatusText(t *testing.T) {
	b, err := StatusIterationCapReached.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "iteration_cap_reached", string(b))
	assert.Equal(t, "unbounded", StatusUnbounded.String())
}
