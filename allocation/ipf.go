/*
ipf.go - Iterative proportional fitting (the RAS algorithm)

PURPOSE:
  Synthesizes a plausible interior matrix from row and column marginal
  targets alone. Rows and columns are alternately rescaled until both sets
  of sums match their targets within tolerance, or the iteration cap hits.

CONVERGENCE:
  Guaranteed for non-negative targets with a compatible seed zero pattern,
  not in general. A run that exhausts the cap returns its last iterate with
  Converged=false rather than failing: the caller decides what a best-effort
  matrix is worth.

SEEDING:
  With no seed supplied, the outer product of positivity indicators is used,
  falling back to all-ones when every target is zero so degenerate margins
  still have somewhere to land.

SEE ALSO:
  - rounding.go: Converts the fitted real matrix to exact cents
*/
package allocation

import (
	"context"
	"math"
)

// Fit defaults.
const (
	DefaultMaxIterations = 5000
	DefaultTolerance     = 1e-10
)

// FitOptions controls the fitting loop.
type FitOptions struct {
	// MaxIterations caps the number of row+column rescale passes.
	MaxIterations int
	// Tolerance is the absolute tolerance for the margin convergence check.
	Tolerance float64
}

// DefaultFitOptions returns the standard cap and tolerance.
func DefaultFitOptions() FitOptions {
	return FitOptions{MaxIterations: DefaultMaxIterations, Tolerance: DefaultTolerance}
}

func (o FitOptions) withDefaults() FitOptions {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	return o
}

// FitResult carries the fitted matrix plus how the loop ended.
type FitResult struct {
	Matrix     *Matrix
	Converged  bool
	Iterations int
}

// Fit runs iterative proportional fitting against the given marginal
// targets. seed may be nil. The context is checked between iterations; on
// cancellation the last iterate is returned along with ctx.Err().
//
// A nil error with Converged=false means the cap was reached: the result is
// the best approximation achieved, by design not an error.
func Fit(ctx context.Context, rowTargets, colTargets []float64, seed *Matrix, opts FitOptions) (*FitResult, error) {
	opts = opts.withDefaults()
	nR, nC := len(rowTargets), len(colTargets)

	if seed != nil {
		sr, sc := seed.Shape()
		if sr != nR || sc != nC {
			return nil, &ShapeError{WantRows: nR, WantCols: nC, GotRows: sr, GotCols: sc}
		}
	}

	if nR == 0 || nC == 0 {
		return &FitResult{Matrix: NewMatrix(nR, nC), Converged: true}, nil
	}

	x := buildSeed(rowTargets, colTargets, seed)

	// One rescale pair up front, then the capped loop with a convergence
	// check after each pair.
	rescale(x, rowTargets, colTargets)

	for iter := 1; iter <= opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return &FitResult{Matrix: x, Converged: false, Iterations: iter}, err
		}

		rescale(x, rowTargets, colTargets)

		if allClose(x.RowSums(), rowTargets, opts.Tolerance) &&
			allClose(x.ColSums(), colTargets, opts.Tolerance) {
			return &FitResult{Matrix: x, Converged: true, Iterations: iter}, nil
		}
	}

	return &FitResult{Matrix: x, Converged: false, Iterations: opts.MaxIterations}, nil
}

func buildSeed(rowTargets, colTargets []float64, seed *Matrix) *Matrix {
	if seed != nil {
		return seed.Clone()
	}
	rInd := indicator(rowTargets)
	cInd := indicator(colTargets)
	x := Outer(rInd, cInd)
	if x.Sum() == 0 {
		return Ones(len(rowTargets), len(colTargets))
	}
	return x
}

func indicator(targets []float64) []float64 {
	out := make([]float64, len(targets))
	for i, t := range targets {
		if t > 0 {
			out[i] = 1
		}
	}
	return out
}

// rescale performs one row pass then one column pass. Rows or columns whose
// current sum is zero are left unscaled; there is nothing to redistribute
// and dividing by zero would poison the matrix.
func rescale(x *Matrix, rowTargets, colTargets []float64) {
	rowSums := x.RowSums()
	for i, s := range rowSums {
		if s == 0 {
			continue
		}
		x.ScaleRow(i, rowTargets[i]/s)
	}
	colSums := x.ColSums()
	for j, s := range colSums {
		if s == 0 {
			continue
		}
		x.ScaleCol(j, colTargets[j]/s)
	}
}

func allClose(got, want []float64, tol float64) bool {
	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			return false
		}
	}
	return true
}
