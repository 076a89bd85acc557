/*
Package allocation provides the core premium distribution engine.

PURPOSE:
  This package contains the domain-agnostic numeric machinery for spreading
  aggregate financial totals across a locations x coverages grid:
  - Largest-remainder apportionment of a single total into exact cents
  - Iterative proportional fitting (RAS) against row/column marginal targets
  - Joint two-decimal rounding that satisfies row AND column cent targets
    simultaneously

KEY CONCEPTS IN THIS FILE (types.go):
  - Matrix:      A dense real-valued grid with row/column sum accessors
  - CentsMatrix: The final integer-cents grid, convertible back to dollars

DESIGN PRINCIPLES:
  1. Explicit shapes: every matrix knows its dimensions; no ragged slices
  2. Precision: currency targets travel as decimal.Decimal, interior fitting
     runs in float64, final results are integer cents
  3. No hidden state: all operations are pure functions over their inputs

USAGE:
  fit, _ := allocation.Fit(ctx, rowTargets, colTargets, nil, allocation.DefaultFitOptions())
  cents := allocation.RoundMatrixExactCents(fit.Matrix, rowDollars, colDollars)

SEE ALSO:
  - apportion.go: Single-total largest-remainder split
  - ipf.go:       Iterative proportional fitting loop
  - rounding.go:  Joint exact-cents rounding
*/
package allocation

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MATRIX - Dense real-valued grid
// =============================================================================

// Matrix is a dense rows x cols grid of float64 values stored row-major.
type Matrix struct {
	rows, cols int
	data       []float64
}

// NewMatrix creates a zero-filled matrix. Zero dimensions are valid and
// produce an empty matrix.
func NewMatrix(rows, cols int) *Matrix {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// Ones creates a matrix with every cell set to 1.
func Ones(rows, cols int) *Matrix {
	m := NewMatrix(rows, cols)
	for i := range m.data {
		m.data[i] = 1
	}
	return m
}

// Outer creates the outer product u x v.
func Outer(u, v []float64) *Matrix {
	m := NewMatrix(len(u), len(v))
	for i, uv := range u {
		for j, vv := range v {
			m.data[i*m.cols+j] = uv * vv
		}
	}
	return m
}

// Shape returns (rows, cols).
func (m *Matrix) Shape() (int, int) { return m.rows, m.cols }

// At returns the value at (i, j).
func (m *Matrix) At(i, j int) float64 { return m.data[i*m.cols+j] }

// Set assigns the value at (i, j).
func (m *Matrix) Set(i, j int, v float64) { m.data[i*m.cols+j] = v }

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	c := NewMatrix(m.rows, m.cols)
	copy(c.data, m.data)
	return c
}

// RowSums returns the sum of each row.
func (m *Matrix) RowSums() []float64 {
	sums := make([]float64, m.rows)
	for i := 0; i < m.rows; i++ {
		var s float64
		for j := 0; j < m.cols; j++ {
			s += m.data[i*m.cols+j]
		}
		sums[i] = s
	}
	return sums
}

// ColSums returns the sum of each column.
func (m *Matrix) ColSums() []float64 {
	sums := make([]float64, m.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			sums[j] += m.data[i*m.cols+j]
		}
	}
	return sums
}

// Sum returns the grand total of all cells.
func (m *Matrix) Sum() float64 {
	var s float64
	for _, v := range m.data {
		s += v
	}
	return s
}

// ScaleRow multiplies every cell in row i by f.
func (m *Matrix) ScaleRow(i int, f float64) {
	for j := 0; j < m.cols; j++ {
		m.data[i*m.cols+j] *= f
	}
}

// ScaleCol multiplies every cell in column j by f.
func (m *Matrix) ScaleCol(j int, f float64) {
	for i := 0; i < m.rows; i++ {
		m.data[i*m.cols+j] *= f
	}
}

// =============================================================================
// CENTS MATRIX - Final integer-cents grid
// =============================================================================

// CentsMatrix is a dense rows x cols grid of integer cents. It is the final
// form of an allocation: integer arithmetic, zero drift.
type CentsMatrix struct {
	rows, cols int
	data       []int64
}

// NewCentsMatrix creates a zero-filled cents matrix.
func NewCentsMatrix(rows, cols int) *CentsMatrix {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &CentsMatrix{rows: rows, cols: cols, data: make([]int64, rows*cols)}
}

// Shape returns (rows, cols).
func (m *CentsMatrix) Shape() (int, int) { return m.rows, m.cols }

// At returns the cents at (i, j).
func (m *CentsMatrix) At(i, j int) int64 { return m.data[i*m.cols+j] }

// Set assigns the cents at (i, j).
func (m *CentsMatrix) Set(i, j int, v int64) { m.data[i*m.cols+j] = v }

// Add increments the cents at (i, j).
func (m *CentsMatrix) Add(i, j int, v int64) { m.data[i*m.cols+j] += v }

// RowSums returns the cents sum of each row.
func (m *CentsMatrix) RowSums() []int64 {
	sums := make([]int64, m.rows)
	for i := 0; i < m.rows; i++ {
		var s int64
		for j := 0; j < m.cols; j++ {
			s += m.data[i*m.cols+j]
		}
		sums[i] = s
	}
	return sums
}

// ColSums returns the cents sum of each column.
func (m *CentsMatrix) ColSums() []int64 {
	sums := make([]int64, m.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			sums[j] += m.data[i*m.cols+j]
		}
	}
	return sums
}

// DollarsAt returns the cell at (i, j) as a two-decimal dollar amount.
func (m *CentsMatrix) DollarsAt(i, j int) decimal.Decimal {
	return centsToDollars(m.data[i*m.cols+j])
}

// DollarMatrix returns the full grid as two-decimal dollar amounts.
func (m *CentsMatrix) DollarMatrix() [][]decimal.Decimal {
	out := make([][]decimal.Decimal, m.rows)
	for i := 0; i < m.rows; i++ {
		row := make([]decimal.Decimal, m.cols)
		for j := 0; j < m.cols; j++ {
			row[j] = centsToDollars(m.data[i*m.cols+j])
		}
		out[i] = row
	}
	return out
}

// =============================================================================
// CURRENCY CONVERSION HELPERS
// =============================================================================

var hundred = decimal.NewFromInt(100)

// DollarsToCents converts a dollar amount to its nearest-cent integer form.
func DollarsToCents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

func centsToDollars(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

// CentsToDollars converts integer cents back to a two-decimal dollar amount.
func CentsToDollars(c int64) decimal.Decimal {
	return centsToDollars(c)
}
